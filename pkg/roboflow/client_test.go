package roboflow_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityagoyal009/ocean-sentinel/pkg/roboflow"
)

func TestDetect(t *testing.T) {
	image := []byte("fake-jpeg-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/marine-debris/3", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "40", r.URL.Query().Get("confidence"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"predictions": [
				{"x": 320, "y": 240, "width": 64, "height": 120, "confidence": 0.83, "class": "bottle"},
				{"x": 100, "y": 400, "width": 200, "height": 90, "confidence": 0.55, "class": "plastic-bag"}
			],
			"image": {"width": 640, "height": 480}
		}`))
	}))
	defer srv.Close()

	c := roboflow.NewClient("test-key", "marine-debris", "3", roboflow.WithBaseURL(srv.URL))
	resp, err := c.Detect(context.Background(), roboflow.DetectRequest{
		Image:      image,
		Confidence: 40,
	})

	require.NoError(t, err)
	require.Len(t, resp.Predictions, 2)
	assert.Equal(t, "bottle", resp.Predictions[0].Class)
	assert.InDelta(t, 0.83, resp.Predictions[0].Confidence, 0.001)
	assert.InDelta(t, 320, resp.Predictions[0].X, 0.001)
	assert.Equal(t, 640, resp.Image.Width)
	assert.Equal(t, 480, resp.Image.Height)
}

func TestDetectDefaultThresholds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("confidence"))
		assert.False(t, r.URL.Query().Has("overlap"))

		_, _ = w.Write([]byte(`{"predictions": [], "image": {"width": 640, "height": 480}}`))
	}))
	defer srv.Close()

	c := roboflow.NewClient("test-key", "marine-debris", "3", roboflow.WithBaseURL(srv.URL))
	resp, err := c.Detect(context.Background(), roboflow.DetectRequest{Image: []byte("img")})

	require.NoError(t, err)
	assert.Empty(t, resp.Predictions)
}

func TestDetectStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "invalid api key"}`))
	}))
	defer srv.Close()

	c := roboflow.NewClient("bad-key", "marine-debris", "3", roboflow.WithBaseURL(srv.URL))
	_, err := c.Detect(context.Background(), roboflow.DetectRequest{Image: []byte("img")})

	require.Error(t, err)
	var statusErr *roboflow.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.Contains(t, statusErr.Body, "invalid api key")
}

func TestDetectEmptyImage(t *testing.T) {
	c := roboflow.NewClient("test-key", "marine-debris", "3")
	_, err := c.Detect(context.Background(), roboflow.DetectRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty image")
}
