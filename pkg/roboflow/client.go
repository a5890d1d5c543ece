// Package roboflow is a client for Roboflow hosted object-detection models.
package roboflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://detect.roboflow.com"

// Client performs inference against a hosted model.
type Client interface {
	Detect(ctx context.Context, req DetectRequest) (*DetectResponse, error)
}

// DetectRequest holds one inference call. Confidence and Overlap are
// percentage thresholds in [0, 100]; zero leaves the model default.
type DetectRequest struct {
	Image      []byte
	Confidence float64
	Overlap    float64
}

// DetectResponse is the model output for one image.
type DetectResponse struct {
	Predictions []Prediction `json:"predictions"`
	Image       ImageInfo    `json:"image"`
}

// Prediction is one detected box. X and Y are the box center in
// pixels of the inference image.
type Prediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

// ImageInfo reports the dimensions inference ran at.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StatusError reports a non-200 API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("roboflow: unexpected status %d: %s", e.Code, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	model   string
	version string
	baseURL string
	http    *http.Client
}

// NewClient creates a client bound to one model version, e.g.
// NewClient(key, "marine-debris", "3").
func NewClient(apiKey, model, version string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		model:   model,
		version: version,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Detect(ctx context.Context, dreq DetectRequest) (*DetectResponse, error) {
	if len(dreq.Image) == 0 {
		return nil, eris.New("roboflow: empty image")
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if dreq.Confidence > 0 {
		params.Set("confidence", strconv.FormatFloat(dreq.Confidence, 'f', -1, 64))
	}
	if dreq.Overlap > 0 {
		params.Set("overlap", strconv.FormatFloat(dreq.Overlap, 'f', -1, 64))
	}

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.model, c.version, params.Encode())
	body := base64.StdEncoding.EncodeToString(dreq.Image)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "roboflow: create request")
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "roboflow: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "roboflow: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var result DetectResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "roboflow: unmarshal response")
	}

	return &result, nil
}
