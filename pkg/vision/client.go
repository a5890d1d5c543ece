// Package vision is a client for the Vision image annotation REST API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://vision.googleapis.com/v1"

// Feature types supported by the annotate endpoint.
const (
	FeatureLabelDetection     = "LABEL_DETECTION"
	FeatureObjectLocalization = "OBJECT_LOCALIZATION"
)

// Client performs Vision API operations.
type Client interface {
	Annotate(ctx context.Context, req AnnotateRequest) (*AnnotateResponse, error)
}

// AnnotateRequest asks for annotations on a single image. Features
// defaults to label detection plus object localization.
type AnnotateRequest struct {
	Image      []byte
	Features   []string
	MaxResults int
}

// AnnotateResponse holds the annotations for one image.
type AnnotateResponse struct {
	Labels  []LabelAnnotation  `json:"labelAnnotations"`
	Objects []ObjectAnnotation `json:"localizedObjectAnnotations"`
}

// LabelAnnotation is one scene-level label.
type LabelAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// ObjectAnnotation is one localized object with its normalized bounding
// polygon.
type ObjectAnnotation struct {
	Name         string       `json:"name"`
	Score        float64      `json:"score"`
	BoundingPoly BoundingPoly `json:"boundingPoly"`
}

// BoundingPoly holds the normalized vertices of an object outline.
type BoundingPoly struct {
	NormalizedVertices []Vertex `json:"normalizedVertices"`
}

// Vertex is one normalized polygon point.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StatusError reports a non-200 API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vision: unexpected status %d: %s", e.Code, e.Body)
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
	baseURL string
	http    *http.Client
}

// NewClient creates a Vision API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
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

type annotateBatchRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateBatchResponse struct {
	Responses []struct {
		AnnotateResponse
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

func (c *httpClient) Annotate(ctx context.Context, areq AnnotateRequest) (*AnnotateResponse, error) {
	if len(areq.Image) == 0 {
		return nil, eris.New("vision: empty image")
	}

	features := areq.Features
	if len(features) == 0 {
		features = []string{FeatureLabelDetection, FeatureObjectLocalization}
	}
	entry := annotateEntry{
		Image: imageContent{Content: base64.StdEncoding.EncodeToString(areq.Image)},
	}
	for _, f := range features {
		entry.Features = append(entry.Features, feature{Type: f, MaxResults: areq.MaxResults})
	}

	body, err := json.Marshal(annotateBatchRequest{Requests: []annotateEntry{entry}})
	if err != nil {
		return nil, eris.Wrap(err, "vision: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images:annotate", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "vision: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "vision: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "vision: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var result annotateBatchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "vision: unmarshal response")
	}

	if len(result.Responses) == 0 {
		return nil, eris.New("vision: empty response")
	}
	first := result.Responses[0]
	if first.Error != nil {
		return nil, eris.Errorf("vision: annotation error %d: %s", first.Error.Code, first.Error.Message)
	}

	return &first.AnnotateResponse, nil
}
