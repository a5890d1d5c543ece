package detector

import (
	"context"
	"errors"

	"github.com/adityagoyal009/ocean-sentinel/internal/fusion"
	"github.com/adityagoyal009/ocean-sentinel/internal/model"
	"github.com/adityagoyal009/ocean-sentinel/pkg/roboflow"
)

const defaultConfidencePct = 40

// RoboflowObjects turns a hosted debris model into an object detector.
// Pixel-space predictions are normalized to [0, 1] box coordinates.
type RoboflowObjects struct {
	client     roboflow.Client
	confidence float64
	opts       Options
}

// NewRoboflowObjects creates the adapter. confidence is the percentage
// threshold forwarded to the model; zero or below uses the default.
func NewRoboflowObjects(client roboflow.Client, confidence float64, opts Options) *RoboflowObjects {
	if confidence <= 0 {
		confidence = defaultConfidencePct
	}
	return &RoboflowObjects{client: client, confidence: confidence, opts: opts}
}

func (d *RoboflowObjects) Name() string { return "roboflow" }

func (d *RoboflowObjects) DetectObjects(ctx context.Context, image []byte) (*fusion.ObjectResult, error) {
	out, cached, err := fetch(ctx, d.opts, d.Name(), image, func(ctx context.Context) (*roboflow.DetectResponse, error) {
		resp, err := d.client.Detect(ctx, roboflow.DetectRequest{
			Image:      image,
			Confidence: d.confidence,
		})
		return resp, transientStatus(err, roboflowStatusCode(err))
	})
	if err != nil {
		return nil, err
	}

	res := &fusion.ObjectResult{Cached: cached}
	w := float64(out.Image.Width)
	h := float64(out.Image.Height)
	for _, p := range out.Predictions {
		det := model.Detection{Class: p.Class, Confidence: p.Confidence}
		if w > 0 && h > 0 {
			// Predictions are box centers in pixels.
			det.X = clamp01((p.X - p.Width/2) / w)
			det.Y = clamp01((p.Y - p.Height/2) / h)
			det.Width = clamp01(p.Width / w)
			det.Height = clamp01(p.Height / h)
		}
		res.Detections = append(res.Detections, det)
	}
	return res, nil
}

func roboflowStatusCode(err error) int {
	var se *roboflow.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
