package detector

import (
	"context"
	"errors"

	"github.com/adityagoyal009/ocean-sentinel/internal/fusion"
	"github.com/adityagoyal009/ocean-sentinel/internal/model"
	"github.com/adityagoyal009/ocean-sentinel/pkg/vision"
)

const visionMaxResults = 10

// VisionLabels turns the Vision annotate API into a label detector.
// Localized object annotations ride along as object names.
type VisionLabels struct {
	client vision.Client
	opts   Options
}

// NewVisionLabels creates the adapter.
func NewVisionLabels(client vision.Client, opts Options) *VisionLabels {
	return &VisionLabels{client: client, opts: opts}
}

func (d *VisionLabels) Name() string { return "vision" }

func (d *VisionLabels) DetectLabels(ctx context.Context, image []byte) (*fusion.LabelResult, error) {
	out, cached, err := fetch(ctx, d.opts, d.Name(), image, func(ctx context.Context) (*vision.AnnotateResponse, error) {
		resp, err := d.client.Annotate(ctx, vision.AnnotateRequest{
			Image:      image,
			MaxResults: visionMaxResults,
		})
		return resp, transientStatus(err, visionStatusCode(err))
	})
	if err != nil {
		return nil, err
	}

	res := &fusion.LabelResult{Cached: cached}
	for _, l := range out.Labels {
		res.Labels = append(res.Labels, model.Label{Text: l.Description, Score: l.Score})
	}
	for _, o := range out.Objects {
		res.Objects = append(res.Objects, model.Label{Text: o.Name, Score: o.Score})
	}
	return res, nil
}

func visionStatusCode(err error) int {
	var se *vision.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
