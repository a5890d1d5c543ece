package detector

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/adityagoyal009/ocean-sentinel/internal/fusion"
	"github.com/adityagoyal009/ocean-sentinel/internal/model"
	"github.com/adityagoyal009/ocean-sentinel/pkg/claude"
)

const defaultClaudeModel = "claude-haiku-4-5-20251001"

const labelSystem = "You identify pollution evidence in photographs of water and shorelines."

const labelPrompt = `Look at the photo and list what you see that is relevant to plastic pollution: debris types, water, shoreline context. Respond with a JSON array only, each entry {"label": "<short noun phrase>", "score": <confidence 0 to 1>}. Use [] when nothing stands out.`

// ClaudeLabels uses a vision-capable model as a label detector for
// deployments without an annotation API.
type ClaudeLabels struct {
	client claude.Client
	model  string
	opts   Options
}

// NewClaudeLabels creates the adapter. An empty model selects the
// default small vision model.
func NewClaudeLabels(client claude.Client, modelID string, opts Options) *ClaudeLabels {
	if modelID == "" {
		modelID = defaultClaudeModel
	}
	return &ClaudeLabels{client: client, model: modelID, opts: opts}
}

func (d *ClaudeLabels) Name() string { return "claude" }

// claudeLabel is the JSON shape the prompt asks for, and what gets cached.
type claudeLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (d *ClaudeLabels) DetectLabels(ctx context.Context, image []byte) (*fusion.LabelResult, error) {
	out, cached, err := fetch(ctx, d.opts, d.Name(), image, func(ctx context.Context) (*[]claudeLabel, error) {
		temp := 0.0
		resp, err := d.client.CreateMessage(ctx, claude.MessageRequest{
			Model:     d.model,
			MaxTokens: 1024,
			System:    labelSystem,
			Messages: []claude.Message{{
				Role:   "user",
				Text:   labelPrompt,
				Images: []claude.Image{{MediaType: sniffMediaType(image), Data: image}},
			}},
			Temperature: &temp,
		})
		if err != nil {
			return nil, err
		}
		resp.Usage.Log(d.model, "labels")

		labels, err := parseLabels(resp.Text())
		if err != nil {
			return nil, err
		}
		return &labels, nil
	})
	if err != nil {
		return nil, err
	}

	res := &fusion.LabelResult{Cached: cached}
	for _, l := range *out {
		res.Labels = append(res.Labels, model.Label{Text: l.Label, Score: clamp01(l.Score)})
	}
	return res, nil
}

// parseLabels extracts the JSON array from a model reply, tolerating
// surrounding prose and markdown fences.
func parseLabels(text string) ([]claudeLabel, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, eris.Errorf("detector: no label array in model reply: %.80s", text)
	}

	var labels []claudeLabel
	if err := json.Unmarshal([]byte(text[start:end+1]), &labels); err != nil {
		return nil, eris.Wrap(err, "detector: parse model labels")
	}
	return labels, nil
}
