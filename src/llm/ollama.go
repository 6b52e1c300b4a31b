package llm

import (
	"context"
	"encoding/base64"
)

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

func buildGenerateRequest(req Request) generateRequest {
	g := generateRequest{
		Model:   req.Model,
		Prompt:  promptFor(req),
		Stream:  true,
		Options: map[string]any{"temperature": temperature},
	}
	if len(req.Image) > 0 {
		g.Images = []string{base64.StdEncoding.EncodeToString(req.Image)}
	}
	return g
}

func (c *Client) streamOllama(ctx context.Context, req Request, onFragment func(string)) (string, error) {
	url := joinURL(req.BaseURL, "/api/generate")
	return c.postStream(ctx, req, url, buildGenerateRequest(req), "application/x-ndjson", NewNDJSONDecoder(), onFragment)
}
