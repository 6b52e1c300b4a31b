package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"gpttrans/src/config"
)

type ModelInfo struct {
	Name    string
	OwnedBy string
}

type ollamaTags struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// ListModels asks the provider which models it serves.
func (c *Client) ListModels(ctx context.Context, cfg config.Config) ([]ModelInfo, error) {
	base := cfg.EffectiveBaseURL()
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.MissingAPIKey() {
			return nil, ErrMissingAPIKey
		}
		return c.listOpenAI(ctx, base, strings.TrimSpace(cfg.APIKey))
	case config.ProviderOllama:
		return c.listOllama(ctx, base)
	case config.ProviderStub:
		return []ModelInfo{{Name: "stub", OwnedBy: "local"}}, nil
	}
	return nil, config.ErrInvalidConfig
}

func (c *Client) listOpenAI(ctx context.Context, base, apiKey string) ([]ModelInfo, error) {
	client := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(base, "/")+"/"),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(c.http.GetClient()),
		option.WithMaxRetries(0),
	)
	page, err := client.Models.List(ctx)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Provider: config.ProviderOpenAI, Status: apiErr.StatusCode, Body: apiErr.Error()}
		}
		return nil, &NetworkError{Op: "list models", Err: err}
	}

	models := make([]ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, ModelInfo{Name: m.ID, OwnedBy: m.OwnedBy})
	}
	return models, nil
}

func (c *Client) listOllama(ctx context.Context, base string) ([]ModelInfo, error) {
	var tags ollamaTags
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&tags).
		Get(joinURL(base, "/api/tags"))
	if err != nil {
		return nil, &NetworkError{Op: "list models", Err: err}
	}
	if resp.IsError() {
		return nil, &ProviderError{Provider: config.ProviderOllama, Status: resp.StatusCode(), Body: resp.String()}
	}

	models := make([]ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		models = append(models, ModelInfo{Name: name, OwnedBy: "ollama"})
	}
	return models, nil
}

// Ping checks that the provider is reachable with the given settings.
func (c *Client) Ping(ctx context.Context, cfg config.Config) error {
	_, err := c.ListModels(ctx, cfg)
	return err
}
