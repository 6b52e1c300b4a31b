package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"gpttrans/src/config"
	"gpttrans/src/logutil"
)

const (
	DefaultTimeout = 120 * time.Second
	temperature    = 0.2
)

// Request is one translation, built from a config snapshot.
type Request struct {
	Text       string
	Image      []byte
	ImageMIME  string
	TargetLang string
	Provider   config.Provider
	Model      string
	APIKey     string
	BaseURL    string
}

func NewRequest(cfg config.Config, text string, image []byte, mime string) Request {
	if len(image) > 0 && mime == "" {
		mime = "image/png"
	}
	return Request{
		Text:       text,
		Image:      image,
		ImageMIME:  mime,
		TargetLang: cfg.TargetLang,
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     strings.TrimSpace(cfg.APIKey),
		BaseURL:    cfg.EffectiveBaseURL(),
	}
}

// Client talks to the configured provider. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger, timeout time.Duration) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := resty.New().
		SetTimeout(timeout).
		SetLogger(logger).
		SetHeader("User-Agent", "gpttrans")
	return &Client{http: hc, logger: logger}
}

// Stream sends req and calls onFragment with each piece of translated text
// as it arrives. The returned text is the concatenation of all fragments.
func (c *Client) Stream(ctx context.Context, req Request, onFragment func(string)) (string, error) {
	if strings.TrimSpace(req.Text) == "" && len(req.Image) == 0 {
		return "", ErrEmptyInput
	}
	if onFragment == nil {
		onFragment = func(string) {}
	}

	start := time.Now()
	c.logger.Infow("translation request",
		"provider", req.Provider,
		"model", req.Model,
		"base_url", req.BaseURL,
		"api_key", logutil.RedactKey(req.APIKey),
		"text_chars", len([]rune(req.Text)),
		"image_bytes", len(req.Image),
	)

	var (
		text string
		err  error
	)
	switch req.Provider {
	case config.ProviderOpenAI:
		text, err = c.streamOpenAI(ctx, req, onFragment)
	case config.ProviderOllama:
		text, err = c.streamOllama(ctx, req, onFragment)
	case config.ProviderStub:
		text, err = streamStub(req, onFragment)
	default:
		return "", fmt.Errorf("%w: unknown provider %q", config.ErrInvalidConfig, req.Provider)
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.Provider == "" {
		pe.Provider = req.Provider
	}
	if err != nil {
		c.logger.Warnw("translation failed", "provider", req.Provider, "elapsed", time.Since(start), "error", err)
		return text, err
	}
	c.logger.Infow("translation complete", "provider", req.Provider, "elapsed", time.Since(start), "chars", len([]rune(text)))
	return text, nil
}

// postStream issues a streaming POST and feeds the body through dec.
func (c *Client) postStream(ctx context.Context, req Request, url string, body any, accept string, dec Decoder, onFragment func(string)) (string, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", accept).
		SetBody(body).
		SetDoNotParseResponse(true)
	if req.APIKey != "" {
		r.SetAuthToken(req.APIKey)
	}

	resp, err := r.Post(url)
	if err != nil {
		return "", &NetworkError{Op: "POST " + url, Err: err}
	}
	raw := resp.RawBody()
	defer raw.Close()

	if status := resp.StatusCode(); status < 200 || status > 299 {
		data, rerr := io.ReadAll(raw)
		if rerr != nil {
			return "", &NetworkError{Op: "read error body", Err: rerr}
		}
		return "", &ProviderError{Provider: req.Provider, Status: status, Body: string(data)}
	}

	return Collect(raw, dec, onFragment)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
