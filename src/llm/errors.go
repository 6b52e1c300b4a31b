package llm

import (
	"errors"
	"fmt"
	"strings"

	"gpttrans/src/config"
)

var (
	ErrEmptyResponse    = errors.New("empty response")
	ErrEmptyInput       = errors.New("nothing to translate")
	ErrImageUnsupported = errors.New("the selected model cannot read images")
	ErrMissingAPIKey    = errors.New("API key is required for this provider")
)

// NetworkError wraps transport failures: DNS, connect, TLS, timeouts and
// broken streams.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// ProviderError is a non-success reply. Body is kept verbatim.
type ProviderError struct {
	Provider config.Provider
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	if e.ImageUnsupported() {
		return fmt.Sprintf("%v; choose a vision-capable model or copy text instead (status %d)", ErrImageUnsupported, e.Status)
	}
	return fmt.Sprintf("%s: status %d; body: %s", e.Provider, e.Status, strings.TrimSpace(e.Body))
}

// Is lets errors.Is(err, ErrImageUnsupported) match.
func (e *ProviderError) Is(target error) bool {
	return target == ErrImageUnsupported && e.ImageUnsupported()
}

var imageRejections = []string{
	"does not support image",
	"does not support vision",
	"image input is not supported",
	"image inputs are not supported",
	"image_url is only supported",
	"model does not support multimodal",
	"no vision support",
}

// ImageUnsupported reports whether the body says the model rejected image input.
func (e *ProviderError) ImageUnsupported() bool {
	body := strings.ToLower(e.Body)
	for _, s := range imageRejections {
		if strings.Contains(body, s) {
			return true
		}
	}
	return false
}
