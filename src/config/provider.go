package config

import (
	"fmt"
	"strings"
)

// Provider selects the wire dialect used to reach the translation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai-compatible"
	ProviderOllama Provider = "ollama-native"
	ProviderStub   Provider = "stub-free-provider"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// Providers lists the supported kinds in display order.
var Providers = []Provider{ProviderOpenAI, ProviderOllama, ProviderStub}

// ParseProvider accepts the canonical names plus a few short aliases.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openai", "openai-compatible", "openai_compatible":
		return ProviderOpenAI, nil
	case "ollama", "ollama-native", "ollama_native":
		return ProviderOllama, nil
	case "stub", "free", "stub-free-provider", "stub_free_provider":
		return ProviderStub, nil
	}
	return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, s)
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderOllama, ProviderStub:
		return true
	}
	return false
}

// RequiresAPIKey reports whether requests must carry a bearer token.
func (p Provider) RequiresAPIKey() bool { return p == ProviderOpenAI }

// DefaultBaseURL is used when the configured base URL is empty.
func (p Provider) DefaultBaseURL() string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIBaseURL
	case ProviderOllama:
		return DefaultOllamaBaseURL
	}
	return ""
}

func (p Provider) String() string { return string(p) }
