package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpttrans/src/llm"
	"gpttrans/src/singleinstance"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "OPENAI_MODEL", "TARGET_LANG", "REQUEST_TIMEOUT_SEC"} {
		t.Setenv(k, "")
	}
}

func execCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	full := append([]string{"gpttrans"}, args...)
	full = append(full, "--config", cfgPath)
	err := runWithArgs(context.Background(), normalizeLegacyArgs(full), strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"gpttrans", "translate", "-text", "Hallo", "-lang", "English"},
			out:  []string{"gpttrans", "translate", "--text", "Hallo", "--lang", "English"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"gpttrans", "translate", "-json=true", "-base-url=http://x"},
			out:  []string{"gpttrans", "translate", "--json=true", "--base-url=http://x"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"gpttrans", "models", "--json", "-v", "-"},
			out:  []string{"gpttrans", "models", "--json", "-v", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, normalizeLegacyArgs(tt.in))
		})
	}
}

func TestTranslateStubText(t *testing.T) {
	clearEnv(t)
	out, _, err := execCLI(t, "", "translate", "--provider", "stub", "--text", "Bonjour")
	require.NoError(t, err)
	assert.Equal(t, "[English] Bonjour\n", out)
}

func TestTranslatePositionalTextAndLang(t *testing.T) {
	clearEnv(t)
	out, _, err := execCLI(t, "", "translate", "-provider", "stub", "-lang", "German", "Good morning")
	require.NoError(t, err)
	assert.Equal(t, "[German] Good morning\n", out)
}

func TestTranslateJSON(t *testing.T) {
	clearEnv(t)
	out, _, err := execCLI(t, "", "translate", "--provider", "stub", "--text", "Hola", "--json")
	require.NoError(t, err)

	var res TranslationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "[English] Hola", res.Text)
	assert.Equal(t, "stub-free-provider", res.Provider)
	assert.Equal(t, "argument", res.Source)
	assert.Equal(t, len([]rune(res.Text)), res.CharCount)
}

func TestTranslateImageFromStdin(t *testing.T) {
	clearEnv(t)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, _, err := execCLI(t, buf.String(), "translate", "--provider", "stub", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("[English] (image, %d bytes, image/png)\n", buf.Len()), out)
}

func TestTranslateTextFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("Guten Tag\n"), 0o600))

	out, _, err := execCLI(t, "", "translate", "--provider", "stub", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "[English] Guten Tag\n", out)
}

func TestTranslateErrors(t *testing.T) {
	clearEnv(t)

	_, _, err := execCLI(t, "", "translate", "--provider", "stub")
	assert.ErrorContains(t, err, "nothing to translate")

	_, _, err = execCLI(t, "", "translate", "--text", "Hallo")
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)

	_, _, err = execCLI(t, "", "translate", "--provider", "bard", "--text", "Hallo")
	assert.ErrorContains(t, err, "unknown provider")

	_, _, err = execCLI(t, "   ", "translate", "--provider", "stub", "--file", "-")
	assert.ErrorContains(t, err, "input file is empty")
}

func TestTranslateOllamaStream(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"response":"Hel","done":false}`)
		fmt.Fprintln(w, `{"response":"lo","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer srv.Close()

	out, _, err := execCLI(t, "", "translate", "--provider", "ollama", "--base-url", srv.URL, "--model", "llama3.2", "--text", "Hallo")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)
}

func TestTranslateProviderErrorKeepsBody(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model \"nope\" not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := execCLI(t, "", "translate", "--provider", "ollama", "--base-url", srv.URL, "--model", "nope", "--text", "Hallo")
	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusNotFound, pe.Status)
	assert.Contains(t, pe.Body, `model \"nope\" not found`)
}

func TestModels(t *testing.T) {
	clearEnv(t)
	out, _, err := execCLI(t, "", "models", "--provider", "stub")
	require.NoError(t, err)
	assert.Equal(t, "stub\n", out)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"models":[{"name":"llama3.2:latest"},{"name":"qwen2.5:7b"}]}`)
	}))
	defer srv.Close()

	out, _, err = execCLI(t, "", "models", "--provider", "ollama", "--base-url", srv.URL, "--json")
	require.NoError(t, err)
	var list []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "llama3.2:latest", list[0].Name)
}

func TestResidentCommands(t *testing.T) {
	var got []singleinstance.Command
	srv := singleinstance.NewServer(0, func(cmd singleinstance.Command) error {
		got = append(got, cmd)
		return nil
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback listener unavailable: %v", err)
	}
	defer srv.Close()

	prev := residentPort
	residentPort = func() int { return srv.Port() }
	defer func() { residentPort = prev }()

	out, _, err := execCLI(t, "", "trigger")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, _, err = execCLI(t, "", "show", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"SHOW","status":"ok"}`, out)

	assert.Equal(t, []singleinstance.Command{singleinstance.CmdTrigger, singleinstance.CmdShow}, got)

	require.NoError(t, srv.Close())
	_, _, err = execCLI(t, "", "trigger")
	assert.ErrorIs(t, err, singleinstance.ErrNoResident)
}
