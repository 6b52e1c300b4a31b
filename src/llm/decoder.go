package llm

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Decoder turns a response byte stream into text fragments. Feed may be
// called with arbitrary chunk boundaries; partial lines are buffered.
type Decoder interface {
	Feed(p []byte) ([]string, error)
	// Finish flushes a buffered tail at end of stream.
	Finish() ([]string, error)
	// Done reports that the completion marker was seen.
	Done() bool
}

type lineBuffer struct {
	pending []byte
}

// push appends p and returns every complete line, without terminators.
func (b *lineBuffer) push(p []byte) []string {
	b.pending = append(b.pending, p...)
	var lines []string
	for {
		i := bytes.IndexByte(b.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(bytes.TrimSuffix(b.pending[:i], []byte{'\r'})))
		b.pending = b.pending[i+1:]
	}
	if len(b.pending) == 0 {
		b.pending = nil
	}
	return lines
}

func (b *lineBuffer) rest() string {
	s := strings.TrimSuffix(string(b.pending), "\r")
	b.pending = nil
	return s
}

// SSEDecoder reads OpenAI-style server-sent events.
type SSEDecoder struct {
	lines lineBuffer
	done  bool
	// Skipped counts data frames that were not valid JSON.
	Skipped int
}

func NewSSEDecoder() *SSEDecoder { return &SSEDecoder{} }

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (d *SSEDecoder) Feed(p []byte) ([]string, error) {
	return d.consume(d.lines.push(p))
}

func (d *SSEDecoder) Finish() ([]string, error) {
	tail := d.lines.rest()
	if tail == "" {
		return nil, nil
	}
	return d.consume([]string{tail})
}

func (d *SSEDecoder) Done() bool { return d.done }

func (d *SSEDecoder) consume(lines []string) ([]string, error) {
	var out []string
	for _, line := range lines {
		if d.done {
			break
		}
		frag, err := d.line(line)
		if err != nil {
			return out, err
		}
		if frag != "" {
			out = append(out, frag)
		}
	}
	return out, nil
}

func (d *SSEDecoder) line(line string) (string, error) {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		// blank separators, comments, event:, id:, retry:
		return "", nil
	}
	data = strings.TrimSpace(data)
	if data == "[DONE]" {
		d.done = true
		return "", nil
	}
	if data == "" {
		return "", nil
	}

	var chunk chatChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		d.Skipped++
		return "", nil
	}
	if chunk.Error != nil {
		return "", &ProviderError{Status: 200, Body: data}
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}

// NDJSONDecoder reads Ollama's newline-delimited JSON stream.
type NDJSONDecoder struct {
	lines   lineBuffer
	done    bool
	Skipped int
}

func NewNDJSONDecoder() *NDJSONDecoder { return &NDJSONDecoder{} }

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (d *NDJSONDecoder) Feed(p []byte) ([]string, error) {
	return d.consume(d.lines.push(p))
}

func (d *NDJSONDecoder) Finish() ([]string, error) {
	tail := d.lines.rest()
	if strings.TrimSpace(tail) == "" {
		return nil, nil
	}
	return d.consume([]string{tail})
}

func (d *NDJSONDecoder) Done() bool { return d.done }

func (d *NDJSONDecoder) consume(lines []string) ([]string, error) {
	var out []string
	for _, line := range lines {
		if d.done {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			d.Skipped++
			continue
		}
		if chunk.Error != "" {
			return out, &ProviderError{Status: 200, Body: line}
		}
		if chunk.Response != "" {
			out = append(out, chunk.Response)
		}
		if chunk.Done {
			d.done = true
		}
	}
	return out, nil
}

const readChunkSize = 4096

// Collect pumps r through dec, calling onFragment for each fragment in
// order, and returns their concatenation.
func Collect(r io.Reader, dec Decoder, onFragment func(string)) (string, error) {
	var full strings.Builder
	emit := func(frags []string) {
		for _, f := range frags {
			full.WriteString(f)
			if onFragment != nil {
				onFragment(f)
			}
		}
	}

	buf := make([]byte, readChunkSize)
	for !dec.Done() {
		n, rerr := r.Read(buf)
		if n > 0 {
			frags, err := dec.Feed(buf[:n])
			emit(frags)
			if err != nil {
				return full.String(), err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return full.String(), &NetworkError{Op: "read stream", Err: rerr}
		}
	}
	if !dec.Done() {
		frags, err := dec.Finish()
		emit(frags)
		if err != nil {
			return full.String(), err
		}
	}

	if strings.TrimSpace(full.String()) == "" {
		return "", ErrEmptyResponse
	}
	return full.String(), nil
}
