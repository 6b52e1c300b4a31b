package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedSplit feeds s to dec in two chunks split at i and returns all fragments.
func feedSplit(t *testing.T, dec Decoder, s string, i int) []string {
	t.Helper()
	var out []string
	for _, chunk := range []string{s[:i], s[i:]} {
		frags, err := dec.Feed([]byte(chunk))
		require.NoError(t, err)
		out = append(out, frags...)
	}
	frags, err := dec.Finish()
	require.NoError(t, err)
	return append(out, frags...)
}

func TestNDJSONSplitAtEveryOffset(t *testing.T) {
	stream := ndjsonLine("Grüß ", false) + ndjsonLine("Gott", false) + "\r\n" + ndjsonLine("", true)

	for i := 0; i <= len(stream); i++ {
		dec := NewNDJSONDecoder()
		frags := feedSplit(t, dec, stream, i)
		assert.Equal(t, []string{"Grüß ", "Gott"}, frags, "split at %d", i)
		assert.True(t, dec.Done(), "split at %d", i)
	}
}

func TestSSESplitAtEveryOffset(t *testing.T) {
	stream := "event: message\r\n" + sseFrame("こんにちは") + ": ping\n\n" + sseFrame(" world") + "data: [DONE]\n\n"

	for i := 0; i <= len(stream); i++ {
		dec := NewSSEDecoder()
		frags := feedSplit(t, dec, stream, i)
		assert.Equal(t, "こんにちは world", strings.Join(frags, ""), "split at %d", i)
		assert.True(t, dec.Done(), "split at %d", i)
	}
}

func TestSSEByteAtATime(t *testing.T) {
	stream := sseFrame("a") + sseFrame("b") + sseFrame("c") + "data: [DONE]\n\n" + sseFrame("ignored")
	dec := NewSSEDecoder()

	var got []string
	for i := 0; i < len(stream); i++ {
		frags, err := dec.Feed([]byte{stream[i]})
		require.NoError(t, err)
		got = append(got, frags...)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSSEFinishParsesCompleteTail(t *testing.T) {
	dec := NewSSEDecoder()
	frags, err := dec.Feed([]byte(strings.TrimSuffix(sseFrame("tail"), "\n\n")))
	require.NoError(t, err)
	assert.Empty(t, frags)

	frags, err = dec.Finish()
	require.NoError(t, err)
	assert.Equal(t, []string{"tail"}, frags)
	assert.False(t, dec.Done())
}

func TestSSESkipsMalformedFrames(t *testing.T) {
	dec := NewSSEDecoder()
	frags, err := dec.Feed([]byte("data: {oops\n\n" + sseFrame("ok")))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, frags)
	assert.Equal(t, 1, dec.Skipped)
}

func TestNDJSONErrorLine(t *testing.T) {
	dec := NewNDJSONDecoder()
	frags, err := dec.Feed([]byte(ndjsonLine("x", false) + `{"error":"model 'nope' not found"}` + "\n"))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Body, "model 'nope' not found")
	assert.Equal(t, []string{"x"}, frags)
}

func TestCollectEmptyStream(t *testing.T) {
	_, err := Collect(strings.NewReader(""), NewNDJSONDecoder(), nil)
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCollectStopsAtDone(t *testing.T) {
	r := strings.NewReader(ndjsonLine("fin", true) + ndjsonLine("after", false))
	var frags []string
	text, err := Collect(r, NewNDJSONDecoder(), func(f string) { frags = append(frags, f) })
	require.NoError(t, err)
	assert.Equal(t, "fin", text)
	assert.Equal(t, []string{"fin"}, frags)
}
