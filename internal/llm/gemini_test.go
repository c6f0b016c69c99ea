package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geminiRequest struct {
	Contents []struct {
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MimeType string `json:"mime_type"`
				Data     string `json:"data"`
			} `json:"inline_data"`
		} `json:"parts"`
	} `json:"contents"`
}

func TestGeminiExtractStream(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_MODEL", "gemini-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "handwritten")
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/png", req.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, "aGVsbG8=", req.Contents[0].Parts[1].InlineData.Data)

		io.WriteString(w, `[{"candidates":[{"content":{"parts":[{"text":"<p>Dear diary</p>"}]}}]}]`)
	}))
	defer srv.Close()

	adapter := NewGeminiAdapter(WithBaseURL(srv.URL))
	frags, err := adapter.ExtractStream(context.Background(), &ExtractRequest{
		Image:   testImage(),
		Context: ContextHandwriting,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"<p>Dear diary</p>"}, collectFragments(t, frags))
}

func TestGeminiExtractStreamUpstreamError(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	adapter := NewGeminiAdapter(WithBaseURL(srv.URL))
	_, err := adapter.ExtractStream(context.Background(), &ExtractRequest{
		Image:   testImage(),
		Context: ContextGeneral,
	})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Contains(t, upstream.Body, "quota exceeded")
}

func TestGeminiMissingCredentialSkipsNetwork(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	transport := &countingTransport{}
	adapter := NewGeminiAdapter(WithHTTPClient(&http.Client{Transport: transport}))

	_, err := adapter.ExtractStream(context.Background(), &ExtractRequest{
		Image:   testImage(),
		Context: ContextGeneral,
	})

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ProviderGemini, missing.Provider)
	assert.Equal(t, 0, transport.calls)
}

func TestGeminiCompleteTextTask(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_MODEL", "gemini-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Contents[0].Parts[0].Text, "one to two paragraphs")

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"parts": []map[string]string{{"text": "\nA short summary.\n"}},
				}},
			},
		})
	}))
	defer srv.Close()

	adapter := NewGeminiAdapter(WithBaseURL(srv.URL))
	result, err := adapter.Complete(context.Background(), &TextRequest{
		Text: "long document text",
		Task: TaskSummarize,
	})
	require.NoError(t, err)
	require.Equal(t, "A short summary.", result)
}

func TestGeminiCompleteEmptyResponse(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	adapter := NewGeminiAdapter(WithBaseURL(srv.URL))
	_, err := adapter.Complete(context.Background(), &TextRequest{Text: "doc", Task: TaskSummarize})
	require.ErrorContains(t, err, "empty gemini response")
}
