package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/Solaceking/live-document-ocr/internal/logger"
	"github.com/Solaceking/live-document-ocr/internal/stream"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiAdapter speaks the generativelanguage.googleapis.com wire shape:
// generateContent for single-shot text tasks and streamGenerateContent
// for OCR, with the API key passed as a query parameter.
type GeminiAdapter struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewGeminiAdapter returns the Gemini adapter.
func NewGeminiAdapter(opts ...Option) *GeminiAdapter {
	o := applyOptions(opts)
	a := &GeminiAdapter{
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		client:  o.client,
		log:     o.log,
	}
	if o.baseURL != "" {
		a.baseURL = o.baseURL
	}
	return a
}

func (a *GeminiAdapter) Provider() Provider { return ProviderGemini }

func (a *GeminiAdapter) credential() (string, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return "", &MissingCredentialError{Provider: ProviderGemini, EnvVar: "GEMINI_API_KEY"}
	}
	return key, nil
}

func (a *GeminiAdapter) model() string {
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		return m
	}
	return defaultGeminiModel
}

func (a *GeminiAdapter) ExtractStream(ctx context.Context, req *ExtractRequest) (stream.Fragments, error) {
	key, err := a.credential()
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": OCRPrompt(req.Context)},
					{"inline_data": map[string]string{
						"mime_type": req.Image.MimeType,
						"data":      req.Image.Data,
					}},
				},
			},
		},
	}

	resp, err := a.post(ctx, "streamGenerateContent", key, payload)
	if err != nil {
		return nil, err
	}
	return stream.NewRelay(resp.Body, stream.NewGeminiFraming(a.log)), nil
}

func (a *GeminiAdapter) Complete(ctx context.Context, req *TextRequest) (string, error) {
	key, err := a.credential()
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": TaskPrompt(req.Task, req.Text)},
				},
			},
		},
	}

	resp, err := a.post(ctx, "generateContent", key, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty gemini response")
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}

func (a *GeminiAdapter) post(ctx context.Context, method, key string, payload map[string]any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s:%s?key=%s", a.baseURL, a.model(), method, url.QueryEscape(key))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			raw = []byte(fmt.Sprintf("unreadable error body: %v", readErr))
		}
		return nil, &UpstreamError{
			Provider: ProviderGemini,
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
	}
	return resp, nil
}
