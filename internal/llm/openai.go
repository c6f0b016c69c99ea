package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Solaceking/live-document-ocr/internal/logger"
	"github.com/Solaceking/live-document-ocr/internal/stream"
)

// OpenAICompatAdapter speaks the OpenAI chat-completions wire shape. Both
// OpenAI and DeepSeek expose it, so one adapter covers both providers
// with a different endpoint, key and default model.
type OpenAICompatAdapter struct {
	provider     Provider
	baseURL      string
	keyEnv       string
	modelEnv     string
	defaultModel string
	client       *http.Client
	log          *logger.Logger
}

// NewOpenAIAdapter returns the adapter for api.openai.com.
func NewOpenAIAdapter(opts ...Option) *OpenAICompatAdapter {
	o := applyOptions(opts)
	a := &OpenAICompatAdapter{
		provider:     ProviderOpenAI,
		baseURL:      "https://api.openai.com/v1",
		keyEnv:       "OPENAI_API_KEY",
		modelEnv:     "OPENAI_MODEL",
		defaultModel: "gpt-4o-mini",
		client:       o.client,
		log:          o.log,
	}
	if o.baseURL != "" {
		a.baseURL = o.baseURL
	}
	return a
}

// NewDeepSeekAdapter returns the adapter for api.deepseek.com.
func NewDeepSeekAdapter(opts ...Option) *OpenAICompatAdapter {
	o := applyOptions(opts)
	a := &OpenAICompatAdapter{
		provider:     ProviderDeepSeek,
		baseURL:      "https://api.deepseek.com/v1",
		keyEnv:       "DEEPSEEK_API_KEY",
		modelEnv:     "DEEPSEEK_MODEL",
		defaultModel: "deepseek-chat",
		client:       o.client,
		log:          o.log,
	}
	if o.baseURL != "" {
		a.baseURL = o.baseURL
	}
	return a
}

func (a *OpenAICompatAdapter) Provider() Provider { return a.provider }

// credential reads the API key from the environment at request time so a
// key rotated under a running process takes effect immediately.
func (a *OpenAICompatAdapter) credential() (string, error) {
	key := os.Getenv(a.keyEnv)
	if key == "" {
		return "", &MissingCredentialError{Provider: a.provider, EnvVar: a.keyEnv}
	}
	return key, nil
}

func (a *OpenAICompatAdapter) model() string {
	if m := os.Getenv(a.modelEnv); m != "" {
		return m
	}
	return a.defaultModel
}

func (a *OpenAICompatAdapter) ExtractStream(ctx context.Context, req *ExtractRequest) (stream.Fragments, error) {
	key, err := a.credential()
	if err != nil {
		return nil, err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", req.Image.MimeType, req.Image.Data)
	payload := map[string]any{
		"model":  a.model(),
		"stream": true,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": OCRPrompt(req.Context)},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
	}

	resp, err := a.post(ctx, key, payload)
	if err != nil {
		return nil, err
	}
	return stream.NewRelay(resp.Body, stream.NewSSEFraming(a.log)), nil
}

func (a *OpenAICompatAdapter) Complete(ctx context.Context, req *TextRequest) (string, error) {
	key, err := a.credential()
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"model": a.model(),
		"messages": []map[string]any{
			{"role": "user", "content": TaskPrompt(req.Task, req.Text)},
		},
	}

	resp, err := a.post(ctx, key, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", a.provider, err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to parse %s response: %w", a.provider, err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from %s", a.provider)
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// post sends a chat-completions request and returns the response with its
// body still open. Any non-2xx status is drained into an UpstreamError.
func (a *OpenAICompatAdapter) post(ctx context.Context, key string, payload map[string]any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.baseURL+"/chat/completions",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", a.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			raw = []byte(fmt.Sprintf("unreadable error body: %v", readErr))
		}
		return nil, &UpstreamError{
			Provider: a.provider,
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
	}
	return resp, nil
}
