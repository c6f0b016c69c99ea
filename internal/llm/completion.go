package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Solaceking/live-document-ocr/internal/logger"
	"github.com/Solaceking/live-document-ocr/internal/stream"
)

// CompletionAdapter speaks the generic single-shot text-completion shape
// used by self-hosted llama-family endpoints. There is no streaming: the
// whole completion comes back in one JSON body, and OCR results are
// normalized into the uniform fragment sequence as a single fragment.
//
// Deployments differ on the name of the output field, so the parser
// accepts every variant seen in the wild.
type CompletionAdapter struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewCompletionAdapter returns the generic completion adapter. The
// endpoint comes from LLAMA_API_URL unless overridden.
func NewCompletionAdapter(opts ...Option) *CompletionAdapter {
	o := applyOptions(opts)
	return &CompletionAdapter{
		baseURL: o.baseURL,
		client:  o.client,
		log:     o.log,
	}
}

func (a *CompletionAdapter) Provider() Provider { return ProviderLLaMA }

// credential resolves the endpoint and key at request time. Either one
// missing means the provider is not configured.
func (a *CompletionAdapter) credential() (endpoint, key string, err error) {
	endpoint = a.baseURL
	if endpoint == "" {
		endpoint = os.Getenv("LLAMA_API_URL")
	}
	if endpoint == "" {
		return "", "", &MissingCredentialError{Provider: ProviderLLaMA, EnvVar: "LLAMA_API_URL"}
	}
	key = os.Getenv("LLAMA_API_KEY")
	if key == "" {
		return "", "", &MissingCredentialError{Provider: ProviderLLaMA, EnvVar: "LLAMA_API_KEY"}
	}
	return endpoint, key, nil
}

func (a *CompletionAdapter) ExtractStream(ctx context.Context, req *ExtractRequest) (stream.Fragments, error) {
	text, err := a.complete(ctx, OCRPrompt(req.Context), []string{req.Image.Data})
	if err != nil {
		return nil, err
	}
	return stream.Once(text), nil
}

func (a *CompletionAdapter) Complete(ctx context.Context, req *TextRequest) (string, error) {
	return a.complete(ctx, TaskPrompt(req.Task, req.Text), nil)
}

func (a *CompletionAdapter) complete(ctx context.Context, prompt string, images []string) (string, error) {
	endpoint, key, err := a.credential()
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"model":  os.Getenv("LLAMA_MODEL"),
		"prompt": prompt,
		"stream": false,
	}
	if len(images) > 0 {
		payload["images"] = images
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read llama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{
			Provider: ProviderLLaMA,
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
	}

	text, err := parseCompletion(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// parseCompletion pulls the completion text out of whichever field the
// endpoint used.
func parseCompletion(raw []byte) (string, error) {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse llama response: %w", err)
	}

	for _, field := range []string{"response", "output_text", "generated_text"} {
		if v, ok := parsed[field].(string); ok && v != "" {
			return v, nil
		}
	}
	if gen, ok := parsed["generation"].(map[string]any); ok {
		if v, ok := gen["text"].(string); ok && v != "" {
			return v, nil
		}
	}

	return "", errors.New("empty llama response")
}
