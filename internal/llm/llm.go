// Package llm adapts extraction and text-task requests onto the wire
// protocols of the supported model providers.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Solaceking/live-document-ocr/internal/imgproc"
	"github.com/Solaceking/live-document-ocr/internal/logger"
	"github.com/Solaceking/live-document-ocr/internal/stream"
)

// Provider identifies an upstream model service.
type Provider string

const (
	ProviderGemini   Provider = "gemini"
	ProviderDeepSeek Provider = "deepseek"
	ProviderOpenAI   Provider = "openai"
	ProviderLLaMA    Provider = "llama"
)

// ContextHint selects the extraction style for a document type.
type ContextHint string

const (
	ContextGeneral     ContextHint = "general"
	ContextBook        ContextHint = "book"
	ContextReceipt     ContextHint = "receipt"
	ContextHandwriting ContextHint = "handwriting"
	ContextWhiteboard  ContextHint = "whiteboard"
	ContextQuiz        ContextHint = "quiz"
)

// Task selects a text-task operation.
type Task string

const (
	TaskSummarize Task = "summarize"
	TaskTitle     Task = "title"
)

// ExtractRequest asks a provider to transcribe an image.
type ExtractRequest struct {
	Image   imgproc.Payload
	Context ContextHint
}

// TextRequest asks a provider to run a text task over an existing document.
type TextRequest struct {
	Text string
	Task Task
}

// Adapter translates requests into one provider's wire shape and its
// responses back into the uniform fragment stream.
type Adapter interface {
	Provider() Provider

	// ExtractStream sends an OCR request and returns the lazy fragment
	// sequence. The caller must Close the sequence on every exit path.
	ExtractStream(ctx context.Context, req *ExtractRequest) (stream.Fragments, error)

	// Complete runs a non-streaming text task and returns the trimmed
	// result.
	Complete(ctx context.Context, req *TextRequest) (string, error)
}

// MissingCredentialError reports that a provider's credential is not
// configured. It is returned before any upstream call is attempted.
type MissingCredentialError struct {
	Provider Provider
	EnvVar   string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing API key for provider %s (set %s)", e.Provider, e.EnvVar)
}

// UpstreamError carries a provider's non-success status and body verbatim.
// Nothing is retried.
type UpstreamError struct {
	Provider Provider
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

// Registry holds the configured adapters keyed by provider identifier.
type Registry struct {
	adapters map[Provider]Adapter
	fallback Adapter
}

// NewRegistry builds the default adapter set. The shared HTTP client has
// no timeout: a hung upstream blocks its own request and nothing else.
func NewRegistry(log *logger.Logger) *Registry {
	client := &http.Client{}
	gemini := NewGeminiAdapter(WithHTTPClient(client), WithLogger(log))
	r := &Registry{
		adapters: map[Provider]Adapter{
			ProviderGemini:   gemini,
			ProviderDeepSeek: NewDeepSeekAdapter(WithHTTPClient(client), WithLogger(log)),
			ProviderOpenAI:   NewOpenAIAdapter(WithHTTPClient(client), WithLogger(log)),
			ProviderLLaMA:    NewCompletionAdapter(WithHTTPClient(client), WithLogger(log)),
		},
	}
	r.fallback = gemini
	return r
}

// Register replaces the adapter for its provider. The gemini adapter is
// also the fallback for unknown identifiers.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Provider()] = a
	if a.Provider() == ProviderGemini {
		r.fallback = a
	}
}

// Lookup resolves a provider identifier from the request body. An unknown
// or absent identifier resolves to the gemini adapter.
func (r *Registry) Lookup(name string) Adapter {
	if a, ok := r.adapters[Provider(name)]; ok {
		return a
	}
	return r.fallback
}
