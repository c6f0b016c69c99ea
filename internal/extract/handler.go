// Package extract owns the /api/generate boundary: mode detection,
// provider dispatch and relaying the fragment stream to the client.
package extract

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Solaceking/live-document-ocr/internal/imgproc"
	"github.com/Solaceking/live-document-ocr/internal/llm"
	"github.com/Solaceking/live-document-ocr/internal/logger"
)

// request is the boundary body for both modes. OCR mode sets image (plus
// mimeType, context, quality); text-task mode sets text and task. Exactly
// one of the two shapes must be present.
type request struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
	Context  string `json:"context"`
	Quality  string `json:"quality"`

	Text string `json:"text"`
	Task string `json:"task"`

	LLM string `json:"llm"`
}

const qualityEnhanced = "enhanced"

// Handler dispatches boundary requests to provider adapters.
type Handler struct {
	registry *llm.Registry
	log      *logger.Logger
}

// NewHandler returns a Handler over the given adapter registry.
func NewHandler(registry *llm.Registry, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Get()
	}
	return &Handler{registry: registry, log: log}
}

// Generate handles POST /api/generate for both request modes.
func (h *Handler) Generate(c *gin.Context) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	textMode := req.Task != "" && req.Text != ""
	ocrMode := req.Image != ""

	switch {
	case textMode && ocrMode:
		c.JSON(http.StatusBadRequest, gin.H{"error": "request must carry either an image or a text task, not both"})
	case textMode:
		h.textTask(c, &req)
	case ocrMode:
		h.extract(c, &req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "request must carry an image or a text task"})
	}
}

func (h *Handler) extract(c *gin.Context, req *request) {
	adapter := h.registry.Lookup(req.LLM)

	payload := imgproc.Payload{Data: req.Image, MimeType: req.MimeType}
	if req.Quality == qualityEnhanced {
		processed, err := imgproc.PreprocessBase64(req.Image, req.MimeType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payload = *processed
	}

	frags, err := adapter.ExtractStream(c.Request.Context(), &llm.ExtractRequest{
		Image:   payload,
		Context: llm.ContextHint(req.Context),
	})
	if err != nil {
		h.fail(c, adapter.Provider(), err)
		return
	}
	defer frags.Close()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for {
		frag, err := frags.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				// Fragments already written stand; the client sees a
				// truncated document rather than a retraction.
				h.log.Warnw("stream ended early",
					"provider", adapter.Provider(), "error", err)
			}
			return
		}
		if _, err := c.Writer.WriteString(frag); err != nil {
			// Client went away; closing the relay drops the upstream
			// connection instead of draining it.
			return
		}
		c.Writer.Flush()
	}
}

func (h *Handler) textTask(c *gin.Context, req *request) {
	adapter := h.registry.Lookup(req.LLM)

	result, err := adapter.Complete(c.Request.Context(), &llm.TextRequest{
		Text: req.Text,
		Task: llm.Task(req.Task),
	})
	if err != nil {
		h.fail(c, adapter.Provider(), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (h *Handler) fail(c *gin.Context, provider llm.Provider, err error) {
	var missing *llm.MissingCredentialError
	var upstream *llm.UpstreamError

	switch {
	case errors.As(err, &missing):
		h.log.Errorw("provider not configured", "provider", missing.Provider)
		c.JSON(http.StatusInternalServerError, gin.H{"error": missing.Error()})
	case errors.As(err, &upstream):
		h.log.Warnw("upstream error",
			"provider", provider, "status", upstream.Status)
		c.JSON(http.StatusBadGateway, gin.H{"error": upstream.Error()})
	default:
		h.log.Errorw("provider call failed", "provider", provider, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
