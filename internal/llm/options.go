package llm

import (
	"net/http"

	"github.com/Solaceking/live-document-ocr/internal/logger"
)

type options struct {
	client  *http.Client
	log     *logger.Logger
	baseURL string
}

// Option configures an adapter at construction time.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithBaseURL overrides the provider's default endpoint. Tests point this
// at a local fake upstream.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

func applyOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{}
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	return o
}
