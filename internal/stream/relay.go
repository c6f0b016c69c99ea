// Package stream turns a provider's streaming response body into an
// ordered sequence of plain-text fragments.
//
// Each provider frames its stream differently; a Framing knows how to cut
// one provider's bytes into fragments, and Relay drives reads from the
// upstream body through it. The sequence is lazy and single-consumer:
// nothing is read from upstream until the caller asks for the next
// fragment, and closing the relay releases the upstream connection even
// if the caller walks away mid-stream.
package stream

import (
	"errors"
	"fmt"
	"io"
)

// readBufSize matches the chunk granularity typical of the upstream
// HTTP response bodies we consume.
const readBufSize = 8192

// Fragments is a lazy, finite, single-consumer sequence of text
// fragments. Next returns io.EOF after the final fragment on a clean end,
// or a *StreamError if the upstream died mid-stream. Close must be called
// on every exit path.
type Fragments interface {
	Next() (string, error)
	Close() error
}

// Framing cuts one provider's raw stream bytes into text fragments.
//
// Feed is called once per upstream read with the bytes of that read and
// returns the fragments completed by it, in order. Flush is called once
// at end of stream to drain any carried partial state. Done reports that
// the framing saw its own end-of-stream sentinel, after which the relay
// stops reading.
type Framing interface {
	Feed(p []byte) []string
	Flush() []string
	Done() bool
}

// StreamError wraps a failure that ended the fragment sequence early.
// Fragments already handed to the caller stand; the result is partial.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream ended unexpectedly: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Relay reads an upstream body and hands out fragments one at a time.
type Relay struct {
	body    io.ReadCloser
	framing Framing
	buf     []byte
	pending []string
	ended   bool
	err     error
}

// NewRelay wraps body with the given framing. The relay takes ownership
// of body and closes it in Close.
func NewRelay(body io.ReadCloser, framing Framing) *Relay {
	return &Relay{
		body:    body,
		framing: framing,
		buf:     make([]byte, readBufSize),
	}
}

// Next returns the next fragment. It blocks only on the upstream read.
func (r *Relay) Next() (string, error) {
	for {
		if len(r.pending) > 0 {
			frag := r.pending[0]
			r.pending = r.pending[1:]
			return frag, nil
		}
		if r.err != nil {
			return "", r.err
		}
		if r.ended || r.framing.Done() {
			r.pending = append(r.pending, r.framing.Flush()...)
			r.err = io.EOF
			if len(r.pending) > 0 {
				continue
			}
			return "", r.err
		}

		n, err := r.body.Read(r.buf)
		if n > 0 {
			r.pending = append(r.pending, r.framing.Feed(r.buf[:n])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.ended = true
				continue
			}
			r.err = &StreamError{Err: err}
			if len(r.pending) > 0 {
				continue
			}
			return "", r.err
		}
	}
}

// Close releases the upstream connection. Safe to call more than once.
func (r *Relay) Close() error {
	if r.body == nil {
		return nil
	}
	err := r.body.Close()
	r.body = nil
	return err
}

// Once adapts a single, already-complete result into the Fragments shape
// used by the streaming adapters: one fragment, then a clean end.
func Once(text string) Fragments {
	return &once{text: text}
}

type once struct {
	text string
	done bool
}

func (o *once) Next() (string, error) {
	if o.done {
		return "", io.EOF
	}
	o.done = true
	return o.text, nil
}

func (o *once) Close() error { return nil }
