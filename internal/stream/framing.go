package stream

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Solaceking/live-document-ocr/internal/logger"
)

const doneSentinel = "[DONE]"

// SSEFraming parses OpenAI-style chat-completion SSE: newline-delimited
// "data: <json>" events carrying incremental content deltas, terminated
// by the literal "data: [DONE]" sentinel.
//
// Bytes are carried across reads and only ever cut at newline boundaries,
// so a multi-byte character split across two reads reassembles intact. A
// data line that fails to parse is logged and skipped; one corrupt frame
// does not kill the stream.
type SSEFraming struct {
	carry []byte
	done  bool
	log   *logger.Logger
}

// NewSSEFraming returns an SSE framing. A nil log falls back to the
// process-wide logger.
func NewSSEFraming(log *logger.Logger) *SSEFraming {
	if log == nil {
		log = logger.Get()
	}
	return &SSEFraming{log: log}
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (f *SSEFraming) Feed(p []byte) []string {
	f.carry = append(f.carry, p...)

	var frags []string
	for !f.done {
		i := bytes.IndexByte(f.carry, '\n')
		if i < 0 {
			break
		}
		line := f.carry[:i]
		f.carry = f.carry[i+1:]
		if frag, ok := f.parseLine(line); ok {
			frags = append(frags, frag)
		}
	}
	return frags
}

func (f *SSEFraming) Flush() []string {
	// A well-formed stream ends every event with a newline; anything left
	// in the carry buffer is a truncated final line.
	line := f.carry
	f.carry = nil
	if f.done || len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	if frag, ok := f.parseLine(line); ok {
		return []string{frag}
	}
	return nil
}

func (f *SSEFraming) Done() bool { return f.done }

func (f *SSEFraming) parseLine(line []byte) (string, bool) {
	s := strings.TrimSpace(string(line))
	if s == "" {
		return "", false
	}
	payload, ok := strings.CutPrefix(s, "data:")
	if !ok {
		// Comment lines and other SSE fields carry no content.
		return "", false
	}
	payload = strings.TrimSpace(payload)
	if payload == doneSentinel {
		f.done = true
		return "", false
	}

	var chunk chatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		f.log.Debugw("skipping malformed stream frame", "error", err)
		return "", false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

// GeminiFraming parses the streamGenerateContent response shape: the body
// is a JSON array of generate-content responses, delivered across reads.
//
// Each read is treated as a self-contained JSON unit: a complete array,
// or a bare element between the array's separators. This assumes a read
// never splits a JSON value, which general stream semantics do not
// guarantee; a read that fails to parse is logged and skipped rather than
// aborting the stream.
type GeminiFraming struct {
	log *logger.Logger
}

// NewGeminiFraming returns a Gemini chunk framing. A nil log falls back
// to the process-wide logger.
func NewGeminiFraming(log *logger.Logger) *GeminiFraming {
	if log == nil {
		log = logger.Get()
	}
	return &GeminiFraming{log: log}
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (f *GeminiFraming) Feed(p []byte) []string {
	data := bytes.TrimSpace(p)
	data = bytes.TrimPrefix(data, []byte(","))
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("]")) {
		return nil
	}

	if data[0] == '[' {
		var batch []generateContentResponse
		if err := json.Unmarshal(data, &batch); err != nil {
			f.log.Debugw("skipping unparseable stream chunk", "error", err)
			return nil
		}
		var frags []string
		for _, resp := range batch {
			if text, ok := firstCandidateText(&resp); ok {
				frags = append(frags, text)
			}
		}
		return frags
	}

	// Trailing "]" of the array may ride along with the final element.
	data = bytes.TrimSuffix(data, []byte("]"))
	var resp generateContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		f.log.Debugw("skipping unparseable stream chunk", "error", err)
		return nil
	}
	if text, ok := firstCandidateText(&resp); ok {
		return []string{text}
	}
	return nil
}

func (f *GeminiFraming) Flush() []string { return nil }

// Done always reports false: the Gemini stream has no in-band sentinel
// and ends with the connection.
func (f *GeminiFraming) Done() bool { return false }

func firstCandidateText(resp *generateContentResponse) (string, bool) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	return text, text != ""
}
