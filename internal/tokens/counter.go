// Package tokens estimates the context size of an agent conversation using
// tiktoken encodings, so the chat view can show how much of the model's
// window a transcript occupies.
package tokens

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/contractintel/cip-client/internal/domain"
)

// Per-message overhead for chat-format models: 3 tokens of message framing
// plus 1 for the role, and 3 tokens of assistant priming at the end.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
	assistantPriming = 3
)

// Counter counts tokens for a model's encoding. Codecs are cached per
// encoding since construction loads the vocabulary.
type Counter struct {
	mu     sync.RWMutex
	codecs map[tokenizer.Encoding]tokenizer.Codec
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{codecs: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

// modelEncoding maps the agent model names the backend reports to tiktoken
// encodings. Unknown models get o200k_base, the encoding of current models.
func modelEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"), strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

func (c *Counter) codec(model string) (tokenizer.Codec, error) {
	encoding := modelEncoding(model)

	c.mu.RLock()
	if cached, ok := c.codecs[encoding]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer encoding %s: %w", encoding, err)
	}

	c.mu.Lock()
	c.codecs[encoding] = codec
	c.mu.Unlock()
	return codec, nil
}

// CountText counts tokens in a plain string under the model's encoding.
func (c *Counter) CountText(model, text string) (int, error) {
	codec, err := c.codec(model)
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CountMessages estimates the context the given history occupies, counting
// every role including tool traffic, with chat-format framing overhead.
func (c *Counter) CountMessages(model string, messages []domain.Message) (int, error) {
	codec, err := c.codec(model)
	if err != nil {
		return 0, err
	}

	total := assistantPriming
	for _, msg := range messages {
		total += tokensPerMessage + tokensPerRole
		ids, _, err := codec.Encode(msg.Content)
		if err != nil {
			return 0, err
		}
		total += len(ids)

		if len(msg.ToolCalls) > 0 {
			raw, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return 0, err
			}
			ids, _, err := codec.Encode(string(raw))
			if err != nil {
				return 0, err
			}
			total += len(ids) + 3
		}
	}
	return total, nil
}
