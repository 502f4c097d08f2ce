package openai

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Truncator caps text at a token budget using the model's encoding.
type Truncator struct {
	codecCache map[tokenizer.Encoding]tokenizer.Codec
	cacheMu    sync.RWMutex
}

// NewTruncator creates a Truncator.
func NewTruncator() *Truncator {
	return &Truncator{codecCache: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

// Truncate returns text cut to at most maxTokens tokens of model's encoding,
// and the token count of the original text. maxTokens <= 0 disables the cap.
func (t *Truncator) Truncate(model, text string, maxTokens int) (string, int, error) {
	codec, err := t.getCodec(model)
	if err != nil {
		return "", 0, err
	}

	ids, _, err := codec.Encode(text)
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode text: %w", err)
	}
	if maxTokens <= 0 || len(ids) <= maxTokens {
		return text, len(ids), nil
	}

	out, err := codec.Decode(ids[:maxTokens])
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode tokens: %w", err)
	}
	// A cut can land inside a multi-byte rune.
	return strings.ToValidUTF8(out, ""), len(ids), nil
}

func (t *Truncator) getCodec(model string) (tokenizer.Codec, error) {
	encoding := modelToEncoding(model)

	t.cacheMu.RLock()
	if cached, ok := t.codecCache[encoding]; ok {
		t.cacheMu.RUnlock()
		return cached, nil
	}
	t.cacheMu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}

	t.cacheMu.Lock()
	t.codecCache[encoding] = codec
	t.cacheMu.Unlock()

	return codec, nil
}

// modelToEncoding maps model names to encodings.
//
// O200kBase: gpt-5, gpt-4.1, gpt-4o and the o-series.
// Cl100kBase: gpt-4 and gpt-3.5.
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}
