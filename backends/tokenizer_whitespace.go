package backends

import (
	"fmt"
	"strings"
)

// WhitespaceTokenizer splits on whitespace and assigns ids as new words are seen.
// It needs no model files. Not safe for concurrent use.
type WhitespaceTokenizer struct {
	vocab map[string]uint32
	words []string
}

func NewWhitespaceTokenizer() *Tokenizer {
	return &Tokenizer{
		Runtime:             RuntimeWhitespace,
		WhitespaceTokenizer: &WhitespaceTokenizer{vocab: map[string]uint32{}},
		TokenizerTimings:    &timings{},
		Destroy: func() error {
			return nil
		},
	}
}

func (w *WhitespaceTokenizer) encode(text string) []uint32 {
	fields := strings.Fields(text)
	ids := make([]uint32, len(fields))
	for i, word := range fields {
		id, ok := w.vocab[word]
		if !ok {
			id = uint32(len(w.words)) // #nosec G115 vocabulary never approaches MaxUint32
			w.vocab[word] = id
			w.words = append(w.words, word)
		}
		ids[i] = id
	}
	return ids
}

func (w *WhitespaceTokenizer) decode(tokens []uint32) (string, error) {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		if int(id) >= len(w.words) {
			return "", fmt.Errorf("token id %d not in vocabulary", id)
		}
		words[i] = w.words[id]
	}
	return strings.Join(words, " "), nil
}
