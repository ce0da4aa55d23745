//go:build cgo && (RUST || ALL)

package backends

import (
	"github.com/daulet/tokenizers"
)

type RustTokenizer struct {
	Tokenizer *tokenizers.Tokenizer
}

func loadRustTokenizer(tokenizerBytes []byte) (*Tokenizer, error) {
	tk, tkErr := tokenizers.FromBytes(tokenizerBytes)
	if tkErr != nil {
		return nil, tkErr
	}
	return &Tokenizer{Runtime: RuntimeRust, RustTokenizer: &RustTokenizer{Tokenizer: tk}, TokenizerTimings: &timings{}, Destroy: func() error {
		return tk.Close()
	}}, nil
}

func encodeRust(tk *Tokenizer, text string) ([]uint32, error) {
	ids, _ := tk.RustTokenizer.Tokenizer.Encode(text, false)
	return ids, nil
}

func decodeRust(tk *Tokenizer, tokens []uint32) string {
	return tk.RustTokenizer.Tokenizer.Decode(tokens, true)
}
