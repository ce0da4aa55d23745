package backends

import (
	"bytes"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/knights-analytics/convai/util/safeconv"
)

type GoTokenizer struct {
	Tokenizer *tokenizer.Tokenizer
}

func loadGoTokenizer(tokenizerBytes []byte) (*Tokenizer, error) {
	tk, tkErr := pretrained.FromReader(bytes.NewReader(tokenizerBytes))
	if tkErr != nil {
		return nil, tkErr
	}
	return &Tokenizer{Runtime: RuntimeGo, GoTokenizer: &GoTokenizer{Tokenizer: tk}, TokenizerTimings: &timings{}, Destroy: func() error {
		return nil
	}}, nil
}

func encodeGo(tk *Tokenizer, text string) ([]uint32, error) {
	output, err := tk.GoTokenizer.Tokenizer.EncodeSingle(text, false)
	if err != nil {
		return nil, err
	}
	return safeconv.IntSliceToUint32Slice(output.Ids), nil
}

func decodeGo(tk *Tokenizer, tokens []uint32) string {
	return tk.GoTokenizer.Tokenizer.Decode(safeconv.Uint32SliceToIntSlice(tokens), true)
}
