package backends

import (
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/knights-analytics/convai/util/safeconv"
)

const defaultTiktokenEncoding = "cl100k_base"

type TiktokenTokenizer struct {
	Encoding *tiktoken.Tiktoken
	Name     string
}

// loadTiktokenTokenizer loads a BPE encoding by name. The rank files are fetched on first use
// and cached in TIKTOKEN_CACHE_DIR when it is set.
func loadTiktokenTokenizer(encodingName string) (*Tokenizer, error) {
	encodingName = strings.TrimSpace(encodingName)
	if encodingName == "" {
		encodingName = defaultTiktokenEncoding
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{Runtime: RuntimeTiktoken, TiktokenTokenizer: &TiktokenTokenizer{Encoding: enc, Name: encodingName}, TokenizerTimings: &timings{}, Destroy: func() error {
		return nil
	}}, nil
}

func encodeTiktoken(tk *Tokenizer, text string) []uint32 {
	return safeconv.IntSliceToUint32Slice(tk.TiktokenTokenizer.Encoding.EncodeOrdinary(text))
}

func decodeTiktoken(tk *Tokenizer, tokens []uint32) string {
	return tk.TiktokenTokenizer.Encoding.Decode(safeconv.Uint32SliceToIntSlice(tokens))
}
