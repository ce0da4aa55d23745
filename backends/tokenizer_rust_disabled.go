//go:build !cgo || (!RUST && !ALL)

package backends

import "errors"

type RustTokenizer struct{}

var errRustDisabled = errors.New("rust tokenizer is not enabled, build with -tags RUST")

func loadRustTokenizer(_ []byte) (*Tokenizer, error) {
	return nil, errRustDisabled
}

func encodeRust(_ *Tokenizer, _ string) ([]uint32, error) {
	return nil, errRustDisabled
}

func decodeRust(_ *Tokenizer, _ []uint32) string {
	return ""
}
