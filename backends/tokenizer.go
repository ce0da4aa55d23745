package backends

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/knights-analytics/convai/util/fileutil"
	"github.com/knights-analytics/convai/util/safeconv"
)

const (
	RuntimeGo         = "GO"
	RuntimeRust       = "RUST"
	RuntimeTiktoken   = "TIKTOKEN"
	RuntimeWhitespace = "WHITESPACE"
)

const tokenizerFileName = "tokenizer.json"

// Tokenizer wraps one of the supported tokenizer runtimes. Special tokens are never added
// on encode and are skipped on decode, so Decode(Encode(text)) reconstitutes plain text.
type Tokenizer struct {
	GoTokenizer         *GoTokenizer
	RustTokenizer       *RustTokenizer
	TiktokenTokenizer   *TiktokenTokenizer
	WhitespaceTokenizer *WhitespaceTokenizer
	TokenizerTimings    *timings
	Destroy             func() error
	Runtime             string
}

type timings struct {
	NumCalls uint64
	TotalNS  uint64
}

func (t *timings) track(start time.Time) {
	t.NumCalls++
	t.TotalNS += safeconv.DurationToU64(time.Since(start))
}

type TokenizerStatistics struct {
	TotalTime      time.Duration
	ExecutionCount uint64
	AvgQueryTime   time.Duration
}

// LoadTokenizer creates a tokenizer for the given runtime.
// For GO and RUST, source is a tokenizer.json file or a folder containing one (local or s3).
// For TIKTOKEN, source is an encoding name such as cl100k_base. WHITESPACE ignores source.
func LoadTokenizer(ctx context.Context, source string, runtime string) (*Tokenizer, error) {
	switch strings.ToUpper(runtime) {
	case RuntimeGo, RuntimeRust:
		tokenizerPath, err := ResolveTokenizerPath(ctx, source)
		if err != nil {
			return nil, err
		}
		tokenizerBytes, err := fileutil.ReadFileBytes(ctx, tokenizerPath)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", tokenizerPath, err)
		}
		if strings.EqualFold(runtime, RuntimeGo) {
			return loadGoTokenizer(tokenizerBytes)
		}
		return loadRustTokenizer(tokenizerBytes)
	case RuntimeTiktoken:
		return loadTiktokenTokenizer(source)
	case RuntimeWhitespace:
		return NewWhitespaceTokenizer(), nil
	default:
		return nil, fmt.Errorf("runtime %s not recognized", runtime)
	}
}

// ResolveTokenizerPath returns the tokenizer.json location for a file or folder path.
func ResolveTokenizerPath(ctx context.Context, source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("a path to %s is required", tokenizerFileName)
	}
	isDir, err := fileutil.IsDir(ctx, source)
	if err != nil {
		return "", fmt.Errorf("error checking %s: %w", source, err)
	}
	if isDir {
		source = fileutil.PathJoinSafe(source, tokenizerFileName)
	}
	exists, err := fileutil.FileExists(ctx, source)
	if err != nil {
		return "", fmt.Errorf("error checking for existence of %s: %w", source, err)
	}
	if !exists {
		return "", fmt.Errorf("tokenizer file %s does not exist", source)
	}
	return source, nil
}

func (tk *Tokenizer) Encode(text string) ([]uint32, error) {
	defer tk.TokenizerTimings.track(time.Now())
	switch tk.Runtime {
	case RuntimeGo:
		return encodeGo(tk, text)
	case RuntimeRust:
		return encodeRust(tk, text)
	case RuntimeTiktoken:
		return encodeTiktoken(tk, text), nil
	case RuntimeWhitespace:
		return tk.WhitespaceTokenizer.encode(text), nil
	}
	return nil, fmt.Errorf("runtime %s not recognized", tk.Runtime)
}

func (tk *Tokenizer) Decode(tokens []uint32) (string, error) {
	defer tk.TokenizerTimings.track(time.Now())
	switch tk.Runtime {
	case RuntimeGo:
		return decodeGo(tk, tokens), nil
	case RuntimeRust:
		return decodeRust(tk, tokens), nil
	case RuntimeTiktoken:
		return decodeTiktoken(tk, tokens), nil
	case RuntimeWhitespace:
		return tk.WhitespaceTokenizer.decode(tokens)
	}
	return "", fmt.Errorf("runtime %s not recognized", tk.Runtime)
}

// Truncate keeps the first maxTokens tokens of text and converts them back to a string.
// The text is always round-tripped through the tokenizer, even when it is short enough.
func (tk *Tokenizer) Truncate(text string, maxTokens int) (string, error) {
	tokens, err := tk.Encode(text)
	if err != nil {
		return "", err
	}
	if maxTokens >= 0 && len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}
	return tk.Decode(tokens)
}

func (tk *Tokenizer) GetStatistics() TokenizerStatistics {
	return TokenizerStatistics{
		TotalTime:      safeconv.U64ToDuration(tk.TokenizerTimings.TotalNS),
		ExecutionCount: tk.TokenizerTimings.NumCalls,
		AvgQueryTime: time.Duration(float64(tk.TokenizerTimings.TotalNS) /
			math.Max(1, float64(tk.TokenizerTimings.NumCalls))),
	}
}
