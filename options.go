package convai

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/knights-analytics/convai/sampling"
)

var ErrInvalidOption = errors.New("invalid option")

// DefaultCandidates is the number of candidates per example when WithCandidates is not used.
const DefaultCandidates = 6

// Columns names the table columns read by Convert.
type Columns struct {
	ID        string // unique row identifier
	Question  string // question text, used as the conversation history
	Candidate string // text that distractor candidates are cut from
	Split     string // train or val
}

func DefaultColumns() Columns {
	return Columns{ID: "id", Question: "body_1", Candidate: "body", Split: sampling.SplitColumn}
}

type converter struct {
	rng             *rand.Rand
	logger          *zap.Logger
	columns         Columns
	maxTokens       int
	nCandidates     int
	oversample      int
	groundTruth     bool
	keepUntruncated bool
}

// ConvertOption is the interface for all Convert option functions.
type ConvertOption func(c *converter) error

func newConverter(opts ...ConvertOption) (*converter, error) {
	c := &converter{
		columns:     DefaultColumns(),
		nCandidates: DefaultCandidates,
		oversample:  sampling.Oversample,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.groundTruth && c.nCandidates < 1 {
		return nil, fmt.Errorf("%w: ground truth needs at least one candidate", ErrInvalidOption)
	}
	return c, nil
}

// WithMaxTokens truncates questions and candidates to at most n tokens.
func WithMaxTokens(n int) ConvertOption {
	return func(c *converter) error {
		if n <= 0 {
			return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidOption, n)
		}
		c.maxTokens = n
		return nil
	}
}

// WithCandidates sets the number of candidates per example. Default is 6.
func WithCandidates(n int) ConvertOption {
	return func(c *converter) error {
		if n <= 0 {
			return fmt.Errorf("%w: candidates must be positive, got %d", ErrInvalidOption, n)
		}
		c.nCandidates = n
		return nil
	}
}

// WithOversample sets how many extra rows are drawn before cutting sentences. Default is 15.
// Small tables need a lower value since every split must hold candidates+oversample other rows.
func WithOversample(n int) ConvertOption {
	return func(c *converter) error {
		if n < 0 {
			return fmt.Errorf("%w: oversample must not be negative, got %d", ErrInvalidOption, n)
		}
		c.oversample = n
		return nil
	}
}

// WithRand sets the random source used for sampling.
func WithRand(rng *rand.Rand) ConvertOption {
	return func(c *converter) error {
		if rng == nil {
			return fmt.Errorf("%w: random source is nil", ErrInvalidOption)
		}
		c.rng = rng
		return nil
	}
}

// WithSeed makes the conversion reproducible.
func WithSeed(seed uint64) ConvertOption {
	return WithRand(rand.New(rand.NewPCG(seed, seed)))
}

func WithLogger(logger *zap.Logger) ConvertOption {
	return func(c *converter) error {
		if logger == nil {
			return fmt.Errorf("%w: logger is nil", ErrInvalidOption)
		}
		c.logger = logger
		return nil
	}
}

// WithColumns overrides column names. Empty fields keep their default.
func WithColumns(columns Columns) ConvertOption {
	return func(c *converter) error {
		defaults := DefaultColumns()
		c.columns = Columns{
			ID:        cmpOr(columns.ID, defaults.ID),
			Question:  cmpOr(columns.Question, defaults.Question),
			Candidate: cmpOr(columns.Candidate, defaults.Candidate),
			Split:     cmpOr(columns.Split, defaults.Split),
		}
		return nil
	}
}

// WithGroundTruth appends the row's response column text as the last candidate.
// One fewer distractor is sampled, so each example keeps exactly the configured number of candidates.
func WithGroundTruth() ConvertOption {
	return func(c *converter) error {
		c.groundTruth = true
		return nil
	}
}

// WithUntruncatedExamples produces examples even when no max token count is set,
// leaving question and candidates untruncated.
func WithUntruncatedExamples() ConvertOption {
	return func(c *converter) error {
		c.keepUntruncated = true
		return nil
	}
}

func cmpOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
