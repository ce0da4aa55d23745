// Package convai turns a question/response table into ConvAI (PersonaChat style) training data.
//
// Every question is paired with distractor candidates sampled from other rows of the same
// split, so no text crosses the train/validation boundary.
package convai

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/knights-analytics/convai/backends"
	"github.com/knights-analytics/convai/sampling"
	"github.com/knights-analytics/convai/table"
)

const (
	SplitTrain      = "train"
	SplitValidation = "val"
)

// Tokenizer splits text into subword token ids and turns ids back into text.
// Truncate keeps the first maxTokens tokens of text, reconstituted as a string.
type Tokenizer interface {
	Encode(text string) ([]uint32, error)
	Decode(tokens []uint32) (string, error)
	Truncate(text string, maxTokens int) (string, error)
}

var _ Tokenizer = (*backends.Tokenizer)(nil)

type Utterance struct {
	History    []string `json:"history"`
	Candidates []string `json:"candidates"`
}

type TrainingExample struct {
	Personality []string    `json:"personality"`
	Utterances  []Utterance `json:"utterances"`
}

// Dataset is the converted output, partitioned by the split label of each source row.
type Dataset struct {
	Train []TrainingExample `json:"train"`
	Valid []TrainingExample `json:"valid"`
}

// Convert builds one training example per row and response column.
//
// The question is read from the question column (body_1 by default) and candidates are
// sampled from the candidate column (body by default) of other rows in the same split.
// Examples are only produced when a maximum token count is set, unless
// WithUntruncatedExamples is given. Rows whose split is neither train nor val are skipped
// before sampling: they are never sampled for, so they cannot fail the conversion and draw
// nothing from the random source.
// The first sampling or tokenization error aborts the conversion.
func Convert(t *table.Table, personality []string, responseColumns []string, tk Tokenizer, opts ...ConvertOption) (*Dataset, error) {
	c, err := newConverter(opts...)
	if err != nil {
		return nil, err
	}
	if tk == nil && c.maxTokens > 0 {
		return nil, fmt.Errorf("%w: a tokenizer is required when max tokens is set", ErrInvalidOption)
	}
	if len(responseColumns) == 0 {
		return nil, fmt.Errorf("%w: at least one response column is required", ErrInvalidOption)
	}
	required := append([]string{c.columns.ID, c.columns.Question, c.columns.Candidate, c.columns.Split}, responseColumns...)
	if err = t.Validate(required...); err != nil {
		return nil, err
	}
	if err = t.ValidateUniqueIDs(c.columns.ID); err != nil {
		return nil, err
	}
	idIndex, _ := t.ColumnIndex(c.columns.ID)
	questionIndex, _ := t.ColumnIndex(c.columns.Question)
	splitIndex, _ := t.ColumnIndex(c.columns.Split)

	emit := c.maxTokens > 0 || c.keepUntruncated
	if !emit {
		c.logger.Warn("max tokens not set, no examples will be produced")
	}

	personality = slices.Clone(personality)
	if personality == nil {
		personality = []string{}
	}
	dataset := &Dataset{Train: []TrainingExample{}, Valid: []TrainingExample{}}
	distractors := c.nCandidates
	if c.groundTruth {
		distractors--
	}

	var dropped int
	for i := range t.Len() {
		row := t.Row(i)
		id := row[idIndex]
		split := row[splitIndex]
		if split != SplitTrain && split != SplitValidation {
			dropped += len(responseColumns)
			continue
		}
		question := row[questionIndex]

		for _, responseColumn := range responseColumns {
			candidates, sampleErr := sampling.SampleCandidatesFrom(c.rng, t, sampling.Query{
				ID:          id,
				IDColumn:    c.columns.ID,
				TextColumn:  c.columns.Candidate,
				SplitColumn: c.columns.Split,
				N:           distractors,
				Oversample:  c.oversample,
			})
			if sampleErr != nil {
				return nil, fmt.Errorf("row %d (id %q), response column %s: %w", i, id, responseColumn, sampleErr)
			}
			if c.groundTruth {
				response, _ := t.Value(i, responseColumn)
				candidates = append(candidates, response)
			}
			if !emit {
				continue
			}

			history := question
			if c.maxTokens > 0 {
				if history, err = tk.Truncate(question, c.maxTokens); err != nil {
					return nil, fmt.Errorf("row %d (id %q): truncating question: %w", i, id, err)
				}
				for j, candidate := range candidates {
					if candidates[j], err = tk.Truncate(candidate, c.maxTokens); err != nil {
						return nil, fmt.Errorf("row %d (id %q): truncating candidate: %w", i, id, err)
					}
				}
			}

			example := TrainingExample{
				Personality: personality,
				Utterances: []Utterance{{
					History:    []string{history},
					Candidates: candidates,
				}},
			}
			if split == SplitTrain {
				dataset.Train = append(dataset.Train, example)
			} else {
				dataset.Valid = append(dataset.Valid, example)
			}
		}
	}

	if dropped > 0 {
		c.logger.Debug("skipped rows outside train and val splits", zap.Int("examples", dropped))
	}
	c.logger.Info("conversion complete",
		zap.Int("rows", t.Len()),
		zap.Int("train", len(dataset.Train)),
		zap.Int("valid", len(dataset.Valid)))
	return dataset, nil
}
