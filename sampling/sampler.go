// Package sampling draws distractor candidates for a question from the other rows of the same data split.
//
// Candidates are sentence fragments cut from the text of randomly chosen rows. Only rows
// carrying the same split label as the queried row are considered, so validation text never
// leaks into training examples and vice versa.
package sampling

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/knights-analytics/convai/table"
)

const (
	// SplitColumn is the column holding the split label of each row.
	SplitColumn = "split"
	// Oversample is the number of extra rows drawn on top of n, so that enough sentences survive filtering.
	Oversample = 15
)

var (
	ErrIDNotFound           = errors.New("identifier not found")
	ErrInsufficientRows     = errors.New("not enough rows in split to sample from")
	ErrInsufficientSegments = errors.New("not enough sentences to sample candidates from")
)

var sentenceBoundary = regexp.MustCompile(`[?.!]`)

// Query describes a single sampling request.
type Query struct {
	ID          string // rows with this identifier are excluded; its first match decides the split
	IDColumn    string
	TextColumn  string
	SplitColumn string
	N           int // number of candidates to return
	Oversample  int // extra rows drawn beyond N
}

// SampleCandidates returns n candidate sentences drawn from rows sharing the split of currentID,
// excluding the rows of currentID itself.
func SampleCandidates(rng *rand.Rand, t *table.Table, currentID, idColumn, textColumn string, n int) ([]string, error) {
	return SampleCandidatesFrom(rng, t, Query{
		ID:          currentID,
		IDColumn:    idColumn,
		TextColumn:  textColumn,
		SplitColumn: SplitColumn,
		N:           n,
		Oversample:  Oversample,
	})
}

// SampleCandidatesFrom runs a sampling query. The table is only read.
func SampleCandidatesFrom(rng *rand.Rand, t *table.Table, q Query) ([]string, error) {
	if rng == nil {
		return nil, errors.New("a random source is required")
	}
	if q.N < 0 || q.Oversample < 0 {
		return nil, fmt.Errorf("invalid sample size n=%d oversample=%d", q.N, q.Oversample)
	}
	if q.SplitColumn == "" {
		q.SplitColumn = SplitColumn
	}
	ids, err := t.Column(q.IDColumn)
	if err != nil {
		return nil, err
	}
	splits, err := t.Column(q.SplitColumn)
	if err != nil {
		return nil, err
	}
	texts, err := t.Column(q.TextColumn)
	if err != nil {
		return nil, err
	}

	split, found := "", false
	for i, id := range ids {
		if id == q.ID {
			split, found = splits[i], true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q in column %s", ErrIDNotFound, q.ID, q.IDColumn)
	}

	var pool []string
	for i := range ids {
		if splits[i] == split && ids[i] != q.ID {
			pool = append(pool, texts[i])
		}
	}
	draw := q.N + q.Oversample
	if len(pool) < draw {
		return nil, fmt.Errorf("%w: split %q has %d rows besides %q, %d required", ErrInsufficientRows, split, len(pool), q.ID, draw)
	}

	segments := Segments(strings.Join(choose(rng, pool, draw), " "))
	if len(segments) < q.N {
		return nil, fmt.Errorf("%w: %d sentences for %d candidates", ErrInsufficientSegments, len(segments), q.N)
	}
	return choose(rng, segments, q.N), nil
}

// Segments normalizes text (newlines to spaces, lowercase), splits it on sentence-ending
// punctuation and keeps the trimmed pieces longer than one character.
func Segments(text string) []string {
	normalized := strings.ToLower(strings.ReplaceAll(text, "\n", " "))
	var segments []string
	for _, piece := range sentenceBoundary.Split(normalized, -1) {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) > 1 {
			segments = append(segments, piece)
		}
	}
	return segments
}

// choose draws k elements uniformly without replacement. k must not exceed len(items).
func choose(rng *rand.Rand, items []string, k int) []string {
	picked := make([]string, k)
	for i, j := range rng.Perm(len(items))[:k] {
		picked[i] = items[j]
	}
	return picked
}
