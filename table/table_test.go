package table

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go/writer"
)

//go:embed testData/questions.csv
var questionsCSV []byte

//go:embed testData/questions.jsonl
var questionsJSONL []byte

func TestNew(t *testing.T) {
	tbl, err := New([]string{"id", "split"}, [][]string{{"1", "train"}, {"2", "val"}})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"id", "split"}, tbl.Columns())

	v, err := tbl.Value(1, "split")
	require.NoError(t, err)
	assert.Equal(t, "val", v)

	_, err = tbl.Value(0, "body")
	assert.ErrorIs(t, err, ErrMissingColumn)
	_, err = tbl.Value(5, "id")
	assert.Error(t, err)

	// rows are returned as copies
	row := tbl.Row(0)
	row[0] = "changed"
	v, _ = tbl.Value(0, "id")
	assert.Equal(t, "1", v)

	_, err = New([]string{"id", "id"}, nil)
	assert.Error(t, err)
	_, err = New([]string{"id", "split"}, [][]string{{"1"}})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tbl, err := New([]string{"id", "body"}, [][]string{{"1", "a"}, {"1", "b"}})
	require.NoError(t, err)

	assert.NoError(t, tbl.Validate("id", "body"))
	err = tbl.Validate("id", "split", "body_1")
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "split")
	assert.Contains(t, err.Error(), "body_1")

	assert.ErrorIs(t, tbl.ValidateUniqueIDs("id"), ErrDuplicateID)
	assert.NoError(t, tbl.ValidateUniqueIDs("body"))
	assert.ErrorIs(t, tbl.ValidateUniqueIDs("missing"), ErrMissingColumn)
}

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(bytes.NewReader(questionsCSV), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "body", "body_1", "split", "answer"}, tbl.Columns())
	assert.Equal(t, 4, tbl.Len())

	body, err := tbl.Value(1, "body")
	require.NoError(t, err)
	assert.Equal(t, "Multi line\nbody text. Second sentence.", body)

	splits, err := tbl.Column("split")
	require.NoError(t, err)
	assert.Equal(t, []string{"train", "train", "val", "val"}, splits)
}

func TestReadCSVHeaderCleanup(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("\ufeffid\t split\n1\ttrain\n"), '\t')
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "split"}, tbl.Columns())
}

func TestReadJSONL(t *testing.T) {
	tbl, err := ReadJSONL(bytes.NewReader(questionsJSONL))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "body", "body_1", "split", "score", "flag"}, tbl.Columns())
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"1", "Hello there. How are you?", "What is up?", "train", "", ""}, tbl.Row(0))
	assert.Equal(t, []string{"2", "Second row body.", "Where is it?", "train", "0.5", ""}, tbl.Row(1))
	assert.Equal(t, []string{"3", "Validation body!", "Why?", "val", "", "true"}, tbl.Row(2))
}

func TestReadJSONLErrors(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"id\": 1}\n[1, 2]\n"))
	assert.Error(t, err)
	_, err = ReadJSONL(strings.NewReader("{\"id\": 1\n"))
	assert.Error(t, err)

	// a second object or any other text after the first object is rejected
	_, err = ReadJSONL(strings.NewReader("{\"id\":\"1\",\"split\":\"train\"}{\"id\":\"2\",\"split\":\"val\"}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	_, err = ReadJSONL(strings.NewReader("{\"id\":\"1\"}\n{\"id\":\"2\",\"body\":\"a\"} trailing garbage\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadJSONLWhitespace(t *testing.T) {
	tbl, err := ReadJSONL(strings.NewReader("{\"id\":\"1\"}  \r\n   \n\t\n{\"id\":\"2\"}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"1", "2"}, []string{tbl.Row(0)[0], tbl.Row(1)[0]})
}

type parquetRow struct {
	ID    string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Body  string `parquet:"name=body, type=BYTE_ARRAY, convertedtype=UTF8"`
	Split string `parquet:"name=split, type=BYTE_ARRAY, convertedtype=UTF8"`
	Score int64  `parquet:"name=score, type=INT64"`
}

func TestReadParquet(t *testing.T) {
	buf := &bytes.Buffer{}
	pw, err := writer.NewParquetWriterFromWriter(buf, new(parquetRow), 1)
	require.NoError(t, err)
	for _, row := range []parquetRow{
		{ID: "1", Body: "First body.", Split: "train", Score: 3},
		{ID: "2", Body: "Second body!", Split: "val", Score: 7},
	} {
		require.NoError(t, pw.Write(row))
	}
	require.NoError(t, pw.WriteStop())

	tbl, err := ReadParquet(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "body", "split", "score"}, tbl.Columns())
	assert.Equal(t, []string{"1", "First body.", "train", "3"}, tbl.Row(0))
	assert.Equal(t, []string{"2", "Second body!", "val", "7"}, tbl.Row(1))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "questions.csv")
	jsonlPath := filepath.Join(dir, "questions.jsonl")
	require.NoError(t, os.WriteFile(csvPath, questionsCSV, 0o644))
	require.NoError(t, os.WriteFile(jsonlPath, questionsJSONL, 0o644))

	tbl, err := Load(context.Background(), csvPath)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())

	tbl, err = Load(context.Background(), jsonlPath)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	_, err = Load(context.Background(), filepath.Join(dir, "questions.xlsx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormats(t *testing.T) {
	for path, expected := range map[string]Format{
		"a.csv":          FormatCSV,
		"a.TSV":          FormatTSV,
		"s3://b/a.jsonl": FormatJSONL,
		"a.ndjson":       FormatJSONL,
		"data/a.parquet": FormatParquet,
	} {
		f, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, expected, f, path)
	}
	f, err := ParseFormat(".ndjson")
	require.NoError(t, err)
	assert.Equal(t, FormatJSONL, f)
	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
