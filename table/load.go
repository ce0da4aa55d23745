package table

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/convai/util/fileutil"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// FormatFromPath infers the table format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// ParseFormat accepts a format name as given on the command line.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(name, "."))); f {
	case FormatCSV, FormatTSV, FormatJSONL, FormatParquet:
		return f, nil
	case "ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Load reads a table from a local path or an s3:// URL, using the extension to pick the format.
func Load(ctx context.Context, path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := fileutil.ReadFileBytes(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := Read(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

func Read(data []byte, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data), ',')
	case FormatTSV:
		return ReadCSV(bytes.NewReader(data), '\t')
	case FormatJSONL:
		return ReadJSONL(bytes.NewReader(data))
	case FormatParquet:
		return ReadParquet(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}
