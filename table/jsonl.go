package table

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/knights-analytics/convai/util/fileutil"
)

// numbers are kept as json.Number so identifiers like 1001 are not rendered as 1001.0
var jsonConfig = jsoniter.Config{UseNumber: true}.Froze()

// ReadJSONL reads one JSON object per line. Blank lines are skipped. Columns are ordered by
// first appearance; a key missing from a row is read as the empty string.
func ReadJSONL(r io.Reader) (*Table, error) {
	reader := bufio.NewReader(r)
	var columns []string
	index := map[string]int{}
	var records []map[string]string

	for lineNumber := 1; ; lineNumber++ {
		line, readErr := fileutil.ReadLine(reader)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, readErr
		}
		if len(bytes.TrimSpace(line)) > 0 {
			record, err := parseJSONObject(line)
			if err != nil {
				return nil, fmt.Errorf("failed to parse JSON line %d: %w", lineNumber, err)
			}
			for _, key := range record.keys {
				if _, ok := index[key]; !ok {
					index[key] = len(columns)
					columns = append(columns, key)
				}
			}
			records = append(records, record.values)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
	}

	rows := make([][]string, len(records))
	for i, record := range records {
		row := make([]string, len(columns))
		for key, value := range record {
			row[index[key]] = value
		}
		rows[i] = row
	}
	return New(columns, rows)
}

type jsonRecord struct {
	keys   []string
	values map[string]string
}

func parseJSONObject(line []byte) (jsonRecord, error) {
	iter := jsoniter.ParseBytes(jsonConfig, line)
	if next := iter.WhatIsNext(); next != jsoniter.ObjectValue {
		return jsonRecord{}, errors.New("line is not a JSON object")
	}
	record := jsonRecord{values: map[string]string{}}
	complete := iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if _, ok := record.values[field]; !ok {
			record.keys = append(record.keys, field)
		}
		record.values[field] = cellString(it.Read())
		return it.Error == nil
	})
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return jsonRecord{}, iter.Error
	}
	if !complete {
		return jsonRecord{}, errors.New("malformed JSON object")
	}
	// only whitespace may follow the object
	if next := iter.WhatIsNext(); next != jsoniter.InvalidValue || !errors.Is(iter.Error, io.EOF) {
		return jsonRecord{}, errors.New("unexpected content after JSON object")
	}
	return record, nil
}

// cellString renders a decoded value in its canonical text form.
func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	case map[string]any, []any:
		out, err := jsonConfig.MarshalToString(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return out
	default:
		return fmt.Sprint(v)
	}
}
