package table

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
)

// ReadParquet reads a flat parquet file. Every leaf column becomes a table column
// named after its external (file) name; nulls are read as the empty string.
func ReadParquet(data []byte) (*Table, error) {
	bf := buffer.NewBufferFileFromBytesNoAlloc(data)
	pr, err := reader.NewParquetColumnReader(bf, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet column reader: %w", err)
	}
	defer pr.ReadStop()

	n := pr.GetNumRows()
	leaves := pr.SchemaHandler.ValueColumns
	columns := make([]string, len(leaves))
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(leaves))
	}

	for c, inPath := range leaves {
		columns[c] = externalColumnName(pr.SchemaHandler.InPathToExPath, inPath)
		values, _, _, err := pr.ReadColumnByIndex(int64(c), n)
		if err != nil {
			return nil, fmt.Errorf("failed to read column %s: %w", columns[c], err)
		}
		if int64(len(values)) != n {
			return nil, fmt.Errorf("column %s is not flat: %d values for %d rows", columns[c], len(values), n)
		}
		for r, value := range values {
			rows[r][c] = cellString(value)
		}
	}
	return New(columns, rows)
}

func externalColumnName(inToEx map[string]string, inPath string) string {
	path := inPath
	if exPath, ok := inToEx[inPath]; ok {
		path = exPath
	}
	parts := strings.Split(path, common.PAR_GO_PATH_DELIMITER)
	return parts[len(parts)-1]
}
