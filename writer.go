package convai

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/knights-analytics/convai/util/fileutil"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalDataset serializes the dataset as a single JSON document with train and valid keys.
func MarshalDataset(d *Dataset, indent bool) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: dataset is nil", ErrInvalidOption)
	}
	if indent {
		return jsonAPI.MarshalIndent(d, "", "  ")
	}
	return jsonAPI.Marshal(d)
}

// WriteDataset writes the dataset to a local path or an s3:// URL, replacing any existing file.
func WriteDataset(ctx context.Context, d *Dataset, path string, indent bool) error {
	data, err := MarshalDataset(d, indent)
	if err != nil {
		return err
	}
	if err = fileutil.WriteFileBytes(ctx, path, data, "application/json"); err != nil {
		return fmt.Errorf("error writing dataset to %s: %w", path, err)
	}
	return nil
}
