//go:build NODOWNLOAD

package convai

import (
	"context"
	"errors"
)

type DownloadOptions struct {
	AuthToken             string
	Branch                string
	MaxRetries            int
	RetryInterval         int
	ConcurrentConnections int
	Verbose               bool
}

func NewDownloadOptions() DownloadOptions {
	return DownloadOptions{}
}

func DownloadTokenizer(_ context.Context, _ string, _ string, _ DownloadOptions) (string, error) {
	return "", errors.New("convai was built with the NODOWNLOAD tag, tokenizers cannot be downloaded")
}
