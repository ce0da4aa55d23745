//go:build !cgo || (!RUST && !ALL)

package backends

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRustTokenizerDisabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tokenizer.json"), []byte("{}"), 0o644))
	_, err := LoadTokenizer(context.Background(), dir, RuntimeRust)
	assert.ErrorIs(t, err, errRustDisabled)
}
