package fileutil

import (
	"bufio"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathJoinSafe(t *testing.T) {
	assert.Equal(t, "s3://bucket/data/train.csv", PathJoinSafe("s3://bucket/", "data", "train.csv"))
	assert.Equal(t, filepath.Join("data", "train.csv"), PathJoinSafe("data", "train.csv"))
	assert.Equal(t, "S3", GetPathType("s3://bucket"))
	assert.Equal(t, "os", GetPathType("/tmp/bucket"))
}

func TestWriteAndReadFileBytes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	target := PathJoinSafe(dir, "out.json")

	exists, err := FileExists(ctx, target)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, WriteFileBytes(ctx, target, []byte(`{"train":[]}`), "application/json"))
	// overwriting replaces the previous content
	require.NoError(t, WriteFileBytes(ctx, target, []byte(`{"valid":[]}`), ""))

	data, err := ReadFileBytes(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, `{"valid":[]}`, string(data))

	isDir, err := IsDir(ctx, dir)
	require.NoError(t, err)
	assert.True(t, isDir)
	isDir, err = IsDir(ctx, target)
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestReadLine(t *testing.T) {
	long := strings.Repeat("a", 70000)
	reader := bufio.NewReaderSize(strings.NewReader(long+"\nshort\n"), 4096)

	line, err := ReadLine(reader)
	require.NoError(t, err)
	assert.Len(t, line, 70000)

	line, err = ReadLine(reader)
	require.NoError(t, err)
	assert.Equal(t, "short", string(line))

	_, err = ReadLine(reader)
	assert.ErrorIs(t, err, io.EOF)
}
