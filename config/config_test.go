package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
input: questions.csv
runtime: go
max_tokens: 64
candidates: 4
seed: 42
personality:
  - i answer questions about go.
  - i like concise replies, mostly.
response_columns: [body, answer]
columns:
  question: title
log:
  level: debug
`

func TestDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, "WHITESPACE", cfg.Runtime)
	assert.Equal(t, 6, cfg.Candidates)
	assert.Equal(t, 15, cfg.Oversample)
	assert.Equal(t, 0, cfg.MaxTokens)
	assert.False(t, cfg.SeedSet)
	assert.Equal(t, []string{"body"}, cfg.ResponseColumns)
	assert.Empty(t, cfg.Personality)
	assert.Equal(t, Columns{ID: "id", Question: "body_1", Candidate: "body", Split: "split"}, cfg.Columns)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, "questions.csv", cfg.Input)
	assert.Equal(t, "GO", cfg.Runtime)
	assert.Equal(t, 64, cfg.MaxTokens)
	assert.Equal(t, 4, cfg.Candidates)
	assert.True(t, cfg.SeedSet)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, []string{"i answer questions about go.", "i like concise replies, mostly."}, cfg.Personality)
	assert.Equal(t, []string{"body", "answer"}, cfg.ResponseColumns)
	assert.Equal(t, "title", cfg.Columns.Question)
	assert.Equal(t, "id", cfg.Columns.ID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	t.Setenv("CONVAI_MAX_TOKENS", "16")
	t.Setenv("CONVAI_PERSONALITY", "i am a bot.| i like tests.")
	t.Setenv("CONVAI_COLUMNS_SPLIT", "partition")

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.MaxTokens)
	assert.Equal(t, []string{"i am a bot.", "i like tests."}, cfg.Personality)
	assert.Equal(t, "partition", cfg.Columns.Split)

	// flags are applied with Set and win over everything else
	v.Set(KeyMaxTokens, 8)
	cfg, err = Decode(v)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxTokens)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONVAI_CANDIDATES=3\n"), 0o644))
	t.Setenv("CONVAI_CANDIDATES", "")
	require.NoError(t, os.Unsetenv("CONVAI_CANDIDATES"))

	require.NoError(t, LoadEnvFiles(envFile, filepath.Join(dir, "missing.env")))
	v, err := New("")
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Candidates)
}

func TestValidate(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)
	v.Set(KeyCandidates, 0)
	v.Set(KeyMaxTokens, -1)
	v.Set(KeyColumnID, "")
	_, err = Decode(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyCandidates)
	assert.Contains(t, err.Error(), KeyMaxTokens)
	assert.Contains(t, err.Error(), KeyColumnID)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
