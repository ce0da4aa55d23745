// Package config loads convai settings from defaults, an optional YAML file, .env files
// and CONVAI_* environment variables, in increasing order of precedence.
// Command line flags are applied on top by the caller with Set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/knights-analytics/convai/logger"
)

const EnvPrefix = "CONVAI"

const (
	KeyInput           = "input"
	KeyOutput          = "output"
	KeyFormat          = "format"
	KeyTokenizer       = "tokenizer"
	KeyRuntime         = "runtime"
	KeyMaxTokens       = "max_tokens"
	KeyCandidates      = "candidates"
	KeyOversample      = "oversample"
	KeyPersonality     = "personality"
	KeyResponseColumns = "response_columns"
	KeySeed            = "seed"
	KeyGroundTruth     = "ground_truth"
	KeyKeepUntruncated = "keep_untruncated"
	KeyIndent          = "indent"
	KeyModelFolder     = "model_folder"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyColumnID        = "columns.id"
	KeyColumnQuestion  = "columns.question"
	KeyColumnCandidate = "columns.candidate"
	KeyColumnSplit     = "columns.split"
)

type Columns struct {
	ID        string
	Question  string
	Candidate string
	Split     string
}

type Config struct {
	Input           string
	Output          string
	Format          string
	Tokenizer       string
	Runtime         string
	ModelFolder     string
	Personality     []string
	ResponseColumns []string
	Columns         Columns
	Log             logger.Config
	MaxTokens       int
	Candidates      int
	Oversample      int
	Seed            uint64
	SeedSet         bool
	GroundTruth     bool
	KeepUntruncated bool
	Indent          bool
}

// New returns a viper instance with defaults and environment bindings.
// When configFile is not empty it must exist and is read as YAML (or by extension).
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyRuntime, "WHITESPACE")
	v.SetDefault(KeyCandidates, 6)
	v.SetDefault(KeyOversample, 15)
	v.SetDefault(KeyResponseColumns, []string{"body"})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyColumnID, "id")
	v.SetDefault(KeyColumnQuestion, "body_1")
	v.SetDefault(KeyColumnCandidate, "body")
	v.SetDefault(KeyColumnSplit, "split")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if !strings.Contains(configFile, ".") {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// LoadEnvFiles loads .env style files into the process environment without overriding
// variables that are already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var errs []error
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("error loading %s: %w", file, err))
		}
	}
	return errors.Join(errs...)
}

// Decode reads the resolved settings and validates them.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Input:           v.GetString(KeyInput),
		Output:          v.GetString(KeyOutput),
		Format:          v.GetString(KeyFormat),
		Tokenizer:       v.GetString(KeyTokenizer),
		Runtime:         strings.ToUpper(v.GetString(KeyRuntime)),
		ModelFolder:     v.GetString(KeyModelFolder),
		Personality:     stringList(v, KeyPersonality, "|"),
		ResponseColumns: stringList(v, KeyResponseColumns, ","),
		Columns: Columns{
			ID:        v.GetString(KeyColumnID),
			Question:  v.GetString(KeyColumnQuestion),
			Candidate: v.GetString(KeyColumnCandidate),
			Split:     v.GetString(KeyColumnSplit),
		},
		Log: logger.Config{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		MaxTokens:       v.GetInt(KeyMaxTokens),
		Candidates:      v.GetInt(KeyCandidates),
		Oversample:      v.GetInt(KeyOversample),
		Seed:            v.GetUint64(KeySeed),
		SeedSet:         v.IsSet(KeySeed),
		GroundTruth:     v.GetBool(KeyGroundTruth),
		KeepUntruncated: v.GetBool(KeyKeepUntruncated),
		Indent:          v.GetBool(KeyIndent),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", KeyMaxTokens, c.MaxTokens))
	}
	if c.Candidates <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", KeyCandidates, c.Candidates))
	}
	if c.Oversample < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyOversample, c.Oversample))
	}
	if len(c.ResponseColumns) == 0 {
		errs = append(errs, fmt.Errorf("at least one response column is required"))
	}
	for key, value := range map[string]string{
		KeyColumnID:        c.Columns.ID,
		KeyColumnQuestion:  c.Columns.Question,
		KeyColumnCandidate: c.Columns.Candidate,
		KeyColumnSplit:     c.Columns.Split,
	} {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", key))
		}
	}
	return errors.Join(errs...)
}

// stringList accepts both lists (YAML, flags) and sep separated strings (environment variables).
func stringList(v *viper.Viper, key string, sep string) []string {
	var items []string
	switch value := v.Get(key).(type) {
	case nil:
		return nil
	case string:
		items = strings.Split(value, sep)
	case []string:
		items = value
	default:
		items = v.GetStringSlice(key)
	}
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
