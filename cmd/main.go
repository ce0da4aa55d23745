package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/knights-analytics/convai"
	"github.com/knights-analytics/convai/backends"
	"github.com/knights-analytics/convai/config"
	"github.com/knights-analytics/convai/logger"
	"github.com/knights-analytics/convai/table"
	"github.com/knights-analytics/convai/util/fileutil"
)

const defaultOutputName = "convai_dataset.json"

var inputPath string
var outputPath string
var inputFormat string
var tokenizerSource string
var runtimeName string
var modelsDir string
var configFile string
var logLevel string
var logFormat string
var maxTokens int
var nCandidates int
var oversample int
var seed uint64
var groundTruth bool
var keepUntruncated bool
var indent bool

var convertCommand = &cli.Command{
	Name:  "convert",
	Usage: "Convert a question/response table into ConvAI training data",
	Description: `Convert reads a table with id, body_1 (question), body (response) and split columns and writes a
				single json document with train and valid examples. Distractor candidates are sampled from rows of the same split.
				Settings can also come from a yaml file (--config), a .env file or CONVAI_* environment variables. Flags win.
				`,
	ArgsUsage: `
				--input: path to a .csv, .tsv, .jsonl or .parquet file (local or s3). If omitted, the input will be read from stdin.
				--output: path to the output .json file or an existing folder. If omitted, the output will be sent to stdout.
				--tokenizer: tokenizer.json path, folder or huggingface model name for the GO and RUST runtimes, encoding name for TIKTOKEN.
				The cli looks for tokenizers with this chain: first use the provided path. If the path does not exist, look for a model
				with this name at $HOME/convai/models. Finally, try to download the tokenizer from Huggingface and use it.
				--maxTokens: maximum tokens for questions and candidates. Without it no examples are produced unless --keepUntruncated is set.
				`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Usage:       "Path to the input table",
			Aliases:     []string{"i"},
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Path to output",
			Aliases:     []string{"o"},
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Input format (csv, tsv, jsonl, parquet). Inferred from the extension when omitted, jsonl for stdin",
			Destination: &inputFormat,
		},
		&cli.StringFlag{
			Name:        "tokenizer",
			Usage:       "Tokenizer path, model name or tiktoken encoding",
			Aliases:     []string{"t"},
			Destination: &tokenizerSource,
		},
		&cli.StringFlag{
			Name:        "runtime",
			Usage:       "Tokenizer runtime: GO, RUST, TIKTOKEN or WHITESPACE",
			Aliases:     []string{"r"},
			Destination: &runtimeName,
		},
		&cli.IntFlag{
			Name:        "maxTokens",
			Usage:       "Maximum number of tokens kept per question and candidate",
			Aliases:     []string{"m"},
			Destination: &maxTokens,
		},
		&cli.IntFlag{
			Name:        "candidates",
			Usage:       "Number of candidates per example",
			Aliases:     []string{"n"},
			Destination: &nCandidates,
		},
		&cli.IntFlag{
			Name:        "oversample",
			Usage:       "Extra rows drawn before cutting candidate sentences",
			Destination: &oversample,
		},
		&cli.StringSliceFlag{
			Name:    "personality",
			Usage:   "Persona sentence, repeat for more than one",
			Aliases: []string{"p"},
		},
		&cli.StringSliceFlag{
			Name:    "responseColumn",
			Usage:   "Response column, repeat for more than one. Defaults to body",
			Aliases: []string{"c"},
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "Random seed for reproducible sampling",
			Aliases:     []string{"s"},
			Destination: &seed,
		},
		&cli.BoolFlag{
			Name:        "groundTruth",
			Usage:       "Append the row's response as the last candidate",
			Destination: &groundTruth,
		},
		&cli.BoolFlag{
			Name:        "keepUntruncated",
			Usage:       "Produce untruncated examples when --maxTokens is not set",
			Destination: &keepUntruncated,
		},
		&cli.BoolFlag{
			Name:        "indent",
			Usage:       "Indent the output json",
			Destination: &indent,
		},
		&cli.StringFlag{
			Name:        "modelFolder",
			Usage:       "Folder where to store downloaded tokenizers. Falls back to $HOME/convai/models if not specified",
			Aliases:     []string{"f"},
			Destination: &modelsDir,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to a yaml config file",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "logLevel",
			Usage:       "Log level (debug, info, warn, error)",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "logFormat",
			Usage:       "Log format (console or json)",
			Destination: &logFormat,
		},
	},
	Action: func(ctx *cli.Context) (err error) {
		if err = config.LoadEnvFiles(); err != nil {
			return err
		}
		v, err := config.New(configFile)
		if err != nil {
			return err
		}
		for _, override := range []struct {
			flag  string
			key   string
			value any
		}{
			{"input", config.KeyInput, inputPath},
			{"output", config.KeyOutput, outputPath},
			{"format", config.KeyFormat, inputFormat},
			{"tokenizer", config.KeyTokenizer, tokenizerSource},
			{"runtime", config.KeyRuntime, runtimeName},
			{"maxTokens", config.KeyMaxTokens, maxTokens},
			{"candidates", config.KeyCandidates, nCandidates},
			{"oversample", config.KeyOversample, oversample},
			{"personality", config.KeyPersonality, ctx.StringSlice("personality")},
			{"responseColumn", config.KeyResponseColumns, ctx.StringSlice("responseColumn")},
			{"seed", config.KeySeed, seed},
			{"groundTruth", config.KeyGroundTruth, groundTruth},
			{"keepUntruncated", config.KeyKeepUntruncated, keepUntruncated},
			{"indent", config.KeyIndent, indent},
			{"modelFolder", config.KeyModelFolder, modelsDir},
			{"logLevel", config.KeyLogLevel, logLevel},
			{"logFormat", config.KeyLogFormat, logFormat},
		} {
			if ctx.IsSet(override.flag) {
				v.Set(override.key, override.value)
			}
		}
		cfg, err := config.Decode(v)
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer func() {
			_ = log.Sync()
		}()

		t, err := readTable(ctx.Context, cfg)
		if err != nil {
			return err
		}
		log.Debug("table loaded", zap.Int("rows", t.Len()), zap.Strings("columns", t.Columns()))

		tk, err := loadTokenizer(ctx.Context, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, tk.Destroy())
		}()

		opts := []convai.ConvertOption{
			convai.WithCandidates(cfg.Candidates),
			convai.WithOversample(cfg.Oversample),
			convai.WithLogger(log),
			convai.WithColumns(convai.Columns{
				ID:        cfg.Columns.ID,
				Question:  cfg.Columns.Question,
				Candidate: cfg.Columns.Candidate,
				Split:     cfg.Columns.Split,
			}),
		}
		if cfg.MaxTokens > 0 {
			opts = append(opts, convai.WithMaxTokens(cfg.MaxTokens))
		}
		if cfg.SeedSet {
			opts = append(opts, convai.WithSeed(cfg.Seed))
		}
		if cfg.GroundTruth {
			opts = append(opts, convai.WithGroundTruth())
		}
		if cfg.KeepUntruncated {
			opts = append(opts, convai.WithUntruncatedExamples())
		}

		dataset, err := convai.Convert(t, cfg.Personality, cfg.ResponseColumns, tk, opts...)
		if err != nil {
			return err
		}
		if err = writeDataset(ctx.Context, dataset, cfg); err != nil {
			return err
		}

		stats := tk.GetStatistics()
		log.Info("tokenizer statistics",
			zap.String("runtime", tk.Runtime),
			zap.Uint64("calls", stats.ExecutionCount),
			zap.Duration("total", stats.TotalTime),
			zap.Duration("average", stats.AvgQueryTime))
		return nil
	},
}

func main() {
	os.Exit(run(os.Args, os.Stderr))
}

// run executes the app and returns the process exit code. Errors are logged to stderr.
func run(args []string, stderr io.Writer) int {
	app := &cli.App{
		Name:     "convai",
		Usage:    "Build ConvAI training data from question/response tables",
		Commands: []*cli.Command{convertCommand},
	}
	err := app.Run(args)
	if err == nil {
		return 0
	}
	log, logErr := logger.NewWithWriter(logger.Config{Level: "error"}, stderr)
	if logErr != nil {
		_, _ = fmt.Fprintf(stderr, "convai: %s\n", err)
		return 1
	}
	log.Error("convai failed", zap.Error(err))
	_ = log.Sync()
	return 1
}

func readTable(ctx context.Context, cfg *config.Config) (*table.Table, error) {
	if cfg.Input != "" {
		if cfg.Format == "" {
			return table.Load(ctx, cfg.Input)
		}
		format, err := table.ParseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		data, err := fileutil.ReadFileBytes(ctx, cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", cfg.Input, err)
		}
		return table.Read(data, format)
	}

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return nil, errors.New("no --input given and nothing to read on stdin")
	}
	format := table.FormatJSONL
	if cfg.Format != "" {
		var err error
		if format, err = table.ParseFormat(cfg.Format); err != nil {
			return nil, err
		}
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	return table.Read(data, format)
}

// loadTokenizer resolves GO and RUST tokenizer sources through the local path, the model
// folder and finally a huggingface download.
func loadTokenizer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends.Tokenizer, error) {
	source := cfg.Tokenizer
	switch cfg.Runtime {
	case backends.RuntimeGo, backends.RuntimeRust:
		if source == "" {
			return nil, fmt.Errorf("--tokenizer is required for runtime %s", cfg.Runtime)
		}
		folder := cfg.ModelFolder
		if folder == "" {
			userDir, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			folder = fileutil.PathJoinSafe(userDir, "convai", "models")
		}
		resolved, err := tokenizerLocation(ctx, source, folder, log)
		if err != nil {
			return nil, err
		}
		source = resolved
	}
	return backends.LoadTokenizer(ctx, source, cfg.Runtime)
}

func tokenizerLocation(ctx context.Context, source string, folder string, log *zap.Logger) (string, error) {
	// is the source a path to a tokenizer
	ok, err := fileutil.FileExists(ctx, source)
	if err != nil {
		return "", err
	}
	if ok {
		return source, nil
	}
	// is the source the name of a model previously downloaded
	downloaded := fileutil.PathJoinSafe(folder, strings.ReplaceAll(source, "/", "_"))
	ok, err = fileutil.FileExists(ctx, downloaded)
	if err != nil {
		return "", err
	}
	if ok {
		return downloaded, nil
	}
	// is the source the name of a model to download
	if strings.Contains(source, ":") {
		return "", fmt.Errorf("filters with : are currently not supported")
	}
	if err = fileutil.CreateDir(ctx, folder); err != nil {
		return "", err
	}
	log.Info("downloading tokenizer", zap.String("model", source), zap.String("folder", folder))
	return convai.DownloadTokenizer(ctx, source, folder, convai.NewDownloadOptions())
}

func writeDataset(ctx context.Context, dataset *convai.Dataset, cfg *config.Config) error {
	if cfg.Output == "" {
		data, err := convai.MarshalDataset(dataset, cfg.Indent)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	output := cfg.Output
	isDir, err := fileutil.IsDir(ctx, output)
	if err != nil {
		return err
	}
	if isDir {
		output = fileutil.PathJoinSafe(output, defaultOutputName)
	}
	return convai.WriteDataset(ctx, dataset, output, cfg.Indent)
}
