package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/yuew620/imageConvertFunction/codec"
	"github.com/yuew620/imageConvertFunction/config"
	"github.com/yuew620/imageConvertFunction/converter"
	"github.com/yuew620/imageConvertFunction/images"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("thumbnail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: thumbnail [flags] <input> <output>\n\n")
		fs.PrintDefaults()
	}

	var (
		configPath    string
		width         int
		height        int
		preserveRatio bool
		interpolation string
		outputPolicy  string
		logLevel      string
	)
	fs.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	fs.IntVar(&width, "width", converter.DefaultWidth, "Thumbnail width in pixels")
	fs.IntVar(&height, "height", converter.DefaultHeight, "Thumbnail height in pixels")
	fs.BoolVar(&preserveRatio, "preserve-ratio", true, "Keep the source aspect ratio and pad with transparency")
	fs.StringVar(&interpolation, "interpolation", "bicubic", "Scaling pass: bicubic or catmullrom")
	fs.StringVar(&outputPolicy, "output-policy", string(converter.PolicyWarn), "Output paths outside the working directory: warn or reject")
	fs.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	// Flags given on the command line win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Thumbnail.Width = width
		case "height":
			cfg.Thumbnail.Height = height
		case "preserve-ratio":
			cfg.Thumbnail.PreserveRatio = preserveRatio
		case "interpolation":
			cfg.Thumbnail.Interpolation = interpolation
		case "output-policy":
			cfg.Output.Policy = outputPolicy
		case "log-level":
			cfg.Log.Level = logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	logger := newLogger(cfg.Log, stderr)

	registry := codec.NewRegistry()
	level, _ := cfg.CompressionLevel()
	registry.SetCompression(level)

	report := registry.Capabilities(images.SupportedFormats)
	for _, missing := range report.Missing {
		logger.Warn().Str("format", missing).Msg("format may not be supported")
	}
	logger.Debug().Strs("formats", report.Available).Msg("supported image formats")

	conv := converter.New(converter.WithRegistry(registry), converter.WithLogger(logger))
	input, output := fs.Arg(0), fs.Arg(1)
	if _, err := conv.Convert(input, output, cfg.Options()); err != nil {
		logger.Error().Err(err).Str("input", input).Str("output", output).Msg("conversion failed")
		return 1
	}

	return 0
}

func newLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
