// Package converter turns an image file of any supported format into a fixed-size
// PNG thumbnail.
package converter

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/yuew620/imageConvertFunction/codec"
	"github.com/yuew620/imageConvertFunction/images"
	"github.com/yuew620/imageConvertFunction/resolver"
	"github.com/yuew620/imageConvertFunction/util"
)

// Default thumbnail dimensions.
const (
	DefaultWidth  = 120
	DefaultHeight = 120
)

// OutputPolicy decides what happens when the output path leaves the working directory.
type OutputPolicy string

const (
	// PolicyWarn logs a warning and writes the file anyway.
	PolicyWarn OutputPolicy = "warn"
	// PolicyReject fails with ErrOutputOutsideWorkdir.
	PolicyReject OutputPolicy = "reject"
)

// Options controls a single conversion.
type Options struct {
	// Width of the output canvas in pixels.
	Width int `json:"width" yaml:"width"`
	// Height of the output canvas in pixels.
	Height int `json:"height" yaml:"height"`
	// PreserveRatio scales uniformly and pads with transparency instead of stretching.
	PreserveRatio bool `json:"preserve_ratio" yaml:"preserve_ratio"`
	// Interpolation names the scaling pass, see images.InterpolatorByName.
	Interpolation string `json:"interpolation" yaml:"interpolation"`
	// OutputPolicy applies to output paths outside the working directory.
	OutputPolicy OutputPolicy `json:"output_policy" yaml:"output_policy"`
}

// DefaultOptions returns a 120x120, ratio-preserving, bicubic conversion that
// only warns about output paths outside the working directory.
func DefaultOptions() Options {
	return Options{
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		PreserveRatio: true,
		Interpolation: "bicubic",
		OutputPolicy:  PolicyWarn,
	}
}

// Result describes a completed conversion.
type Result struct {
	// ConversionID correlates the log lines of one call.
	ConversionID string `json:"conversion_id"`
	// Stage is the resolver stage that decoded the input.
	Stage resolver.Stage `json:"stage"`
	// Decoder is the decoder that read the input.
	Decoder string `json:"decoder"`
	// Signature is the format sniffed from the input's leading bytes.
	Signature images.ImageFormat `json:"signature"`
	// Source is the size of the decoded input.
	Source images.Size `json:"source"`
	// Content is the size of the scaled image inside the canvas.
	Content images.Size `json:"content"`
	// Checksum is the MD5 of the output pixels.
	Checksum string `json:"checksum"`
	// Bytes is the size of the written PNG.
	Bytes int `json:"bytes"`
}

// Converter runs conversions. It holds no per-call state and may be shared
// between goroutines converting different files.
type Converter struct {
	registry *codec.Registry
	fsys     util.Filesystem
	resolver *resolver.Resolver
	logger   zerolog.Logger
	workDir  string
}

// Option configures a Converter.
type Option func(*Converter)

// WithRegistry replaces the default codec registry.
func WithRegistry(registry *codec.Registry) Option {
	return func(c *Converter) {
		c.registry = registry
	}
}

// WithFilesystem replaces the host filesystem.
func WithFilesystem(fsys util.Filesystem) Option {
	return func(c *Converter) {
		c.fsys = fsys
	}
}

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithWorkDir sets the directory output paths are checked against. The default is
// the process working directory.
func WithWorkDir(dir string) Option {
	return func(c *Converter) {
		c.workDir = dir
	}
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = codec.NewRegistry()
	}
	if c.fsys == nil {
		c.fsys = util.OSFilesystem{}
	}
	if c.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.workDir = wd
		}
	}
	c.resolver = resolver.New(c.registry, c.fsys, resolver.WithLogger(c.logger))
	return c
}

// Convert converts inputPath to a DefaultWidth x DefaultHeight PNG at outputPath
// with the default options.
func Convert(inputPath, outputPath string) error {
	_, err := New().Convert(inputPath, outputPath, DefaultOptions())
	return err
}

// ConvertWithOptions converts inputPath to a PNG at outputPath.
func ConvertWithOptions(inputPath, outputPath string, opts Options) error {
	_, err := New().Convert(inputPath, outputPath, opts)
	return err
}

// Convert decodes inputPath whatever its format or extension, renders it onto an
// opts.Width x opts.Height transparent canvas and writes the result as PNG to
// outputPath, creating parent directories as needed.
//
// The output is always PNG regardless of the extension of outputPath, and nothing
// is written unless every step before the write succeeded.
//
// Arguments:
//   - inputPath: The image to convert.
//   - outputPath: Where to write the PNG.
//   - opts: Canvas size, ratio handling, interpolation and output path policy.
//
// Returns:
//   - *Result: How the input was decoded and what was written.
//   - error: Wrapping one of ErrInvalidArgument, ErrInputNotFound, ErrInputEmpty,
//     ErrDecode, ErrEncode or ErrOutputOutsideWorkdir.
func (c *Converter) Convert(inputPath, outputPath string, opts Options) (*Result, error) {
	start := time.Now()

	interp, err := validate(inputPath, outputPath, opts)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := c.logger.With().Str("conversion_id", id).Logger()

	if err := c.checkInput(inputPath); err != nil {
		return nil, err
	}
	if err := c.checkOutput(logger, outputPath, opts.OutputPolicy); err != nil {
		return nil, err
	}

	data, err := c.fsys.ReadFile(inputPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", inputPath)
	}

	res, err := c.resolver.Clone(resolver.WithLogger(logger)).Resolve(data, inputPath)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, inputPath)
	}

	spec := images.TargetSpec{Width: opts.Width, Height: opts.Height, PreserveRatio: opts.PreserveRatio}
	thumb := images.NewResizer(interp, logger).Resize(res.Image, spec)

	var buf bytes.Buffer
	if err := c.registry.EncodePNG(&buf, thumb); err != nil {
		return nil, errors.Wrapf(ErrEncode, "%s: %v", outputPath, err)
	}
	if buf.Len() == 0 {
		return nil, errors.Wrapf(ErrEncode, "%s: encoder produced no output", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := c.fsys.MkdirAll(dir); err != nil {
			return nil, errors.Wrapf(err, "create output directory %s", dir)
		}
	}
	if err := c.fsys.WriteFile(outputPath, buf.Bytes()); err != nil {
		return nil, errors.Wrapf(ErrEncode, "%s: %v", outputPath, err)
	}

	result := &Result{
		ConversionID: id,
		Stage:        res.Stage,
		Decoder:      res.Decoder,
		Signature:    res.Signature,
		Source:       images.SizeOf(res.Image),
		Content:      images.ContentSize(images.SizeOf(res.Image), spec),
		Checksum:     images.ComputeImageChecksum(thumb),
		Bytes:        buf.Len(),
	}

	logger.Info().
		Str("input", inputPath).
		Str("output", outputPath).
		Str("stage", string(result.Stage)).
		Str("decoder", result.Decoder).
		Int("width", opts.Width).
		Int("height", opts.Height).
		Int("bytes", result.Bytes).
		Dur("elapsed", time.Since(start)).
		Msg("converted image")

	return result, nil
}

// validate checks arguments before any I/O and resolves the interpolator.
func validate(inputPath, outputPath string, opts Options) (images.Interpolator, error) {
	if strings.TrimSpace(inputPath) == "" || strings.TrimSpace(outputPath) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "input and output paths must not be empty")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "target size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	switch opts.OutputPolicy {
	case "", PolicyWarn, PolicyReject:
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown output policy %q", opts.OutputPolicy)
	}
	interp, err := images.InterpolatorByName(opts.Interpolation)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	return interp, nil
}

func (c *Converter) checkInput(path string) error {
	info, err := c.fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(ErrInputNotFound, path)
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	if !info.Mode().IsRegular() {
		return errors.Wrap(ErrInputNotFound, path)
	}
	if info.Size() == 0 {
		return errors.Wrap(ErrInputEmpty, path)
	}
	return nil
}

func (c *Converter) checkOutput(logger zerolog.Logger, path string, policy OutputPolicy) error {
	if c.workDir == "" || util.IsWithin(c.workDir, path) {
		return nil
	}
	if policy == PolicyReject {
		return errors.Wrap(ErrOutputOutsideWorkdir, path)
	}
	logger.Warn().Str("output", filepath.Clean(path)).Str("work_dir", c.workDir).Msg("output path is outside the working directory")
	return nil
}
