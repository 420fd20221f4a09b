// Package resolver decodes image files whose format is unknown or whose
// extension is wrong, by walking an ordered chain of decode strategies.
package resolver

import (
	"bytes"
	"fmt"
	"image"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/yuew620/imageConvertFunction/codec"
	"github.com/yuew620/imageConvertFunction/images"
	"github.com/yuew620/imageConvertFunction/util"
)

// ErrUnreadable is returned when every stage of the chain failed.
var ErrUnreadable = errors.New("unreadable or corrupt image")

// Stage names one step of the fallback chain.
type Stage string

// Stage constants, in the order they run.
const (
	// StageNaive decodes the file the way a path-based loader would.
	StageNaive Stage = "naive"
	// StageForced decodes with the decoder for the sniffed signature.
	StageForced Stage = "forced-format"
	// StageExtensionProbe retries the naive decode under each supported extension.
	StageExtensionProbe Stage = "extension-probe"
	// StageReaderScan tries every registered decoder.
	StageReaderScan Stage = "reader-scan"
)

// Result is a successfully decoded image and how it was obtained.
type Result struct {
	// Image is the decoded raster.
	Image image.Image
	// Stage is the chain step that produced Image.
	Stage Stage
	// Decoder is the name of the decoder that produced Image.
	Decoder string
	// Signature is the format sniffed from the leading bytes, or FormatUnknown.
	Signature images.ImageFormat
}

// Resolver turns raw file bytes into a decoded image. It keeps no per-call state
// and may be shared between goroutines.
type Resolver struct {
	registry        *codec.Registry
	fsys            util.Filesystem
	probeExtensions []string
	logger          zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithProbeExtensions replaces the extensions tried by StageExtensionProbe.
func WithProbeExtensions(exts []string) Option {
	return func(r *Resolver) {
		r.probeExtensions = append([]string(nil), exts...)
	}
}

// New creates a Resolver over registry and fsys. The probe extensions default to
// images.SupportedFormats.
func New(registry *codec.Registry, fsys util.Filesystem, opts ...Option) *Resolver {
	r := &Resolver{
		registry:        registry,
		fsys:            fsys,
		probeExtensions: append([]string(nil), images.SupportedFormats...),
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Clone returns a copy of r with opts applied on top of its configuration.
func (r *Resolver) Clone(opts ...Option) *Resolver {
	cp := *r
	cp.probeExtensions = append([]string(nil), r.probeExtensions...)
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// attempt is the state of one Resolve call.
type attempt struct {
	data      []byte
	path      string
	signature images.ImageFormat
	sniffed   bool
}

// outcome is what a stage produced. ok is false when the stage found nothing.
type outcome struct {
	img     image.Image
	decoder string
	ok      bool
}

type stage struct {
	name Stage
	run  func(*attempt) outcome
}

// Resolve decodes data, read from path, by running the stages in order and
// stopping at the first that yields a non-empty image.
//
// Stage failures are logged at debug level and never returned; only exhaustion
// of the whole chain is an error.
//
// Arguments:
//   - data: The full contents of the file.
//   - path: Where data was read from. May be empty, in which case the naive
//     stage sniffs content instead of reading the file.
//
// Returns:
//   - Result: The decoded image and the stage that produced it.
//   - error: ErrUnreadable if no stage succeeded.
func (r *Resolver) Resolve(data []byte, path string) (Result, error) {
	a := &attempt{data: data, path: path}

	prefix := data
	if len(prefix) > images.SignatureLength {
		prefix = prefix[:images.SignatureLength]
	}
	a.signature, a.sniffed = images.Identify(prefix)
	if a.sniffed {
		r.logger.Info().Str("path", path).Str("signature", string(a.signature)).Msg("identified format by signature")
	}

	for _, s := range r.stages() {
		out := s.run(a)
		if !out.ok {
			continue
		}
		b := out.img.Bounds()
		r.logger.Info().
			Str("path", path).
			Str("stage", string(s.name)).
			Str("decoder", out.decoder).
			Int("width", b.Dx()).
			Int("height", b.Dy()).
			Msg("decoded image")
		return Result{Image: out.img, Stage: s.name, Decoder: out.decoder, Signature: a.signature}, nil
	}

	return Result{Signature: a.signature}, ErrUnreadable
}

func (r *Resolver) stages() []stage {
	return []stage{
		{name: StageNaive, run: r.naive},
		{name: StageForced, run: r.forced},
		{name: StageExtensionProbe, run: r.probeExtensionsStage},
		{name: StageReaderScan, run: r.readerScan},
	}
}

// naive trusts a registered file extension before looking at the content.
func (r *Resolver) naive(a *attempt) outcome {
	if a.path == "" {
		return r.try(StageNaive, func() (image.Image, codec.Decoder, error) {
			return r.registry.Decode(a.data)
		})
	}
	return r.try(StageNaive, func() (image.Image, codec.Decoder, error) {
		return r.registry.DecodeFile(r.fsys, a.path)
	})
}

func (r *Resolver) forced(a *attempt) outcome {
	if !a.sniffed {
		return outcome{}
	}
	decoders := r.registry.DecodersFor(string(a.signature))
	if len(decoders) == 0 {
		r.logger.Debug().Str("stage", string(StageForced)).Str("signature", string(a.signature)).Msg("no decoder registered for signature")
		return outcome{}
	}
	d := decoders[0]
	return r.try(StageForced, func() (image.Image, codec.Decoder, error) {
		img, err := d.Decode(bytes.NewReader(a.data))
		return img, d, err
	})
}

func (r *Resolver) probeExtensionsStage(a *attempt) outcome {
	for _, ext := range r.probeExtensions {
		if out := r.probeExtension(a, ext); out.ok {
			return out
		}
	}
	return outcome{}
}

// probeExtension copies the data into a temp file ending in ext and decodes it
// by path. The temp file is removed before returning on every path.
func (r *Resolver) probeExtension(a *attempt, ext string) outcome {
	tmp, err := r.fsys.CreateTemp("image_", "."+ext, a.data)
	if err != nil {
		r.logger.Debug().Err(err).Str("stage", string(StageExtensionProbe)).Str("extension", ext).Msg("failed to create temp file")
		return outcome{}
	}
	defer func() {
		if err := r.fsys.Remove(tmp); err != nil {
			r.logger.Warn().Err(err).Str("temp_file", tmp).Msg("failed to remove temp file")
		}
	}()

	out := r.try(StageExtensionProbe, func() (image.Image, codec.Decoder, error) {
		return r.registry.DecodeFile(r.fsys, tmp)
	})
	if out.ok {
		out.decoder = fmt.Sprintf("%s (as .%s)", out.decoder, ext)
	}
	return out
}

func (r *Resolver) readerScan(a *attempt) outcome {
	for _, d := range r.registry.DecodersForContent(a.data) {
		d := d
		out := r.try(StageReaderScan, func() (image.Image, codec.Decoder, error) {
			img, err := d.Decode(bytes.NewReader(a.data))
			return img, d, err
		})
		if out.ok {
			return out
		}
	}
	return outcome{}
}

// try runs decode, converting errors, panics and empty images into a failed outcome.
func (r *Resolver) try(s Stage, decode func() (image.Image, codec.Decoder, error)) (out outcome) {
	var d codec.Decoder
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug().Str("stage", string(s)).Str("decoder", d.Name).Interface("panic", p).Msg("decoder panicked")
			out = outcome{}
		}
	}()

	img, d, err := decode()
	switch {
	case err != nil:
		r.logger.Debug().Err(err).Str("stage", string(s)).Str("decoder", d.Name).Msg("decode attempt failed")
		return outcome{}
	case img == nil || img.Bounds().Empty():
		r.logger.Debug().Str("stage", string(s)).Str("decoder", d.Name).Msg("decoder returned an empty image")
		return outcome{}
	}

	return outcome{img: img, decoder: d.Name, ok: true}
}
