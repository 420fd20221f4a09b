// Package codec is the registry of image decoders and the PNG encoder used by the
// converter. Decoders are addressed by format name, file extension or content.
package codec

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"

	"github.com/yuew620/imageConvertFunction/images"
	"github.com/yuew620/imageConvertFunction/util"
)

// ErrNoDecoder is returned when nothing in the registry can handle the input.
var ErrNoDecoder = errors.New("no decoder for input")

// DecodeFunc decodes a single raster from r.
type DecodeFunc func(r io.Reader) (image.Image, error)

// Decoder is a registered reader for one image format.
type Decoder struct {
	// Name identifies the implementation, e.g. "libwebp".
	Name string
	// Format is the format label the decoder serves.
	Format images.ImageFormat
	// MIME is the content type the decoder accepts, as reported by mimetype.
	MIME string
	// Extensions are the lower-case file suffixes, without dot, mapped to this decoder.
	Extensions []string
	// Decode reads the image.
	Decode DecodeFunc
}

// Registry holds decoders in registration order. It is not modified after
// construction by the converter and is safe for concurrent reads.
type Registry struct {
	decoders []Decoder
	// byName maps format names and extensions to decoder indexes.
	byName map[string][]int
	// compression is applied by EncodePNG.
	compression png.CompressionLevel
}

// NewRegistry creates a registry with the jpeg, png, gif, bmp, tiff and webp
// decoders installed.
func NewRegistry() *Registry {
	return New(defaultDecoders()...)
}

// New creates a registry holding only the given decoders.
func New(decoders ...Decoder) *Registry {
	r := &Registry{byName: make(map[string][]int), compression: png.DefaultCompression}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

func defaultDecoders() []Decoder {
	return []Decoder{
		{Name: "jpeg", Format: images.FormatJPEG, MIME: "image/jpeg", Extensions: []string{"jpg", "jpeg", "jfif", "jpe"}, Decode: jpeg.Decode},
		{Name: "png", Format: images.FormatPNG, MIME: "image/png", Extensions: []string{"png"}, Decode: png.Decode},
		{Name: "gif", Format: images.FormatGIF, MIME: "image/gif", Extensions: []string{"gif"}, Decode: gif.Decode},
		{Name: "bmp", Format: images.FormatBMP, MIME: "image/bmp", Extensions: []string{"bmp"}, Decode: bmp.Decode},
		{Name: "tiff", Format: images.FormatTIFF, MIME: "image/tiff", Extensions: []string{"tiff", "tif"}, Decode: tiff.Decode},
		{Name: "libwebp", Format: images.FormatWebP, MIME: "image/webp", Extensions: []string{"webp"}, Decode: webp.Decode},
		{Name: "x-webp", Format: images.FormatWebP, MIME: "image/webp", Extensions: []string{"webp"}, Decode: xwebp.Decode},
	}
}

// Register appends d. Later registrations for the same name are tried after earlier ones.
func (r *Registry) Register(d Decoder) {
	idx := len(r.decoders)
	r.decoders = append(r.decoders, d)

	names := append([]string{string(d.Format)}, d.Extensions...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(n)
		if seen[n] {
			continue
		}
		seen[n] = true
		r.byName[n] = append(r.byName[n], idx)
	}
}

// SetCompression sets the zlib level used by EncodePNG.
func (r *Registry) SetCompression(level png.CompressionLevel) {
	r.compression = level
}

// FormatNames lists every format name and extension the registry can decode, sorted.
func (r *Registry) FormatNames() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DecodersFor returns the decoders registered under a format name or extension.
// Lookup is case-insensitive and ignores a leading dot.
func (r *Registry) DecodersFor(name string) []Decoder {
	name = strings.TrimPrefix(strings.ToLower(name), ".")
	idx := r.byName[name]
	out := make([]Decoder, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.decoders[i])
	}
	return out
}

// DecodersForContent returns every registered decoder, those whose MIME type
// matches the sniffed content first and the rest after, each group in
// registration order.
func (r *Registry) DecodersForContent(data []byte) []Decoder {
	detected := mimetype.Detect(data)

	var capable, rest []Decoder
	for _, d := range r.decoders {
		if matchesMIME(detected, d.MIME) {
			capable = append(capable, d)
		} else {
			rest = append(rest, d)
		}
	}
	return append(capable, rest...)
}

// DetectMIME reports the content type of data.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// Decode auto-detects the format of data from its content and decodes it with
// the first matching decoder.
//
// Returns:
//   - image.Image: The decoded raster.
//   - Decoder: The decoder that produced it.
//   - error: ErrNoDecoder if the content type is not registered, or the decoder's error.
func (r *Registry) Decode(data []byte) (image.Image, Decoder, error) {
	detected := mimetype.Detect(data)
	for _, d := range r.decoders {
		if !matchesMIME(detected, d.MIME) {
			continue
		}
		img, err := d.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, d, errors.Wrapf(err, "decode %s", d.Name)
		}
		return img, d, nil
	}
	return nil, Decoder{}, errors.Wrapf(ErrNoDecoder, "content type %s", detected.String())
}

// DecodeFile reads path and decodes it. When the file extension names a
// registered format the decoder is chosen by extension alone, as path-based
// loaders do; otherwise the content is sniffed as in Decode.
func (r *Registry) DecodeFile(fsys util.Filesystem, path string) (image.Image, Decoder, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, Decoder{}, errors.Wrap(err, "read image")
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	byExt := r.DecodersFor(ext)
	if ext == "" || len(byExt) == 0 {
		return r.Decode(data)
	}

	d := byExt[0]
	img, err := d.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, d, errors.Wrapf(err, "decode %s as .%s", d.Name, ext)
	}
	return img, d, nil
}

// EncodePNG writes img to w as PNG.
func (r *Registry) EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: r.compression}
	return enc.Encode(w, img)
}

// matchesMIME reports whether detected, or one of its parents, is mime.
func matchesMIME(detected *mimetype.MIME, mime string) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}
