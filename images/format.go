package images

import "bytes"

// ImageFormat identifies a decode capability, not a file extension.
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatGIF is the GIF image format.
	FormatGIF ImageFormat = "gif"
	// FormatBMP is the Windows bitmap format.
	FormatBMP ImageFormat = "bmp"
	// FormatTIFF is the TIFF image format, either byte order.
	FormatTIFF ImageFormat = "tiff"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatJFIF is a JPEG stream carried in a JFIF container.
	FormatJFIF ImageFormat = "jfif"
	// FormatUnknown is returned when no signature matches.
	FormatUnknown ImageFormat = "unknown"
)

// SignatureLength is the number of leading bytes Identify inspects.
const SignatureLength = 12

// signature is a magic number anchored at offset 0.
type signature struct {
	format ImageFormat
	magic  []byte
}

// signatures are checked in order; the first match wins.
var signatures = []signature{
	{format: FormatJPEG, magic: []byte{0xFF, 0xD8, 0xFF}},
	{format: FormatPNG, magic: []byte{0x89, 0x50, 0x4E, 0x47}},
	{format: FormatGIF, magic: []byte{0x47, 0x49, 0x46, 0x38}},
	{format: FormatBMP, magic: []byte{0x42, 0x4D}},
	{format: FormatTIFF, magic: []byte{0x49, 0x49, 0x2A, 0x00}},
	{format: FormatTIFF, magic: []byte{0x4D, 0x4D, 0x00, 0x2A}},
}

var (
	magicRIFF = []byte{0x52, 0x49, 0x46, 0x46}
	magicWEBP = []byte{0x57, 0x45, 0x42, 0x50}
)

// Identify maps a byte prefix to a format label using known magic numbers.
//
// Arguments:
//   - prefix: The leading bytes of a file. Only the first SignatureLength bytes matter.
//
// Returns:
//   - ImageFormat: The detected format, or FormatUnknown.
//   - bool: Whether a signature matched. Prefixes shorter than 4 bytes never match.
func Identify(prefix []byte) (ImageFormat, bool) {
	if len(prefix) < 4 {
		return FormatUnknown, false
	}

	for _, s := range signatures {
		if bytes.HasPrefix(prefix, s.magic) {
			return s.format, true
		}
	}

	// WebP files start with "RIFF", a 4 byte chunk size, then "WEBP".
	if len(prefix) >= 12 && bytes.HasPrefix(prefix, magicRIFF) && bytes.Equal(prefix[8:12], magicWEBP) {
		return FormatWebP, true
	}

	return FormatUnknown, false
}

// SupportedFormats is the fixed set of labels the converter is expected to decode,
// in the order the resolver probes them as file extensions.
var SupportedFormats = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp", "jfif"}
