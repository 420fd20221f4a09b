package images

import (
	"crypto/md5"
	"fmt"
	"image"

	"github.com/yuew620/imageConvertFunction/images/kernels"
)

// ComputeImageChecksum generates a deterministic checksum over the pixels of an
// image to verify idempotency.
//
// Arguments:
// - img: The image to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := ComputeImageChecksum(thumb)
//	fmt.Printf("Thumbnail checksum: %s\n", checksum)
//
// ```
func ComputeImageChecksum(img image.Image) string {
	if img == nil || img.Bounds().Empty() {
		return "empty"
	}

	n := kernels.ToNRGBA(img)
	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", n.Rect.Dx(), n.Rect.Dy())
	hash.Write(n.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
