package resolver

import (
	"bytes"
	"image"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuew620/imageConvertFunction/codec"
	"github.com/yuew620/imageConvertFunction/images"
	"github.com/yuew620/imageConvertFunction/test"
	"github.com/yuew620/imageConvertFunction/util"
)

// trackingFS records temp files so tests can check they are all removed.
type trackingFS struct {
	util.OSFilesystem
	mu      sync.Mutex
	created []string
	live    map[string]bool
}

func newTrackingFS(t *testing.T) *trackingFS {
	return &trackingFS{OSFilesystem: util.OSFilesystem{TempDir: t.TempDir()}, live: map[string]bool{}}
}

func (f *trackingFS) CreateTemp(pattern, suffix string, data []byte) (string, error) {
	name, err := f.OSFilesystem.CreateTemp(pattern, suffix, data)
	if err == nil {
		f.mu.Lock()
		f.created = append(f.created, name)
		f.live[name] = true
		f.mu.Unlock()
	}
	return name, err
}

func (f *trackingFS) Remove(path string) error {
	f.mu.Lock()
	delete(f.live, path)
	f.mu.Unlock()
	return f.OSFilesystem.Remove(path)
}

// rawImage is a tiny format no signature or MIME sniffer recognises:
// "RAW1", width, height, then one gray byte per pixel.
func rawImage(w, h int) []byte {
	data := []byte{'R', 'A', 'W', '1', byte(w), byte(h)}
	for i := 0; i < w*h; i++ {
		data = append(data, byte(i))
	}
	return data
}

func decodeRaw(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 6 || !bytes.HasPrefix(data, []byte("RAW1")) {
		return nil, errors.New("not a raw image")
	}
	img := image.NewGray(image.Rect(0, 0, int(data[4]), int(data[5])))
	copy(img.Pix, data[6:])
	return img, nil
}

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, util.OSFilesystem{}.WriteFile(path, data))
	return path
}

func sample(t *testing.T, format string) []byte {
	t.Helper()
	data, err := test.NewMockImageGenerator(90, 60).Encode(format)
	require.NoError(t, err)
	return data
}

func TestResolveNaiveWithCorrectExtension(t *testing.T) {
	fsys := newTrackingFS(t)
	r := New(codec.NewRegistry(), fsys)

	data := sample(t, "png")
	res, err := r.Resolve(data, writeInput(t, "a.png", data))
	require.NoError(t, err)
	assert.Equal(t, StageNaive, res.Stage)
	assert.Equal(t, images.FormatPNG, res.Signature)
	assert.Equal(t, image.Rect(0, 0, 90, 60), res.Image.Bounds())
	assert.Empty(t, fsys.created, "naive success must not probe extensions")
}

func TestResolveForcedWithWrongExtension(t *testing.T) {
	r := New(codec.NewRegistry(), newTrackingFS(t))

	data := sample(t, "png")
	res, err := r.Resolve(data, writeInput(t, "a.jpg", data))
	require.NoError(t, err)
	assert.Equal(t, StageForced, res.Stage)
	assert.Equal(t, "png", res.Decoder)
}

func TestResolveWithoutPath(t *testing.T) {
	r := New(codec.NewRegistry(), newTrackingFS(t))

	res, err := r.Resolve(sample(t, "gif"), "")
	require.NoError(t, err)
	assert.Equal(t, StageNaive, res.Stage)
	assert.Equal(t, "gif", res.Decoder)
}

func TestResolveExtensionIndependent(t *testing.T) {
	r := New(codec.NewRegistry(), newTrackingFS(t))

	for _, format := range test.Formats {
		t.Run(format, func(t *testing.T) {
			data := sample(t, format)
			wrong := "a.png"
			if format == "png" {
				wrong = "a.jpg"
			}

			var sums []string
			for _, name := range []string{"a" + test.Extension(format), "a", wrong} {
				res, err := r.Resolve(data, writeInput(t, name, data))
				require.NoError(t, err, name)
				sums = append(sums, images.ComputeImageChecksum(res.Image))
			}
			assert.Equal(t, sums[0], sums[1], "no extension")
			assert.Equal(t, sums[0], sums[2], "wrong extension")
		})
	}
}

func TestResolveExtensionProbe(t *testing.T) {
	fsys := newTrackingFS(t)
	reg := codec.New(codec.Decoder{
		Name:       "raw",
		Format:     "raw",
		MIME:       "image/x-raw-test",
		Extensions: []string{"gif"},
		Decode:     decodeRaw,
	})
	r := New(reg, fsys)

	data := rawImage(4, 3)
	res, err := r.Resolve(data, writeInput(t, "input", data))
	require.NoError(t, err)
	assert.Equal(t, StageExtensionProbe, res.Stage)
	assert.Equal(t, "raw (as .gif)", res.Decoder)
	assert.Equal(t, image.Rect(0, 0, 4, 3), res.Image.Bounds())

	// jpg, jpeg, png were tried and failed before gif.
	assert.Len(t, fsys.created, 4)
	assert.Empty(t, fsys.live, "temp files must be removed")
	for _, name := range fsys.created {
		_, err := fsys.Stat(name)
		assert.Error(t, err, "%s still exists", name)
	}
}

func TestResolveReaderScan(t *testing.T) {
	fsys := newTrackingFS(t)
	reg := codec.New(codec.Decoder{Name: "raw", Format: "raw", MIME: "image/x-raw-test", Decode: decodeRaw})
	r := New(reg, fsys)

	data := rawImage(2, 2)
	res, err := r.Resolve(data, writeInput(t, "input.bin", data))
	require.NoError(t, err)
	assert.Equal(t, StageReaderScan, res.Stage)
	assert.Equal(t, "raw", res.Decoder)
	assert.Len(t, fsys.created, len(images.SupportedFormats))
	assert.Empty(t, fsys.live)
}

func TestResolveGarbageIsUnreadable(t *testing.T) {
	fsys := newTrackingFS(t)
	r := New(codec.NewRegistry(), fsys)

	data := []byte("this is a text file pretending to be a png")
	res, err := r.Resolve(data, writeInput(t, "fake.png", data))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))
	assert.Equal(t, "unreadable or corrupt image", err.Error())
	assert.Nil(t, res.Image)
	assert.Equal(t, images.FormatUnknown, res.Signature)
	assert.Len(t, fsys.created, len(images.SupportedFormats))
	assert.Empty(t, fsys.live)
}

func TestResolveTruncatedSignature(t *testing.T) {
	r := New(codec.NewRegistry(), newTrackingFS(t))

	// A valid PNG signature followed by nothing useful.
	data := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0}
	res, err := r.Resolve(data, writeInput(t, "broken", data))
	assert.True(t, errors.Is(err, ErrUnreadable))
	assert.Equal(t, images.FormatPNG, res.Signature)
}

func TestResolveRecoversDecoderPanics(t *testing.T) {
	reg := codec.New(
		codec.Decoder{Name: "boom", Format: "boom", MIME: "image/x-boom", Decode: func(io.Reader) (image.Image, error) {
			panic("corrupt table")
		}},
		codec.Decoder{Name: "raw", Format: "raw", MIME: "image/x-raw-test", Decode: decodeRaw},
	)
	r := New(reg, newTrackingFS(t))

	res, err := r.Resolve(rawImage(1, 1), "")
	require.NoError(t, err)
	assert.Equal(t, "raw", res.Decoder)
}

func TestResolveEmptyImageIsFailure(t *testing.T) {
	reg := codec.New(codec.Decoder{Name: "empty", Format: "empty", MIME: "image/x-empty", Decode: func(io.Reader) (image.Image, error) {
		return image.NewGray(image.Rect(0, 0, 0, 0)), nil
	}})
	r := New(reg, newTrackingFS(t), WithProbeExtensions([]string{"png"}))

	_, err := r.Resolve([]byte("anything"), "")
	assert.True(t, errors.Is(err, ErrUnreadable))
}

func TestResolveConcurrentCalls(t *testing.T) {
	fsys := newTrackingFS(t)
	r := New(codec.NewRegistry(), fsys)
	data := sample(t, "bmp")
	path := writeInput(t, "shared", data)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(data, path)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
