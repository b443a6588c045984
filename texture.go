package spine

import (
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Texture is an atlas page image plus its sampler. Renderers treat it as
// read-only; the GPU renderer uploads it on first use and keeps the upload
// until ReleaseTexture or Close.
type Texture struct {
	Name    string
	Pixmap  *Pixmap
	Sampler Sampler
}

// NewTexture wraps a pixmap with the default sampler.
func NewTexture(name string, pm *Pixmap) *Texture {
	return &Texture{Name: name, Pixmap: pm, Sampler: DefaultSampler()}
}

// LoadTexture loads the image of an atlas page. dir is the directory of the
// .atlas file; page names are relative to it.
func LoadTexture(dir string, page AtlasPage) (*Texture, error) {
	pm, err := LoadImage(filepath.Join(dir, page.Name))
	if err != nil {
		return nil, err
	}
	return &Texture{Name: page.Name, Pixmap: pm, Sampler: SamplerFor(page)}, nil
}

// LoadImage decodes an image file (PNG, JPEG, BMP, TIFF or WebP) into a
// straight-alpha pixmap.
func LoadImage(path string) (*Pixmap, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	pm, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pm, nil
}

// DecodeImage decodes any registered image format into a pixmap.
func DecodeImage(r io.Reader) (*Pixmap, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	Logger().Debug("spine: image decoded", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return FromImage(img), nil
}

// FromImage converts any image to a straight-alpha pixmap.
func FromImage(img image.Image) *Pixmap {
	b := img.Bounds()
	pm := NewPixmap(b.Dx(), b.Dy())

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == b.Dx()*4 {
		copy(pm.data, nrgba.Pix)
		return pm
	}

	dst := &image.NRGBA{Pix: pm.data, Stride: pm.width * 4, Rect: image.Rect(0, 0, pm.width, pm.height)}
	xdraw.Draw(dst, dst.Rect, img, b.Min, xdraw.Src)
	return pm
}
