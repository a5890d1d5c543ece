// Package imaging decodes submitted photos and resamples them onto the
// fixed analysis grid the scorer works from.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/rotisserie/eris"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// GridSize is the side length of the analysis grid. Every photo is reduced
// to GridSize*GridSize samples regardless of its native resolution.
const GridSize = 200

// ErrUndecodable marks input that no registered image format accepts.
// It is the only fatal analysis error; callers check it with errors.Is.
var ErrUndecodable = eris.New("imaging: undecodable image data")

// RGB is a single 8-bit sample.
type RGB struct {
	R, G, B uint8
}

// Grid holds the resampled pixels in row-major order. It is built once
// and read-only afterwards.
type Grid struct {
	Pix [GridSize * GridSize]RGB
}

// At returns the sample at grid coordinates (x, y).
func (g *Grid) At(x, y int) RGB {
	return g.Pix[y*GridSize+x]
}

// Len returns the total sample count.
func (g *Grid) Len() int {
	return GridSize * GridSize
}

// Decode reads one image in any registered format (JPEG, PNG, GIF, TIFF,
// WebP, BMP) and reports the format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", eris.Wrap(ErrUndecodable, err.Error())
	}
	return img, format, nil
}

// Resample reduces img to the fixed analysis grid. Each grid cell (x, y)
// reads the source pixel at (floor(x*W/200), floor(y*H/200)), so images
// of any resolution produce the same number of samples.
func Resample(img image.Image) *Grid {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	g := &Grid{}
	for y := 0; y < GridSize; y++ {
		sy := bounds.Min.Y + y*h/GridSize
		for x := 0; x < GridSize; x++ {
			sx := bounds.Min.X + x*w/GridSize
			r, gr, b, _ := img.At(sx, sy).RGBA()
			// RGBA returns 16-bit channels; shift down to 8-bit.
			g.Pix[y*GridSize+x] = RGB{uint8(r >> 8), uint8(gr >> 8), uint8(b >> 8)}
		}
	}
	return g
}

// Sample decodes raw image bytes and resamples them in one step.
func Sample(data []byte) (*Grid, error) {
	if len(data) == 0 {
		return nil, eris.Wrap(ErrUndecodable, "empty input")
	}
	img, _, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Resample(img), nil
}
