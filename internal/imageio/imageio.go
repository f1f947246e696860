// Package imageio loads and saves the pixel data surrounding the matching
// core: grayscale intensity planes from common image formats, optional
// pre-scaling, and the whitespace-separated text vectors used by the
// hardware verification flow.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	_ "image/jpeg"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Plane is a single-channel float32 intensity image in row-major order,
// values in [0, 255].
type Plane struct {
	Width  int
	Height int
	Pix    []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// At returns the intensity at (x, y).
func (p *Plane) At(x, y int) float32 {
	return p.Pix[y*p.Width+x]
}

// Set stores the intensity at (x, y).
func (p *Plane) Set(x, y int, v float32) {
	p.Pix[y*p.Width+x] = v
}

// Gray converts the plane to an 8-bit grayscale image, clamping to [0, 255].
func (p *Plane) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := p.At(x, y)
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			img.Pix[y*img.Stride+x] = uint8(v + 0.5)
		}
	}
	return img
}

// LoadPlane decodes an image file (PNG, JPEG, BMP or TIFF) and converts it
// to a grayscale intensity plane.
func LoadPlane(path string) (*Plane, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage converts any image to a grayscale plane using the standard
// luma conversion.
func FromImage(img image.Image) *Plane {
	bounds := img.Bounds()
	p := NewPlane(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			p.Set(x-bounds.Min.X, y-bounds.Min.Y, float32(g.Y))
		}
	}
	return p
}

// Scale resizes the plane by the given factor using bilinear interpolation.
// A factor of 1 returns the plane unchanged.
func Scale(p *Plane, factor float64) *Plane {
	if factor == 1 {
		return p
	}
	w := uint(float64(p.Width)*factor + 0.5)
	h := uint(float64(p.Height)*factor + 0.5)
	resized := resize.Resize(w, h, p.Gray(), resize.Bilinear)
	return FromImage(resized)
}

// SavePNG writes an image as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
