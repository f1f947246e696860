package sgm

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DisparityMap holds one disparity value per pixel in raster order.
type DisparityMap struct {
	Width  int
	Height int
	Data   []int
}

// NewDisparityMap allocates a zeroed map for the given geometry.
func NewDisparityMap(width, height int) *DisparityMap {
	return &DisparityMap{
		Width:  width,
		Height: height,
		Data:   make([]int, width*height),
	}
}

// At returns the disparity at (x, y).
func (m *DisparityMap) At(x, y int) int {
	return m.Data[y*m.Width+x]
}

// Set stores the disparity at (x, y).
func (m *DisparityMap) Set(x, y, d int) {
	m.Data[y*m.Width+x] = d
}

// Image renders the map as an 8-bit grayscale image, scaling [0, maxDisp-1]
// to the full intensity range for visual inspection.
func (m *DisparityMap) Image(maxDisp int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	scale := 255.0
	if maxDisp > 1 {
		scale = 255.0 / float64(maxDisp-1)
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := float64(m.At(x, y)) * scale
			if v > 255 {
				v = 255
			}
			img.Pix[y*img.Stride+x] = uint8(v + 0.5)
		}
	}
	return img
}

// Metrics summarizes the difference between a disparity map and a reference.
type Metrics struct {
	// MeanAbsError is the mean absolute disparity difference in pixels.
	MeanAbsError float64 `json:"meanAbsError"`
	// RMSError is the root-mean-square disparity difference.
	RMSError float64 `json:"rmsError"`
	// BadPixelRatio is the fraction of pixels whose absolute difference
	// exceeds the tolerance passed to Compare.
	BadPixelRatio float64 `json:"badPixelRatio"`
}

// Compare computes error metrics of m against a reference map of the same
// geometry. tolerance is the bad-pixel threshold in disparity steps.
func (m *DisparityMap) Compare(ref *DisparityMap, tolerance int) (Metrics, error) {
	if m.Width != ref.Width || m.Height != ref.Height {
		return Metrics{}, fmt.Errorf("geometry mismatch: %dx%d vs %dx%d",
			m.Width, m.Height, ref.Width, ref.Height)
	}

	absDiff := make([]float64, len(m.Data))
	sqDiff := make([]float64, len(m.Data))
	bad := 0
	for i := range m.Data {
		d := float64(m.Data[i] - ref.Data[i])
		if d < 0 {
			d = -d
		}
		absDiff[i] = d
		sqDiff[i] = d * d
		if d > float64(tolerance) {
			bad++
		}
	}

	return Metrics{
		MeanAbsError:  stat.Mean(absDiff, nil),
		RMSError:      math.Sqrt(stat.Mean(sqDiff, nil)),
		BadPixelRatio: float64(bad) / float64(len(m.Data)),
	}, nil
}

// Equal reports whether two maps have identical geometry and values.
func (m *DisparityMap) Equal(other *DisparityMap) bool {
	if m.Width != other.Width || m.Height != other.Height {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}
