package imageio

import (
	"bufio"
	"fmt"
	"os"
)

// Text-vector IO matching the hardware verification flow: intensity planes
// are whitespace-separated floats in raster order, disparity maps are one
// integer per line.

// ReadTextPlane reads width*height whitespace-separated float intensities.
func ReadTextPlane(path string, width, height int) (*Plane, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer f.Close()

	p := NewPlane(width, height)
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for i := range p.Pix {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("failed reading %s: %w", path, err)
			}
			return nil, fmt.Errorf("%s: expected %d samples, got %d", path, len(p.Pix), i)
		}
		var v float32
		if _, err := fmt.Sscanf(sc.Text(), "%g", &v); err != nil {
			return nil, fmt.Errorf("%s: bad sample %d %q: %w", path, i, sc.Text(), err)
		}
		p.Pix[i] = v
	}
	return p, nil
}

// WriteTextPlane writes the plane as one float per line in raster order.
func WriteTextPlane(path string, p *Plane) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range p.Pix {
		fmt.Fprintf(w, "%g\n", v)
	}
	return w.Flush()
}

// ReadDisparityText reads width*height disparity integers, one per line.
func ReadDisparityText(path string, width, height int) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open disparity file: %w", err)
	}
	defer f.Close()

	data := make([]int, width*height)
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for i := range data {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("failed reading %s: %w", path, err)
			}
			return nil, fmt.Errorf("%s: expected %d values, got %d", path, len(data), i)
		}
		var v int
		if _, err := fmt.Sscanf(sc.Text(), "%d", &v); err != nil {
			return nil, fmt.Errorf("%s: bad value %d %q: %w", path, i, sc.Text(), err)
		}
		data[i] = v
	}
	return data, nil
}

// WriteDisparityText writes disparities one per line in raster order.
func WriteDisparityText(path string, data []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create disparity file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range data {
		fmt.Fprintf(w, "%d\n", v)
	}
	return w.Flush()
}
