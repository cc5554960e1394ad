package imaging

import (
	"image"
	"math"
)

// Gray is a luma plane stored row-major, values 0-255.
type Gray struct {
	Width  int
	Height int
	Pix    []float64
}

// At returns the luma value at (x, y).
func (g *Gray) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// ToGray converts an image to its luma plane.
func ToGray(img *image.RGBA) *Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	g := &Gray{Width: width, Height: height, Pix: make([]float64, width*height)}
	for y := range height {
		for x := range width {
			off := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r, gr, b := img.Pix[off], img.Pix[off+1], img.Pix[off+2]
			// ITU-R BT.601 luma formula.
			g.Pix[y*width+x] = 0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(b)
		}
	}
	return g
}

// Mean returns the average luma of the whole plane.
func (g *Gray) Mean() float64 {
	if len(g.Pix) == 0 {
		return 0
	}
	var sum float64
	for _, v := range g.Pix {
		sum += v
	}
	return sum / float64(len(g.Pix))
}

// Region returns the luma values inside r, clipped to the plane.
func (g *Gray) Region(r image.Rectangle) []float64 {
	r = r.Intersect(image.Rect(0, 0, g.Width, g.Height))
	if r.Empty() {
		return nil
	}
	out := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		out = append(out, g.Pix[y*g.Width+r.Min.X:y*g.Width+r.Max.X]...)
	}
	return out
}

// LaplacianVariance returns the variance of the 4-neighbour Laplacian.
// Sharp images have strong edges and therefore a high variance.
func (g *Gray) LaplacianVariance() float64 {
	if g.Width < 3 || g.Height < 3 {
		return 0
	}
	values := make([]float64, 0, (g.Width-2)*(g.Height-2))
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			lap := g.At(x-1, y) + g.At(x+1, y) + g.At(x, y-1) + g.At(x, y+1) - 4*g.At(x, y)
			values = append(values, lap)
		}
	}
	_, variance := MeanVariance(values)
	return variance
}

// NeighbourDiff returns the mean absolute difference between horizontally and
// vertically adjacent pixels.
func (g *Gray) NeighbourDiff() (dx, dy float64) {
	if g.Width > 1 {
		var sum float64
		for y := range g.Height {
			for x := 1; x < g.Width; x++ {
				sum += math.Abs(g.At(x, y) - g.At(x-1, y))
			}
		}
		dx = sum / float64((g.Width-1)*g.Height)
	}
	if g.Height > 1 {
		var sum float64
		for y := 1; y < g.Height; y++ {
			for x := range g.Width {
				sum += math.Abs(g.At(x, y) - g.At(x, y-1))
			}
		}
		dy = sum / float64(g.Width*(g.Height-1))
	}
	return dx, dy
}

// MirrorDiff returns the mean absolute difference between the left half and
// the horizontally mirrored right half. A perfectly symmetric plane yields 0.
func (g *Gray) MirrorDiff() float64 {
	half := g.Width / 2
	if half == 0 || g.Height == 0 {
		return 0
	}
	var sum float64
	for y := range g.Height {
		for x := range half {
			sum += math.Abs(g.At(x, y) - g.At(g.Width-1-x, y))
		}
	}
	return sum / float64(half*g.Height)
}

// MeanVariance returns the mean and population variance of values.
func MeanVariance(values []float64) (mean, variance float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, variance
}

// MaxChannelSpread returns the largest difference between the R, G and B
// channels of any pixel. Greyscale images have a spread close to zero.
func MaxChannelSpread(img *image.RGBA) float64 {
	var spread uint8
	for i := 0; i+3 < len(img.Pix); i += 4 {
		r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		hi := max(r, g, b)
		lo := min(r, g, b)
		if hi-lo > spread {
			spread = hi - lo
		}
	}
	return float64(spread)
}
