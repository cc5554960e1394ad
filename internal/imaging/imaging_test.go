package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func TestHeader(t *testing.T) {
	data := encodePNG(createTestImage(120, 80, color.White))

	cfg, format, err := Header(data)
	if err != nil {
		t.Fatalf("Header failed: %v", err)
	}
	if format != "png" {
		t.Errorf("expected format png, got %s", format)
	}
	if cfg.Width != 120 || cfg.Height != 80 {
		t.Errorf("expected 120x80, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestDecodeInvalidImage(t *testing.T) {
	_, _, err := Decode([]byte("not an image"))
	if err == nil {
		t.Error("expected error for invalid image data")
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
	}{
		{"smaller than max", 100, 50, 800, 100, 50},
		{"landscape", 1600, 800, 800, 800, 400},
		{"portrait", 600, 1200, 800, 400, 800},
		{"square", 1000, 1000, 800, 800, 800},
		{"thin strip keeps one pixel", 4000, 2, 800, 800, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h := fitDimensions(tc.width, tc.height, tc.maxSize)
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("fitDimensions(%d, %d, %d) = %dx%d; want %dx%d",
					tc.width, tc.height, tc.maxSize, w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestFit(t *testing.T) {
	img := createTestImage(1000, 500, color.Black)

	resized := Fit(img, 200)

	if resized.Bounds().Dx() != 200 || resized.Bounds().Dy() != 100 {
		t.Errorf("expected 200x100, got %v", resized.Bounds())
	}
}

func TestResizeImage(t *testing.T) {
	img := createTestImage(400, 400, color.White)

	data, err := ResizeImage(img, 100)
	if err != nil {
		t.Fatalf("ResizeImage failed: %v", err)
	}

	cfg, format, err := Header(data)
	if err != nil {
		t.Fatalf("Header failed: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
	if cfg.Width != 100 || cfg.Height != 100 {
		t.Errorf("expected 100x100, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestToGray(t *testing.T) {
	img := createTestImage(4, 4, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	g := ToGray(img)

	// Red has luma 0.299 * 255.
	want := 0.299 * 255
	if math.Abs(g.At(0, 0)-want) > 0.01 {
		t.Errorf("expected luma %.2f, got %.2f", want, g.At(0, 0))
	}
	if g.Width != 4 || g.Height != 4 {
		t.Errorf("expected 4x4 plane, got %dx%d", g.Width, g.Height)
	}
}

func TestLaplacianVariance(t *testing.T) {
	flat := ToGray(createTestImage(50, 50, color.Gray{Y: 128}))
	if v := flat.LaplacianVariance(); v > 1e-9 {
		t.Errorf("expected zero variance for flat image, got %f", v)
	}

	checker := ToGray(createCheckerImage(50, 50, 1))
	if v := checker.LaplacianVariance(); v < 1000 {
		t.Errorf("expected high variance for checkerboard, got %f", v)
	}
}

func TestNeighbourDiff(t *testing.T) {
	g := &Gray{Width: 3, Height: 2, Pix: []float64{
		0, 10, 20,
		0, 10, 20,
	}}

	dx, dy := g.NeighbourDiff()
	if dx != 10 {
		t.Errorf("expected dx 10, got %f", dx)
	}
	if dy != 0 {
		t.Errorf("expected dy 0, got %f", dy)
	}
}

func TestMirrorDiff(t *testing.T) {
	symmetric := &Gray{Width: 4, Height: 1, Pix: []float64{10, 50, 50, 10}}
	if d := symmetric.MirrorDiff(); d != 0 {
		t.Errorf("expected 0 for symmetric row, got %f", d)
	}

	skewed := &Gray{Width: 4, Height: 1, Pix: []float64{0, 0, 100, 100}}
	if d := skewed.MirrorDiff(); d != 100 {
		t.Errorf("expected 100 for skewed row, got %f", d)
	}
}

func TestRegion(t *testing.T) {
	g := &Gray{Width: 3, Height: 3, Pix: []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}}

	got := g.Region(image.Rect(1, 1, 5, 5))
	want := []float64{5, 6, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %f, want %f", i, got[i], want[i])
		}
	}

	if g.Region(image.Rect(5, 5, 6, 6)) != nil {
		t.Error("expected nil for region outside the plane")
	}
}

func TestMeanVariance(t *testing.T) {
	mean, variance := MeanVariance([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("expected mean 5, got %f", mean)
	}
	if variance != 4 {
		t.Errorf("expected variance 4, got %f", variance)
	}

	mean, variance = MeanVariance(nil)
	if mean != 0 || variance != 0 {
		t.Errorf("expected zeros for empty input, got %f %f", mean, variance)
	}
}

func TestMaxChannelSpread(t *testing.T) {
	grey := createTestImage(10, 10, color.Gray{Y: 90})
	if s := MaxChannelSpread(grey); s != 0 {
		t.Errorf("expected spread 0 for grey image, got %f", s)
	}

	colored := createTestImage(10, 10, color.RGBA{R: 200, G: 50, B: 100, A: 255})
	if s := MaxChannelSpread(colored); s != 150 {
		t.Errorf("expected spread 150, got %f", s)
	}
}

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, c)
		}
	}
	return img
}

func createCheckerImage(width, height, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}
