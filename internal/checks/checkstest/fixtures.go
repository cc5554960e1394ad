// Package checkstest provides image fixtures and a fake face detector for
// tests of the validation pipeline.
package checkstest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/facedetect"
)

var (
	// Backdrop is the bright, flat background colour of Portrait images.
	Backdrop = color.RGBA{R: 240, G: 240, B: 240, A: 255}

	dark  = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	light = color.RGBA{R: 250, G: 220, B: 120, A: 255}
)

// Portrait draws a width x height image that passes every pixel check with
// the default thresholds: a flat bright border around a colourful,
// mirror-symmetric, high-contrast pattern.
func Portrait(width, height int) *image.RGBA {
	img := Solid(width, height, Backdrop)
	x0, x1 := width*20/100, width-width*20/100
	y0, y1 := height*10/100, height-height*10/100
	const cell = 8
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			mx := min(x-x0, x1-1-x)
			if (mx/cell+(y-y0)/cell)%2 == 0 {
				img.SetRGBA(x, y, dark)
			} else {
				img.SetRGBA(x, y, light)
			}
		}
	}
	return img
}

// Solid returns an image filled with one colour.
func Solid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// JPEG encodes img at high quality.
func JPEG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG encodes img losslessly.
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WriteFile writes data to dir/name and returns the full path.
func WriteFile(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Detector is a FaceDetector returning canned faces.
type Detector struct {
	Faces []facedetect.Face
	Err   error
	calls atomic.Int64
}

// Detect implements checks.FaceDetector.
func (d *Detector) Detect(_ context.Context, _ []byte) (*facedetect.Response, error) {
	d.calls.Add(1)
	if d.Err != nil {
		return nil, d.Err
	}
	return &facedetect.Response{FacesCount: len(d.Faces), Faces: d.Faces}, nil
}

// Calls returns how many times Detect ran.
func (d *Detector) Calls() int {
	return int(d.calls.Load())
}

// Face builds a confident detection with eye landmarks in the upper third.
func Face(x1, y1, x2, y2 float64) facedetect.Face {
	w, h := x2-x1, y2-y1
	return facedetect.Face{
		BBox:     []float64{x1, y1, x2, y2},
		DetScore: 0.99,
		Kps: [][]float64{
			{x1 + w*0.3, y1 + h*0.35},
			{x1 + w*0.7, y1 + h*0.35},
			{x1 + w*0.5, y1 + h*0.55},
			{x1 + w*0.35, y1 + h*0.75},
			{x1 + w*0.65, y1 + h*0.75},
		},
	}
}
