package checks

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/facedetect"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/imaging"
)

// ErrNotLoaded is returned by pixel checks run before Load succeeded.
var ErrNotLoaded = errors.New("image not loaded")

// FaceDetector finds faces in an encoded image.
type FaceDetector interface {
	Detect(ctx context.Context, imageData []byte) (*facedetect.Response, error)
}

// Subject is one image under validation. File-level fields are filled by
// NewSubject, pixel-level fields by Load. A Subject belongs to a single
// worker and is not safe for concurrent use.
type Subject struct {
	Path      string
	Name      string
	Data      []byte
	SizeBytes int64

	// From the encoded header.
	Format    string
	Width     int
	Height    int
	HeaderErr error

	// From the decoded pixels.
	Image image.Image
	Work  *image.RGBA
	Gray  *imaging.Gray

	facesDone bool
	faces     []facedetect.Face
	facesErr  error
}

// NewSubject reads the header of data without decoding pixels.
func NewSubject(path string, data []byte) *Subject {
	s := &Subject{
		Path:      path,
		Name:      filepath.Base(path),
		Data:      data,
		SizeBytes: int64(len(data)),
	}
	cfg, format, err := imaging.Header(data)
	if err != nil {
		s.HeaderErr = err
		return s
	}
	s.Format = format
	s.Width = cfg.Width
	s.Height = cfg.Height
	return s
}

// Load decodes the pixels and prepares the downscaled work image and luma plane.
func (s *Subject) Load() error {
	img, format, err := imaging.Decode(s.Data)
	if err != nil {
		return err
	}
	s.Image = img
	if s.Format == "" {
		s.Format = format
	}
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	s.Work = imaging.Fit(img, constants.WorkImageMaxSize)
	s.Gray = imaging.ToGray(s.Work)
	return nil
}

// Loaded reports whether pixel data is available.
func (s *Subject) Loaded() bool {
	return s.Image != nil
}

// Faces runs face detection once per subject and caches the distinct faces.
// Boxes are in work image coordinates.
func (s *Subject) Faces(ctx context.Context, d FaceDetector) ([]facedetect.Face, error) {
	if s.facesDone {
		return s.faces, s.facesErr
	}
	s.facesDone = true

	if s.Work == nil {
		s.facesErr = ErrNotLoaded
		return nil, s.facesErr
	}
	data, err := imaging.ResizeImage(s.Work, constants.WorkImageMaxSize)
	if err != nil {
		s.facesErr = err
		return nil, err
	}
	resp, err := d.Detect(ctx, data)
	if err != nil {
		s.facesErr = fmt.Errorf("face detection: %w", err)
		return nil, s.facesErr
	}
	s.faces = facedetect.Distinct(resp.Faces, constants.FaceMinScore, constants.FaceOverlapIoU)
	return s.faces, nil
}
