package facedetect

import (
	"math"
	"testing"
)

func TestComputeIoU(t *testing.T) {
	tests := []struct {
		name     string
		bbox1    []float64
		bbox2    []float64
		expected float64
	}{
		{
			name:     "identical boxes",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{20, 20, 30, 30},
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{5, 5, 15, 15},
			expected: 25.0 / 175.0, // intersection=25, union=100+100-25=175
		},
		{
			name:     "invalid bbox1",
			bbox1:    []float64{0, 0, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeIoU(tt.bbox1, tt.bbox2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ComputeIoU(%v, %v) = %v, want %v", tt.bbox1, tt.bbox2, result, tt.expected)
			}
		})
	}
}

func TestArea(t *testing.T) {
	tests := []struct {
		name     string
		bbox     []float64
		expected float64
	}{
		{"square", []float64{0, 0, 10, 10}, 100},
		{"rectangle", []float64{10, 20, 40, 30}, 300},
		{"inverted", []float64{10, 10, 0, 0}, 0},
		{"malformed", []float64{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Area(tt.bbox); got != tt.expected {
				t.Errorf("Area(%v) = %v, want %v", tt.bbox, got, tt.expected)
			}
		})
	}
}

func TestDistinct(t *testing.T) {
	faces := []Face{
		{Index: 0, BBox: []float64{0, 0, 100, 100}, DetScore: 0.80},
		{Index: 1, BBox: []float64{5, 5, 100, 100}, DetScore: 0.95},  // overlaps face 0
		{Index: 2, BBox: []float64{200, 0, 300, 100}, DetScore: 0.90}, // separate face
		{Index: 3, BBox: []float64{400, 0, 450, 50}, DetScore: 0.20},  // below score
	}

	got := Distinct(faces, 0.5, 0.5)

	if len(got) != 2 {
		t.Fatalf("expected 2 distinct faces, got %d", len(got))
	}
	if got[0].Index != 1 {
		t.Errorf("expected highest scoring overlapping face (1) to be kept, got %d", got[0].Index)
	}
	if got[1].Index != 2 {
		t.Errorf("expected separate face (2) to be kept, got %d", got[1].Index)
	}
}

func TestDistinct_Empty(t *testing.T) {
	if got := Distinct(nil, 0.5, 0.5); len(got) != 0 {
		t.Errorf("expected no faces, got %d", len(got))
	}
}
