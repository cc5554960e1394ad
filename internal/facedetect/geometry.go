package facedetect

import "sort"

// ComputeIoU calculates Intersection over Union between two bounding boxes.
// bbox1 and bbox2 are [x1, y1, x2, y2] in the same coordinate system.
func ComputeIoU(bbox1, bbox2 []float64) float64 {
	if len(bbox1) != 4 || len(bbox2) != 4 {
		return 0
	}

	x1 := max(bbox1[0], bbox2[0])
	y1 := max(bbox1[1], bbox2[1])
	x2 := min(bbox1[2], bbox2[2])
	y2 := min(bbox1[3], bbox2[3])

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := Area(bbox1) + Area(bbox2) - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

// Area returns the area of an [x1, y1, x2, y2] box, 0 for malformed boxes.
func Area(bbox []float64) float64 {
	if len(bbox) != 4 || bbox[2] <= bbox[0] || bbox[3] <= bbox[1] {
		return 0
	}
	return (bbox[2] - bbox[0]) * (bbox[3] - bbox[1])
}

// Distinct drops detections below minScore and collapses detections whose
// boxes overlap by more than iouThreshold, keeping the highest scoring one.
func Distinct(faces []Face, minScore, iouThreshold float64) []Face {
	candidates := make([]Face, 0, len(faces))
	for _, f := range faces {
		if f.DetScore >= minScore && Area(f.BBox) > 0 {
			candidates = append(candidates, f)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DetScore > candidates[j].DetScore
	})

	var kept []Face
	for _, f := range candidates {
		duplicate := false
		for _, k := range kept {
			if ComputeIoU(f.BBox, k.BBox) > iouThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, f)
		}
	}
	return kept
}
