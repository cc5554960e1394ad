package facedetect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	var gotContentType, gotPartType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected multipart file: %v", err)
			return
		}
		defer file.Close()
		gotPartType = header.Header.Get("Content-Type")
		io.Copy(io.Discard, file)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Response{
			FacesCount: 1,
			Faces: []Face{{
				Index:    0,
				BBox:     []float64{10, 20, 110, 140},
				DetScore: 0.98,
				Kps:      [][]float64{{40, 60}, {80, 60}, {60, 90}, {45, 110}, {75, 110}},
			}},
			Model: "buffalo_l",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	jpegHeader := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0, 0, 0}

	resp, err := client.Detect(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("expected multipart request, got %s", gotContentType)
	}
	if gotPartType != "image/jpeg" {
		t.Errorf("expected part type image/jpeg, got %s", gotPartType)
	}
	if resp.FacesCount != 1 || len(resp.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(resp.Faces))
	}
	if len(resp.Faces[0].Kps) != 5 {
		t.Errorf("expected 5 keypoints, got %d", len(resp.Faces[0].Kps))
	}
	if resp.Faces[0].DetScore != 0.98 {
		t.Errorf("expected det score 0.98, got %f", resp.Faces[0].DetScore)
	}
}

func TestDetect_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Detect(context.Background(), []byte("12345678"))
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a\x00\x00"), "image/gif"},
		{"bmp", []byte("BM\x00\x00\x00\x00\x00\x00"), "image/bmp"},
		{"short", []byte{0xFF}, "application/octet-stream"},
		{"unknown", []byte("abcdefgh"), "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMIMEType(tt.data); got != tt.expected {
				t.Errorf("detectMIMEType() = %s, want %s", got, tt.expected)
			}
		})
	}
}
