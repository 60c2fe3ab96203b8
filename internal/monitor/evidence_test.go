package monitor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestShouldSampleStride(t *testing.T) {
	s := NewSampler(t.TempDir(), "sess", map[string]int{
		TagGazeDown:         10,
		TagPostureIncorrect: 15,
	}, nil)

	if !s.ShouldSample(TagGazeDown, 20) {
		t.Error("frame 20 should sample gaze at stride 10")
	}
	if s.ShouldSample(TagGazeDown, 21) {
		t.Error("frame 21 should not sample gaze at stride 10")
	}
	if !s.ShouldSample(TagPostureIncorrect, 45) {
		t.Error("frame 45 should sample posture at stride 15")
	}
	if s.ShouldSample(TagHandMove, 10) {
		t.Error("category without a stride must never sample")
	}
}

func TestSaveWritesNamedSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := NewSampler(dir, "abc123", map[string]int{TagGazeDown: 10}, nil)

	path := s.Save(TagGazeDown, 40, testJPEG(t, 32, 24))
	if path == "" {
		t.Fatal("Save returned no path")
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "abc123_gaze_down_40_") || !strings.HasSuffix(name, ".jpg") {
		t.Errorf("unexpected snapshot name %q", name)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot not on disk: %v", err)
	}
}

func TestSaveDownscalesLargeFrames(t *testing.T) {
	dir := t.TempDir()
	s := NewSampler(dir, "sess", nil, nil)

	path := s.Save(TagPostureIncorrect, 15, testJPEG(t, 1280, 720))
	if path == "" {
		t.Fatal("Save returned no path")
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if cfg.Width > evidenceMaxWidth {
		t.Errorf("snapshot width = %d, want <= %d", cfg.Width, evidenceMaxWidth)
	}
}

func TestSaveFailureReturnsEmpty(t *testing.T) {
	s := NewSampler(t.TempDir(), "sess", nil, nil)
	if path := s.Save(TagHandMove, 10, []byte("not a jpeg")); path != "" {
		t.Errorf("Save of garbage returned %q, want empty", path)
	}
}
