package monitor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Evidence category tags, used both for stride selection and in saved
// snapshot filenames.
const (
	TagGazeDown         = "gaze_down"
	TagPostureIncorrect = "posture_incorrect"
	TagHandMove         = "hand_move"
)

// evidenceMaxWidth bounds saved snapshots; larger frames are downscaled.
const evidenceMaxWidth = 480

// Sampler decides which event frames to keep as evidence snapshots and
// writes them to disk. Sampling failures are logged and reported as an empty
// reference; they never fail the frame.
type Sampler struct {
	dir       string
	sessionID string
	strides   map[string]int
	log       *zap.Logger
}

// NewSampler returns a sampler writing under dir. Strides map category tag
// to the frame-id modulus gate; a missing or non-positive stride disables
// sampling for that category.
func NewSampler(dir, sessionID string, strides map[string]int, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{dir: dir, sessionID: sessionID, strides: strides, log: logger}
}

// ShouldSample reports whether an event of the given category on this frame
// falls on the category's sampling stride.
func (s *Sampler) ShouldSample(tag string, frameID int) bool {
	stride, ok := s.strides[tag]
	if !ok || stride <= 0 {
		return false
	}
	return frameID%stride == 0
}

// Save writes the frame as a JPEG snapshot and returns its path. On any
// failure it returns "" and the run carries on without the evidence.
func (s *Sampler) Save(tag string, frameID int, jpegData []byte) string {
	name := fmt.Sprintf("%s_%s_%d_%d.jpg", s.sessionID, tag, frameID, time.Now().Unix())
	path := filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("evidence dir", zap.Error(err))
		return ""
	}

	out, err := downscaleJPEG(jpegData, evidenceMaxWidth)
	if err != nil {
		s.log.Warn("evidence encode", zap.Int("frame", frameID), zap.Error(err))
		return ""
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		s.log.Warn("evidence write", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

// downscaleJPEG re-encodes the image, halving it until the width fits under
// maxWidth. Nearest-neighbor is plenty for report thumbnails.
func downscaleJPEG(data []byte, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	factor := 1
	for b.Dx()/factor > maxWidth {
		factor *= 2
	}
	if factor > 1 {
		img = subsample(img, factor)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func subsample(src image.Image, factor int) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()/factor, b.Dy()/factor))
	for y := 0; y < dst.Bounds().Dy(); y++ {
		for x := 0; x < dst.Bounds().Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x*factor, b.Min.Y+y*factor))
		}
	}
	return dst
}
