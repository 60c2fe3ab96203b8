package capture

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// frameBuffer bounds how many decoded frames wait for the consumer. The
// analysis loop is slower than the camera, so newer frames are dropped when
// the buffer is full rather than queued (latency over completeness).
const frameBuffer = 2

// DeviceConfig describes the capture device ffmpeg should read.
type DeviceConfig struct {
	Device         string
	FallbackDevice string // second open attempt; empty disables the fallback
	InputFormat    string // e.g. v4l2, avfoundation; empty lets ffmpeg guess
	Width          int
	Height         int
	FrameRate      int
}

// FFmpegSource reads an MJPEG stream produced by an ffmpeg subprocess and
// splits it into individual JPEG frames. The process is owned exclusively by
// the source and torn down on Close.
type FFmpegSource struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	frames  chan *Frame
	width   int
	height  int
	log     *zap.Logger
	seq     atomic.Int64
	dropped atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// OpenCamera starts ffmpeg against the primary device, falling back to the
// configured secondary device on failure. A persistent failure of both
// attempts is returned to the caller; no further retries are performed.
func OpenCamera(cfg DeviceConfig, logger *zap.Logger) (*FFmpegSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := open(cfg, cfg.Device, logger)
	if err != nil && cfg.FallbackDevice != "" && cfg.FallbackDevice != cfg.Device {
		logger.Warn("primary capture device unavailable, trying fallback",
			zap.String("device", cfg.Device),
			zap.String("fallback", cfg.FallbackDevice),
			zap.Error(err))
		src, err = open(cfg, cfg.FallbackDevice, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open capture device: %w", err)
	}
	return src, nil
}

func open(cfg DeviceConfig, device string, logger *zap.Logger) (*FFmpegSource, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if cfg.InputFormat != "" {
		args = append(args, "-f", cfg.InputFormat)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	}
	if cfg.FrameRate > 0 {
		args = append(args, "-framerate", strconv.Itoa(cfg.FrameRate))
	}
	args = append(args,
		"-i", device,
		"-f", "mjpeg",
		"-q:v", "5",
		"pipe:1",
	)

	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stderr = nil
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	s := &FFmpegSource{
		cmd:    cmd,
		stdout: stdout,
		frames: make(chan *Frame, frameBuffer),
		width:  cfg.Width,
		height: cfg.Height,
		log:    logger,
	}
	go s.readLoop()

	logger.Info("capture started", zap.String("device", device))
	return s, nil
}

// Next returns the next frame, ctx.Err() on cancellation, or
// ErrSourceDrained once the stream ends.
func (s *FFmpegSource) Next(ctx context.Context) (*Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f, ok := <-s.frames:
		if !ok {
			return nil, ErrSourceDrained
		}
		return f, nil
	}
}

// Close stops the ffmpeg process and releases the device. Idempotent.
func (s *FFmpegSource) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stdout.Close()
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Signal(os.Interrupt)
			done := make(chan error, 1)
			go func() { done <- s.cmd.Wait() }()
			select {
			case <-done:
			case <-time.After(3 * time.Second):
				_ = s.cmd.Process.Kill()
				<-done
			}
		}
		s.log.Info("capture stopped",
			zap.Int64("frames", s.seq.Load()),
			zap.Int64("dropped", s.dropped.Load()))
	})
	return s.closeErr
}

func (s *FFmpegSource) readLoop() {
	defer close(s.frames)

	sc := bufio.NewScanner(s.stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	sc.Split(splitJPEG)

	for sc.Scan() {
		id := int(s.seq.Add(1))
		data := append([]byte(nil), sc.Bytes()...)
		frame := &Frame{
			ID:        id,
			Data:      data,
			Width:     s.width,
			Height:    s.height,
			Timestamp: time.Now(),
		}
		select {
		case s.frames <- frame:
		default:
			s.dropped.Add(1)
		}
	}
	if err := sc.Err(); err != nil {
		s.log.Debug("capture stream ended", zap.Error(err))
	}
}

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// splitJPEG is a bufio.SplitFunc that tokenizes an MJPEG byte stream into
// individual JPEG images delimited by SOI/EOI markers.
func splitJPEG(data []byte, atEOF bool) (int, []byte, error) {
	start := bytes.Index(data, jpegSOI)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep the final byte: it may be the first half of a split marker.
		if len(data) > 0 {
			return len(data) - 1, nil, nil
		}
		return 0, nil, nil
	}
	end := bytes.Index(data[start+2:], jpegEOI)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}
	frameEnd := start + 2 + end + 2
	return frameEnd, data[start:frameEnd], nil
}
