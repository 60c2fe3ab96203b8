package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"go.uber.org/zap"
)

func jpegBytes(payload ...byte) []byte {
	b := []byte{0xFF, 0xD8}
	b = append(b, payload...)
	b = append(b, 0xFF, 0xD9)
	return b
}

// pipeSource builds a source fed by an in-process pipe instead of ffmpeg so
// the read loop and Close can be exercised without a camera.
func pipeSource() (*FFmpegSource, io.WriteCloser) {
	pr, pw := io.Pipe()
	s := &FFmpegSource{
		stdout: pr,
		frames: make(chan *Frame, frameBuffer),
		log:    zap.NewNop(),
	}
	go s.readLoop()
	return s, pw
}

func TestSourceCloseWhileStreaming(t *testing.T) {
	s, pw := pipeSource()

	go func() {
		for i := 0; i < 50; i++ {
			if _, err := pw.Write(jpegBytes(byte(i))); err != nil {
				return
			}
		}
		pw.Close()
	}()

	first, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.ID != 1 {
		t.Errorf("first frame id = %d, want 1", first.ID)
	}

	// Close while the writer may still be mid-stream; the counters are read
	// here concurrently with the read loop incrementing them.
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSourceNextAfterDrain(t *testing.T) {
	s, pw := pipeSource()
	if _, err := pw.Write(jpegBytes(0x01)); err != nil {
		t.Fatalf("write: %v", err)
	}
	pw.Close()

	if _, err := s.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, ErrSourceDrained) {
		t.Fatalf("err = %v, want ErrSourceDrained", err)
	}
}

func TestSplitJPEGTokenizesStream(t *testing.T) {
	var stream bytes.Buffer
	want := [][]byte{
		jpegBytes(0x01, 0x02, 0x03),
		jpegBytes(0xAA),
		jpegBytes(0x10, 0x20, 0x30, 0x40),
	}
	for _, f := range want {
		stream.Write(f)
	}

	sc := bufio.NewScanner(&stream)
	sc.Split(splitJPEG)

	var got [][]byte
	for sc.Scan() {
		got = append(got, append([]byte(nil), sc.Bytes()...))
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("frame %d: got %x, want %x", i, got[i], want[i])
		}
	}
}

func TestSplitJPEGSkipsLeadingGarbage(t *testing.T) {
	frame := jpegBytes(0x55)
	stream := append([]byte{0x00, 0x11, 0x22}, frame...)

	sc := bufio.NewScanner(bytes.NewReader(stream))
	sc.Split(splitJPEG)

	if !sc.Scan() {
		t.Fatalf("expected one frame, got none (err=%v)", sc.Err())
	}
	if !bytes.Equal(sc.Bytes(), frame) {
		t.Errorf("got %x, want %x", sc.Bytes(), frame)
	}
	if sc.Scan() {
		t.Errorf("unexpected extra frame %x", sc.Bytes())
	}
}

func TestSplitJPEGDropsTruncatedTail(t *testing.T) {
	frame := jpegBytes(0x01)
	stream := append(append([]byte(nil), frame...), 0xFF, 0xD8, 0x99) // second frame never closed

	sc := bufio.NewScanner(bytes.NewReader(stream))
	sc.Split(splitJPEG)

	var n int
	for sc.Scan() {
		n++
		if !bytes.Equal(sc.Bytes(), frame) {
			t.Errorf("got %x, want %x", sc.Bytes(), frame)
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d complete frames, want 1", n)
	}
}
