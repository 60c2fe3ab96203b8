package vision

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrExtractorClosed is returned by Extract after Close has been called.
var ErrExtractorClosed = errors.New("vision: extractor closed")

// Options selects which modalities the helper process runs. Disabled
// modalities are never requested and come back nil in every Result.
type Options struct {
	Face     bool
	Pose     bool
	Hands    bool
	MaxHands int
}

type request struct {
	ID       int    `json:"id"`
	Image    string `json:"image"` // base64 JPEG
	Face     bool   `json:"face"`
	Pose     bool   `json:"pose"`
	Hands    bool   `json:"hands"`
	MaxHands int    `json:"max_hands,omitempty"`
}

type response struct {
	ID    int             `json:"id"`
	Error string          `json:"error,omitempty"`
	Face  *FaceLandmarks  `json:"face,omitempty"`
	Pose  *PoseLandmarks  `json:"pose,omitempty"`
	Hands []HandLandmarks `json:"hands,omitempty"`
}

// ProcessExtractor speaks to a long-lived landmark helper over stdin/stdout,
// one JSON object per line in each direction. Requests are serialized: the
// helper handles a single frame at a time.
type ProcessExtractor struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	opts   Options
	log    *zap.Logger

	mu     sync.Mutex
	nextID int
	closed bool
}

// NewProcessExtractor starts the helper command and waits for its ready
// line. The command is run through the shell-less exec path; arguments are
// split on whitespace.
func NewProcessExtractor(command string, opts Options, logger *zap.Logger) (*ProcessExtractor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, errors.New("vision: empty detector command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start detector: %w", err)
	}

	go logStderr(stderr, logger)

	e := &ProcessExtractor{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReaderSize(stdout, 1<<20),
		opts:   opts,
		log:    logger,
	}

	// The helper prints a single "ready" line once its models are loaded.
	line, err := e.stdout.ReadString('\n')
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("detector handshake: %w", err)
	}
	logger.Info("landmark detector ready", zap.String("banner", strings.TrimSpace(line)))
	return e, nil
}

// Extract sends one frame to the helper and decodes its detections. An error
// from the helper is returned to the caller; the process stays alive.
func (e *ProcessExtractor) Extract(ctx context.Context, jpeg []byte) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrExtractorClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.nextID++
	req := request{
		ID:       e.nextID,
		Image:    base64.StdEncoding.EncodeToString(jpeg),
		Face:     e.opts.Face,
		Pose:     e.opts.Pose,
		Hands:    e.opts.Hands,
		MaxHands: e.opts.MaxHands,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := e.stdin.Write(payload); err != nil {
		return nil, fmt.Errorf("write to detector: %w", err)
	}

	line, err := e.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read from detector: %w", err)
	}
	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("detector response id %d, want %d", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detector: %s", resp.Error)
	}
	return &Result{Face: resp.Face, Pose: resp.Pose, Hands: resp.Hands}, nil
}

// Close shuts the helper down: stdin is closed so it exits on EOF, with a
// kill after a grace period. Idempotent.
func (e *ProcessExtractor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	_ = e.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		e.log.Warn("landmark detector did not exit, killing")
		_ = e.cmd.Process.Kill()
		<-done
	}
	return nil
}

func logStderr(r io.Reader, logger *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		logger.Debug("detector stderr", zap.String("line", sc.Text()))
	}
}
