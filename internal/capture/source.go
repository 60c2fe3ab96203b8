package capture

import (
	"context"
	"errors"
	"time"
)

// ErrSourceDrained is returned by Next when the frame source has no more
// frames to deliver. This is the natural end of a stream, not a failure.
var ErrSourceDrained = errors.New("capture: source drained")

// Frame is one captured color image, JPEG-encoded. Data must not be modified
// after the frame leaves the source.
type Frame struct {
	ID        int
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time
}

// Source delivers frames one at a time. Next blocks until a frame is
// available, the context is cancelled, or the source is drained.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}
