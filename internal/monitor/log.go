package monitor

import (
	"errors"
	"sync"
	"time"

	"github.com/career-mentor/backend/internal/vision"
)

// ErrSealed is returned by mutating SessionLog methods after Seal.
var ErrSealed = errors.New("monitor: session log sealed")

// EyeContact counts gaze classifications per direction. Left and right stay
// zero with the current detector but are part of the report contract.
type EyeContact struct {
	Center   int      `json:"center"`
	Left     int      `json:"left"`
	Right    int      `json:"right"`
	Down     int      `json:"down"`
	Examples []string `json:"examples"`
}

// Posture counts posture classifications.
type Posture struct {
	Correct   int      `json:"correct"`
	Incorrect int      `json:"incorrect"`
	Examples  []string `json:"examples"`
}

// HandMovements counts detected hand-movement events.
type HandMovements struct {
	Detected int      `json:"detected"`
	Examples []string `json:"examples"`
}

// ObjectsDetected is reserved for a gadget detector; always empty today but
// kept in the serialized log so report consumers have a stable shape.
type ObjectsDetected struct {
	Gadgets  int      `json:"gadgets"`
	Examples []string `json:"examples"`
}

// LogSnapshot is an immutable copy of the accumulated session log, safe to
// serialize and hand across goroutines. EndedAt is null until Seal.
type LogSnapshot struct {
	SessionID       string          `json:"session_id"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         *time.Time      `json:"ended_at"`
	EyeContact      EyeContact      `json:"eye_contact"`
	Posture         Posture         `json:"posture"`
	HandMovements   HandMovements   `json:"hand_movements"`
	ObjectsDetected ObjectsDetected `json:"objects_detected"`
	FramesProcessed int             `json:"frames_processed"`
	DurationSec     float64         `json:"duration_sec"`
	Sealed          bool            `json:"-"`
}

// SessionLog accumulates behavioral observations for one monitoring run.
// All methods are safe for concurrent use. After Seal the log is frozen:
// mutations return ErrSealed and reads keep serving the sealed state.
type SessionLog struct {
	mu         sync.Mutex
	snap       LogSnapshot
	exampleCap int
}

// NewSessionLog returns an empty log for the session, stamped with the
// current time. exampleCap bounds the evidence references kept per category;
// zero or negative means unbounded.
func NewSessionLog(sessionID string, exampleCap int) *SessionLog {
	return &SessionLog{
		snap: LogSnapshot{
			SessionID:       sessionID,
			StartedAt:       time.Now(),
			EyeContact:      EyeContact{Examples: []string{}},
			Posture:         Posture{Examples: []string{}},
			HandMovements:   HandMovements{Examples: []string{}},
			ObjectsDetected: ObjectsDetected{Examples: []string{}},
		},
		exampleCap: exampleCap,
	}
}

// RecordGaze counts one gaze classification, with an optional evidence
// reference for down gazes.
func (l *SessionLog) RecordGaze(dir vision.GazeDirection, evidence string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Sealed {
		return ErrSealed
	}
	switch dir {
	case vision.GazeCenter:
		l.snap.EyeContact.Center++
	case vision.GazeLeft:
		l.snap.EyeContact.Left++
	case vision.GazeRight:
		l.snap.EyeContact.Right++
	case vision.GazeDown:
		l.snap.EyeContact.Down++
	}
	l.snap.EyeContact.Examples = l.appendExample(l.snap.EyeContact.Examples, evidence)
	return nil
}

// RecordPosture counts one posture classification, with an optional evidence
// reference for incorrect posture.
func (l *SessionLog) RecordPosture(correct bool, evidence string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Sealed {
		return ErrSealed
	}
	if correct {
		l.snap.Posture.Correct++
	} else {
		l.snap.Posture.Incorrect++
	}
	l.snap.Posture.Examples = l.appendExample(l.snap.Posture.Examples, evidence)
	return nil
}

// RecordHandMove counts one hand-movement event.
func (l *SessionLog) RecordHandMove(evidence string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Sealed {
		return ErrSealed
	}
	l.snap.HandMovements.Detected++
	l.snap.HandMovements.Examples = l.appendExample(l.snap.HandMovements.Examples, evidence)
	return nil
}

// RecordFrame counts one acquired frame. Called once per frame regardless of
// what the classifiers found.
func (l *SessionLog) RecordFrame() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Sealed {
		return ErrSealed
	}
	l.snap.FramesProcessed++
	return nil
}

// Seal freezes the log with the run's elapsed wall-clock duration. The
// second and later calls return ErrSealed and change nothing.
func (l *SessionLog) Seal(durationSec float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Sealed {
		return ErrSealed
	}
	now := time.Now()
	l.snap.EndedAt = &now
	l.snap.DurationSec = durationSec
	l.snap.Sealed = true
	return nil
}

// Snapshot returns a deep copy of the current state.
func (l *SessionLog) Snapshot() LogSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.snap
	if l.snap.EndedAt != nil {
		ended := *l.snap.EndedAt
		s.EndedAt = &ended
	}
	s.EyeContact.Examples = append([]string{}, l.snap.EyeContact.Examples...)
	s.Posture.Examples = append([]string{}, l.snap.Posture.Examples...)
	s.HandMovements.Examples = append([]string{}, l.snap.HandMovements.Examples...)
	s.ObjectsDetected.Examples = append([]string{}, l.snap.ObjectsDetected.Examples...)
	return s
}

func (l *SessionLog) appendExample(examples []string, evidence string) []string {
	if evidence == "" {
		return examples
	}
	if l.exampleCap > 0 && len(examples) >= l.exampleCap {
		return examples
	}
	return append(examples, evidence)
}
