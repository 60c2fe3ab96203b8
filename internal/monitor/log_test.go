package monitor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/career-mentor/backend/internal/vision"
)

func TestSessionLogCounters(t *testing.T) {
	l := NewSessionLog("sess1", 0)

	for i := 0; i < 3; i++ {
		if err := l.RecordGaze(vision.GazeCenter, ""); err != nil {
			t.Fatalf("RecordGaze: %v", err)
		}
	}
	if err := l.RecordGaze(vision.GazeDown, "ev1.jpg"); err != nil {
		t.Fatalf("RecordGaze: %v", err)
	}
	if err := l.RecordPosture(false, "ev2.jpg"); err != nil {
		t.Fatalf("RecordPosture: %v", err)
	}
	if err := l.RecordHandMove(""); err != nil {
		t.Fatalf("RecordHandMove: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := l.RecordFrame(); err != nil {
			t.Fatalf("RecordFrame: %v", err)
		}
	}

	s := l.Snapshot()
	if s.EyeContact.Center != 3 || s.EyeContact.Down != 1 {
		t.Errorf("eye contact = %+v", s.EyeContact)
	}
	if s.Posture.Incorrect != 1 || s.Posture.Correct != 0 {
		t.Errorf("posture = %+v", s.Posture)
	}
	if s.HandMovements.Detected != 1 {
		t.Errorf("hand movements = %+v", s.HandMovements)
	}
	if s.FramesProcessed != 5 {
		t.Errorf("frames processed = %d, want 5", s.FramesProcessed)
	}
	if len(s.EyeContact.Examples) != 1 || s.EyeContact.Examples[0] != "ev1.jpg" {
		t.Errorf("gaze examples = %v", s.EyeContact.Examples)
	}
	if len(s.HandMovements.Examples) != 0 {
		t.Errorf("empty evidence must not be appended: %v", s.HandMovements.Examples)
	}
}

func TestSessionLogSealIsExactlyOnce(t *testing.T) {
	l := NewSessionLog("sess1", 0)
	_ = l.RecordFrame()

	if err := l.Seal(12.5); err != nil {
		t.Fatalf("first seal: %v", err)
	}
	if err := l.Seal(99); !errors.Is(err, ErrSealed) {
		t.Fatalf("second seal err = %v, want ErrSealed", err)
	}

	s := l.Snapshot()
	if !s.Sealed {
		t.Error("snapshot should report sealed")
	}
	if s.DurationSec != 12.5 {
		t.Errorf("duration = %v, want first seal's 12.5", s.DurationSec)
	}

	if err := l.RecordFrame(); !errors.Is(err, ErrSealed) {
		t.Errorf("RecordFrame after seal err = %v, want ErrSealed", err)
	}
	if err := l.RecordGaze(vision.GazeDown, "x"); !errors.Is(err, ErrSealed) {
		t.Errorf("RecordGaze after seal err = %v, want ErrSealed", err)
	}
	if got := l.Snapshot().FramesProcessed; got != 1 {
		t.Errorf("frames after sealed mutation attempts = %d, want 1", got)
	}
}

func TestSessionLogExampleCap(t *testing.T) {
	l := NewSessionLog("sess1", 2)
	for i := 0; i < 5; i++ {
		_ = l.RecordPosture(false, "ev.jpg")
	}
	s := l.Snapshot()
	if s.Posture.Incorrect != 5 {
		t.Errorf("incorrect = %d, want 5 (counting is never capped)", s.Posture.Incorrect)
	}
	if len(s.Posture.Examples) != 2 {
		t.Errorf("examples = %d, want cap of 2", len(s.Posture.Examples))
	}
}

func TestSessionLogLifecycleFields(t *testing.T) {
	l := NewSessionLog("sess1", 0)
	_ = l.RecordFrame()

	before := l.Snapshot()
	if before.SessionID != "sess1" {
		t.Errorf("session id = %q, want sess1", before.SessionID)
	}
	if before.StartedAt.IsZero() {
		t.Error("started_at must be stamped at construction")
	}
	if before.EndedAt != nil {
		t.Errorf("ended_at before seal = %v, want nil", before.EndedAt)
	}

	if err := l.Seal(3.0); err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed := l.Snapshot()
	if sealed.EndedAt == nil {
		t.Fatal("ended_at must be set by seal")
	}
	if sealed.EndedAt.Before(sealed.StartedAt) {
		t.Errorf("ended_at %v before started_at %v", sealed.EndedAt, sealed.StartedAt)
	}

	raw, err := json.Marshal(sealed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"session_id", "started_at", "ended_at"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("serialized log missing %q", k)
		}
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	l := NewSessionLog("sess1", 0)
	_ = l.RecordGaze(vision.GazeDown, "a.jpg")

	s := l.Snapshot()
	s.EyeContact.Examples[0] = "mutated"
	s.EyeContact.Down = 99

	s2 := l.Snapshot()
	if s2.EyeContact.Examples[0] != "a.jpg" || s2.EyeContact.Down != 1 {
		t.Errorf("snapshot mutation leaked into the log: %+v", s2.EyeContact)
	}
}
