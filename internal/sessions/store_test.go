package sessions

import (
	"errors"
	"testing"
	"time"
)

func TestStorePutGet(t *testing.T) {
	s := NewStore(time.Minute)
	s.Put(&Session{ID: "a", Questions: []string{"q1"}})

	got, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0] != "q1" {
		t.Errorf("questions = %v", got.Questions)
	}

	if _, err := s.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	s.Put(&Session{ID: "a"})

	time.Sleep(30 * time.Millisecond)
	if _, err := s.Get("a"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired session err = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreGetRefreshesIdleTimer(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	s.Put(&Session{ID: "a"})

	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		if _, err := s.Get("a"); err != nil {
			t.Fatalf("access %d: %v", i, err)
		}
	}
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore(time.Minute)
	s.Put(&Session{ID: "a"})

	err := s.Update("a", func(sess *Session) {
		sess.Answers = append(sess.Answers, Answer{Question: "q", Text: "ans"})
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get("a")
	if len(got.Answers) != 1 {
		t.Errorf("answers = %d, want 1", len(got.Answers))
	}

	if err := s.Update("missing", func(*Session) {}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreGetReturnsIsolatedCopy(t *testing.T) {
	s := NewStore(time.Minute)
	s.Put(&Session{ID: "a", Questions: []string{"q1"}})

	before, _ := s.Get("a")
	err := s.Update("a", func(sess *Session) {
		sess.Answers = append(sess.Answers, Answer{Question: "q1", Text: "ans"})
		sess.Questions[0] = "changed"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(before.Answers) != 0 {
		t.Errorf("earlier copy grew answers: %d", len(before.Answers))
	}
	if before.Questions[0] != "q1" {
		t.Errorf("earlier copy questions mutated: %v", before.Questions)
	}

	before.ReportPath = "scribble"
	after, _ := s.Get("a")
	if after.ReportPath != "" {
		t.Errorf("mutating a copy leaked into the store: %q", after.ReportPath)
	}
}

func TestStoreConcurrentReadWrite(t *testing.T) {
	s := NewStore(time.Minute)
	s.Put(&Session{ID: "a"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = s.Update("a", func(sess *Session) {
				sess.Answers = append(sess.Answers, Answer{Question: "q", Text: "ans"})
			})
		}
	}()
	for i := 0; i < 200; i++ {
		sess, err := s.Get("a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		for _, a := range sess.Answers {
			if a.Question != "q" {
				t.Fatalf("answer = %+v", a)
			}
		}
	}
	<-done

	sess, _ := s.Get("a")
	if len(sess.Answers) != 200 {
		t.Errorf("answers = %d, want 200", len(sess.Answers))
	}
}

func TestStoreSweep(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	s.Put(&Session{ID: "a"})
	s.Put(&Session{ID: "b"})
	time.Sleep(30 * time.Millisecond)
	s.Put(&Session{ID: "c"})

	if n := s.Sweep(); n != 2 {
		t.Errorf("swept %d, want 2", n)
	}
	if _, err := s.Get("c"); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
}
