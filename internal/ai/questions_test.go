package ai

import (
	"context"
	"errors"
	"testing"
)

func TestParseQuestionsNumberedList(t *testing.T) {
	raw := `Here are the questions:

1. Tell me about your experience with Go.
2) How do you approach debugging a production incident?
3. **Describe your largest system design.**

Good luck!`
	got := ParseQuestions(raw)
	want := []string{
		"Tell me about your experience with Go.",
		"How do you approach debugging a production incident?",
		"Describe your largest system design.",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d questions %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("question %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFromResumeFallbackOnError(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("quota exceeded")}}
	q := NewQuestionGenerator(gen, nil)
	got := q.FromResume(context.Background(), "resume text")
	if len(got) != len(FallbackQuestions) {
		t.Fatalf("got %v, want fallback", got)
	}
	for i := range FallbackQuestions {
		if got[i] != FallbackQuestions[i] {
			t.Errorf("question %d = %q, want %q", i, got[i], FallbackQuestions[i])
		}
	}
}

func TestFromResumeFallbackOnUnparseableOutput(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{"I cannot help with that."}}
	q := NewQuestionGenerator(gen, nil)
	got := q.FromResume(context.Background(), "resume text")
	if len(got) != 3 || got[0] != "Tell me about yourself" {
		t.Errorf("got %v, want the static fallback list", got)
	}
}

func TestFromResumeCapsAtFive(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{
		"1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g",
	}}
	q := NewQuestionGenerator(gen, nil)
	if got := q.FromResume(context.Background(), "resume"); len(got) != 5 {
		t.Errorf("got %d questions, want 5", len(got))
	}
}

func TestFromResumeNilGenerator(t *testing.T) {
	q := NewQuestionGenerator(nil, nil)
	got := q.FromResume(context.Background(), "resume")
	if len(got) != 3 {
		t.Errorf("got %v, want the 3 fallback questions", got)
	}
}
