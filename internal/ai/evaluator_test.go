package ai

import (
	"context"
	"errors"
	"testing"
)

type fakeGenerator struct {
	outputs []string
	errs    []error
	calls   int
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	var out string
	var err error
	if i < len(f.outputs) {
		out = f.outputs[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return out, err
}

func TestModelEvaluatorParsesJSON(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{
		"```json\n{\"overall_score\": 85, \"strengths\": [\"clear\"], \"weaknesses\": [], \"detailed_feedback\": \"good\"}\n```",
	}}
	ev, err := NewModelEvaluator(gen, nil).Evaluate(context.Background(), "Q", "A")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.OverallScore != 85 {
		t.Errorf("score = %d, want 85", ev.OverallScore)
	}
	if len(ev.Strengths) != 1 || ev.Strengths[0] != "clear" {
		t.Errorf("strengths = %v", ev.Strengths)
	}
}

func TestModelEvaluatorRejectsGarbage(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{"I think the answer was fine overall."}}
	if _, err := NewModelEvaluator(gen, nil).Evaluate(context.Background(), "Q", "A"); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestSalvageEvaluatorScrapesScore(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{
		"Here is my evaluation: {\"overall_score\": 72, broken json...",
	}}
	ev, err := NewSalvageEvaluator(gen, nil).Evaluate(context.Background(), "Q", "A")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.OverallScore != 72 {
		t.Errorf("score = %d, want 72", ev.OverallScore)
	}
}

func TestSalvageEvaluatorDefaultScore(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{"no score anywhere"}}
	ev, err := NewSalvageEvaluator(gen, nil).Evaluate(context.Background(), "Q", "A")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.OverallScore != 60 {
		t.Errorf("score = %d, want default 60", ev.OverallScore)
	}
}

func TestChainFallsThroughToStatic(t *testing.T) {
	boom := errors.New("model down")
	gen := &fakeGenerator{errs: []error{boom, boom}}
	ev, err := NewAnswerChain(gen, nil).Evaluate(context.Background(), "Q", "A")
	if err != nil {
		t.Fatalf("chain must never fail with the static terminal: %v", err)
	}
	if ev.OverallScore != 50 {
		t.Errorf("score = %d, want static default 50", ev.OverallScore)
	}
	if len(ev.Weaknesses) != 1 || ev.Weaknesses[0] != "No evaluation returned" {
		t.Errorf("weaknesses = %v", ev.Weaknesses)
	}
}

func TestChainWithoutGenerator(t *testing.T) {
	ev, err := NewAnswerChain(nil, nil).Evaluate(context.Background(), "Q", "A")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.OverallScore != 50 {
		t.Errorf("score = %d, want 50", ev.OverallScore)
	}
}

func TestChainPrefersStrictParse(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{
		"{\"overall_score\": 91, \"strengths\": [], \"weaknesses\": [], \"detailed_feedback\": \"excellent\"}",
	}}
	ev, err := NewAnswerChain(gen, nil).Evaluate(context.Background(), "Q", "A")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.OverallScore != 91 {
		t.Errorf("score = %d, want 91", ev.OverallScore)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"{\"a\":1}", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
