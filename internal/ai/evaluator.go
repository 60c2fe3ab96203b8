package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Evaluation is the structured verdict for one answer.
type Evaluation struct {
	OverallScore           int            `json:"overall_score"`
	CategoryScores         map[string]int `json:"category_scores,omitempty"`
	Strengths              []string       `json:"strengths"`
	Weaknesses             []string       `json:"weaknesses"`
	DetailedFeedback       string         `json:"detailed_feedback"`
	DetailedExplanation    string         `json:"detailed_explanation,omitempty"`
	ImprovementSuggestions []string       `json:"improvement_suggestions,omitempty"`
	InterviewerNotes       string         `json:"interviewer_notes,omitempty"`
	FollowUpQuestions      []string       `json:"follow_up_questions,omitempty"`
}

// Evaluator scores one answer to one question. Implementations either
// produce an evaluation or an error; chains compose them so a result always
// comes out.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) (*Evaluation, error)
}

const answerPrompt = `You are a strict but fair technical interviewer evaluating a candidate's answer.

Question: %s

Answer: %s

Respond with ONLY a JSON object with these fields: overall_score (0-100 integer), category_scores (object of category name to 0-100 integer), strengths (array of strings), weaknesses (array of strings), detailed_feedback (string), detailed_explanation (string), improvement_suggestions (array of strings), interviewer_notes (string), follow_up_questions (array of strings).`

const codePrompt = `You are a senior engineer reviewing a candidate's code submission for an interview problem.

Problem: %s

Submitted code:
%s

Judge correctness, complexity, readability, and edge-case handling. Respond with ONLY a JSON object with these fields: overall_score (0-100 integer), category_scores (object of category name to 0-100 integer), strengths (array of strings), weaknesses (array of strings), detailed_feedback (string), detailed_explanation (string), improvement_suggestions (array of strings), interviewer_notes (string), follow_up_questions (array of strings).`

// ModelEvaluator asks the model for a JSON evaluation and parses it
// strictly. Parse failures are errors; the chain supplies salvage.
type ModelEvaluator struct {
	gen    Generator
	prompt string
	log    *zap.Logger
}

// NewModelEvaluator evaluates free-text answers.
func NewModelEvaluator(gen Generator, logger *zap.Logger) *ModelEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelEvaluator{gen: gen, prompt: answerPrompt, log: logger}
}

// NewCodeEvaluator evaluates code submissions.
func NewCodeEvaluator(gen Generator, logger *zap.Logger) *ModelEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelEvaluator{gen: gen, prompt: codePrompt, log: logger}
}

func (m *ModelEvaluator) Evaluate(ctx context.Context, question, answer string) (*Evaluation, error) {
	if m.gen == nil {
		return nil, errors.New("no generator configured")
	}
	raw, err := m.gen.GenerateText(ctx, fmt.Sprintf(m.prompt, question, answer))
	if err != nil {
		return nil, err
	}
	var ev Evaluation
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &ev); err != nil {
		return nil, fmt.Errorf("parse evaluation: %w (raw: %.120s)", err, raw)
	}
	return &ev, nil
}

var scorePattern = regexp.MustCompile(`"overall_score"\s*:\s*(\d+)`)

// SalvageEvaluator re-runs the model prompt and scrapes just the score out
// of malformed output. Used when strict parsing failed.
type SalvageEvaluator struct {
	gen    Generator
	prompt string
	log    *zap.Logger
}

// NewSalvageEvaluator returns a score-scraping evaluator for free-text
// answers.
func NewSalvageEvaluator(gen Generator, logger *zap.Logger) *SalvageEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalvageEvaluator{gen: gen, prompt: answerPrompt, log: logger}
}

func (s *SalvageEvaluator) Evaluate(ctx context.Context, question, answer string) (*Evaluation, error) {
	if s.gen == nil {
		return nil, errors.New("no generator configured")
	}
	raw, err := s.gen.GenerateText(ctx, fmt.Sprintf(s.prompt, question, answer))
	if err != nil {
		return nil, err
	}
	score := 60
	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			score = n
		}
	}
	feedback := strings.TrimSpace(raw)
	if len(feedback) > 1000 {
		feedback = feedback[:1000]
	}
	return &Evaluation{
		OverallScore:     score,
		Strengths:        []string{},
		Weaknesses:       []string{},
		DetailedFeedback: feedback,
	}, nil
}

// StaticEvaluator is the terminal strategy: a fixed evaluation that never
// fails.
type StaticEvaluator struct{}

func (StaticEvaluator) Evaluate(ctx context.Context, question, answer string) (*Evaluation, error) {
	return &Evaluation{
		OverallScore:     50,
		Strengths:        []string{},
		Weaknesses:       []string{"No evaluation returned"},
		DetailedFeedback: "Evaluation unavailable.",
	}, nil
}

// Chain tries evaluators in order and returns the first success. With a
// StaticEvaluator last it never returns an error.
type Chain struct {
	evaluators []Evaluator
	log        *zap.Logger
}

// NewAnswerChain builds the standard free-text chain:
// strict model JSON, then score salvage, then the static default.
func NewAnswerChain(gen Generator, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	evs := []Evaluator{}
	if gen != nil {
		evs = append(evs, NewModelEvaluator(gen, logger), NewSalvageEvaluator(gen, logger))
	}
	evs = append(evs, StaticEvaluator{})
	return &Chain{evaluators: evs, log: logger}
}

// NewCodeChain builds the code-submission chain.
func NewCodeChain(gen Generator, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	evs := []Evaluator{}
	if gen != nil {
		evs = append(evs, NewCodeEvaluator(gen, logger))
	}
	evs = append(evs, StaticEvaluator{})
	return &Chain{evaluators: evs, log: logger}
}

func (c *Chain) Evaluate(ctx context.Context, question, answer string) (*Evaluation, error) {
	var lastErr error
	for _, ev := range c.evaluators {
		res, err := ev.Evaluate(ctx, question, answer)
		if err == nil {
			return res, nil
		}
		lastErr = err
		c.log.Debug("evaluator strategy failed", zap.Error(err))
	}
	return nil, lastErr
}
