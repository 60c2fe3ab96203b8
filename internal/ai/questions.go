package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FallbackQuestions is served whenever the model is unavailable or returns
// nothing usable.
var FallbackQuestions = []string{
	"Tell me about yourself",
	"Describe a project you built",
	"Explain a technical challenge you solved",
}

const questionCount = 5

const questionPrompt = `You are an experienced technical interviewer. Based on the resume below, generate exactly %d interview questions tailored to the candidate's background. Mix behavioral and technical questions. Return them as a numbered list, one question per line, with no extra commentary.

Resume:
%s`

// QuestionGenerator produces resume-tailored interview questions.
type QuestionGenerator struct {
	gen Generator
	log *zap.Logger
}

// NewQuestionGenerator returns a generator; gen may be nil, in which case
// only the fallback list is served.
func NewQuestionGenerator(gen Generator, logger *zap.Logger) *QuestionGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionGenerator{gen: gen, log: logger}
}

// FromResume asks the model for questions grounded in the resume text. Any
// failure degrades to FallbackQuestions; this method never returns an error.
func (q *QuestionGenerator) FromResume(ctx context.Context, resumeText string) []string {
	if q.gen == nil || strings.TrimSpace(resumeText) == "" {
		return append([]string{}, FallbackQuestions...)
	}

	raw, err := q.gen.GenerateText(ctx, fmt.Sprintf(questionPrompt, questionCount, resumeText))
	if err != nil {
		q.log.Warn("question generation", zap.Error(err))
		return append([]string{}, FallbackQuestions...)
	}

	questions := ParseQuestions(raw)
	if len(questions) == 0 {
		q.log.Warn("question generation returned no parseable questions")
		return append([]string{}, FallbackQuestions...)
	}
	if len(questions) > questionCount {
		questions = questions[:questionCount]
	}
	return questions
}

// ParseQuestions pulls questions out of a numbered-list response. Lines that
// do not look like list entries are ignored.
func ParseQuestions(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, "0123456789")
		if trimmed == line {
			continue // not a numbered entry
		}
		trimmed = strings.TrimLeft(trimmed, ".) ")
		trimmed = strings.TrimSpace(strings.Trim(trimmed, "*"))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
