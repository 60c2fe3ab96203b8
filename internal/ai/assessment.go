package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FinalAssessment is the overall interview verdict across all answers.
type FinalAssessment struct {
	OverallScore    int      `json:"overall_score"`
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Development     []string `json:"development_areas"`
	Recommendations []string `json:"recommendations"`
}

const assessmentPrompt = `You are the lead interviewer writing a final assessment after a mock interview. The per-question scores were: %s (average %d). Write a concise overall summary, then list the candidate's main strengths, development areas, and concrete recommendations. Plain text.`

// Assessor compiles the final assessment. Falls back to a score-derived
// summary when the model is unavailable.
type Assessor struct {
	gen Generator
	log *zap.Logger
}

// NewAssessor returns an assessor; gen may be nil.
func NewAssessor(gen Generator, logger *zap.Logger) *Assessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assessor{gen: gen, log: logger}
}

// Assess derives the final verdict from the per-answer evaluations. Never
// returns an error: model failures degrade to the score-derived fallback.
func (a *Assessor) Assess(ctx context.Context, evaluations []*Evaluation) *FinalAssessment {
	avg := averageScore(evaluations)
	fa := &FinalAssessment{
		OverallScore: avg,
		Summary:      scoreSummary(avg),
	}
	for _, ev := range evaluations {
		fa.Strengths = append(fa.Strengths, ev.Strengths...)
		fa.Development = append(fa.Development, ev.Weaknesses...)
		fa.Recommendations = append(fa.Recommendations, ev.ImprovementSuggestions...)
	}

	if a.gen == nil {
		return fa
	}
	scores := make([]string, 0, len(evaluations))
	for _, ev := range evaluations {
		scores = append(scores, fmt.Sprintf("%d", ev.OverallScore))
	}
	out, err := a.gen.GenerateText(ctx, fmt.Sprintf(assessmentPrompt, strings.Join(scores, ", "), avg))
	if err != nil {
		a.log.Warn("final assessment generation", zap.Error(err))
		return fa
	}
	if s := strings.TrimSpace(out); s != "" {
		fa.Summary = s
	}
	return fa
}

func averageScore(evaluations []*Evaluation) int {
	if len(evaluations) == 0 {
		return 0
	}
	total := 0
	for _, ev := range evaluations {
		total += ev.OverallScore
	}
	return total / len(evaluations)
}

func scoreSummary(avg int) string {
	switch {
	case avg >= 80:
		return "Strong performance across the interview. The candidate answered confidently and with depth."
	case avg >= 60:
		return "Solid performance with room to grow. Several answers would benefit from more structure and detail."
	case avg >= 40:
		return "Mixed performance. The candidate should practice articulating experiences with concrete examples."
	default:
		return "The interview surfaced significant gaps. Focused preparation on fundamentals is recommended."
	}
}
