package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/career-mentor/backend/internal/monitor"
)

const narrativePrompt = `You are an interview coach. A candidate was monitored during a mock interview and the behavioral observations below were collected. Write a short coaching narrative with three parts: an executive summary, key observations, and actionable tips. Plain text, no markdown.

Observations:
- Frames analyzed: %d over %.0f seconds
- Eye contact: center %d, down %d
- Posture: correct %d, incorrect %d
- Hand movements detected: %d`

// Narrator turns a sealed monitoring log into coaching prose via the model.
// It satisfies monitor.Narrator; the runner applies the static fallback when
// this errors.
type Narrator struct {
	gen Generator
	log *zap.Logger
}

// NewNarrator returns a model-backed narrator.
func NewNarrator(gen Generator, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{gen: gen, log: logger}
}

// Narrate produces the coaching narrative for the sealed log.
func (n *Narrator) Narrate(ctx context.Context, snap monitor.LogSnapshot) (string, error) {
	if n.gen == nil {
		return "", errors.New("no generator configured")
	}
	prompt := fmt.Sprintf(narrativePrompt,
		snap.FramesProcessed, snap.DurationSec,
		snap.EyeContact.Center, snap.EyeContact.Down,
		snap.Posture.Correct, snap.Posture.Incorrect,
		snap.HandMovements.Detected)

	out, err := n.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
