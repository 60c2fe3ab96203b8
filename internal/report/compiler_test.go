package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/career-mentor/backend/internal/ai"
	"github.com/career-mentor/backend/internal/monitor"
)

func TestCompileMonitoringWritesPDF(t *testing.T) {
	dir := t.TempDir()
	c := NewCompiler(dir, nil)

	snap := monitor.LogSnapshot{
		FramesProcessed: 120,
		DurationSec:     30,
	}
	snap.EyeContact.Center = 100
	snap.EyeContact.Down = 20
	snap.Posture.Correct = 90
	snap.Posture.Incorrect = 30
	snap.HandMovements.Detected = 7
	// Reference a file that does not exist: the section must skip it.
	snap.Posture.Examples = []string{filepath.Join(dir, "missing.jpg")}

	path, err := c.CompileMonitoring("sess1", snap, monitor.FallbackNarrative)
	if err != nil {
		t.Fatalf("CompileMonitoring: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "Interview_Report_sess1_") || !strings.HasSuffix(name, ".pdf") {
		t.Errorf("unexpected report name %q", name)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat report: %v", err)
	}
	if info.Size() == 0 {
		t.Error("report file is empty")
	}
}

func TestCompileInterviewWritesPDF(t *testing.T) {
	dir := t.TempDir()
	c := NewCompiler(dir, nil)

	questions := []string{"Tell me about yourself", "Describe a project you built"}
	answers := []string{"I am a backend engineer.", ""}
	evaluations := []*ai.Evaluation{
		{OverallScore: 80, Strengths: []string{"clear"}, DetailedFeedback: "Good structure."},
		nil,
	}
	assessment := &ai.FinalAssessment{
		OverallScore: 80,
		Summary:      "Solid performance.",
		Strengths:    []string{"communication"},
	}

	path, err := c.CompileInterview("sess2", questions, answers, evaluations, assessment)
	if err != nil {
		t.Fatalf("CompileInterview: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "comprehensive_interview_report_") {
		t.Errorf("unexpected report name %q", filepath.Base(path))
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("report missing or empty: %v", err)
	}
}
