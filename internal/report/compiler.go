// Package report renders interview and monitoring reports as PDF files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/career-mentor/backend/internal/ai"
	"github.com/career-mentor/backend/internal/monitor"
)

const (
	thumbCols   = 3
	thumbWidth  = 55.0
	thumbHeight = 41.0
	thumbGap    = 5.0
)

// Compiler renders PDF artifacts under a reports directory. It satisfies
// monitor.Compiler.
type Compiler struct {
	dir string
	log *zap.Logger
}

// NewCompiler returns a compiler writing into dir.
func NewCompiler(dir string, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{dir: dir, log: logger}
}

// CompileMonitoring renders the behavioral monitoring report: counters,
// coaching narrative, and evidence snapshot grids per category.
func (c *Compiler) CompileMonitoring(sessionID string, snap monitor.LogSnapshot, narrative string) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("reports dir: %w", err)
	}
	name := fmt.Sprintf("Interview_Report_%s_%s.pdf", sessionID, time.Now().Format("20060102_150405"))
	path := filepath.Join(c.dir, name)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Interview Behavior Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Session %s  |  %s", sessionID, time.Now().Format("2 Jan 2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	c.sectionTitle(pdf, "Session Summary")
	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Frames analyzed", fmt.Sprintf("%d", snap.FramesProcessed)},
		{"Duration", fmt.Sprintf("%.0f seconds", snap.DurationSec)},
		{"Eye contact (center / down)", fmt.Sprintf("%d / %d", snap.EyeContact.Center, snap.EyeContact.Down)},
		{"Posture (correct / incorrect)", fmt.Sprintf("%d / %d", snap.Posture.Correct, snap.Posture.Incorrect)},
		{"Hand movements detected", fmt.Sprintf("%d", snap.HandMovements.Detected)},
	}
	for _, r := range rows {
		pdf.CellFormat(80, 7, r[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, r[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	c.sectionTitle(pdf, "Coaching Narrative")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, narrative, "", "L", false)
	pdf.Ln(4)

	c.evidenceSection(pdf, "Eye Contact Evidence", snap.EyeContact.Examples)
	c.evidenceSection(pdf, "Posture Evidence", snap.Posture.Examples)
	c.evidenceSection(pdf, "Hand Movement Evidence", snap.HandMovements.Examples)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write monitoring report: %w", err)
	}
	return path, nil
}

// CompileInterview renders the comprehensive interview report: final
// assessment, per-question analysis, and recommendations.
func (c *Compiler) CompileInterview(sessionID string, questions, answers []string, evaluations []*ai.Evaluation, assessment *ai.FinalAssessment) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("reports dir: %w", err)
	}
	name := fmt.Sprintf("comprehensive_interview_report_%s.pdf", time.Now().Format("20060102_150405"))
	path := filepath.Join(c.dir, name)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, "Comprehensive Interview Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Session %s  |  %s", sessionID, time.Now().Format("2 Jan 2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	if assessment != nil {
		c.sectionTitle(pdf, fmt.Sprintf("Overall Score: %d/100", assessment.OverallScore))
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, assessment.Summary, "", "L", false)
		pdf.Ln(3)
		c.bulletList(pdf, "Strengths", assessment.Strengths)
		c.bulletList(pdf, "Development Areas", assessment.Development)
		c.bulletList(pdf, "Recommendations", assessment.Recommendations)
	}

	for i, q := range questions {
		pdf.AddPage()
		c.sectionTitle(pdf, fmt.Sprintf("Question %d", i+1))
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, q, "", "L", false)
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, "Candidate answer:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		if answer == "" {
			answer = "(no answer recorded)"
		}
		pdf.MultiCell(0, 5, answer, "", "L", false)
		pdf.Ln(3)

		if i < len(evaluations) && evaluations[i] != nil {
			ev := evaluations[i]
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 7, fmt.Sprintf("Score: %d/100", ev.OverallScore), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, ev.DetailedFeedback, "", "L", false)
			pdf.Ln(2)
			c.bulletList(pdf, "Strengths", ev.Strengths)
			c.bulletList(pdf, "Weaknesses", ev.Weaknesses)
			c.bulletList(pdf, "Suggestions", ev.ImprovementSuggestions)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write interview report: %w", err)
	}
	return path, nil
}

func (c *Compiler) sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(180, 180, 180)
	x, y := pdf.GetXY()
	pdf.Line(x, y, x+190, y)
	pdf.Ln(2)
}

func (c *Compiler) bulletList(pdf *fpdf.Fpdf, title string, items []string) {
	if len(items) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.MultiCell(0, 5, "- "+item, "", "L", false)
	}
	pdf.Ln(2)
}

// evidenceSection lays the snapshots out in a fixed-width grid. Missing or
// unreadable files are skipped, never fatal.
func (c *Compiler) evidenceSection(pdf *fpdf.Fpdf, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	c.sectionTitle(pdf, title)
	col := 0
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			c.log.Warn("evidence missing", zap.String("path", p))
			continue
		}
		x := pdf.GetX() + float64(col)*(thumbWidth+thumbGap)
		y := pdf.GetY()
		if y+thumbHeight > 270 {
			pdf.AddPage()
			y = pdf.GetY()
		}
		pdf.ImageOptions(p, x, y, thumbWidth, thumbHeight, false,
			fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}, 0, "")
		col++
		if col == thumbCols {
			col = 0
			pdf.SetY(y + thumbHeight + thumbGap)
		}
	}
	if col != 0 {
		pdf.SetY(pdf.GetY() + thumbHeight + thumbGap)
	}
	pdf.Ln(2)
}
