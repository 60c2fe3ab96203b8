package sessions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/career-mentor/backend/internal/ai"
	"github.com/career-mentor/backend/internal/monitor"
	"github.com/career-mentor/backend/internal/report"
	"github.com/career-mentor/backend/internal/resume"
	"github.com/career-mentor/backend/pkg/response"
)

const maxResumeSize = 10 << 20 // 10 MiB

// Handler exposes the interview session API.
type Handler struct {
	store       *Store
	repo        *Repository
	questionGen *ai.QuestionGenerator
	answerChain *ai.Chain
	codeChain   *ai.Chain
	assessor    *ai.Assessor
	compiler    *report.Compiler
	monitorSvc  *monitor.Service
	uploadsDir  string
	log         *zap.Logger
}

// NewHandler wires the session API. repo may be nil when running without
// postgres; persistence is then skipped.
func NewHandler(
	store *Store,
	repo *Repository,
	questionGen *ai.QuestionGenerator,
	answerChain, codeChain *ai.Chain,
	assessor *ai.Assessor,
	compiler *report.Compiler,
	monitorSvc *monitor.Service,
	uploadsDir string,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:       store,
		repo:        repo,
		questionGen: questionGen,
		answerChain: answerChain,
		codeChain:   codeChain,
		assessor:    assessor,
		compiler:    compiler,
		monitorSvc:  monitorSvc,
		uploadsDir:  uploadsDir,
		log:         logger,
	}
}

// UploadResume handles POST /api/upload-resume. The resume PDF is saved,
// its text extracted, and tailored questions generated. Extraction failures
// degrade to the fallback question list rather than failing the upload.
func (h *Handler) UploadResume(c *gin.Context) {
	file, err := c.FormFile("resume")
	if err != nil {
		response.BadRequest(c, "resume file is required")
		return
	}
	if file.Size > maxResumeSize {
		response.BadRequest(c, "resume exceeds the 10MB limit")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		response.BadRequest(c, "resume must be a PDF")
		return
	}

	sessionID := uuid.New()
	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		h.log.Error("uploads dir", zap.Error(err))
		response.Internal(c, "failed to store resume")
		return
	}
	dst := filepath.Join(h.uploadsDir, fmt.Sprintf("%s_resume.pdf", sessionID))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.log.Error("save resume", zap.Error(err))
		response.Internal(c, "failed to store resume")
		return
	}

	text, err := resume.ExtractText(dst)
	if err != nil {
		h.log.Warn("resume extraction", zap.String("session_id", sessionID.String()), zap.Error(err))
		text = ""
	}

	questions := h.questionGen.FromResume(c.Request.Context(), text)

	sess := &Session{
		ID:         sessionID.String(),
		ResumeText: text,
		ResumePath: dst,
		Questions:  questions,
		CreatedAt:  time.Now(),
	}
	h.store.Put(sess)

	if h.repo != nil {
		if err := h.repo.CreateSession(c.Request.Context(), sessionID, nil, dst, questions); err != nil {
			h.log.Warn("persist session", zap.Error(err))
		}
	}

	response.Created(c, gin.H{
		"session_id": sess.ID,
		"questions":  questions,
	})
}

type submitAnswerRequest struct {
	SessionID     string `json:"session_id" binding:"required"`
	QuestionIndex *int   `json:"question_index" binding:"required"`
	Answer        string `json:"answer" binding:"required"`
	Kind          string `json:"kind"`
}

// SubmitAnswer handles POST /api/submit-answer. The answer is evaluated
// through the strategy chain; an evaluation always comes back.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "session_id, question_index, and answer are required")
		return
	}
	sess, err := h.store.Get(req.SessionID)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	idx := *req.QuestionIndex
	if idx < 0 || idx >= len(sess.Questions) {
		response.BadRequest(c, "question_index out of range")
		return
	}
	question := sess.Questions[idx]

	kind := req.Kind
	if kind != "code" {
		kind = "text"
	}
	chain := h.answerChain
	if kind == "code" {
		chain = h.codeChain
	}
	evaluation, err := chain.Evaluate(c.Request.Context(), question, req.Answer)
	if err != nil {
		h.log.Error("evaluation chain", zap.Error(err))
		response.Internal(c, "evaluation failed")
		return
	}

	answer := Answer{
		Question:   question,
		Text:       req.Answer,
		Kind:       kind,
		Evaluation: evaluation,
		AnsweredAt: time.Now(),
	}
	if err := h.store.Update(req.SessionID, func(s *Session) {
		s.Answers = append(s.Answers, answer)
	}); err != nil {
		response.NotFound(c, "session not found")
		return
	}

	if h.repo != nil {
		if sid, perr := uuid.Parse(req.SessionID); perr == nil {
			if err := h.repo.AddAnswer(c.Request.Context(), sid, question, req.Answer, kind, evaluation); err != nil {
				h.log.Warn("persist answer", zap.Error(err))
			}
		}
	}

	response.OK(c, gin.H{"evaluation": evaluation})
}

type startMonitoringRequest struct {
	SessionID       string `json:"session_id" binding:"required"`
	DurationSeconds int    `json:"duration_seconds"`
}

// StartMonitoring handles POST /api/start-monitoring. Returns 202 when the
// run launches, 409 when one is already live for the session.
func (h *Handler) StartMonitoring(c *gin.Context) {
	var req startMonitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "session_id is required")
		return
	}
	if _, err := h.store.Get(req.SessionID); err != nil {
		response.NotFound(c, "session not found")
		return
	}
	duration := time.Duration(req.DurationSeconds) * time.Second
	if duration <= 0 {
		duration = 60 * time.Second
	}

	if err := h.monitorSvc.Launch(c.Request.Context(), req.SessionID, duration); err != nil {
		if errors.Is(err, monitor.ErrMonitorActive) {
			response.Conflict(c, "monitoring already running for this session")
			return
		}
		h.log.Error("launch monitoring", zap.Error(err))
		response.Internal(c, "failed to start monitoring")
		return
	}
	response.Accepted(c, gin.H{
		"session_id":       req.SessionID,
		"status":           string(monitor.StateStarting),
		"duration_seconds": int(duration.Seconds()),
	})
}

// MonitoringStatus handles GET /api/monitoring/:id.
func (h *Handler) MonitoringStatus(c *gin.Context) {
	sessionID := c.Param("id")
	status, err := h.monitorSvc.Status(sessionID)
	if err != nil {
		response.NotFound(c, "no monitoring run for session")
		return
	}
	body := gin.H{
		"session_id":  sessionID,
		"status":      string(status.State),
		"session_log": status.Log,
	}
	if status.ReportPath != "" {
		body["report_path"] = status.ReportPath
	}
	if status.Err != nil {
		body["error"] = status.Err.Error()
	}
	response.OK(c, body)
}

type generateReportRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// GenerateReport handles POST /api/generate-report: compiles the
// comprehensive interview report from the recorded answers.
func (h *Handler) GenerateReport(c *gin.Context) {
	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "session_id is required")
		return
	}
	sess, err := h.store.Get(req.SessionID)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}

	answers := make([]string, 0, len(sess.Answers))
	evaluations := make([]*ai.Evaluation, 0, len(sess.Answers))
	questions := make([]string, 0, len(sess.Answers))
	for _, a := range sess.Answers {
		questions = append(questions, a.Question)
		answers = append(answers, a.Text)
		evaluations = append(evaluations, a.Evaluation)
	}
	assessment := h.assessor.Assess(c.Request.Context(), evaluations)

	path, err := h.compiler.CompileInterview(sess.ID, questions, answers, evaluations, assessment)
	if err != nil {
		h.log.Error("compile interview report", zap.Error(err))
		response.Internal(c, "failed to generate report")
		return
	}
	_ = h.store.Update(sess.ID, func(s *Session) { s.ReportPath = path })

	response.OK(c, gin.H{
		"session_id": sess.ID,
		"report":     filepath.Base(path),
		"assessment": assessment,
	})
}

// DownloadReport handles GET /api/download-report/:id. Prefers the uploaded
// artifact URL; falls back to streaming the local file.
func (h *Handler) DownloadReport(c *gin.Context) {
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	if sess.ReportURL != "" {
		response.OK(c, gin.H{"url": sess.ReportURL})
		return
	}
	if sess.ReportPath == "" {
		response.NotFound(c, "no report generated for session")
		return
	}
	if _, err := os.Stat(sess.ReportPath); err != nil {
		response.NotFound(c, "report file missing")
		return
	}
	c.FileAttachment(sess.ReportPath, filepath.Base(sess.ReportPath))
}

// ListSessions handles GET /api/sessions (admin): recent durable rows.
func (h *Handler) ListSessions(c *gin.Context) {
	if h.repo == nil {
		response.ServiceUnavailable(c, "session history requires a database")
		return
	}
	list, err := h.repo.ListRecent(c.Request.Context(), 50)
	if err != nil {
		h.log.Error("list sessions", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	response.OK(c, gin.H{"sessions": list})
}

// Health handles GET /api/healthz.
func (h *Handler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}
