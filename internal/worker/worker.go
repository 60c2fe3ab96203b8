package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/career-mentor/backend/internal/sessions"
	"github.com/career-mentor/backend/pkg/queue"
	"github.com/career-mentor/backend/pkg/storage"
)

// ReportProcessor processes report upload jobs: upload the rendered PDF to
// S3, presign a download URL, update the session record.
type ReportProcessor struct {
	repo   *sessions.Repository
	store  *sessions.Store
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewReportProcessor creates a report upload processor. repo and store are
// each optional; whichever is present gets the artifact reference.
func NewReportProcessor(repo *sessions.Repository, store *sessions.Store, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *ReportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportProcessor{repo: repo, store: store, s3: s3, queue: q, logger: logger}
}

// Process executes one report upload job.
func (p *ReportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReportUpload {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ReportUploadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	key := storage.ReportKey(payload.SessionID.String(), filepath.Base(payload.ReportPath))
	if _, err := p.s3.UploadFile(ctx, p.s3.ReportsBucket(), key, "application/pdf", payload.ReportPath); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	url, err := p.s3.GeneratePresignedDownloadURL(ctx, p.s3.ReportsBucket(), key, p.s3.PresignExpire())
	if err != nil {
		return fmt.Errorf("presign: %w", err)
	}

	if p.repo != nil {
		if err := p.repo.UpdateReportArtifact(ctx, payload.SessionID, key, url); err != nil {
			p.logger.Error("update report artifact failed", zap.Error(err),
				zap.String("session_id", payload.SessionID.String()))
			return fmt.Errorf("update db: %w", err)
		}
	}
	if p.store != nil {
		_ = p.store.Update(payload.SessionID.String(), func(s *sessions.Session) {
			s.ReportURL = url
		})
	}

	p.logger.Info("report upload completed",
		zap.String("session_id", payload.SessionID.String()),
		zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ReportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("report worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

// EnqueueIfConfigured is a helper for the server's completion callback:
// best-effort enqueue that tolerates a missing queue.
func EnqueueIfConfigured(ctx context.Context, q *queue.Queue, sessionID uuid.UUID, reportPath, kind string, logger *zap.Logger) {
	if q == nil || reportPath == "" {
		return
	}
	if err := q.EnqueueReportUpload(ctx, queue.ReportUploadPayload{
		SessionID:  sessionID,
		ReportPath: reportPath,
		Kind:       kind,
	}); err != nil && logger != nil {
		logger.Warn("enqueue report upload", zap.Error(err))
	}
}
