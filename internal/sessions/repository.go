package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/career-mentor/backend/internal/ai"
)

// SessionRow is one durable interview session record.
type SessionRow struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	ResumePath string     `json:"resume_path,omitempty"`
	Status     string     `json:"status"`
	ReportKey  string     `json:"report_key,omitempty"`
	ReportURL  string     `json:"report_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Repository persists interview sessions, answers, and monitoring runs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateSession inserts a new session row with its generated questions.
func (r *Repository) CreateSession(ctx context.Context, id uuid.UUID, userID *uuid.UUID, resumePath string, questions []string) error {
	qs, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO interview_sessions (id, user_id, resume_path, questions, status, created_at)
		 VALUES ($1, $2, $3, $4, 'active', NOW())`,
		id, userID, resumePath, qs)
	return err
}

// AddAnswer inserts one answered question with its evaluation.
func (r *Repository) AddAnswer(ctx context.Context, sessionID uuid.UUID, question, answer, kind string, evaluation *ai.Evaluation) error {
	ev, err := json.Marshal(evaluation)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO interview_answers (id, session_id, question, answer, kind, evaluation, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		uuid.New(), sessionID, question, answer, kind, ev)
	return err
}

// SaveMonitorRun upserts the monitoring outcome for a session: the sealed
// log (as JSON), terminal status, and the local report path if any.
func (r *Repository) SaveMonitorRun(ctx context.Context, sessionID uuid.UUID, status string, sealedLog interface{}, reportPath string) error {
	logJSON, err := json.Marshal(sealedLog)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO monitor_runs (session_id, status, session_log, report_path, finished_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (session_id) DO UPDATE
		 SET status = EXCLUDED.status, session_log = EXCLUDED.session_log,
		     report_path = EXCLUDED.report_path, finished_at = NOW()`,
		sessionID, status, logJSON, reportPath)
	return err
}

// UpdateReportArtifact records where the uploaded report lives.
func (r *Repository) UpdateReportArtifact(ctx context.Context, sessionID uuid.UUID, key, url string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE interview_sessions SET report_key = $2, report_url = $3 WHERE id = $1`,
		sessionID, key, url)
	return err
}

// GetByID returns one session row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*SessionRow, error) {
	var row SessionRow
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, COALESCE(resume_path, ''), status, COALESCE(report_key, ''), COALESCE(report_url, ''), created_at
		 FROM interview_sessions WHERE id = $1`, id).
		Scan(&row.ID, &row.UserID, &row.ResumePath, &row.Status, &row.ReportKey, &row.ReportURL, &row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRecent returns the newest sessions, for the admin listing.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, COALESCE(resume_path, ''), status, COALESCE(report_key, ''), COALESCE(report_url, ''), created_at
		 FROM interview_sessions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []SessionRow
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.ResumePath, &row.Status, &row.ReportKey, &row.ReportURL, &row.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
