package repository

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/superio/interview-server-go/internal/database"
	"github.com/superio/interview-server-go/internal/model"
)

const interviewColumns = `id, application_id, candidate_id, recruiter_id, job_id, scheduled_at,
	session_link, external_event_id, status, evaluation, evaluated_at, created_at, updated_at`

const summaryColumns = `i.id, i.application_id, i.candidate_id, i.recruiter_id, i.job_id, i.scheduled_at,
	i.session_link, i.external_event_id, i.status, i.evaluation, i.evaluated_at, i.created_at, i.updated_at,
	j.title AS job_title`

type InterviewRepository interface {
	FindByID(ctx context.Context, id string) (*model.Interview, error)
	ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]model.InterviewSummary, error)
	ListByRecruiter(ctx context.Context, recruiterID string, limit, offset int) ([]model.InterviewSummary, error)
	Create(ctx context.Context, params model.CreateInterviewParams) (*model.Interview, error)
	// SetEvaluationOnce stores the evaluation only if none exists yet.
	// It reports whether a row was updated.
	SetEvaluationOnce(ctx context.Context, id string, evaluation json.RawMessage) (bool, error)
	ReplaceEvaluation(ctx context.Context, id string, evaluation json.RawMessage) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
	MarkExpired(ctx context.Context, scheduledBeforeMs int64) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) InterviewRepository
}

type interviewRepo struct {
	db database.DBTX
}

func NewInterviewRepository(db *sqlx.DB) InterviewRepository {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) WithTx(tx *sqlx.Tx) InterviewRepository {
	return &interviewRepo{db: tx}
}

func (r *interviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.GetContext(ctx, &interview, `
		SELECT `+interviewColumns+` FROM interviews WHERE id = $1
	`, id)
	return HandleNotFound(&interview, err)
}

func (r *interviewRepo) ListByCandidate(ctx context.Context, candidateID string, limit, offset int) ([]model.InterviewSummary, error) {
	interviews := []model.InterviewSummary{}
	err := r.db.SelectContext(ctx, &interviews, `
		SELECT `+summaryColumns+`, c.name AS counterpart_name
		FROM interviews i
		JOIN jobs j ON j.id = i.job_id
		JOIN companies c ON c.id = i.recruiter_id
		WHERE i.candidate_id = $1
		ORDER BY i.scheduled_at ASC
		LIMIT $2 OFFSET $3
	`, candidateID, limit, offset)
	return interviews, err
}

func (r *interviewRepo) ListByRecruiter(ctx context.Context, recruiterID string, limit, offset int) ([]model.InterviewSummary, error) {
	interviews := []model.InterviewSummary{}
	err := r.db.SelectContext(ctx, &interviews, `
		SELECT `+summaryColumns+`, u.name AS counterpart_name
		FROM interviews i
		JOIN jobs j ON j.id = i.job_id
		JOIN users u ON u.id = i.candidate_id
		WHERE i.recruiter_id = $1
		ORDER BY i.scheduled_at ASC
		LIMIT $2 OFFSET $3
	`, recruiterID, limit, offset)
	return interviews, err
}

func (r *interviewRepo) Create(ctx context.Context, params model.CreateInterviewParams) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.GetContext(ctx, &interview, `
		INSERT INTO interviews (
			application_id, candidate_id, recruiter_id, job_id,
			scheduled_at, session_link, external_event_id, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+interviewColumns,
		params.ApplicationID,
		params.CandidateID,
		params.RecruiterID,
		params.JobID,
		params.ScheduledAt,
		params.SessionLink,
		params.ExternalEventID,
		model.InterviewStatusScheduled,
	)
	if err != nil {
		return nil, err
	}
	return &interview, nil
}

func (r *interviewRepo) SetEvaluationOnce(ctx context.Context, id string, evaluation json.RawMessage) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews
		SET evaluation = $2::jsonb,
			evaluated_at = NOW(),
			status = CASE WHEN status = 'Cancelled' THEN status ELSE 'Completed' END,
			updated_at = NOW()
		WHERE id = $1 AND evaluation IS NULL
	`, id, string(evaluation))
	return rowsChanged(result, err)
}

func (r *interviewRepo) ReplaceEvaluation(ctx context.Context, id string, evaluation json.RawMessage) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews
		SET evaluation = $2::jsonb,
			evaluated_at = NOW(),
			status = CASE WHEN status = 'Cancelled' THEN status ELSE 'Completed' END,
			updated_at = NOW()
		WHERE id = $1
	`, id, string(evaluation))
	return rowsChanged(result, err)
}

func (r *interviewRepo) Cancel(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews
		SET status = 'Cancelled', updated_at = NOW()
		WHERE id = $1
		AND status NOT IN ('Completed', 'Cancelled')
		AND evaluation IS NULL
	`, id)
	return rowsChanged(result, err)
}

func (r *interviewRepo) MarkExpired(ctx context.Context, scheduledBeforeMs int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE interviews
		SET status = 'Expired', updated_at = NOW()
		WHERE status IN ('Scheduled', 'In Progress')
		AND evaluation IS NULL
		AND scheduled_at < $1
	`, scheduledBeforeMs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
