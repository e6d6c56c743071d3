package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/superio/interview-server-go/internal/database"
	"github.com/superio/interview-server-go/internal/model"
)

type ApplicationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Application, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ApplicationRepository
}

type applicationRepo struct {
	db database.DBTX
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) WithTx(tx *sqlx.Tx) ApplicationRepository {
	return &applicationRepo{db: tx}
}

func (r *applicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.GetContext(ctx, &app, `
		SELECT id, user_id, company_id, job_id, status, applied_resume, created_at
		FROM job_applications WHERE id = $1
	`, id)
	return HandleNotFound(&app, err)
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE job_applications SET status = $2 WHERE id = $1
	`, id, status)
	return err
}
