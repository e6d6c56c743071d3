package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/superio/interview-server-go/internal/model"
)

type JobRepository interface {
	FindByID(ctx context.Context, id string) (*model.Job, error)
}

type jobRepo struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := r.db.GetContext(ctx, &job, `
		SELECT id, company_id, title, description, location, level, category, salary
		FROM jobs WHERE id = $1
	`, id)
	return HandleNotFound(&job, err)
}
