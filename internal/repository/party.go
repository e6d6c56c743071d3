package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/superio/interview-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type userRepo struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, name, email, resume, image FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

type CompanyRepository interface {
	FindByID(ctx context.Context, id string) (*model.Company, error)
}

type companyRepo struct {
	db *sqlx.DB
}

func NewCompanyRepository(db *sqlx.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) FindByID(ctx context.Context, id string) (*model.Company, error) {
	var company model.Company
	err := r.db.GetContext(ctx, &company, `
		SELECT id, name, email, image FROM companies WHERE id = $1
	`, id)
	return HandleNotFound(&company, err)
}
