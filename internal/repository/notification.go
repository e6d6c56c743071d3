package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/superio/interview-server-go/internal/database"
	"github.com/superio/interview-server-go/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) NotificationRepository
}

type notificationRepo struct {
	db database.DBTX
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) WithTx(tx *sqlx.Tx) NotificationRepository {
	return &notificationRepo{db: tx}
}

func (r *notificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	var jobApplicationID *string
	if params.JobApplicationID != "" {
		jobApplicationID = &params.JobApplicationID
	}

	var n model.Notification
	err := r.db.GetContext(ctx, &n, `
		INSERT INTO notifications (
			recipient_id, recipient_type, sender_id, sender_type,
			job_application_id, message, type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, recipient_id, recipient_type, sender_id, sender_type,
			job_application_id, message, type, read, created_at
	`,
		params.RecipientID,
		params.RecipientType,
		params.SenderID,
		params.SenderType,
		jobApplicationID,
		params.Message,
		params.Type,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
