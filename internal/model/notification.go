package model

import "time"

type Notification struct {
	ID               string           `db:"id" json:"id"`
	RecipientID      string           `db:"recipient_id" json:"recipientId"`
	RecipientType    PartyType        `db:"recipient_type" json:"recipientType"`
	SenderID         string           `db:"sender_id" json:"senderId"`
	SenderType       PartyType        `db:"sender_type" json:"senderType"`
	JobApplicationID *string          `db:"job_application_id" json:"jobApplicationId,omitempty"`
	Message          string           `db:"message" json:"message"`
	Type             NotificationType `db:"type" json:"type"`
	Read             bool             `db:"read" json:"read"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
}

type CreateNotificationParams struct {
	RecipientID      string
	RecipientType    PartyType
	SenderID         string
	SenderType       PartyType
	JobApplicationID string
	Message          string
	Type             NotificationType
}
