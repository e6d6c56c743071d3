package model

import "time"

type Application struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	CompanyID     string    `db:"company_id" json:"companyId"`
	JobID         string    `db:"job_id" json:"jobId"`
	Status        string    `db:"status" json:"status"`
	AppliedResume *string   `db:"applied_resume" json:"appliedResume,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

type Job struct {
	ID          string `db:"id" json:"id"`
	CompanyID   string `db:"company_id" json:"companyId"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Location    string `db:"location" json:"location"`
	Level       string `db:"level" json:"level"`
	Category    string `db:"category" json:"category"`
	Salary      int64  `db:"salary" json:"salary"`
}
