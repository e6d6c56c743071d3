package model

import (
	"encoding/json"
	"time"
)

type Interview struct {
	ID              string           `db:"id" json:"id"`
	ApplicationID   string           `db:"application_id" json:"applicationId"`
	CandidateID     string           `db:"candidate_id" json:"candidateId"`
	RecruiterID     string           `db:"recruiter_id" json:"recruiterId"`
	JobID           string           `db:"job_id" json:"jobId"`
	ScheduledAt     int64            `db:"scheduled_at" json:"date"`
	SessionLink     string           `db:"session_link" json:"meetLink"`
	ExternalEventID string           `db:"external_event_id" json:"eventId"`
	Status          InterviewStatus  `db:"status" json:"status"`
	Evaluation      *json.RawMessage `db:"evaluation" json:"evaluation"`
	EvaluatedAt     *time.Time       `db:"evaluated_at" json:"evaluatedAt"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`
}

func (i *Interview) HasEvaluation() bool {
	return i.Evaluation != nil && len(*i.Evaluation) > 0 && string(*i.Evaluation) != "null"
}

type CreateInterviewParams struct {
	ApplicationID   string
	CandidateID     string
	RecruiterID     string
	JobID           string
	ScheduledAt     int64
	SessionLink     string
	ExternalEventID string
}

// InterviewSummary is a list row joined with the job title and the name of
// the other party (the company for candidates, the candidate for recruiters).
type InterviewSummary struct {
	Interview
	JobTitle        string `db:"job_title" json:"jobTitle"`
	CounterpartName string `db:"counterpart_name" json:"counterpartName"`
}
