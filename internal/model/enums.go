package model

type InterviewStatus string

// Stored values match the strings the web client already renders.
const (
	InterviewStatusScheduled  InterviewStatus = "Scheduled"
	InterviewStatusInProgress InterviewStatus = "In Progress"
	InterviewStatusCompleted  InterviewStatus = "Completed"
	InterviewStatusCancelled  InterviewStatus = "Cancelled"
	InterviewStatusExpired    InterviewStatus = "Expired"
)

// IsTerminal reports whether the status is final regardless of the clock.
func (s InterviewStatus) IsTerminal() bool {
	return s == InterviewStatusCompleted || s == InterviewStatusCancelled
}

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
)

type PartyType string

const (
	PartyTypeUser    PartyType = "User"
	PartyTypeCompany PartyType = "Company"
)

const ApplicationStatusInterviewScheduled = "Interview Scheduled"

type NotificationType string

const NotificationTypeInterviewScheduled NotificationType = "interview_scheduled"
