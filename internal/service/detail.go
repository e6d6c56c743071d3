package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/lifecycle"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/repository"
)

const (
	resumeNotFoundText = "Resume file not found."
	resumeFailedPrefix = "Failed to extract text: "
	resumeEmptyText    = "Resume contains no extractable text."
)

type CandidateDetail struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ResumeText string `json:"resumeText"`
}

type JobDetail struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Level       string `json:"level"`
	Category    string `json:"category"`
	Salary      int64  `json:"salary"`
}

type ScheduleDetail struct {
	Time      int64                 `json:"time"`
	Status    model.InterviewStatus `json:"status"`
	Lifecycle lifecycle.Lifecycle   `json:"lifecycle"`
}

// InterviewDetail is the document the AI interviewer consumes.
type InterviewDetail struct {
	InterviewID string           `json:"interviewId"`
	Candidate   CandidateDetail  `json:"candidate"`
	Job         JobDetail        `json:"job"`
	Schedule    ScheduleDetail   `json:"schedule"`
	Evaluation  *json.RawMessage `json:"evaluation,omitempty"`
	EvaluatedAt *time.Time       `json:"evaluatedAt,omitempty"`
}

type DetailService struct {
	interviews   repository.InterviewRepository
	applications repository.ApplicationRepository
	jobs         repository.JobRepository
	users        repository.UserRepository
	resumes      ResumeExtractor
	now          func() time.Time
}

func NewDetailService(
	interviews repository.InterviewRepository,
	applications repository.ApplicationRepository,
	jobs repository.JobRepository,
	users repository.UserRepository,
	resumes ResumeExtractor,
) *DetailService {
	return &DetailService{
		interviews:   interviews,
		applications: applications,
		jobs:         jobs,
		users:        users,
		resumes:      resumes,
		now:          time.Now,
	}
}

func (s *DetailService) Get(ctx context.Context, actor *model.Identity, interviewID string) (_ *InterviewDetail, err error) {
	ctx, span := tracer.Start(ctx, "DetailService.Get")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("interview.id", interviewID))

	interview, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if interview == nil {
		return nil, apperrors.NotFound("Interview")
	}
	if !actor.CanAccess(interview) {
		return nil, apperrors.Unauthorized("Not a party to this interview")
	}

	job, err := s.jobs.FindByID(ctx, interview.JobID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	user, err := s.users.FindByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	app, err := s.applications.FindByID(ctx, interview.ApplicationID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	detail := &InterviewDetail{
		InterviewID: interview.ID,
		Schedule: ScheduleDetail{
			Time:      interview.ScheduledAt,
			Status:    interview.Status,
			Lifecycle: lifecycle.ResolveInterview(interview, s.now()),
		},
	}
	if interview.HasEvaluation() {
		detail.Evaluation = interview.Evaluation
		detail.EvaluatedAt = interview.EvaluatedAt
	}
	if job != nil {
		detail.Job = JobDetail{
			Title:       job.Title,
			Description: CleanHTML(job.Description),
			Location:    job.Location,
			Level:       job.Level,
			Category:    job.Category,
			Salary:      job.Salary,
		}
	}
	if user != nil {
		detail.Candidate.Name = user.Name
		detail.Candidate.Email = user.Email
	}
	detail.Candidate.ResumeText = s.resumeText(ctx, interviewID, resumeRef(app, user))

	return detail, nil
}

func resumeRef(app *model.Application, user *model.User) string {
	if app != nil && app.AppliedResume != nil && *app.AppliedResume != "" {
		return *app.AppliedResume
	}
	if user != nil && user.Resume != nil {
		return *user.Resume
	}
	return ""
}

// resumeText never fails; extraction problems become readable placeholders.
func (s *DetailService) resumeText(ctx context.Context, interviewID, ref string) string {
	if ref == "" {
		return resumeNotFoundText
	}

	text, err := s.resumes.ExtractText(ctx, ref)
	switch {
	case errors.Is(err, ErrResumeNotFound):
		return resumeNotFoundText
	case err != nil:
		log.Warn().Err(err).Str("interviewId", interviewID).Msg("resume extraction failed")
		return resumeFailedPrefix + err.Error()
	case text == "":
		return resumeEmptyText
	}
	return text
}
