package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/superio/interview-server-go/internal/config"
	"github.com/superio/interview-server-go/internal/database"
	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/lifecycle"
	"github.com/superio/interview-server-go/internal/metrics"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/repository"
)

// notificationTimeLayout mirrors the en-US locale string the web client shows.
const notificationTimeLayout = "1/2/2006, 3:04:05 PM"

type ScheduleParams struct {
	ApplicationID string `json:"applicationId"`
	Date          int64  `json:"date"`
}

// InterviewView is an interview list row with its derived lifecycle.
type InterviewView struct {
	model.InterviewSummary
	Lifecycle lifecycle.Lifecycle `json:"lifecycle"`
}

type SchedulingService struct {
	tx            database.Transactor
	interviews    repository.InterviewRepository
	applications  repository.ApplicationRepository
	jobs          repository.JobRepository
	notifications repository.NotificationRepository
	meetings      MeetingProvider
	publisher     NotificationPublisher
	loc           *time.Location
	now           func() time.Time
}

func NewSchedulingService(
	tx database.Transactor,
	interviews repository.InterviewRepository,
	applications repository.ApplicationRepository,
	jobs repository.JobRepository,
	notifications repository.NotificationRepository,
	meetings MeetingProvider,
	publisher NotificationPublisher,
	loc *time.Location,
) *SchedulingService {
	if loc == nil {
		loc = time.Local
	}
	return &SchedulingService{
		tx:            tx,
		interviews:    interviews,
		applications:  applications,
		jobs:          jobs,
		notifications: notifications,
		meetings:      meetings,
		publisher:     publisher,
		loc:           loc,
		now:           time.Now,
	}
}

// Schedule books an interview for the acting candidate's application. The
// meeting link is obtained before any write; the interview, the application
// status and the candidate notification are then committed together.
func (s *SchedulingService) Schedule(ctx context.Context, actor *model.Identity, params ScheduleParams) (_ *model.Interview, err error) {
	ctx, span := tracer.Start(ctx, "SchedulingService.Schedule")
	defer func() { endSpan(span, err) }()

	if params.ApplicationID == "" {
		return nil, apperrors.MissingRequired("applicationId")
	}
	if params.Date <= 0 {
		return nil, apperrors.MissingRequired("date")
	}
	if !time.UnixMilli(params.Date).After(s.now()) {
		return nil, apperrors.InvalidInput("date", "must be in the future")
	}
	if !actor.IsCandidate() {
		return nil, apperrors.Unauthorized("Only candidates can schedule interviews")
	}

	app, err := s.applications.FindByID(ctx, params.ApplicationID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if app == nil {
		return nil, apperrors.NotFound("Application")
	}
	if app.UserID != actor.ID {
		return nil, apperrors.Unauthorized("Application belongs to another candidate")
	}

	job, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if job == nil {
		return nil, apperrors.NotFound("Job")
	}

	span.SetAttributes(
		attribute.String("application.id", app.ID),
		attribute.String("job.id", job.ID),
	)

	start := time.UnixMilli(params.Date)
	meeting, err := s.meetings.CreateMeeting(ctx, MeetingRequest{
		Summary:     fmt.Sprintf("Interview for %s", job.Title),
		Description: fmt.Sprintf("Interview between Candidate and Recruiter for %s", job.Title),
		Start:       start,
		End:         start.Add(config.InterviewDuration),
	})
	if err != nil {
		log.Error().Err(err).Str("applicationId", app.ID).Msg("meeting link creation failed")
		return nil, apperrors.External("meeting provider", err)
	}

	var (
		interview    *model.Interview
		notification *model.Notification
	)
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		interview, txErr = s.interviews.WithTx(tx).Create(ctx, model.CreateInterviewParams{
			ApplicationID:   app.ID,
			CandidateID:     actor.ID,
			RecruiterID:     job.CompanyID,
			JobID:           job.ID,
			ScheduledAt:     params.Date,
			SessionLink:     meeting.Link,
			ExternalEventID: meeting.EventID,
		})
		if txErr != nil {
			return fmt.Errorf("create interview: %w", txErr)
		}

		if txErr = s.applications.WithTx(tx).UpdateStatus(ctx, app.ID, model.ApplicationStatusInterviewScheduled); txErr != nil {
			return fmt.Errorf("update application status: %w", txErr)
		}

		notification, txErr = s.notifications.WithTx(tx).Create(ctx, model.CreateNotificationParams{
			RecipientID:      actor.ID,
			RecipientType:    model.PartyTypeUser,
			SenderID:         job.CompanyID,
			SenderType:       model.PartyTypeCompany,
			JobApplicationID: app.ID,
			Message:          s.scheduledMessage(job.Title, start),
			Type:             model.NotificationTypeInterviewScheduled,
		})
		if txErr != nil {
			return fmt.Errorf("create notification: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	s.publisher.Publish(ctx, notification)
	metrics.InterviewScheduled()

	log.Info().
		Str("interviewId", interview.ID).
		Str("applicationId", app.ID).
		Str("candidateId", actor.ID).
		Int64("scheduledAt", interview.ScheduledAt).
		Msg("interview scheduled")

	return interview, nil
}

func (s *SchedulingService) scheduledMessage(jobTitle string, start time.Time) string {
	return fmt.Sprintf("Interview scheduled for %s on %s.", jobTitle, start.In(s.loc).Format(notificationTimeLayout))
}

// List returns the actor's interviews ordered by start time.
// Delegated identities are bound to one interview and cannot list.
func (s *SchedulingService) List(ctx context.Context, actor *model.Identity, limit, offset int) ([]InterviewView, error) {
	if actor.Delegated {
		return nil, apperrors.Forbidden("Delegated credentials cannot list interviews")
	}

	var (
		rows []model.InterviewSummary
		err  error
	)
	switch {
	case actor.IsCandidate():
		rows, err = s.interviews.ListByCandidate(ctx, actor.ID, limit, offset)
	case actor.IsRecruiter():
		rows, err = s.interviews.ListByRecruiter(ctx, actor.ID, limit, offset)
	default:
		return nil, apperrors.Unauthorized("Unknown role")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}

	now := s.now()
	views := make([]InterviewView, 0, len(rows))
	for _, row := range rows {
		views = append(views, InterviewView{
			InterviewSummary: row,
			Lifecycle:        lifecycle.ResolveInterview(&row.Interview, now),
		})
	}
	return views, nil
}

// Cancel moves an open interview to Cancelled. Evaluated or already final
// interviews cannot be cancelled.
func (s *SchedulingService) Cancel(ctx context.Context, actor *model.Identity, interviewID string) (*model.Interview, error) {
	interview, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if interview == nil {
		return nil, apperrors.NotFound("Interview")
	}
	if actor.Delegated || !actor.CanAccess(interview) {
		return nil, apperrors.Unauthorized("Not a party to this interview")
	}
	if interview.Status.IsTerminal() || interview.HasEvaluation() {
		return nil, apperrors.Conflict(fmt.Sprintf("Interview is already %s", interview.Status))
	}

	applied, err := s.interviews.Cancel(ctx, interviewID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !applied {
		return nil, apperrors.Conflict("Interview changed state concurrently")
	}

	log.Info().
		Str("interviewId", interviewID).
		Str("actorId", actor.ID).
		Str("role", string(actor.Role)).
		Msg("interview cancelled")

	updated, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("Interview")
	}
	return updated, nil
}
