// Package lifecycle derives the effective state of an interview from its
// stored status and the current clock.
package lifecycle

import (
	"time"

	"github.com/superio/interview-server-go/internal/config"
	"github.com/superio/interview-server-go/internal/model"
)

// Lifecycle is the state a client sees. Completed and Cancelled come straight
// from storage; the others are derived from scheduled_at and the clock.
type Lifecycle string

const (
	Scheduled    Lifecycle = "Scheduled"
	StartingSoon Lifecycle = "Starting Soon"
	InProgress   Lifecycle = "In Progress"
	Completed    Lifecycle = "Completed"
	Cancelled    Lifecycle = "Cancelled"
	Expired      Lifecycle = "Expired"
)

// Rank orders the time-derived states. Terminal stored states rank 0.
func (l Lifecycle) Rank() int {
	switch l {
	case Scheduled:
		return 1
	case StartingSoon:
		return 2
	case InProgress:
		return 3
	case Expired:
		return 4
	}
	return 0
}

// Joinable reports whether a live session may be requested in this state.
func (l Lifecycle) Joinable() bool {
	return l == StartingSoon || l == InProgress
}

// Resolve returns the effective lifecycle. Completed and Cancelled are
// returned as stored; every other stored status is derived from the clock so
// the result never moves backwards as now advances.
func Resolve(status model.InterviewStatus, scheduledAtMs int64, now time.Time) Lifecycle {
	switch status {
	case model.InterviewStatusCompleted:
		return Completed
	case model.InterviewStatusCancelled:
		return Cancelled
	}

	scheduledAt := time.UnixMilli(scheduledAtMs)
	switch {
	case now.Sub(scheduledAt) > config.ExpiryGracePeriod:
		return Expired
	case !now.Before(scheduledAt):
		return InProgress
	case scheduledAt.Sub(now) < config.StartingSoonWindow:
		return StartingSoon
	default:
		return Scheduled
	}
}

// ResolveInterview is Resolve applied to a stored record.
func ResolveInterview(interview *model.Interview, now time.Time) Lifecycle {
	return Resolve(interview.Status, interview.ScheduledAt, now)
}

// ExpiryCutoff returns the scheduled-at bound (epoch ms) below which an open
// interview resolves to Expired at now.
func ExpiryCutoff(now time.Time) int64 {
	return now.Add(-config.ExpiryGracePeriod).UnixMilli()
}
