package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/superio/interview-server-go/internal/model"
)

func TestResolve(t *testing.T) {
	scheduled := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ms := scheduled.UnixMilli()

	tests := []struct {
		name   string
		status model.InterviewStatus
		now    time.Time
		want   Lifecycle
	}{
		{"a day before", model.InterviewStatusScheduled, scheduled.Add(-24 * time.Hour), Scheduled},
		{"exactly 30 minutes before", model.InterviewStatusScheduled, scheduled.Add(-30 * time.Minute), Scheduled},
		{"29 minutes before", model.InterviewStatusScheduled, scheduled.Add(-29 * time.Minute), StartingSoon},
		{"at start", model.InterviewStatusScheduled, scheduled, InProgress},
		{"90 minutes after", model.InterviewStatusScheduled, scheduled.Add(90 * time.Minute), InProgress},
		{"exactly 2 hours after", model.InterviewStatusScheduled, scheduled.Add(2 * time.Hour), InProgress},
		{"3 hours after", model.InterviewStatusScheduled, scheduled.Add(3 * time.Hour), Expired},
		{"completed stays completed", model.InterviewStatusCompleted, scheduled.Add(72 * time.Hour), Completed},
		{"cancelled stays cancelled", model.InterviewStatusCancelled, scheduled.Add(-time.Hour), Cancelled},
		{"stored in progress is re-derived", model.InterviewStatusInProgress, scheduled.Add(-time.Hour), Scheduled},
		{"stored expired is re-derived", model.InterviewStatusExpired, scheduled.Add(3 * time.Hour), Expired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.status, ms, tc.now))
		})
	}
}

func TestResolveIsMonotonic(t *testing.T) {
	scheduled := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ms := scheduled.UnixMilli()

	for _, status := range []model.InterviewStatus{
		model.InterviewStatusScheduled,
		model.InterviewStatusInProgress,
		model.InterviewStatusExpired,
	} {
		prev := 0
		for now := scheduled.Add(-6 * time.Hour); now.Before(scheduled.Add(6 * time.Hour)); now = now.Add(time.Minute) {
			rank := Resolve(status, ms, now).Rank()
			assert.GreaterOrEqual(t, rank, prev, "status %s regressed at %s", status, now)
			prev = rank
		}
	}
}

// A scheduled interview with no evaluation, read three hours after its slot.
func TestResolveExpiredWithoutEvaluation(t *testing.T) {
	now := time.Now()
	interview := &model.Interview{
		Status:      model.InterviewStatusScheduled,
		ScheduledAt: now.Add(-3 * time.Hour).UnixMilli(),
	}

	assert.Equal(t, Expired, ResolveInterview(interview, now))
	assert.False(t, ResolveInterview(interview, now).Joinable())
}

func TestExpiryCutoff(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	cutoff := ExpiryCutoff(now)

	assert.Equal(t, InProgress, Resolve(model.InterviewStatusScheduled, cutoff, now))
	assert.Equal(t, Expired, Resolve(model.InterviewStatusScheduled, cutoff-1, now))
}
