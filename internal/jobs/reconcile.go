package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/superio/interview-server-go/internal/config"
	"github.com/superio/interview-server-go/internal/lifecycle"
	"github.com/superio/interview-server-go/internal/metrics"
)

// ExpiryMarker is the slice of the interview repository the reconcile job needs.
type ExpiryMarker interface {
	MarkExpired(ctx context.Context, scheduledBeforeMs int64) (int64, error)
}

// ReconcileJob persists the Expired status for open interviews whose grace
// period has passed. Reads derive the same value on the fly, so the job only
// keeps stored rows in line with what clients already see.
type ReconcileJob struct {
	interviews ExpiryMarker
	interval   time.Duration
	now        func() time.Time
	done       chan struct{}
}

func NewReconcileJob(interviews ExpiryMarker, interval time.Duration) *ReconcileJob {
	return &ReconcileJob{
		interviews: interviews,
		interval:   interval,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Enabled reports whether a positive interval was configured.
func (j *ReconcileJob) Enabled() bool {
	return j.interval > 0
}

func (j *ReconcileJob) Start() {
	if !j.Enabled() {
		log.Info().Msg("interview reconcile job disabled")
		return
	}
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("interview reconcile job started")
}

func (j *ReconcileJob) Stop() {
	if !j.Enabled() {
		return
	}
	close(j.done)
	log.Info().Msg("interview reconcile job stopped")
}

func (j *ReconcileJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.reconcile()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.reconcile()
		}
	}
}

func (j *ReconcileJob) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), config.ReconcileJobTimeout)
	defer cancel()

	cutoff := lifecycle.ExpiryCutoff(j.now())
	count, err := j.interviews.MarkExpired(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Int64("cutoff", cutoff).Msg("failed to mark expired interviews")
		return
	}
	if count > 0 {
		metrics.InterviewsExpired(count)
		log.Info().Int64("count", count).Msg("marked interviews expired")
	}
}
