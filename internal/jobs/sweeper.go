package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chefascend/cook-server-go/internal/audit"
	"github.com/chefascend/cook-server-go/internal/repository"
)

// SweeperJob abandons IN_PROGRESS sessions whose owners walked away.
// Sweeping is advisory: a swept session can still be completed later,
// exactly once, through the normal completion path.
type SweeperJob struct {
	sessionRepo repository.SessionRepository
	interval    time.Duration
	cutoff      time.Duration
	done        chan struct{}
}

func NewSweeperJob(sessionRepo repository.SessionRepository, interval, cutoff time.Duration) *SweeperJob {
	return &SweeperJob{
		sessionRepo: sessionRepo,
		interval:    interval,
		cutoff:      cutoff,
		done:        make(chan struct{}),
	}
}

func (j *SweeperJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("cutoff", j.cutoff).Msg("session sweeper started")
}

func (j *SweeperJob) Stop() {
	close(j.done)
	log.Info().Msg("session sweeper stopped")
}

func (j *SweeperJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweeperJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sessionRepo.AbandonStale(ctx, time.Now().Add(-j.cutoff))
	if err != nil {
		log.Error().Err(err).Msg("failed to sweep stale sessions")
		return
	}
	if count > 0 {
		audit.Log(audit.Event{
			Type:    audit.EventSessionSwept,
			Details: map[string]interface{}{"count": count},
		})
		log.Info().Int64("count", count).Msg("swept stale sessions")
	}
}
