package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the scan pipeline on a cron spec. Standard 5-field specs
// with minute resolution.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Schedule registers a job under the given spec. The job receives a fresh
// background context per invocation; overlapping runs are the job's problem
// to guard against if it cares.
func (s *Scheduler) Schedule(spec string, name string, job func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		log.Info().Str("job", name).Str("spec", spec).Msg("scheduled job starting")
		job(context.Background())
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
