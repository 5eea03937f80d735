package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Job is a unit of background work run on a cron schedule
type Job interface {
	Name() string
	Run(ctx context.Context)
}

// Scheduler supervises the recurring jobs of the service.
// A job still running when its next tick fires is skipped for that tick.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New creates a scheduler evaluating cron specs in location
func New(location *time.Location) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	logger := cron.PrintfLogger(log.StandardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		location: location,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// LoadLocation resolves a timezone name, treating empty as UTC
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", name, err)
	}
	return loc, nil
}

// AddJob registers job on a five-field cron spec
func (s *Scheduler) AddJob(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s with spec %q: %w", job.Name(), spec, err)
	}

	log.WithFields(log.Fields{
		"job":      job.Name(),
		"schedule": spec,
		"timezone": s.location.String(),
	}).Info("Job registered")
	return nil
}

// Start begins firing registered jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	log.Info("Scheduler started")
}

// Stop stops firing new ticks, cancels the context handed to running jobs and
// waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.cancel()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		log.Warn("Scheduler stop timed out waiting for running jobs")
		return ctx.Err()
	}
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(job Job) {
	log.WithField("job", job.Name()).Info("Running job immediately")
	s.runJob(job)
}

func (s *Scheduler) runJob(job Job) {
	start := time.Now()
	log.WithField("job", job.Name()).Debug("Running job")

	job.Run(s.ctx)

	log.WithFields(log.Fields{
		"job":      job.Name(),
		"duration": time.Since(start).String(),
	}).Debug("Job completed")
}

// NamedJob adapts a function to the Job interface
type NamedJob struct {
	JobName string
	Fn      func(ctx context.Context)
}

// Name returns the job name
func (j NamedJob) Name() string { return j.JobName }

// Run calls the wrapped function
func (j NamedJob) Run(ctx context.Context) { j.Fn(ctx) }
