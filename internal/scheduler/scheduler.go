package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	applogger "EVDemand/pkg/logger"
)

// Job is a periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs maintenance jobs (cache sweeps, limiter pruning) in the
// background. Jobs never overlap with themselves.
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	l         *applogger.Logger
}

// New creates a new Scheduler.
func New(l *applogger.Logger, jobs ...Job) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, jobs: jobs, l: l}
}

// Add registers a job. Call before Start.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start schedules every job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.jobs) == 0 {
		s.l.Info("scheduler: no jobs configured")
		return nil
	}
	for _, job := range s.jobs {
		if job.Interval <= 0 || job.Run == nil {
			return errors.New("scheduler: job " + job.Name + " needs a positive interval and a run func")
		}
		job := job
		if _, err := s.scheduler.Every(job.Interval).Tag(job.Name).Do(func() { s.run(job) }); err != nil {
			return err
		}
	}
	s.scheduler.StartAsync()
	s.l.Info("scheduler started", applogger.Int("jobs", len(s.jobs)))
	return nil
}

func (s *Scheduler) run(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.l.Error("scheduler job failed", applogger.String("job", job.Name), applogger.Error(err))
		return
	}
	s.l.Debug("scheduler job done", applogger.String("job", job.Name), applogger.Duration("took", time.Since(start)))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
