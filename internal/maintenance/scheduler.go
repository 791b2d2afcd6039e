package maintenance

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"taskboard/internal/apperr"
)

// Job is a named periodic task. An Interval of zero disables the ticker;
// the job can still be run on demand. The result is handed back to RunNow
// callers and discarded for scheduled runs.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (any, error)
}

type entry struct {
	job     Job
	running atomic.Bool
}

// Scheduler runs jobs on tickers and never lets two runs of the same job
// overlap.
type Scheduler struct {
	jobs map[string]*entry
	wg   sync.WaitGroup
}

func NewScheduler(jobs ...Job) *Scheduler {
	s := &Scheduler{jobs: make(map[string]*entry, len(jobs))}
	for _, j := range jobs {
		s.jobs[j.Name] = &entry{job: j}
	}
	return s
}

// Start launches a ticker per enabled job. The loops stop with ctx; Wait
// blocks until they have.
func (s *Scheduler) Start(ctx context.Context) {
	for _, e := range s.jobs {
		if e.job.Interval <= 0 {
			log.Printf("[scheduler] %s disabled", e.job.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()
	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()
	log.Printf("[scheduler] %s every %s", e.job.Name, e.job.Interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if _, err := s.run(ctx, e); err != nil {
					log.Printf("[scheduler] %s: %v", e.job.Name, err)
				}
			}()
		}
	}
}

// RunNow runs a job in the caller's goroutine. It fails with Conflict when
// the job is already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) (any, error) {
	e, ok := s.jobs[name]
	if !ok {
		return nil, apperr.NotFound("Job")
	}
	return s.run(ctx, e)
}

func (s *Scheduler) run(ctx context.Context, e *entry) (any, error) {
	if !e.running.CompareAndSwap(false, true) {
		log.Printf("[scheduler] %s still running, skipping", e.job.Name)
		return nil, apperr.Conflict(e.job.Name + " is already running")
	}
	defer e.running.Store(false)

	start := time.Now()
	result, err := e.job.Run(ctx)
	log.Printf("[scheduler] %s finished in %s", e.job.Name, time.Since(start).Round(time.Millisecond))
	return result, err
}
