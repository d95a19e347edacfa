// Package scheduler runs the periodic reconciliation loop, the backstop
// against missed or lost webhooks.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"cofre/internal/config"
	"cofre/internal/jobs"
	"cofre/internal/models"
)

// ItemLister enumerates every locally registered item.
type ItemLister interface {
	ListAll(ctx context.Context) ([]*models.Item, error)
}

// Submitter enqueues background work. Satisfied by *jobs.Pool.
type Submitter interface {
	Submit(job jobs.Job) error
}

// Scheduler fires on a fixed interval, dispatching one sync job per known
// item. The tick never waits on any item's sync; a supervisor goroutine
// collects the tick's outcomes into one report instead.
type Scheduler struct {
	items        ItemLister
	syncer       ItemSyncer
	pool         Submitter
	interval     time.Duration
	runOnStartup bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(items ItemLister, syncer ItemSyncer, pool Submitter, cfg *config.SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		items:        items,
		syncer:       syncer,
		pool:         pool,
		interval:     cfg.Interval,
		runOnStartup: cfg.RunOnStartup,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the reconciliation loop.
func (s *Scheduler) Start() {
	log.Printf("Scheduler: reconciling every %v", s.interval)

	if s.runOnStartup {
		s.runTick()
	}

	s.wg.Add(1)
	go s.loop()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Println("Scheduler: loop stopped")
			return
		case <-ticker.C:
			s.runTick()
		}
	}
}

// runTick enumerates items and dispatches one supervised job each. It
// returns as soon as submission is done; completion is awaited off-loop.
func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	items, err := s.items.ListAll(ctx)
	if err != nil {
		log.Printf("Scheduler: failed to enumerate items: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	report := &tickReport{started: time.Now()}
	var pending sync.WaitGroup

	for _, item := range items {
		pending.Add(1)
		job := &supervisedJob{
			Job:     NewItemSyncJob(s.syncer, item),
			pending: &pending,
			report:  report,
		}
		if err := s.pool.Submit(job); err != nil {
			pending.Done()
			report.recordDropped(item.PluggyItemID)
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pending.Wait()
		report.log(len(items))
	}()
}

// Shutdown stops the loop and waits for outstanding tick supervision. Jobs
// already queued drain through the pool's own shutdown.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Scheduler: shutdown complete")
	case <-time.After(timeout):
		log.Println("Scheduler: timeout waiting for tick supervision")
	}
}

// supervisedJob wraps a job so the tick's supervisor can observe its
// completion and outcome.
type supervisedJob struct {
	jobs.Job
	pending *sync.WaitGroup
	report  *tickReport
}

func (j *supervisedJob) Execute(ctx context.Context) error {
	defer j.pending.Done()

	if err := j.Job.Execute(ctx); err != nil {
		j.report.recordFailure(j.Key(), err)
		return err
	}
	j.report.recordSuccess()
	return nil
}

// tickReport aggregates one tick's outcomes across concurrently running
// jobs.
type tickReport struct {
	mu        sync.Mutex
	started   time.Time
	succeeded int
	dropped   int
	failures  []string
}

func (r *tickReport) recordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.succeeded++
}

func (r *tickReport) recordFailure(key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, key+": "+err.Error())
}

func (r *tickReport) recordDropped(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped++
	log.Printf("Scheduler: queue full, item %s skipped this tick", key)
}

func (r *tickReport) log(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.started).Round(time.Millisecond)
	if len(r.failures) == 0 && r.dropped == 0 {
		log.Printf("Scheduler: tick complete, %d/%d items reconciled in %v", r.succeeded, total, elapsed)
		return
	}

	log.Printf("Scheduler: tick complete in %v, %d succeeded, %d dropped, %d failed", elapsed, r.succeeded, r.dropped, len(r.failures))
	for _, f := range r.failures {
		log.Printf("Scheduler: failed item %s", f)
	}
}
