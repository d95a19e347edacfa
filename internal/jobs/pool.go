package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	jobTracer          = otel.Tracer("cofre/jobs")
	jobMeter           = otel.Meter("cofre/jobs")
	jobDuration, _     = jobMeter.Float64Histogram("jobs.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("jobs.total", metric.WithDescription("Total jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("jobs.queue_dropped", metric.WithDescription("Jobs dropped due to full queue"))
)

// Pool is a fixed-size worker pool fed by a bounded queue. Submission never
// blocks: when the queue is full the job is dropped with an error so the
// caller (an HTTP handler acking a webhook) stays fast.
type Pool struct {
	workerCount int
	jobTimeout  time.Duration
	jobs        chan Job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	// mu serializes Submit against closing the queue so a submission
	// racing a shutdown fails cleanly instead of sending on a closed
	// channel.
	mu     sync.Mutex
	closed bool
}

// errPoolClosed is returned by Submit once shutdown has begun.
var errPoolClosed = errors.New("worker pool is shutting down")

// NewPool creates a pool of workerCount workers with a queue of queueSize.
// Each job runs under its own timeout so one stuck sync cannot pin a worker
// forever.
func NewPool(workerCount, queueSize int, jobTimeout time.Duration) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workerCount: workerCount,
		jobTimeout:  jobTimeout,
		jobs:        make(chan Job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("Starting worker pool with %d workers", p.workerCount)

	for i := 1; i <= p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return

		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processJob(id, job)
		}
	}
}

func (p *Pool) processJob(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(p.ctx, p.jobTimeout)
	defer cancel()

	ctx, span := jobTracer.Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.key", job.Key()),
			attribute.String("job.description", job.Description()),
		),
	)
	defer span.End()

	start := time.Now()

	if err := job.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		jobDuration.Record(ctx, time.Since(start).Seconds())
		log.Printf("Worker %d: %s for %s failed: %v", workerID, job.Description(), job.Key(), err)
		return
	}

	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
	jobDuration.Record(ctx, time.Since(start).Seconds())
	log.Printf("Worker %d: %s for %s completed in %v", workerID, job.Description(), job.Key(), time.Since(start).Round(time.Millisecond))
}

// Submit enqueues a job without blocking. Returns the pool's context error
// after shutdown, or an error when the queue is full and the job is dropped.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
	}
	if p.closed {
		return errPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		jobQueueDropped.Add(context.Background(), 1)
		log.Printf("Warning: job queue full, dropping %s for %s", job.Description(), job.Key())
		return fmt.Errorf("job queue full, dropping job for %s", job.Key())
	}
}

// SubmitBatch enqueues multiple jobs and returns how many were accepted.
func (p *Pool) SubmitBatch(jobs []Job) int {
	submitted := 0
	for _, job := range jobs {
		if err := p.Submit(job); err != nil {
			log.Printf("Failed to submit job for %s: %v", job.Key(), err)
			continue
		}
		submitted++
	}
	log.Printf("Submitted %d/%d jobs to worker pool", submitted, len(jobs))
	return submitted
}

// ShutdownWithTimeout closes the queue and waits for workers to drain it.
// Jobs already accepted run to completion unless the timeout expires, in
// which case in-flight jobs are cancelled through their contexts.
func (p *Pool) ShutdownWithTimeout(timeout time.Duration) {
	log.Printf("Worker pool: initiating graceful shutdown with %v timeout", timeout)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Worker pool: all workers finished")
	case <-time.After(timeout):
		log.Println("Worker pool: timeout reached, cancelling in-flight jobs")
		p.cancel()
		<-done
	}

	p.cancel()
}
