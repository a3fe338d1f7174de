package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/mdhighlight/internal/config"
	"github.com/dgallion1/mdhighlight/internal/highlight"
	"github.com/dgallion1/mdhighlight/internal/parser"
	"github.com/dgallion1/mdhighlight/internal/segment"
	"github.com/dgallion1/mdhighlight/internal/store"
)

// Orchestrator manages the server-mode highlight pipeline: a bounded job
// queue drained by a small worker pool.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	svc    *highlight.Service
	ledger *store.Ledger
	log    *slog.Logger
	cfg    config.Config
	segCfg segment.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewOrchestrator wires the pipeline; call Start to launch workers.
func NewOrchestrator(cfg config.Config, svc *highlight.Service, ledger *store.Ledger, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		svc:    svc,
		ledger: ledger,
		log:    log,
		cfg:    cfg,
		segCfg: segment.Config{
			MinLines: cfg.ChunkMinLines,
			MaxLines: cfg.ChunkMaxLines,
		},
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.svc, o.ledger, o.log, o.segCfg, o.cfg.OutputDir, o.cfg.Pipelined,
				parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext})
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. The in-flight chunk of each
// running job completes; already-written chunks stay valid on disk.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit queues a new job for processing. Submissions after Stop are
// rejected rather than racing the queue close.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		job.SetStatus(StatusFailed, "shutting_down")
		return fmt.Errorf("pipeline is shutting down")
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Ledger exposes the run ledger for API handlers.
func (o *Orchestrator) Ledger() *store.Ledger {
	return o.ledger
}
