package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 64
)

var (
	// ErrQueueFull is returned when the job channel has no free slot.
	ErrQueueFull = errors.New("ingestion queue full")

	// ErrPoolClosed is returned for jobs submitted after Close.
	ErrPoolClosed = errors.New("ingestion pool closed")
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Workers is the number of background workers (defaults to 2).
	Workers int

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize int

	// OnDone, when set, is called after each job with its result.
	OnDone func(*IngestResult, error)
}

// Pool indexes documents in the background so that uploads return as soon
// as the document row exists.
type Pool struct {
	pipeline *Pipeline
	config   PoolConfig
	queue    chan string
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	logger   *slog.Logger
}

// NewPool creates a Pool and starts its worker goroutines.
func NewPool(pipeline *Pipeline, cfg PoolConfig, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		pipeline: pipeline,
		config:   cfg,
		queue:    make(chan string, cfg.QueueSize),
		logger:   logger,
	}

	p.wg.Add(cfg.Workers)
	for i := range cfg.Workers {
		go p.worker(i)
	}
	return p
}

// Submit creates a pending document for req and queues it for indexing.
// When the queue is full or the pool is closed the document is marked
// failed and an error is returned alongside it.
func (p *Pool) Submit(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	doc, err := p.pipeline.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &IngestResult{DocumentID: doc.ID, Status: doc.Status}

	if qerr := p.enqueue(doc.ID); qerr != nil {
		doc.ErrorMessage = qerr.Error()
		doc.Status = storage.StatusFailed
		if err := p.pipeline.touch(ctx, doc); err != nil {
			p.logger.Error("Failed to mark document failed", "id", doc.ID, "error", err)
		}
		result.Status = doc.Status
		return result, fmt.Errorf("queue document %s: %w", doc.ID, qerr)
	}
	return result, nil
}

// Enqueue submits a stored document for (re)indexing.
// Returns true if enqueued, false if the queue is full or the pool is closed
// and the job was dropped.
func (p *Pool) Enqueue(documentID string) bool {
	return p.enqueue(documentID) == nil
}

func (p *Pool) enqueue(documentID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("Job not queued, pool closed", "id", documentID)
		return ErrPoolClosed
	}

	select {
	case p.queue <- documentID:
		p.logger.Debug("Job queued", "id", documentID)
		return nil
	default:
		p.logger.Error("Job not queued, queue full, job dropped", "id", documentID)
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued jobs to drain. It is safe
// to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("Worker started", "worker_id", id)

	for documentID := range p.queue {
		res, err := p.pipeline.Reprocess(context.Background(), documentID)
		if err != nil {
			p.logger.Error("Background indexing failed", "id", documentID, "error", err)
		}
		if p.config.OnDone != nil {
			p.config.OnDone(res, err)
		}
	}

	p.logger.Debug("Worker stopped", "worker_id", id)
}
