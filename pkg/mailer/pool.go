package mailer

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var ErrPoolClosed = errors.New("invitation pool is shut down")

// Scheduler hands a batch off for asynchronous delivery. A nil error only
// means the batch was accepted, never that anything was sent.
type Scheduler interface {
	Schedule(ctx context.Context, b Batch) error
}

// Pool runs each batch in its own goroutine, detached from the caller, with at
// most maxConcurrent batches sending at once.
type Pool struct {
	dispatcher *Dispatcher
	sem        *semaphore.Weighted
	logger     *logrus.Logger
	onComplete func(Report)

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type PoolOption func(*Pool)

// WithCompletion registers a hook called with every finished batch report.
// It runs on the batch goroutine.
func WithCompletion(fn func(Report)) PoolOption {
	return func(p *Pool) { p.onComplete = fn }
}

func NewPool(d *Dispatcher, maxConcurrent int64, logger *logrus.Logger, opts ...PoolOption) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &Pool{dispatcher: d, sem: semaphore.NewWeighted(maxConcurrent), logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schedule implements Scheduler. The caller's context is not propagated to
// the batch: a batch outlives the request that started it.
func (p *Pool) Schedule(_ context.Context, b Batch) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(b)
	return nil
}

func (p *Pool) run(b Batch) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{"batch_id": b.ID, "ref": b.Ref, "panic": r}).Error("invitation batch panicked")
		}
	}()

	ctx := context.Background()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.logger.WithError(err).WithField("batch_id", b.ID).Error("failed to acquire dispatch slot")
		return
	}
	defer p.sem.Release(1)

	rep := p.dispatcher.SendBatch(ctx, b)
	if p.onComplete != nil {
		p.onComplete(rep)
	}
}

// Shutdown stops accepting batches and waits for in-flight ones, or for ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
