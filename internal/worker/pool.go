package worker

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"cafeteria-meals/internal/logger"

	"github.com/rs/zerolog"
)

var ErrPoolStopped = stderrors.New("worker pool stopped")

type Task func(context.Context) error

// Pool runs tasks on a fixed set of goroutines. A task that panics is
// logged as failed and the goroutine keeps serving.
//
// Tasks accepted by Submit always run, even after the Start context is
// cancelled: they see a context that keeps its values but not its
// cancellation, so a popped message is either written or dead-lettered.
type Pool struct {
	name    string
	size    int
	tasks   chan Task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	log     zerolog.Logger
}

func NewPool(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		name:  name,
		size:  size,
		tasks: make(chan Task, size*2),
		log:   logger.Component(name + "-pool"),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("size", p.size).Msg("Starting pool")

	taskCtx := context.WithoutCancel(ctx)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(taskCtx, i)
	}
}

// Stop refuses new tasks, then waits for every queued task to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info().Msg("Pool stopped")
}

// Submit blocks until the pool has room or ctx is done. Messages are never
// dropped on a full pool: the consumer stops popping instead. After Stop it
// returns ErrPoolStopped.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.log.With().Int("worker_id", id).Logger()
	for task := range p.tasks {
		if err := p.execute(ctx, task); err != nil {
			log.Error().Err(err).Msg("Task failed")
		}
	}
}

func (p *Pool) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx)
}
