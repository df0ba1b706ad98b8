// Package queue decouples analysis submission from the worker that runs it.
// Tasks carry only a session identifier; delivery is at-least-once with no
// ordering guarantee across sessions.
package queue

import (
	"context"
	"sync"
)

// TaskQueue accepts background analysis work keyed by session id.
type TaskQueue interface {
	Enqueue(ctx context.Context, sessionID uint) error
}

// Handler processes one dequeued session id.
type Handler func(ctx context.Context, sessionID uint)

type task struct {
	SessionID uint `json:"session_id"`
}

// InProc is a process-local queue backed by a buffered channel. It serves
// tests and single-binary deployments without a broker.
type InProc struct {
	tasks chan uint
	wg    sync.WaitGroup
}

func NewInProc(buffer int) *InProc {
	return &InProc{tasks: make(chan uint, buffer)}
}

func (q *InProc) Enqueue(ctx context.Context, sessionID uint) error {
	select {
	case q.tasks <- sessionID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches workers that run handle for each task until ctx ends.
func (q *InProc) Start(ctx context.Context, workers int, handle Handler) {
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case id := <-q.tasks:
					handle(ctx, id)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (q *InProc) Wait() {
	q.wg.Wait()
}
