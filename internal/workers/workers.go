// Package workers runs the background maintenance of the bot. It defines
// the Worker interface and a Workers aggregate that starts every worker in
// a unified way.
package workers

import "context"

// Worker is one background process. Run blocks until ctx is done.
type Worker interface {
	Run(ctx context.Context)
}

// Workers starts a set of workers together, each in its own goroutine.
type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		go worker.Run(ctx)
	}
}
