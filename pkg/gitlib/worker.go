package gitlib

import "runtime"

// Job is a unit of work executed against a worker's repository handle.
type Job func(repo *Repository)

// Worker manages exclusive, sequential access to one Repository.
// It ensures all CGO calls happen on a single OS thread.
type Worker struct {
	repo *Repository
	jobs <-chan Job
	done chan struct{}
}

// NewWorker creates a new Worker that consumes from the given channel.
func NewWorker(repo *Repository, jobs <-chan Job) *Worker {
	return &Worker{
		repo: repo,
		jobs: jobs,
		done: make(chan struct{}),
	}
}

// Start runs the worker loop.
// It locks the goroutine to the OS thread to satisfy libgit2 constraints.
func (w *Worker) Start() {
	go func() {
		runtime.LockOSThread()

		defer runtime.UnlockOSThread()
		defer close(w.done)

		for job := range w.jobs {
			job(w.repo)
		}
	}()
}

// Stop waits for the worker to finish.
// The caller must close the jobs channel to trigger shutdown.
func (w *Worker) Stop() {
	<-w.done
}
