package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raglandconnor/podcite/internal/storage"
)

// Job asks for one asset's chunks to be prepared in the background.
type Job struct {
	ID         string
	Filename   string
	EnqueuedAt time.Time
}

// WorkerPool prepares chunk sets for uploaded assets off the request path.
// Uploads return immediately; /info and /chunks self-heal if a request
// arrives before preparation finishes.
type WorkerPool struct {
	jobs     chan *Job
	workers  int
	cache    *storage.MetaCache
	preparer storage.ChunkPreparer
	log      zerolog.Logger
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWorkerPool creates a pool with the given worker count (minimum 1).
func NewWorkerPool(workers int, cache *storage.MetaCache, preparer storage.ChunkPreparer, log zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		jobs:     make(chan *Job, 100),
		workers:  workers,
		cache:    cache,
		preparer: preparer,
		log:      log,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	wp.log.Info().Int("workers", wp.workers).Msg("starting preparation worker pool")
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (wp *WorkerPool) Stop() {
	wp.once.Do(func() {
		close(wp.jobs)
	})
	wp.wg.Wait()
}

// Enqueue schedules chunk preparation for filename and returns the job.
func (wp *WorkerPool) Enqueue(filename string) *Job {
	job := &Job{
		ID:         uuid.New().String(),
		Filename:   filename,
		EnqueuedAt: time.Now(),
	}
	wp.jobs <- job
	wp.log.Info().Str("job_id", job.ID).Str("filename", filename).Msg("preparation job enqueued")
	return job
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for job := range wp.jobs {
		wp.process(id, job)
	}
}

func (wp *WorkerPool) process(workerID int, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			wp.log.Error().
				Int("worker", workerID).
				Str("job_id", job.ID).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("panic while preparing chunks")
		}
	}()

	if _, err := wp.cache.GetOrCreate(context.Background(), job.Filename, wp.preparer); err != nil {
		wp.log.Error().Err(err).
			Int("worker", workerID).
			Str("filename", job.Filename).
			Msg("chunk preparation failed")
		return
	}
	wp.log.Info().
		Int("worker", workerID).
		Str("filename", job.Filename).
		Dur("queued_for", time.Since(job.EnqueuedAt)).
		Msg("chunks prepared")
}
