// Package download implements the queue a paired device uses to hand URLs to
// the vault for fetching. Jobs are processed by a single worker goroutine;
// the actual fetch is pluggable.
package download

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/mediavaultapp/companion-server/internal/domain"
	"github.com/mediavaultapp/companion-server/internal/errors"
	"github.com/mediavaultapp/companion-server/internal/id"
	"github.com/mediavaultapp/companion-server/internal/library"
)

// Job statuses.
const (
	StatusQueued   = "queued"
	StatusFetching = "fetching"
	StatusDone     = "done"
	StatusFailed   = "failed"
)

// Fetcher performs the actual retrieval of a queued URL. A nil fetcher leaves
// jobs queued, which is how the server runs when the desktop downloader owns
// fetching.
type Fetcher interface {
	Fetch(ctx context.Context, url string) error
}

// Queue is an in-process download queue.
type Queue struct {
	logger  *slog.Logger
	fetcher Fetcher

	mu   sync.Mutex
	jobs map[string]*domain.DownloadJob

	work   chan string
	done   chan struct{}
	closed sync.Once
}

var _ library.DownloadQueue = (*Queue)(nil)

// NewQueue creates a queue. If fetcher is non-nil a worker goroutine starts
// draining jobs immediately.
func NewQueue(fetcher Fetcher, logger *slog.Logger) *Queue {
	q := &Queue{
		logger:  logger,
		fetcher: fetcher,
		jobs:    make(map[string]*domain.DownloadJob),
		work:    make(chan string, 64),
		done:    make(chan struct{}),
	}
	if fetcher != nil {
		go q.worker()
	}
	return q
}

// Enqueue validates and queues a URL, returning the created job.
func (q *Queue) Enqueue(ctx context.Context, rawURL string) (*domain.DownloadJob, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Validation("url must be a valid http or https URL")
	}

	jobID, err := id.Generate("dl")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate job id")
	}

	job := &domain.DownloadJob{
		ID:          jobID,
		URL:         rawURL,
		Status:      StatusQueued,
		RequestedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	if q.fetcher != nil {
		select {
		case q.work <- job.ID:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	q.logger.Info("Download queued", "job_id", job.ID, "url", rawURL)

	return q.snapshot(job.ID), nil
}

// Jobs returns all jobs, newest first.
func (q *Queue) Jobs() []*domain.DownloadJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*domain.DownloadJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		copied := *job
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out
}

// Shutdown stops the worker. Queued jobs are abandoned.
func (q *Queue) Shutdown() error {
	q.closed.Do(func() { close(q.done) })
	return nil
}

func (q *Queue) worker() {
	for {
		select {
		case <-q.done:
			return
		case jobID := <-q.work:
			q.process(jobID)
		}
	}
}

func (q *Queue) process(jobID string) {
	job := q.snapshot(jobID)
	if job == nil {
		return
	}

	q.setStatus(jobID, StatusFetching)

	if err := q.fetcher.Fetch(context.Background(), job.URL); err != nil {
		q.setStatus(jobID, StatusFailed)
		q.logger.Warn("Download failed", "job_id", jobID, "error", err)
		return
	}

	q.setStatus(jobID, StatusDone)
	q.logger.Info("Download finished", "job_id", jobID)
}

func (q *Queue) setStatus(jobID, status string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[jobID]; ok {
		job.Status = status
	}
}

func (q *Queue) snapshot(jobID string) *domain.DownloadJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
