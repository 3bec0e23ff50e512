package download

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueValidatesURL(t *testing.T) {
	q := NewQueue(nil, slog.New(slog.DiscardHandler))

	for _, bad := range []string{"", "not a url", "ftp://example.com/x", "http://"} {
		_, err := q.Enqueue(context.Background(), bad)
		assert.Error(t, err, bad)
	}

	job, err := q.Enqueue(context.Background(), "https://example.com/video.mp4")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, job.Status)
	assert.NotEmpty(t, job.ID)
}

func TestJobsNewestFirst(t *testing.T) {
	q := NewQueue(nil, slog.New(slog.DiscardHandler))

	_, err := q.Enqueue(context.Background(), "https://example.com/a.mp4")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := q.Enqueue(context.Background(), "https://example.com/b.mp4")
	require.NoError(t, err)

	jobs := q.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
}

type stubFetcher struct {
	mu   sync.Mutex
	urls []string
	done chan struct{}
}

func (f *stubFetcher) Fetch(_ context.Context, url string) error {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func TestWorkerDrainsQueue(t *testing.T) {
	fetcher := &stubFetcher{done: make(chan struct{}, 1)}
	q := NewQueue(fetcher, slog.New(slog.DiscardHandler))
	defer q.Shutdown()

	job, err := q.Enqueue(context.Background(), "https://example.com/a.mp4")
	require.NoError(t, err)

	select {
	case <-fetcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never fetched the job")
	}

	// Status flips to done once the fetch returns.
	assert.Eventually(t, func() bool {
		for _, j := range q.Jobs() {
			if j.ID == job.ID && j.Status == StatusDone {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
