package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/vgen/internal/models"
)

var errBoom = errors.New("boom")

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func waitDone(t *testing.T, done <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("not done within %s", timeout)
	}
}

// fakeJobAPI serves a mutable job snapshot.
type fakeJobAPI struct {
	mu         sync.Mutex
	job        *models.Job
	videos     []models.Video
	jobErr     error
	videosErr  error
	selectErr  error
	jobCalls   int
	videoCalls int
	selects    []SelectionChange
}

func newFakeJobAPI(job models.Job, videos ...models.Video) *fakeJobAPI {
	return &fakeJobAPI{job: &job, videos: videos}
}

func (f *fakeJobAPI) set(job models.Job, videos ...models.Video) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.job = &job
	f.videos = videos
}

func (f *fakeJobAPI) fail(jobErr, videosErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobErr, f.videosErr = jobErr, videosErr
}

func (f *fakeJobAPI) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobCalls++
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	j := *f.job
	return &j, nil
}

func (f *fakeJobAPI) GetJobVideos(ctx context.Context, jobID string) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoCalls++
	if f.videosErr != nil {
		return nil, f.videosErr
	}
	return append([]models.Video(nil), f.videos...), nil
}

func (f *fakeJobAPI) SetVideoSelected(ctx context.Context, videoID string, selected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects = append(f.selects, SelectionChange{VideoID: videoID, Selected: selected})
	return f.selectErr
}

func (f *fakeJobAPI) selectCalls() []SelectionChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SelectionChange(nil), f.selects...)
}

func (f *fakeJobAPI) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobCalls, f.videoCalls
}

func completed(id string, prompt int) models.Video {
	return models.Video{ID: id, PromptNumber: prompt, Status: models.VideoCompleted}
}

func withStatus(v models.Video, st models.VideoStatus) models.Video {
	v.Status = st
	return v
}
