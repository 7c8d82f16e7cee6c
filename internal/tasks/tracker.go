package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/services"
	"github.com/desertthunder/vgen/internal/shared"
)

// UpscaleAPI is the subset of the backend a [TaskTracker] needs.
type UpscaleAPI interface {
	StartUpscale(ctx context.Context, videoIDs []string, quality models.Quality) (*models.UpscaleStartResponse, error)
	GetUpscaleStatus(ctx context.Context, taskID string) (*models.UpscaleStatus, error)
}

// Resyncer is notified when a task completes so fresh media is fetched at once.
type Resyncer interface {
	Resync()
}

// TaskStore records tasks that reached a terminal state.
//
// Store errors are logged and never change the task outcome.
type TaskStore interface {
	SaveTask(ctx context.Context, jobID string, task models.UpscaleTask) error
}

// TrackerOptions configures a [TaskTracker]. Zero values use the defaults.
type TrackerOptions struct {
	JobID              string
	Interval           time.Duration // status poll cadence, default 1s
	MaxPolls           int           // poll cycles before timing out, default 600
	FailureNoticeEvery int           // consecutive failures per visible notice, default 10
	SimulationInterval time.Duration // simulated ramp tick, default 300ms
	Resyncer           Resyncer
	Store              TaskStore
	Logger             *log.Logger
	Updates            chan<- ProgressUpdate
}

// TaskTracker follows one upscale operation from start to a terminal state.
//
// States move idle -> running -> completed, failed or timed_out. Only an idle tracker can start;
// [TaskTracker.Reset] returns a finished tracker to idle. When the backend returns no task id the
// tracker runs in [models.ModeSimulated] and fabricates a linear ramp that always completes.
type TaskTracker struct {
	api    UpscaleAPI
	opts   TrackerOptions
	logger *log.Logger

	mu       sync.Mutex
	task     models.UpscaleTask
	run      int // incremented per Start; callbacks from older runs are ignored
	polls    int
	failures int
	poller   *Poller[*models.UpscaleStatus]
	sim      *Poller[struct{}]
	done     chan struct{}
}

// NewTaskTracker returns an idle tracker.
func NewTaskTracker(api UpscaleAPI, opts TrackerOptions) *TaskTracker {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 600
	}
	if opts.FailureNoticeEvery <= 0 {
		opts.FailureNoticeEvery = 10
	}
	if opts.SimulationInterval <= 0 {
		opts.SimulationInterval = 300 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	done := make(chan struct{})
	close(done)
	return &TaskTracker{
		api:    api,
		opts:   opts,
		logger: shared.WithLogger(opts.Logger, "component", "tracker"),
		task:   models.UpscaleTask{Status: models.TaskIdle},
		done:   done,
	}
}

// Snapshot returns a copy of the tracked task.
func (t *TaskTracker) Snapshot() models.UpscaleTask {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *TaskTracker) snapshotLocked() models.UpscaleTask {
	task := t.task
	task.VideoIDs = slices.Clone(t.task.VideoIDs)
	task.Log = slices.Clone(t.task.Log)
	return task
}

// State returns the current state.
func (t *TaskTracker) State() models.TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.task.Status
}

// Done is closed when the current run reaches a terminal state or is closed.
func (t *TaskTracker) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Start requests an upscale of videoIDs and begins tracking it.
//
// It fails with [shared.ErrTaskRunning] while a task runs and [shared.ErrTaskNotIdle] before [TaskTracker.Reset].
// A rejected or failed request leaves the tracker in [models.TaskFailed].
func (t *TaskTracker) Start(ctx context.Context, videoIDs []string, quality models.Quality) error {
	preset, ok := quality.Preset()
	if !ok {
		return fmt.Errorf("%w: %q", shared.ErrInvalidQuality, quality)
	}
	if len(videoIDs) == 0 {
		return shared.ErrNoSelection
	}

	t.mu.Lock()
	switch t.task.Status {
	case models.TaskIdle:
	case models.TaskRunning:
		t.mu.Unlock()
		return shared.ErrTaskRunning
	default:
		t.mu.Unlock()
		return shared.ErrTaskNotIdle
	}
	t.run++
	run := t.run
	t.polls, t.failures = 0, 0
	t.done = make(chan struct{})
	t.task = models.UpscaleTask{
		Status:      models.TaskRunning,
		Quality:     quality,
		VideoIDs:    slices.Clone(videoIDs),
		TotalVideos: len(videoIDs),
		StartedAt:   time.Now(),
	}
	t.appendLocked(fmt.Sprintf("Starting upscaling process for %d video(s)", len(videoIDs)), models.SeverityInfo)
	t.appendLocked(fmt.Sprintf("Quality preset: %s (CRF %d)", preset.Label, preset.CRF), models.SeverityInfo)
	t.mu.Unlock()
	t.emit()

	resp, err := t.api.StartUpscale(ctx, videoIDs, quality)

	t.mu.Lock()
	if run != t.run || t.task.Status != models.TaskRunning {
		t.mu.Unlock()
		return fmt.Errorf("%w: tracker closed while starting", shared.ErrTaskNotIdle)
	}
	if err != nil {
		t.failLocked(startErrorMessage(err))
		t.mu.Unlock()
		t.finish()
		return fmt.Errorf("%w: %w", shared.ErrTaskFailed, err)
	}

	if resp.TaskID == "" {
		t.task.Mode = models.ModeSimulated
		t.logger.Warn("backend returned no task id; simulating progress", "videos", len(videoIDs))
		t.appendLocked("Processing videos...", models.SeverityInfo)
		sim := NewPoller(func(context.Context) (struct{}, error) { return struct{}{}, nil },
			t.opts.SimulationInterval,
			func(struct{}) { t.simulateStep(run) },
			nil)
		t.sim = sim
		t.mu.Unlock()
		t.emit()
		return sim.Start(context.WithoutCancel(ctx))
	}

	t.task.Mode = models.ModeServer
	t.task.TaskID = resp.TaskID
	t.logger.Info("tracking upscale task", "task", resp.TaskID, "videos", len(videoIDs))
	t.appendLocked("Task ID: "+resp.TaskID, models.SeveritySuccess)
	t.appendLocked("Upscaling started...", models.SeverityInfo)
	taskID := resp.TaskID
	poller := NewPoller(
		func(ctx context.Context) (*models.UpscaleStatus, error) { return t.api.GetUpscaleStatus(ctx, taskID) },
		t.opts.Interval,
		func(st *models.UpscaleStatus) { t.onStatus(run, st) },
		func(err error) { t.onPollError(run, err) },
	)
	t.poller = poller
	t.mu.Unlock()
	t.emit()

	// Polling outlives the request context; only Close stops it.
	return poller.Start(context.WithoutCancel(ctx))
}

func startErrorMessage(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}

func (t *TaskTracker) onStatus(run int, st *models.UpscaleStatus) {
	t.mu.Lock()
	if run != t.run || t.task.Status != models.TaskRunning {
		t.mu.Unlock()
		return
	}
	t.failures = 0
	t.polls++

	t.task.Progress = st.Progress
	t.task.CurrentVideoIndex = st.CurrentVideoIndex
	if st.TotalVideos > 0 {
		t.task.TotalVideos = st.TotalVideos
	}
	if len(st.Logs) > len(t.task.Log) {
		t.task.Log = slices.Clone(st.Logs)
	}

	switch st.Status {
	case "completed":
		t.completeLocked()
	case "failed":
		msg := st.ErrorMessage
		if msg == "" {
			msg = "Upscaling failed"
		}
		t.failLocked(msg)
	default:
		t.checkBudgetLocked()
	}
	terminal := t.task.Status.Terminal()
	t.mu.Unlock()

	if terminal {
		t.finish()
		return
	}
	t.emit()
}

func (t *TaskTracker) onPollError(run int, err error) {
	t.mu.Lock()
	if run != t.run || t.task.Status != models.TaskRunning {
		t.mu.Unlock()
		return
	}
	t.polls++
	t.failures++
	if t.failures%t.opts.FailureNoticeEvery == 0 {
		t.logger.Warn("status polls failing", "task", t.task.TaskID, "consecutive", t.failures, "err", err)
		t.appendLocked("Still processing...", models.SeverityWarning)
	} else {
		t.logger.Debug("status poll failed", "consecutive", t.failures, "err", err)
	}
	t.checkBudgetLocked()
	terminal := t.task.Status.Terminal()
	t.mu.Unlock()

	if terminal {
		t.finish()
		return
	}
	t.emit()
}

// checkBudgetLocked times the task out once MaxPolls cycles passed without a terminal status.
func (t *TaskTracker) checkBudgetLocked() {
	if t.polls < t.opts.MaxPolls {
		return
	}
	t.logger.Error("upscale task timed out", "task", t.task.TaskID, "polls", t.polls)
	t.appendLocked("Timeout: Upscaling took too long", models.SeverityError)
	t.task.ErrorMessage = fmt.Sprintf("no terminal status after %d polls", t.polls)
	t.task.Status = models.TaskTimedOut
	t.task.FinishedAt = time.Now()
	t.stopPollingLocked()
}

func (t *TaskTracker) simulateStep(run int) {
	t.mu.Lock()
	if run != t.run || t.task.Status != models.TaskRunning {
		t.mu.Unlock()
		return
	}
	n := t.task.TotalVideos
	t.task.Progress += 100 / float64(n*10)
	if t.task.Progress >= 100-1e-9 {
		t.completeLocked()
		t.mu.Unlock()
		t.finish()
		return
	}
	if current := int(math.Floor(t.task.Progress / 100 * float64(n))); current > t.task.CurrentVideoIndex {
		t.task.CurrentVideoIndex = current
		t.appendLocked(fmt.Sprintf("Upscaling video %d/%d...", current, n), models.SeverityInfo)
	}
	t.mu.Unlock()
	t.emit()
}

func (t *TaskTracker) completeLocked() {
	n := t.task.TotalVideos
	t.task.Progress = 100
	t.task.CurrentVideoIndex = n
	t.task.Status = models.TaskCompleted
	t.task.FinishedAt = time.Now()
	t.appendLocked("Upscaling complete! ✓", models.SeveritySuccess)
	t.appendLocked(fmt.Sprintf("All %d video(s) upscaled to 4K", n), models.SeveritySuccess)
	t.appendLocked("Videos are now available for download", models.SeverityInfo)
	t.stopPollingLocked()
	t.logger.Info("upscale task completed", "task", t.task.TaskID, "videos", n, "mode", t.task.Mode)
}

func (t *TaskTracker) failLocked(msg string) {
	t.task.Status = models.TaskFailed
	t.task.ErrorMessage = msg
	t.task.FinishedAt = time.Now()
	t.appendLocked("Error: "+msg, models.SeverityError)
	t.stopPollingLocked()
	t.logger.Error("upscale task failed", "task", t.task.TaskID, "err", msg)
}

func (t *TaskTracker) stopPollingLocked() {
	if t.poller != nil {
		t.poller.Stop()
	}
	if t.sim != nil {
		t.sim.Stop()
	}
}

func (t *TaskTracker) appendLocked(msg string, sev models.Severity) {
	t.task.Log = append(t.task.Log, models.NewLogEntry(msg, sev))
}

// finish runs terminal side effects outside the lock, then releases Done waiters.
func (t *TaskTracker) finish() {
	t.mu.Lock()
	task := t.snapshotLocked()
	run := t.run
	t.mu.Unlock()

	if task.Status == models.TaskCompleted && t.opts.Resyncer != nil {
		t.opts.Resyncer.Resync()
	}
	if t.opts.Store != nil {
		if err := t.opts.Store.SaveTask(context.Background(), t.opts.JobID, task); err != nil {
			t.logger.Debug("task not recorded", "err", err)
		}
	}
	sendProgress(t.opts.Updates, upscaleUpdate(task))

	t.mu.Lock()
	if run == t.run {
		t.closeDoneLocked()
	}
	t.mu.Unlock()
}

func (t *TaskTracker) closeDoneLocked() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

func (t *TaskTracker) emit() {
	sendProgress(t.opts.Updates, upscaleUpdate(t.Snapshot()))
}

// Close discards the task. While running it asks confirm first and returns false when refused.
//
// Closing stops local polling only; the server-side task keeps running.
func (t *TaskTracker) Close(confirm func() bool) bool {
	t.mu.Lock()
	running := t.task.Status == models.TaskRunning
	t.mu.Unlock()

	if running && (confirm == nil || !confirm()) {
		return false
	}

	t.mu.Lock()
	if running {
		t.logger.Warn("tracking stopped while task still running on server", "task", t.task.TaskID)
	}
	t.stopPollingLocked()
	t.run++
	t.task = models.UpscaleTask{Status: models.TaskIdle}
	t.closeDoneLocked()
	t.mu.Unlock()
	return true
}

// Reset returns a finished tracker to idle so a new task can start.
func (t *TaskTracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.task.Status == models.TaskRunning {
		return shared.ErrTaskRunning
	}
	t.task = models.UpscaleTask{Status: models.TaskIdle}
	return nil
}
