package tasks

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/shared"
)

// recentErrorLimit is how many non-retryable failures a job view lists before summarizing the rest.
const recentErrorLimit = 3

// JobAPI is the subset of the backend a [JobSync] needs.
type JobAPI interface {
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	GetJobVideos(ctx context.Context, jobID string) ([]models.Video, error)
	SetVideoSelected(ctx context.Context, videoID string, selected bool) error
}

// SnapshotStore persists applied job snapshots.
//
// Store errors are logged and never interrupt synchronization.
type SnapshotStore interface {
	SaveJobSnapshot(ctx context.Context, job models.Job, videos []models.Video) error
}

// JobSyncOptions configures a [JobSync]. Zero values use the defaults.
type JobSyncOptions struct {
	Interval   time.Duration // default 5s
	NotifyRate float64       // remote mark-selected calls per second, default 5
	Store      SnapshotStore
	Logger     *log.Logger
	Updates    chan<- ProgressUpdate
}

// JobView is an immutable picture of one job as the client currently sees it.
type JobView struct {
	Job          models.Job
	Loaded       bool
	Groups       []models.PromptGroup
	CompletedIDs []string // display order, the sequence range selection indexes into
	Selected     []string // display order
	RecentErrors []models.Video
	MoreErrors   int
	FolderName   string
	LastError    error
	SyncedAt     time.Time
}

// AllSelected reports whether every completed video is selected.
func (v JobView) AllSelected() bool {
	return len(v.CompletedIDs) > 0 && len(v.Selected) == len(v.CompletedIDs)
}

// IsSelected reports whether id is in the selection.
func (v JobView) IsSelected(id string) bool {
	return slices.Contains(v.Selected, id)
}

// VideoAt returns the video at a flattened display position.
func (v JobView) VideoAt(pos int) (models.Video, bool) {
	if pos < 0 {
		return models.Video{}, false
	}
	for _, g := range v.Groups {
		if pos < len(g.Videos) {
			return g.Videos[pos], true
		}
		pos -= len(g.Videos)
	}
	return models.Video{}, false
}

// Videos returns every video in display order.
func (v JobView) Videos() []models.Video {
	var out []models.Video
	for _, g := range v.Groups {
		out = append(out, g.Videos...)
	}
	return out
}

type jobSnapshot struct {
	job    *models.Job
	videos []models.Video
}

// JobSync keeps one job and its videos consistent with the backend while a view of it is open.
//
// Each poll fetches the job and its videos concurrently and applies them together or not at all.
// The selection is owned here: user toggles mutate it and every applied snapshot prunes it to completed videos.
type JobSync struct {
	api      JobAPI
	jobID    string
	interval time.Duration
	store    SnapshotStore
	logger   *log.Logger
	updates  chan<- ProgressUpdate
	limiter  *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	poller *Poller[jobSnapshot]

	notify     chan SelectionChange
	notifyOnce sync.Once
	notifyWG   sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	job        *models.Job
	videos     []models.Video
	groups     []models.PromptGroup
	completed  []string
	selection  *SelectionSet
	folderName string
	folderSet  bool
	lastErr    error
	syncedAt   time.Time
}

// NewJobSync builds an idle engine for jobID. Call Start to begin polling.
func NewJobSync(api JobAPI, jobID string, opts JobSyncOptions) *JobSync {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.NotifyRate <= 0 {
		opts.NotifyRate = 5
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &JobSync{
		api:       api,
		jobID:     jobID,
		interval:  opts.Interval,
		store:     opts.Store,
		logger:    shared.WithLogger(opts.Logger, "component", "jobsync", "job", jobID),
		updates:   opts.Updates,
		limiter:   rate.NewLimiter(rate.Limit(opts.NotifyRate), 1),
		ctx:       ctx,
		cancel:    cancel,
		notify:    make(chan SelectionChange, 256),
		selection: NewSelectionSet(),
	}
	e.poller = NewPoller(e.fetch, e.interval, e.onSnapshot, e.onError)
	return e
}

// JobID returns the synchronized job id.
func (e *JobSync) JobID() string { return e.jobID }

// Start begins polling; the first fetch is issued immediately.
func (e *JobSync) Start(ctx context.Context) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return shared.ErrPollerStopped
	}
	return e.poller.Start(ctx)
}

// Resync requests an immediate fetch without waiting for the next tick.
func (e *JobSync) Resync() {
	e.poller.Trigger()
}

// Stop ends polling and discards any in-flight snapshot. No state changes after Stop returns.
func (e *JobSync) Stop() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.poller.Stop()
	e.cancel()
}

// Wait blocks until the polling goroutine and the selection notifier have exited. Call after Stop.
func (e *JobSync) Wait() {
	<-e.poller.Done()
	e.notifyWG.Wait()
}

// SyncOnce fetches and applies one snapshot synchronously.
func (e *JobSync) SyncOnce(ctx context.Context) (JobView, error) {
	snap, err := e.fetch(ctx)
	if err != nil {
		e.onError(err)
		return e.View(), err
	}
	e.Apply(snap.job, snap.videos)
	return e.View(), nil
}

func (e *JobSync) fetch(ctx context.Context) (jobSnapshot, error) {
	var snap jobSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		job, err := e.api.GetJob(gctx, e.jobID)
		if err != nil {
			return err
		}
		snap.job = job
		return nil
	})
	g.Go(func() error {
		videos, err := e.api.GetJobVideos(gctx, e.jobID)
		if err != nil {
			return err
		}
		snap.videos = videos
		return nil
	})
	if err := g.Wait(); err != nil {
		return jobSnapshot{}, fmt.Errorf("sync job %s: %w", e.jobID, err)
	}
	return snap, nil
}

func (e *JobSync) onSnapshot(snap jobSnapshot) {
	e.Apply(snap.job, snap.videos)
}

func (e *JobSync) onError(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.lastErr = err
	e.mu.Unlock()

	e.logger.Debug("snapshot discarded", "err", err)
	sendProgress(e.updates, syncJobFailedUpdate(e.jobID, err))
}

// Apply reconciles a snapshot into the view state and reports whether it was applied.
//
// The job and videos are replaced wholesale; the selection keeps only ids that are present and completed.
// Applying the same snapshot twice leaves the same state as applying it once.
func (e *JobSync) Apply(job *models.Job, videos []models.Video) bool {
	if job == nil {
		return false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}

	j := *job
	e.job = &j
	e.videos = slices.Clone(videos)
	e.groups = groupVideos(e.videos)
	e.completed = completedOrder(e.groups)
	if removed := e.selection.Prune(e.completed); len(removed) > 0 {
		e.logger.Debug("pruned selection", "removed", len(removed))
	}
	if !e.folderSet && j.Name != "" {
		e.folderName = j.FolderName()
		e.folderSet = true
	}
	e.lastErr = nil
	e.syncedAt = time.Now()
	view := e.viewLocked()
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveJobSnapshot(e.ctx, j, videos); err != nil {
			e.logger.Debug("snapshot not recorded", "err", err)
		}
	}
	sendProgress(e.updates, syncJobUpdate(view))
	return true
}

// View returns the current state.
func (e *JobSync) View() JobView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *JobSync) viewLocked() JobView {
	view := JobView{
		Groups:       e.groups,
		CompletedIDs: e.completed,
		Selected:     e.selection.IDs(e.completed),
		FolderName:   e.folderName,
		LastError:    e.lastErr,
		SyncedAt:     e.syncedAt,
	}
	if e.job != nil {
		view.Job = *e.job
		view.Loaded = true
	}
	view.RecentErrors, view.MoreErrors = recentErrors(e.groups)
	return view
}

// SetFolderName overrides the download folder name. It is never replaced by later snapshots.
func (e *JobSync) SetFolderName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.folderName = name
	e.folderSet = true
}

// Toggle flips the selection of a completed video and moves the range anchor to it.
func (e *JobSync) Toggle(videoID string) (bool, error) {
	e.mu.Lock()
	idx := slices.Index(e.completed, videoID)
	if idx < 0 {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: video %s is not completed", shared.ErrInvalidInput, videoID)
	}
	change := e.selection.Toggle(videoID, idx)
	e.mu.Unlock()

	e.publish([]SelectionChange{change})
	return change.Selected, nil
}

// ExtendTo selects every completed video between the anchor and videoID.
//
// Without an anchor it behaves like [JobSync.Toggle]. It returns the ids newly added.
func (e *JobSync) ExtendTo(videoID string) ([]string, error) {
	e.mu.Lock()
	idx := slices.Index(e.completed, videoID)
	if idx < 0 {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: video %s is not completed", shared.ErrInvalidInput, videoID)
	}
	changes, ok := e.selection.ExtendTo(idx, e.completed)
	if !ok {
		changes = []SelectionChange{e.selection.Toggle(videoID, idx)}
	}
	e.mu.Unlock()

	e.publish(changes)
	added := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.Selected {
			added = append(added, c.VideoID)
		}
	}
	return added, nil
}

// ToggleAll selects every completed video, or clears the selection when all are already selected.
// The anchor is cleared either way. The backend is not notified.
func (e *JobSync) ToggleAll() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.completed) > 0 && e.selection.Len() == len(e.completed) {
		e.selection.Clear()
		return false
	}
	e.selection.SelectAll(e.completed)
	return len(e.completed) > 0
}

// SelectAll selects exactly the completed videos.
func (e *JobSync) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.SelectAll(e.completed)
}

// ClearSelection empties the selection.
func (e *JobSync) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Clear()
}

// ToggleGroup selects the completed videos of one prompt, or deselects them when all are already selected.
func (e *JobSync) ToggleGroup(promptNumber int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, g := range e.groups {
		if g.PromptNumber != promptNumber {
			continue
		}
		ids := g.CompletedIDs()
		if len(ids) == 0 {
			return false, nil
		}
		all := true
		for _, id := range ids {
			if !e.selection.Has(id) {
				all = false
				break
			}
		}
		if all {
			e.selection.Remove(ids...)
			return false, nil
		}
		e.selection.Add(ids...)
		return true, nil
	}
	return false, fmt.Errorf("%w: no prompt %d", shared.ErrInvalidInput, promptNumber)
}

// SelectedIDs returns the selection in display order.
func (e *JobSync) SelectedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.IDs(e.completed)
}

// publish mirrors selection changes to the backend. Delivery is best effort and throttled.
func (e *JobSync) publish(changes []SelectionChange) {
	if len(changes) == 0 {
		return
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.notifyOnce.Do(func() {
		e.notifyWG.Add(1)
		go e.notifyLoop()
	})
	for _, c := range changes {
		select {
		case e.notify <- c:
		default:
			e.logger.Warn("selection notification dropped", "video", c.VideoID)
		}
	}
}

func (e *JobSync) notifyLoop() {
	defer e.notifyWG.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case c := <-e.notify:
			if err := e.limiter.Wait(e.ctx); err != nil {
				return
			}
			if err := e.api.SetVideoSelected(e.ctx, c.VideoID, c.Selected); err != nil {
				e.logger.Debug("selection not mirrored", "video", c.VideoID, "selected", c.Selected, "err", err)
			}
		}
	}
}

// groupVideos partitions videos by prompt number, ascending, keeping server order inside each group.
func groupVideos(videos []models.Video) []models.PromptGroup {
	byPrompt := map[int]*models.PromptGroup{}
	var numbers []int
	for _, v := range videos {
		g, ok := byPrompt[v.PromptNumber]
		if !ok {
			g = &models.PromptGroup{PromptNumber: v.PromptNumber, PromptText: v.PromptText, ImageFilename: v.ImageFilename}
			byPrompt[v.PromptNumber] = g
			numbers = append(numbers, v.PromptNumber)
		}
		g.Videos = append(g.Videos, v)
	}
	sort.Ints(numbers)

	groups := make([]models.PromptGroup, 0, len(numbers))
	for _, n := range numbers {
		groups = append(groups, *byPrompt[n])
	}
	return groups
}

func completedOrder(groups []models.PromptGroup) []string {
	var ids []string
	for _, g := range groups {
		ids = append(ids, g.CompletedIDs()...)
	}
	return ids
}

func recentErrors(groups []models.PromptGroup) ([]models.Video, int) {
	var failed []models.Video
	for _, g := range groups {
		for _, v := range g.Videos {
			if v.Status == models.VideoFailed && !ClassifyVideo(v).Retryable {
				failed = append(failed, v)
			}
		}
	}
	if len(failed) <= recentErrorLimit {
		return failed, 0
	}
	return failed[:recentErrorLimit], len(failed) - recentErrorLimit
}
