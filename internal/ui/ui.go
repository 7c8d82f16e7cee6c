package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/shared"
	"github.com/desertthunder/vgen/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	JobDetailView
	UpscaleView
	InputView
)

type inputKind int

const (
	inputFolder inputKind = iota
	inputPrompt
)

const logLines = 8

// Backend is every backend operation the TUI drives.
type Backend interface {
	tasks.JobAPI
	tasks.UpscaleAPI
	tasks.JobLister
	tasks.Downloader
	RegenerateVideo(ctx context.Context, videoID, newPrompt string) error
}

// Options configures a [Model].
type Options struct {
	Config    *shared.Config
	Snapshots tasks.SnapshotStore // optional job history
	Tasks     tasks.TaskStore     // optional task history
	Logger    *log.Logger
	JobID     string // open this job directly instead of the dashboard
	Browser   func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	backend Backend
	opts    Options
	cfg     *shared.Config
	logger  *log.Logger
	view    ViewState
	width   int
	height  int

	updates   chan tasks.ProgressUpdate
	dashboard *tasks.Poller[[]models.Job]
	jobList   list.Model

	sync   *tasks.JobSync
	job    tasks.JobView
	cursor int

	tracker      *tasks.TaskTracker
	task         models.UpscaleTask
	qualityList  list.Model
	confirmClose bool
	starting     bool

	input       textinput.Model
	inputKind   inputKind
	inputTarget string
	returnTo    ViewState

	bar     progress.Model
	spinner spinner.Model
	status  string
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, backend Backend, opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	jobList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	jobList.Title = "Generation Jobs"
	jobList.SetShowHelp(false)

	qualityList := list.New(qualityItems(), list.NewDefaultDelegate(), 0, 0)
	qualityList.Title = "Upscale Quality"
	qualityList.SetShowHelp(false)
	qualityList.SetFilteringEnabled(false)
	qualityList.Select(1)

	input := textinput.New()
	input.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:         ctx,
		backend:     backend,
		opts:        opts,
		cfg:         cfg,
		logger:      shared.WithLogger(logger, "component", "ui"),
		view:        DashboardView,
		updates:     make(chan tasks.ProgressUpdate, 64),
		jobList:     jobList,
		qualityList: qualityList,
		input:       input,
		bar:         progress.New(progress.WithDefaultGradient()),
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the dashboard poller, or opens the configured job directly.
func (m *Model) Init() tea.Cmd {
	if m.opts.JobID != "" {
		m.openJob(m.opts.JobID)
	} else {
		m.startDashboard()
	}
	return tea.Batch(m.waitForProgress(), m.spinner.Tick)
}

// Shutdown stops every background poller. It is safe to call more than once.
func (m *Model) Shutdown() {
	m.stopDashboard()
	m.closeJob()
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.jobList.SetSize(msg.Width-4, msg.Height-6)
		m.qualityList.SetSize(msg.Width-4, 12)
		m.bar.Width = max(msg.Width-20, 10)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Shutdown()
			return m, tea.Quit
		}
		switch m.view {
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case JobDetailView:
			return m.handleJobKeys(msg)
		case UpscaleView:
			return m.handleUpscaleKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		if bar, ok := model.(progress.Model); ok {
			m.bar = bar
		}
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		if update, ok := msg.data.(tasks.ProgressUpdate); ok {
			m.applyUpdate(update)
		}
		return m, m.waitForProgress()

	case MsgUpscaleStarted:
		m.starting = false
		if err, _ := msg.data.(error); err != nil {
			m.status = fmt.Sprintf("Upscale failed to start: %v", err)
		}
		if m.tracker != nil {
			m.task = m.tracker.Snapshot()
		}
		return m, nil

	case MsgDownloadComplete:
		res, _ := msg.data.(downloadResult)
		if res.err != nil {
			m.status = fmt.Sprintf("Download failed: %v", res.err)
		} else {
			m.status = fmt.Sprintf("Saved %s (%d bytes)", res.path, res.size)
		}
		return m, nil

	case MsgRegenerated:
		res, _ := msg.data.(regenerateResult)
		if res.err != nil {
			m.status = fmt.Sprintf("Regeneration failed: %v", res.err)
		} else {
			m.status = fmt.Sprintf("Regeneration requested for %s", res.videoID)
		}
		return m, nil

	case MsgActionFailed:
		if err, _ := msg.data.(error); err != nil {
			m.status = err.Error()
		}
		return m, nil
	}
	return m, nil
}

// applyUpdate routes a progress event to the view it belongs to. Events from pollers that were already
// stopped are dropped by checking the job id.
func (m *Model) applyUpdate(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.ListJobs:
		if jobs, ok := update.Data.([]models.Job); ok && m.dashboard != nil {
			m.jobList.SetItems(jobItems(jobs))
		}
	case tasks.SyncJob:
		if view, ok := update.Data.(tasks.JobView); ok && m.sync != nil && view.Job.ID == m.sync.JobID() {
			m.job = view
			m.clampCursor()
		}
	case tasks.SyncJobFailed:
		if m.sync != nil {
			m.job = m.sync.View()
		}
	case tasks.Upscale:
		if m.tracker != nil {
			m.task = m.tracker.Snapshot()
		}
	case tasks.DownloadVideos:
		m.status = update.Message
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-m.updates:
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) startDashboard() {
	poll := m.cfg.Polling
	m.dashboard = tasks.NewDashboardPoller(m.backend, poll.DashboardInterval(), poll.DashboardLimit, m.updates, m.logger)
	if err := m.dashboard.Start(m.ctx); err != nil {
		m.logger.Warn("dashboard poller did not start", "err", err)
	}
	m.view = DashboardView
}

func (m *Model) stopDashboard() {
	if m.dashboard != nil {
		m.dashboard.Stop()
		m.dashboard = nil
	}
}

func (m *Model) openJob(jobID string) {
	m.stopDashboard()

	poll := m.cfg.Polling
	m.sync = tasks.NewJobSync(m.backend, jobID, tasks.JobSyncOptions{
		Interval:   poll.JobInterval(),
		NotifyRate: m.cfg.Selection.NotifyRate,
		Store:      m.opts.Snapshots,
		Logger:     m.logger,
		Updates:    m.updates,
	})
	m.tracker = tasks.NewTaskTracker(m.backend, tasks.TrackerOptions{
		JobID:              jobID,
		Interval:           poll.TaskInterval(),
		MaxPolls:           poll.TaskMaxPolls,
		FailureNoticeEvery: poll.TaskFailureNoticeEvery,
		SimulationInterval: poll.SimulationInterval(),
		Resyncer:           m.sync,
		Store:              m.opts.Tasks,
		Logger:             m.logger,
		Updates:            m.updates,
	})
	if err := m.sync.Start(m.ctx); err != nil {
		m.status = err.Error()
	}

	m.job = tasks.JobView{Job: models.Job{ID: jobID}}
	m.task = m.tracker.Snapshot()
	m.cursor = 0
	m.status = ""
	m.view = JobDetailView
}

// closeJob tears down the job sync. A running upscale is left to the server.
func (m *Model) closeJob() {
	if m.tracker != nil {
		m.tracker.Close(func() bool { return true })
		m.tracker = nil
	}
	if m.sync != nil {
		m.sync.Stop()
		m.sync = nil
	}
	m.job = tasks.JobView{}
	m.task = models.UpscaleTask{}
	m.confirmClose = false
}

func (m *Model) backToDashboard() {
	m.closeJob()
	m.startDashboard()
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.jobList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.jobList, cmd = m.jobList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.Shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.jobList.SelectedItem().(jobItem); ok {
			m.openJob(item.job.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.jobList, cmd = m.jobList.Update(msg)
	return m, cmd
}

func (m *Model) currentVideo() (models.Video, bool) {
	return m.job.VideoAt(m.cursor)
}

func (m *Model) videoCount() int {
	n := 0
	for _, g := range m.job.Groups {
		n += len(g.Videos)
	}
	return n
}

func (m *Model) clampCursor() {
	n := m.videoCount()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) refreshJob() {
	if m.sync != nil {
		m.job = m.sync.View()
	}
}

func (m *Model) handleJobKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClose {
		return m.handleConfirmClose(msg, JobDetailView)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		if m.task.Status == models.TaskRunning {
			m.confirmClose = true
			return m, nil
		}
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		if m.task.Status == models.TaskRunning {
			m.confirmClose = true
			return m, nil
		}
		m.backToDashboard()
		return m, nil

	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.extendUp):
		m.moveCursor(-1)
		m.extendToCursor()
	case key.Matches(msg, m.keys.extendDown):
		m.moveCursor(1)
		m.extendToCursor()
	case key.Matches(msg, m.keys.extend):
		m.extendToCursor()

	case key.Matches(msg, m.keys.toggle):
		if v, ok := m.currentVideo(); ok {
			if _, err := m.sync.Toggle(v.ID); err != nil {
				m.status = "Only completed videos can be selected"
			}
			m.refreshJob()
		}

	case key.Matches(msg, m.keys.selectAll):
		m.sync.ToggleAll()
		m.refreshJob()
	case key.Matches(msg, m.keys.clear):
		m.sync.ClearSelection()
		m.refreshJob()
	case key.Matches(msg, m.keys.group):
		if v, ok := m.currentVideo(); ok {
			if _, err := m.sync.ToggleGroup(v.PromptNumber); err != nil {
				m.status = "No completed videos in this prompt"
			}
			m.refreshJob()
		}

	case key.Matches(msg, m.keys.resync):
		m.sync.Resync()
		m.status = "Refreshing..."

	case key.Matches(msg, m.keys.open):
		if v, ok := m.currentVideo(); ok {
			url := v.MediaURL()
			if url == "" {
				m.status = "No media available yet"
				return m, nil
			}
			return m, m.openBrowser(url)
		}

	case key.Matches(msg, m.keys.upscale):
		if len(m.job.Selected) == 0 {
			m.status = "Select at least one completed video first"
			return m, nil
		}
		if m.task.Status.Terminal() {
			_ = m.tracker.Reset()
			m.task = m.tracker.Snapshot()
		}
		m.view = UpscaleView
		return m, nil

	case key.Matches(msg, m.keys.download):
		if len(m.job.Selected) == 0 {
			m.status = "Select at least one completed video first"
			return m, nil
		}
		m.beginInput(inputFolder, "", m.job.FolderName, "Folder name")
		return m, textinput.Blink

	case key.Matches(msg, m.keys.regenerate):
		if v, ok := m.currentVideo(); ok {
			m.beginInput(inputPrompt, v.ID, v.PromptText, "Prompt")
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *Model) extendToCursor() {
	v, ok := m.currentVideo()
	if !ok || !v.Completed() {
		return
	}
	if _, err := m.sync.ExtendTo(v.ID); err != nil {
		m.status = err.Error()
	}
	m.refreshJob()
}

func (m *Model) handleConfirmClose(msg tea.KeyMsg, from ViewState) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.confirmClose = false
		if m.tracker != nil {
			m.tracker.Close(func() bool { return true })
			m.task = m.tracker.Snapshot()
		}
		m.status = "Stopped tracking; the upscale keeps running on the server"
		if from == UpscaleView {
			m.view = JobDetailView
		}
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.confirmClose = false
	}
	return m, nil
}

func (m *Model) selectedQuality() models.Quality {
	if item, ok := m.qualityList.SelectedItem().(qualityItem); ok {
		return item.preset.Quality
	}
	return models.QualityBalanced
}

func (m *Model) handleUpscaleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClose {
		return m.handleConfirmClose(msg, UpscaleView)
	}

	switch m.task.Status {
	case models.TaskIdle:
		switch {
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
			m.view = JobDetailView
			return m, nil
		case key.Matches(msg, m.keys.enter):
			if m.starting {
				return m, nil
			}
			m.starting = true
			return m, m.startUpscale(m.job.Selected, m.selectedQuality())
		}
		var cmd tea.Cmd
		m.qualityList, cmd = m.qualityList.Update(msg)
		return m, cmd

	case models.TaskRunning:
		if key.Matches(msg, m.keys.back) || key.Matches(msg, m.keys.quit) {
			m.confirmClose = true
		}
		return m, nil

	default:
		if key.Matches(msg, m.keys.back) || key.Matches(msg, m.keys.enter) || key.Matches(msg, m.keys.quit) {
			_ = m.tracker.Reset()
			m.task = m.tracker.Snapshot()
			m.view = JobDetailView
		}
		return m, nil
	}
}

func (m *Model) beginInput(kind inputKind, target, value, prompt string) {
	m.inputKind = kind
	m.inputTarget = target
	m.returnTo = m.view
	m.input.Reset()
	m.input.Prompt = prompt + ": "
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.view = InputView
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.view = m.returnTo
		return m, nil
	case tea.KeyEnter:
		m.input.Blur()
		m.view = m.returnTo
		value := strings.TrimSpace(m.input.Value())
		switch m.inputKind {
		case inputFolder:
			if value == "" {
				m.status = "Folder name cannot be empty"
				return m, nil
			}
			m.sync.SetFolderName(value)
			m.refreshJob()
			return m, m.download(m.job.Selected, m.job.FolderName)
		case inputPrompt:
			return m, m.regenerate(m.inputTarget, value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case DashboardView:
		m.jobList, cmd = m.jobList.Update(msg)
	case UpscaleView:
		m.qualityList, cmd = m.qualityList.Update(msg)
	case InputView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) startUpscale(ids []string, quality models.Quality) tea.Cmd {
	tracker := m.tracker
	return func() tea.Msg {
		return upscaleStartedMsg(tracker.Start(m.ctx, ids, quality))
	}
}

func (m *Model) download(ids []string, folder string) tea.Cmd {
	res, err := models.ParseResolution(m.cfg.Download.Resolution)
	if err != nil {
		res = models.Resolution720p
	}
	dir := m.cfg.Download.Directory
	return func() tea.Msg {
		path, n, err := tasks.DownloadArchive(m.ctx, m.backend, ids, folder, res, dir, m.updates)
		return downloadCompleteMsg(path, n, err)
	}
}

func (m *Model) regenerate(videoID, prompt string) tea.Cmd {
	sync := m.sync
	return func() tea.Msg {
		err := m.backend.RegenerateVideo(m.ctx, videoID, prompt)
		if err == nil && sync != nil {
			sync.Resync()
		}
		return regeneratedMsg(videoID, err)
	}
}

func (m *Model) openBrowser(url string) tea.Cmd {
	open := m.opts.Browser
	return func() tea.Msg {
		if err := open(url); err != nil {
			return actionFailedMsg(fmt.Errorf("failed to open browser: %w", err))
		}
		return nil
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DashboardView:
		return m.renderDashboard()
	case JobDetailView:
		return m.renderJob()
	case UpscaleView:
		return m.renderUpscale()
	case InputView:
		return m.renderInput()
	default:
		return ""
	}
}

func (m *Model) renderDashboard() string {
	body := m.jobList.View()
	if len(m.jobList.Items()) == 0 {
		body = styles.title.Render("Generation Jobs") + "\n" + m.spinner.View() + " Loading jobs..."
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	return "\n" + styles.warn.Render(m.status)
}

func (m *Model) renderConfirm() string {
	return styles.frame.Render(
		styles.warn.Render("An upscale is still running.") + "\n" +
			"Stop tracking it? The server keeps working on it.\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}),
	)
}

func (m *Model) renderJob() string {
	var b strings.Builder

	if !m.job.Loaded {
		b.WriteString(styles.title.Render("Job " + m.job.Job.ID))
		b.WriteString("\n")
		if m.job.LastError != nil {
			b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.job.LastError)))
		} else {
			b.WriteString(m.spinner.View() + " Loading job...")
		}
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
		return b.String()
	}

	job := m.job.Job
	b.WriteString(styles.title.Render(job.Name))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s\n", job.Status, m.bar.ViewAs(float64(job.Percent())/100)))
	b.WriteString(fmt.Sprintf("%d completed • %d failed • %d expected • %d selected\n",
		job.CompletedVideoCount, job.FailedVideoCount, job.ExpectedVideoCount, len(m.job.Selected)))

	if m.job.LastError != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Sync error: %v", m.job.LastError)) + "\n")
	}
	if m.task.Status == models.TaskRunning {
		b.WriteString(styles.ok.Render(fmt.Sprintf("Upscaling %.0f%%", m.task.Progress)) + "\n")
	}

	if len(m.job.RecentErrors) > 0 {
		b.WriteString("\n" + styles.warn.Render("Recent errors:") + "\n")
		for _, v := range m.job.RecentErrors {
			b.WriteString(fmt.Sprintf("  prompt %d #%d: %s\n", v.PromptNumber, v.VideoIndex, tasks.ClassifyVideo(v).DisplayMessage))
		}
		if m.job.MoreErrors > 0 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", m.job.MoreErrors))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderGroups())

	if m.confirmClose {
		b.WriteString("\n" + m.renderConfirm())
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.toggle, m.keys.extend, m.keys.selectAll, m.keys.group,
		m.keys.upscale, m.keys.download, m.keys.regenerate, m.keys.back,
	}))
	return b.String()
}

func (m *Model) videoLine(v models.Video, pos int) string {
	mark := "[ ]"
	switch {
	case m.job.IsSelected(v.ID):
		mark = styles.selected.Render("[x]")
	case v.Status == models.VideoFailed:
		mark = styles.err.Render(" ! ")
	case !v.Completed():
		mark = " " + m.spinner.View() + " "
	}

	line := fmt.Sprintf("%s #%d %s", mark, v.VideoIndex, v.Status)
	if v.Upscaled {
		line += " 4K"
	}
	if c := tasks.ClassifyVideo(v); c.DisplayMessage != "" {
		line += " - " + c.DisplayMessage
	}
	if pos == m.cursor {
		return styles.cursor.Render("> ") + line
	}
	return "  " + line
}

// renderGroups draws the prompt groups, windowed around the cursor when the terminal is short.
func (m *Model) renderGroups() string {
	var lines []string
	cursorLine := 0
	pos := 0
	for _, g := range m.job.Groups {
		header := fmt.Sprintf("Prompt %d: %s", g.PromptNumber, g.PromptText)
		if m.width > 8 && len([]rune(header)) > m.width-4 {
			header = string([]rune(header)[:m.width-5]) + "…"
		}
		lines = append(lines, styles.help.Render(header))
		for _, v := range g.Videos {
			if pos == m.cursor {
				cursorLine = len(lines)
			}
			lines = append(lines, m.videoLine(v, pos))
			pos++
		}
	}
	if len(lines) == 0 {
		return "No videos yet\n"
	}

	window := m.height - 14
	if window < 5 || len(lines) <= window {
		return strings.Join(lines, "\n") + "\n"
	}
	start := cursorLine - window/2
	start = max(0, min(start, len(lines)-window))
	return strings.Join(lines[start:start+window], "\n") + "\n"
}

func (m *Model) renderUpscale() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Upscale %d video(s) to 4K", len(m.job.Selected))))
	b.WriteString("\n")

	switch m.task.Status {
	case models.TaskIdle:
		b.WriteString(m.qualityList.View())
		if m.starting {
			b.WriteString("\n" + m.spinner.View() + " Starting...")
		}
		b.WriteString(m.renderStatus())
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.back}))
		return b.String()

	case models.TaskRunning:
		b.WriteString(m.spinner.View() + " ")
	case models.TaskCompleted:
		b.WriteString(styles.ok.Render("✓ "))
	default:
		b.WriteString(styles.err.Render("✗ "))
	}

	b.WriteString(fmt.Sprintf("%s (%s)\n", m.task.Status, m.task.Mode))
	b.WriteString(m.bar.ViewAs(m.task.Progress/100))
	b.WriteString("\n")
	if m.task.TotalVideos > 0 {
		b.WriteString(fmt.Sprintf("Video %d of %d\n", m.task.CurrentVideoIndex, m.task.TotalVideos))
	}
	if m.task.ErrorMessage != "" {
		b.WriteString(styles.err.Render(m.task.ErrorMessage) + "\n")
	}

	b.WriteString("\n")
	entries := m.task.Log
	if len(entries) > logLines {
		entries = entries[len(entries)-logLines:]
	}
	for _, e := range entries {
		b.WriteString(renderLogEntry(e) + "\n")
	}

	if m.confirmClose {
		b.WriteString("\n" + m.renderConfirm())
	}

	b.WriteString("\n")
	if m.task.Status == models.TaskRunning {
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back}))
	} else {
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back}))
	}
	return b.String()
}

func renderLogEntry(e models.LogEntry) string {
	stamp := e.Timestamp.Local().Format("15:04:05")
	switch e.Severity {
	case models.SeveritySuccess:
		return stamp + " " + styles.ok.Render(e.Message)
	case models.SeverityWarning:
		return stamp + " " + styles.warn.Render(e.Message)
	case models.SeverityError:
		return stamp + " " + styles.err.Render(e.Message)
	default:
		return stamp + " " + e.Message
	}
}

func (m *Model) renderInput() string {
	title := "Download selected videos"
	if m.inputKind == inputPrompt {
		title = "Regenerate video"
	}
	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm"))
	return fmt.Sprintf("%s\n%s\n\n%s",
		styles.title.Render(title),
		m.input.View(),
		m.help.ShortHelpView([]key.Binding{enter, m.keys.back}),
	)
}
