package models

import (
	"fmt"
	"time"
)

// Quality is an upscale encoder preset.
type Quality string

const (
	QualityFast     Quality = "fast"
	QualityBalanced Quality = "balanced"
	QualityHigh     Quality = "high"
)

// QualityPreset describes the fixed encoder parameters behind a [Quality].
type QualityPreset struct {
	Quality     Quality
	Label       string
	Description string
	CRF         int
}

var qualityPresets = map[Quality]QualityPreset{
	QualityFast:     {Quality: QualityFast, Label: "Fast", Description: "Quick upscaling (~2x real-time)", CRF: 23},
	QualityBalanced: {Quality: QualityBalanced, Label: "Balanced", Description: "Good quality (~3.5x real-time)", CRF: 20},
	QualityHigh:     {Quality: QualityHigh, Label: "High Quality", Description: "Best quality (~5x real-time)", CRF: 18},
}

// Qualities lists the presets from fastest to best.
func Qualities() []Quality {
	return []Quality{QualityFast, QualityBalanced, QualityHigh}
}

// Preset returns the preset for q and whether q is a known quality.
func (q Quality) Preset() (QualityPreset, bool) {
	p, ok := qualityPresets[q]
	return p, ok
}

// ParseQuality validates a preset name.
func ParseQuality(s string) (Quality, error) {
	q := Quality(s)
	if _, ok := qualityPresets[q]; !ok {
		return "", fmt.Errorf("unknown quality %q (choose fast, balanced or high)", s)
	}
	return q, nil
}

// Resolution selects which rendition a download archive contains.
type Resolution string

const (
	Resolution720p Resolution = "720p"
	Resolution4K   Resolution = "4K"
)

// ParseResolution validates a download resolution.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case Resolution720p, Resolution4K:
		return Resolution(s), nil
	default:
		return "", fmt.Errorf("unknown resolution %q (choose 720p or 4K)", s)
	}
}

// Severity classifies a [LogEntry].
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogEntry is one line of an upscale task log. Entries are append-only and kept in arrival order.
type LogEntry struct {
	Timestamp Timestamp `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
}

// NewLogEntry stamps a local log line with the current time.
func NewLogEntry(msg string, sev Severity) LogEntry {
	return LogEntry{Timestamp: Timestamp{Time: time.Now()}, Message: msg, Severity: sev}
}

// UpscaleRequest is the body of POST /videos/upscale.
type UpscaleRequest struct {
	VideoIDs []string `json:"video_ids"`
	Quality  Quality  `json:"quality"`
}

// UpscaleStartResponse is returned by POST /videos/upscale. TaskID may be empty.
type UpscaleStartResponse struct {
	Started    bool    `json:"started"`
	TaskID     string  `json:"task_id,omitempty"`
	VideoCount int     `json:"video_count"`
	Quality    Quality `json:"quality"`
	Message    string  `json:"message"`
}

// UpscaleStatus is the server report returned by GET /videos/upscale/status/{task_id}.
type UpscaleStatus struct {
	TaskID            string     `json:"task_id"`
	Status            string     `json:"status"` // queued, processing, completed, failed
	Progress          float64    `json:"progress"`
	CurrentVideoIndex int        `json:"current_video_index"`
	TotalVideos       int        `json:"total_videos"`
	CompletedVideos   int        `json:"completed_videos"`
	FailedVideos      int        `json:"failed_videos"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	Logs              []LogEntry `json:"logs"`
}

// TaskState is the client-side lifecycle of a tracked task.
type TaskState string

const (
	TaskIdle      TaskState = "idle"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
	TaskTimedOut  TaskState = "timed_out"
)

// Terminal reports whether the state ends the task instance.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskTimedOut
}

// TaskMode records how a task's progress is obtained.
type TaskMode string

const (
	// ModeServer polls the backend for a real task id.
	ModeServer TaskMode = "server"
	// ModeSimulated fabricates a linear ramp when the backend returned no task id.
	// It is a placeholder for demo backends and reflects no real work.
	ModeSimulated TaskMode = "simulated"
)

// UpscaleTask is the locally tracked view of one upscale operation.
type UpscaleTask struct {
	TaskID            string
	Mode              TaskMode
	Status            TaskState
	Quality           Quality
	VideoIDs          []string
	Progress          float64 // 0 to 100
	CurrentVideoIndex int
	TotalVideos       int
	ErrorMessage      string
	Log               []LogEntry
	StartedAt         time.Time
	FinishedAt        time.Time
}
