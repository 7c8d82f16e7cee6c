package repositories

import (
	"context"

	"github.com/desertthunder/vgen/internal/models"
)

// HistoryRecorder implements tasks.SnapshotStore and tasks.TaskStore on top of the repositories.
//
// Snapshots are upserted, so a job polled every few seconds keeps a single row.
type HistoryRecorder struct {
	jobs  *JobRepository
	tasks *TaskRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repositories
func NewHistoryRecorder(jobs *JobRepository, tasks *TaskRepository) *HistoryRecorder {
	return &HistoryRecorder{jobs: jobs, tasks: tasks}
}

// SaveJobSnapshot records the job half of a snapshot. Video rows are not kept locally.
func (h *HistoryRecorder) SaveJobSnapshot(ctx context.Context, job models.Job, _ []models.Video) error {
	return h.jobs.SaveSnapshot(ctx, job)
}

// SaveTask records a finished task with its log.
func (h *HistoryRecorder) SaveTask(ctx context.Context, jobID string, task models.UpscaleTask) error {
	_, err := h.tasks.Save(ctx, jobID, task)
	return err
}
