package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/shared"
)

// TaskRecord is a stored upscale task.
type TaskRecord struct {
	ID    string // local row id
	JobID string
	Task  models.UpscaleTask
}

// TaskRepository persists finished upscale tasks and their logs.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Save stores a task with its log in one transaction and returns the generated row id.
func (r *TaskRepository) Save(ctx context.Context, jobID string, task models.UpscaleTask) (string, error) {
	ids, err := json.Marshal(task.VideoIDs)
	if err != nil {
		return "", fmt.Errorf("failed to encode video ids: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := shared.GenerateID()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO upscale_tasks (id, task_id, job_id, mode, status, quality, video_ids, total_videos, progress, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		task.TaskID,
		jobID,
		string(task.Mode),
		string(task.Status),
		string(task.Quality),
		string(ids),
		task.TotalVideos,
		task.Progress,
		task.ErrorMessage,
		nullTime(task.StartedAt),
		nullTime(task.FinishedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert task: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO upscale_task_logs (task_row_id, seq, logged_at, message, severity) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare log insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range task.Log {
		if _, err := stmt.ExecContext(ctx, id, i, nullTime(entry.Timestamp.Time), entry.Message, string(entry.Severity)); err != nil {
			return "", fmt.Errorf("failed to insert log entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit task: %w", err)
	}
	return id, nil
}

const taskColumns = `id, task_id, job_id, mode, status, quality, video_ids, total_videos, progress, error_message, started_at, finished_at`

// Get retrieves a stored task with its log.
func (r *TaskRepository) Get(ctx context.Context, id string) (*TaskRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM upscale_tasks WHERE id = ?`, id)
	rec, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	logs, err := r.logs(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Task.Log = logs
	return rec, nil
}

// List returns stored tasks without logs, newest first. jobID filters when non-empty.
func (r *TaskRepository) List(ctx context.Context, jobID string, limit int) ([]TaskRecord, error) {
	query := `SELECT ` + taskColumns + ` FROM upscale_tasks`
	args := []any{}
	if jobID != "" {
		query += " WHERE job_id = ?"
		args = append(args, jobID)
	}
	query += " ORDER BY started_at DESC, id ASC LIMIT ?"
	args = append(args, limitOrAll(limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Clear removes every task and, through the cascade, every log line.
func (r *TaskRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM upscale_tasks`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear tasks: %w", err)
	}
	return result.RowsAffected()
}

func (r *TaskRepository) logs(ctx context.Context, id string) ([]models.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT logged_at, message, severity FROM upscale_task_logs WHERE task_row_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query task logs: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var (
			loggedAt sql.NullTime
			entry    models.LogEntry
			severity string
		)
		if err := rows.Scan(&loggedAt, &entry.Message, &severity); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.Timestamp = models.Timestamp{Time: timeOf(loggedAt)}
		entry.Severity = models.Severity(severity)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

func scanTask(s scanner) (*TaskRecord, error) {
	var (
		rec                 TaskRecord
		mode, status, q, ids string
		startedAt, finished sql.NullTime
	)
	err := s.Scan(
		&rec.ID,
		&rec.Task.TaskID,
		&rec.JobID,
		&mode,
		&status,
		&q,
		&ids,
		&rec.Task.TotalVideos,
		&rec.Task.Progress,
		&rec.Task.ErrorMessage,
		&startedAt,
		&finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &rec.Task.VideoIDs); err != nil {
		return nil, fmt.Errorf("failed to decode video ids: %w", err)
	}
	rec.Task.Mode = models.TaskMode(mode)
	rec.Task.Status = models.TaskState(status)
	rec.Task.Quality = models.Quality(q)
	rec.Task.StartedAt = timeOf(startedAt)
	rec.Task.FinishedAt = timeOf(finished)
	return &rec, nil
}
