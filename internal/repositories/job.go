package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/shared"
)

// JobRecord is the stored snapshot of one job.
type JobRecord struct {
	Job          models.Job
	FirstSeenAt  time.Time
	LastSyncedAt time.Time
	SyncCount    int
}

// JobRepository persists job snapshots keyed by backend job id.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// SaveSnapshot inserts the job or updates its stored snapshot and bumps the sync counter.
func (r *JobRepository) SaveSnapshot(ctx context.Context, job models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("%w: job id is required", shared.ErrInvalidInput)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO jobs (id, name, status, total_images, expected_videos, completed_videos, failed_videos, progress, created_at, first_seen_at, last_synced_at, sync_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			total_images = excluded.total_images,
			expected_videos = excluded.expected_videos,
			completed_videos = excluded.completed_videos,
			failed_videos = excluded.failed_videos,
			progress = excluded.progress,
			created_at = COALESCE(excluded.created_at, jobs.created_at),
			last_synced_at = excluded.last_synced_at,
			sync_count = jobs.sync_count + 1
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.Name,
		string(job.Status),
		job.TotalImages,
		job.ExpectedVideoCount,
		job.CompletedVideoCount,
		job.FailedVideoCount,
		job.ProgressFraction,
		nullTime(job.CreatedAt.Time),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save job snapshot: %w", err)
	}
	return nil
}

const jobColumns = `id, name, status, total_images, expected_videos, completed_videos, failed_videos, progress, created_at, first_seen_at, last_synced_at, sync_count`

// Get retrieves the stored snapshot of a job.
func (r *JobRepository) Get(ctx context.Context, id string) (*JobRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	rec, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns stored jobs, most recently synced first. status filters when non-empty.
func (r *JobRepository) List(ctx context.Context, status models.JobStatus, limit int) ([]JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY last_synced_at DESC, id ASC LIMIT ?"
	args = append(args, limitOrAll(limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
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

// Delete removes one job from the history.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return nil
}

// Clear removes every job and returns how many were deleted.
func (r *JobRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear jobs: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*JobRecord, error) {
	var (
		rec       JobRecord
		status    string
		createdAt sql.NullTime
	)
	err := s.Scan(
		&rec.Job.ID,
		&rec.Job.Name,
		&status,
		&rec.Job.TotalImages,
		&rec.Job.ExpectedVideoCount,
		&rec.Job.CompletedVideoCount,
		&rec.Job.FailedVideoCount,
		&rec.Job.ProgressFraction,
		&createdAt,
		&rec.FirstSeenAt,
		&rec.LastSyncedAt,
		&rec.SyncCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	rec.Job.Status = models.JobStatus(status)
	rec.Job.CreatedAt = models.Timestamp{Time: timeOf(createdAt)}
	return &rec, nil
}
