package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/services"
	"github.com/desertthunder/vgen/internal/shared"
)

// SubmitAPI is the subset of the backend used to submit a new job.
type SubmitAPI interface {
	CreateJob(ctx context.Context, name string) (*models.CreateJobResponse, error)
	UploadFiles(ctx context.Context, jobID, imagesPath, promptsPath string, onProgress func(fraction float64)) error
	StartJob(ctx context.Context, jobID string) error
}

// Compressor rewrites an image archive before upload. cleanup removes whatever it created.
type Compressor func(ctx context.Context, archivePath string) (path string, cleanup func(), err error)

// SubmitRequest describes one job submission.
type SubmitRequest struct {
	Name        string
	ImagesPath  string // .zip archive of source images
	PromptsPath string // .txt file, one prompt per line
	Start       bool   // start automation after upload
	Compress    Compressor
}

// SubmitResult reports how far a submission got. JobID is set as soon as the job exists.
type SubmitResult struct {
	JobID    string
	Name     string
	Uploaded bool
	Started  bool
	Elapsed  time.Duration
}

// ValidateSubmit checks the request before any backend call.
func ValidateSubmit(req SubmitRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: job name is required", shared.ErrMissingArgument)
	}
	if err := checkInput(req.ImagesPath, ".zip", "images archive"); err != nil {
		return err
	}
	return checkInput(req.PromptsPath, ".txt", "prompts file")
}

func checkInput(path, ext, label string) error {
	if path == "" {
		return fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, label)
	}
	if !strings.EqualFold(filepath.Ext(path), ext) {
		return fmt.Errorf("%w: %s must be a %s file", shared.ErrInvalidArgument, label, ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrInvalidArgument, label, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", shared.ErrInvalidArgument, label)
	}
	return nil
}

// Submit creates a job, uploads its assets and optionally starts it, reporting each stage on progress.
func Submit(ctx context.Context, api SubmitAPI, req SubmitRequest, progress chan<- ProgressUpdate) (*SubmitResult, error) {
	if err := ValidateSubmit(req); err != nil {
		return nil, err
	}
	started := time.Now()
	result := &SubmitResult{Name: req.Name}

	sendProgress(progress, createJobUpdate(req.Name))
	created, err := api.CreateJob(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	result.JobID = created.ID

	images := req.ImagesPath
	if req.Compress != nil {
		sendProgress(progress, compressUpdate(images))
		compressed, cleanup, err := req.Compress(ctx, images)
		if err != nil {
			return result, fmt.Errorf("compress images: %w", err)
		}
		defer cleanup()
		images = compressed
	}

	sendProgress(progress, uploadUpdate(0))
	err = api.UploadFiles(ctx, created.ID, images, req.PromptsPath, func(f float64) {
		sendProgress(progress, uploadUpdate(int(f*100+0.5)))
	})
	if err != nil {
		return result, err
	}
	result.Uploaded = true

	if req.Start {
		sendProgress(progress, startJobUpdate(created.ID))
		if err := api.StartJob(ctx, created.ID); err != nil {
			return result, err
		}
		result.Started = true
	}

	result.Elapsed = time.Since(started)
	return result, nil
}

// Downloader streams a video archive.
type Downloader interface {
	DownloadVideos(ctx context.Context, req services.DownloadRequest, w io.Writer) (int64, error)
}

// DownloadArchive saves the archive of videoIDs as <dir>/<folder>.zip and returns the path and size.
//
// The archive is written to a temp file in dir and renamed into place, so a failed download leaves nothing behind.
func DownloadArchive(ctx context.Context, api Downloader, videoIDs []string, folder string, res models.Resolution, dir string, progress chan<- ProgressUpdate) (string, int64, error) {
	if len(videoIDs) == 0 {
		return "", 0, shared.ErrNoSelection
	}
	folder = shared.SanitizeFolderName(folder)
	if folder == "" {
		folder = "videos"
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	sendProgress(progress, downloadUpdate(len(videoIDs), folder))

	tmp, err := os.CreateTemp(dir, "."+folder+"-*.zip.part")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := api.DownloadVideos(ctx, services.DownloadRequest{VideoIDs: videoIDs, FolderName: folder, Resolution: res}, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, err
	}

	dest := filepath.Join(dir, folder+".zip")
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, fmt.Errorf("failed to save archive: %w", err)
	}
	return dest, n, nil
}

// JobLister lists recent jobs.
type JobLister interface {
	ListJobs(ctx context.Context, status models.JobStatus, limit int) ([]models.Job, error)
}

// NewDashboardPoller polls the most recent jobs and sends each list as a [ListJobs] update.
func NewDashboardPoller(api JobLister, interval time.Duration, limit int, progress chan<- ProgressUpdate, logger *log.Logger) *Poller[[]models.Job] {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	logger = shared.WithLogger(logger, "component", "dashboard")
	return NewPoller(
		func(ctx context.Context) ([]models.Job, error) { return api.ListJobs(ctx, "", limit) },
		interval,
		func(jobs []models.Job) { sendProgress(progress, listJobsUpdate(jobs)) },
		func(err error) { logger.Debug("job list poll failed", "err", err) },
	)
}
