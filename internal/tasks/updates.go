package tasks

import (
	"fmt"

	"github.com/desertthunder/vgen/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CreateJob Phase = iota
	CompressImages
	UploadFiles
	StartJob
	SyncJob
	SyncJobFailed
	ListJobs
	Upscale
	DownloadVideos
)

func (p Phase) String() string {
	switch p {
	case CreateJob:
		return "create_job"
	case CompressImages:
		return "compress_images"
	case UploadFiles:
		return "upload_files"
	case StartJob:
		return "start_job"
	case SyncJob:
		return "sync_job"
	case SyncJobFailed:
		return "sync_job_failed"
	case ListJobs:
		return "list_jobs"
	case Upscale:
		return "upscale"
	case DownloadVideos:
		return "download_videos"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// A full channel drops the update; the next one supersedes it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func createJobUpdate(name string) ProgressUpdate {
	return ProgressUpdate{Phase: CreateJob, Step: 1, Total: 1, Message: fmt.Sprintf("Creating job %q...", name)}
}

func compressUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: CompressImages, Step: 1, Total: 1, Message: fmt.Sprintf("Compressing images in %s...", path)}
}

func uploadUpdate(percent int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    percent,
		Total:   100,
		Message: fmt.Sprintf("Uploading files... %d%%", percent),
	}
}

func startJobUpdate(jobID string) ProgressUpdate {
	return ProgressUpdate{Phase: StartJob, Step: 1, Total: 1, Message: fmt.Sprintf("Starting job %s...", jobID)}
}

func syncJobUpdate(view JobView) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncJob,
		Step:    view.Job.CompletedVideoCount,
		Total:   view.Job.ExpectedVideoCount,
		Message: fmt.Sprintf("%s: %s (%d%%)", view.Job.Name, view.Job.Status, view.Job.Percent()),
		Data:    view,
	}
}

func syncJobFailedUpdate(jobID string, err error) ProgressUpdate {
	return ProgressUpdate{Phase: SyncJobFailed, Message: fmt.Sprintf("Sync of job %s failed: %v", jobID, err), Data: err}
}

func listJobsUpdate(jobs []models.Job) ProgressUpdate {
	return ProgressUpdate{Phase: ListJobs, Step: len(jobs), Total: len(jobs), Message: fmt.Sprintf("%d job(s)", len(jobs)), Data: jobs}
}

func upscaleUpdate(task models.UpscaleTask) ProgressUpdate {
	msg := string(task.Status)
	if n := len(task.Log); n > 0 {
		msg = task.Log[n-1].Message
	}
	return ProgressUpdate{
		Phase:   Upscale,
		Step:    task.CurrentVideoIndex,
		Total:   task.TotalVideos,
		Message: msg,
		Data:    task,
	}
}

func downloadUpdate(n int, folder string) ProgressUpdate {
	return ProgressUpdate{Phase: DownloadVideos, Step: 1, Total: 1, Message: fmt.Sprintf("Preparing download of %d video(s) as %s.zip...", n, folder)}
}
