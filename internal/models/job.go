package models

import "strings"

// JobStatus is the lifecycle state of a [Job] as reported by the backend.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the backend will no longer change the job.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// Job is the summary of one batch video-generation request.
//
// Job list responses carry a subset of these fields; missing counters decode to zero.
type Job struct {
	ID                  string    `json:"job_id"`
	Name                string    `json:"job_name"`
	Status              JobStatus `json:"status"`
	TotalImages         int       `json:"total_images"`
	CurrentImageIndex   int       `json:"current_image"`
	ExpectedVideoCount  int       `json:"expected_videos"`
	CompletedVideoCount int       `json:"completed_videos"`
	FailedVideoCount    int       `json:"failed_videos"`
	ProgressFraction    float64   `json:"progress"` // 0.0 to 1.0
	CreatedAt           Timestamp `json:"created_at"`
	UpdatedAt           Timestamp `json:"updated_at"`
}

// Percent returns the job progress as a whole percentage clamped to [0,100].
func (j Job) Percent() int {
	p := j.ProgressFraction
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return int(p*100 + 0.5)
}

// FolderName derives a download folder name from the job name by collapsing whitespace runs into underscores.
func (j Job) FolderName() string {
	return strings.Join(strings.Fields(j.Name), "_")
}

// CreateJobResponse is returned by POST /jobs/create.
type CreateJobResponse struct {
	ID     string    `json:"job_id"`
	Name   string    `json:"job_name"`
	Status JobStatus `json:"status"`
}
