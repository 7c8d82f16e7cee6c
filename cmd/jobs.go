package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/vgen/internal/formatter"
	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/shared"
	"github.com/desertthunder/vgen/internal/tasks"
	"github.com/urfave/cli/v3"
)

var jobStatuses = []models.JobStatus{
	models.JobPending, models.JobProcessing, models.JobCompleted, models.JobFailed, models.JobCancelled,
}

func parseJobStatus(s string) (models.JobStatus, error) {
	if s == "" {
		return "", nil
	}
	st := models.JobStatus(s)
	if !slices.Contains(jobStatuses, st) {
		return "", fmt.Errorf("%w: unknown job status %q", shared.ErrInvalidArgument, s)
	}
	return st, nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// jobDetail is the JSON shape of a job together with its videos.
type jobDetail struct {
	Job      models.Job     `json:"job"`
	Videos   []models.Video `json:"videos"`
	Selected []string       `json:"selected"`
}

func (r *Runner) newJobSync(jobID string, store tasks.SnapshotStore, updates chan<- tasks.ProgressUpdate) *tasks.JobSync {
	return tasks.NewJobSync(r.backend, jobID, tasks.JobSyncOptions{
		Interval:   r.config.Polling.JobInterval(),
		NotifyRate: r.config.Selection.NotifyRate,
		Store:      store,
		Logger:     r.logger,
		Updates:    updates,
	})
}

// printProgress writes every update from ch until it is closed. Upload percentages are thinned to steps of 10.
func (r *Runner) printProgress(ch <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	last := ""
	for u := range ch {
		if u.Phase == tasks.UploadFiles && u.Step%10 != 0 {
			continue
		}
		if u.Message == last {
			continue
		}
		last = u.Message
		r.writePlain("%s\n", u.Message)
	}
}

// JobsCreate creates an empty job.
func (r *Runner) JobsCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	created, err := r.backend.CreateJob(ctx, name)
	if err != nil {
		return err
	}
	r.logger.Info("job created", "job", created.ID)

	if cmd.Bool("json") {
		return r.writeJSON(created, true)
	}
	return r.writePlain("✓ Created job %s (%s)\n", created.ID, name)
}

// JobsUpload uploads the images archive and prompts file of an existing job.
func (r *Runner) JobsUpload(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	images, prompts := cmd.String("images"), cmd.String("prompts")
	if err := tasks.ValidateSubmit(tasks.SubmitRequest{Name: jobID, ImagesPath: images, PromptsPath: prompts}); err != nil {
		return err
	}

	if compress := r.compressor(cmd.Bool("compress")); compress != nil {
		path, cleanup, err := compress(ctx, images)
		if err != nil {
			return fmt.Errorf("compress images: %w", err)
		}
		defer cleanup()
		images = path
	}

	step := -1
	err = r.backend.UploadFiles(ctx, jobID, images, prompts, func(f float64) {
		if p := int(f*10) * 10; p != step {
			step = p
			r.writePlain("Uploading files... %d%%\n", p)
		}
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Uploaded assets for job %s\n", jobID)
}

// JobsStart starts generation for an uploaded job.
func (r *Runner) JobsStart(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.backend.StartJob(ctx, jobID); err != nil {
		return err
	}
	return r.writePlain("✓ Started job %s\n", jobID)
}

// JobsSubmit runs the create, upload and start pipeline.
func (r *Runner) JobsSubmit(ctx context.Context, cmd *cli.Command) error {
	req := tasks.SubmitRequest{
		Name:        cmd.String("name"),
		ImagesPath:  cmd.String("images"),
		PromptsPath: cmd.String("prompts"),
		Start:       !cmd.Bool("no-start"),
		Compress:    r.compressor(cmd.Bool("compress")),
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := tasks.Submit(ctx, r.backend, req, progress)
	close(progress)
	<-done

	if err != nil {
		if result != nil && result.JobID != "" {
			r.logger.Warn("job created but submission did not finish", "job", result.JobID)
		}
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Job %s", result.JobID))
	r.writePlain("Name:     %s\n", result.Name)
	r.writePlain("Uploaded: %v\n", result.Uploaded)
	r.writePlain("Started:  %v\n", result.Started)
	return r.writePlain("Elapsed:  %s\n", result.Elapsed.Round(100*time.Millisecond))
}

// JobsList lists recent jobs.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	status, err := parseJobStatus(cmd.String("status"))
	if err != nil {
		return err
	}

	jobs, err := r.backend.ListJobs(ctx, status, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(jobs, true)
	}
	return r.writeBytes(formatter.JobsToText(jobs))
}

// JobsShow fetches one snapshot of a job and prints it grouped by prompt.
func (r *Runner) JobsShow(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	store, _ := r.stores()
	sync := r.newJobSync(jobID, store, nil)
	defer sync.Stop()

	view, err := sync.SyncOnce(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(jobDetail{Job: view.Job, Videos: view.Videos(), Selected: view.Selected}, true)
	}
	return r.writeBytes(formatter.JobViewToText(view))
}

// JobsWatch follows a job, printing a line per snapshot until it reaches a terminal status.
func (r *Runner) JobsWatch(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	follow := cmd.Bool("follow")

	store, _ := r.stores()
	updates := make(chan tasks.ProgressUpdate, 16)
	sync := r.newJobSync(jobID, store, updates)
	if err := sync.Start(ctx); err != nil {
		return err
	}
	defer func() {
		sync.Stop()
		sync.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-updates:
			switch u.Phase {
			case tasks.SyncJobFailed:
				if errors.Is(u.Data.(error), shared.ErrJobNotFound) {
					return u.Data.(error)
				}
				r.logger.Warn(u.Message)
			case tasks.SyncJob:
				view := u.Data.(tasks.JobView)
				r.writePlain("[%s] %s  %s %d/%d videos\n",
					time.Now().Format("15:04:05"),
					formatter.ProgressBar(view.Job.ProgressFraction, 20),
					view.Job.Status, view.Job.CompletedVideoCount, view.Job.ExpectedVideoCount)
				if view.Job.Status.Terminal() && !follow {
					return r.writeBytes(formatter.JobViewToText(view))
				}
			}
		}
	}
}

// JobsDelete deletes a job from the backend and the local history.
func (r *Runner) JobsDelete(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.backend.DeleteJob(ctx, jobID); err != nil {
		return err
	}

	if jobs, _, err := r.history(); err == nil {
		if err := jobs.Delete(ctx, jobID); err != nil && !errors.Is(err, shared.ErrJobNotFound) {
			r.logger.Warn("failed to delete job history", "job", jobID, "err", err)
		}
	}
	return r.writePlain("✓ Deleted job %s\n", jobID)
}
