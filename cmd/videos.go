package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/vgen/internal/formatter"
	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/shared"
	"github.com/desertthunder/vgen/internal/tasks"
	"github.com/urfave/cli/v3"
)

// syncJob fetches one consistent snapshot of a job and its videos.
func (r *Runner) syncJob(ctx context.Context, jobID string) (tasks.JobView, error) {
	store, _ := r.stores()
	sync := r.newJobSync(jobID, store, nil)
	defer sync.Stop()
	return sync.SyncOnce(ctx)
}

// targetVideos resolves --id and --all into video ids. --all takes every completed video of the job.
func (r *Runner) targetVideos(cmd *cli.Command, view *tasks.JobView) ([]string, error) {
	ids := cmd.StringSlice("id")
	if cmd.Bool("all") {
		ids = append(ids, view.CompletedIDs...)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: pass --id or --all", shared.ErrNoSelection)
	}

	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// VideosList prints the videos of a job grouped by prompt, as JSON or as a CSV export.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "job")
	if err != nil {
		return err
	}

	view, err := r.syncJob(ctx, jobID)
	if err != nil {
		return err
	}
	videos := view.Videos()

	if path := cmd.String("csv"); path != "" {
		written, err := formatter.WriteVideosCSV(jobID, videos, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d video(s) to %s\n", len(videos), written)
	}

	if cmd.Bool("json") {
		return r.writeJSON(videos, true)
	}

	selected := make(map[string]bool, len(videos))
	for _, v := range videos {
		selected[v.ID] = v.Selected
	}
	return r.writeBytes(formatter.GroupsToText(view.Groups, func(id string) bool { return selected[id] }))
}

// VideosSelect marks videos selected, or deselected with --off, on the backend.
func (r *Runner) VideosSelect(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	if len(ids) == 0 {
		return fmt.Errorf("%w: --id", shared.ErrMissingArgument)
	}
	on := !cmd.Bool("off")

	var errs []error
	for _, id := range ids {
		if err := r.backend.SetVideoSelected(ctx, id, on); err != nil {
			errs = append(errs, err)
			continue
		}
		r.writePlain("✓ %s selected=%v\n", id, on)
	}
	return errors.Join(errs...)
}

// VideosRegenerate asks the backend to regenerate one video.
func (r *Runner) VideosRegenerate(ctx context.Context, cmd *cli.Command) error {
	videoID, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.backend.RegenerateVideo(ctx, videoID, cmd.String("prompt")); err != nil {
		return err
	}
	return r.writePlain("✓ Regeneration queued for %s\n", videoID)
}

// VideosUpscale starts an upscale task and prints its log until the task finishes.
func (r *Runner) VideosUpscale(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "job")
	if err != nil {
		return err
	}
	quality, err := models.ParseQuality(cmd.String("quality"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidQuality, err)
	}

	view, err := r.syncJob(ctx, jobID)
	if err != nil {
		return err
	}
	ids, err := r.targetVideos(cmd, &view)
	if err != nil {
		return err
	}

	_, taskStore := r.stores()
	updates := make(chan tasks.ProgressUpdate, 32)
	tracker := tasks.NewTaskTracker(r.backend, tasks.TrackerOptions{
		JobID:              jobID,
		Interval:           r.config.Polling.TaskInterval(),
		MaxPolls:           r.config.Polling.TaskMaxPolls,
		FailureNoticeEvery: r.config.Polling.TaskFailureNoticeEvery,
		SimulationInterval: r.config.Polling.SimulationInterval(),
		Store:              taskStore,
		Logger:             r.logger,
		Updates:            updates,
	})

	if err := tracker.Start(ctx, ids, quality); err != nil {
		r.writeBytes(formatter.LogToText(tracker.Snapshot().Log))
		return err
	}

	printed := 0
	flush := func() {
		entries := tracker.Snapshot().Log
		if printed > len(entries) {
			printed = 0
		}
		if printed < len(entries) {
			r.writeBytes(formatter.LogToText(entries[printed:]))
		}
		printed = len(entries)
	}

	done := tracker.Done()
	for {
		select {
		case <-ctx.Done():
			tracker.Close(func() bool { return true })
			return r.writePlain("Stopped tracking; the upscale keeps running on the server\n")
		case <-updates:
			flush()
		case <-done:
			flush()
			task := tracker.Snapshot()
			switch task.Status {
			case models.TaskCompleted:
				return nil
			case models.TaskTimedOut:
				return shared.ErrTaskTimedOut
			default:
				return fmt.Errorf("%w: %s", shared.ErrTaskFailed, task.ErrorMessage)
			}
		}
	}
}

// VideosDownload saves the requested videos as <folder>.zip.
func (r *Runner) VideosDownload(ctx context.Context, cmd *cli.Command) error {
	jobID, err := requireArg(cmd, "job")
	if err != nil {
		return err
	}

	resValue := cmd.String("resolution")
	if resValue == "" {
		resValue = r.config.Download.Resolution
	}
	res, err := models.ParseResolution(resValue)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Download.Directory
	}

	view, err := r.syncJob(ctx, jobID)
	if err != nil {
		return err
	}
	ids, err := r.targetVideos(cmd, &view)
	if err != nil {
		return err
	}

	folder := cmd.String("folder")
	if folder == "" {
		folder = view.FolderName
	}

	progress := make(chan tasks.ProgressUpdate, 4)
	printed := make(chan struct{})
	go r.printProgress(progress, printed)

	path, n, err := tasks.DownloadArchive(ctx, r.backend, ids, folder, res, dir, progress)
	close(progress)
	<-printed
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %d video(s) to %s (%d bytes)\n", len(ids), path, n)
}

// VideosOpen opens the best available rendition of a video in the browser.
func (r *Runner) VideosOpen(ctx context.Context, cmd *cli.Command) error {
	videoID, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	video, err := r.backend.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	url := video.MediaURL()
	if url == "" {
		return fmt.Errorf("%w: video %s has no media yet", shared.ErrInvalidArgument, videoID)
	}

	if err := r.browser(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return r.writePlain("Opened %s\n", url)
}
