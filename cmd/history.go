package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vgen/internal/formatter"
	"github.com/urfave/cli/v3"
)

// HistoryJobs lists recorded job snapshots, most recently synced first.
func (r *Runner) HistoryJobs(ctx context.Context, cmd *cli.Command) error {
	status, err := parseJobStatus(cmd.String("status"))
	if err != nil {
		return err
	}

	jobs, _, err := r.history()
	if err != nil {
		return err
	}

	records, err := jobs.List(ctx, status, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	return r.writeBytes(formatter.JobHistoryToText(records))
}

// HistoryTasks lists finished upscale tasks without their logs.
func (r *Runner) HistoryTasks(ctx context.Context, cmd *cli.Command) error {
	_, tasks, err := r.history()
	if err != nil {
		return err
	}

	records, err := tasks.List(ctx, cmd.String("job"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	return r.writeBytes(formatter.TaskHistoryToText(records))
}

// HistoryShow prints one recorded task with its full log.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	_, tasks, err := r.history()
	if err != nil {
		return err
	}

	rec, err := tasks.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		data, err := formatter.ToJSON(rec)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}

	r.writePlainHeader(fmt.Sprintf("Task %s (job %s)", rec.ID, rec.JobID))
	return r.writeBytes(formatter.TaskToText(rec.Task))
}

// HistoryClear deletes job snapshots, finished tasks or both.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	onlyJobs, onlyTasks := cmd.Bool("jobs"), cmd.Bool("tasks")
	both := !onlyJobs && !onlyTasks

	jobs, tasks, err := r.history()
	if err != nil {
		return err
	}

	if onlyTasks || both {
		n, err := tasks.Clear(ctx)
		if err != nil {
			return err
		}
		r.writePlain("✓ Removed %d task record(s)\n", n)
	}
	if onlyJobs || both {
		n, err := jobs.Clear(ctx)
		if err != nil {
			return err
		}
		r.writePlain("✓ Removed %d job record(s)\n", n)
	}
	return nil
}
