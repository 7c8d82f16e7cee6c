// package formatter renders jobs, videos and upscale logs as plain text, CSV and JSON for the command line
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/repositories"
	"github.com/desertthunder/vgen/internal/shared"
	"github.com/desertthunder/vgen/internal/tasks"
)

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ProgressBar draws a fixed width text bar for a fraction in [0,1].
func ProgressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// JobsToText renders a job list as an aligned table
func JobsToText(jobs []models.Job) []byte {
	var buf bytes.Buffer

	if len(jobs) == 0 {
		buf.WriteString("No jobs found\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("%-36s  %-24s  %-10s  %5s  %s\n", "ID", "NAME", "STATUS", "DONE", "CREATED"))
	for _, job := range jobs {
		buf.WriteString(fmt.Sprintf("%-36s  %-24s  %-10s  %4d%%  %s\n",
			job.ID,
			truncate(job.Name, 24),
			job.Status,
			job.Percent(),
			formatTime(job.CreatedAt.Time),
		))
	}
	return buf.Bytes()
}

// JobToText renders the summary block of one job
func JobToText(job models.Job) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Job: %s\n", job.Name))
	buf.WriteString(fmt.Sprintf("ID: %s\n", job.ID))
	buf.WriteString(fmt.Sprintf("Status: %s\n", job.Status))
	buf.WriteString(fmt.Sprintf("Progress: %s %d%%\n", ProgressBar(job.ProgressFraction, 20), job.Percent()))
	buf.WriteString(fmt.Sprintf("Images: %d\n", job.TotalImages))
	buf.WriteString(fmt.Sprintf("Videos: %d completed, %d failed, %d expected\n",
		job.CompletedVideoCount, job.FailedVideoCount, job.ExpectedVideoCount))
	buf.WriteString(fmt.Sprintf("Created: %s\n", formatTime(job.CreatedAt.Time)))

	return buf.Bytes()
}

func statusMark(v models.Video, selected bool) string {
	switch {
	case selected:
		return "[x]"
	case v.Completed():
		return "[ ]"
	case v.Status == models.VideoFailed:
		return " ! "
	default:
		return " … "
	}
}

// GroupsToText renders videos grouped by prompt. selected may be nil.
func GroupsToText(groups []models.PromptGroup, selected func(id string) bool) []byte {
	var buf bytes.Buffer

	for i, g := range groups {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("Prompt %d: %s\n", g.PromptNumber, truncate(g.PromptText, 72)))
		if g.ImageFilename != "" {
			buf.WriteString(fmt.Sprintf("  image: %s\n", g.ImageFilename))
		}
		for _, v := range g.Videos {
			isSelected := selected != nil && selected(v.ID)
			line := fmt.Sprintf("  %s #%d %s %s", statusMark(v, isSelected), v.VideoIndex, v.ID, v.Status)
			if v.Upscaled {
				line += " 4K"
			}
			if c := tasks.ClassifyVideo(v); c.DisplayMessage != "" {
				line += " - " + c.DisplayMessage
			}
			buf.WriteString(line + "\n")
		}
	}
	return buf.Bytes()
}

// JobViewToText renders a synchronized job with its grouped videos and recent errors
func JobViewToText(view tasks.JobView) []byte {
	var buf bytes.Buffer

	buf.Write(JobToText(view.Job))
	buf.WriteString(fmt.Sprintf("Selected: %d of %d completed\n", len(view.Selected), len(view.CompletedIDs)))
	if view.FolderName != "" {
		buf.WriteString(fmt.Sprintf("Download folder: %s\n", view.FolderName))
	}

	if len(view.RecentErrors) > 0 {
		buf.WriteString("\nRecent errors:\n")
		for _, v := range view.RecentErrors {
			c := tasks.ClassifyVideo(v)
			buf.WriteString(fmt.Sprintf("  prompt %d #%d: %s\n", v.PromptNumber, v.VideoIndex, c.DisplayMessage))
		}
		if view.MoreErrors > 0 {
			buf.WriteString(fmt.Sprintf("  ... and %d more\n", view.MoreErrors))
		}
	}

	if len(view.Groups) > 0 {
		buf.WriteString("\n")
		buf.Write(GroupsToText(view.Groups, view.IsSelected))
	}
	return buf.Bytes()
}

// TaskToText renders the state and log of an upscale task
func TaskToText(task models.UpscaleTask) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Upscale: %s (%s)\n", task.Status, task.Mode))
	if task.TaskID != "" {
		buf.WriteString(fmt.Sprintf("Task ID: %s\n", task.TaskID))
	}
	if p, ok := task.Quality.Preset(); ok {
		buf.WriteString(fmt.Sprintf("Quality: %s (CRF %d)\n", p.Label, p.CRF))
	}
	buf.WriteString(fmt.Sprintf("Progress: %s %.0f%%\n", ProgressBar(task.Progress/100, 20), task.Progress))
	if task.ErrorMessage != "" {
		buf.WriteString(fmt.Sprintf("Error: %s\n", task.ErrorMessage))
	}
	if len(task.Log) > 0 {
		buf.WriteString("\n")
		buf.Write(LogToText(task.Log))
	}
	return buf.Bytes()
}

// LogToText renders log entries one per line
func LogToText(entries []models.LogEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		stamp := "--:--:--"
		if !e.Timestamp.IsZero() {
			stamp = e.Timestamp.Local().Format("15:04:05")
		}
		buf.WriteString(fmt.Sprintf("%s %-7s %s\n", stamp, e.Severity, e.Message))
	}
	return buf.Bytes()
}

// VideosToCSV converts videos to CSV with columns: ID, Prompt, Index, Status, Error, Upscaled, URL
func VideosToCSV(videos []models.Video) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Prompt", "Index", "Status", "Error", "Upscaled", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range videos {
		record := []string{
			v.ID,
			strconv.Itoa(v.PromptNumber),
			strconv.Itoa(v.VideoIndex),
			string(v.Status),
			tasks.ClassifyVideo(v).DisplayMessage,
			strconv.FormatBool(v.Upscaled),
			v.MediaURL(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteVideosCSV writes the CSV report to path, defaulting to {jobID}_videos.csv
func WriteVideosCSV(jobID string, videos []models.Video, path string) (string, error) {
	if path == "" {
		path = jobID + "_videos.csv"
	}

	data, err := VideosToCSV(videos)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// JobHistoryToText renders stored job snapshots
func JobHistoryToText(records []repositories.JobRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No job history\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("%-36s  %-24s  %-10s  %5s  %5s  %s\n", "ID", "NAME", "STATUS", "DONE", "SYNCS", "LAST SYNC"))
	for _, rec := range records {
		buf.WriteString(fmt.Sprintf("%-36s  %-24s  %-10s  %4d%%  %5d  %s\n",
			rec.Job.ID,
			truncate(rec.Job.Name, 24),
			rec.Job.Status,
			rec.Job.Percent(),
			rec.SyncCount,
			formatTime(rec.LastSyncedAt),
		))
	}
	return buf.Bytes()
}

// TaskHistoryToText renders stored upscale tasks
func TaskHistoryToText(records []repositories.TaskRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No upscale history\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("%-36s  %-20s  %-10s  %-9s  %6s  %s\n", "ROW", "JOB", "STATUS", "MODE", "VIDEOS", "STARTED"))
	for _, rec := range records {
		buf.WriteString(fmt.Sprintf("%-36s  %-20s  %-10s  %-9s  %6d  %s\n",
			rec.ID,
			truncate(rec.JobID, 20),
			rec.Task.Status,
			rec.Task.Mode,
			len(rec.Task.VideoIDs),
			formatTime(rec.Task.StartedAt),
		))
	}
	return buf.Bytes()
}

// ToJSON renders any value as indented JSON followed by a newline
func ToJSON(v any) ([]byte, error) {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}
