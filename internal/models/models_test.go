package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		zero  bool
	}{
		{name: "RFC3339", input: `"2025-03-01T12:30:00Z"`, want: time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{name: "Offset", input: `"2025-03-01T12:30:00+02:00"`, want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{name: "Naive With Fraction", input: `"2025-03-01T12:30:00.123456"`, want: time.Date(2025, 3, 1, 12, 30, 0, 123456000, time.UTC)},
		{name: "Naive", input: `"2025-03-01T12:30:00"`, want: time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{name: "Space Separated", input: `"2025-03-01 12:30:00"`, want: time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{name: "Null", input: `null`, zero: true},
		{name: "Empty", input: `""`, zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.input), &ts); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.zero {
				if !ts.IsZero() {
					t.Errorf("expected zero time, got %v", ts.Time)
				}
				return
			}
			if !ts.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ts.Time)
			}
		})
	}

	t.Run("Invalid", func(t *testing.T) {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
			t.Error("expected error for unrecognized format")
		}
	})

	t.Run("Marshal Zero", func(t *testing.T) {
		data, err := json.Marshal(Timestamp{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "null" {
			t.Errorf("expected null, got %s", data)
		}
	})
}

func TestJob(t *testing.T) {
	t.Run("Decode", func(t *testing.T) {
		payload := `{"job_id":"j1","job_name":"Spring  Batch","status":"processing","progress":0.42,"total_images":3,"completed_videos":2,"failed_videos":1,"expected_videos":6,"created_at":"2025-03-01T12:00:00"}`

		var job Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			t.Fatalf("failed to decode job: %v", err)
		}
		if job.ID != "j1" || job.Status != JobProcessing || job.ExpectedVideoCount != 6 {
			t.Errorf("unexpected job: %+v", job)
		}
		if job.Percent() != 42 {
			t.Errorf("expected 42%%, got %d", job.Percent())
		}
	})

	t.Run("Percent Clamps", func(t *testing.T) {
		if got := (Job{ProgressFraction: 1.7}).Percent(); got != 100 {
			t.Errorf("expected 100, got %d", got)
		}
		if got := (Job{ProgressFraction: -0.2}).Percent(); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("Folder Name", func(t *testing.T) {
		tests := map[string]string{
			"Spring Batch":        "Spring_Batch",
			"  lots   of\tspace ": "lots_of_space",
			"single":              "single",
			"":                    "",
		}
		for name, want := range tests {
			if got := (Job{Name: name}).FolderName(); got != want {
				t.Errorf("FolderName(%q) = %q, want %q", name, got, want)
			}
		}
	})

	t.Run("Terminal", func(t *testing.T) {
		if JobProcessing.Terminal() || JobPending.Terminal() {
			t.Error("pending and processing are not terminal")
		}
		if !JobCompleted.Terminal() || !JobFailed.Terminal() || !JobCancelled.Terminal() {
			t.Error("completed, failed and cancelled are terminal")
		}
	})
}

func TestVideo(t *testing.T) {
	t.Run("Media URL", func(t *testing.T) {
		tests := []struct {
			name  string
			video Video
			want  string
		}{
			{name: "Prefers 4K", video: Video{Upscaled: true, Upscaled4KURL: "4k", CloudflareURL: "cf"}, want: "4k"},
			{name: "Not Upscaled", video: Video{Upscaled4KURL: "4k", CloudflareURL: "cf"}, want: "cf"},
			{name: "Telegram Fallback", video: Video{TelegramURL: "tg"}, want: "tg"},
			{name: "None", video: Video{}, want: ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.video.MediaURL(); got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("Group Completed IDs", func(t *testing.T) {
		g := PromptGroup{Videos: []Video{
			{ID: "a", Status: VideoCompleted},
			{ID: "b", Status: VideoFailed},
			{ID: "c", Status: VideoCompleted},
		}}
		ids := g.CompletedIDs()
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
			t.Errorf("expected [a c], got %v", ids)
		}
	})
}

func TestQuality(t *testing.T) {
	t.Run("Presets", func(t *testing.T) {
		want := map[Quality]int{QualityFast: 23, QualityBalanced: 20, QualityHigh: 18}
		for _, q := range Qualities() {
			p, ok := q.Preset()
			if !ok {
				t.Fatalf("missing preset for %s", q)
			}
			if p.CRF != want[q] {
				t.Errorf("%s: expected CRF %d, got %d", q, want[q], p.CRF)
			}
		}
	})

	t.Run("Parse", func(t *testing.T) {
		if q, err := ParseQuality("high"); err != nil || q != QualityHigh {
			t.Errorf("expected high, got %q (%v)", q, err)
		}
		if _, err := ParseQuality("ultra"); err == nil {
			t.Error("expected error for unknown quality")
		}
	})

	t.Run("Resolution", func(t *testing.T) {
		if r, err := ParseResolution("4K"); err != nil || r != Resolution4K {
			t.Errorf("expected 4K, got %q (%v)", r, err)
		}
		if _, err := ParseResolution("1080p"); err == nil {
			t.Error("expected error for unknown resolution")
		}
	})
}

func TestTaskState(t *testing.T) {
	for _, s := range []TaskState{TaskCompleted, TaskFailed, TaskTimedOut} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskState{TaskIdle, TaskRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
