package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/vgen/internal/models"
	"github.com/desertthunder/vgen/internal/services"
	"github.com/desertthunder/vgen/internal/shared"
	tu "github.com/desertthunder/vgen/internal/testing"
)

type testEnv struct {
	runner     *Runner
	out        *bytes.Buffer
	fake       *tu.FakeBackend
	dir        string
	configPath string
	opened     []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := tu.NewFakeBackend()
	fake.AddJob(
		models.Job{ID: "job-a", Name: "Summer Promo", Status: models.JobProcessing, ExpectedVideoCount: 4, CompletedVideoCount: 3, ProgressFraction: 0.75},
		models.Video{ID: "v1", PromptNumber: 1, PromptText: "a beach", VideoIndex: 1, Status: models.VideoCompleted, CloudflareURL: "https://cdn.example.com/v1.mp4"},
		models.Video{ID: "v2", PromptNumber: 1, PromptText: "a beach", VideoIndex: 2, Status: models.VideoCompleted},
		models.Video{ID: "v3", PromptNumber: 2, PromptText: "a forest", VideoIndex: 1, Status: models.VideoFailed, ErrorType: models.ErrorHighDemand, ErrorMessage: "busy"},
		models.Video{ID: "v4", PromptNumber: 2, PromptText: "a forest", VideoIndex: 2, Status: models.VideoCompleted},
	)
	url := fake.Serve(t)

	dir := t.TempDir()
	cfg := shared.DefaultConfig()
	cfg.Backend.URL = url
	cfg.Database.Path = filepath.Join(dir, "history.db")
	cfg.Download.Directory = dir
	cfg.Polling.JobIntervalMS = 10
	cfg.Polling.TaskIntervalMS = 5
	cfg.Polling.SimulationIntervalMS = 2

	env := &testEnv{
		out:        &bytes.Buffer{},
		fake:       fake,
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
	}
	env.runner = NewRunner(RunnerOpts{
		Config:     cfg,
		ConfigPath: env.configPath,
		Logger:     shared.NewLogger(io.Discard),
		Output:     env.out,
		Browser: func(url string) error {
			env.opened = append(env.opened, url)
			return nil
		},
	})
	return env
}

func (e *testEnv) run(args ...string) error {
	argv := append([]string{"vgen", "--config", e.configPath}, args...)
	return e.runner.app().Run(context.Background(), argv)
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	e.out.Reset()
	if err := e.run(args...); err != nil {
		t.Fatalf("vgen %s: %v", strings.Join(args, " "), err)
	}
	return e.out.String()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			backend := services.NewBackendService(services.NewAPIService("http://example.test/api", httpClient))

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Backend:    backend,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.backend != backend || !runner.fixedBackend {
				t.Error("expected injected backend to be kept")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses configured timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient == nil {
				t.Fatal("expected httpClient to be created")
			}
			if runner.httpClient.Timeout != runner.config.Backend.Timeout() {
				t.Errorf("expected timeout %v, got %v", runner.config.Backend.Timeout(), runner.httpClient.Timeout)
			}
		})

		t.Run("with nil backend builds one from config", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.backend == nil {
				t.Fatal("expected backend to be created")
			}
			if runner.fixedBackend {
				t.Error("expected built backend to be replaceable")
			}
			want := services.APIBase(runner.config.Backend.URL)
			if got := runner.backend.API().BaseURL(); got != want {
				t.Errorf("expected base URL %s, got %s", want, got)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, &bytes.Buffer{})})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("Next steps:"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "\nNext steps:\n" {
				t.Errorf("unexpected output %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, name := range []string{"setup", "jobs", "videos", "history", "api", "tui"} {
			if !names[name] {
				t.Errorf("expected %s command to be registered", name)
			}
		}
	})
}

func TestConfigLoading(t *testing.T) {
	t.Run("Config File Overrides Defaults", func(t *testing.T) {
		env := newTestEnv(t)
		url := env.runner.config.Backend.URL
		env.runner.config.Backend.URL = "http://127.0.0.1:1"

		conf := "[backend]\nurl = \"" + url + "\"\n\n[database]\npath = \"" + filepath.Join(env.dir, "other.db") + "\"\n"
		tu.MustWriteFile(t, env.dir, "config.toml", []byte(conf))

		out := env.mustRun(t, "jobs", "list")
		if !strings.Contains(out, "Summer Promo") {
			t.Errorf("expected jobs from configured backend, got %q", out)
		}
	})

	t.Run("Backend Flag Wins", func(t *testing.T) {
		env := newTestEnv(t)
		url := env.runner.config.Backend.URL
		env.runner.config.Backend.URL = "http://127.0.0.1:1"

		env.out.Reset()
		if err := env.run("--backend", url, "jobs", "list"); err != nil {
			t.Fatalf("jobs list: %v", err)
		}
		if !strings.Contains(env.out.String(), "Summer Promo") {
			t.Errorf("expected jobs, got %q", env.out.String())
		}
	})

	t.Run("Invalid Config File", func(t *testing.T) {
		env := newTestEnv(t)
		tu.MustWriteFile(t, env.dir, "config.toml", []byte("[polling]\njob_interval_ms = -1\n"))

		err := env.run("jobs", "list")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "setup", "config")
		tu.AssertFileExists(t, env.configPath)

		if err := env.run("setup", "config"); err == nil {
			t.Error("expected error when config exists")
		}
		env.mustRun(t, "setup", "config", "--force")
	})

	t.Run("Database", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, "setup", "database")

		tu.AssertFileExists(t, env.runner.config.Database.Path)
		if !strings.Contains(out, "Database ready") {
			t.Errorf("unexpected output %q", out)
		}
	})
}

func TestJobsCommands(t *testing.T) {
	writeInputs := func(t *testing.T, dir string) (string, string) {
		images := tu.MustWriteZip(t, dir, "images.zip", map[string][]byte{"notes.txt": []byte("not an image")})
		prompts := tu.MustWriteFile(t, dir, "prompts.txt", []byte("a beach\na forest\n"))
		return images, prompts
	}

	t.Run("Submit", func(t *testing.T) {
		env := newTestEnv(t)
		images, prompts := writeInputs(t, env.dir)

		out := env.mustRun(t, "jobs", "submit", "--name", "Batch One", "--images", images, "--prompts", prompts)

		job, ok := env.fake.Job("job-1")
		if !ok {
			t.Fatal("expected job-1 to be created")
		}
		if job.Status != models.JobProcessing {
			t.Errorf("expected job started, got %s", job.Status)
		}
		fields := env.fake.UploadedFields("job-1")
		if strings.Join(fields, ",") != "images_folder,prompts_file" {
			t.Errorf("unexpected multipart fields %v", fields)
		}
		if !strings.Contains(out, "Job job-1") || !strings.Contains(out, "Started:  true") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Submit Without Start", func(t *testing.T) {
		env := newTestEnv(t)
		images, prompts := writeInputs(t, env.dir)

		env.mustRun(t, "jobs", "submit", "--name", "Batch One", "--images", images, "--prompts", prompts, "--no-start")

		job, _ := env.fake.Job("job-1")
		if job.Status != models.JobPending {
			t.Errorf("expected pending job, got %s", job.Status)
		}
	})

	t.Run("Submit Compressed", func(t *testing.T) {
		env := newTestEnv(t)
		images, prompts := writeInputs(t, env.dir)

		out := env.mustRun(t, "jobs", "submit", "--name", "Small", "--images", images, "--prompts", prompts, "--compress")

		if !strings.Contains(out, "Compressing images") {
			t.Errorf("expected compression step, got %q", out)
		}
		if len(env.fake.UploadedFields("job-1")) != 2 {
			t.Errorf("expected upload after compression, got %v", env.fake.UploadedFields("job-1"))
		}
	})

	t.Run("Submit Rejects Missing Files", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("jobs", "submit", "--name", "x", "--images", filepath.Join(env.dir, "nope.zip"), "--prompts", filepath.Join(env.dir, "nope.txt"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if len(env.fake.Calls()) != 0 {
			t.Errorf("expected no backend calls, got %v", env.fake.Calls())
		}
	})

	t.Run("Create Upload Start", func(t *testing.T) {
		env := newTestEnv(t)
		images, prompts := writeInputs(t, env.dir)

		out := env.mustRun(t, "jobs", "create", "--json", "Stepwise")
		var created models.CreateJobResponse
		if err := json.Unmarshal([]byte(out), &created); err != nil {
			t.Fatalf("decode: %v", err)
		}

		env.mustRun(t, "jobs", "upload", "--images", images, "--prompts", prompts, created.ID)
		env.mustRun(t, "jobs", "start", created.ID)

		job, _ := env.fake.Job(created.ID)
		if job.Status != models.JobProcessing {
			t.Errorf("expected processing, got %s", job.Status)
		}
	})

	t.Run("List", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "jobs", "list", "--json")
		var jobs []models.Job
		if err := json.Unmarshal([]byte(out), &jobs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(jobs) != 1 || jobs[0].ID != "job-a" {
			t.Errorf("unexpected jobs %+v", jobs)
		}

		if err := env.run("jobs", "list", "--status", "bogus"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Show Records History", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "jobs", "show", "job-a")
		if !strings.Contains(out, "Summer Promo") || !strings.Contains(out, "Download folder: Summer_Promo") {
			t.Errorf("unexpected output %q", out)
		}

		out = env.mustRun(t, "history", "jobs")
		if !strings.Contains(out, "job-a") {
			t.Errorf("expected job-a in history, got %q", out)
		}
	})

	t.Run("Show Missing Job", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("jobs", "show", "nope"); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected ErrJobNotFound, got %v", err)
		}
	})

	t.Run("Show Needs ID", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("jobs", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Watch Stops On Terminal Status", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.AddJob(
			models.Job{ID: "job-b", Name: "Done", Status: models.JobCompleted, ProgressFraction: 1},
			models.Video{ID: "b1", PromptNumber: 1, Status: models.VideoCompleted},
		)

		out := env.mustRun(t, "jobs", "watch", "job-b")
		if !strings.Contains(out, "completed") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Watch Missing Job", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("jobs", "watch", "nope"); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected ErrJobNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "jobs", "show", "job-a")
		env.mustRun(t, "jobs", "delete", "job-a")

		if _, ok := env.fake.Job("job-a"); ok {
			t.Error("expected job to be deleted on the backend")
		}
		out := env.mustRun(t, "history", "jobs")
		if strings.Contains(out, "job-a") {
			t.Errorf("expected history row removed, got %q", out)
		}
	})
}

func TestVideosCommands(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "videos", "list", "job-a")
		if !strings.Contains(out, "a beach") || !strings.Contains(out, "a forest") {
			t.Errorf("expected both prompt groups, got %q", out)
		}

		out = env.mustRun(t, "videos", "list", "--json", "job-a")
		var videos []models.Video
		if err := json.Unmarshal([]byte(out), &videos); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(videos) != 4 {
			t.Errorf("expected 4 videos, got %d", len(videos))
		}
	})

	t.Run("List CSV", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(env.dir, "videos.csv")

		env.mustRun(t, "videos", "list", "--csv", path, "job-a")

		data := tu.MustReadFile(t, path)
		if !strings.HasPrefix(data, "ID,Prompt,Index,Status,Error,Upscaled,URL") {
			t.Errorf("unexpected CSV header: %q", data)
		}
		if strings.Count(data, "\n") != 5 {
			t.Errorf("expected header plus 4 rows, got %q", data)
		}
	})

	t.Run("Select", func(t *testing.T) {
		env := newTestEnv(t)

		env.mustRun(t, "videos", "select", "--id", "v1", "--id", "v2")
		for _, id := range []string{"v1", "v2"} {
			if v, _ := env.fake.Video(id); !v.Selected {
				t.Errorf("expected %s selected", id)
			}
		}

		env.mustRun(t, "videos", "select", "--id", "v1", "--off")
		if v, _ := env.fake.Video("v1"); v.Selected {
			t.Error("expected v1 deselected")
		}
	})

	t.Run("Select Missing Video", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("videos", "select", "--id", "nope"); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
	})

	t.Run("Regenerate", func(t *testing.T) {
		env := newTestEnv(t)

		env.mustRun(t, "videos", "regenerate", "--prompt", "a quiet forest", "v3")

		v, _ := env.fake.Video("v3")
		if v.Status != models.VideoQueued || v.PromptText != "a quiet forest" {
			t.Errorf("unexpected video after regenerate: %+v", v)
		}
	})

	t.Run("Upscale Needs Selection", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("videos", "upscale", "job-a"); !errors.Is(err, shared.ErrNoSelection) {
			t.Errorf("expected ErrNoSelection, got %v", err)
		}
	})

	t.Run("Upscale Rejects Unknown Quality", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("videos", "upscale", "--all", "--quality", "ultra", "job-a"); !errors.Is(err, shared.ErrInvalidQuality) {
			t.Errorf("expected ErrInvalidQuality, got %v", err)
		}
	})

	t.Run("Upscale Simulated", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.SetTaskID("")

		out := env.mustRun(t, "videos", "upscale", "--all", "--quality", "high", "job-a")

		for _, want := range []string{
			"Starting upscaling process for 3 video(s)",
			"Quality preset: High Quality (CRF 18)",
			"Upscaling complete! ✓",
			"All 3 video(s) upscaled to 4K",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output %q", want, out)
			}
		}

		out = env.mustRun(t, "history", "tasks")
		if !strings.Contains(out, "job-a") || !strings.Contains(out, "simulated") {
			t.Errorf("expected recorded task, got %q", out)
		}
	})

	t.Run("Upscale Server Failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.SetUpscale(models.UpscaleStatus{TaskID: "task-1", Status: "failed", ErrorMessage: "gpu lost"})

		err := env.run("videos", "upscale", "--id", "v1", "job-a")
		if !errors.Is(err, shared.ErrTaskFailed) {
			t.Fatalf("expected ErrTaskFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "gpu lost") {
			t.Errorf("expected server message in %v", err)
		}
	})

	t.Run("Upscale Server Completes", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.SetUpscale(models.UpscaleStatus{
			TaskID:      "task-1",
			Status:      "completed",
			Progress:    100,
			TotalVideos: 2,
		})

		out := env.mustRun(t, "videos", "upscale", "--id", "v1", "--id", "v2", "job-a")
		if !strings.Contains(out, "Task ID: task-1") || !strings.Contains(out, "Videos are now available for download") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Download", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "videos", "download", "--all", "job-a")

		path := filepath.Join(env.dir, "Summer_Promo.zip")
		tu.AssertFileExists(t, path)
		if got := tu.MustReadFile(t, path); got != string(env.fake.Archive) {
			t.Errorf("unexpected archive content %q", got)
		}
		if !strings.Contains(out, "Saved 3 video(s)") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Download Custom Folder", func(t *testing.T) {
		env := newTestEnv(t)
		dest := filepath.Join(env.dir, "out")

		env.mustRun(t, "videos", "download", "--id", "v1", "--folder", "My Pick", "--dir", dest, "--resolution", "4K", "job-a")
		tu.AssertFileExists(t, filepath.Join(dest, "My_Pick.zip"))
	})

	t.Run("Download Rejects Resolution", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("videos", "download", "--all", "--resolution", "8K", "job-a"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Open", func(t *testing.T) {
		env := newTestEnv(t)

		env.mustRun(t, "videos", "open", "v1")
		if len(env.opened) != 1 || env.opened[0] != "https://cdn.example.com/v1.mp4" {
			t.Errorf("unexpected opened urls %v", env.opened)
		}

		if err := env.run("videos", "open", "v2"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for video without media, got %v", err)
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		env := newTestEnv(t)

		if out := env.mustRun(t, "history", "jobs"); out != "No job history\n" {
			t.Errorf("unexpected output %q", out)
		}
		if out := env.mustRun(t, "history", "tasks"); out != "No upscale history\n" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Show Task", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.SetTaskID("")
		env.mustRun(t, "videos", "upscale", "--id", "v1", "job-a")

		out := env.mustRun(t, "history", "tasks", "--json")
		var records []struct {
			ID string
		}
		if err := json.Unmarshal([]byte(out), &records); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected one task, got %d", len(records))
		}

		out = env.mustRun(t, "history", "show", records[0].ID)
		if !strings.Contains(out, "Upscaling complete! ✓") {
			t.Errorf("expected stored log, got %q", out)
		}

		if err := env.run("history", "show", "missing"); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun(t, "jobs", "show", "job-a")

		out := env.mustRun(t, "history", "clear", "--jobs")
		if !strings.Contains(out, "Removed 1 job record(s)") || strings.Contains(out, "task record") {
			t.Errorf("unexpected output %q", out)
		}
		if out := env.mustRun(t, "history", "jobs"); out != "No job history\n" {
			t.Errorf("expected cleared history, got %q", out)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "api", "get", "/jobs/job-a")
		if !strings.Contains(out, `"job_id": "job-a"`) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Get Error Status", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("api", "get", "/jobs/missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Post", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.mustRun(t, "api", "post", "--data", `{"job_name":"Raw"}`, "/jobs/create")
		if !strings.Contains(out, `"job_name": "Raw"`) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Post Invalid JSON", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("api", "post", "--data", "{", "/jobs/create"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
