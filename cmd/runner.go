package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vgen/internal/media"
	"github.com/desertthunder/vgen/internal/repositories"
	"github.com/desertthunder/vgen/internal/services"
	"github.com/desertthunder/vgen/internal/shared"
	"github.com/desertthunder/vgen/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configPath   string
	backend      *services.BackendService
	fixedBackend bool
	httpClient   *http.Client
	logger       *log.Logger
	output       io.Writer
	browser      func(url string) error
	db           *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    *services.BackendService // overrides the client built from Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Browser    func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	r := &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		backend:      opts.Backend,
		fixedBackend: opts.Backend != nil,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		output:       opts.Output,
		browser:      opts.Browser,
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: r.config.Backend.Timeout()}
	}
	if r.backend == nil {
		r.backend = r.newBackend()
	}
	return r
}

func (r *Runner) newBackend() *services.BackendService {
	api := services.NewAPIService(services.APIBase(r.config.Backend.URL), r.httpClient).
		WithUserAgent(r.config.Backend.UserAgent)
	return services.NewBackendService(api)
}

// SetLogger replaces the logger used by every command.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "vgen",
		Usage:   "Drive batch video generation jobs from the terminal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Backend base URL (overrides backend.url)",
				Sources: cli.EnvVars("VGEN_BACKEND_URL"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

// before loads the configuration named by --config and rebuilds the backend client from it.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if url := cmd.String("backend"); url != "" {
		r.config.Backend.URL = url
	}

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if !r.fixedBackend {
		r.httpClient.Timeout = r.config.Backend.Timeout()
		r.backend = r.newBackend()
	}
	return ctx, nil
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// history opens the local history database on first use.
func (r *Runner) history() (*repositories.JobRepository, *repositories.TaskRepository, error) {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, nil, err
		}
		r.db = db
	}
	return repositories.NewJobRepository(r.db), repositories.NewTaskRepository(r.db), nil
}

// recorder returns the history stores, or nil when the database cannot be opened.
// History is optional; commands keep working without it.
func (r *Runner) recorder() *repositories.HistoryRecorder {
	jobs, tasks, err := r.history()
	if err != nil {
		r.logger.Warn("history disabled", "err", err)
		return nil
	}
	return repositories.NewHistoryRecorder(jobs, tasks)
}

func (r *Runner) stores() (tasks.SnapshotStore, tasks.TaskStore) {
	rec := r.recorder()
	if rec == nil {
		return nil, nil
	}
	return rec, rec
}

func (r *Runner) compressor(force bool) tasks.Compressor {
	if !force && !r.config.Upload.CompressImages {
		return nil
	}
	c := media.NewCompressor(media.Options{
		MaxDimension: r.config.Upload.MaxDimension,
		JPEGQuality:  r.config.Upload.JPEGQuality,
	}, r.logger)
	return c.Compress
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, jobsCommand, videosCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
