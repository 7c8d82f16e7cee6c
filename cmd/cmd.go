// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a default config.toml",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// jobsCommand handles the generation job lifecycle.
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Create, submit and monitor generation jobs",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an empty job",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.JobsCreate,
			},
			{
				Name:      "upload",
				Usage:     "Upload the images archive and prompts file of a job",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "images", Usage: "Images .zip archive", Required: true},
					&cli.StringFlag{Name: "prompts", Usage: "Prompts .txt file", Required: true},
					&cli.BoolFlag{Name: "compress", Usage: "Downscale images before upload"},
				},
				Action: r.JobsUpload,
			},
			{
				Name:      "start",
				Usage:     "Start generation for an uploaded job",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.JobsStart,
			},
			{
				Name:  "submit",
				Usage: "Create, upload and start a job in one step",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Job name", Required: true},
					&cli.StringFlag{Name: "images", Usage: "Images .zip archive", Required: true},
					&cli.StringFlag{Name: "prompts", Usage: "Prompts .txt file", Required: true},
					&cli.BoolFlag{Name: "no-start", Usage: "Upload without starting"},
					&cli.BoolFlag{Name: "compress", Usage: "Downscale images before upload"},
				},
				Action: r.JobsSubmit,
			},
			{
				Name:  "list",
				Usage: "List recent jobs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Filter by status (pending, processing, completed, failed, cancelled)"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of jobs", Value: 20},
					jsonFlag(),
				},
				Action: r.JobsList,
			},
			{
				Name:      "show",
				Usage:     "Show a job with its videos grouped by prompt",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.JobsShow,
			},
			{
				Name:      "watch",
				Usage:     "Follow a job until it finishes",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "follow", Aliases: []string{"f"}, Usage: "Keep watching after the job finishes"},
				},
				Action: r.JobsWatch,
			},
			{
				Name:      "delete",
				Usage:     "Delete a job",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.JobsDelete,
			},
		},
	}
}

// videosCommand handles per-video operations of one job.
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "videos",
		Aliases: []string{"v"},
		Usage:   "Select, upscale and download generated videos",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the videos of a job",
				Arguments: []cli.Argument{&cli.StringArg{Name: "job"}},
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.StringFlag{Name: "csv", Usage: "Write a CSV export to this path"},
				},
				Action: r.VideosList,
			},
			{
				Name:  "select",
				Usage: "Mark videos selected on the backend",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Usage: "Video ID (repeatable)", Required: true},
					&cli.BoolFlag{Name: "off", Usage: "Deselect instead"},
				},
				Action: r.VideosSelect,
			},
			{
				Name:      "regenerate",
				Usage:     "Regenerate one video, optionally with a new prompt",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "Replacement prompt"},
				},
				Action: r.VideosRegenerate,
			},
			{
				Name:      "upscale",
				Usage:     "Upscale videos to 4K and follow the task",
				Arguments: []cli.Argument{&cli.StringArg{Name: "job"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Usage: "Preset (fast, balanced, high)", Value: "balanced"},
					&cli.StringSliceFlag{Name: "id", Usage: "Video ID (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "Every completed video of the job"},
				},
				Action: r.VideosUpscale,
			},
			{
				Name:      "download",
				Usage:     "Download videos as a zip archive",
				Arguments: []cli.Argument{&cli.StringArg{Name: "job"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Usage: "Video ID (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "Every completed video of the job"},
					&cli.StringFlag{Name: "folder", Usage: "Archive name (defaults to the job name)"},
					&cli.StringFlag{Name: "resolution", Usage: "720p or 4K"},
					&cli.StringFlag{Name: "dir", Usage: "Destination directory"},
				},
				Action: r.VideosDownload,
			},
			{
				Name:      "open",
				Usage:     "Open a video in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.VideosOpen,
			},
		},
	}
}

// historyCommand reads and clears the local history database.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Local job and upscale history",
		Commands: []*cli.Command{
			{
				Name:  "jobs",
				Usage: "List recorded job snapshots",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Filter by status"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of rows", Value: 50},
					jsonFlag(),
				},
				Action: r.HistoryJobs,
			},
			{
				Name:  "tasks",
				Usage: "List finished upscale tasks",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "job", Usage: "Only tasks of this job"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of rows", Value: 50},
					jsonFlag(),
				},
				Action: r.HistoryTasks,
			},
			{
				Name:      "show",
				Usage:     "Show one recorded task with its log",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.HistoryShow,
			},
			{
				Name:  "clear",
				Usage: "Delete recorded history",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "jobs", Usage: "Only job snapshots"},
					&cli.BoolFlag{Name: "tasks", Usage: "Only upscale tasks"},
				},
				Action: r.HistoryClear,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend REST API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Compact JSON output",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
						Value:   "{}",
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "job", Usage: "Open this job directly"},
		},
		Action: r.TUI,
	}
}
