package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/shandysiswandi/compressdash/internal/compression"
	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/compression/inbound"
	"github.com/shandysiswandi/compressdash/internal/compression/job"
	"github.com/shandysiswandi/compressdash/internal/compression/remote"
	"github.com/shandysiswandi/compressdash/internal/compression/store"
	"github.com/shandysiswandi/compressdash/internal/compression/usecase"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkglog"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkguid"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "compressctl",
		Usage:   "Client for the CSV compression service",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to a config.yaml with remote.* keys"},
			&cli.StringFlag{Name: "base-url", EnvVars: []string{pkgconfig.EnvPrefix + "_REMOTE_BASE_URL"}, Usage: "Compression service URL"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Minute, Usage: "Request timeout"},
			&cli.StringSliceFlag{Name: "header", Aliases: []string{"H"}, Usage: "Extra request header as key:value (repeatable)"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log debug output to stderr"},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelWarn
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			pkglog.InitLoggingTo(c.App.ErrWriter, level, c.App.Name)

			// one id per invocation, sent as X-Correlation-ID on every remote call
			c.Context = pkglog.WithCorrelationID(c.Context, pkguid.NewUUID().Generate())
			return nil
		},
		Commands: []*cli.Command{
			compressCmd(),
			listCmd(),
			recentCmd(),
			statsCmd(),
			chartsCmd(),
			downloadCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// compressCmd creates the compress command.
func compressCmd() *cli.Command {
	return &cli.Command{
		Name:      "compress",
		Usage:     "Upload a CSV file and wait for the compression result",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(pkgerror.NewInvalidInput(errors.New("exactly one file is required")))
			}

			file, err := entity.FileFromPath(c.Args().First())
			if err != nil {
				return outputError(pkgerror.NewInvalidInput(err))
			}

			s, err := newSession(c, progressPrinter{w: c.App.ErrWriter})
			if err != nil {
				return outputError(err)
			}

			if _, err := s.uc.StartJob(c.Context, file); err != nil {
				return outputError(err)
			}
			_ = s.runner.Wait()

			view, err := s.uc.CurrentJob(c.Context)
			if err != nil {
				return outputError(err)
			}
			if err := outputJSON(c, inbound.NewJob(view)); err != nil {
				return err
			}
			if view.State.Status == entity.JobStatusFailed {
				return cli.Exit(view.State.Message, 1)
			}
			return nil
		},
	}
}

// listCmd creates the list command.
func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List compressed files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Case-insensitive filename filter"},
		},
		Action: func(c *cli.Context) error {
			s, err := newRefreshedSession(c)
			if err != nil {
				return outputError(err)
			}

			result, err := s.uc.Records(c.Context, c.String("query"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, inbound.NewRecords(result.Records))
		},
	}
}

// recentCmd creates the recent command.
func recentCmd() *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Show the most recently compressed files",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: usecase.DefaultRecentLimit, Usage: "Number of files"},
		},
		Action: func(c *cli.Context) error {
			if c.Int("limit") < 1 {
				return outputError(pkgerror.NewInvalidInput(errors.New("limit must be positive")))
			}

			s, err := newRefreshedSession(c)
			if err != nil {
				return outputError(err)
			}

			dash, err := s.uc.Dashboard(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, inbound.NewRecords(dash.Recent))
		},
	}
}

// statsCmd creates the stats command.
func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarize every compression job",
		Action: func(c *cli.Context) error {
			s, err := newRefreshedSession(c)
			if err != nil {
				return outputError(err)
			}

			dash, err := s.uc.Dashboard(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, inbound.NewDashboard(dash))
		},
	}
}

// chartsCmd creates the charts command.
func chartsCmd() *cli.Command {
	return &cli.Command{
		Name:  "charts",
		Usage: "Print the size, trend and efficiency series",
		Action: func(c *cli.Context) error {
			s, err := newRefreshedSession(c)
			if err != nil {
				return outputError(err)
			}

			charts, err := s.uc.Charts(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, charts.Series)
		},
	}
}

// downloadCmd creates the download command.
func downloadCmd() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download the decompressed CSV of a file",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path (defaults to decompressed_<name>.csv)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(pkgerror.NewInvalidInput(errors.New("exactly one id is required")))
			}

			s, err := newRefreshedSession(c)
			if err != nil {
				return outputError(err)
			}

			blob, err := s.uc.Download(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			out := c.String("out")
			if out == "" {
				out = blob.Filename
			}
			if err := os.WriteFile(out, blob.Data, 0o600); err != nil {
				return outputError(pkgerror.NewServer(err))
			}

			return outputJSON(c, downloadOutput{Path: filepath.Clean(out), Bytes: len(blob.Data), ContentType: blob.ContentType})
		},
	}
}

type downloadOutput struct {
	Path        string `json:"path"`
	Bytes       int    `json:"bytes"`
	ContentType string `json:"content_type"`
}

// session is the per-invocation wiring of the compression core.
type session struct {
	uc     *usecase.Usecase
	runner *pkgroutine.Manager
}

func newSession(c *cli.Context, events job.EventPublisher) (*session, error) {
	cfg, err := remoteConfig(c)
	if err != nil {
		return nil, err
	}

	client, err := remote.NewClient(cfg)
	if err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	storage := store.NewInMemoryStore(client, nil)
	runner := pkgroutine.NewManager(1)

	var jobID pkguid.NumberID
	if snow, err := pkguid.NewSnowflake(); err == nil {
		jobID = snow
	}

	ctrl := job.NewController(job.Dependency{
		Transport: client,
		Events:    events,
		Sink:      storage,
		JobID:     jobID,
	})

	uc := usecase.New(usecase.Dependency{
		Store:       storage,
		Jobs:        ctrl,
		Downloads:   job.NewDownloader(client, storage),
		Runner:      runner,
		RecentLimit: c.Int("limit"),
		RootCtx:     c.Context,
	})

	return &session{uc: uc, runner: runner}, nil
}

func newRefreshedSession(c *cli.Context) (*session, error) {
	s, err := newSession(c, nil)
	if err != nil {
		return nil, err
	}
	if _, err := s.uc.Refresh(c.Context); err != nil {
		return nil, err
	}
	return s, nil
}

// remoteConfig reads remote.* from --config when given; flags win over the file.
func remoteConfig(c *cli.Context) (remote.Config, error) {
	var cfg remote.Config
	if path := c.String("config"); path != "" {
		vc, err := pkgconfig.NewViper(path)
		if err != nil {
			return remote.Config{}, pkgerror.NewInvalidInput(fmt.Errorf("load config: %w", err))
		}
		defer vc.Close()
		cfg = compression.RemoteConfig(vc)
	}

	if c.IsSet("base-url") || cfg.BaseURL == "" {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("timeout") || cfg.Timeout <= 0 {
		cfg.Timeout = c.Duration("timeout")
	}

	headers, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return remote.Config{}, err
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for k, v := range headers {
		cfg.Headers[k] = v
	}

	if cfg.BaseURL == "" {
		return remote.Config{}, pkgerror.NewInvalidInput(errors.New("base url is required (--base-url or remote.base_url)"))
	}
	return cfg, nil
}

// parseHeaders splits "key:value" pairs.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, pkgerror.NewInvalidInput(fmt.Errorf("invalid header %q, want key:value", h))
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}

// progressPrinter reports job transitions on stderr while stdout carries JSON.
type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) Publish(_ context.Context, event entity.JobEvent) error {
	st := event.State
	switch st.Status {
	case entity.JobStatusUploading:
		_, err := fmt.Fprintf(p.w, "uploading %s: %d%%\n", st.FileName, st.Progress)
		return err
	case entity.JobStatusAwaitingResult:
		_, err := fmt.Fprintln(p.w, "upload finished, waiting for the result")
		return err
	case entity.JobStatusFailed:
		_, err := fmt.Fprintf(p.w, "failed: %s\n", st.Message)
		return err
	}
	return nil
}

// Helper functions

// outputJSON writes v to the app writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err for the CLI.
func outputError(err error) error {
	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		return cli.Exit(err.Error(), 1)
	}

	msg := perr.Msg()
	if perr.Type() == pkgerror.TypeValidation && perr.Unwrap() != nil {
		msg = perr.Unwrap().Error()
	}
	if msg == "" {
		msg = perr.Error()
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", perr.Code(), msg), 1)
}
