// Package compression wires the compression dashboard: the remote client, the
// record cache, the job controller and their HTTP endpoints.
package compression

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/compressdash/internal/compression/event"
	"github.com/shandysiswandi/compressdash/internal/compression/inbound"
	"github.com/shandysiswandi/compressdash/internal/compression/job"
	"github.com/shandysiswandi/compressdash/internal/compression/remote"
	"github.com/shandysiswandi/compressdash/internal/compression/store"
	"github.com/shandysiswandi/compressdash/internal/compression/usecase"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkguid"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	JobID     pkguid.NumberID
}

// RemoteConfig reads the remote.* keys.
func RemoteConfig(cfg pkgconfig.Config) remote.Config {
	return remote.Config{
		BaseURL:        cfg.GetString("remote.base_url"),
		Timeout:        time.Duration(cfg.GetInt("remote.timeout_seconds")) * time.Second,
		Headers:        cfg.GetMap("remote.headers"),
		MaxUploadBytes: cfg.GetInt("remote.max_upload_bytes"),
	}
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.Config == nil || dep.Router == nil || dep.Goroutine == nil {
		return nil, errors.New("compression: missing dependency")
	}
	if dep.Context == nil {
		dep.Context = context.Background()
	}
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	remoteCfg := RemoteConfig(dep.Config)
	client, err := remote.NewClient(remoteCfg)
	if err != nil {
		return nil, err
	}

	storage := store.NewInMemoryStore(client, nil)
	bus := event.NewBus(256)
	consumer := event.NewConsumer(bus, event.LogHandler{})
	consumer.Start()

	ctrl := job.NewController(job.Dependency{
		Transport: client,
		Events:    bus,
		Sink:      storage,
		JobID:     dep.JobID,
		EventID:   dep.ID,
	})

	uc := usecase.New(usecase.Dependency{
		Store:       storage,
		Jobs:        ctrl,
		Downloads:   job.NewDownloader(client, storage),
		Runner:      dep.Goroutine,
		RecentLimit: int(dep.Config.GetInt("modules.compression.recent_limit")),
		RootCtx:     dep.Context,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, remoteCfg.MaxUploadBytes)

	if dep.Config.GetBool("modules.compression.refresh_on_start") {
		dep.Goroutine.Go(dep.Context, func(ctx context.Context) error {
			if _, err := uc.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "initial refresh failed", "error", err)
			}
			return nil
		})
	}

	return consumer.Stop, nil
}
