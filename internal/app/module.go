package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/compressdash/internal/compression"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.compression.enabled") {
		stop, err := compression.New(compression.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
			JobID:     a.snowflake,
		})
		if err != nil {
			slog.Error("failed to init module compression", "error", err)
			os.Exit(1)
		}
		if stop != nil {
			a.addCloser("Compression events", stop)
		}
	}
}
