package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()

	var (
		snow *pkguid.Snowflake
		err  error
	)
	if node := a.config.GetInt("server.node_id"); node > 0 {
		snow, err = pkguid.NewSnowflakeNode(node)
	} else {
		snow, err = pkguid.NewSnowflake()
	}
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = snow
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	origins := a.config.GetArray("server.cors.allowed_origins")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", pkgrouter.HeaderCorrelationID},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) initClosers() {
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})
}

// ShutdownTimeout bounds Stop; it defaults to 10 seconds.
func (a *App) ShutdownTimeout() time.Duration {
	if secs := a.config.GetInt("server.shutdown_timeout_seconds"); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 10 * time.Second
}
