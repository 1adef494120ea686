package app

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/compressdash/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkglog"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager

	// resources

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closed in registration order after the HTTP server drained
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func New() *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
