// Package api exposes the scheduling core as a JSON HTTP API for the UI.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/keystone/internal/alert"
	"github.com/zulandar/keystone/internal/evm"
	"github.com/zulandar/keystone/internal/metrics"
	"github.com/zulandar/keystone/internal/notify"
	"github.com/zulandar/keystone/internal/store"
	"github.com/zulandar/keystone/internal/timeline"
	"go.uber.org/zap"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Store  *store.Store
	Port   int
	Out    io.Writer
	Logger *zap.Logger

	Theme     timeline.Theme // default theme when a request names none
	Weighting evm.Weighting  // default EV weighting
	Alerts    alert.Opts     // generator tuning; Notifier and Logger are filled in
	Notifier  notify.Notifier

	Now func() time.Time // defaults to time.Now
}

// Start launches the API HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("api: store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Keystone API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with middleware and every route registered.
func NewRouter(opts StartOpts) *gin.Engine {
	registerValidators()

	d := newDeps(opts)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(d.logger), metrics.GinMiddleware())
	registerRoutes(router, d)
	return router
}

// deps is what every handler closes over.
type deps struct {
	st        *store.Store
	logger    *zap.Logger
	theme     timeline.Theme
	weighting evm.Weighting
	alerts    alert.Opts
	now       func() time.Time
}

func newDeps(opts StartOpts) *deps {
	d := &deps{
		st:        opts.Store,
		logger:    opts.Logger,
		theme:     opts.Theme,
		weighting: opts.Weighting,
		alerts:    opts.Alerts,
		now:       opts.Now,
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.theme == "" {
		d.theme = timeline.ThemeLight
	}
	if d.weighting == "" {
		d.weighting = evm.WeightEqual
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.alerts.Logger == nil {
		d.alerts.Logger = d.logger
	}
	if opts.Notifier != nil {
		d.alerts.Notifier = opts.Notifier
	}
	return d
}
