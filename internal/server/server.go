// Package server exposes the sync payloads over HTTP: session index
// queries, cursor-paginated message pages, cached diffs, and an SSE
// feed of live message updates. It is a thin adapter; every decision
// lives in the store and snapshot packages.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holdfast-dev/holdfast/internal/snapshot"
	"github.com/holdfast-dev/holdfast/internal/store"
)

// StartOpts holds configuration for the sync server.
type StartOpts struct {
	Store     *store.Store
	Snapshots *snapshot.Store
	Addr      string
	// GCSchedule is a 5-field cron expression for shadow-repo pruning;
	// empty disables the scheduler.
	GCSchedule string
	Out        io.Writer
}

// Start launches the sync HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("server: store is required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:4517"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts.Store)

	if opts.Snapshots != nil && opts.GCSchedule != "" {
		go runGCSchedule(ctx, opts.Snapshots, opts.GCSchedule)
	}

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Sync server running at http://%s\n", opts.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
