package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wolfitem/news-enricher/internal/api"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

var serveWarm bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve enriched articles over HTTP",
	Long: `serve starts the HTTP API. Articles are enriched on the first request (or at
startup with --warm) and kept as a snapshot; server.refresh_cron rebuilds the
snapshot on a schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", true, "build the first snapshot at startup")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	app, err := buildApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	serverCfg := loadServerConfig()

	if viper.GetString("logger.level") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           api.NewRouter(app.enrichment, app.metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler, err := startScheduler(ctx, app, serverCfg.RefreshCron)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { <-scheduler.Stop().Done() }()
	}

	if interval := memStatsInterval(); interval > 0 {
		monitor := logger.NewMemStatsMonitor(interval)
		monitor.Start()
		defer monitor.Stop()
	}

	if serveWarm {
		go refresh(ctx, app)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	middleware.LogMetrics(app.metrics)
	return nil
}

// startScheduler registers the snapshot refresh job. It returns nil when no
// schedule is configured.
func startScheduler(ctx context.Context, app *application, spec string) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { refresh(ctx, app) }); err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("snapshot refresh scheduled", "cron", spec)
	return c, nil
}

func refresh(ctx context.Context, app *application) {
	defer logger.TimeTrack("snapshot refresh")()

	articles, err := app.enrichment.Refresh(ctx)
	if err != nil {
		logger.Warn("snapshot refresh failed", "error", err)
		return
	}
	logger.Info("snapshot refreshed", "articles", len(articles))

	if app.sqliteCache != nil {
		if err := app.sqliteCache.CleanExpiredItems(ctx); err != nil {
			logger.Warn("cleaning image cache failed", "error", err)
		}
		stats := app.sqliteCache.GetCacheStats(ctx)
		logger.Debug("image cache", "entries", stats.TotalItems, "expired_removed", stats.ExpiredItems)
	}
}
