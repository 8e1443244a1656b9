package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Rashmi7205/admin-fam-tree/internal/handler"
	"github.com/Rashmi7205/admin-fam-tree/internal/middleware"
	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/Rashmi7205/admin-fam-tree/pkg/database"
	"github.com/Rashmi7205/admin-fam-tree/pkg/events"
	"github.com/Rashmi7205/admin-fam-tree/pkg/identity"
	"github.com/Rashmi7205/admin-fam-tree/pkg/jwtutil"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/pkg/mailer"
	"github.com/Rashmi7205/admin-fam-tree/pkg/storage"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting family tree admin service", cfg.LogConfig()...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("Database connection established", zap.String("driver", cfg.DB.Driver))

	mail, err := mailer.New(ctx, &cfg.Mail, log)
	if err != nil {
		return err
	}
	uploader, err := storage.New(ctx, &cfg.Upload)
	if err != nil {
		return err
	}
	publisher := events.New(&cfg.Events)
	defer publisher.Close()

	svc := service.New(service.Deps{
		DB:           db,
		JWT:          jwtutil.New(cfg.Session.SigningKey, cfg.Session.TTL),
		Identity:     identity.New(&cfg.Identity),
		Mailer:       mail,
		Uploader:     uploader,
		Publisher:    publisher,
		UploadFolder: cfg.Upload.Folder,
		MaxUpload:    cfg.Upload.MaxSizeBytes,
	})

	prometheus.SetVersion(cfg.Metrics.Version)

	e := newServer(cfg, log)
	if local, ok := uploader.(*storage.Local); ok && strings.HasPrefix(cfg.Upload.PublicBaseURL, "/") {
		e.Static(cfg.Upload.PublicBaseURL, local.Dir())
	}
	e.GET(cfg.Metrics.Path, handler.MetricsHandler)
	handler.New(db, svc, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Server.IsProduction(),
	}).Register(e)

	errc := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		errc <- e.Start(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newServer builds the Echo instance with the global middleware. Order matters:
// the logger consumes handler errors, so metrics read the status from them.
func newServer(cfg *config.Config, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(echomiddleware.BodyLimit(cfg.Server.BodyLimit))
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())
	return e
}
