package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depo-backend/internal/activity"
	"depo-backend/internal/auth"
	"depo-backend/internal/cache"
	"depo-backend/internal/codegen"
	"depo-backend/internal/config"
	"depo-backend/internal/geoip"
	"depo-backend/internal/handlers"
	"depo-backend/internal/health"
	apphttp "depo-backend/internal/http"
	"depo-backend/internal/logger"
	"depo-backend/internal/middleware"
	"depo-backend/internal/objectstore"
	"depo-backend/internal/repositories"
	"depo-backend/internal/services"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Init(cfg.Log.Level, cfg.Log.Format)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.WithComponent("Server")

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.WithError(err).Warn("redis unavailable, running without cache and sweep lock")
	}
	defer cache.Close()

	checks := []health.Check{{Name: "store", Pinger: st.Backend}}
	if c := cache.GetClient(); c != nil {
		checks = append(checks, health.Check{Name: "redis", Optional: true, Pinger: health.PingFunc(func(ctx context.Context) error {
			return c.Ping(ctx).Err()
		})})
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHours)
	codes := codegen.New(st.Backend)
	boxes := repositories.NewBoxRepository(st.Backend, codes)
	pallets := repositories.NewPalletRepository(st.Backend, codes)
	shipments := repositories.NewShipmentRepository(st.Backend, codes)
	users := repositories.NewUserRepository(st.Backend)
	settings := repositories.NewSettingsRepository(st.Backend)

	tracker := activity.NewTracker(st.Backend, nil, logger.WithComponent("Activity"))
	if cfg.GeoIP.Enabled {
		tracker.Geo = geoip.New(cfg.GeoIP.URL, cfg.GeoIP.Timeout, logger.WithComponent("GeoIP"))
	}
	tracker.ActiveWindow = cfg.Activity.ActiveWindow
	tracker.IdleTimeout = cfg.Activity.IdleTimeout

	var locker activity.Locker
	if l := cache.NewLocker(); l != nil {
		locker = l
	}
	retention := time.Duration(cfg.Activity.RetentionDays) * 24 * time.Hour
	sweeper := activity.NewSweeper(tracker, locker, cfg.Activity.SweepInterval, retention, logger.WithComponent("Sweeper"))

	photos := services.NewPhotoService(nil, boxes, pallets, shipments)
	if cfg.ObjectStore.Configured() {
		bucket, err := objectstore.New(ctx, cfg.ObjectStore)
		if err != nil {
			log.WithError(err).Warn("object storage unavailable, photo uploads disabled")
		} else {
			photos.Uploader = bucket
			checks = append(checks, health.Check{Name: "object_store", Optional: true, Pinger: bucket})
		}
	}

	media := handlers.NewMediaHandler(photos, boxes, pallets, shipments, cfg.Server.PublicBaseURL)
	media.Printer = services.NewPrinterService(cfg.Printer.URL, cfg.Printer.Timeout)

	userService := services.NewUserService(users, jwtManager, tracker, logger.WithComponent("Users"))
	loginLimiter := middleware.NewRateLimiter(cfg.Server.LoginRatePerMinute, time.Minute)
	baseURL := cfg.Server.PublicBaseURL

	router := apphttp.NewRouter(apphttp.Handlers{
		Auth:      handlers.NewAuthHandler(userService),
		Users:     handlers.NewUserHandler(userService, repositories.NewDepartmentRepository(st.Backend)),
		Boxes:     handlers.NewBoxHandler(boxes, pallets),
		Pallets:   handlers.NewPalletHandler(pallets, shipments),
		Shipments: handlers.NewShipmentHandler(shipments, services.NewExportService(shipments, boxes)),
		Media:     media,
		Public:    handlers.NewPublicHandler(boxes, pallets, shipments, baseURL),
		Activity:  handlers.NewActivityHandler(repositories.NewLoginLogRepository(st.Backend), tracker),
		Live:      handlers.NewLiveHandler(tracker, cfg.Activity.HeartbeatInterval),
		Settings:  handlers.NewSettingsHandler(settings),
		Health:    handlers.NewHealthHandler(health.NewHealthChecker(checks...)),
	},
		middleware.NewAuthMiddleware(jwtManager, users),
		middleware.NewSiteGuard(settings),
		loginLimiter,
	)

	g, gctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
		// Live websocket streams end with the server context.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		loginLimiter.Run(gctx, 5*time.Minute)
		return nil
	})
	g.Go(func() error {
		log.WithField("addr", srv.Addr).WithField("backend", st.Backend.Name()).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
