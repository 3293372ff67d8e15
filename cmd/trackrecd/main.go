// Command trackrecd runs the TrackRec API server: the club-scoped
// authorization engine, session management and the athletics record
// store behind a single HTTP surface, with a separate health/metrics
// listener and scheduled cleanup jobs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/api"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/athletics"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/audit"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/auth"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/config"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/database"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/membership"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)

	db, err := database.ConnectPostgres(cfg.Postgres)
	if err != nil {
		logger.WithError(err).Error("failed to connect to postgres")
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	redisClient, err := database.ConnectRedis(cfg.Redis)
	if err != nil {
		logger.WithError(err).Error("failed to connect to redis")
		os.Exit(1)
	}
	defer redisClient.Close()

	// Stores and core services. The membership store doubles as the
	// single role source for both the verifier and the session
	// manager, so every check sees the same membership rows.
	members := membership.NewStore(db)
	users := auth.NewUserStore(db)
	athleticsStore := athletics.NewStore(db)
	auditor := audit.NewRecorder(db)

	verifier := authz.NewVerifier(members)
	sessions := session.NewManager(redisClient, members, cfg.Session.TTL)
	metrics := observability.NewMetrics(nil)
	g := guard.New(sessions, verifier, metrics, auditor)

	server := api.NewServer(api.Deps{
		Guard:      g,
		Auth:       auth.NewHandlers(users, sessions, logger),
		Sessions:   guard.NewSessionHandlers(sessions, members, metrics, auditor),
		Membership: membership.NewHandlers(members),
		Athletics:  athletics.NewHandlers(athleticsStore),
		Audit:      audit.NewHandlers(auditor),
		Logger:     logger,
		Metrics:    metrics,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(db, redisClient)
	healthRouter := mux.NewRouter()
	healthRouter.HandleFunc("/healthz", health.Liveness).Methods("GET")
	healthRouter.HandleFunc("/readyz", health.Readiness).Methods("GET")
	healthRouter.Handle("/metrics", metrics.Handler()).Methods("GET")
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthRouter,
	}

	// Scheduled cleanup: expired invitations hourly, old audit rows
	// daily.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		n, err := members.CleanupExpiredInvitations(context.Background())
		if err != nil {
			logger.WithError(err).Error("invitation cleanup failed")
			return
		}
		if n > 0 {
			logger.WithField("removed", n).Info("cleaned up expired invitations")
		}
	}); err != nil {
		logger.WithError(err).Error("failed to schedule invitation cleanup")
		os.Exit(1)
	}
	if _, err := scheduler.AddFunc("@daily", func() {
		n, err := auditor.CleanupOlderThan(context.Background(), cfg.Audit.Retention)
		if err != nil {
			logger.WithError(err).Error("audit cleanup failed")
			return
		}
		if n > 0 {
			logger.WithField("removed", n).Info("cleaned up old audit events")
		}
	}); err != nil {
		logger.WithError(err).Error("failed to schedule audit cleanup")
		os.Exit(1)
	}
	scheduler.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("shutting down")

		cronCtx := scheduler.Stop()
		<-cronCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("API server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown failed")
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("stopped")
}
