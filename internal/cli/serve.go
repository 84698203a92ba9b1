package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/parking-management/internal/config"
	"github.com/Shivanand-hulikatti/parking-management/internal/database"
	"github.com/Shivanand-hulikatti/parking-management/internal/handler"
	"github.com/Shivanand-hulikatti/parking-management/internal/notify"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
	"github.com/Shivanand-hulikatti/parking-management/internal/service"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default when no subcommand is given)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	cmd.Flags().Bool("migrate", true, "apply pending migrations before serving")
}

// app is the fully wired service graph.
type app struct {
	auth       *service.AuthService
	services   handler.Services
	dispatcher *notify.Dispatcher
}

func wire(cfg *config.Config, pool *pgxpool.Pool, log *logrus.Logger) (*app, error) {
	users := repository.NewUserRepository(pool)
	vehicles := repository.NewVehicleRepository(pool)
	slots := repository.NewSlotRepository(pool)
	requests := repository.NewRequestRepository(pool)
	parking := repository.NewParkingRepository(pool)
	payments := repository.NewPaymentRepository(pool)
	logs := repository.NewLogRepository(pool)

	var mailer notify.Mailer = notify.LogMailer{Log: log.WithField("component", "mail")}
	if cfg.Mail.Enabled() {
		m, err := notify.NewSMTPMailer(cfg.Mail)
		if err != nil {
			return nil, err
		}
		mailer = m
	}
	dispatcher := notify.NewDispatcher(mailer, log.WithField("component", "notify"))

	audit := service.NewAuditService(logs, log.WithField("component", "audit"))
	auth := service.NewAuthService(users, audit, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	return &app{
		auth:       auth,
		dispatcher: dispatcher,
		services: handler.Services{
			Auth:     auth,
			Users:    service.NewUserService(users, audit),
			Vehicles: service.NewVehicleService(vehicles, audit),
			Slots:    service.NewSlotService(slots, audit),
			Requests: service.NewRequestService(requests, vehicles, users, audit, dispatcher, log.WithField("component", "requests")),
			Parking:  service.NewParkingService(users, parking, payments, audit, cfg.Parking.HourlyRate, cfg.Parking.TotalSlots),
			Payments: service.NewPaymentService(payments, audit),
			Audit:    audit,
			DB:       pool,
		},
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database.DSN(), log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	log.Info("connected to PostgreSQL")

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := database.MigrateUp(cfg.Database.MigrateURL()); err != nil {
			return err
		}
		log.Info("schema up to date")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	a, err := wire(cfg, pool, log)
	if err != nil {
		return err
	}
	if cfg.Auth.AdminUsername != "" {
		created, err := a.auth.BootstrapAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.WithField("username", cfg.Auth.AdminUsername).Info("initial admin created")
		}
	}

	api := handler.NewAPI(a.services, log, cfg.HTTP.MaxBodyBytes)
	router := api.Routes(handler.RouterConfig{
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		LoginRatePerSec: cfg.HTTP.LoginRatePerSec,
		LoginBurst:      cfg.HTTP.LoginBurst,
	})

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "version": version}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := a.dispatcher.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("pending notifications abandoned")
	}
	log.Info("server stopped")
	return nil
}
