package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/audit"
	"github.com/carelink/carelink/internal/domain/compliance"
	"github.com/carelink/carelink/internal/domain/consultation"
	"github.com/carelink/carelink/internal/domain/dispute"
	"github.com/carelink/carelink/internal/domain/emergency"
	"github.com/carelink/carelink/internal/domain/hospital"
	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/inbox"
	"github.com/carelink/carelink/internal/domain/scheduling"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/middleware"
	"github.com/carelink/carelink/internal/platform/realtime"
	"github.com/carelink/carelink/internal/platform/signaling"
	"github.com/carelink/carelink/pkg/backoff"
)

// ProfileDirectoryAdapter adapts the identity service to the
// emergency.ProfileDirectory interface, avoiding a circular import between
// the emergency and identity packages.
type ProfileDirectoryAdapter struct {
	svc *identity.Service
}

func (a *ProfileDirectoryAdapter) ActiveUserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	profiles, err := a.svc.ListActiveByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// InboxNotifierAdapter adapts the inbox service to the emergency.Notifier
// interface.
type InboxNotifierAdapter struct {
	svc *inbox.Service
}

func (a *InboxNotifierAdapter) Notify(ctx context.Context, userID uuid.UUID, title, message, notifType string) error {
	return a.svc.Notify(ctx, &inbox.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
	})
}

// loggingPaymentProcessor settles consultation fees by recording them. The
// external payment gateway is out of scope for this server.
type loggingPaymentProcessor struct {
	logger zerolog.Logger
}

func (p *loggingPaymentProcessor) ProcessConsultationPayment(_ context.Context, s *consultation.Session, amount float64) error {
	p.logger.Info().
		Str("session_id", s.ID.String()).
		Float64("amount", amount).
		Msg("consultation payment settled")
	return nil
}

// staleExpirer is the slice of the consultation service the background
// sweeper needs.
type staleExpirer interface {
	ExpireStale(ctx context.Context, age time.Duration) (int, error)
}

// runStaleSweeper periodically expires scheduled sessions older than age.
// It returns when ctx is cancelled.
func runStaleSweeper(ctx context.Context, svc staleExpirer, age, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.ExpireStale(ctx, age)
			if err != nil {
				logger.Error().Err(err).Msg("stale session sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("expired", n).Msg("expired stale sessions")
			}
		}
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "carelink-server",
		Short: "CareLink Telehealth API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// API group with rate limiting
	api := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Realtime hub: change-feed subscriptions and signaling transport
	hub := realtime.NewHub()
	realtime.NewHandler(hub).RegisterRoutes(api)

	// Identity
	identitySvc := identity.NewService(
		identity.NewProfileRepoPG(pool),
		identity.NewAssistedPatientRepoPG(pool),
		hub, logger)
	identity.NewHandler(identitySvc).RegisterRoutes(api)

	// Inbox
	inboxSvc := inbox.NewService(inbox.NewNotificationRepoPG(pool), hub, logger)
	inbox.NewHandler(inboxSvc).RegisterRoutes(api)

	// Audit
	auditSvc := audit.NewService(
		audit.NewAdminActionRepoPG(pool),
		audit.NewActivityLogRepoPG(pool),
		audit.NewSettingRepoPG(pool),
		logger)
	audit.NewHandler(auditSvc).RegisterRoutes(api)

	// Consultation sessions, rooms and recovery
	payments := &loggingPaymentProcessor{logger: logger}
	consultSvc := consultation.NewService(
		consultation.NewSessionRepoPG(pool),
		consultation.NewRoomRepoPG(pool),
		payments, hub, logger)
	recoveryPolicy := backoff.DefaultPolicy()
	if cfg.RecoveryRetries > 0 {
		recoveryPolicy.MaxAttempts = cfg.RecoveryRetries
	}
	recovery := consultation.NewRecovery(consultSvc, recoveryPolicy, logger)
	consultation.NewHandler(consultSvc, recovery).RegisterRoutes(api)

	// Background sweep: scheduled sessions that never started are expired
	// once they age past SESSION_STALE_AGE_HOURS.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go runStaleSweeper(sweepCtx, consultSvc,
		time.Duration(cfg.SessionStaleAge)*time.Hour, time.Hour, logger)

	// WebRTC signaling relay; the consultation service tracks room
	// participant flags.
	relay := signaling.NewRelay(hub, consultSvc, logger)
	signaling.NewHandler(relay).RegisterRoutes(api)

	// Emergency requests and role broadcasts
	emergencySvc := emergency.NewService(
		emergency.NewRequestRepoPG(pool),
		emergency.NewBroadcastRepoPG(pool),
		&ProfileDirectoryAdapter{svc: identitySvc},
		&InboxNotifierAdapter{svc: inboxSvc},
		hub, logger)
	emergency.NewHandler(emergencySvc).RegisterRoutes(api)

	// Financial disputes; resolutions are recorded as admin actions
	disputeSvc := dispute.NewService(
		dispute.NewDisputeRepoPG(pool),
		dispute.NewAlertRepoPG(pool),
		auditSvc, hub, logger)
	dispute.NewHandler(disputeSvc).RegisterRoutes(api)

	// Compliance
	complianceSvc := compliance.NewService(
		compliance.NewReportRepoPG(pool),
		compliance.NewTrackingRepoPG(pool),
		compliance.NewAlertRepoPG(pool),
		logger)
	compliance.NewHandler(complianceSvc).RegisterRoutes(api)

	// Scheduling
	schedulingSvc := scheduling.NewService(
		scheduling.NewAppointmentRepoPG(pool),
		scheduling.NewScheduleRepoPG(pool),
		scheduling.NewAttendanceRepoPG(pool),
		scheduling.NewWaitlistRepoPG(pool),
		hub, logger)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)

	// Hospitals and analytics
	hospitalSvc := hospital.NewService(
		hospital.NewRepoPG(pool),
		hospital.NewFinancialDataRepoPG(pool),
		hospital.NewMetricRepoPG(pool),
		hospital.NewAnalyticsRepoPG(pool),
		logger)
	hospital.NewHandler(hospitalSvc).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
