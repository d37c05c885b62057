package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/service"
	"github.com/vertexuniv/admission-workflow/internal/config"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/documents"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/identity"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/notification"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/repository"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/vertexuniv/admission-workflow/internal/interfaces/http"
	"github.com/vertexuniv/admission-workflow/internal/worker"
	"github.com/vertexuniv/admission-workflow/pkg/database"
	"github.com/vertexuniv/admission-workflow/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting admission workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Database and migrations
	rawDB, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		BusyTimeout:     cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer rawDB.Close()

	migrator := database.NewMigrator(rawDB, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(rawDB.DB, logger)

	// Repositories
	appRepo := repository.NewApplicationRepository(db, logger)
	logRepo := repository.NewWorkflowLogRepository(db, logger)
	paymentRepo := repository.NewPaymentRepository(db, logger)
	outboxRepo := repository.NewOutboxRepository(db, logger)
	noticeRepo := repository.NewNotificationRepository(db, logger)
	programRepo := repository.NewProgramRepository(db, logger)
	studentRepo := repository.NewStudentRepository(db, logger)

	// Infrastructure adapters
	provisioner := identity.NewProvisioner(studentRepo, programRepo, identity.Config{
		EmailDomain: cfg.Admission.StudentEmailDomain,
	}, logger)

	mailer := notification.NewMailer(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	}, logger)

	docGenerator := documents.NewGenerator(documents.Config{
		OutputDir:      cfg.Documents.OutputDir,
		UniversityName: cfg.Admission.UniversityName,
	}, logger)

	// Application services
	kvLogger := utils.NewKVLogger(logger)
	admissionService := service.NewAdmissionService(
		appRepo, logRepo, paymentRepo, outboxRepo, noticeRepo, programRepo,
		provisioner, db,
		service.Config{
			MinRegistrationFee: decimal.NewFromFloat(cfg.Admission.MinRegistrationFee),
			MaxRegistrationFee: decimal.NewFromFloat(cfg.Admission.MaxRegistrationFee),
		},
		kvLogger,
	)
	statisticsService := service.NewStatisticsService(appRepo, logRepo, kvLogger)

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := worker.NewManager(logger)
	workers.Register(worker.NewOutboxDispatcher(outboxRepo, appRepo, mailer, docGenerator,
		worker.DispatcherConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
			RetryBackoff: cfg.Outbox.RetryBackoff,
		}, logger))

	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		WebhookAPIKey: cfg.Admission.WebhookAPIKey,
	}, admissionService, statisticsService, noticeRepo, kvLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()
	workers.StopAll()
	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}
