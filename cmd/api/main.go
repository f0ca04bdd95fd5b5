package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"smsoutreach/internal/auth"
	"smsoutreach/internal/config"
	"smsoutreach/internal/handler"
	"smsoutreach/internal/leads"
	"smsoutreach/internal/queue"
	"smsoutreach/internal/repository"
	"smsoutreach/internal/sender"
	"smsoutreach/internal/service"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	if cfg.IsDevelopment() {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	loc, err := cfg.Location()
	if err != nil {
		logrus.WithError(err).Fatal("invalid timezone")
	}

	// Dashboard database
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		logrus.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("failed to ping database")
	}
	logrus.Info("connected to database")

	// External leads database, read-only. A failed ping degrades contact
	// lookups but does not stop the API.
	leadsDB, err := sql.Open("postgres", cfg.LeadsDB.URL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open leads database")
	}
	defer leadsDB.Close()
	if err := leadsDB.Ping(); err != nil {
		logrus.WithError(err).Warn("leads database unreachable, contact lookups degraded")
	} else {
		logrus.Info("connected to leads database")
	}
	directory := leads.NewDirectory(leadsDB)

	// RabbitMQ is best-effort: without it webhooks are applied synchronously
	var publisher *queue.Publisher
	conn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		logrus.WithError(err).Warn("rabbitmq unavailable, webhooks will be handled in-process")
	} else {
		defer conn.Close()
		publisher, err = queue.NewPublisher(conn, queue.EventQueue)
		if err != nil {
			logrus.WithError(err).Warn("failed to create publisher, webhooks will be handled in-process")
			publisher = nil
		} else {
			logrus.Info("connected to rabbitmq")
		}
	}

	// SMS provider
	var snd sender.Sender
	if cfg.Twilio.Simulate {
		snd = sender.NewSimulatedSender(0.95)
		logrus.Info("using simulated SMS sender")
	} else {
		snd = sender.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Server.WebhookBaseURL)
	}

	// Repositories
	campaignRepo := repository.NewCampaignRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sendRepo := repository.NewSendRepository(db)
	bulkRepo := repository.NewBulkRepository(db)
	messageRepo := repository.NewMessageLogRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	manualRepo := repository.NewManualContactRepository(db)

	// Services
	campaignSvc := service.NewCampaignService(campaignRepo, enrollmentRepo, sendRepo, manualRepo, directory, loc)
	bulkSvc := service.NewBulkService(bulkRepo)
	messageSvc := service.NewMessageService(messageRepo, sendRepo, templateRepo, directory, snd)
	contactSvc := service.NewContactService(directory, manualRepo)
	healthSvc := service.NewHealthService(db, leadsDB, cfg.GetRabbitMQURL(), "1.0.0")
	authSvc := auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	applier := handler.NewEventApplier(campaignSvc, messageSvc)

	var eventPublisher handler.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}

	router := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Campaign: handler.NewCampaignHandler(campaignSvc),
		Bulk:     handler.NewBulkHandler(bulkSvc),
		Message:  handler.NewMessageHandler(messageSvc),
		Contact:  handler.NewContactHandler(contactSvc),
		Webhook:  handler.NewWebhookHandler(eventPublisher, applier),
		Health:   handler.NewHealthHandler(healthSvc),
	}, authSvc)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("api server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown error")
	}
	logrus.Info("api server stopped")
}
