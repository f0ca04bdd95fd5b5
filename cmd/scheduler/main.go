package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"smsoutreach/internal/config"
	"smsoutreach/internal/handler"
	"smsoutreach/internal/leads"
	"smsoutreach/internal/queue"
	"smsoutreach/internal/repository"
	"smsoutreach/internal/scheduler"
	"smsoutreach/internal/sender"
	"smsoutreach/internal/service"
)

// The engine daemon runs the campaign drip engine, the follow-up pass, the
// bulk send executor and the webhook event consumer in one process.
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

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		logrus.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("failed to ping database")
	}
	logrus.Info("connected to database")

	leadsDB, err := sql.Open("postgres", cfg.LeadsDB.URL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open leads database")
	}
	defer leadsDB.Close()
	if err := leadsDB.Ping(); err != nil {
		logrus.WithError(err).Warn("leads database unreachable, sends fall back to enrollment snapshots")
	}
	directory := leads.NewDirectory(leadsDB)

	var snd sender.Sender
	if cfg.Twilio.Simulate {
		snd = sender.NewSimulatedSender(0.95)
		logrus.Info("using simulated SMS sender")
	} else {
		snd = sender.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Server.WebhookBaseURL)
	}

	campaignRepo := repository.NewCampaignRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sendRepo := repository.NewSendRepository(db)
	bulkRepo := repository.NewBulkRepository(db)
	messageRepo := repository.NewMessageLogRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	manualRepo := repository.NewManualContactRepository(db)

	renderer := service.NewTemplateService(loc)

	engine := scheduler.NewEngine(
		campaignRepo,
		enrollmentRepo,
		sendRepo,
		bulkRepo,
		messageRepo,
		directory,
		renderer,
		snd,
		loc,
	)

	sched := scheduler.NewScheduler(engine, scheduler.Intervals{
		Bulk:     cfg.Scheduler.BulkPollInterval,
		Campaign: cfg.Scheduler.CampaignPollInterval,
		Followup: cfg.Scheduler.FollowupPollInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start scheduler")
	}
	logrus.Info("scheduler started")

	// The consumer drains webhook events published by the API. Without
	// RabbitMQ the API applies events in-process, so the daemon just runs
	// the polling loops.
	var consumer *queue.Consumer
	conn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		logrus.WithError(err).Warn("rabbitmq unavailable, skipping event consumer")
	} else {
		defer conn.Close()

		campaignSvc := service.NewCampaignService(campaignRepo, enrollmentRepo, sendRepo, manualRepo, directory, loc)
		messageSvc := service.NewMessageService(messageRepo, sendRepo, templateRepo, directory, snd)
		applier := handler.NewEventApplier(campaignSvc, messageSvc)

		consumer, err = queue.NewConsumer(conn, queue.EventQueue, func(event *queue.Event) error {
			return applier.Apply(ctx, event)
		})
		if err != nil {
			logrus.WithError(err).Warn("failed to create event consumer")
		} else if err := consumer.Start(); err != nil {
			logrus.WithError(err).Warn("failed to start event consumer")
			consumer = nil
		} else {
			logrus.WithField("queue", queue.EventQueue).Info("event consumer started")
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logrus.Info("shutting down")
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logrus.WithError(err).Error("error stopping consumer")
		}
	}
	sched.Stop()
	cancel()
	logrus.Info("scheduler stopped")
}
