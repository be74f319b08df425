package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/config"
	"flowproject-backend-go/internal/events"
	"flowproject-backend-go/internal/logging"
	"flowproject-backend-go/internal/mailer"
	"flowproject-backend-go/internal/models"
)

const prefetch = 4

func main() {
	if err := logging.LoadDotEnv(); err != nil {
		log.Println("Warning: Error loading .env file:", err)
	}
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	zapLogger, err := logging.New(appConfig.IsRelease())
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	if appConfig.RabbitMQURL == "" {
		zapLogger.Fatal("RABBITMQ_URL is required for the notifier")
	}

	m, err := mailer.New(mailer.Config{
		Host:   appConfig.SMTPHost,
		Port:   appConfig.SMTPPort,
		User:   appConfig.SMTPUser,
		Pass:   appConfig.SMTPPass,
		Sender: appConfig.MailSender,
	})
	if err != nil {
		zapLogger.Fatal("Failed to configure mailer", zap.Error(err))
	}

	consumer, err := events.NewConsumer(appConfig.RabbitMQURL, appConfig.ProvisioningQueue, prefetch, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect consumer", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = consumer.Run(ctx, func(ctx context.Context, evt models.UserProvisionedEvent) error {
		if err := m.SendWelcome(ctx, evt); err != nil {
			return err
		}
		zapLogger.Info("Welcome email sent",
			zap.String("uid", evt.UID),
			zap.String("companyId", evt.CompanyID),
			zap.String("role", string(evt.Role)))
		return nil
	})
	if err != nil {
		zapLogger.Error("Consumer stopped", zap.Error(err))
		return
	}
	zapLogger.Info("Notifier exiting gracefully.")
}
