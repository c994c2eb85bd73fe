package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oksasatya/qualopt/config"
	"github.com/oksasatya/qualopt/internal/application"
	"github.com/oksasatya/qualopt/pkg/helpers"
	"github.com/oksasatya/qualopt/pkg/mailer"
)

// The email worker drains the invitation queue when INVITATION_DISPATCH=queue.
// Each message is one batch, run by application.InvitationWorker.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)
	if !cfg.MailSendEnabled {
		logger.Warn("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if err := cfg.ValidateMail(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	sessions, err := cfg.SessionFactory()
	if err != nil {
		logger.WithError(err).Fatal("failed to init mail transport")
	}
	dispatcher := mailer.NewDispatcher(sessions, logger, mailer.WithAddressPolicy(cfg.AddressPolicy()))

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(context.Background(), rdb); err != nil {
		logger.WithError(err).Warn("redis unavailable; invitation reports will not be stored")
	}
	reports := application.NewInvitationReports(rdb, cfg.InvitationReportTTL, logger)
	worker := application.NewInvitationWorker(dispatcher, reports.Hook(), logger)

	queue, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQInvitationQueue)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to rabbitmq")
	}
	defer queue.Close()

	workers := cfg.InvitationMaxBatches
	if workers <= 0 {
		workers = 1
	}
	msgs, err := queue.Consume(workers)
	if err != nil {
		logger.WithError(err).Fatal("failed to start consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var g errgroup.Group
	g.SetLimit(workers)

	helpers.LogInfo(logger, "email worker listening", logrus.Fields{"queue": cfg.RabbitMQInvitationQueue, "workers": workers})
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down, waiting for running batches")
			waitOrTimeout(&g, 30*time.Second, logger)
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Error("delivery channel closed")
				waitOrTimeout(&g, 30*time.Second, logger)
				return
			}
			g.Go(func() error {
				worker.Handle(msg)
				return nil
			})
		}
	}
}

func waitOrTimeout(g *errgroup.Group, timeout time.Duration, logger *logrus.Logger) {
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("invitation batches still running at exit")
	}
}
