package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/qualopt/config"
	"github.com/oksasatya/qualopt/internal/application"
	"github.com/oksasatya/qualopt/internal/container"
	pginfra "github.com/oksasatya/qualopt/internal/infrastructure/postgres"
	"github.com/oksasatya/qualopt/internal/interface/middleware"
	"github.com/oksasatya/qualopt/internal/router"
	"github.com/oksasatya/qualopt/pkg/helpers"
	"github.com/oksasatya/qualopt/pkg/mailer"
	"github.com/oksasatya/qualopt/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.PoolOptions())
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	// Run migrations using database/sql with pgx stdlib
	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}

	// Elasticsearch is optional; participant search is disabled without it
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Fatal("failed to init elasticsearch client")
		}
		if err := helpers.EnsureIndex(ctx, es, cfg.ESParticipantsIndex, application.ParticipantMapping); err != nil {
			logger.WithError(err).Warn("participant index not ready; search may fail")
		}
		container.SetES(es)
	}

	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL)

	// Invitation delivery
	var invitations *mailer.Pool
	var queue *helpers.RabbitQueue
	if cfg.MailSendEnabled {
		sessions, err := cfg.SessionFactory()
		if err != nil {
			logger.WithError(err).Fatal("failed to init mail transport")
		}
		reports := application.NewInvitationReports(rdb, cfg.InvitationReportTTL, logger)
		switch cfg.InvitationDispatch {
		case "queue":
			queue, err = helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQInvitationQueue)
			if err != nil {
				logger.WithError(err).Fatal("failed to connect to rabbitmq")
			}
			container.SetScheduler(mailer.NewQueueScheduler(queue))
		default:
			d := mailer.NewDispatcher(sessions, logger, mailer.WithAddressPolicy(cfg.AddressPolicy()))
			invitations = mailer.NewPool(d, int64(cfg.InvitationMaxBatches), logger, mailer.WithCompletion(reports.Hook()))
			container.SetScheduler(invitations)
		}
		helpers.LogInfo(logger, "invitation sending enabled", logrus.Fields{
			"transport": cfg.MailTransport,
			"dispatch":  cfg.InvitationDispatch,
			"policy":    cfg.AddressPolicy().String(),
		})
	} else {
		logger.Warn("MAIL_SEND_ENABLED=false; invitation sending is disabled")
	}
	defer queue.Close()

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetJWT(jwtManager)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	// CORS
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	// Let in-flight invitation batches finish.
	if invitations != nil {
		if err := invitations.Shutdown(ctxShutdown); err != nil {
			logger.WithError(err).Warn("invitation batches still running at shutdown")
		}
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
