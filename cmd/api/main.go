package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/config"
	"github.com/noah-isme/madrasa-api/internal/database"
	"github.com/noah-isme/madrasa-api/internal/handler"
	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/middleware"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/observability"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
	"github.com/noah-isme/madrasa-api/internal/router"
	"github.com/noah-isme/madrasa-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "madrasa-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	if cfg.RowLevelSecurity {
		if err := database.ApplyRowLevelSecurity(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply row level security")
		}
		logger.Info().Int("tables", len(policy.Tables())).Msg("row level security applied")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled; identity cache and realtime fan-out are off")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	observability.RegisterMetrics()

	translator := i18n.New(cfg.DefaultLocale)
	validate := validator.New(validator.WithRequiredStructEnabled())

	classRepo := repository.NewClassRepository(db)
	forumRepo := repository.NewForumRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	identities := service.NewIdentityResolver(profileRepo, redisClient, cfg.IdentityCacheTTL, logger)
	audit := service.NewAuditRecorder(repository.NewScopedRepository[models.AuditLog](db, classRepo), logger)
	moderation := service.NewModerationRecorder(repository.NewScopedRepository[models.ContentModeration](db, classRepo), logger)
	notifications := service.NewNotificationService(notificationRepo, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)

	forumService := service.NewForumService(forumRepo, classRepo, moderation, notifications, translator, validate, logger)
	roleService := service.NewRoleService(repository.NewScopedRepository[models.Profile](db, classRepo), identities, audit, validate, logger)
	enrollmentService := service.NewEnrollmentService(classRepo, audit, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())

	router.Register(app, cfg, router.Dependencies{
		ForumHandler:        handler.NewForumHandler(forumService, translator, logger),
		ProfileHandler:      handler.NewProfileHandler(roleService, translator, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, translator, logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, translator, logger),
		RecordHandlers:      recordHandlers(db, classRepo, translator, validate, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret, translator),
		IdentityMiddleware:  middleware.ResolveIdentity(identities, translator, logger),
		ForumRateLimit:      middleware.RateLimit("forum", cfg.ForumRateLimit, cfg.ForumRateWindow, translator),
		AdminOnly:           middleware.RequireRole(translator, policy.RoleAdmin),
		HealthProbes:        healthProbes(db, redisClient, natsConn),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func recordHandlers(db *gorm.DB, classes repository.ClassRepository, translator *i18n.Translator, validate *validator.Validate, logger zerolog.Logger) []router.Registrar {
	return []router.Registrar{
		recordHandler(db, classes, service.RecordHooks[models.LearningAnalytics]{}, translator, validate, logger),
		recordHandler(db, classes, service.PracticeSessionHooks(), translator, validate, logger),
		recordHandler(db, classes, service.RecordHooks[models.Payment]{}, translator, validate, logger),
		recordHandler(db, classes, service.BackupJobHooks(), translator, validate, logger),
		recordHandler(db, classes, service.SupportTicketHooks(), translator, validate, logger),
		recordHandler(db, classes, service.KnowledgeBaseHooks(), translator, validate, logger),
		recordHandler(db, classes, service.RecordHooks[models.AuditLog]{}, translator, validate, logger),
		recordHandler(db, classes, service.RecordHooks[models.ContentModeration]{}, translator, validate, logger),
	}
}

func recordHandler[T policy.Row](db *gorm.DB, classes repository.ClassRepository, hooks service.RecordHooks[T], translator *i18n.Translator, validate *validator.Validate, logger zerolog.Logger) router.Registrar {
	svc := service.NewRecordService(repository.NewScopedRepository[T](db, classes), hooks, validate, logger)
	return handler.NewRecordHandler(svc, translator, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) []handler.HealthProbe {
	probes := []handler.HealthProbe{{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	if natsConn != nil {
		probes = append(probes, handler.HealthProbe{
			Name: "nats",
			Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return fmt.Errorf("nats status %s", natsConn.Status())
				}
				return nil
			},
		})
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
