// Package container builds the application's components once at startup and
// hands them to the router and commands. There are no package-level globals.
package container

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/config"
	"github.com/oksasatya/smartagricare-api/internal/application"
	"github.com/oksasatya/smartagricare-api/internal/domain/repository"
	"github.com/oksasatya/smartagricare-api/internal/infrastructure/sqlite"
	"github.com/oksasatya/smartagricare-api/internal/infrastructure/weather"
	"github.com/oksasatya/smartagricare-api/pkg/helpers"
	"github.com/oksasatya/smartagricare-api/pkg/mailer"
	"github.com/oksasatya/smartagricare-api/pkg/validation"
)

// Store is the persistence surface the container needs.
type Store interface {
	repository.Store
	Ping(ctx context.Context) error
	Close() error
}

type Container struct {
	Cfg    *config.Config
	Logger *logrus.Logger

	Store Store
	// Redis is nil when disabled or unreachable.
	Redis *redis.Client
	// Rabbit is nil when email delivery is disabled or unreachable.
	Rabbit *helpers.RabbitPublisher

	JWT       *helpers.JWTManager
	Validator *validator.Validate

	Accounts *application.AccountService
	Reports  *application.ReportService
	Weather  *weather.Client
}

// New opens the store and optional backends and wires the services.
// Redis and RabbitMQ failures degrade features instead of failing startup.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	store, err := sqlite.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}
	c := Build(cfg, logger, store, connectRedis(ctx, cfg, logger), connectRabbit(cfg, logger))
	return c, nil
}

// Build wires services over already constructed infrastructure.
func Build(cfg *config.Config, logger *logrus.Logger, store Store, rdb *redis.Client, pub *helpers.RabbitPublisher) *Container {
	policy := validation.Policy{
		MinNameLength:     cfg.MinNameLength,
		MinPasswordLength: cfg.MinPasswordLength,
	}
	v := validation.New(policy)
	validation.Init(policy)
	jwt := helpers.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL, cfg.AppName)

	var notifier application.ResetNotifier = mailer.LogNotifier{Logger: logger}
	if pub != nil {
		notifier = mailer.NewQueueNotifier(pub, cfg)
	}

	accounts := application.NewAccountService(store, jwt, notifier, v, logger, application.AccountOptions{
		BcryptCost:     cfg.BcryptCost,
		ResetOTPTTL:    cfg.ResetOTPTTL,
		ExposeResetOTP: cfg.ResetOTPExpose,
	})

	return &Container{
		Cfg:       cfg,
		Logger:    logger,
		Store:     store,
		Redis:     rdb,
		Rabbit:    pub,
		JWT:       jwt,
		Validator: v,
		Accounts:  accounts,
		Reports:   application.NewReportService(store, v, logger),
		Weather:   weather.NewClient(cfg.WeatherBaseURL, rdb, cfg.WeatherCacheTTL, logger),
	}
}

// RateLimitRedis returns the client rate limiters should use, or nil to
// disable limiting.
func (c *Container) RateLimitRedis() *redis.Client {
	if !c.Cfg.RateLimitEnabled {
		return nil
	}
	return c.Redis
}

// Close releases everything New opened.
func (c *Container) Close() {
	if c.Rabbit != nil {
		c.Rabbit.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.Logger.WithError(err).Error("close store failed")
		}
	}
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable; rate limiting and weather cache disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func connectRabbit(cfg *config.Config, logger *logrus.Logger) *helpers.RabbitPublisher {
	if !cfg.MailSendEnabled || cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		return nil
	}
	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		logger.WithError(err).Warn("rabbitmq unavailable; reset codes will only be logged")
		return nil
	}
	return pub
}
