package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skill-swap/internal/config"
	"skill-swap/internal/database"
	"skill-swap/internal/database/migration"
	dbpostgres "skill-swap/internal/database/postgres"
	"skill-swap/internal/infrastructure/broker"
	"skill-swap/internal/pkg/jwt"
	"skill-swap/internal/repository"
	"skill-swap/internal/usecase"
	"skill-swap/internal/ws"

	"go.uber.org/zap"
)

// Container owns every long-lived dependency of a serving process.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB    database.DB
	Redis *broker.Redis

	Swaps  repository.SwapRepository
	Skills repository.SkillDirectory

	Hub      *ws.Hub
	Notifier *ws.Notifier
	Relay    *ws.RedisRelay

	Tokens    *jwt.HMACService
	Lifecycle *usecase.SwapLifecycle
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initStore(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Hub = ws.NewHub(logger.Named("ws"))
	c.Notifier = ws.NewNotifier(c.Hub, logger.Named("notify"))

	var dispatcher usecase.Dispatcher = c.Notifier
	if cfg.Redis.Enabled {
		rdb, err := broker.Connect(ctx, cfg.Redis, logger.Named("redis"))
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Redis = rdb
		c.Relay = ws.NewRedisRelay(rdb, cfg.Redis.Channel, cfg.App.InstanceID, c.Notifier, logger.Named("relay"))
		dispatcher = c.Relay
	}

	c.Tokens = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn)
	c.Lifecycle = usecase.NewSwapLifecycle(c.Swaps, c.Skills, dispatcher, logger.Named("swap"))

	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.Database.StoreDriver {
	case config.StoreDriverMemory:
		dir := repository.NewMemorySkillDirectory()
		if path := c.Config.Database.SkillSeedFile; path != "" {
			seed, err := repository.LoadSkillSeedFile(path)
			if err != nil {
				return fmt.Errorf("load skill seed: %w", err)
			}
			for _, s := range seed {
				dir.Put(s)
			}
			c.Logger.Info("skill seed loaded", zap.String("path", path), zap.Int("skills", len(seed)))
		}
		c.Skills = dir
		c.Swaps = repository.NewMemorySwapRepository()
		c.Logger.Warn("using in-memory store, swaps are lost on restart")
		return nil

	case config.StoreDriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := dbpostgres.Connect(connectCtx, c.Config.Database, c.Logger.Named("db"))
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		c.DB = db

		if c.Config.Database.AutoMigrate {
			if err := (migration.Runner{Logger: c.Logger.Named("migrate")}).Run(ctx, db.SQLDB()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		c.Skills = repository.NewPostgresSkillDirectory(db)
		c.Swaps = repository.NewPostgresSwapRepository(db)
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", c.Config.Database.StoreDriver)
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
