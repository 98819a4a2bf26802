package main

import (
	"context"
	"log/slog"
	"os"

	"hbnb/src/config"
	"hbnb/src/domain"
	"hbnb/src/infra/kafka"
	"hbnb/src/infra/redis"
	"hbnb/src/services/events"
	"hbnb/src/storage"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// newApp monta o grafo de dependências. populate recebe os ponteiros que o comando precisa.
func newApp(cfg config.Config, populate ...any) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),

		fx.Provide(
			newLogger,
			newRedisClient,
			newKafkaClient,
			newChangeNotifier,
			newStorage,
		),

		fx.Invoke(registerStorageHooks),
		fx.Populate(populate...),
	)
}

// newLogger escreve em stderr: stdout é do console.
func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level

	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// newRedisClient devolve nil quando REDIS_HOSTS não está definido.
func newRedisClient(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) *redis.RedisClient {
	if !cfg.CacheEnabled() || !cfg.UseDB() {
		return nil
	}

	client := redis.NewRedisClient(cfg.RedisHosts, cfg.RedisPoolSize, cfg.RedisDefaultTTL)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.HealthCheck(ctx); err != nil {
				// cache indisponível não impede o console; as leituras caem no postgres
				logger.Warn("Redis health check failed", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

// newKafkaClient devolve nil quando KAFKA_BROKERS não está definido ou o broker não responde.
func newKafkaClient(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) *kafka.KafkaClient {
	if !cfg.EventsEnabled() {
		return nil
	}

	client, err := kafka.NewKafkaClient(logger, cfg.KafkaBrokers, "", 0)
	if err != nil {
		logger.Warn("Kafka unavailable, model events disabled", "error", err)
		return nil
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

func newChangeNotifier(cfg config.Config, logger *slog.Logger, kafkaClient *kafka.KafkaClient) domain.ChangeNotifier {
	if kafkaClient == nil {
		return nil
	}
	return events.NewModelEventPublisher(logger, kafkaClient, cfg.KafkaModelEventsTopic)
}

func newStorage(cfg config.Config, logger *slog.Logger, redisClient *redis.RedisClient, notifier domain.ChangeNotifier) domain.Storage {
	if !cfg.UseDB() {
		return storage.NewFileStorage(logger, cfg.FilePath, notifier)
	}

	dbConfig := storage.DBConfig{Params: cfg.DB, DropOnInit: cfg.DropOnInit()}
	connector := storage.PostgresConnector(logger, cfg.DB, redisClient)

	return storage.NewDBStorage(logger, dbConfig, connector, notifier)
}

// registerStorageHooks carrega o storage na subida e o fecha na descida.
func registerStorageHooks(lc fx.Lifecycle, store domain.Storage, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Reload(ctx); err != nil {
				return err
			}
			logger.Debug("Storage loaded")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			store.Close()
			return nil
		},
	})
}
