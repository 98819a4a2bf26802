package config

import (
	"strings"
	"time"

	"hbnb/src/helper/env"
	"hbnb/src/infra/postgres"
)

const (
	StorageFile = "file"
	StorageDB   = "db"
)

type Config struct {
	LogLevel string

	// StorageType escolhe o motor: "db" é o relacional, qualquer outro valor é o de arquivo.
	StorageType string
	FilePath    string

	DB postgres.Params
	// Env "test" apaga as tabelas na primeira conexão.
	Env string

	RedisHosts      string
	RedisPoolSize   int
	RedisDefaultTTL time.Duration

	KafkaBrokers          string
	KafkaModelEventsTopic string

	APIPort int
}

// Load lê a configuração do ambiente. Nada aqui é obrigatório: sem banco o motor
// relacional vira no-op, sem redis não há cache e sem kafka não há eventos.
func Load() Config {
	storageType := StorageFile
	if strings.EqualFold(env.GetString("HBNB_TYPE_STORAGE"), StorageDB) {
		storageType = StorageDB
	}

	return Config{
		LogLevel:    env.GetString("LOG_LEVEL", "warn"),
		StorageType: storageType,
		FilePath:    env.GetString("HBNB_FILE_PATH", "file.json"),
		DB: postgres.Params{
			Host:           env.GetString("HBNB_DB_HOST"),
			ReadHost:       env.GetString("HBNB_DB_READ_HOST"),
			Port:           env.GetString("HBNB_DB_PORT", "5432"),
			Name:           env.GetString("HBNB_DB_NAME"),
			User:           env.GetString("HBNB_DB_USER"),
			Password:       env.GetString("HBNB_DB_PWD"),
			MaxConnections: env.GetInt("HBNB_DB_MAX_POOL_CONNECTIONS", 4),
		},
		Env:                   env.GetString("HBNB_ENV"),
		RedisHosts:            env.GetString("REDIS_HOSTS"),
		RedisPoolSize:         env.GetInt("REDIS_POOL_SIZE", 10),
		RedisDefaultTTL:       env.GetSeconds("REDIS_DEFAULT_TTL_SECONDS", 300),
		KafkaBrokers:          env.GetString("KAFKA_BROKERS"),
		KafkaModelEventsTopic: env.GetString("KAFKA_MODEL_EVENTS_TOPIC", "hbnb.model-events"),
		APIPort:               env.GetInt("HBNB_API_PORT", 5000),
	}
}

func (c Config) UseDB() bool {
	return c.StorageType == StorageDB
}

func (c Config) DropOnInit() bool {
	return c.Env == "test"
}

func (c Config) CacheEnabled() bool {
	return c.RedisHosts != ""
}

func (c Config) EventsEnabled() bool {
	return c.KafkaBrokers != ""
}
