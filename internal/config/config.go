package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Session  SessionConfig
}

type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

// SessionConfig carries the timing rules for quiz sessions. Duration is the
// nominal answering window; Grace is the extra slack allowed on final
// submission only, to absorb network latency.
type SessionConfig struct {
	Duration       time.Duration
	Grace          time.Duration
	StreakLookback int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "6700"),
			AllowOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "practice_service"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT_SECONDS", 10*time.Second),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", ""),
		},
		Session: SessionConfig{
			Duration:       getEnvAsDuration("SESSION_DURATION_SECONDS", 600*time.Second),
			Grace:          getEnvAsDuration("SESSION_GRACE_SECONDS", 30*time.Second),
			StreakLookback: getEnvAsInt("STREAK_LOOKBACK_DAYS", 120),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int for %s: %v", key, err)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		secs, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid duration for %s: %v", key, err)
			return defaultValue
		}
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
