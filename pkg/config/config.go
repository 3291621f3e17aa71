package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Model      ModelConfig
	Experiment ExperimentConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type JWTConfig struct {
	SecretKey string
}

type ModelConfig struct {
	MinTrainingSamples int
	// Zero disables the background retrain ticker.
	RetrainInterval time.Duration
}

type ExperimentConfig struct {
	DefaultExperimentID string
	ControlVariant      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	minSamples, err := strconv.Atoi(getEnv("MODEL_MIN_TRAINING_SAMPLES", "10"))
	if err != nil {
		return nil, errors.New("invalid model min training samples")
	}

	retrainInterval, err := time.ParseDuration(getEnv("MODEL_RETRAIN_INTERVAL", "0"))
	if err != nil {
		return nil, errors.New("invalid model retrain interval")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Gig Recommendation Service"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "4004"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "gigrecs"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Model: ModelConfig{
			MinTrainingSamples: minSamples,
			RetrainInterval:    retrainInterval,
		},
		Experiment: ExperimentConfig{
			DefaultExperimentID: getEnv("DEFAULT_EXPERIMENT_ID", "recommendation_algorithm_v1"),
			ControlVariant:      getEnv("CONTROL_VARIANT", "control"),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
