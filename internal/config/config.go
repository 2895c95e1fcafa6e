// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	RabbitMQ   RabbitMQConfig
	Consul     ConsulConfig
	Assessment AssessmentConfig
}

type ServerConfig struct {
	Port           string        `env:"PORT"                       envDefault:"9250"`
	Host           string        `env:"HOST"                       envDefault:"0.0.0.0"`
	ServiceName    string        `env:"ASSESSMENT_SERVICE_NAME"    envDefault:"assessment-service"`
	ServiceAddress string        `env:"ASSESSMENT_SERVICE_ADDRESS" envDefault:"assessment-service"`
	Hostname       string        `env:"HOSTNAME"                   envDefault:"assessment"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT"               envDefault:"15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT"              envDefault:"15s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"            envDefault:"10s"`
	LogDir         string        `env:"LOG_DIR"`
}

// ServiceID identifies this replica in service discovery.
func (s ServerConfig) ServiceID() string {
	return s.ServiceName + "-" + s.Hostname
}

// MongoDBConfig selects the store. An empty URI runs the service in memory.
type MongoDBConfig struct {
	URI      string        `env:"MONGODB_URI"`
	Database string        `env:"ASSESSMENT_SERVICE_MONGO_DB" envDefault:"assessment_service"`
	PoolSize uint64        `env:"MONGODB_POOL_SIZE"           envDefault:"100"`
	Timeout  time.Duration `env:"MONGODB_TIMEOUT"             envDefault:"10s"`
}

// RedisConfig enables cross-replica session locks when Address is set.
type RedisConfig struct {
	Address     string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB"            envDefault:"0"`
	LockTTL     time.Duration `env:"REDIS_LOCK_TTL"      envDefault:"10s"`
	LockRetry   time.Duration `env:"REDIS_LOCK_RETRY"    envDefault:"25ms"`
	LockMaxWait time.Duration `env:"REDIS_LOCK_MAX_WAIT" envDefault:"5s"`
	LockPrefix  string        `env:"REDIS_LOCK_PREFIX"   envDefault:"assessment:lock:"`
}

type RabbitMQConfig struct {
	URI      string `env:"RABBITMQ_URI"`
	Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"assessment.events"`
}

type ConsulConfig struct {
	ConsulAddress string `env:"CONSUL_ADDRESS"`
}

type AssessmentConfig struct {
	// ExpirySweepInterval of zero disables the sweeper.
	ExpirySweepInterval time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"0s"`
	CORSOrigins         []string      `env:"CORS_ORIGINS"          envDefault:"http://localhost:3000,https://evolvia.phrimp.io.vn" envSeparator:","`
	SeedFile            string        `env:"QUESTION_SEED_FILE"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Redis.LockRetry <= 0 {
		return nil, fmt.Errorf("parse env: REDIS_LOCK_RETRY must be positive, got %s", cfg.Redis.LockRetry)
	}
	return &cfg, nil
}
