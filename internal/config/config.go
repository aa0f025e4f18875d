package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents the entire application configuration
type Config struct {
	Env      string         `json:"env"`
	Port     int            `json:"port"`
	AppName  string         `json:"app_name"`
	MongoDB  MongoDBConfig  `json:"mongodb"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
	S3       S3Config       `json:"s3"`
	Import   ImportConfig   `json:"import"`
	Jobs     JobsConfig     `json:"jobs"`
	Logging  LoggingConfig  `json:"logging"`
	CORS     CORSConfig     `json:"cors"`
}

// MongoDBConfig contains MongoDB connection details
type MongoDBConfig struct {
	URI      string `json:"uri"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       string `json:"db"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// RabbitMQConfig contains the broker connection settings used in queue mode.
type RabbitMQConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	VHost         string `json:"vhost"`
	ExchangeName  string `json:"exchange_name"`
	QueueName     string `json:"queue_name"`
	RoutingKey    string `json:"routing_key"`
	PrefetchCount int    `json:"prefetch_count"`
}

// S3Config contains the bucket used to stage uploaded spreadsheets in queue mode.
type S3Config struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	KeyPrefix string `json:"key_prefix"`
}

// ImportConfig tunes the spreadsheet import pipeline.
type ImportConfig struct {
	BatchSize      int `json:"batch_size"`
	MaxFileSizeMB  int `json:"max_file_size_mb"`
	HeaderScanRows int `json:"header_scan_rows"`
	RetentionHours int `json:"retention_hours"`
}

// JobsConfig selects how import jobs are dispatched. Mode "inline" runs each
// job as a goroutine in the API process; "queue" stages the file in S3 and
// publishes to RabbitMQ so any worker instance can pick it up.
type JobsConfig struct {
	Mode     string `json:"mode"`
	JobStore string `json:"job_store"` // "memory" or "redis"
}

// LoggingConfig contains logging-related configurations
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age,omitempty"`
}

// LoadConfig reads configuration from the specified file path
func LoadConfig(filePath string) (*Config, error) {
	configData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(configData, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = 100
	}
	if c.Import.MaxFileSizeMB <= 0 {
		c.Import.MaxFileSizeMB = 10
	}
	if c.Import.HeaderScanRows <= 0 {
		c.Import.HeaderScanRows = 30
	}
	if c.Import.RetentionHours == 0 {
		c.Import.RetentionHours = 24
	}
	if c.Jobs.Mode == "" {
		c.Jobs.Mode = "inline"
	}
	if c.Jobs.JobStore == "" {
		c.Jobs.JobStore = "memory"
	}
}
