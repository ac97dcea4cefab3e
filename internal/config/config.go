package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig defines the HTTP server.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxUploadMB  int64         `yaml:"maxUploadMB"`
	CORSOrigins  []string      `yaml:"corsOrigins"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AnalysisConfig tunes the simulated models and the dispatcher.
type AnalysisConfig struct {
	LoadDelay     time.Duration `yaml:"loadDelay"`
	PredictDelay  time.Duration `yaml:"predictDelay"`
	DispatchDelay time.Duration `yaml:"dispatchDelay"`
	// NoLatency skips every simulated delay.
	NoLatency bool `yaml:"noLatency"`
	// Overlap is "queue" or "reject".
	Overlap    string   `yaml:"overlap"`
	Models     []string `yaml:"models"`
	WeightsDir string   `yaml:"weightsDir"`
	Warmup     bool     `yaml:"warmup"`
	// RandomSeed > 0 makes query answers reproducible.
	RandomSeed uint64 `yaml:"randomSeed"`
}

// DatabaseConfig selects the result repository.
type DatabaseConfig struct {
	// Driver is leveldb, mysql, postgres or none.
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`
}

type MinioConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"accessKey"`
	SecretKey     string        `yaml:"secretKey"`
	BucketName    string        `yaml:"bucketName"`
	Region        string        `yaml:"region"`
	UseSSL        bool          `yaml:"useSSL"`
	PresignExpiry time.Duration `yaml:"presignExpiry"`
}

// AssistantConfig configures the language model used for general questions.
type AssistantConfig struct {
	// Provider is none, openai or ollama.
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	BaseURL  string        `yaml:"baseURL"`
	Host     string        `yaml:"host"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuthConfig maps a client name to its API key; empty disables auth.
type AuthConfig struct {
	APIKeys map[string]string `yaml:"apiKeys"`
}

type RateLimitConfig struct {
	Enabled  bool `yaml:"enabled"`
	Capacity int  `yaml:"capacity"`
	// RefillRate is tokens per second.
	RefillRate int `yaml:"refillRate"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Database  DatabaseConfig  `yaml:"database"`
	Minio     MinioConfig     `yaml:"minio"`
	Assistant AssistantConfig `yaml:"assistant"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// Load baca file config.yaml; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.withDefaults()
	return &cfg
}

func (c *Config) withDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 50
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Analysis.LoadDelay == 0 {
		c.Analysis.LoadDelay = time.Second
	}
	if c.Analysis.PredictDelay == 0 {
		c.Analysis.PredictDelay = 2 * time.Second
	}
	if c.Analysis.DispatchDelay == 0 {
		c.Analysis.DispatchDelay = 2 * time.Second
	}
	if c.Analysis.Overlap == "" {
		c.Analysis.Overlap = "queue"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "leveldb"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/analyses"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Assistant.Provider == "" {
		c.Assistant.Provider = "none"
	}
	if c.Assistant.Timeout == 0 {
		c.Assistant.Timeout = 15 * time.Second
	}
	if c.Assistant.Host == "" {
		c.Assistant.Host = "http://localhost:11434"
	}

	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
}

func (c *Config) validate() error {
	switch c.Analysis.Overlap {
	case "queue", "reject":
	default:
		return fmt.Errorf("analysis.overlap must be queue or reject, got %q", c.Analysis.Overlap)
	}
	switch c.Database.Driver {
	case "leveldb", "mysql", "postgres", "none":
	default:
		return fmt.Errorf("database.driver must be leveldb, mysql, postgres or none, got %q", c.Database.Driver)
	}
	switch c.Assistant.Provider {
	case "none", "openai", "ollama":
	default:
		return fmt.Errorf("assistant.provider must be none, openai or ollama, got %q", c.Assistant.Provider)
	}
	for _, m := range c.Analysis.Models {
		switch strings.ToLower(m) {
		case "mri", "ct", "xray":
		default:
			return fmt.Errorf("analysis.models: unknown scan type %q", m)
		}
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
