package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model backends.
const (
	BackendReference = "reference"
	BackendHTTP      = "http"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Database struct {
		Type       string `yaml:"type"` // "sqlite" or "postgres"
		Path       string `yaml:"path"` // SQLite file
		URL        string `yaml:"url"`  // PostgreSQL URL
		Migrations string `yaml:"migrations"`
	} `yaml:"database"`

	Crops struct {
		Path string `yaml:"path"` // empty means the built-in dataset
	} `yaml:"crops"`

	Models struct {
		Backend        string  `yaml:"backend"`
		URL            string  `yaml:"url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		HorizonHours   float64 `yaml:"horizon_hours"`
	} `yaml:"models"`

	Engine struct {
		ReferenceHours        float64  `yaml:"reference_hours"`
		InitialExposureHours  float64  `yaml:"initial_exposure_hours"`
		TemperatureToleranceC *float64 `yaml:"temperature_tolerance_c"`
		Parallelism           int      `yaml:"parallelism"`
	} `yaml:"engine"`

	Session struct {
		TTLMinutes int `yaml:"ttl_minutes"`
	} `yaml:"session"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Advisor struct {
		Enabled    bool   `yaml:"enabled"`
		APIKey     string `yaml:"api_key"`
		ModelName  string `yaml:"model_name"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"advisor"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	// Expand environment variables in secrets
	config.Advisor.APIKey = os.ExpandEnv(config.Advisor.APIKey)
	config.Database.URL = os.ExpandEnv(config.Database.URL)
	config.Models.URL = os.ExpandEnv(config.Models.URL)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8003"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}

	if c.Database.Path == "" {
		c.Database.Path = "./data/freshlogic.db"
	}

	if c.Database.Migrations == "" {
		c.Database.Migrations = "file://migrations"
	}

	if c.Models.Backend == "" {
		c.Models.Backend = BackendReference
	}

	if c.Models.TimeoutSeconds == 0 {
		c.Models.TimeoutSeconds = 10
	}

	if c.Models.HorizonHours == 0 {
		c.Models.HorizonHours = 24
	}

	if c.Engine.ReferenceHours == 0 {
		c.Engine.ReferenceHours = 24
	}

	if c.Engine.InitialExposureHours == 0 {
		c.Engine.InitialExposureHours = c.Engine.ReferenceHours
	}

	if c.Engine.TemperatureToleranceC == nil {
		tol := 1.0
		c.Engine.TemperatureToleranceC = &tol
	}

	if c.Session.TTLMinutes == 0 {
		c.Session.TTLMinutes = 30
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "route-risk.summaries"
	}

	if c.Advisor.ModelName == "" {
		c.Advisor.ModelName = "gemini-2.0-flash"
	}

	if c.Advisor.MaxRetries == 0 {
		c.Advisor.MaxRetries = 3
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Models.Backend {
	case BackendReference:
	case BackendHTTP:
		if c.Models.URL == "" {
			return fmt.Errorf("models.url is required for the %s backend", BackendHTTP)
		}
	default:
		return fmt.Errorf("unknown models.backend %q", c.Models.Backend)
	}

	switch c.Database.Type {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database.type %q", c.Database.Type)
	}

	if c.Engine.ReferenceHours <= 0 {
		return fmt.Errorf("engine.reference_hours must be positive, got %v", c.Engine.ReferenceHours)
	}
	if c.Engine.InitialExposureHours <= 0 {
		return fmt.Errorf("engine.initial_exposure_hours must be positive, got %v", c.Engine.InitialExposureHours)
	}
	if c.Engine.TemperatureToleranceC != nil && *c.Engine.TemperatureToleranceC < 0 {
		return fmt.Errorf("engine.temperature_tolerance_c must not be negative, got %v", *c.Engine.TemperatureToleranceC)
	}
	if c.Models.TimeoutSeconds < 0 || c.Session.TTLMinutes < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Advisor.Enabled && (c.Advisor.APIKey == "" || c.Advisor.APIKey == "YOUR_API_KEY_HERE") {
		return fmt.Errorf("advisor.api_key is required when the advisor is enabled")
	}
	return nil
}

// Tolerance returns the configured temperature tolerance.
func (c *Config) Tolerance() float64 {
	if c.Engine.TemperatureToleranceC == nil {
		return 1.0
	}
	return *c.Engine.TemperatureToleranceC
}
