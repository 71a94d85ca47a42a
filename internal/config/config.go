package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimulatorConfig holds the defaults for the live generation session.
type SimulatorConfig struct {
	Seed         int64   `yaml:"seed"`
	BatchSize    int     `yaml:"batch_size"`
	TickInterval string  `yaml:"tick_interval"`
	BenignRate   float64 `yaml:"benign_rate"`
}

// NATSConfig holds the connection details for the flow stream.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig holds the connection details for flow storage.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIConfig holds the settings for the HTTP control plane.
type APIConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AlerterRule defines a single threshold rule over tick statistics.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"` // attack_fraction, flows_per_tick, predicted_attacks
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// AIConfig holds the settings for LLM-assisted alert analysis.
type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// AlerterConfig holds the settings for the alert evaluation loop.
type AlerterConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval string        `yaml:"check_interval"`
	Rules         []AlerterRule `yaml:"rules"`
	AIAnalysis    AIConfig      `yaml:"ai_analysis"`
}

// SMTPConfig holds the settings for email notifications.
type SMTPConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Simulator  SimulatorConfig  `yaml:"simulator"`
	NATS       NATSConfig       `yaml:"nats"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	API        APIConfig        `yaml:"api"`
	Alerter    AlerterConfig    `yaml:"alerter"`
	SMTP       SMTPConfig       `yaml:"smtp"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Simulator.BatchSize <= 0 {
		c.Simulator.BatchSize = 50
	}
	if c.Simulator.TickInterval == "" {
		c.Simulator.TickInterval = "1s"
	}
	if c.Simulator.BenignRate <= 0 {
		c.Simulator.BenignRate = 50
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "flowforge.flows"
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.Alerter.CheckInterval == "" {
		c.Alerter.CheckInterval = "30s"
	}
}
