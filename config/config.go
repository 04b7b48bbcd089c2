package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `json:"server"`
	Homely  HomelyConfig  `json:"homely"`
	MQTT    MQTTConfig    `json:"mqtt"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// HomelyConfig contains Homely Cloud API settings
type HomelyConfig struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	LocationID       string `json:"location_id"`
	BaseURL          string `json:"base_url"`
	PollIntervalSecs int    `json:"poll_interval_secs"`
}

// MQTTConfig contains optional MQTT republishing settings.
// Republishing is disabled when BrokerURL is empty.
type MQTTConfig struct {
	BrokerURL string `json:"broker_url"`
	ClientID  string `json:"client_id"`
	TopicRoot string `json:"topic_root"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Homely.Username == "" || c.Homely.Password == "" {
		return fmt.Errorf("%w: Homely credentials are required", ErrInvalidConfig)
	}

	if c.Homely.PollIntervalSecs < 0 {
		return fmt.Errorf("%w: poll interval must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Load loads configuration from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromEnv loads configuration from environment variables
// This is useful for containerized deployments
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("HOMELY_HOST", "0.0.0.0"),
			Port: getEnvInt("HOMELY_PORT", 8089),
		},
		Homely: HomelyConfig{
			Username:         getEnv("HOMELY_USERNAME", ""),
			Password:         getEnv("HOMELY_PASSWORD", ""),
			LocationID:       getEnv("HOMELY_LOCATION_ID", ""),
			BaseURL:          getEnv("HOMELY_BASE_URL", ""),
			PollIntervalSecs: getEnvInt("HOMELY_POLL_INTERVAL_SECS", 30),
		},
		MQTT: MQTTConfig{
			BrokerURL: getEnv("HOMELY_MQTT_BROKER_URL", ""),
			ClientID:  getEnv("HOMELY_MQTT_CLIENT_ID", ""),
			TopicRoot: getEnv("HOMELY_MQTT_TOPIC_ROOT", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("HOMELY_LOG_LEVEL", "info"),
			Format: getEnv("HOMELY_LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration to a JSON file. The file is created
// with owner-only permissions because it holds account credentials.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		fmt.Sscanf(value, "%d", &intVal)
		return intVal
	}
	return defaultValue
}
