package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Server: ServerConfig{
					Host: "0.0.0.0",
					Port: 8089,
				},
				Homely: HomelyConfig{
					Username:         "user@example.com",
					Password:         "hunter2",
					PollIntervalSecs: 30,
				},
			},
			wantErr: false,
		},
		{
			name: "invalid port - zero",
			config: Config{
				Server: ServerConfig{
					Port: 0,
				},
				Homely: HomelyConfig{Username: "user@example.com", Password: "hunter2"},
			},
			wantErr: true,
		},
		{
			name: "invalid port - too large",
			config: Config{
				Server: ServerConfig{
					Port: 70000,
				},
				Homely: HomelyConfig{Username: "user@example.com", Password: "hunter2"},
			},
			wantErr: true,
		},
		{
			name: "missing username",
			config: Config{
				Server: ServerConfig{Port: 8089},
				Homely: HomelyConfig{Password: "hunter2"},
			},
			wantErr: true,
		},
		{
			name: "missing password",
			config: Config{
				Server: ServerConfig{Port: 8089},
				Homely: HomelyConfig{Username: "user@example.com"},
			},
			wantErr: true,
		},
		{
			name: "negative poll interval",
			config: Config{
				Server: ServerConfig{Port: 8089},
				Homely: HomelyConfig{
					Username:         "user@example.com",
					Password:         "hunter2",
					PollIntervalSecs: -5,
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	validConfig := `{
		"server": {
			"host": "127.0.0.1",
			"port": 8089
		},
		"homely": {
			"username": "user@example.com",
			"password": "hunter2",
			"location_id": "loc1",
			"poll_interval_secs": 30
		},
		"mqtt": {
			"broker_url": "tcp://localhost:1883",
			"topic_root": "homely"
		},
		"logging": {
			"level": "debug",
			"format": "text"
		}
	}`

	err := os.WriteFile(configPath, []byte(validConfig), 0600)
	require.NoError(t, err)

	// Test loading valid config
	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 8089, config.Server.Port)
	assert.Equal(t, "user@example.com", config.Homely.Username)
	assert.Equal(t, "loc1", config.Homely.LocationID)
	assert.Equal(t, 30, config.Homely.PollIntervalSecs)
	assert.Equal(t, "tcp://localhost:1883", config.MQTT.BrokerURL)
	assert.Equal(t, "debug", config.Logging.Level)

	// Test loading non-existent file
	_, err = Load("/nonexistent/config.json")
	assert.ErrorIs(t, err, ErrConfigFileNotFound)

	// Test loading invalid JSON
	invalidPath := filepath.Join(tmpDir, "invalid.json")
	err = os.WriteFile(invalidPath, []byte("invalid json"), 0644)
	require.NoError(t, err)

	_, err = Load(invalidPath)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	// Set environment variables
	os.Setenv("HOMELY_HOST", "127.0.0.1")
	os.Setenv("HOMELY_PORT", "9090")
	os.Setenv("HOMELY_USERNAME", "env-user@example.com")
	os.Setenv("HOMELY_PASSWORD", "env-password")
	os.Setenv("HOMELY_LOCATION_ID", "env-loc")
	os.Setenv("HOMELY_POLL_INTERVAL_SECS", "60")
	os.Setenv("HOMELY_MQTT_BROKER_URL", "tcp://broker:1883")

	defer func() {
		os.Unsetenv("HOMELY_HOST")
		os.Unsetenv("HOMELY_PORT")
		os.Unsetenv("HOMELY_USERNAME")
		os.Unsetenv("HOMELY_PASSWORD")
		os.Unsetenv("HOMELY_LOCATION_ID")
		os.Unsetenv("HOMELY_POLL_INTERVAL_SECS")
		os.Unsetenv("HOMELY_MQTT_BROKER_URL")
	}()

	config, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "env-user@example.com", config.Homely.Username)
	assert.Equal(t, "env-password", config.Homely.Password)
	assert.Equal(t, "env-loc", config.Homely.LocationID)
	assert.Equal(t, 60, config.Homely.PollIntervalSecs)
	assert.Equal(t, "tcp://broker:1883", config.MQTT.BrokerURL)
}

func TestConfig_Save(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	config := &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8089},
		Homely: HomelyConfig{
			Username:         "user@example.com",
			Password:         "hunter2",
			LocationID:       "loc1",
			PollIntervalSecs: 30,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}

	err := config.Save(configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.Homely.Username, loaded.Homely.Username)
	assert.Equal(t, config.Homely.LocationID, loaded.Homely.LocationID)
}
