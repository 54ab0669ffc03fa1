package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client configuration. Values come from the YAML
// file first, then environment variables override.
type Config struct {
	ServerURL    string        `yaml:"server_url"`
	PushPath     string        `yaml:"push_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
	CacheDir     string        `yaml:"cache_dir"`
	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
	Username     string        `yaml:"username"`
	Admin        bool          `yaml:"admin"`
}

func defaultConfig() Config {
	return Config{
		ServerURL:    "http://localhost:8090",
		PushPath:     "/push",
		PollInterval: 3 * time.Second,
		CacheDir:     ".liveboard-cache",
		ReconnectMin: 1 * time.Second,
		ReconnectMax: 30 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "1" || strings.EqualFold(value, "true")
	}
	return defaultValue
}

func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return config, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.ServerURL = getEnv("LIVEBOARD_SERVER_URL", config.ServerURL)
	config.PushPath = getEnv("LIVEBOARD_PUSH_PATH", config.PushPath)
	config.PollInterval = getEnvAsDuration("LIVEBOARD_POLL_INTERVAL", config.PollInterval)
	config.CacheDir = getEnv("LIVEBOARD_CACHE_DIR", config.CacheDir)
	config.ReconnectMin = getEnvAsDuration("LIVEBOARD_RECONNECT_MIN", config.ReconnectMin)
	config.ReconnectMax = getEnvAsDuration("LIVEBOARD_RECONNECT_MAX", config.ReconnectMax)
	config.Username = getEnv("LIVEBOARD_USERNAME", config.Username)
	config.Admin = getEnvAsBool("LIVEBOARD_ADMIN", config.Admin)

	return config, nil
}

// pushURL derives the websocket endpoint from the HTTP base URL
func (c Config) pushURL() string {
	url := c.ServerURL
	if strings.HasPrefix(url, "https://") {
		url = "wss://" + strings.TrimPrefix(url, "https://")
	} else if strings.HasPrefix(url, "http://") {
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + c.PushPath
}
