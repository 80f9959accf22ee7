package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentAPIVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	API    APIConfig
}

// CommonConfig contains configuration shared between the API server and CLI tools.
type CommonConfig struct {
	// Version of the common config.
	Version        int            `koanf:"version"`
	Debug          Debug          `koanf:"debug"`
	CircuitBreaker CircuitBreaker `koanf:"circuit_breaker"`
	Retry          Retry          `koanf:"retry"`
	PostgreSQL     PostgreSQL     `koanf:"postgresql"`
	Redis          Redis          `koanf:"redis"`
	Roblox         Roblox         `koanf:"roblox"`
}

// APIConfig contains REST API server specific configuration.
type APIConfig struct {
	// Version of the api config.
	Version int `koanf:"version"`
	// Request timeout for outbound Roblox calls in milliseconds.
	RequestTimeout int       `koanf:"request_timeout"`
	Server         Server    `koanf:"server"`
	Session        Session   `koanf:"session"`
	RateLimit      RateLimit `koanf:"rate_limit"`
	BotCache       BotCache  `koanf:"bot_cache"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log session directories to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// CircuitBreaker contains circuit breaker configuration for the Roblox client.
type CircuitBreaker struct {
	// Maximum number of requests allowed to pass through when the circuit is half-open.
	MaxRequests uint32 `koanf:"max_requests"`
	// The cyclic period of the closed state for the circuit breaker to clear the internal counts.
	Interval int `koanf:"interval"`
	// The period of the open state after which the state of the circuit breaker becomes half-open.
	Timeout int `koanf:"timeout"`
}

// Retry contains retry configuration for the Roblox client.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Roblox contains Roblox OAuth application configuration.
// The privileged bot cookie lives in <configdir>/credentials/cookie,
// not in the config file.
type Roblox struct {
	// OAuth application client ID.
	ClientID string `koanf:"client_id"`
	// OAuth application client secret.
	ClientSecret string `koanf:"client_secret"`
	// OAuth redirect URI registered with the application.
	RedirectURI string `koanf:"redirect_uri"`
}

// Server contains HTTP server binding configuration.
type Server struct {
	// Host address to bind to.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
}

// Session contains signed session token configuration.
type Session struct {
	// HMAC signing secret for session tokens.
	Secret string `koanf:"secret"`
	// Session lifetime in minutes.
	TTL int `koanf:"ttl"`
	// Name of the session cookie.
	CookieName string `koanf:"cookie_name"`
	// Whether to set the Secure flag on the session cookie.
	Secure bool `koanf:"secure"`
	// OAuth state entry lifetime in seconds.
	StateTTL int `koanf:"state_ttl"`
}

// RateLimit contains per-IP rate limiting configuration.
type RateLimit struct {
	// Sustained requests per second allowed per client IP.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Burst size allowed per client IP.
	BurstSize int `koanf:"burst_size"`
}

// BotCache contains caching configuration for the bot account identity.
type BotCache struct {
	// Cache entry lifetime in minutes.
	TTL int `koanf:"ttl"`
}

// LoadConfig loads the configuration from the known search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".rogrouper",
		homeDir + "/.rogrouper/config",
		"/etc/rogrouper/config",
		"/app/config",
		"config",
		".",
	}

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "api"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf("%w: %s.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, name, current, expected)
	}

	return nil
}
