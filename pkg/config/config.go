package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the profile analytics service
type Config struct {
	// Instagram session credentials (optional, public profiles work without them)
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Tracking holds the list of accounts to monitor
	Tracking TrackingConfig `yaml:"tracking" json:"tracking"`

	// Fetch controls rate limiting and retry behavior
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Cache controls snapshot persistence
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Server holds HTTP API settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// TrackingConfig holds the tracked username list
type TrackingConfig struct {
	Usernames []string `yaml:"usernames" json:"usernames"`
}

// FetchConfig holds rate limiting and retry configuration
type FetchConfig struct {
	// RequestDelay is the fixed pause applied before each profile request
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
	// MaxRetries is the total number of attempts for connection failures
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// RetryDelay is the pause between retry attempts
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// Timeout bounds a single upstream HTTP request
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// RequestsPerMinute caps outbound calls to the profile source
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// CacheConfig holds snapshot persistence configuration
type CacheConfig struct {
	// File is the path of the on-disk JSON snapshot
	File string `yaml:"file" json:"file"`
	// TTL is the freshness window for reusing a persisted snapshot
	TTL time.Duration `yaml:"ttl" json:"ttl"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Host        string   `yaml:"host" json:"host"`
	Port        int      `yaml:"port" json:"port"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultUsernames is the out-of-the-box tracked account list
var DefaultUsernames = []string{
	// Celebrities & athletes
	"instagram",
	"cristiano",
	"leomessi",
	"selenagomez",
	"therock",
	"kyliejenner",
	"arianagrande",
	"kimkardashian",
	"beyonce",
	"justinbieber",

	// Brands & organizations
	"nike",
	"natgeo",
	"nasa",
	"redbull",
	"spotify",
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Tracking: TrackingConfig{
			Usernames: append([]string(nil), DefaultUsernames...),
		},
		Fetch: FetchConfig{
			RequestDelay:      2 * time.Second,
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
			Timeout:           30 * time.Second,
			RequestsPerMinute: 30,
		},
		Cache: CacheConfig{
			File: "instagram_cache.json",
			TTL:  30 * time.Minute,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			CORSOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if sessionID := os.Getenv("IGPROFILES_SESSION_ID"); sessionID != "" {
		c.Instagram.SessionID = sessionID
	}
	if csrfToken := os.Getenv("IGPROFILES_CSRF_TOKEN"); csrfToken != "" {
		c.Instagram.CSRFToken = csrfToken
	}
	if userAgent := os.Getenv("IGPROFILES_USER_AGENT"); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}

	if usernames := os.Getenv("IGPROFILES_USERNAMES"); usernames != "" {
		var list []string
		for _, u := range strings.Split(usernames, ",") {
			if u = strings.TrimSpace(u); u != "" {
				list = append(list, u)
			}
		}
		if len(list) > 0 {
			c.Tracking.Usernames = list
		}
	}

	if delay := os.Getenv("IGPROFILES_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			c.Fetch.RequestDelay = d
		}
	}
	if retries := os.Getenv("IGPROFILES_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil && val > 0 {
			c.Fetch.MaxRetries = val
		}
	}
	if delay := os.Getenv("IGPROFILES_RETRY_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			c.Fetch.RetryDelay = d
		}
	}

	if file := os.Getenv("IGPROFILES_CACHE_FILE"); file != "" {
		c.Cache.File = file
	}
	if ttl := os.Getenv("IGPROFILES_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			c.Cache.TTL = d
		}
	}

	// PORT is honored for parity with common PaaS conventions
	if port := os.Getenv("PORT"); port != "" {
		if val, err := strconv.Atoi(port); err == nil && val > 0 {
			c.Server.Port = val
		}
	}
	if host := os.Getenv("IGPROFILES_HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("IGPROFILES_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches the standard locations and returns the first
// config file that exists, or "" when there is none.
func FindConfigFile() string {
	locations := []string{
		".igprofiles.yaml",
		".igprofiles.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igprofiles", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igprofiles", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igprofiles.yaml"),
		filepath.Join(os.Getenv("HOME"), ".igprofiles.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if len(c.Tracking.Usernames) == 0 {
		errs = append(errs, errors.New("at least one tracked username is required"))
	}

	if c.Fetch.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.Fetch.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}
	if c.Fetch.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Cache.File == "" {
		errs = append(errs, errors.New("cache file is required"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache TTL must be positive"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server port must be between 1 and 65535"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Config may contain session credentials
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if sessionID, ok := flags["session-id"].(string); ok && sessionID != "" {
		c.Instagram.SessionID = sessionID
	}
	if csrfToken, ok := flags["csrf-token"].(string); ok && csrfToken != "" {
		c.Instagram.CSRFToken = csrfToken
	}
	if usernames, ok := flags["usernames"].([]string); ok && len(usernames) > 0 {
		c.Tracking.Usernames = usernames
	}
	if port, ok := flags["port"].(int); ok && port > 0 {
		c.Server.Port = port
	}
	if cacheFile, ok := flags["cache-file"].(string); ok && cacheFile != "" {
		c.Cache.File = cacheFile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igprofiles.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
