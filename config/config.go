package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	ServerURL          string
	Email              string
	Username           string
	Password           string
	InsecureSkipVerify bool

	RequestTimeout time.Duration

	RateLimitPerMinute int
	RateLimitWait      time.Duration

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	FolderSearchDepth int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	serverURL := os.Getenv("EWS_SERVER_URL")
	if serverURL == "" {
		return nil, fmt.Errorf("EWS_SERVER_URL environment variable is required (e.g. https://mail.example.com/EWS/Exchange.asmx)")
	}
	email := os.Getenv("EWS_EMAIL")
	if email == "" {
		return nil, fmt.Errorf("EWS_EMAIL environment variable is required")
	}
	password := os.Getenv("EWS_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("EWS_PASSWORD environment variable is required")
	}

	// Some deployments authenticate with DOMAIN\user instead of the address
	username := os.Getenv("EWS_USERNAME")
	if username == "" {
		username = email
	}

	cfg := &Config{
		ServerURL:          serverURL,
		Email:              email,
		Username:           username,
		Password:           password,
		InsecureSkipVerify: os.Getenv("EWS_INSECURE_SKIP_VERIFY") == "true",
	}

	var err error
	cfg.RequestTimeout, err = secondsVar("REQUEST_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitPerMinute, err = intVar("RATE_LIMIT_PER_MINUTE", 25)
	if err != nil {
		return nil, err
	}
	// Zero disables waiting: calls over budget fail immediately.
	waitSeconds, err := nonNegIntVar("RATE_LIMIT_WAIT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWait = time.Duration(waitSeconds) * time.Second
	cfg.RetryMaxAttempts, err = intVar("RETRY_MAX_ATTEMPTS", 4)
	if err != nil {
		return nil, err
	}
	cfg.RetryBaseDelay, err = millisVar("RETRY_BASE_DELAY_MS", 500)
	if err != nil {
		return nil, err
	}
	cfg.RetryMaxDelay, err = millisVar("RETRY_MAX_DELAY_MS", 10000)
	if err != nil {
		return nil, err
	}
	cfg.FolderSearchDepth, err = intVar("FOLDER_SEARCH_DEPTH", 3)
	if err != nil {
		return nil, err
	}
	if cfg.FolderSearchDepth < 1 {
		cfg.FolderSearchDepth = 1
	}
	if cfg.FolderSearchDepth > 10 {
		cfg.FolderSearchDepth = 10
	}

	return cfg, nil
}

func intVar(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return v, nil
}

func nonNegIntVar(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

func secondsVar(name string, def int) (time.Duration, error) {
	v, err := intVar(name, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Second, nil
}

func millisVar(name string, def int) (time.Duration, error) {
	v, err := intVar(name, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Millisecond, nil
}
