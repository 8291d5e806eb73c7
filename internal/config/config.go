package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr string `validate:"required"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
	Probe struct {
		Targets  []string      `validate:"dive,http_url"`
		Schedule string        `validate:"required"`
		Timeout  time.Duration `validate:"gt=0"`
		Retries  int           `validate:"min=0,max=10"`
		// TLS loads the optional TLS failure identities at startup.
		TLS bool
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	var err error
	c.Env = getenv("ENV", "prod")
	c.HTTP.Addr = getenv("HTTP_ADDR", ":8080")
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/reqprobe.log")

	c.Probe.Targets = splitList(os.Getenv("PROBE_TARGETS"))
	c.Probe.Schedule = getenv("PROBE_SCHEDULE", "@every 30s")
	if c.Probe.Timeout, err = time.ParseDuration(getenv("PROBE_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("PROBE_TIMEOUT: %w", err)
	}
	if c.Probe.Retries, err = strconv.Atoi(getenv("PROBE_RETRIES", "1")); err != nil {
		return Config{}, fmt.Errorf("PROBE_RETRIES: %w", err)
	}
	if c.Probe.TLS, err = strconv.ParseBool(getenv("PROBE_TLS", "false")); err != nil {
		return Config{}, fmt.Errorf("PROBE_TLS: %w", err)
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if _, err := cron.ParseStandard(c.Probe.Schedule); err != nil {
		return Config{}, fmt.Errorf("PROBE_SCHEDULE: %w", err)
	}
	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
