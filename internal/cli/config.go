package cli

import (
	"os"
	"time"

	"github.com/mcoot/tictacnet/internal/client"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds CLI configuration
type Config struct {
	Server   string
	Output   string
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Server:   getEnvOrDefault("TTT_SERVER", "127.0.0.1:5000"),
		Output:   getEnvOrDefault("TTT_OUTPUT", FormatText),
		Interval: client.DefaultPollInterval,
		Timeout:  10 * time.Second,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
