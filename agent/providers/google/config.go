package google

import "time"

// Config configures an Agent.
type Config struct {
	ID                string
	Name              string
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second
	defaultModel   = "gemini-2.5-flash"
)

func (c Config) timeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c Config) baseURLOrDefault() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}
