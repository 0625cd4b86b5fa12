package config

import "time"

// APIConfig configures the outbound REST client shared by the identity
// gateway and the application API calls.
type APIConfig struct {
	// BaseURL is the root of the REST API.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000/api"`

	// Timeout bounds every outbound call. Failures past the deadline
	// are classified as network errors.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to the API configuration.
func (c *APIConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
