package client

import (
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config configures the directory API client.
type Config struct {
	// BaseURL is the root of the directory service, e.g.
	// "http://localhost:5555".
	BaseURL string

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. When nil, one is built
	// with a cookie jar so the server's session cookie survives across
	// requests. A supplied client must carry its own jar.
	HTTPClient *http.Client

	// Logger receives request lifecycle messages. Nil disables logging.
	Logger func(format string, args ...any)
}

// DefaultConfig returns a Config with sensible defaults; BaseURL must still
// be supplied by the caller.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return validation.Errors{"BaseURL": validation.NewError(
			"validation_base_url", "must be an absolute URL")}
	}
	return nil
}
