package chinoapi

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Default endpoint and transport settings.
const (
	DefaultBaseURL      = "https://api.test.chino.io/v1"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryInitial = 200 * time.Millisecond
	DefaultRetryMax     = 5 * time.Second
)

// Config holds the API endpoint, credentials and retry policy.
type Config struct {
	BaseURL      string
	CustomerID   string
	CustomerKey  string
	BearerToken  string
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RetryInitial time.Duration
	RetryMax     time.Duration
	HTTPClient   *http.Client
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = DefaultRetryInitial
	}
	if c.RetryMax <= 0 {
		c.RetryMax = DefaultRetryMax
	}
	if c.UserAgent == "" {
		c.UserAgent = "chino-go"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.CustomerID, validation.When(c.CustomerKey != "", validation.Required)),
		validation.Field(&c.CustomerKey, validation.When(c.CustomerID != "", validation.Required)),
		validation.Field(&c.MaxRetries, validation.Max(10)),
		validation.Field(&c.RetryMax, validation.By(func(any) error {
			if c.RetryMax < c.RetryInitial {
				return errors.New("must not be lower than the initial retry interval")
			}
			return nil
		})),
	)
}

func absoluteURL(v any) error {
	s, _ := v.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
