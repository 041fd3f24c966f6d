package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		// Port the kiosk API listens on
		Port string `env:"PORT" envDefault:"5250"`

		// Origins allowed to call the API; "*" allows any
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Feed struct {
		BaseURL  string `env:"FEED_BASE_URL" envDefault:"https://public1.pipsy.io/payloads"`
		Client   string `env:"FEED_CLIENT"`
		Property string `env:"FEED_PROPERTY"`
		Suffix   string `env:"FEED_URL_SUFFIX" envDefault:".json"`

		// Request timeout in seconds
		Timeout int `env:"FEED_TIMEOUT" envDefault:"15"`
	}

	Session struct {
		// Inactivity window before the kiosk returns to the attract screen
		IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"10m"`

		// View shown when a session expires
		LandingView string `env:"SESSION_LANDING_VIEW" envDefault:"/"`

		// Buffered interaction events awaiting the session controller
		EventBuffer int `env:"SESSION_EVENT_BUFFER" envDefault:"64"`
	}

	Inventory struct {
		// Maximum number of retries when loading the listing index
		MaxRetries int `env:"INVENTORY_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in milliseconds
		RetryDelay int `env:"INVENTORY_RETRY_DELAY" envDefault:"200"`
	}
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if GetViewByPath(cfg.Session.LandingView) == nil {
		return nil, errors.New("SESSION_LANDING_VIEW is not a known view: " + cfg.Session.LandingView)
	}
	return cfg, nil
}

// FeedTimeout returns the feed request timeout as a duration.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.Timeout) * time.Second
}

// RetryDelay returns the inventory retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Inventory.RetryDelay) * time.Millisecond
}
