// Package config loads runtime settings from the environment (prefix LEADS_).
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Env         string `envconfig:"env" default:"development"`
	HTTPAddr    string `envconfig:"http_addr" default:":8080"`
	MetricsPath string `envconfig:"metrics_path" default:"/metrics"`

	StoreDriver   string `envconfig:"store_driver" default:"postgres"`
	DatabaseURL   string `envconfig:"database_url"`
	MongoURI      string `envconfig:"mongo_uri" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"mongo_database" default:"beauty_leads"`

	RabbitMQURL string `envconfig:"rabbitmq_url"`

	JWTSecret string        `envconfig:"jwt_secret"`
	JWTTTL    time.Duration `envconfig:"jwt_ttl" default:"12h"`

	CORSOrigins []string `envconfig:"cors_origins" default:"*"`

	MailHost   string `envconfig:"mail_host" default:"smtp.gmail.com"`
	MailPort   int    `envconfig:"mail_port" default:"587"`
	MailUser   string `envconfig:"mail_user"`
	MailPass   string `envconfig:"mail_pass"`
	AlertEmail string `envconfig:"alert_email"`

	CacheRetryInterval time.Duration `envconfig:"cache_retry_interval" default:"30s"`
}

// Load reads an optional .env file and then the LEADS_* variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("leads", &c); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// AuthConfig is the subset needed to issue operator tokens.
type AuthConfig struct {
	Env       string        `envconfig:"env" default:"development"`
	JWTSecret string        `envconfig:"jwt_secret"`
	JWTTTL    time.Duration `envconfig:"jwt_ttl" default:"12h"`
}

// LoadAuth reads only the LEADS_* token settings; store and broker
// settings are not required.
func LoadAuth() (*AuthConfig, error) {
	_ = godotenv.Load()

	var c AuthConfig
	if err := envconfig.Process("leads", &c); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := validateJWT(c.JWTSecret, c.JWTTTL); err != nil {
		return nil, err
	}
	return &c, nil
}

func validateJWT(secret string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("LEADS_JWT_SECRET is required")
	}
	if ttl <= 0 {
		return errors.Errorf("LEADS_JWT_TTL must be positive, got %s", ttl)
	}
	return nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("LEADS_DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("LEADS_MONGO_URI is required for the mongo store")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown LEADS_STORE_DRIVER %q", c.StoreDriver)
	}
	return validateJWT(c.JWTSecret, c.JWTTTL)
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// EventsEnabled reports whether lead events go to RabbitMQ.
func (c *Config) EventsEnabled() bool { return c.RabbitMQURL != "" }

// AlertsEnabled reports whether new-lead alert mail is sent.
func (c *Config) AlertsEnabled() bool {
	return c.EventsEnabled() && c.AlertEmail != "" && c.MailUser != ""
}
