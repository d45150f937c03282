package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	Refresh RefreshConfig
	Push    PushConfig
	Cart    CartConfig
	DB      DBConfig
	Redis   RedisConfig
	AMQP    AMQPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	// CORSOrigins lists the UI origins allowed to call the local API.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:8080,http://localhost:5173"`
}

type CatalogConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"10s"`
}

type RefreshConfig struct {
	Interval time.Duration `envconfig:"STOREFRONT_REFRESH_INTERVAL" default:"1m"`
}

type PushConfig struct {
	Transport  string        `envconfig:"STOREFRONT_PUSH_TRANSPORT" default:"websocket"`
	URL        string        `envconfig:"STOREFRONT_PUSH_URL"`
	RetryDelay time.Duration `envconfig:"STOREFRONT_PUSH_RETRY_DELAY" default:"3s"`
	// Channel is the redis channel or the AMQP exchange carrying stock updates.
	Channel string `envconfig:"STOREFRONT_PUSH_CHANNEL" default:"catalog.stock"`
}

// TransportKind returns the normalized transport name.
func (p PushConfig) TransportKind() string {
	kind := strings.ToLower(strings.TrimSpace(p.Transport))
	if kind == "" {
		return PushTransportWebSocket
	}
	return kind
}

type CartConfig struct {
	Name        string `envconfig:"STOREFRONT_CART_NAME" default:"storefront_cart"`
	StoreDriver string `envconfig:"STOREFRONT_STORE_DRIVER" default:"sql"`
}

type DBConfig struct {
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"STOREFRONT_DB_DSN" default:"storefront_cart.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"true"`
}

// IsSQLite reports whether the sqlite dialector is configured.
func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(d.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type AMQPConfig struct {
	URL string `envconfig:"STOREFRONT_AMQP_URL"`
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvCatalogBaseURL, err)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("%s must be positive", EnvRefreshInterval)
	}

	switch strings.ToLower(c.Cart.StoreDriver) {
	case StoreDriverSQL:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required for the sql store", EnvDBDSN)
		}
	case StoreDriverRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s is required for the redis store", EnvRedisURL)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreDriver, c.Cart.StoreDriver)
	}

	switch c.Push.TransportKind() {
	case PushTransportWebSocket:
		if c.Push.URL == "" {
			c.Push.URL = defaultPushURL(c.Catalog.BaseURL)
		}
	case PushTransportRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s is required for the redis push transport", EnvRedisURL)
		}
	case PushTransportAMQP:
		if strings.TrimSpace(c.AMQP.URL) == "" {
			return fmt.Errorf("%s is required for the amqp push transport", EnvAMQPURL)
		}
	case PushTransportNone:
	default:
		return fmt.Errorf("unsupported %s %q", EnvPushTransport, c.Push.Transport)
	}
	if c.Push.RetryDelay <= 0 {
		return fmt.Errorf("%s must be positive", EnvPushRetryDelay)
	}
	return nil
}

// defaultPushURL derives the stock websocket endpoint from the catalog base url.
func defaultPushURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/stock"
	u.RawQuery = ""
	return u.String()
}
