package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Invoice      InvoiceConfig
	Watchdog     WatchdogConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADFACTURA_APP_ENV" required:"true"`
	Port         string `envconfig:"ADFACTURA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ADFACTURA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ADFACTURA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ADFACTURA_DB_DSN"`
	Driver string `envconfig:"ADFACTURA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ADFACTURA_DB_HOST"`
	Port     int    `envconfig:"ADFACTURA_DB_PORT" default:"5432"`
	User     string `envconfig:"ADFACTURA_DB_USER"`
	Password string `envconfig:"ADFACTURA_DB_PASSWORD"`
	Name     string `envconfig:"ADFACTURA_DB_NAME"`
	SSLMode  string `envconfig:"ADFACTURA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ADFACTURA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ADFACTURA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ADFACTURA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADFACTURA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" || strings.EqualFold(d.Driver, "sqlite") {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either ADFACTURA_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"ADFACTURA_REDIS_URL"`
	Address      string        `envconfig:"ADFACTURA_REDIS_ADDR"`
	Password     string        `envconfig:"ADFACTURA_REDIS_PASSWORD"`
	DB           int           `envconfig:"ADFACTURA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ADFACTURA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ADFACTURA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ADFACTURA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ADFACTURA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ADFACTURA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type InvoiceConfig struct {
	// SeriesPrefix leads every invoice number, e.g. FB-20260831-000042.
	SeriesPrefix string `envconfig:"ADFACTURA_INVOICE_SERIES_PREFIX" default:"FB"`
}

type WatchdogConfig struct {
	Interval   time.Duration `envconfig:"ADFACTURA_WATCHDOG_INTERVAL" default:"1h"`
	StaleAfter time.Duration `envconfig:"ADFACTURA_WATCHDOG_STALE_AFTER" default:"72h"`
	LockTTL    time.Duration `envconfig:"ADFACTURA_WATCHDOG_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ADFACTURA_AUTO_MIGRATE" default:"false"`
}
