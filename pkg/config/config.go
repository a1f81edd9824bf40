package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "BAZAAR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
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
	Env          string `envconfig:"BAZAAR_APP_ENV" required:"true"`
	Port         string `envconfig:"BAZAAR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BAZAAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAZAAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BAZAAR_DB_DSN"`

	Host     string `envconfig:"BAZAAR_DB_HOST"`
	Port     int    `envconfig:"BAZAAR_DB_PORT" default:"5432"`
	User     string `envconfig:"BAZAAR_DB_USER"`
	Password string `envconfig:"BAZAAR_DB_PASSWORD"`
	Name     string `envconfig:"BAZAAR_DB_NAME"`
	SSLMode  string `envconfig:"BAZAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZAAR_REDIS_URL"`
	Address      string        `envconfig:"BAZAAR_REDIS_ADDR"`
	Password     string        `envconfig:"BAZAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZAAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZAAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAZAAR_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RazorpayConfig struct {
	KeyID      string        `envconfig:"BAZAAR_RAZORPAY_KEY_ID" required:"true"`
	KeySecret  string        `envconfig:"BAZAAR_RAZORPAY_KEY_SECRET" required:"true"`
	Currency   string        `envconfig:"BAZAAR_RAZORPAY_CURRENCY" default:"INR"`
	Timeout    time.Duration `envconfig:"BAZAAR_RAZORPAY_TIMEOUT" default:"10s"`
	MaxRetries uint64        `envconfig:"BAZAAR_RAZORPAY_MAX_RETRIES" default:"2"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZAAR_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	if db.Host == "" {
		missing = append(missing, "BAZAAR_DB_HOST")
	}
	if db.User == "" {
		missing = append(missing, "BAZAAR_DB_USER")
	}
	if db.Name == "" {
		missing = append(missing, "BAZAAR_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("either BAZAAR_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
