// Package config loads runtime settings from the environment, an optional
// .env file and an optional config.yaml, in increasing order of precedence:
// defaults, config.yaml, .env/environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`

	DBDriver      string `mapstructure:"db_driver"`
	DatabaseDSN   string `mapstructure:"database_dsn"`
	DBAutoMigrate bool   `mapstructure:"db_auto_migrate"`
	DBLogMode     bool   `mapstructure:"db_log_mode"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	RememberTTL time.Duration `mapstructure:"remember_ttl"`
	BcryptCost  int           `mapstructure:"bcrypt_cost"`

	VerifyCodeTTL    time.Duration `mapstructure:"verify_code_ttl"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	LoginRatePerMin  int           `mapstructure:"login_rate_per_min"`
	VerifyRatePerMin int           `mapstructure:"verify_rate_per_min"`

	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For
	// is believed. Empty means the client address is always the peer.
	TrustedProxies []string `mapstructure:"trusted_proxies"`

	SMTPHost  string `mapstructure:"smtp_host"`
	SMTPPort  int    `mapstructure:"smtp_port"`
	SMTPUser  string `mapstructure:"smtp_user"`
	SMTPPass  string `mapstructure:"smtp_pass"`
	FromEmail string `mapstructure:"from_email"`

	LogLevel             string `mapstructure:"log_level"`
	LogFormat            string `mapstructure:"log_format"`
	ExposeInternalErrors bool   `mapstructure:"expose_internal_errors"`
}

const defaultJWTSecret = "change-me"

var defaults = map[string]any{
	"port":                   "8080",
	"gin_mode":               "debug",
	"db_driver":              "postgres",
	"database_dsn":           "",
	"db_auto_migrate":        true,
	"db_log_mode":            false,
	"redis_addr":             "localhost:6379",
	"redis_password":         "",
	"redis_db":               0,
	"jwt_secret":             defaultJWTSecret,
	"token_ttl":              "0s",
	"remember_ttl":           "168h",
	"bcrypt_cost":            10,
	"verify_code_ttl":        "15m",
	"request_timeout":        "10s",
	"login_rate_per_min":     30,
	"verify_rate_per_min":    10,
	"trusted_proxies":        []string{},
	"smtp_host":              "",
	"smtp_port":              587,
	"smtp_user":              "",
	"smtp_pass":              "",
	"from_email":             "",
	"log_level":              "info",
	"log_format":             "json",
	"expose_internal_errors": false,
}

// Load reads configuration. path names an optional YAML file; a missing file
// is not an error.
func Load(path string) (*Config, error) {
	// .env only fills variables that are not already set
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// PORT, DATABASE_DSN, JWT_SECRET ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN required")
		}
	case "sqlite":
		if c.DatabaseDSN == "" {
			c.DatabaseDSN = "file:postboard.db?_foreign_keys=on"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s (supported: postgres, sqlite)", c.DBDriver)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}
	// the placeholder secret is only tolerated for local sqlite setups
	if c.JWTSecret == defaultJWTSecret && (c.GinMode == "release" || c.DBDriver != "sqlite") {
		return errors.New("JWT_SECRET must be changed from the default")
	}
	if c.TokenTTL < 0 || c.RememberTTL <= 0 {
		return fmt.Errorf("invalid token lifetimes: token_ttl=%s remember_ttl=%s", c.TokenTTL, c.RememberTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT: %s", c.RequestTimeout)
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
			}
		}
	}
	return nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
