package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"API_PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBHost               string        `mapstructure:"DB_HOST"`
	DBPort               string        `mapstructure:"DB_PORT"`
	DBUser               string        `mapstructure:"DB_USER"`
	DBPassword           string        `mapstructure:"DB_PASSWORD"`
	DBDatabase           string        `mapstructure:"DB_DATABASE"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	APIKey               string        `mapstructure:"API_KEY"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	JWTTTL               time.Duration `mapstructure:"JWT_TTL"`
	LoginRateLimit       int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow      time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	AllowLegacyPasswords bool          `mapstructure:"ALLOW_LEGACY_PASSWORDS"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit            string        `mapstructure:"BODY_LIMIT"`
	TrustedProxies       []string      `mapstructure:"TRUSTED_PROXIES"`
}

var envKeys = []string{
	"API_PORT", "ENV",
	"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_DATABASE",
	"DB_MAX_CONNS", "DB_MIN_CONNS",
	"API_KEY", "CORS_ORIGINS",
	"JWT_SECRET", "JWT_TTL",
	"LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW", "REDIS_URL",
	"ALLOW_LEGACY_PASSWORDS", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"TRUSTED_PROXIES",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("API_PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("JWT_TTL", "12h")
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_WINDOW", "1m")
	v.SetDefault("ALLOW_LEGACY_PASSWORDS", false)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	cfg.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.buildDatabaseURL()
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_USER/DB_DATABASE is required")
	}

	return cfg, nil
}

// buildDatabaseURL assembles a postgres URL from the DB_* parts. It returns
// "" when the parts are not enough to reach a database.
func (c *Config) buildDatabaseURL() string {
	if c.DBUser == "" || c.DBDatabase == "" {
		return ""
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBDatabase,
	}
	if c.DBPassword != "" {
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	} else {
		u.User = url.User(c.DBUser)
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to serve traffic with. The
// API key gate fails closed, so an empty key would lock every client out and
// is reported here instead.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\" or \"production\", got %q", c.Env)
	}
	if c.LoginRateLimit <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be positive, got %d", c.LoginRateLimit)
	}
	if c.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_WINDOW must be positive, got %s", c.LoginRateWindow)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if _, err := c.TrustedProxyRanges(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyRanges parses TRUSTED_PROXIES. Each entry is a CIDR or a bare
// IP, which is treated as a single-host range.
func (c *Config) TrustedProxyRanges() ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, entry := range c.TrustedProxies {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid range %q", entry)
		}
		out = append(out, ipNet)
	}
	return out, nil
}

// SigningKey returns the key used to sign login tokens. Development builds
// without JWT_SECRET fall back to the API key so tokens still round-trip.
func (c *Config) SigningKey() []byte {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret)
	}
	return []byte(c.APIKey)
}
