package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	WS       WSConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	InstanceID  string
}

type DatabaseConfig struct {
	StoreDriver   string
	SkillSeedFile string
	AutoMigrate   bool

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout      time.Duration
	PoolMaxConns        int32
	PoolMinConns        int32
	PoolMaxConnLifetime time.Duration
	PoolMaxConnIdleTime time.Duration
	SlowQueryThreshold  time.Duration
}

// DSN renders the connection settings as a postgres:// URL so that every
// value, including an empty or quoted password, survives parsing.
func (c DatabaseConfig) DSN() string {
	sslMode := strings.TrimSpace(c.DBSSLMode)
	if sslMode == "" {
		sslMode = "disable"
	}
	host := strings.TrimSpace(c.DBHost)
	if port := strings.TrimSpace(c.DBPort); port != "" {
		host = net.JoinHostPort(host, port)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(strings.TrimSpace(c.DBUser), c.DBPassword),
		Host:   host,
		Path:   "/" + strings.TrimSpace(c.DBName),
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Channel  string
}

type JWTConfig struct {
	AccessSecret    string
	AccessExpiresIn time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type WSConfig struct {
	SendBuffer int
	PingPeriod time.Duration
	WriteWait  time.Duration
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

func Load() (Config, error) {
	cfg := Config{}

	var missing, invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}
	optInt := func(key string, def int) int {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optBool := func(key string, def bool) bool {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return def
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return def
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
		InstanceID:  opt("INSTANCE_ID", ""),
	}

	cfg.Database = DatabaseConfig{
		StoreDriver:         strings.ToLower(opt("STORE_DRIVER", StoreDriverPostgres)),
		SkillSeedFile:       opt("SKILL_SEED_FILE", ""),
		AutoMigrate:         optBool("DB_AUTO_MIGRATE", true),
		DBHost:              opt("DB_HOST", "localhost"),
		DBPort:              opt("DB_PORT", "5432"),
		DBName:              opt("DB_NAME", ""),
		DBUser:              opt("DB_USER", ""),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBSSLMode:           opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:      optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:        int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:        int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime: optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime: optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		SlowQueryThreshold:  optDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
	}
	switch cfg.Database.StoreDriver {
	case StoreDriverPostgres:
		if cfg.Database.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if cfg.Database.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
	case StoreDriverMemory:
	default:
		invalid = append(invalid, "STORE_DRIVER")
	}

	cfg.Redis = RedisConfig{
		Enabled:  optBool("REDIS_ENABLED", false),
		Addr:     opt("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
		Channel:  opt("NOTIFY_CHANNEL", "skillswap:notifications"),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:    req("JWT_ACCESS_SECRET"),
		AccessExpiresIn: optDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  opt("LOG_LEVEL", "info"),
		Format: opt("LOG_FORMAT", "json"),
	}

	cfg.WS = WSConfig{
		SendBuffer: optInt("WS_SEND_BUFFER", 32),
		PingPeriod: optDuration("WS_PING_PERIOD", 50*time.Second),
		WriteWait:  optDuration("WS_WRITE_WAIT", 10*time.Second),
	}
	if cfg.WS.SendBuffer <= 0 {
		invalid = append(invalid, "WS_SEND_BUFFER")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}
