package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	AppPort  string `yaml:"app_port"`
	LogLevel string `yaml:"log_level"`

	// StoreDriver selects the Persisted Store backend.
	StoreDriver string `yaml:"store_driver"`

	MySQLHost string `yaml:"mysql_host"`
	MySQLPort string `yaml:"mysql_port"`
	MySQLDB   string `yaml:"mysql_db"`
	MySQLUser string `yaml:"mysql_user"`
	MySQLPass string `yaml:"mysql_pass"`

	SQLitePath string `yaml:"sqlite_path"`

	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`

	// IdempTTLSecs of 0 disables the idempotency middleware.
	IdempTTLSecs int `yaml:"idempotency_ttl_seconds"`
}

func defaults() *Config {
	return &Config{
		AppPort:      "8080",
		LogLevel:     "info",
		StoreDriver:  DriverMySQL,
		MySQLHost:    "mysql",
		MySQLPort:    "3306",
		MySQLDB:      "loanledger",
		MySQLUser:    "loanledger",
		MySQLPass:    "loanledger",
		SQLitePath:   "loanledger.db",
		RedisAddr:    "redis:6379",
		IdempTTLSecs: 300,
	}
}

// Load starts from defaults, applies the YAML file named by CONFIG_FILE when
// set, then lets environment variables override both.
func Load() (*Config, error) {
	c := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func setenv(dst *string, k string) {
	if v := os.Getenv(k); v != "" {
		*dst = v
	}
}

func setenvInt(dst *int, k string) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	*dst = n
	return nil
}

func (c *Config) applyEnv() error {
	setenv(&c.AppPort, "APP_PORT")
	setenv(&c.LogLevel, "LOG_LEVEL")
	setenv(&c.StoreDriver, "STORE_DRIVER")
	setenv(&c.MySQLHost, "MYSQL_HOST")
	setenv(&c.MySQLPort, "MYSQL_PORT")
	setenv(&c.MySQLDB, "MYSQL_DB")
	setenv(&c.MySQLUser, "MYSQL_USER")
	setenv(&c.MySQLPass, "MYSQL_PASS")
	setenv(&c.SQLitePath, "SQLITE_PATH")
	setenv(&c.RedisAddr, "REDIS_ADDR")
	if err := setenvInt(&c.RedisDB, "REDIS_DB"); err != nil {
		return err
	}
	return setenvInt(&c.IdempTTLSecs, "IDEMPOTENCY_TTL_SECONDS")
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.IdempTTLSecs < 0 {
		return fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS %d", c.IdempTTLSecs)
	}
	if c.IdempTTLSecs > 0 && c.RedisAddr == "" {
		return errors.New("idempotency needs REDIS_ADDR")
	}
	switch c.StoreDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("missing REDIS_ADDR")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (mysql, sqlite, redis, memory)", c.StoreDriver)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the gorm data source for the sql drivers.
func (c *Config) DSN() string {
	if c.StoreDriver == DriverSQLite {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}
