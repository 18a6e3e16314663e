package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	IOPs     []IOPConfig    `mapstructure:"iops"`
	Boards   BoardsConfig   `mapstructure:"boards"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
}

// CatalogConfig lists directories holding capability module manifests. The
// built-in catalog is searched after them.
type CatalogConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

type IOPConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
}

type BoardsConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver"` // none, postgres, sqlite
	SQLitePath string `mapstructure:"sqlite_path"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	// OGC_SERVER_HTTP_PORT overrides server.http_port
	v.SetEnvPrefix("OGC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)

	v.SetDefault("storage.driver", "none")
	v.SetDefault("storage.sqlite_path", "opengrove.db")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_connections", 10)
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.IOPs))
	for i, iop := range c.IOPs {
		if iop.Name == "" {
			return fmt.Errorf("iops[%d]: name is required", i)
		}
		if seen[iop.Name] {
			return fmt.Errorf("iops[%d]: duplicate IOP %q", i, iop.Name)
		}
		seen[iop.Name] = true
		if iop.Driver != "" && iop.Driver != "sim" {
			return fmt.Errorf("iops[%d]: unsupported driver %q", i, iop.Driver)
		}
	}

	switch c.Storage.Driver {
	case "", "none", "postgres", "sqlite":
	default:
		return fmt.Errorf("storage: unsupported driver %q", c.Storage.Driver)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}
