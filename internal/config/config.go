package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	MountPath string `mapstructure:"mount_path"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	LogLevel     string `mapstructure:"log_level"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type AuthConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenExpiration time.Duration `mapstructure:"token_expiration"`
	// Roles admitted to mutating routes; empty admits any authenticated user.
	Roles []string `mapstructure:"roles"`
}

type AdminConfig struct {
	DefinitionsFile string `mapstructure:"definitions_file"`
	MaxPageSize     int    `mapstructure:"max_page_size"`
	Renderer        string `mapstructure:"renderer"`
	TemplatesGlob   string `mapstructure:"templates_glob"`
}

type AuditConfig struct {
	Log          bool          `mapstructure:"log"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mount_path", "/admin")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "padmin.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiration", 24*time.Hour)
	v.SetDefault("auth.roles", []string{})

	v.SetDefault("admin.definitions_file", "entities.yaml")
	v.SetDefault("admin.max_page_size", 100)
	v.SetDefault("admin.renderer", "json")
	v.SetDefault("admin.templates_glob", "templates/*.html")

	v.SetDefault("audit.log", true)
	v.SetDefault("audit.brokers", []string{})
	v.SetDefault("audit.topic", "padmin.audit")
	v.SetDefault("audit.write_timeout", 5*time.Second)
}

// LoadConfig reads path, or config.yaml from the working directory when path
// is empty. PADMIN_* environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	if c.Admin.MaxPageSize <= 0 {
		return fmt.Errorf("admin.max_page_size must be positive")
	}
	switch c.Admin.Renderer {
	case "json", "html":
	default:
		return fmt.Errorf("unsupported renderer: %s", c.Admin.Renderer)
	}
	if len(c.Audit.Brokers) > 0 && c.Audit.Topic == "" {
		return fmt.Errorf("audit.topic is required when brokers are configured")
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
