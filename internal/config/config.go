package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port          string   `yaml:"port" env:"SERVER_PORT"`
		Mode          string   `yaml:"mode" env:"SERVER_MODE"`
		StaticDir     string   `yaml:"static_dir" env:"SERVER_STATIC_DIR"`
		CORSOrigins   string   `yaml:"cors_origins" env:"CORS_ORIGIN"`
		JSONBodyLimit ByteSize `yaml:"json_body_limit" env:"SERVER_JSON_BODY_LIMIT"`
		FormBodyLimit ByteSize `yaml:"form_body_limit" env:"SERVER_FORM_BODY_LIMIT"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"ACCESS_TOKEN_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"ACCESS_TOKEN_EXPIRY"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Cookie struct {
		Secure   bool   `yaml:"secure" env:"COOKIE_SECURE"`
		SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE"`
		Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
	} `yaml:"cookie"`

	Security struct {
		BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	} `yaml:"security"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Seed struct {
		Enabled  bool   `yaml:"enabled" env:"SEED_ENABLED"`
		Email    string `yaml:"email" env:"SEED_EMAIL"`
		Password string `yaml:"password" env:"SEED_PASSWORD"`
		Usn      string `yaml:"usn" env:"SEED_USN"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables.
// Precedence, lowest first: defaults, YAML file, .env file, process environment.
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// godotenv.Load never overrides variables that are already set.
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8000"
	config.Server.Mode = "development"
	config.Server.StaticDir = "public"
	config.Server.CORSOrigins = "http://localhost:3000"
	config.Server.JSONBodyLimit = 100 << 10
	config.Server.FormBodyLimit = 16 << 10

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "students"
	config.Database.SSLMode = "disable"
	config.Database.SQLitePath = "students.db"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "studentauth"

	config.Cookie.Secure = true
	config.Cookie.SameSite = "lax"

	config.Security.BcryptCost = 12

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	d, err := time.ParseDuration(config.JWT.AccessTokenExpiration)
	if err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("JWT access token expiration must be positive")
	}

	if config.Server.FormBodyLimit <= 0 || config.Server.JSONBodyLimit <= 0 {
		return fmt.Errorf("body limits must be positive")
	}

	if _, ok := sameSiteModes[strings.ToLower(config.Cookie.SameSite)]; !ok {
		return fmt.Errorf("invalid cookie same_site %q", config.Cookie.SameSite)
	}

	if config.Seed.Enabled && (config.Seed.Email == "" || config.Seed.Password == "") {
		return fmt.Errorf("seed email and password are required when seeding is enabled")
	}

	return nil
}

var sameSiteModes = map[string]http.SameSite{
	"default": http.SameSiteDefaultMode,
	"lax":     http.SameSiteLaxMode,
	"strict":  http.SameSiteStrictMode,
	"none":    http.SameSiteNoneMode,
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// AccessTokenTTL returns the parsed access token lifetime. validateConfig guarantees it parses.
func (c *Config) AccessTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTokenExpiration)
	return d
}

// CookieSameSite returns the configured SameSite mode for the access token cookie
func (c *Config) CookieSameSite() http.SameSite {
	return sameSiteModes[strings.ToLower(c.Cookie.SameSite)]
}

// CORSOriginList splits the comma separated origin list
func (c *Config) CORSOriginList() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Server.Mode) {
	case "production", "release":
		return true
	}
	return false
}
