package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		CORSOrigins []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		Seed            bool   `yaml:"seed" env:"DB_SEED"`
		DemoStudents    int    `yaml:"demo_students" env:"DB_DEMO_STUDENTS"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
		CookieName            string `yaml:"cookie_name" env:"JWT_COOKIE_NAME"`
		CookieSecure          bool   `yaml:"cookie_secure" env:"JWT_COOKIE_SECURE"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Redis struct {
		Enabled     bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr        string `yaml:"addr" env:"REDIS_ADDR"`
		Password    string `yaml:"password" env:"REDIS_PASSWORD"`
		DB          int    `yaml:"db" env:"REDIS_DB"`
		DropdownTTL string `yaml:"dropdown_ttl" env:"REDIS_DROPDOWN_TTL"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled bool   `yaml:"enabled" env:"KAFKA_ENABLED"`
		Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
		Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
	} `yaml:"kafka"`

	Pagination struct {
		CollegesPerPage int `yaml:"colleges_per_page" env:"PAGINATION_COLLEGES_PER_PAGE"`
		ProgramsPerPage int `yaml:"programs_per_page" env:"PAGINATION_PROGRAMS_PER_PAGE"`
		StudentsPerPage int `yaml:"students_per_page" env:"PAGINATION_STUDENTS_PER_PAGE"`
		MaxPerPage      int `yaml:"max_per_page" env:"PAGINATION_MAX_PER_PAGE"`
	} `yaml:"pagination"`
}

// LoadConfig loads configuration from a file and environment variables.
// A .env file in the working directory, when present, is applied to the
// process environment first.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	// Load default config with sane defaults
	config := &Config{}
	SetDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := applyEnv(config, osLookup); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SetDefaults sets default values for the configuration
func SetDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "./uploads"
	config.Server.CORSOrigins = []string{"http://localhost:5173"}

	// Database defaults
	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "ssis"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.Seed = true
	config.Database.DemoStudents = 0

	// JWT defaults
	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "ssis.app"
	config.JWT.CookieName = "access_token"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Redis defaults
	config.Redis.Addr = "localhost:6379"
	config.Redis.DropdownTTL = "10m"

	// Kafka defaults
	config.Kafka.Brokers = []string{"localhost:9092"}
	config.Kafka.Topic = "ssis.mutations"

	// Pagination defaults
	config.Pagination.CollegesPerPage = 15
	config.Pagination.ProgramsPerPage = 15
	config.Pagination.StudentsPerPage = 10
	config.Pagination.MaxPerPage = 100
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverMemory:
	case "":
		return fmt.Errorf("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if config.JWT.CookieName == "" {
		return fmt.Errorf("JWT cookie name is required")
	}

	// Validate duration formats
	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}
	if config.Redis.Enabled {
		if _, err := time.ParseDuration(config.Redis.DropdownTTL); err != nil {
			return fmt.Errorf("invalid redis dropdown ttl format: %w", err)
		}
	}

	if config.Kafka.Enabled && (len(config.Kafka.Brokers) == 0 || config.Kafka.Topic == "") {
		return fmt.Errorf("kafka brokers and topic are required when kafka is enabled")
	}

	p := config.Pagination
	if p.CollegesPerPage <= 0 || p.ProgramsPerPage <= 0 || p.StudentsPerPage <= 0 || p.MaxPerPage <= 0 {
		return fmt.Errorf("pagination sizes must be positive")
	}

	return nil
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
