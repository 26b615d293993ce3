package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret       string `yaml:"jwt_secret"`
		RequireVerified bool   `yaml:"require_verified"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	App struct {
		URL string `yaml:"url"` // frontend base URL used in verification links
	} `yaml:"app"`
	Admin struct {
		Username string `yaml:"username"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	Sweeper struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"sweeper"`
}

// Load reads the YAML config file (if present) and applies environment
// variable overrides and defaults on top of it.
func Load() (*Config, error) {
	var cfg Config

	path := getEnv("CONFIG_PATH", "config/config.yaml")
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, err
		}
	}

	if portStr, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, err
		}
		cfg.Server.Port = port
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}

	cfg.Database.Path = getEnv("DATABASE_PATH", withDefault(cfg.Database.Path, "./librarium.db"))
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", withDefault(cfg.Auth.JWTSecret, "secret"))
	if v, ok := os.LookupEnv("REQUIRE_VERIFIED"); ok {
		cfg.Auth.RequireVerified = v == "true" || v == "1"
	}

	cfg.Email.SMTPHost = getEnv("SMTP_HOST", cfg.Email.SMTPHost)
	if portStr, ok := os.LookupEnv("SMTP_PORT"); ok {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, err
		}
		cfg.Email.SMTPPort = port
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	cfg.Email.SMTPUser = getEnv("SMTP_USER", cfg.Email.SMTPUser)
	cfg.Email.SMTPPassword = getEnv("SMTP_PASS", cfg.Email.SMTPPassword)
	cfg.Email.FromEmail = getEnv("EMAIL_FROM", withDefault(cfg.Email.FromEmail, "no-reply@digitallibrary.local"))

	cfg.App.URL = getEnv("APP_URL", withDefault(cfg.App.URL, "http://localhost:5500"))

	cfg.Admin.Username = getEnv("ADMIN_USER", withDefault(cfg.Admin.Username, "admin"))
	cfg.Admin.Email = getEnv("ADMIN_EMAIL", withDefault(cfg.Admin.Email, "admin@digitallibrary.local"))
	cfg.Admin.Password = getEnv("ADMIN_PASS", withDefault(cfg.Admin.Password, "Admin123!"))

	cfg.Sweeper.Schedule = getEnv("SWEEPER_SCHEDULE", withDefault(cfg.Sweeper.Schedule, "@hourly"))

	return &cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
