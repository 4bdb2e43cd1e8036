package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	CredentialBackendMemory = "memory"
	CredentialBackendFile   = "file"
	CredentialBackendRedis  = "redis"
)

type Config struct {
	Env           string              `yaml:"env"`
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Credentials   CredentialsConfig   `yaml:"credentials"`
	Routes        RoutesConfig        `yaml:"routes"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type ServerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type CredentialsConfig struct {
	Backend string      `yaml:"backend"`
	File    FileConfig  `yaml:"file"`
	Redis   RedisConfig `yaml:"redis"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

type RoutesConfig struct {
	Login string `yaml:"login"`
	Home  string `yaml:"home"`
}

// NotificationsConfig overrides the default display durations per severity.
// A zero value keeps the built-in default; persistence is chosen per
// notification, not here.
type NotificationsConfig struct {
	Success      time.Duration `yaml:"success"`
	Error        time.Duration `yaml:"error"`
	Warning      time.Duration `yaml:"warning"`
	Info         time.Duration `yaml:"info"`
	NetworkError time.Duration `yaml:"network_error"`
}

func Default() Config {
	return Config{
		Env: "dev",
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Credentials: CredentialsConfig{
			Backend: CredentialBackendFile,
			File: FileConfig{
				Path: defaultTokenPath(),
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
				DB:   0,
				Key:  "accountkit:token",
			},
		},
		Routes: RoutesConfig{
			Login: "/login",
			Home:  "/dashboard",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	fallbackTokenPath := cfg.Credentials.File.Path
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	// An empty or omitted file path means "keep the default", so a config
	// file can select the file backend without hardcoding a home directory.
	if cfg.Credentials.File.Path == "" {
		cfg.Credentials.File.Path = fallbackTokenPath
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("SERVER_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("SERVER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_TIMEOUT: %w", err)
		}
		cfg.Server.Timeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CREDENTIALS_BACKEND"); v != "" {
		cfg.Credentials.Backend = v
	}
	if v := os.Getenv("TOKEN_FILE"); v != "" {
		cfg.Credentials.File.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Credentials.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Credentials.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.Credentials.Redis.DB = db
	}
	if v := os.Getenv("REDIS_KEY"); v != "" {
		cfg.Credentials.Redis.Key = v
	}

	return nil
}

func validate(cfg Config) error {
	switch cfg.Credentials.Backend {
	case CredentialBackendMemory, CredentialBackendFile, CredentialBackendRedis:
	default:
		return fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if cfg.Credentials.Backend == CredentialBackendFile && cfg.Credentials.File.Path == "" {
		return fmt.Errorf("credentials.file.path is required for the file backend")
	}
	return nil
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".accountkit", "token")
	}
	return filepath.Join(home, ".accountkit", "token")
}
