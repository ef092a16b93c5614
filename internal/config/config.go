package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	RegistryURL    string `toml:"registry_url" yaml:"registry_url" json:"registry_url"`
	RegistryAPIKey string `toml:"registry_api_key" yaml:"registry_api_key" json:"registry_api_key"`
	DataDir        string `toml:"data_dir" yaml:"data_dir" json:"data_dir"`
	DBPath         string `toml:"db_path" yaml:"db_path" json:"db_path"`
	ServerPort     string `toml:"server_port" yaml:"server_port" json:"server_port"`
	LogLevel       string `toml:"log_level" yaml:"log_level" json:"log_level"`
}

// Remote is the registry endpoint and key for one call.
type Remote struct {
	URL    string
	APIKey string
}

func defaults() *Config {
	return &Config{
		DataDir:    "data",
		ServerPort: "8080",
		LogLevel:   "info",
	}
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := defaults()
	if path := os.Getenv("LEADERBOARD_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", path).Msg("config file loaded")
	}

	cfg.RegistryURL = getEnv("REGISTRY_URL", cfg.RegistryURL)
	cfg.RegistryAPIKey = getEnv("REGISTRY_API_KEY", cfg.RegistryAPIKey)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "daily-journal.db")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	logger.Info().
		Str("data_dir", cfg.DataDir).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("registry_configured", cfg.DefaultRemote() != nil).
		Msg("configuration loaded")

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// NormalizeRemote trims both values; if either is empty the registry is disabled.
func NormalizeRemote(url, apiKey string) *Remote {
	url = strings.TrimSpace(url)
	apiKey = strings.TrimSpace(apiKey)
	if url == "" || apiKey == "" {
		return nil
	}
	return &Remote{URL: url, APIKey: apiKey}
}

func (c *Config) DefaultRemote() *Remote {
	return NormalizeRemote(c.RegistryURL, c.RegistryAPIKey)
}

// ResolveRemote prefers per-call values and falls back to the configured ones.
func (c *Config) ResolveRemote(url, apiKey string) *Remote {
	if r := NormalizeRemote(url, apiKey); r != nil {
		return r
	}
	return c.DefaultRemote()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
