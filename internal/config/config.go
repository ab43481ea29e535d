package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver      string
	DBDSN         string
	ServerPort    string
	SessionSecret string
	AppEnv        string
	LogLevel      string
	AuditEnabled  bool
	SeedDemo      bool

	// путь к YAML с настройками полей админки, необязательный
	AdminConfigPath string
	Admin           AdminOverrides
}

// AdminOverrides хранит настройки моделей поверх встроенного каталога.
type AdminOverrides struct {
	Models map[string]ModelOverride `yaml:"models"`
}

type ModelOverride struct {
	Label       string                   `yaml:"label"`
	PluralLabel string                   `yaml:"plural_label"`
	TitleField  string                   `yaml:"title_field"`
	Fields      map[string]FieldOverride `yaml:"fields"`
}

type FieldOverride struct {
	// string, text, integer, serialized
	Type       string `yaml:"type"`
	Label      string `yaml:"label"`
	Hidden     bool   `yaml:"hidden"`
	Serializer string `yaml:"serializer"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:        os.Getenv("DB_DRIVER"),
		DBDSN:           os.Getenv("DB_DSN"),
		ServerPort:      os.Getenv("SERVER_PORT"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		AppEnv:          os.Getenv("APP_ENV"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		AdminConfigPath: os.Getenv("ADMIN_CONFIG"),
	}

	if cfg.DBDriver == "" {
		cfg.DBDriver = "postgres"
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "production"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	var err error
	if cfg.AuditEnabled, err = envBool("AUDIT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.SeedDemo, err = envBool("SEED_DEMO", false); err != nil {
		return nil, err
	}

	if cfg.AdminConfigPath != "" {
		admin, err := LoadAdminOverrides(cfg.AdminConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Admin = *admin
	}

	return cfg, nil
}

func LoadAdminOverrides(path string) (*AdminOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin config: %w", err)
	}
	return ParseAdminOverrides(data)
}

func ParseAdminOverrides(data []byte) (*AdminOverrides, error) {
	var out AdminOverrides
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse admin config: %w", err)
	}
	for model, mo := range out.Models {
		for field, fo := range mo.Fields {
			switch strings.ToLower(fo.Type) {
			case "", "string", "text", "integer", "serialized":
			default:
				return nil, fmt.Errorf("admin config: %s.%s: unknown type %q", model, field, fo.Type)
			}
		}
	}
	return &out, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}
