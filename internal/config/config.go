package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string `yaml:"port"`
	DBDSN         string `yaml:"db_dsn"`
	LogFile       string `yaml:"log_file"`
	BackendURL    string `yaml:"backend_url"`
	StoreWhatsApp string `yaml:"store_whatsapp"`
	GenAIKey      string `yaml:"genai_api_key"`
	GenAIModel    string `yaml:"genai_model"`
	CartStore     string `yaml:"cart_store"` // sqlite | redis
	RedisAddr     string `yaml:"redis_addr"`
	SecretKey     string `yaml:"secret_key"`
}

// Load reads the optional YAML file named by WHATSSTORE_CONFIG, then applies
// environment overrides and defaults.
func Load() (Config, error) {
	var cfg Config
	if path := os.Getenv("WHATSSTORE_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	env(&cfg.Port, "PORT", "8080")
	env(&cfg.DBDSN, "DB_DSN", "whatsstore.db") // sqlite file in project root
	env(&cfg.LogFile, "LOG_FILE", "./whatsstore.log")
	env(&cfg.BackendURL, "BACKEND_URL", "")
	env(&cfg.StoreWhatsApp, "STORE_WHATSAPP", "1234567890")
	env(&cfg.GenAIKey, "GENAI_API_KEY", "")
	env(&cfg.GenAIModel, "GENAI_MODEL", "gemini-flash-lite-latest")
	env(&cfg.CartStore, "CART_STORE", "sqlite")
	env(&cfg.RedisAddr, "REDIS_ADDR", "localhost:6379")
	env(&cfg.SecretKey, "SECRET_KEY", "")

	if cfg.CartStore != "sqlite" && cfg.CartStore != "redis" {
		return Config{}, fmt.Errorf("config: CART_STORE must be sqlite or redis, got %q", cfg.CartStore)
	}

	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s BACKEND_URL=%s CART_STORE=%s AI=%t",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.BackendURL, cfg.CartStore, cfg.GenAIKey != "")
	return cfg, nil
}

// env sets *dst from the environment when present, else fills def if *dst is empty.
func env(dst *string, key, def string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
		return
	}
	if *dst == "" {
		*dst = def
	}
}
