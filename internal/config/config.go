package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "ESAT"

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverSQLite = "sqlite"
)

type Config struct {
	Addr              string        `mapstructure:"addr"`
	APIURL            string        `mapstructure:"api_url"`
	APIToken          string        `mapstructure:"api_token"`
	StorageURL        string        `mapstructure:"storage_url"`
	RevalidationToken string        `mapstructure:"revalidation_token"`
	AdminJWTSecret    string        `mapstructure:"admin_jwt_secret"`
	CacheDriver       string        `mapstructure:"cache_driver"`
	SQLitePath        string        `mapstructure:"sqlite_path"`
	PageCacheTTL      time.Duration `mapstructure:"page_cache_ttl"`
	PageCacheMaxPages int           `mapstructure:"page_cache_max_pages"`
	HomeDataTTL       time.Duration `mapstructure:"home_data_ttl"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	Dev               bool          `mapstructure:"dev"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// legacyEnv maps config keys to the unprefixed variable names the CMS and
// older deployments already set.
var legacyEnv = map[string][]string{
	"api_url":            {"NEXT_PUBLIC_API_URL"},
	"api_token":          {"CMS_API_TOKEN"},
	"storage_url":        {"NEXT_PUBLIC_STORAGE_URL"},
	"revalidation_token": {"REVALIDATION_TOKEN"},
	"admin_jwt_secret":   {"ADMIN_JWT_SECRET"},
	"cache_driver":       {"CACHE_DRIVER"},
	"sqlite_path":        {"SQLITE_DB_PATH"},
	"dev":                {"SITE_DEV"},
}

// Load reads .env (if any), then config.yaml (if any, or the file at path),
// then the environment. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("addr", ":3000")
	v.SetDefault("api_url", "http://localhost:8000/api/v1")
	v.SetDefault("api_token", "")
	v.SetDefault("storage_url", "http://localhost:8000/storage")
	v.SetDefault("revalidation_token", "")
	v.SetDefault("admin_jwt_secret", "")
	v.SetDefault("cache_driver", CacheDriverMemory)
	v.SetDefault("sqlite_path", "./esat-cache.db")
	v.SetDefault("page_cache_ttl", 60*time.Second)
	v.SetDefault("page_cache_max_pages", 1000)
	v.SetDefault("home_data_ttl", 5*time.Minute)
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("dev", false)
	v.SetDefault("shutdown_timeout", 5*time.Second)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, names := range legacyEnv {
		args := append([]string{key, envPrefix + "_" + strings.ToUpper(key)}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug().Msg("No config file found, using defaults and environment")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("Using config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.CacheDriver {
	case CacheDriverMemory, CacheDriverSQLite:
	default:
		return fmt.Errorf("unknown cache driver %q", c.CacheDriver)
	}

	if c.PageCacheTTL < 0 || c.HomeDataTTL < 0 || c.HTTPTimeout < 0 {
		return errors.New("durations must not be negative")
	}

	if c.PageCacheMaxPages < 0 {
		return errors.New("page cache size must not be negative")
	}

	return nil
}
