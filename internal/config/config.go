package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr              string        `mapstructure:"http_addr" yaml:"http_addr"`
	DataFilePath          string        `mapstructure:"data_file_path" yaml:"data_file_path"`
	ProviderTimeout       time.Duration `mapstructure:"provider_timeout" yaml:"provider_timeout"`
	ProviderCacheTTL      time.Duration `mapstructure:"provider_cache_ttl" yaml:"provider_cache_ttl"`
	AllowedCORSOrigin     string        `mapstructure:"allowed_cors_origin" yaml:"allowed_cors_origin"`
	ServeFrontendFromDist bool          `mapstructure:"serve_frontend_from_dist" yaml:"serve_frontend_from_dist"`
	FrontendDistDirectory string        `mapstructure:"frontend_dist_directory" yaml:"frontend_dist_directory"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("STATUSKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, unless explicitly specified
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DataFilePath == "" {
		cfg.DataFilePath = "data/sites.json"
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.ProviderCacheTTL == 0 {
		cfg.ProviderCacheTTL = 30 * time.Second
	}

	return &cfg, nil
}
