package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. TASKLY_DATABASE_URL for database.url.
const EnvPrefix = "TASKLY"

// envKeys lists every configuration key that can be set from the environment.
var envKeys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout_seconds",
	"database.driver",
	"database.url",
	"database.name",
	"auth.jwt_secret",
	"auth.bcrypt_cost",
	"auth.token_lifetime_minutes",
	"auth.refresh_token_lifetime_minutes",
	"auth.cookie_secure",
	"cors.allowed_origins",
}

// Load reads configuration from defaults, an optional config.yaml in the working
// directory, an optional .env file and TASKLY_* environment variables, in increasing
// order of precedence. The result is validated before it is returned.
func Load() (*Config, error) {
	// Variables already present in the environment win over the .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.name", "taskly")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not make Unmarshal see keys without a default.
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
