package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig selects the storage backend and how to reach it.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres mongo"`
	URL    string `mapstructure:"url" validate:"required,url"`
	// Name is the MongoDB database name. Postgres takes the database from URL.
	Name string `mapstructure:"name" validate:"required_if=Driver mongo"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	// CookieSecure marks the access token cookie Secure. Disable only for plain-HTTP local development.
	CookieSecure bool `mapstructure:"cookie_secure"`
}

// CORSConfig lists the browser origins allowed to call the API with credentials.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,required"`
}
