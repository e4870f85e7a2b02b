package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	AppURL      string `env:"SHOPIFY_APP_URL"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://dev.db"`

	// base64 of a 32 byte key; access tokens are stored in plain text when empty
	TokenEncKeyB64 string `env:"TOKEN_ENC_KEY_B64"`

	Shopify Shopify `envPrefix:"SHOPIFY_"`
}

type Shopify struct {
	APIKey     string `env:"API_KEY"`
	APISecret  string `env:"API_SECRET"`
	Scopes     string `env:"SCOPES" envDefault:"write_discounts"`
	APIVersion string `env:"API_VERSION" envDefault:"2025-01"`

	// AdminBaseURL replaces https://<shop> for Admin API calls (local tunnels, tests).
	AdminBaseURL   string        `env:"ADMIN_BASE_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
