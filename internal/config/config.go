package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port          string `env:"PORT" envDefault:"8080"`
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	BaseURL       string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	PublicSiteURL string `env:"PUBLIC_SITE_URL" envDefault:"http://localhost:3000"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// StoreOwnerID is the profile whose shelf is the storefront.
	StoreOwnerID string `env:"STORE_OWNER_ID"`

	// AdminEmail receives new order notifications.
	AdminEmail string `env:"ADMIN_EMAIL"`

	Log      Log      `envPrefix:"LOG_"`
	Supabase Supabase `envPrefix:"SUPABASE_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Resend   Resend   `envPrefix:"RESEND_"`
	RemoveBG RemoveBG `envPrefix:"REMOVEBG_"`
	Shippo   Shippo   `envPrefix:"SHIPPO_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	RabbitMQ RabbitMQ `envPrefix:"RABBITMQ_"`
}

type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type Supabase struct {
	URL            string `env:"URL"`
	PublishableKey string `env:"PUBLISHABLE_KEY"`
	ServiceRoleKey string `env:"SERVICE_ROLE_KEY"`
	JWTSecret      string `env:"JWT_SECRET"`
	StorageBucket  string `env:"STORAGE_BUCKET" envDefault:"fragrance-images"`
}

type Stripe struct {
	SecretKey         string   `env:"SECRET_KEY"`
	WebhookSecret     string   `env:"WEBHOOK_SECRET"`
	Currency          string   `env:"CURRENCY" envDefault:"usd"`
	ShippingFlatCents int64    `env:"SHIPPING_FLAT_CENTS" envDefault:"500"`
	AllowedCountries  []string `env:"ALLOWED_COUNTRIES" envSeparator:"," envDefault:"US"`
}

type Resend struct {
	APIKey string `env:"API_KEY"`
	From   string `env:"FROM" envDefault:"Decant Boutique <orders@example.com>"`
}

type RemoveBG struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL" envDefault:"https://api.remove.bg/v1.0"`
}

type Shippo struct {
	APIKey         string `env:"API_KEY"`
	BaseURL        string `env:"BASE_URL" envDefault:"https://api.goshippo.com"`
	WebhookToken   string `env:"WEBHOOK_TOKEN"`
	FromAddressID  string `env:"FROM_ADDRESS_ID"`
	ParcelTemplate string `env:"PARCEL_TEMPLATE" envDefault:"USPS_SmallFlatRateBox"`
}

type Redis struct {
	URL            string `env:"URL"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST" envDefault:"20"`
	RateLimitEvery int    `env:"RATE_LIMIT_REFILL_SECONDS" envDefault:"3"`
}

type RabbitMQ struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"storefront.events"`
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.Stripe.Currency = strings.ToLower(cfg.Stripe.Currency)
	cfg.PublicSiteURL = strings.TrimSuffix(cfg.PublicSiteURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.Stripe.ShippingFlatCents < 0 {
		return fmt.Errorf("STRIPE_SHIPPING_FLAT_CENTS must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
