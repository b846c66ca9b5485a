package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Buyer bot
	BuyerToken string
	BuyerName  string

	// Language model
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	BuyerModel        string
	SellerModel       string

	// Negotiation
	MaxRounds      int
	RoundDelay     time.Duration
	OpeningDelay   time.Duration
	SessionTTL     time.Duration
	TriggerPhrases []string

	// Sellers
	RosterPath string
	Sellers    []Seller

	// Database
	DatabaseURL string

	// Discord OAuth2
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Post-deal
	DealWebhookURL string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		BuyerToken:          os.Getenv("BUYER_DISCORD_TOKEN"),
		BuyerName:           getEnvDefault("BUYER_NAME", "ClawBot"),
		OpenRouterAPIKey:    os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:   getEnvDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		BuyerModel:          getEnvDefault("BUYER_MODEL", "anthropic/claude-3.5-haiku"),
		SellerModel:         getEnvDefault("SELLER_MODEL", "meta-llama/llama-3.1-8b-instruct:free"),
		TriggerPhrases:      splitList(getEnvDefault("TRIGGER_PHRASES", "find me,deal on,negotiate,best price,get me")),
		RosterPath:          getEnvDefault("SELLER_ROSTER", "sellers.yaml"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		DealWebhookURL:      os.Getenv("DEAL_WEBHOOK_URL"),
	}

	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	var err error
	if cfg.MaxRounds, err = getEnvInt("MAX_ROUNDS", 4); err != nil {
		return nil, err
	}
	if cfg.MaxRounds < 1 {
		return nil, fmt.Errorf("MAX_ROUNDS must be at least 1")
	}
	if cfg.RoundDelay, err = getEnvDuration("ROUND_DELAY", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.OpeningDelay, err = getEnvDuration("OPENING_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", time.Hour); err != nil {
		return nil, err
	}

	if cfg.Sellers, err = LoadRoster(cfg.RosterPath); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireBuyer checks what the buyer bot needs to run.
func (c *Config) RequireBuyer() error {
	if c.BuyerToken == "" {
		return fmt.Errorf("BUYER_DISCORD_TOKEN is required")
	}
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	return nil
}

func (c *Config) RequireSellers() error {
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	for _, s := range c.Sellers {
		if s.Token == "" {
			return fmt.Errorf("%s is required for seller %s", s.TokenEnv, s.Name)
		}
	}
	return nil
}

func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func (c *Config) RequireAPI() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.DiscordClientID == "" {
		return fmt.Errorf("DISCORD_CLIENT_ID is required")
	}
	if c.DiscordClientSecret == "" {
		return fmt.Errorf("DISCORD_CLIENT_SECRET is required")
	}
	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 3s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
