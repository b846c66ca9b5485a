package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ritzzi23/clawfin/internal/pricing"
	"gopkg.in/yaml.v3"
)

// Seller is one roster entry: a seller bot's identity and negotiating personality.
type Seller struct {
	Name            string   `yaml:"name"`
	StrategyName    string   `yaml:"strategy"`
	Style           string   `yaml:"style"`
	TokenEnv        string   `yaml:"token_env"`
	FloorMultiplier float64  `yaml:"floor_multiplier"`
	BundleItems     []string `yaml:"bundle_items"`

	Strategy pricing.Strategy `yaml:"-"`
	Token    string           `yaml:"-"`
}

type rosterFile struct {
	Sellers []Seller `yaml:"sellers"`
}

// DefaultRoster is used when no roster file exists.
func DefaultRoster() []Seller {
	return []Seller{
		{Name: "DealDasher", StrategyName: "discounter", Style: "enthusiastic", FloorMultiplier: 0.75},
		{
			Name:            "BundleKing",
			StrategyName:    "bundler",
			Style:           "very_sweet",
			FloorMultiplier: 0.85,
			BundleItems:     []string{"carrying case", "2-year warranty", "USB-C cable", "cleaning kit"},
		},
		{Name: "PremiumHub", StrategyName: "firm", Style: "professional", FloorMultiplier: 0.95},
		{Name: "FlashDeals", StrategyName: "urgency", Style: "casual", FloorMultiplier: 0.78},
	}
}

// LoadRoster reads the seller roster from path, falling back to DefaultRoster
// when the file does not exist. Tokens are resolved from each seller's token_env.
func LoadRoster(path string) ([]Seller, error) {
	sellers := DefaultRoster()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read seller roster: %w", err)
	default:
		var f rosterFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse seller roster %s: %w", path, err)
		}
		sellers = f.Sellers
	}
	return resolveRoster(sellers)
}

func resolveRoster(sellers []Seller) ([]Seller, error) {
	if len(sellers) == 0 {
		return nil, fmt.Errorf("seller roster is empty")
	}
	seen := make(map[string]bool, len(sellers))
	for i := range sellers {
		s := &sellers[i]
		if s.Name == "" {
			return nil, fmt.Errorf("seller %d has no name", i+1)
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate seller name %q", s.Name)
		}
		seen[key] = true

		strategy, err := pricing.Parse(s.StrategyName)
		if err != nil {
			return nil, fmt.Errorf("seller %s: %w", s.Name, err)
		}
		s.Strategy = strategy
		if s.FloorMultiplier <= 0 || s.FloorMultiplier > 1 {
			return nil, fmt.Errorf("seller %s: floor_multiplier must be in (0, 1]", s.Name)
		}
		if s.FloorMultiplier > strategy.StartFraction() {
			return nil, fmt.Errorf("seller %s: floor_multiplier must not exceed the strategy's opening fraction %.2f", s.Name, strategy.StartFraction())
		}
		if s.Style == "" {
			s.Style = "professional"
		}
		if s.TokenEnv == "" {
			s.TokenEnv = "SELLER_" + strings.ToUpper(strategy.String()) + "_DISCORD_TOKEN"
		}
		s.Token = os.Getenv(s.TokenEnv)
	}
	return sellers, nil
}
