package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CatalogSeed is an optional YAML file that pre-fills the in-memory store
// with a catalog, so demo deployments run without postgres. Prices are
// strings in the file and parsed as decimals, never floats.
type CatalogSeed struct {
	Products  []SeedProduct  `yaml:"products"`
	Discounts []SeedDiscount `yaml:"discounts"`
}

type SeedProduct struct {
	SKU       string `yaml:"sku"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	UnitPrice string `yaml:"unit_price"`
	Stock     int    `yaml:"stock"`
}

type SeedDiscount struct {
	SKU        string `yaml:"sku"`
	Kind       string `yaml:"kind"`
	Amount     string `yaml:"amount"`
	ValidFrom  string `yaml:"valid_from,omitempty"`
	ValidUntil string `yaml:"valid_until,omitempty"`
}

func LoadCatalogSeed(path string) (CatalogSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CatalogSeed{}, err
	}

	var seed CatalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return CatalogSeed{}, err
	}

	for _, p := range seed.Products {
		if p.SKU == "" || p.Name == "" {
			return CatalogSeed{}, fmt.Errorf("catalog seed: product missing sku or name")
		}
		if _, err := decimal.NewFromString(p.UnitPrice); err != nil {
			return CatalogSeed{}, fmt.Errorf("catalog seed: bad unit_price for %s: %w", p.SKU, err)
		}
	}
	for _, d := range seed.Discounts {
		if d.SKU == "" {
			return CatalogSeed{}, fmt.Errorf("catalog seed: discount missing sku")
		}
		if _, err := decimal.NewFromString(d.Amount); err != nil {
			return CatalogSeed{}, fmt.Errorf("catalog seed: bad discount amount for %s: %w", d.SKU, err)
		}
	}

	return seed, nil
}
