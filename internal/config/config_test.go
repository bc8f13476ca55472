package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallsBackOnBadDurations(t *testing.T) {
	t.Setenv("QUOTE_TTL_SECONDS", "not-a-number")
	t.Setenv("CHECKOUT_TIMEOUT_SECONDS", "-5")

	cfg := Load()
	if cfg.QuoteTTLSeconds != 15 {
		t.Fatalf("expected default quote TTL 15, got %d", cfg.QuoteTTLSeconds)
	}
	if cfg.CheckoutTimeoutSeconds != 10 {
		t.Fatalf("expected default checkout timeout 10, got %d", cfg.CheckoutTimeoutSeconds)
	}
}

func TestLoadCatalogSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
products:
  - sku: SKU-TEST-01
    name: Test Item
    category: test
    unit_price: "12500"
    stock: 10
discounts:
  - sku: SKU-TEST-01
    kind: percentage
    amount: "10"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	seed, err := LoadCatalogSeed(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if len(seed.Products) != 1 || seed.Products[0].SKU != "SKU-TEST-01" {
		t.Fatalf("unexpected products: %+v", seed.Products)
	}
	if len(seed.Discounts) != 1 || seed.Discounts[0].Kind != "percentage" {
		t.Fatalf("unexpected discounts: %+v", seed.Discounts)
	}
}

func TestLoadCatalogSeedRejectsBadPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
products:
  - sku: SKU-TEST-01
    name: Test Item
    category: test
    unit_price: "twelve"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	if _, err := LoadCatalogSeed(path); err == nil {
		t.Fatalf("expected bad unit_price to be rejected")
	}
}
