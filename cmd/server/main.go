package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/cache"
	"warungpos/backend/internal/config"
	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/httpapi"
	"warungpos/backend/internal/service"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/store/memory"
	pgstore "warungpos/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		memStore := buildMemoryStore(ctx, cfg)
		repo = memStore
		log.Println("repository: in-memory")
	}

	quoteCache := cache.QuoteCache(cache.NoopQuoteCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisQuoteCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			quoteCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("quote cache: redis")
		}
	} else {
		log.Println("quote cache: noop")
	}

	svc := service.New(repo, quoteCache, time.Duration(cfg.QuoteTTLSeconds)*time.Second, cfg.StoreID)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// buildMemoryStore returns the in-memory repository, filled from the
// CATALOG_SEED_FILE when one is configured, otherwise from the built-in
// demo catalog.
func buildMemoryStore(ctx context.Context, cfg config.Config) *memory.Store {
	if cfg.CatalogSeedFile == "" {
		return memory.NewSeeded()
	}

	seed, err := config.LoadCatalogSeed(cfg.CatalogSeedFile)
	if err != nil {
		log.Fatalf("failed to load catalog seed %s: %v", cfg.CatalogSeedFile, err)
	}

	memStore := memory.New()
	for _, p := range seed.Products {
		price, err := decimal.NewFromString(p.UnitPrice)
		if err != nil {
			log.Fatalf("catalog seed: bad unit_price for %s: %v", p.SKU, err)
		}
		if _, err := memStore.CreateProduct(ctx, domain.Product{
			SKU:       p.SKU,
			Name:      p.Name,
			Category:  p.Category,
			UnitPrice: price,
			Active:    true,
		}); err != nil {
			log.Fatalf("catalog seed: product %s: %v", p.SKU, err)
		}
		if p.Stock > 0 {
			if err := memStore.IncreaseStock(ctx, cfg.StoreID, p.SKU, p.Stock); err != nil {
				log.Fatalf("catalog seed: stock for %s: %v", p.SKU, err)
			}
		}
	}
	for _, d := range seed.Discounts {
		amount, err := decimal.NewFromString(d.Amount)
		if err != nil {
			log.Fatalf("catalog seed: bad discount amount for %s: %v", d.SKU, err)
		}
		discount := domain.Discount{
			SKU:    d.SKU,
			Kind:   d.Kind,
			Amount: amount,
			Active: true,
		}
		if d.ValidFrom != "" {
			from, err := time.Parse(time.RFC3339, d.ValidFrom)
			if err != nil {
				log.Fatalf("catalog seed: bad valid_from for %s: %v", d.SKU, err)
			}
			utc := from.UTC()
			discount.ValidFrom = &utc
		}
		if d.ValidUntil != "" {
			until, err := time.Parse(time.RFC3339, d.ValidUntil)
			if err != nil {
				log.Fatalf("catalog seed: bad valid_until for %s: %v", d.SKU, err)
			}
			utc := until.UTC()
			discount.ValidUntil = &utc
		}
		if _, err := memStore.CreateDiscount(ctx, discount); err != nil {
			log.Fatalf("catalog seed: discount for %s: %v", d.SKU, err)
		}
	}
	log.Printf("catalog seed: %d products, %d discounts from %s", len(seed.Products), len(seed.Discounts), cfg.CatalogSeedFile)

	return memStore
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
