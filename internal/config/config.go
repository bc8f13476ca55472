package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	StoreID                string
	QuoteTTLSeconds        int
	CheckoutTimeoutSeconds int
	AuthSecret             string
	AccessTokenTTLMinutes  int
	CatalogSeedFile        string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	quoteTTL, err := strconv.Atoi(getEnv("QUOTE_TTL_SECONDS", "15"))
	if err != nil || quoteTTL < 1 {
		quoteTTL = 15
	}
	checkoutTimeout, err := strconv.Atoi(getEnv("CHECKOUT_TIMEOUT_SECONDS", "10"))
	if err != nil || checkoutTimeout < 1 {
		checkoutTimeout = 10
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		StoreID:                getEnv("DEFAULT_STORE_ID", "main-store"),
		QuoteTTLSeconds:        quoteTTL,
		CheckoutTimeoutSeconds: checkoutTimeout,
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		CatalogSeedFile:        strings.TrimSpace(os.Getenv("CATALOG_SEED_FILE")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
