package cache

import (
	"context"
	"time"

	"warungpos/backend/internal/domain"
)

// QuoteCache memoizes priced cart quotes keyed by a hash of the quote
// request. Quotes are time-sensitive (discount validity windows), so TTLs
// stay short.
type QuoteCache interface {
	Get(ctx context.Context, key string) (*domain.QuoteResponse, bool, error)
	Set(ctx context.Context, key string, value *domain.QuoteResponse, ttl time.Duration) error
}

type NoopQuoteCache struct{}

func (NoopQuoteCache) Get(_ context.Context, _ string) (*domain.QuoteResponse, bool, error) {
	return nil, false, nil
}

func (NoopQuoteCache) Set(_ context.Context, _ string, _ *domain.QuoteResponse, _ time.Duration) error {
	return nil
}
