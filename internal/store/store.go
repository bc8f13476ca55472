package store

import (
	"context"
	"errors"
	"time"

	"warungpos/backend/internal/domain"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error)
	CreatePriceHistory(ctx context.Context, entry domain.ProductPriceHistory) error
	ListPriceHistory(ctx context.Context, sku string, limit int) ([]domain.ProductPriceHistory, error)

	CreateDiscount(ctx context.Context, discount domain.Discount) (*domain.Discount, error)
	ListDiscounts(ctx context.Context, sku string) ([]domain.Discount, error)
	GetDiscountsBySKUs(ctx context.Context, skus []string) (map[string][]domain.Discount, error)
	UpdateDiscountActive(ctx context.Context, discountID string, active bool) (*domain.Discount, error)

	GetStockMap(ctx context.Context, storeID string, skus []string) (map[string]int, error)
	IncreaseStock(ctx context.Context, storeID string, sku string, qty int) error
	DecreaseStock(ctx context.Context, storeID string, sku string, qty int) error

	// CreateOrder persists the order and decrements stock for its lines in
	// one atomic step; it fails with ErrInsufficientStock when any line
	// cannot be covered and with ErrDuplicateIdempotency when the
	// idempotency key is already taken. VoidOrder restores the stock.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	FindOrderByID(ctx context.Context, id string) (*domain.Order, error)
	FindOrderByIdempotency(ctx context.Context, key string) (*domain.Order, error)
	ListOrders(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Order, error)
	VoidOrder(ctx context.Context, id string, reason string, at time.Time) (*domain.Order, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Expense, error)

	GetDailyReport(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DailyReport, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
