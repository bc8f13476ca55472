package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

func TestCreateAndVoidOrderMovesStock(t *testing.T) {
	databaseURL := os.Getenv("WARUNGPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set WARUNGPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	sku := fmt.Sprintf("SKU-ORD-IT-%d", stamp)
	orderID := fmt.Sprintf("ord-it-%d", stamp)
	idempotencyKey := fmt.Sprintf("idem-ord-it-%d", stamp)
	storeID := "main-store"

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory_stocks WHERE store_id = $1 AND sku = $2`, storeID, sku)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE sku = $1`, sku)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, category, unit_price, active, created_at, updated_at)
		VALUES ($1, 'Produk Order IT', 'snack', 12000, true, now(), now())
	`, sku); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_stocks (store_id, sku, qty, updated_at)
		VALUES ($1, $2, 10, now())
		ON CONFLICT (store_id, sku)
		DO UPDATE SET qty = 10, updated_at = now()
	`, storeID, sku); err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	price := decimal.New(12000, 0)
	order := domain.Order{
		ID:             orderID,
		StoreID:        storeID,
		TerminalID:     "T-ORD-IT",
		IdempotencyKey: idempotencyKey,
		PaymentMethod:  domain.PaymentMethodCash,
		Subtotal:       price.Mul(decimal.New(2, 0)),
		FinalTotal:     price.Mul(decimal.New(2, 0)),
		AmountTendered: decimal.New(30000, 0),
		ChangeDue:      decimal.New(6000, 0),
		Status:         domain.OrderStatusPaid,
		CreatedAt:      time.Now().UTC(),
		Items: []domain.OrderLine{
			{SKU: sku, Qty: 2, UnitPrice: price, EffectiveUnitPrice: price},
		},
	}

	if _, err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	var qty int
	if err := s.db.QueryRowContext(ctx, `
		SELECT qty FROM inventory_stocks WHERE store_id = $1 AND sku = $2
	`, storeID, sku).Scan(&qty); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if qty != 8 {
		t.Fatalf("expected stock 8 after checkout, got %d", qty)
	}

	overdraw := order
	overdraw.ID = orderID + "-over"
	overdraw.IdempotencyKey = idempotencyKey + "-over"
	overdraw.Items = []domain.OrderLine{{SKU: sku, Qty: 99, UnitPrice: price, EffectiveUnitPrice: price}}
	if _, err := s.CreateOrder(ctx, overdraw); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	at := time.Now().UTC()
	voided, err := s.VoidOrder(ctx, orderID, "integration test void", at)
	if err != nil {
		t.Fatalf("void order: %v", err)
	}
	if voided.Status != domain.OrderStatusVoided {
		t.Fatalf("expected voided status, got %s", voided.Status)
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT qty FROM inventory_stocks WHERE store_id = $1 AND sku = $2
	`, storeID, sku).Scan(&qty); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if qty != 10 {
		t.Fatalf("expected stock 10 after void restock, got %d", qty)
	}
}
