package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

// Store persists everything in postgres. Money columns are NUMERIC(14,2)
// and scan straight into decimal.Decimal, never through float64.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, category, unit_price, active
		FROM products
		WHERE active = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	skus := make([]string, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.Active); err != nil {
			return nil, err
		}
		products = append(products, p)
		skus = append(skus, p.SKU)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	discounts, err := s.GetDiscountsBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Discounts = discounts[products[i].SKU]
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || !product.UnitPrice.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	product.Active = true
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, category, unit_price, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now(),now())
	`, product.SKU, product.Name, product.Category, product.UnitPrice, product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT sku, name, category, unit_price, active
		FROM products
		WHERE sku = $1
	`, sku).Scan(&product.SKU, &product.Name, &product.Category, &product.UnitPrice, &product.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	product.Discounts, err = s.ListDiscounts(ctx, sku)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || !product.UnitPrice.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, unit_price = $4, active = $5, updated_at = now()
		WHERE sku = $1
	`, product.SKU, product.Name, product.Category, product.UnitPrice, product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, category, unit_price, active
		FROM products
		WHERE active = true AND sku = ANY($1)
	`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.Active); err != nil {
			return nil, err
		}
		result[p.SKU] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	discounts, err := s.GetDiscountsBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}
	for sku, product := range result {
		product.Discounts = discounts[sku]
		result[sku] = product
	}

	return result, nil
}

func (s *Store) CreatePriceHistory(ctx context.Context, entry domain.ProductPriceHistory) error {
	if entry.ID == "" {
		entry.ID = xid.New("ph")
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_price_history (id, sku, old_price, new_price, changed_by, changed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.SKU, entry.OldPrice, entry.NewPrice, entry.ChangedBy, entry.ChangedAt)
	return err
}

func (s *Store) ListPriceHistory(ctx context.Context, sku string, limit int) ([]domain.ProductPriceHistory, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, old_price, new_price, changed_by, changed_at
		FROM product_price_history
		WHERE sku = $1
		ORDER BY changed_at DESC
		LIMIT $2
	`, sku, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.ProductPriceHistory, 0, limit)
	for rows.Next() {
		var entry domain.ProductPriceHistory
		if err := rows.Scan(&entry.ID, &entry.SKU, &entry.OldPrice, &entry.NewPrice, &entry.ChangedBy, &entry.ChangedAt); err != nil {
			return nil, err
		}
		entry.ChangedAt = entry.ChangedAt.UTC()
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Store) CreateDiscount(ctx context.Context, discount domain.Discount) (*domain.Discount, error) {
	if discount.SKU == "" || discount.Amount.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if discount.Kind != domain.DiscountKindFixed && discount.Kind != domain.DiscountKindPercentage {
		return nil, store.ErrInvalidInput
	}
	if discount.ID == "" {
		discount.ID = xid.New("disc")
	}
	if discount.CreatedAt.IsZero() {
		discount.CreatedAt = time.Now().UTC()
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1)`, discount.SKU).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO product_discounts (id, sku, kind, amount, valid_from, valid_until, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, discount.ID, discount.SKU, discount.Kind, discount.Amount, nullTime(discount.ValidFrom), nullTime(discount.ValidUntil), discount.Active, discount.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := discount
	return &created, nil
}

func (s *Store) ListDiscounts(ctx context.Context, sku string) ([]domain.Discount, error) {
	// created_at ASC keeps the candidate order stable: the pricing engine
	// applies the first active discount, so ordering is part of semantics.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, kind, amount, valid_from, valid_until, active, created_at
		FROM product_discounts
		WHERE ($1 = '' OR sku = $1)
		ORDER BY created_at ASC, id ASC
	`, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDiscounts(rows)
}

func (s *Store) GetDiscountsBySKUs(ctx context.Context, skus []string) (map[string][]domain.Discount, error) {
	result := make(map[string][]domain.Discount, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, kind, amount, valid_from, valid_until, active, created_at
		FROM product_discounts
		WHERE sku = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	discounts, err := scanDiscounts(rows)
	if err != nil {
		return nil, err
	}
	for _, d := range discounts {
		result[d.SKU] = append(result[d.SKU], d)
	}
	return result, nil
}

func (s *Store) UpdateDiscountActive(ctx context.Context, discountID string, active bool) (*domain.Discount, error) {
	var discount domain.Discount
	var validFrom, validUntil sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		UPDATE product_discounts
		SET active = $2
		WHERE id = $1
		RETURNING id, sku, kind, amount, valid_from, valid_until, active, created_at
	`, discountID, active).Scan(&discount.ID, &discount.SKU, &discount.Kind, &discount.Amount, &validFrom, &validUntil, &discount.Active, &discount.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	applyDiscountTimes(&discount, validFrom, validUntil)
	return &discount, nil
}

func scanDiscounts(rows *sql.Rows) ([]domain.Discount, error) {
	discounts := make([]domain.Discount, 0, 16)
	for rows.Next() {
		var d domain.Discount
		var validFrom, validUntil sql.NullTime
		if err := rows.Scan(&d.ID, &d.SKU, &d.Kind, &d.Amount, &validFrom, &validUntil, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		applyDiscountTimes(&d, validFrom, validUntil)
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return discounts, nil
}

func applyDiscountTimes(d *domain.Discount, validFrom, validUntil sql.NullTime) {
	d.CreatedAt = d.CreatedAt.UTC()
	if validFrom.Valid {
		from := validFrom.Time.UTC()
		d.ValidFrom = &from
	}
	if validUntil.Valid {
		until := validUntil.Time.UTC()
		d.ValidUntil = &until
	}
}

func (s *Store) GetStockMap(ctx context.Context, storeID string, skus []string) (map[string]int, error) {
	stockMap := make(map[string]int, len(skus))
	if len(skus) == 0 {
		return stockMap, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, qty
		FROM inventory_stocks
		WHERE store_id = $1 AND sku = ANY($2)
	`, storeID, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sku string
		var qty int
		if err := rows.Scan(&sku, &qty); err != nil {
			return nil, err
		}
		stockMap[sku] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sku := range skus {
		if _, ok := stockMap[sku]; !ok {
			stockMap[sku] = 0
		}
	}

	return stockMap, nil
}

func (s *Store) IncreaseStock(ctx context.Context, storeID string, sku string, qty int) error {
	if sku == "" || qty < 1 {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_stocks (store_id, sku, qty, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (store_id, sku)
		DO UPDATE SET qty = inventory_stocks.qty + EXCLUDED.qty, updated_at = now()
	`, storeID, sku, qty)
	return err
}

func (s *Store) DecreaseStock(ctx context.Context, storeID string, sku string, qty int) error {
	if sku == "" || qty < 1 {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_stocks
		SET qty = qty - $3, updated_at = now()
		WHERE store_id = $1 AND sku = $2 AND qty >= $3
	`, storeID, sku, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrInsufficientStock
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.IdempotencyKey == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	if order.ID == "" {
		order.ID = xid.New("ord")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO orders (
			id, store_id, terminal_id, idempotency_key, customer_name, payment_method,
			order_discount_kind, order_discount_value, subtotal, order_discount_amount,
			final_total, amount_tendered, change_due, status, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, order.ID, order.StoreID, order.TerminalID, order.IdempotencyKey, order.CustomerName,
		order.PaymentMethod, order.OrderDiscountKind, order.OrderDiscountValue, order.Subtotal,
		order.OrderDiscountAmount, order.FinalTotal, order.AmountTendered, order.ChangeDue,
		order.Status, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent checkout with the same idempotency key won the
			// insert; the caller replays the stored order.
			return nil, store.ErrDuplicateIdempotency
		}
		return nil, err
	}

	for _, line := range order.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, sku, qty, unit_price, effective_unit_price, applied_discount_id)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, order.ID, line.SKU, line.Qty, line.UnitPrice, line.EffectiveUnitPrice, nullIfEmpty(line.AppliedDiscountID))
		if err != nil {
			return nil, err
		}
	}

	// Stock is decremented in the same serializable transaction so a crash
	// between order insert and stock update cannot oversell.
	for _, adj := range aggregateQuantities(order.Items) {
		res, err := pgTx.ExecContext(ctx, `
			UPDATE inventory_stocks
			SET qty = qty - $3, updated_at = now()
			WHERE store_id = $1 AND sku = $2 AND qty >= $3
		`, order.StoreID, adj.sku, adj.qty)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrInsufficientStock
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := order
	return &created, nil
}

func (s *Store) FindOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.findOrder(ctx, "id", id)
}

func (s *Store) FindOrderByIdempotency(ctx context.Context, key string) (*domain.Order, error) {
	return s.findOrder(ctx, "idempotency_key", key)
}

func (s *Store) findOrder(ctx context.Context, column string, value string) (*domain.Order, error) {
	if column != "id" && column != "idempotency_key" {
		return nil, fmt.Errorf("unsupported lookup column")
	}

	var order domain.Order
	var voidReason sql.NullString
	var voidedAt sql.NullTime

	query := fmt.Sprintf(`
		SELECT id, store_id, terminal_id, idempotency_key, customer_name, payment_method,
			order_discount_kind, order_discount_value, subtotal, order_discount_amount,
			final_total, amount_tendered, change_due, status, void_reason, voided_at, created_at
		FROM orders
		WHERE %s = $1
	`, column)

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&order.ID,
		&order.StoreID,
		&order.TerminalID,
		&order.IdempotencyKey,
		&order.CustomerName,
		&order.PaymentMethod,
		&order.OrderDiscountKind,
		&order.OrderDiscountValue,
		&order.Subtotal,
		&order.OrderDiscountAmount,
		&order.FinalTotal,
		&order.AmountTendered,
		&order.ChangeDue,
		&order.Status,
		&voidReason,
		&voidedAt,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if voidReason.Valid {
		order.VoidReason = voidReason.String
	}
	if voidedAt.Valid {
		at := voidedAt.Time.UTC()
		order.VoidedAt = &at
	}
	order.CreatedAt = order.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, qty, unit_price, effective_unit_price, COALESCE(applied_discount_id,'')
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.OrderLine, 0, 8)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.SKU, &line.Qty, &line.UnitPrice, &line.EffectiveUnitPrice, &line.AppliedDiscountID); err != nil {
			return nil, err
		}
		items = append(items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Order, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, terminal_id, idempotency_key, customer_name, payment_method,
			order_discount_kind, order_discount_value, subtotal, order_discount_amount,
			final_total, amount_tendered, change_due, status, void_reason, voided_at, created_at
		FROM orders
		WHERE store_id = $1
			AND created_at >= $2
			AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`, storeID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		var order domain.Order
		var voidReason sql.NullString
		var voidedAt sql.NullTime
		if err := rows.Scan(
			&order.ID, &order.StoreID, &order.TerminalID, &order.IdempotencyKey,
			&order.CustomerName, &order.PaymentMethod, &order.OrderDiscountKind,
			&order.OrderDiscountValue, &order.Subtotal, &order.OrderDiscountAmount,
			&order.FinalTotal, &order.AmountTendered, &order.ChangeDue, &order.Status,
			&voidReason, &voidedAt, &order.CreatedAt,
		); err != nil {
			return nil, err
		}
		if voidReason.Valid {
			order.VoidReason = voidReason.String
		}
		if voidedAt.Valid {
			at := voidedAt.Time.UTC()
			order.VoidedAt = &at
		}
		order.CreatedAt = order.CreatedAt.UTC()
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) VoidOrder(ctx context.Context, id string, reason string, at time.Time) (*domain.Order, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var storeID string
	res, err := pgTx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, void_reason = $3, voided_at = $4
		WHERE id = $1 AND status = $5
	`, id, domain.OrderStatusVoided, reason, at, domain.OrderStatusPaid)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		err = pgTx.QueryRowContext(ctx, `SELECT store_id FROM orders WHERE id = $1`, id).Scan(&storeID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, store.ErrInvalidInput
	}

	err = pgTx.QueryRowContext(ctx, `SELECT store_id FROM orders WHERE id = $1`, id).Scan(&storeID)
	if err != nil {
		return nil, err
	}

	rows, err := pgTx.QueryContext(ctx, `SELECT sku, qty FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return nil, err
	}
	type adj struct {
		sku string
		qty int
	}
	restores := make([]adj, 0, 8)
	for rows.Next() {
		var a adj
		if err := rows.Scan(&a.sku, &a.qty); err != nil {
			_ = rows.Close()
			return nil, err
		}
		restores = append(restores, a)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, a := range restores {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO inventory_stocks (store_id, sku, qty, updated_at)
			VALUES ($1,$2,$3,now())
			ON CONFLICT (store_id, sku)
			DO UPDATE SET qty = inventory_stocks.qty + EXCLUDED.qty, updated_at = now()
		`, storeID, a.sku, a.qty)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.FindOrderByID(ctx, id)
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Category == "" || !expense.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = time.Now().UTC()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, store_id, category, note, amount, spent_by, spent_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, expense.ID, expense.StoreID, expense.Category, expense.Note, expense.Amount, expense.SpentBy, expense.SpentAt, expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, category, note, amount, spent_by, spent_at, created_at
		FROM expenses
		WHERE store_id = $1
			AND spent_at >= $2
			AND spent_at < $3
		ORDER BY spent_at DESC
		LIMIT $4
	`, storeID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, limit)
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.StoreID, &expense.Category, &expense.Note, &expense.Amount, &expense.SpentBy, &expense.SpentAt, &expense.CreatedAt); err != nil {
			return nil, err
		}
		expense.SpentAt = expense.SpentAt.UTC()
		expense.CreatedAt = expense.CreatedAt.UTC()
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) GetDailyReport(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DailyReport, error) {
	report := domain.DailyReport{
		StoreID:   storeID,
		ByPayment: make([]domain.DailyReportPayment, 0, 4),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::bigint,
			COALESCE(SUM(subtotal),0),
			COALESCE(SUM(order_discount_amount),0),
			COALESCE(SUM(final_total),0)
		FROM orders
		WHERE store_id = $1
			AND created_at >= $2
			AND created_at < $3
			AND status = $4
	`, storeID, from, to, domain.OrderStatusPaid).Scan(
		&report.Orders,
		&report.GrossSales,
		&report.DiscountTotal,
		&report.NetSales,
	)
	if err != nil {
		return report, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount),0)
		FROM expenses
		WHERE store_id = $1
			AND spent_at >= $2
			AND spent_at < $3
	`, storeID, from, to).Scan(&report.ExpenseTotal)
	if err != nil {
		return report, err
	}

	paymentRows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*)::bigint, COALESCE(SUM(final_total),0)
		FROM orders
		WHERE store_id = $1
			AND created_at >= $2
			AND created_at < $3
			AND status = $4
		GROUP BY payment_method
		ORDER BY payment_method
	`, storeID, from, to, domain.OrderStatusPaid)
	if err != nil {
		return report, err
	}
	defer paymentRows.Close()

	for paymentRows.Next() {
		var row domain.DailyReportPayment
		if err := paymentRows.Scan(&row.PaymentMethod, &row.Orders, &row.Total); err != nil {
			return report, err
		}
		report.ByPayment = append(report.ByPayment, row)
	}
	if err := paymentRows.Err(); err != nil {
		return report, err
	}

	return report, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.StoreID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE store_id = $1
			AND created_at >= $2
			AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`, storeID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.StoreID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type stockAdjustment struct {
	sku string
	qty int
}

func aggregateQuantities(items []domain.OrderLine) []stockAdjustment {
	bySKU := make(map[string]int, len(items))
	for _, item := range items {
		if item.SKU == "" || item.Qty < 1 {
			continue
		}
		bySKU[item.SKU] += item.Qty
	}

	skus := make([]string, 0, len(bySKU))
	for sku := range bySKU {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	adjustments := make([]stockAdjustment, 0, len(skus))
	for _, sku := range skus {
		adjustments = append(adjustments, stockAdjustment{sku: sku, qty: bySKU[sku]})
	}
	return adjustments
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
