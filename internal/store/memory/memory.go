package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	discountsByID   map[string]domain.Discount
	discountsBySKU  map[string][]string
	inventory       map[string]map[string]int
	ordersByID      map[string]*domain.Order
	ordersByIdem    map[string]*domain.Order
	priceHistory    map[string][]domain.ProductPriceHistory
	expensesByID    map[string]domain.Expense
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. These are never
// used in production (postgres is the store when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("[memory-store] bad seed price %q: %v", s, err)
	}
	return d
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		discountsByID:   make(map[string]domain.Discount),
		discountsBySKU:  make(map[string][]string),
		inventory:       map[string]map[string]int{"main-store": {}},
		ordersByID:      make(map[string]*domain.Order),
		ordersByIdem:    make(map[string]*domain.Order),
		priceHistory:    make(map[string][]domain.ProductPriceHistory),
		expensesByID:    make(map[string]domain.Expense),
		usersByUsername: seedUsers(),
	}
}

// NewSeeded returns a store pre-filled with a small demo catalog including a
// couple of running discounts, so the API is usable without postgres.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()

	products := []domain.Product{
		{SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Category: "grocery", UnitPrice: price("3500"), Active: true},
		{SKU: "SKU-TELUR-01", Name: "Telur 10 Butir", Category: "grocery", UnitPrice: price("26500"), Active: true},
		{SKU: "SKU-SUSU-01", Name: "Susu UHT 1L", Category: "dairy", UnitPrice: price("18900"), Active: true},
		{SKU: "SKU-ROTI-01", Name: "Roti Tawar", Category: "bakery", UnitPrice: price("17800"), Active: true},
		{SKU: "SKU-KOPI-01", Name: "Kopi Sachet", Category: "beverage", UnitPrice: price("2600"), Active: true},
		{SKU: "SKU-GULA-01", Name: "Gula 1kg", Category: "grocery", UnitPrice: price("17400"), Active: true},
		{SKU: "SKU-TEH-01", Name: "Teh Celup", Category: "beverage", UnitPrice: price("9800"), Active: true},
		{SKU: "SKU-AIR-01", Name: "Air Mineral 600ml", Category: "beverage", UnitPrice: price("3900"), Active: true},
		{SKU: "SKU-KERIPIK-01", Name: "Keripik Singkong", Category: "snack", UnitPrice: price("12800"), Active: true},
		{SKU: "SKU-COKLAT-01", Name: "Coklat Batang", Category: "snack", UnitPrice: price("8600"), Active: true},
	}
	for _, p := range products {
		if _, err := s.CreateProduct(ctx, p); err != nil {
			log.Fatalf("[memory-store] seed product %s: %v", p.SKU, err)
		}
		_ = s.IncreaseStock(ctx, "main-store", p.SKU, 120)
	}

	from := time.Now().UTC().Add(-24 * time.Hour)
	until := time.Now().UTC().Add(30 * 24 * time.Hour)
	seedDiscounts := []domain.Discount{
		{SKU: "SKU-KOPI-01", Kind: domain.DiscountKindFixed, Amount: price("300"), ValidFrom: &from, ValidUntil: &until, Active: true},
		{SKU: "SKU-SUSU-01", Kind: domain.DiscountKindPercentage, Amount: price("10"), ValidFrom: &from, Active: true},
	}
	for _, d := range seedDiscounts {
		if _, err := s.CreateDiscount(ctx, d); err != nil {
			log.Fatalf("[memory-store] seed discount for %s: %v", d.SKU, err)
		}
	}

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		p.Discounts = s.discountsForSKULocked(p.SKU)
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Category == products[j].Category {
			return products[i].Name < products[j].Name
		}
		return products[i].Category < products[j].Category
	})
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || !product.UnitPrice.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.SKU]; exists {
		return nil, store.ErrInvalidInput
	}

	product.Active = true
	product.Discounts = nil
	s.products[product.SKU] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[sku]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.Discounts = s.discountsForSKULocked(sku)
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || !product.UnitPrice.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.SKU]; !exists {
		return nil, store.ErrNotFound
	}

	product.Discounts = nil
	s.products[product.SKU] = product
	updated := product
	return &updated, nil
}

func (s *Store) GetProductsBySKUs(_ context.Context, skus []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(skus))
	for _, sku := range skus {
		product, ok := s.products[sku]
		if !ok || !product.Active {
			// Deactivated products are not sellable, same as the postgres impl.
			continue
		}
		product.Discounts = s.discountsForSKULocked(sku)
		result[sku] = product
	}
	return result, nil
}

func (s *Store) CreatePriceHistory(_ context.Context, entry domain.ProductPriceHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priceHistory[entry.SKU] = append(s.priceHistory[entry.SKU], entry)
	return nil
}

func (s *Store) ListPriceHistory(_ context.Context, sku string, limit int) ([]domain.ProductPriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.priceHistory[sku]
	result := make([]domain.ProductPriceHistory, len(history))
	copy(result, history)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ChangedAt.After(result[j].ChangedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateDiscount(_ context.Context, discount domain.Discount) (*domain.Discount, error) {
	if discount.SKU == "" || discount.Amount.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if discount.Kind != domain.DiscountKindFixed && discount.Kind != domain.DiscountKindPercentage {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[discount.SKU]; !exists {
		return nil, store.ErrNotFound
	}

	if discount.ID == "" {
		discount.ID = xid.New("disc")
	}
	if discount.CreatedAt.IsZero() {
		discount.CreatedAt = time.Now().UTC()
	}
	s.discountsByID[discount.ID] = discount
	// Creation order is preserved per SKU: it is the engine's candidate
	// order, so first-active-wins stays reproducible.
	s.discountsBySKU[discount.SKU] = append(s.discountsBySKU[discount.SKU], discount.ID)
	created := discount
	return &created, nil
}

func (s *Store) ListDiscounts(_ context.Context, sku string) ([]domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sku != "" {
		return s.discountsForSKULocked(sku), nil
	}

	ids := make([]string, 0, len(s.discountsByID))
	for id := range s.discountsByID {
		ids = append(ids, id)
	}
	result := make([]domain.Discount, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.discountsByID[id])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) GetDiscountsBySKUs(_ context.Context, skus []string) (map[string][]domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]domain.Discount, len(skus))
	for _, sku := range skus {
		if discounts := s.discountsForSKULocked(sku); len(discounts) > 0 {
			result[sku] = discounts
		}
	}
	return result, nil
}

func (s *Store) UpdateDiscountActive(_ context.Context, discountID string, active bool) (*domain.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	discount, ok := s.discountsByID[discountID]
	if !ok {
		return nil, store.ErrNotFound
	}
	discount.Active = active
	s.discountsByID[discountID] = discount
	updated := discount
	return &updated, nil
}

func (s *Store) discountsForSKULocked(sku string) []domain.Discount {
	ids := s.discountsBySKU[sku]
	if len(ids) == 0 {
		return nil
	}
	discounts := make([]domain.Discount, 0, len(ids))
	for _, id := range ids {
		discounts = append(discounts, s.discountsByID[id])
	}
	return discounts
}

func (s *Store) GetStockMap(_ context.Context, storeID string, skus []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stock := s.inventory[storeID]
	result := make(map[string]int, len(skus))
	for _, sku := range skus {
		result[sku] = stock[sku]
	}
	return result, nil
}

func (s *Store) IncreaseStock(_ context.Context, storeID string, sku string, qty int) error {
	if qty < 1 {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inventory[storeID] == nil {
		s.inventory[storeID] = map[string]int{}
	}
	s.inventory[storeID][sku] += qty
	return nil
}

func (s *Store) DecreaseStock(_ context.Context, storeID string, sku string, qty int) error {
	if qty < 1 {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stock := s.inventory[storeID]
	if stock == nil || stock[sku] < qty {
		return store.ErrInsufficientStock
	}
	stock[sku] -= qty
	return nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.IdempotencyKey == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ordersByIdem[order.IdempotencyKey]; exists {
		return nil, store.ErrDuplicateIdempotency
	}

	// Stock moves with the order atomically, mirroring the postgres store's
	// single transaction. Check every line first so a partial failure never
	// leaves the shelf half-decremented.
	stock := s.inventory[order.StoreID]
	needed := make(map[string]int, len(order.Items))
	for _, line := range order.Items {
		needed[line.SKU] += line.Qty
	}
	for sku, qty := range needed {
		if stock == nil || stock[sku] < qty {
			return nil, store.ErrInsufficientStock
		}
	}
	for sku, qty := range needed {
		stock[sku] -= qty
	}

	stored := order
	s.ordersByID[order.ID] = &stored
	s.ordersByIdem[order.IdempotencyKey] = &stored
	created := stored
	return &created, nil
}

func (s *Store) FindOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *order
	return &found, nil
}

func (s *Store) FindOrderByIdempotency(_ context.Context, key string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.ordersByIdem[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *order
	return &found, nil
}

func (s *Store) ListOrders(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, 32)
	for _, order := range s.ordersByID {
		if order.StoreID != storeID {
			continue
		}
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) VoidOrder(_ context.Context, id string, reason string, at time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.Status == domain.OrderStatusVoided {
		return nil, store.ErrInvalidInput
	}

	order.Status = domain.OrderStatusVoided
	order.VoidReason = reason
	order.VoidedAt = &at

	// Voided stock goes back on the shelf.
	stock := s.inventory[order.StoreID]
	if stock == nil {
		stock = map[string]int{}
		s.inventory[order.StoreID] = stock
	}
	for _, line := range order.Items {
		stock[line.SKU] += line.Qty
	}

	voided := *order
	return &voided, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || expense.Category == "" || !expense.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, 32)
	for _, expense := range s.expensesByID {
		if expense.StoreID != storeID {
			continue
		}
		if expense.SpentAt.Before(from) || !expense.SpentAt.Before(to) {
			continue
		}
		expenses = append(expenses, expense)
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].SpentAt.After(expenses[j].SpentAt)
	})
	if limit > 0 && len(expenses) > limit {
		expenses = expenses[:limit]
	}
	return expenses, nil
}

func (s *Store) GetDailyReport(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DailyReport, error) {
	orders, err := s.ListOrders(ctx, storeID, from, to, 0)
	if err != nil {
		return domain.DailyReport{}, err
	}
	expenses, err := s.ListExpenses(ctx, storeID, from, to, 0)
	if err != nil {
		return domain.DailyReport{}, err
	}

	report := domain.DailyReport{
		GrossSales:    decimal.Zero,
		DiscountTotal: decimal.Zero,
		NetSales:      decimal.Zero,
		ExpenseTotal:  decimal.Zero,
	}
	byPayment := map[string]*domain.DailyReportPayment{}

	for _, order := range orders {
		if order.Status != domain.OrderStatusPaid {
			continue
		}
		report.Orders++
		report.GrossSales = report.GrossSales.Add(order.Subtotal)
		report.DiscountTotal = report.DiscountTotal.Add(order.OrderDiscountAmount)
		report.NetSales = report.NetSales.Add(order.FinalTotal)

		entry := byPayment[order.PaymentMethod]
		if entry == nil {
			entry = &domain.DailyReportPayment{PaymentMethod: order.PaymentMethod, Total: decimal.Zero}
			byPayment[order.PaymentMethod] = entry
		}
		entry.Orders++
		entry.Total = entry.Total.Add(order.FinalTotal)
	}

	for _, expense := range expenses {
		report.ExpenseTotal = report.ExpenseTotal.Add(expense.Amount)
	}

	methods := make([]string, 0, len(byPayment))
	for method := range byPayment {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	for _, method := range methods {
		report.ByPayment = append(report.ByPayment, *byPayment[method])
	}

	return report, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.StoreID != storeID {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
