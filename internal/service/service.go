package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/cache"
	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/pricing"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ValidationError carries the field-attributable failures from a checkout
// or quote, one per failed category, so the API can render them inline.
type ValidationError struct {
	Errors []domain.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Service struct {
	repo           store.Repository
	quoteCache     cache.QuoteCache
	quoteTTL       time.Duration
	defaultStoreID string
}

func New(repo store.Repository, quoteCache cache.QuoteCache, quoteTTL time.Duration, defaultStoreID string) *Service {
	if quoteCache == nil {
		quoteCache = cache.NoopQuoteCache{}
	}
	if quoteTTL <= 0 {
		quoteTTL = 15 * time.Second
	}
	if defaultStoreID == "" {
		defaultStoreID = "main-store"
	}

	return &Service{
		repo:           repo,
		quoteCache:     quoteCache,
		quoteTTL:       quoteTTL,
		defaultStoreID: defaultStoreID,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.SKU == "" || req.Name == "" || req.Category == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if !req.UnitPrice.IsPositive() || req.InitialStock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	product := domain.Product{
		SKU:       req.SKU,
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: req.UnitPrice.Round(2),
		Active:    true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	if req.InitialStock > 0 {
		if err := s.repo.IncreaseStock(ctx, req.StoreID, created.SKU, req.InitialStock); err != nil {
			return domain.Product{}, err
		}
	}

	s.logAudit(ctx, req.StoreID, "product_create", "product", created.SKU, fmt.Sprintf("name=%s,price=%s,stock=%d", created.Name, created.UnitPrice.StringFixed(2), req.InitialStock))

	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, sku string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return domain.Product{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Category = category
	}
	if req.UnitPrice != nil {
		if !req.UnitPrice.IsPositive() {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.UnitPrice = req.UnitPrice.Round(2)
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	result, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	if !existing.UnitPrice.Equal(result.UnitPrice) {
		entry := domain.ProductPriceHistory{
			ID:        xid.New("ph"),
			SKU:       result.SKU,
			OldPrice:  existing.UnitPrice,
			NewPrice:  result.UnitPrice,
			ChangedBy: actor.Username,
			ChangedAt: time.Now().UTC(),
		}
		if err := s.repo.CreatePriceHistory(ctx, entry); err != nil {
			log.Printf("[service] WARN: failed to record price history sku=%s: %v", result.SKU, err)
		}
	}

	s.logAudit(ctx, s.defaultStoreID, "product_update", "product", result.SKU, fmt.Sprintf("price=%s,active=%t", result.UnitPrice.StringFixed(2), result.Active))

	return *result, nil
}

func (s *Service) ListProductPriceHistory(ctx context.Context, sku string, limit int) ([]domain.ProductPriceHistory, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, store.ErrInvalidInput
	}
	if _, err := s.repo.GetProductBySKU(ctx, sku); err != nil {
		return nil, err
	}
	return s.repo.ListPriceHistory(ctx, sku, limit)
}

// AdjustStock applies a manual stock correction outside the order flow:
// positive deltas restock, negative deltas write off damaged or miscounted
// units. A write-off larger than the on-hand quantity is rejected.
func (s *Service) AdjustStock(ctx context.Context, sku string, req domain.StockAdjustRequest) (domain.StockAdjustResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StockAdjustResponse{}, fmt.Errorf("admin role required")
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" || req.Delta == 0 {
		return domain.StockAdjustResponse{}, store.ErrInvalidInput
	}
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}

	if _, err := s.repo.GetProductBySKU(ctx, sku); err != nil {
		return domain.StockAdjustResponse{}, err
	}

	if req.Delta > 0 {
		if err := s.repo.IncreaseStock(ctx, req.StoreID, sku, req.Delta); err != nil {
			return domain.StockAdjustResponse{}, err
		}
	} else {
		if err := s.repo.DecreaseStock(ctx, req.StoreID, sku, -req.Delta); err != nil {
			return domain.StockAdjustResponse{}, err
		}
	}

	stock, err := s.repo.GetStockMap(ctx, req.StoreID, []string{sku})
	if err != nil {
		return domain.StockAdjustResponse{}, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "unspecified"
	}
	s.logAudit(ctx, req.StoreID, "stock_adjust", "product", sku, fmt.Sprintf("delta=%d,stock=%d,reason=%s", req.Delta, stock[sku], reason))

	return domain.StockAdjustResponse{SKU: sku, StoreID: req.StoreID, Stock: stock[sku]}, nil
}

func (s *Service) CreateDiscount(ctx context.Context, req domain.DiscountCreateRequest) (domain.Discount, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Discount{}, fmt.Errorf("admin role required")
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	if req.SKU == "" {
		return domain.Discount{}, store.ErrInvalidInput
	}

	switch req.Kind {
	case domain.DiscountKindFixed:
		if !req.Amount.IsPositive() {
			return domain.Discount{}, store.ErrInvalidInput
		}
	case domain.DiscountKindPercentage:
		if !req.Amount.IsPositive() || req.Amount.GreaterThan(decimal.NewFromInt(100)) {
			return domain.Discount{}, store.ErrInvalidInput
		}
	default:
		return domain.Discount{}, store.ErrInvalidInput
	}

	discount := domain.Discount{
		ID:        xid.New("disc"),
		SKU:       req.SKU,
		Kind:      req.Kind,
		Amount:    req.Amount,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	if strings.TrimSpace(req.ValidFrom) != "" {
		from, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			return domain.Discount{}, store.ErrInvalidInput
		}
		utc := from.UTC()
		discount.ValidFrom = &utc
	}
	if strings.TrimSpace(req.ValidUntil) != "" {
		until, err := time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			return domain.Discount{}, store.ErrInvalidInput
		}
		utc := until.UTC()
		discount.ValidUntil = &utc
	}
	if discount.ValidFrom != nil && discount.ValidUntil != nil && discount.ValidUntil.Before(*discount.ValidFrom) {
		return domain.Discount{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateDiscount(ctx, discount)
	if err != nil {
		return domain.Discount{}, err
	}

	s.logAudit(ctx, s.defaultStoreID, "discount_create", "discount", created.ID, fmt.Sprintf("sku=%s,kind=%s,amount=%s", created.SKU, created.Kind, created.Amount.String()))

	return *created, nil
}

func (s *Service) ListDiscounts(ctx context.Context, sku string) ([]domain.Discount, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	return s.repo.ListDiscounts(ctx, sku)
}

func (s *Service) SetDiscountActive(ctx context.Context, discountID string, active bool) (domain.Discount, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Discount{}, fmt.Errorf("admin role required")
	}

	if strings.TrimSpace(discountID) == "" {
		return domain.Discount{}, store.ErrInvalidInput
	}

	updated, err := s.repo.UpdateDiscountActive(ctx, discountID, active)
	if err != nil {
		return domain.Discount{}, err
	}

	s.logAudit(ctx, s.defaultStoreID, "discount_toggle", "discount", updated.ID, fmt.Sprintf("sku=%s,active=%t", updated.SKU, updated.Active))

	return *updated, nil
}

// Quote prices a cart without committing anything. Results are cached
// briefly keyed on the full request, so a terminal re-rendering the same
// cart does not re-read the catalog.
func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (domain.QuoteResponse, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodCash
	}

	normalized := normalizeItems(req.CartItems)
	if len(normalized) == 0 {
		return domain.QuoteResponse{}, store.ErrInvalidInput
	}
	req.CartItems = normalized

	key, err := quoteCacheKey(req)
	if err == nil {
		if cached, ok, cacheErr := s.quoteCache.Get(ctx, key); cacheErr == nil && ok {
			return *cached, nil
		} else if cacheErr != nil {
			log.Printf("[service] WARN: quote cache read failed: %v", cacheErr)
		}
	}

	lines, err := s.buildLineItems(ctx, normalized)
	if err != nil {
		return domain.QuoteResponse{}, err
	}

	cart, fieldErrs := pricing.EvaluateCheckout(lines, toOrderDiscount(req.OrderDiscount), req.CustomerName, req.PaymentMethod, req.AmountTendered, time.Now().UTC())
	resp := domain.QuoteResponse{
		Cart:   cart,
		Valid:  len(fieldErrs) == 0,
		Errors: fieldErrs,
	}

	if key != "" {
		if err := s.quoteCache.Set(ctx, key, &resp, s.quoteTTL); err != nil {
			log.Printf("[service] WARN: quote cache write failed: %v", err)
		}
	}

	return resp, nil
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodCash
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = xid.New("idem")
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}

	normalized := normalizeItems(req.CartItems)
	if len(normalized) == 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidInput
	}

	if existing, err := s.repo.FindOrderByIdempotency(ctx, req.IdempotencyKey); err == nil {
		return toCheckoutResponse(existing, true), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.CheckoutResponse{}, err
	}

	lines, err := s.buildLineItems(ctx, normalized)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	cart, fieldErrs := pricing.EvaluateCheckout(lines, toOrderDiscount(req.OrderDiscount), req.CustomerName, req.PaymentMethod, req.AmountTendered, time.Now().UTC())
	if len(fieldErrs) > 0 {
		return domain.CheckoutResponse{}, &ValidationError{Errors: fieldErrs}
	}

	items := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		items = append(items, domain.OrderLine{
			SKU:                line.SKU,
			Qty:                line.Qty,
			UnitPrice:          line.UnitPrice,
			EffectiveUnitPrice: line.EffectiveUnitPrice,
			AppliedDiscountID:  line.AppliedDiscountID,
		})
	}

	order := domain.Order{
		ID:                  xid.New("ord"),
		StoreID:             req.StoreID,
		TerminalID:          req.TerminalID,
		IdempotencyKey:      req.IdempotencyKey,
		CustomerName:        strings.TrimSpace(req.CustomerName),
		PaymentMethod:       req.PaymentMethod,
		OrderDiscountKind:   orderDiscountKind(req.OrderDiscount),
		OrderDiscountValue:  req.OrderDiscount.Value,
		Subtotal:            cart.Subtotal,
		OrderDiscountAmount: cart.OrderDiscountAmount,
		FinalTotal:          cart.FinalTotal,
		AmountTendered:      req.AmountTendered,
		ChangeDue:           cart.ChangeDue,
		Status:              domain.OrderStatusPaid,
		CreatedAt:           time.Now().UTC(),
		Items:               items,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if errors.Is(err, store.ErrDuplicateIdempotency) {
		// Lost a race with a concurrent checkout carrying the same key:
		// both missed the lookup above, the other one persisted first.
		// Replay its order instead of surfacing an error.
		existing, findErr := s.repo.FindOrderByIdempotency(ctx, req.IdempotencyKey)
		if findErr != nil {
			return domain.CheckoutResponse{}, findErr
		}
		return toCheckoutResponse(existing, true), nil
	}
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.logAudit(
		ctx,
		req.StoreID,
		"checkout",
		"order",
		created.ID,
		fmt.Sprintf(
			"total=%s,payment=%s,discount=%s,items=%d",
			created.FinalTotal.StringFixed(2),
			created.PaymentMethod,
			created.OrderDiscountAmount.StringFixed(2),
			len(created.Items),
		),
	)

	return toCheckoutResponse(created, false), nil
}

func (s *Service) LookupCheckoutByIdempotency(ctx context.Context, idempotencyKey string) (domain.CheckoutLookupResponse, error) {
	if idempotencyKey == "" {
		return domain.CheckoutLookupResponse{}, store.ErrInvalidInput
	}

	order, err := s.repo.FindOrderByIdempotency(ctx, idempotencyKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CheckoutLookupResponse{Found: false}, nil
		}
		return domain.CheckoutLookupResponse{}, err
	}
	checkout := toCheckoutResponse(order, false)
	return domain.CheckoutLookupResponse{Found: true, Checkout: &checkout}, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return domain.Order{}, store.ErrInvalidInput
	}
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

func (s *Service) ListOrders(ctx context.Context, storeID string, date string, limit int) ([]domain.Order, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	from, to, err := dayWindow(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, storeID, from, to, limit)
}

func (s *Service) VoidOrder(ctx context.Context, orderID string, req domain.VoidOrderRequest) (domain.VoidOrderResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.VoidOrderResponse{}, fmt.Errorf("admin role required")
	}

	if strings.TrimSpace(orderID) == "" {
		return domain.VoidOrderResponse{}, store.ErrInvalidInput
	}
	if req.Reason == "" {
		req.Reason = "unspecified"
	}

	voidedAt := time.Now().UTC()
	order, err := s.repo.VoidOrder(ctx, orderID, req.Reason, voidedAt)
	if err != nil {
		return domain.VoidOrderResponse{}, err
	}

	s.logAudit(ctx, order.StoreID, "void_order", "order", order.ID, req.Reason)

	return domain.VoidOrderResponse{
		OrderID:  order.ID,
		Status:   order.Status,
		VoidedAt: voidedAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Expense{}, fmt.Errorf("authentication required")
	}

	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || !req.Amount.IsPositive() {
		return domain.Expense{}, store.ErrInvalidInput
	}

	spentAt := time.Now().UTC()
	if strings.TrimSpace(req.SpentAt) != "" {
		parsed, err := time.Parse(time.RFC3339, req.SpentAt)
		if err != nil {
			return domain.Expense{}, store.ErrInvalidInput
		}
		spentAt = parsed.UTC()
	}

	expense := domain.Expense{
		ID:        xid.New("exp"),
		StoreID:   req.StoreID,
		Category:  req.Category,
		Note:      strings.TrimSpace(req.Note),
		Amount:    req.Amount.Round(2),
		SpentBy:   actor.Username,
		SpentAt:   spentAt,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, req.StoreID, "expense_create", "expense", created.ID, fmt.Sprintf("category=%s,amount=%s", created.Category, created.Amount.StringFixed(2)))

	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, storeID string, date string, limit int) ([]domain.Expense, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	from, to, err := dayWindow(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, storeID, from, to, limit)
}

func (s *Service) DailyReport(ctx context.Context, storeID string, date string) (domain.DailyReport, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	from, to, err := dayWindow(date)
	if err != nil {
		return domain.DailyReport{}, err
	}

	report, err := s.repo.GetDailyReport(ctx, storeID, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}
	report.StoreID = storeID
	report.Date = from.Format("2006-01-02")
	return report, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, storeID string, date string, limit int) ([]domain.AuditLog, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	if limit < 1 {
		limit = 100
	}

	from, to, err := dayWindow(date)
	if err != nil {
		return nil, err
	}

	return s.repo.ListAuditLogs(ctx, storeID, from, to, limit)
}

func (s *Service) buildLineItems(ctx context.Context, items []domain.CartItem) ([]domain.LineItem, error) {
	skus := make([]string, 0, len(items))
	for _, item := range items {
		skus = append(skus, item.SKU)
	}

	products, err := s.repo.GetProductsBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		product, exists := products[item.SKU]
		if !exists {
			return nil, fmt.Errorf("%w: unknown sku %s", store.ErrInvalidInput, item.SKU)
		}
		lines = append(lines, domain.LineItem{
			SKU:       product.SKU,
			Qty:       item.Qty,
			UnitPrice: product.UnitPrice,
			Discounts: product.Discounts,
		})
	}
	return lines, nil
}

func (s *Service) logAudit(ctx context.Context, storeID string, action string, entityType string, entityID string, detail string) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		StoreID:       storeID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func toCheckoutResponse(order *domain.Order, duplicate bool) domain.CheckoutResponse {
	itemCount := 0
	for _, line := range order.Items {
		itemCount += line.Qty
	}

	return domain.CheckoutResponse{
		OrderID:             order.ID,
		Status:              order.Status,
		PaymentMethod:       order.PaymentMethod,
		CustomerName:        order.CustomerName,
		Subtotal:            order.Subtotal,
		OrderDiscountAmount: order.OrderDiscountAmount,
		FinalTotal:          order.FinalTotal,
		AmountTendered:      order.AmountTendered,
		ChangeDue:           order.ChangeDue,
		ItemCount:           itemCount,
		Duplicate:           duplicate,
		CreatedAt:           order.CreatedAt.Format(time.RFC3339),
	}
}

func normalizeItems(items []domain.CartItem) []domain.CartItem {
	merged := make(map[string]int, len(items))
	for _, item := range items {
		sku := strings.ToUpper(strings.TrimSpace(item.SKU))
		if sku == "" || item.Qty < 1 {
			continue
		}
		merged[sku] += item.Qty
	}

	skus := make([]string, 0, len(merged))
	for sku := range merged {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	normalized := make([]domain.CartItem, 0, len(skus))
	for _, sku := range skus {
		normalized = append(normalized, domain.CartItem{SKU: sku, Qty: merged[sku]})
	}
	return normalized
}

func toOrderDiscount(od domain.OrderDiscount) domain.OrderDiscount {
	if od.Kind == "" {
		od.Kind = domain.DiscountKindNone
	}
	return od
}

func orderDiscountKind(od domain.OrderDiscount) string {
	if od.Kind == "" {
		return domain.DiscountKindNone
	}
	return od.Kind
}

func quoteCacheKey(req domain.QuoteRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "quote:" + hex.EncodeToString(sum[:]), nil
}

func dayWindow(date string) (time.Time, time.Time, error) {
	var from time.Time
	if strings.TrimSpace(date) == "" {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrInvalidInput
		}
		from = parsed.UTC()
	}
	return from, from.Add(24 * time.Hour), nil
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentMethodCash, domain.PaymentMethodCard:
		return true
	}
	return false
}
