package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountKindFixed      = "fixed"
	DiscountKindPercentage = "percentage"
	DiscountKindNone       = "none"
)

const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

const (
	OrderStatusPaid   = "paid"
	OrderStatusVoided = "voided"
)

// Discount is a per-product discount. It is active at instant T when
// ValidFrom <= T and (ValidUntil is nil or ValidUntil >= T).
type Discount struct {
	ID         string          `json:"id"`
	SKU        string          `json:"sku"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	ValidFrom  *time.Time      `json:"valid_from,omitempty"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Product struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    bool            `json:"active"`
	Discounts []Discount      `json:"discounts,omitempty"`
}

type ProductCreateRequest struct {
	StoreID      string          `json:"store_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	InitialStock int             `json:"initial_stock"`
}

type ProductUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	Category  *string          `json:"category,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Active    *bool            `json:"active,omitempty"`
}

// StockAdjustRequest moves a product's stock level by Delta, positive for a
// restock and negative for a correction (damage, loss, miscount).
type StockAdjustRequest struct {
	StoreID string `json:"store_id"`
	Delta   int    `json:"delta"`
	Reason  string `json:"reason"`
}

type StockAdjustResponse struct {
	SKU     string `json:"sku"`
	StoreID string `json:"store_id"`
	Stock   int    `json:"stock"`
}

type ProductPriceHistory struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	ChangedBy string          `json:"changed_by"`
	ChangedAt time.Time       `json:"changed_at"`
}

type DiscountCreateRequest struct {
	SKU        string          `json:"sku"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	ValidFrom  string          `json:"valid_from,omitempty"`
	ValidUntil string          `json:"valid_until,omitempty"`
}

type DiscountToggleRequest struct {
	Active bool `json:"active"`
}

type CartItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// LineItem is one cart entry ready for pricing: the undiscounted unit price
// plus every discount candidate attached to the product, in catalog order.
type LineItem struct {
	SKU       string          `json:"sku"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discounts []Discount      `json:"discounts,omitempty"`
}

// OrderDiscount applies to the cart subtotal as a whole, after per-line
// discounts. Distinct from the per-product Discount.
type OrderDiscount struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type PricedLine struct {
	SKU                string          `json:"sku"`
	Qty                int             `json:"qty"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	EffectiveUnitPrice decimal.Decimal `json:"effective_unit_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
	AppliedDiscountID  string          `json:"applied_discount_id,omitempty"`
}

type PricedCart struct {
	Lines               []PricedLine    `json:"lines"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	OrderDiscountAmount decimal.Decimal `json:"order_discount_amount"`
	FinalTotal          decimal.Decimal `json:"final_total"`
	ChangeDue           decimal.Decimal `json:"change_due"`
}

type QuoteRequest struct {
	StoreID        string          `json:"store_id"`
	CartItems      []CartItem      `json:"cart_items"`
	OrderDiscount  OrderDiscount   `json:"order_discount"`
	CustomerName   string          `json:"customer_name"`
	PaymentMethod  string          `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
}

type QuoteResponse struct {
	Cart   PricedCart   `json:"cart"`
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError attributes a validation failure to a specific input field so
// the UI can render it inline rather than as a toast.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

type CheckoutRequest struct {
	StoreID        string          `json:"store_id"`
	TerminalID     string          `json:"terminal_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	CartItems      []CartItem      `json:"cart_items"`
	OrderDiscount  OrderDiscount   `json:"order_discount"`
	CustomerName   string          `json:"customer_name"`
	PaymentMethod  string          `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
}

type CheckoutResponse struct {
	OrderID             string          `json:"order_id"`
	Status              string          `json:"status"`
	PaymentMethod       string          `json:"payment_method"`
	CustomerName        string          `json:"customer_name"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	OrderDiscountAmount decimal.Decimal `json:"order_discount_amount"`
	FinalTotal          decimal.Decimal `json:"final_total"`
	AmountTendered      decimal.Decimal `json:"amount_tendered"`
	ChangeDue           decimal.Decimal `json:"change_due"`
	ItemCount           int             `json:"item_count"`
	Duplicate           bool            `json:"duplicate"`
	CreatedAt           string          `json:"created_at"`
}

type CheckoutLookupResponse struct {
	Found    bool              `json:"found"`
	Checkout *CheckoutResponse `json:"checkout,omitempty"`
}

type OrderLine struct {
	SKU                string
	Qty                int
	UnitPrice          decimal.Decimal
	EffectiveUnitPrice decimal.Decimal
	AppliedDiscountID  string
}

type Order struct {
	ID                  string
	StoreID             string
	TerminalID          string
	IdempotencyKey      string
	CustomerName        string
	PaymentMethod       string
	OrderDiscountKind   string
	OrderDiscountValue  decimal.Decimal
	Subtotal            decimal.Decimal
	OrderDiscountAmount decimal.Decimal
	FinalTotal          decimal.Decimal
	AmountTendered      decimal.Decimal
	ChangeDue           decimal.Decimal
	Status              string
	VoidReason          string
	VoidedAt            *time.Time
	CreatedAt           time.Time
	Items               []OrderLine
}

type VoidOrderRequest struct {
	Reason string `json:"reason"`
}

type VoidOrderResponse struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	VoidedAt string `json:"voided_at"`
}

type Expense struct {
	ID        string          `json:"id"`
	StoreID   string          `json:"store_id"`
	Category  string          `json:"category"`
	Note      string          `json:"note"`
	Amount    decimal.Decimal `json:"amount"`
	SpentBy   string          `json:"spent_by"`
	SpentAt   time.Time       `json:"spent_at"`
	CreatedAt time.Time       `json:"created_at"`
}

type ExpenseCreateRequest struct {
	StoreID  string          `json:"store_id"`
	Category string          `json:"category"`
	Note     string          `json:"note"`
	Amount   decimal.Decimal `json:"amount"`
	SpentAt  string          `json:"spent_at,omitempty"`
}

type DailyReportPayment struct {
	PaymentMethod string          `json:"payment_method"`
	Orders        int64           `json:"orders"`
	Total         decimal.Decimal `json:"total"`
}

type DailyReport struct {
	StoreID       string               `json:"store_id"`
	Date          string               `json:"date"`
	Orders        int64                `json:"orders"`
	GrossSales    decimal.Decimal      `json:"gross_sales"`
	DiscountTotal decimal.Decimal      `json:"discount_total"`
	NetSales      decimal.Decimal      `json:"net_sales"`
	ExpenseTotal  decimal.Decimal      `json:"expense_total"`
	ByPayment     []DailyReportPayment `json:"by_payment"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
