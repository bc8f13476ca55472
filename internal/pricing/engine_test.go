package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedDiscount(id string, amount string) domain.Discount {
	return domain.Discount{ID: id, Kind: domain.DiscountKindFixed, Amount: dec(amount), Active: true}
}

func percentDiscount(id string, amount string) domain.Discount {
	return domain.Discount{ID: id, Kind: domain.DiscountKindPercentage, Amount: dec(amount), Active: true}
}

func TestApplyFixedDiscountNeverNegative(t *testing.T) {
	cases := []struct {
		price    string
		amount   string
		expected string
	}{
		{"100", "10", "90"},
		{"50", "50", "0"},
		{"50", "80", "0"},
		{"0", "10", "0"},
		{"19.99", "0.99", "19"},
	}
	for _, tc := range cases {
		d := fixedDiscount("d1", tc.amount)
		got := ApplyDiscount(dec(tc.price), &d)
		if !got.Equal(dec(tc.expected)) {
			t.Fatalf("fixed %s off %s: got %s, want %s", tc.amount, tc.price, got, tc.expected)
		}
	}
}

func TestApplyPercentageDiscountWithinBounds(t *testing.T) {
	cases := []struct {
		price    string
		amount   string
		expected string
	}{
		{"100", "10", "90"},
		{"100", "0", "100"},
		{"100", "100", "0"},
		{"80", "25", "60"},
	}
	for _, tc := range cases {
		d := percentDiscount("d1", tc.amount)
		got := ApplyDiscount(dec(tc.price), &d)
		if !got.Equal(dec(tc.expected)) {
			t.Fatalf("%s%% off %s: got %s, want %s", tc.amount, tc.price, got, tc.expected)
		}
		if got.IsNegative() || got.GreaterThan(dec(tc.price)) {
			t.Fatalf("%s%% off %s: result %s outside [0, price]", tc.amount, tc.price, got)
		}
	}
}

func TestApplyDiscountNilLeavesPriceUnchanged(t *testing.T) {
	got := ApplyDiscount(dec("42.50"), nil)
	if !got.Equal(dec("42.50")) {
		t.Fatalf("nil discount changed price: %s", got)
	}
}

func TestResolveActiveDiscountFirstMatchWins(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	small := fixedDiscount("small", "1")
	big := fixedDiscount("big", "20")

	// The first active candidate wins even when a later one is larger.
	got := ResolveActiveDiscount([]domain.Discount{small, big}, now)
	if got == nil || got.ID != "small" {
		t.Fatalf("expected first active discount, got %+v", got)
	}
}

func TestResolveActiveDiscountValidityWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	expired := fixedDiscount("expired", "5")
	expired.ValidFrom = &past
	until := now.Add(-time.Hour)
	expired.ValidUntil = &until

	upcoming := fixedDiscount("upcoming", "5")
	upcoming.ValidFrom = &future

	current := fixedDiscount("current", "5")
	current.ValidFrom = &past
	current.ValidUntil = &future

	inactive := fixedDiscount("inactive", "5")
	inactive.Active = false

	got := ResolveActiveDiscount([]domain.Discount{expired, upcoming, inactive, current}, now)
	if got == nil || got.ID != "current" {
		t.Fatalf("expected the in-window discount, got %+v", got)
	}

	if got := ResolveActiveDiscount([]domain.Discount{expired, upcoming}, now); got != nil {
		t.Fatalf("expected no active discount, got %+v", got)
	}
}

func TestResolveActiveDiscountOpenEndedWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	open := fixedDiscount("open", "5")
	open.ValidFrom = &past

	if got := ResolveActiveDiscount([]domain.Discount{open}, now); got == nil || got.ID != "open" {
		t.Fatalf("expected open-ended discount to be active, got %+v", got)
	}
}

func TestComputeSubtotalPermutationInvariant(t *testing.T) {
	now := time.Now().UTC()
	lines := []domain.LineItem{
		{SKU: "A", Qty: 3, UnitPrice: dec("12.35")},
		{SKU: "B", Qty: 1, UnitPrice: dec("0.07")},
		{SKU: "C", Qty: 7, UnitPrice: dec("99.99"), Discounts: []domain.Discount{percentDiscount("p", "15")}},
		{SKU: "D", Qty: 2, UnitPrice: dec("5.55"), Discounts: []domain.Discount{fixedDiscount("f", "1.11")}},
	}
	reversed := []domain.LineItem{lines[3], lines[2], lines[1], lines[0]}

	a := ComputeSubtotal(lines, now)
	b := ComputeSubtotal(reversed, now)
	if !a.Equal(b) {
		t.Fatalf("subtotal depends on line order: %s vs %s", a, b)
	}
}

func TestValidateOrderDiscountRuleOrder(t *testing.T) {
	subtotal := dec("1000")

	if amount, err := ValidateOrderDiscount(domain.DiscountKindNone, dec("0"), subtotal); err != nil || !amount.IsZero() {
		t.Fatalf("none discount should be valid with amount 0, got %s / %v", amount, err)
	}
	// Zero-valued discounts are valid regardless of kind.
	if amount, err := ValidateOrderDiscount(domain.DiscountKindPercentage, dec("0"), subtotal); err != nil || !amount.IsZero() {
		t.Fatalf("zero percentage should be valid, got %s / %v", amount, err)
	}

	if _, err := ValidateOrderDiscount(domain.DiscountKindPercentage, dec("150"), subtotal); err == nil || err.Code != CodeDiscountOutOfRange {
		t.Fatalf("expected DiscountOutOfRange, got %v", err)
	}

	if _, err := ValidateOrderDiscount(domain.DiscountKindFixed, dec("1200"), subtotal); err == nil || err.Code != CodeDiscountExceedsSubtotal {
		t.Fatalf("expected DiscountExceedsSubtotal, got %v", err)
	}

	amount, err := ValidateOrderDiscount(domain.DiscountKindFixed, dec("200"), subtotal)
	if err != nil {
		t.Fatalf("fixed 200 against 1000 should pass: %v", err)
	}
	if !amount.Equal(dec("200")) {
		t.Fatalf("expected amount 200, got %s", amount)
	}

	amount, err = ValidateOrderDiscount(domain.DiscountKindPercentage, dec("10"), subtotal)
	if err != nil {
		t.Fatalf("percentage 10 should pass: %v", err)
	}
	if !amount.Equal(dec("100")) {
		t.Fatalf("expected amount 100, got %s", amount)
	}
}

func TestValidateCustomerName(t *testing.T) {
	if err := ValidateCustomerName(""); err != nil {
		t.Fatalf("empty name must be valid: %v", err)
	}
	if err := ValidateCustomerName("Budi Santoso 2"); err != nil {
		t.Fatalf("plain name must be valid: %v", err)
	}

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateCustomerName(string(long)); err == nil || err.Code != CodeNameTooLong {
		t.Fatalf("expected NameTooLong, got %v", err)
	}

	// Apostrophes are rejected: punctuation of any kind is outside the
	// accepted character set.
	if err := ValidateCustomerName("Jane O'Brien"); err == nil || err.Code != CodeNameInvalidCharacters {
		t.Fatalf("expected NameInvalidCharacters for apostrophe, got %v", err)
	}
	if err := ValidateCustomerName("Anne-Marie"); err == nil || err.Code != CodeNameInvalidCharacters {
		t.Fatalf("expected NameInvalidCharacters for hyphen, got %v", err)
	}
}

func TestValidatePayment(t *testing.T) {
	if err := ValidatePayment(dec("800"), dec("800"), domain.PaymentMethodCash); err != nil {
		t.Fatalf("exact cash tender must pass: %v", err)
	}
	if got := ChangeDue(dec("800"), dec("800")); !got.IsZero() {
		t.Fatalf("expected zero change, got %s", got)
	}

	if err := ValidatePayment(dec("799.99"), dec("800"), domain.PaymentMethodCash); err == nil || err.Code != CodeInsufficientPayment {
		t.Fatalf("expected InsufficientPayment, got %v", err)
	}

	// Card tender below total is accepted; sufficiency is the processor's
	// problem, and the change clamp keeps change at zero.
	if err := ValidatePayment(dec("0"), dec("800"), domain.PaymentMethodCard); err != nil {
		t.Fatalf("card under-tender must pass locally: %v", err)
	}
	if got := ChangeDue(dec("0"), dec("800")); !got.IsZero() {
		t.Fatalf("expected zero change on card under-tender, got %s", got)
	}

	if err := ValidatePayment(dec("-1"), dec("800"), domain.PaymentMethodCard); err == nil || err.Code != CodeNegativeAmount {
		t.Fatalf("expected NegativeAmount, got %v", err)
	}
}

func TestEvaluateCheckoutEndToEnd(t *testing.T) {
	now := time.Now().UTC()
	lines := []domain.LineItem{
		{SKU: "A", Qty: 2, UnitPrice: dec("100")},
		{SKU: "B", Qty: 1, UnitPrice: dec("50"), Discounts: []domain.Discount{fixedDiscount("f10", "10")}},
	}

	cart, errs := EvaluateCheckout(lines, domain.OrderDiscount{Kind: domain.DiscountKindPercentage, Value: dec("10")}, "Budi", domain.PaymentMethodCash, dec("300"), now)
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if !cart.Subtotal.Equal(dec("240")) {
		t.Fatalf("subtotal: got %s, want 240", cart.Subtotal)
	}
	if !cart.OrderDiscountAmount.Equal(dec("24")) {
		t.Fatalf("order discount: got %s, want 24", cart.OrderDiscountAmount)
	}
	if !cart.FinalTotal.Equal(dec("216")) {
		t.Fatalf("final total: got %s, want 216", cart.FinalTotal)
	}
	if !cart.ChangeDue.Equal(dec("84")) {
		t.Fatalf("change due: got %s, want 84", cart.ChangeDue)
	}
	if cart.Lines[1].AppliedDiscountID != "f10" {
		t.Fatalf("expected discount f10 applied to line B, got %q", cart.Lines[1].AppliedDiscountID)
	}
}

func TestEvaluateCheckoutCollectsOneErrorPerCategory(t *testing.T) {
	now := time.Now().UTC()
	lines := []domain.LineItem{{SKU: "A", Qty: 1, UnitPrice: dec("100")}}

	cart, errs := EvaluateCheckout(lines, domain.OrderDiscount{Kind: domain.DiscountKindPercentage, Value: dec("150")}, "Jane O'Brien", domain.PaymentMethodCash, dec("10"), now)
	if len(errs) != 3 {
		t.Fatalf("expected one error per category, got %v", errs)
	}

	byField := map[string]string{}
	for _, fe := range errs {
		byField[fe.Field] = fe.Code
	}
	if byField[FieldOrderDiscount] != CodeDiscountOutOfRange {
		t.Fatalf("discount category: got %q", byField[FieldOrderDiscount])
	}
	if byField[FieldCustomerName] != CodeNameInvalidCharacters {
		t.Fatalf("name category: got %q", byField[FieldCustomerName])
	}
	if byField[FieldAmountTendered] != CodeInsufficientPayment {
		t.Fatalf("payment category: got %q", byField[FieldAmountTendered])
	}

	// ChangeDue is defined only when validation passes.
	if !cart.ChangeDue.IsZero() {
		t.Fatalf("change due must be zero on invalid checkout, got %s", cart.ChangeDue)
	}
}

func TestEvaluateCheckoutFinalTotalClampedAtZero(t *testing.T) {
	now := time.Now().UTC()
	lines := []domain.LineItem{{SKU: "A", Qty: 1, UnitPrice: dec("10"), Discounts: []domain.Discount{percentDiscount("all", "100")}}}

	cart, errs := EvaluateCheckout(lines, domain.OrderDiscount{Kind: domain.DiscountKindNone}, "", domain.PaymentMethodCash, dec("0"), now)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !cart.FinalTotal.IsZero() {
		t.Fatalf("expected zero final total, got %s", cart.FinalTotal)
	}
}

func TestEngineIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	lines := []domain.LineItem{
		{SKU: "A", Qty: 2, UnitPrice: dec("19.99"), Discounts: []domain.Discount{percentDiscount("p", "12.5")}},
		{SKU: "B", Qty: 5, UnitPrice: dec("3.33")},
	}
	discount := domain.OrderDiscount{Kind: domain.DiscountKindFixed, Value: dec("4")}

	first, errs1 := EvaluateCheckout(lines, discount, "Sari", domain.PaymentMethodCash, dec("60"), now)
	second, errs2 := EvaluateCheckout(lines, discount, "Sari", domain.PaymentMethodCash, dec("60"), now)
	if len(errs1) != 0 || len(errs2) != 0 {
		t.Fatalf("unexpected errors: %v %v", errs1, errs2)
	}
	if !first.Subtotal.Equal(second.Subtotal) || !first.FinalTotal.Equal(second.FinalTotal) || !first.ChangeDue.Equal(second.ChangeDue) {
		t.Fatalf("identical inputs produced different outputs: %+v vs %+v", first, second)
	}
}
