// Package pricing computes discount-aware cart totals and validates checkout
// input. Every function is pure: amounts are exact decimals, nothing is cached
// between calls, and identical inputs always produce identical outputs.
package pricing

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
)

// Validation error codes. All of them are recoverable by correcting input.
const (
	CodeDiscountOutOfRange      = "discount_out_of_range"
	CodeDiscountExceedsSubtotal = "discount_exceeds_subtotal"
	CodeNameTooLong             = "name_too_long"
	CodeNameInvalidCharacters   = "name_invalid_characters"
	CodeNegativeAmount          = "negative_amount"
	CodeInsufficientPayment     = "insufficient_payment"
)

const (
	FieldOrderDiscount  = "order_discount"
	FieldCustomerName   = "customer_name"
	FieldAmountTendered = "amount_tendered"
)

const maxCustomerNameLen = 50

var hundred = decimal.NewFromInt(100)

// Letters, digits and whitespace only. Punctuation, including apostrophes
// and hyphens, is rejected.
var customerNamePattern = regexp.MustCompile(`^[A-Za-z0-9\s]*$`)

// ResolveActiveDiscount returns the first candidate active at now, in input
// order, or nil when none applies. First-active-wins: a later candidate with
// a larger amount is never preferred over an earlier active one.
func ResolveActiveDiscount(candidates []domain.Discount, now time.Time) *domain.Discount {
	for i := range candidates {
		if isActiveAt(candidates[i], now) {
			return &candidates[i]
		}
	}
	return nil
}

func isActiveAt(d domain.Discount, now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.ValidFrom != nil && d.ValidFrom.After(now) {
		return false
	}
	if d.ValidUntil != nil && d.ValidUntil.Before(now) {
		return false
	}
	return true
}

// ApplyDiscount returns the effective unit price after the given discount.
// A fixed discount larger than the price floors the result at zero; that is
// a clamp, not an error.
func ApplyDiscount(unitPrice decimal.Decimal, d *domain.Discount) decimal.Decimal {
	if d == nil {
		return unitPrice
	}

	var effective decimal.Decimal
	switch d.Kind {
	case domain.DiscountKindFixed:
		effective = unitPrice.Sub(d.Amount)
	case domain.DiscountKindPercentage:
		effective = unitPrice.Mul(decimal.NewFromInt(1).Sub(d.Amount.Div(hundred)))
	default:
		return unitPrice
	}

	if effective.IsNegative() {
		return decimal.Zero
	}
	return effective
}

// PriceLines resolves each line's active discount at now and computes its
// total. The result order follows the input order.
func PriceLines(lines []domain.LineItem, now time.Time) []domain.PricedLine {
	priced := make([]domain.PricedLine, 0, len(lines))
	for _, line := range lines {
		active := ResolveActiveDiscount(line.Discounts, now)
		effective := ApplyDiscount(line.UnitPrice, active)

		pl := domain.PricedLine{
			SKU:                line.SKU,
			Qty:                line.Qty,
			UnitPrice:          line.UnitPrice,
			EffectiveUnitPrice: effective,
			LineTotal:          effective.Mul(decimal.NewFromInt(int64(line.Qty))),
		}
		if active != nil {
			pl.AppliedDiscountID = active.ID
		}
		priced = append(priced, pl)
	}
	return priced
}

// ComputeSubtotal sums effective unit price times quantity across lines.
// Decimal addition is exact, so the sum is invariant under line reordering.
func ComputeSubtotal(lines []domain.LineItem, now time.Time) decimal.Decimal {
	subtotal := decimal.Zero
	for _, pl := range PriceLines(lines, now) {
		subtotal = subtotal.Add(pl.LineTotal)
	}
	return subtotal
}

// ValidateOrderDiscount checks an order-level discount against the current
// subtotal and returns the discount amount. Rules are evaluated in order and
// the first failing rule wins. A zero or absent discount is always valid.
// Callers must re-validate whenever the subtotal changes: a fixed discount
// valid against one subtotal may exceed a smaller one.
func ValidateOrderDiscount(kind string, value decimal.Decimal, subtotal decimal.Decimal) (decimal.Decimal, *domain.FieldError) {
	if kind == domain.DiscountKindNone || kind == "" || !value.IsPositive() {
		return decimal.Zero, nil
	}

	if kind == domain.DiscountKindPercentage && value.GreaterThan(hundred) {
		return decimal.Zero, &domain.FieldError{
			Field:   FieldOrderDiscount,
			Code:    CodeDiscountOutOfRange,
			Message: "percentage discount cannot exceed 100%",
		}
	}

	if kind == domain.DiscountKindFixed && value.GreaterThan(subtotal) {
		return decimal.Zero, &domain.FieldError{
			Field:   FieldOrderDiscount,
			Code:    CodeDiscountExceedsSubtotal,
			Message: "fixed discount cannot exceed total price",
		}
	}

	if kind == domain.DiscountKindPercentage {
		return subtotal.Mul(value).Div(hundred), nil
	}
	return value, nil
}

// ValidateCustomerName accepts the empty string (the name is optional) and
// rejects names longer than 50 characters or containing anything beyond
// letters, digits and whitespace.
func ValidateCustomerName(name string) *domain.FieldError {
	if len(name) > maxCustomerNameLen {
		return &domain.FieldError{
			Field:   FieldCustomerName,
			Code:    CodeNameTooLong,
			Message: "customer name must be at most 50 characters",
		}
	}
	if !customerNamePattern.MatchString(name) {
		return &domain.FieldError{
			Field:   FieldCustomerName,
			Code:    CodeNameInvalidCharacters,
			Message: "customer name may only contain letters, digits and spaces",
		}
	}
	return nil
}

// ValidatePayment checks tender sufficiency. Only cash is required to meet
// the final total locally; card sufficiency is the payment processor's
// responsibility.
func ValidatePayment(amountTendered decimal.Decimal, finalTotal decimal.Decimal, paymentMethod string) *domain.FieldError {
	if amountTendered.IsNegative() {
		return &domain.FieldError{
			Field:   FieldAmountTendered,
			Code:    CodeNegativeAmount,
			Message: "amount tendered cannot be negative",
		}
	}
	if paymentMethod == domain.PaymentMethodCash && amountTendered.LessThan(finalTotal) {
		return &domain.FieldError{
			Field:   FieldAmountTendered,
			Code:    CodeInsufficientPayment,
			Message: "amount tendered is less than the amount due",
		}
	}
	return nil
}

// ChangeDue is max(0, tendered - finalTotal). Over-tender on card yields
// zero change by the same clamp.
func ChangeDue(amountTendered decimal.Decimal, finalTotal decimal.Decimal) decimal.Decimal {
	change := amountTendered.Sub(finalTotal)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// EvaluateCheckout prices the cart and validates the order discount, the
// customer name and the payment independently. All three categories are
// checked and surfaced together; within each category the first failing rule
// wins. ChangeDue is populated only when every category passes.
func EvaluateCheckout(lines []domain.LineItem, orderDiscount domain.OrderDiscount, customerName string, paymentMethod string, amountTendered decimal.Decimal, now time.Time) (domain.PricedCart, []domain.FieldError) {
	priced := PriceLines(lines, now)

	subtotal := decimal.Zero
	for _, pl := range priced {
		subtotal = subtotal.Add(pl.LineTotal)
	}

	var errs []domain.FieldError

	discountAmount, discountErr := ValidateOrderDiscount(orderDiscount.Kind, orderDiscount.Value, subtotal)
	if discountErr != nil {
		errs = append(errs, *discountErr)
	}
	if nameErr := ValidateCustomerName(customerName); nameErr != nil {
		errs = append(errs, *nameErr)
	}

	finalTotal := subtotal.Sub(discountAmount)
	if finalTotal.IsNegative() {
		finalTotal = decimal.Zero
	}

	if payErr := ValidatePayment(amountTendered, finalTotal, paymentMethod); payErr != nil {
		errs = append(errs, *payErr)
	}

	cart := domain.PricedCart{
		Lines:               priced,
		Subtotal:            subtotal,
		OrderDiscountAmount: discountAmount,
		FinalTotal:          finalTotal,
		ChangeDue:           decimal.Zero,
	}
	if len(errs) == 0 {
		cart.ChangeDue = ChangeDue(amountTendered, finalTotal)
	}
	return cart, errs
}
