// Package checkout drives a single point-of-sale order from cart editing
// through validation to submission. The pricing math itself lives in the
// pricing package; a Session only sequences it and guards the submit path.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/pricing"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateValid      State = "valid"
	StateInvalid    State = "invalid"
	StateSubmitting State = "submitting"
	StateCommitted  State = "committed"
	StateFailed     State = "failed"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrNotValidated        = errors.New("checkout has not passed validation")
	ErrAlreadySubmitting   = errors.New("a submission is already in flight")
	ErrSubmissionSuspended = errors.New("cart is read-only while submitting")
)

// Submitter hands a finished checkout to the order-creation collaborator.
// Implementations must be safe for a single in-flight call at a time; the
// Session never issues two concurrently.
type Submitter interface {
	Submit(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error)
}

// Session holds one operator's in-progress order. It is safe for concurrent
// use; while a submission is in flight every mutation is rejected so a rapid
// second click cannot race the first submission's completion.
type Session struct {
	mu sync.Mutex

	state         State
	submitting    bool
	submitTimeout time.Duration

	storeID    string
	terminalID string
	submitter  Submitter

	items          map[string]int
	catalog        map[string]domain.LineItem
	orderDiscount  domain.OrderDiscount
	customerName   string
	paymentMethod  string
	amountTendered decimal.Decimal

	lastQuote  domain.PricedCart
	lastErrors []domain.FieldError
	lastResult *domain.CheckoutResponse
	lastError  string
}

func NewSession(storeID string, terminalID string, submitter Submitter, submitTimeout time.Duration) *Session {
	if submitTimeout <= 0 {
		submitTimeout = 10 * time.Second
	}
	return &Session{
		state:         StateIdle,
		submitTimeout: submitTimeout,
		storeID:       storeID,
		terminalID:    terminalID,
		submitter:     submitter,
		items:         make(map[string]int),
		catalog:       make(map[string]domain.LineItem),
		orderDiscount: domain.OrderDiscount{Kind: domain.DiscountKindNone},
		paymentMethod: domain.PaymentMethodCash,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddItem merges quantity into an existing line for the same SKU. The line
// carries the product's price and discount candidates so later evaluation
// needs no catalog access.
func (s *Session) AddItem(line domain.LineItem) error {
	if line.SKU == "" || line.Qty < 1 {
		return fmt.Errorf("invalid line: sku=%q qty=%d", line.SKU, line.Qty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionSuspended
	}

	s.items[line.SKU] += line.Qty
	s.catalog[line.SKU] = line
	s.state = StateIdle
	return nil
}

// SetQuantity sets a line's quantity; zero removes the line entirely, a
// zero-quantity line is never represented.
func (s *Session) SetQuantity(sku string, qty int) error {
	if qty < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionSuspended
	}

	if qty == 0 {
		delete(s.items, sku)
		delete(s.catalog, sku)
	} else {
		if _, ok := s.catalog[sku]; !ok {
			return fmt.Errorf("unknown sku %q", sku)
		}
		s.items[sku] = qty
	}
	s.state = StateIdle
	return nil
}

func (s *Session) RemoveItem(sku string) error {
	return s.SetQuantity(sku, 0)
}

func (s *Session) SetOrderDiscount(d domain.OrderDiscount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionSuspended
	}
	s.orderDiscount = d
	s.state = StateIdle
	return nil
}

func (s *Session) SetCustomerName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionSuspended
	}
	s.customerName = name
	s.state = StateIdle
	return nil
}

func (s *Session) SetPayment(method string, amountTendered decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionSuspended
	}
	s.paymentMethod = method
	s.amountTendered = amountTendered
	s.state = StateIdle
	return nil
}

func (s *Session) lines() []domain.LineItem {
	lines := make([]domain.LineItem, 0, len(s.items))
	for sku, qty := range s.items {
		line := s.catalog[sku]
		line.Qty = qty
		lines = append(lines, line)
	}
	return lines
}

// Evaluate re-prices the latest cart snapshot and moves the session to
// Valid or Invalid. It is always run against the full current state, never
// incrementally, so a cart mutation can never leave a stale subtotal behind.
func (s *Session) Evaluate(now time.Time) (domain.PricedCart, []domain.FieldError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluateLocked(now)
}

func (s *Session) evaluateLocked(now time.Time) (domain.PricedCart, []domain.FieldError) {
	s.state = StateValidating
	cart, errs := pricing.EvaluateCheckout(s.lines(), s.orderDiscount, s.customerName, s.paymentMethod, s.amountTendered, now)
	s.lastQuote = cart
	s.lastErrors = errs
	if len(errs) == 0 {
		s.state = StateValid
	} else {
		s.state = StateInvalid
	}
	return cart, errs
}

// CanCheckout reports whether a submission would be accepted right now:
// non-empty cart, all validation categories passing, and no submission
// already in flight.
func (s *Session) CanCheckout(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting || len(s.items) == 0 {
		return false
	}
	_, errs := s.evaluateLocked(now)
	return len(errs) == 0
}

// Submit validates the latest snapshot and, when it passes, sends the order
// to the collaborator under the session's deadline. On success the cart and
// inputs reset for the next order; on failure they are preserved unchanged
// so the operator can correct and resubmit manually. There is no automatic
// retry: a blind retry risks a duplicate order.
func (s *Session) Submit(ctx context.Context) (*domain.CheckoutResponse, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitting
	}
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}

	_, errs := s.evaluateLocked(time.Now().UTC())
	if len(errs) > 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotValidated, errs[0].Message)
	}

	req := domain.CheckoutRequest{
		StoreID:        s.storeID,
		TerminalID:     s.terminalID,
		CartItems:      s.cartItemsLocked(),
		OrderDiscount:  s.orderDiscount,
		CustomerName:   s.customerName,
		PaymentMethod:  s.paymentMethod,
		AmountTendered: s.amountTendered,
	}
	s.submitting = true
	s.state = StateSubmitting
	s.mu.Unlock()

	submitCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()
	resp, err := s.submitter.Submit(submitCtx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if err != nil {
		s.state = StateFailed
		s.lastError = err.Error()
		return nil, err
	}

	s.state = StateCommitted
	s.lastResult = resp
	s.lastError = ""
	s.resetLocked()
	return resp, nil
}

func (s *Session) cartItemsLocked() []domain.CartItem {
	items := make([]domain.CartItem, 0, len(s.items))
	for sku, qty := range s.items {
		items = append(items, domain.CartItem{SKU: sku, Qty: qty})
	}
	return items
}

// resetLocked returns the editable inputs to their defaults after a commit.
// The committed state itself is terminal for the finished order; the next
// mutation starts a fresh Idle cycle.
func (s *Session) resetLocked() {
	s.items = make(map[string]int)
	s.catalog = make(map[string]domain.LineItem)
	s.orderDiscount = domain.OrderDiscount{Kind: domain.DiscountKindNone}
	s.customerName = ""
	s.paymentMethod = domain.PaymentMethodCash
	s.amountTendered = decimal.Zero
	s.lastErrors = nil
}

// LastResult returns the response of the most recent committed submission.
func (s *Session) LastResult() *domain.CheckoutResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// LastError returns the collaborator's message from the most recent failed
// submission, empty when the last submission committed.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Snapshot returns the current cart items, for display while editing.
func (s *Session) Snapshot() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartItemsLocked()
}
