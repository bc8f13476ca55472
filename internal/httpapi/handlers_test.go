package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warungpos/backend/internal/cache"
	"warungpos/backend/internal/service"
	"warungpos/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NoopQuoteCache{}, 5*time.Second, "main-store")
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, repo)

	return New(svc, auth, "*").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s failed: %d (%s)", username, rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	return body.AccessToken
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestLoginRateLimit(t *testing.T) {
	handler := newTestAPI(t)

	// The login limiter allows 5 attempts per minute per client IP;
	// httptest requests all share RemoteAddr 192.0.2.1:1234.
	var last int
	for i := 0; i < 6; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "admin",
			"password": "badpass",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on sixth attempt, got %d", last)
	}
}

func TestProductsRequireAuth(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestCashierCannotCreateProduct(t *testing.T) {
	handler := newTestAPI(t)
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", token, map[string]any{
		"sku":        "SKU-BARU-01",
		"name":       "Minyak Goreng 1L",
		"category":   "grocery",
		"unit_price": "21500",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAdminCreatesAndListsProduct(t *testing.T) {
	handler := newTestAPI(t)
	token := login(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", token, map[string]any{
		"sku":           "SKU-BARU-01",
		"name":          "Minyak Goreng 1L",
		"category":      "grocery",
		"unit_price":    "21500",
		"initial_stock": 40,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	listRec := doJSON(t, handler, http.MethodGet, "/api/v1/products", token, nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	var body struct {
		Products []struct {
			SKU string `json:"sku"`
		} `json:"products"`
	}
	if err := json.NewDecoder(listRec.Body).Decode(&body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	found := false
	for _, p := range body.Products {
		if p.SKU == "SKU-BARU-01" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected created product in listing")
	}
}

func TestAdminAdjustsStock(t *testing.T) {
	handler := newTestAPI(t)
	admin := login(t, handler, "admin", "admin123")
	cashier := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products/SKU-MIE-01/stock", cashier, map[string]any{
		"delta": -5,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/products/SKU-MIE-01/stock", admin, map[string]any{
		"delta":  -5,
		"reason": "damaged in storage",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Stock struct {
			SKU   string `json:"sku"`
			Stock int    `json:"stock"`
		} `json:"stock"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode stock response: %v", err)
	}
	if body.Stock.SKU != "SKU-MIE-01" || body.Stock.Stock != 115 {
		t.Fatalf("expected SKU-MIE-01 at 115, got %+v", body.Stock)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/products/SKU-MIE-01/stock", admin, map[string]any{
		"delta": -1000,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for oversized write-off, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestQuoteAppliesDiscount(t *testing.T) {
	handler := newTestAPI(t)
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/cart/quote", token, map[string]any{
		"cart_items":      []map[string]any{{"sku": "SKU-KOPI-01", "qty": 2}},
		"payment_method":  "cash",
		"amount_tendered": "10000",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Valid bool `json:"valid"`
		Cart  struct {
			Subtotal  string `json:"subtotal"`
			ChangeDue string `json:"change_due"`
		} `json:"cart"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if !body.Valid {
		t.Fatalf("expected valid quote, body: %+v", body)
	}
	if body.Cart.Subtotal != "4600" {
		t.Fatalf("expected subtotal 4600, got %s", body.Cart.Subtotal)
	}
	if body.Cart.ChangeDue != "5400" {
		t.Fatalf("expected change 5400, got %s", body.Cart.ChangeDue)
	}
}

func TestCheckoutAndIdempotentReplay(t *testing.T) {
	handler := newTestAPI(t)
	token := login(t, handler, "cashier", "cashier123")

	payload := map[string]any{
		"terminal_id":     "terminal-a1",
		"idempotency_key": "idem-http-1",
		"cart_items":      []map[string]any{{"sku": "SKU-MIE-01", "qty": 2}},
		"payment_method":  "cash",
		"amount_tendered": "10000",
	}

	first := doJSON(t, handler, http.MethodPost, "/api/v1/checkout", token, payload)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", first.Code, first.Body.String())
	}
	var firstBody struct {
		OrderID   string `json:"order_id"`
		Duplicate bool   `json:"duplicate"`
	}
	if err := json.NewDecoder(first.Body).Decode(&firstBody); err != nil {
		t.Fatalf("decode first checkout: %v", err)
	}
	if firstBody.Duplicate {
		t.Fatalf("first checkout must not be a duplicate")
	}

	replay := doJSON(t, handler, http.MethodPost, "/api/v1/checkout", token, payload)
	if replay.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d (%s)", replay.Code, replay.Body.String())
	}
	var replayBody struct {
		OrderID   string `json:"order_id"`
		Duplicate bool   `json:"duplicate"`
	}
	if err := json.NewDecoder(replay.Body).Decode(&replayBody); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if !replayBody.Duplicate || replayBody.OrderID != firstBody.OrderID {
		t.Fatalf("expected duplicate replay of %s, got %+v", firstBody.OrderID, replayBody)
	}
}

func TestCheckoutValidationReturns422(t *testing.T) {
	handler := newTestAPI(t)
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checkout", token, map[string]any{
		"idempotency_key": "idem-http-bad",
		"cart_items":      []map[string]any{{"sku": "SKU-MIE-01", "qty": 1}},
		"order_discount":  map[string]any{"kind": "percentage", "value": "150"},
		"customer_name":   "Jane O'Brien",
		"payment_method":  "cash",
		"amount_tendered": "1",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Errors []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if len(body.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %+v", body.Errors)
	}
}

func TestVoidOrderFlow(t *testing.T) {
	handler := newTestAPI(t)
	cashierToken := login(t, handler, "cashier", "cashier123")
	adminToken := login(t, handler, "admin", "admin123")

	checkout := doJSON(t, handler, http.MethodPost, "/api/v1/checkout", cashierToken, map[string]any{
		"idempotency_key": "idem-http-void",
		"cart_items":      []map[string]any{{"sku": "SKU-MIE-01", "qty": 1}},
		"payment_method":  "cash",
		"amount_tendered": "5000",
	})
	if checkout.Code != http.StatusCreated {
		t.Fatalf("checkout failed: %d (%s)", checkout.Code, checkout.Body.String())
	}
	var created struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(checkout.Body).Decode(&created); err != nil {
		t.Fatalf("decode checkout: %v", err)
	}

	denied := doJSON(t, handler, http.MethodPost, "/api/v1/orders/"+created.OrderID+"/void", cashierToken, map[string]any{"reason": "test"})
	if denied.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier void, got %d", denied.Code)
	}

	voided := doJSON(t, handler, http.MethodPost, "/api/v1/orders/"+created.OrderID+"/void", adminToken, map[string]any{"reason": "wrong items"})
	if voided.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", voided.Code, voided.Body.String())
	}
	var voidBody struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(voided.Body).Decode(&voidBody); err != nil {
		t.Fatalf("decode void: %v", err)
	}
	if voidBody.Status != "voided" {
		t.Fatalf("expected voided status, got %s", voidBody.Status)
	}
}

func TestAuditLogsAdminOnly(t *testing.T) {
	handler := newTestAPI(t)
	cashierToken := login(t, handler, "cashier", "cashier123")
	adminToken := login(t, handler, "admin", "admin123")

	denied := doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs", cashierToken, nil)
	if denied.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", denied.Code)
	}

	allowed := doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs", adminToken, nil)
	if allowed.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", allowed.Code)
	}
}
