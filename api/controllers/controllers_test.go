package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rentease/rentease-backend/api/middleware"
	"github.com/rentease/rentease-backend/internal/auth"
	"github.com/rentease/rentease-backend/internal/billing"
	"github.com/rentease/rentease-backend/internal/checkout"
	"github.com/rentease/rentease-backend/pkg/enums"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/types"
)

type stubCheckout struct {
	customer uuid.UUID
	input    checkout.CheckoutInput
	err      error
}

func (s *stubCheckout) Execute(_ context.Context, customerID uuid.UUID, input checkout.CheckoutInput) (*checkout.Result, error) {
	s.customer = customerID
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.Result{QuotationID: uuid.New(), Orders: []checkout.VendorOrderResult{{OrderNumber: "RO202601010001"}}}, nil
}

func withActor(req *http.Request, role enums.Role) (*http.Request, types.Actor) {
	actor := types.Actor{UserID: uuid.New(), Role: role}
	return req.WithContext(middleware.WithActor(req.Context(), actor)), actor
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error.Code
}

func TestCheckoutRequiresActor(t *testing.T) {
	handler := Checkout(&stubCheckout{}, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCheckoutAcceptsEmptyBody(t *testing.T) {
	svc := &stubCheckout{}
	req, actor := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), enums.RoleCustomer)
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.customer != actor.UserID {
		t.Fatalf("checkout ran for %s, expected %s", svc.customer, actor.UserID)
	}
	if !strings.Contains(rec.Body.String(), "RO202601010001") {
		t.Fatalf("expected order number in body: %s", rec.Body.String())
	}
}

func TestCheckoutPassesDeliveryChoices(t *testing.T) {
	svc := &stubCheckout{}
	body := `{"coupon_code":"SAVE10","delivery_method":"pickup","payment_term":"partial_upfront"}`
	req, _ := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), enums.RoleCustomer)
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.input.CouponCode == nil || *svc.input.CouponCode != "SAVE10" {
		t.Fatalf("coupon code not forwarded: %+v", svc.input)
	}
	if svc.input.DeliveryMethod != "pickup" || svc.input.PaymentTerm != "partial_upfront" {
		t.Fatalf("delivery choices not forwarded: %+v", svc.input)
	}
}

func TestCheckoutMapsUnavailability(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeUnavailable, "Camera: only 0 available")}
	req, _ := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), enums.RoleCustomer)
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(pkgerrors.CodeUnavailable) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCheckoutRejectsUnknownFields(t *testing.T) {
	req, _ := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cart_id":"x"}`)), enums.RoleCustomer)
	rec := httptest.NewRecorder()
	Checkout(&stubCheckout{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

type stubInvoices struct {
	InvoiceService
	actor types.Actor
	id    uuid.UUID
}

func (s *stubInvoices) Document(_ context.Context, actor types.Actor, invoiceID uuid.UUID) ([]byte, string, error) {
	s.actor = actor
	s.id = invoiceID
	return []byte("%PDF-1.3 test"), "INV202601010001.pdf", nil
}

func (s *stubInvoices) Pay(_ context.Context, actor types.Actor, invoiceID uuid.UUID, input billing.PayInput) (*billing.PaymentResult, error) {
	if input.Method != "card" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}
	return &billing.PaymentResult{Invoice: billing.InvoiceDTO{ID: invoiceID}}, nil
}

func TestInvoicePDF(t *testing.T) {
	svc := &stubInvoices{}
	invoiceID := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+invoiceID.String()+"/pdf", nil), "invoiceId", invoiceID.String())
	req, actor := withActor(req, enums.RoleCustomer)
	rec := httptest.NewRecorder()
	InvoicePDF(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "INV202601010001.pdf") {
		t.Fatalf("missing filename: %s", rec.Header().Get("Content-Disposition"))
	}
	if svc.id != invoiceID || svc.actor.UserID != actor.UserID {
		t.Fatalf("service called with wrong identifiers")
	}
}

func TestInvoicePayRejectsBadIdentifier(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/invoices/nope/pay", strings.NewReader(`{"payment_method":"card"}`)), "invoiceId", "nope")
	req, _ = withActor(req, enums.RoleCustomer)
	rec := httptest.NewRecorder()
	InvoicePay(&stubInvoices{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestInvoicePayRequiresMethod(t *testing.T) {
	invoiceID := uuid.New().String()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), "invoiceId", invoiceID)
	req, _ = withActor(req, enums.RoleCustomer)
	rec := httptest.NewRecorder()
	InvoicePay(&stubInvoices{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

type stubAuth struct {
	refresh auth.RefreshRequest
	logout  string
}

func (s *stubAuth) Login(context.Context, auth.LoginRequest) (*auth.TokenResponse, error) {
	return &auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuth) Refresh(_ context.Context, req auth.RefreshRequest) (*auth.TokenResponse, error) {
	s.refresh = req
	return &auth.TokenResponse{AccessToken: "rotated", RefreshToken: "next"}, nil
}

func (s *stubAuth) Logout(_ context.Context, accessID string) error {
	s.logout = accessID
	return nil
}

func TestAuthRefreshFallsBackToBearer(t *testing.T) {
	svc := &stubAuth{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"r1"}`))
	req.Header.Set("Authorization", "Bearer expired-access")
	rec := httptest.NewRecorder()
	AuthRefresh(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.refresh.AccessToken != "expired-access" || svc.refresh.RefreshToken != "r1" {
		t.Fatalf("unexpected refresh request %+v", svc.refresh)
	}
	if rec.Header().Get(tokenHeader) != "rotated" {
		t.Fatalf("expected rotated token header")
	}
}

func TestAuthLogoutUsesSessionFromContext(t *testing.T) {
	svc := &stubAuth{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-123"))
	rec := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.logout != "jti-123" {
		t.Fatalf("expected session jti-123 revoked, got %q", svc.logout)
	}
}

func TestNilServicesAnswerInternalError(t *testing.T) {
	req, _ := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), enums.RoleCustomer)
	rec := httptest.NewRecorder()
	CartGet(nil, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
