package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/zoomarket-system/internal/middleware"
	"github.com/mmeshcher/zoomarket-system/internal/model"
	"github.com/mmeshcher/zoomarket-system/internal/repository"
	"github.com/mmeshcher/zoomarket-system/internal/reservation"
	"github.com/mmeshcher/zoomarket-system/internal/service"
)

type stubService struct {
	registerUserID int64
	registerErr    error

	authUser *model.User
	authErr  error

	staff bool

	listings    []model.Listing
	listingsErr error

	createOrderResp *model.Order
	createOrderErr  error

	ordersResp []model.Order
	ordersErr  error

	cancelErr error

	setStatusResp *model.Order
	setStatusErr  error

	rejectErr error

	attachProofErr error

	proofBlob []byte
	proofErr  error

	notifications []model.Notification
}

func (s *stubService) RegisterUser(ctx context.Context, login, password string) (int64, error) {
	return s.registerUserID, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, login, password string) (*model.User, error) {
	return s.authUser, s.authErr
}

func (s *stubService) IsStaff(ctx context.Context, userID int64) (bool, error) {
	return s.staff, nil
}

func (s *stubService) CreateListing(ctx context.Context, l *model.Listing) (*model.Listing, error) {
	l.ID = "c0a80101-0000-4000-8000-000000000099"
	l.Availability = model.AvailabilityAvailable
	return l, nil
}

func (s *stubService) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	for i := range s.listings {
		if s.listings[i].ID == id {
			return &s.listings[i], nil
		}
	}
	return nil, repository.ErrListingNotFound
}

func (s *stubService) ListListings(ctx context.Context) ([]model.Listing, error) {
	return s.listings, s.listingsErr
}

func (s *stubService) GetBasket(ctx context.Context, userID int64) ([]model.Listing, error) {
	return s.listings, nil
}

func (s *stubService) AddToBasket(ctx context.Context, userID int64, listingID string) error {
	return nil
}

func (s *stubService) RemoveFromBasket(ctx context.Context, userID int64, listingID string) error {
	return nil
}

func (s *stubService) CreateOrder(ctx context.Context, userID int64, items []model.OrderItem, totalCents int64) (*model.Order, error) {
	return s.createOrderResp, s.createOrderErr
}

func (s *stubService) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.ordersResp, s.ordersErr
}

func (s *stubService) GetOrderForUser(ctx context.Context, orderID string, requesterID int64) (*model.Order, error) {
	if s.createOrderResp != nil && s.createOrderResp.ID == orderID {
		return s.createOrderResp, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (s *stubService) CancelOrder(ctx context.Context, orderID string, requesterID int64) error {
	return s.cancelErr
}

func (s *stubService) SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	return s.setStatusResp, s.setStatusErr
}

func (s *stubService) RejectPayment(ctx context.Context, orderID, reason string) error {
	return s.rejectErr
}

func (s *stubService) AttachProof(ctx context.Context, orderID string, requesterID int64, blob []byte, contentType string) error {
	return s.attachProofErr
}

func (s *stubService) GetProof(ctx context.Context, orderID string, requesterID int64, staff bool) ([]byte, string, error) {
	return s.proofBlob, "image/png", s.proofErr
}

func (s *stubService) GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.notifications, nil
}

func (s *stubService) MarkNotificationSeen(ctx context.Context, userID int64, id string) error {
	return nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth, "4100 1234 5678")
}

// doAuthed выполняет запрос через полный роутер с cookie пользователя 1.
func doAuthed(t *testing.T, h *Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	cookieRec := httptest.NewRecorder()
	h.authMiddleware.SetAuthCookie(cookieRec, 1)
	req.AddCookie(cookieRec.Result().Cookies()[0])

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	svc := &stubService{registerUserID: 42}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(credentialsRequest{Login: "user", Password: "pass"})

	req := httptest.NewRequest(http.MethodPost, "/api/user/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusOK)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatalf("auth cookie not set")
	}
}

func TestLogin_UnauthorizedOnBadCredentials(t *testing.T) {
	svc := &stubService{authErr: service.ErrInvalidCredentials}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(credentialsRequest{Login: "user", Password: "wrong"})

	req := httptest.NewRequest(http.MethodPost, "/api/user/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestCreateOrder_Success(t *testing.T) {
	svc := &stubService{
		createOrderResp: &model.Order{
			ID:     "c0a80101-0000-4000-8000-00000000000f",
			UserID: 1,
			Status: model.OrderStatusProcessing,
			Items: []model.OrderItem{
				{ListingID: "c0a80101-0000-4000-8000-000000000001", Name: "Gosling", PriceCents: 20000},
				{ListingID: "c0a80101-0000-4000-8000-000000000002", Name: "Duckling", PriceCents: 30000},
			},
			TotalCents: 50000,
		},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createOrderRequest{
		Items: []orderItemRequest{
			{ListingID: "c0a80101-0000-4000-8000-000000000001", Name: "Gosling", Price: 200},
			{ListingID: "c0a80101-0000-4000-8000-000000000002", Name: "Duckling", Price: 300},
		},
		Total: 500,
	})

	rec := doAuthed(t, h, http.MethodPost, "/api/user/orders", body, nil)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Result().StatusCode, http.StatusOK, rec.Body.String())
	}

	var resp orderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(model.OrderStatusProcessing) {
		t.Fatalf("order status = %s, want PROCESSING", resp.Status)
	}
	if resp.Total != 500 {
		t.Fatalf("order total = %v, want 500", resp.Total)
	}
}

func TestCreateOrder_ConflictListsUnavailable(t *testing.T) {
	svc := &stubService{
		createOrderErr: &reservation.ConflictError{IDs: []string{"c0a80101-0000-4000-8000-000000000002"}},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createOrderRequest{
		Items: []orderItemRequest{
			{ListingID: "c0a80101-0000-4000-8000-000000000002", Name: "Duckling", Price: 300},
		},
		Total: 300,
	})

	rec := doAuthed(t, h, http.MethodPost, "/api/user/orders", body, nil)

	if rec.Result().StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusConflict)
	}

	var resp map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp["unavailable"]) != 1 || resp["unavailable"][0] != "c0a80101-0000-4000-8000-000000000002" {
		t.Fatalf("unavailable = %v", resp["unavailable"])
	}
}

func TestCreateOrder_TotalMismatch(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(createOrderRequest{
		Items: []orderItemRequest{
			{ListingID: "c0a80101-0000-4000-8000-000000000001", Name: "Gosling", Price: 200},
		},
		Total: 999,
	})

	rec := doAuthed(t, h, http.MethodPost, "/api/user/orders", body, nil)

	if rec.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestCancelOrder_IllegalTransition(t *testing.T) {
	svc := &stubService{
		cancelErr: fmt.Errorf("%w: cancel from SHIPPED", service.ErrIllegalTransition),
	}
	h := newTestHandler(t, svc)

	rec := doAuthed(t, h, http.MethodPost, "/api/user/orders/o1/cancel", nil, nil)

	if rec.Result().StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusConflict)
	}
}

func TestCancelOrder_Forbidden(t *testing.T) {
	svc := &stubService{cancelErr: service.ErrForbidden}
	h := newTestHandler(t, svc)

	rec := doAuthed(t, h, http.MethodPost, "/api/user/orders/o1/cancel", nil, nil)

	if rec.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusForbidden)
	}
}

func TestGetOrders_NoContent(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := doAuthed(t, h, http.MethodGet, "/api/user/orders", nil, nil)

	if rec.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusNoContent)
	}
}

func TestStaffEndpoints_ForbiddenForRegularUser(t *testing.T) {
	svc := &stubService{staff: false}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(setStatusRequest{Status: "SHIPPED"})
	rec := doAuthed(t, h, http.MethodPost, "/api/staff/orders/o1/status", body, nil)

	if rec.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusForbidden)
	}
}

func TestSetOrderStatus_Staff(t *testing.T) {
	svc := &stubService{
		staff: true,
		setStatusResp: &model.Order{
			ID:     "o1",
			UserID: 2,
			Status: model.OrderStatusShipped,
		},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(setStatusRequest{Status: "SHIPPED"})
	rec := doAuthed(t, h, http.MethodPost, "/api/staff/orders/o1/status", body, nil)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Result().StatusCode, http.StatusOK, rec.Body.String())
	}

	var resp orderResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "SHIPPED" {
		t.Fatalf("order status = %s, want SHIPPED", resp.Status)
	}
}

func TestSetOrderStatus_UnknownStatusRejected(t *testing.T) {
	svc := &stubService{staff: true}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(setStatusRequest{Status: "EXPLODED"})
	rec := doAuthed(t, h, http.MethodPost, "/api/staff/orders/o1/status", body, nil)

	if rec.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestAttachProof_EmptyBodyRejected(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := doAuthed(t, h, http.MethodPost, "/api/user/orders/o1/proof", nil, map[string]string{
		"Content-Type": "image/png",
	})

	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestGetProof_NotFound(t *testing.T) {
	svc := &stubService{proofErr: repository.ErrProofNotFound}
	h := newTestHandler(t, svc)

	rec := doAuthed(t, h, http.MethodGet, "/api/user/orders/o1/proof", nil, nil)

	if rec.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusNotFound)
	}
}

func TestGetProof_ServesBlob(t *testing.T) {
	svc := &stubService{proofBlob: []byte("scan bytes")}
	h := newTestHandler(t, svc)

	rec := doAuthed(t, h, http.MethodGet, "/api/user/orders/o1/proof", nil, nil)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusOK)
	}
	if ct := rec.Result().Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content-type = %q, want image/png", ct)
	}
	if rec.Body.String() != "scan bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestGetPaymentAddress(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	rec := doAuthed(t, h, http.MethodGet, "/api/user/payment-address", nil, nil)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusOK)
	}

	var resp paymentAddressResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PaymentAddress != "4100 1234 5678" {
		t.Fatalf("payment address = %q", resp.PaymentAddress)
	}
}

func TestListListings_Public(t *testing.T) {
	svc := &stubService{
		listings: []model.Listing{
			{
				ID:           "c0a80101-0000-4000-8000-000000000001",
				Name:         "Gosling",
				PriceCents:   20000,
				Availability: model.AvailabilityAvailable,
			},
		},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusOK)
	}

	var resp []listingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Price != 200 {
		t.Fatalf("unexpected listings: %+v", resp)
	}
}
