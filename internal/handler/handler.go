// Package handler содержит HTTP-обработчики API сервиса зоомаркет.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/zoomarket-system/internal/middleware"
	"github.com/mmeshcher/zoomarket-system/internal/model"
	"github.com/mmeshcher/zoomarket-system/internal/repository"
	"github.com/mmeshcher/zoomarket-system/internal/reservation"
	"github.com/mmeshcher/zoomarket-system/internal/service"
	"github.com/mmeshcher/zoomarket-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, login, password string) (int64, error)
	AuthenticateUser(ctx context.Context, login, password string) (*model.User, error)
	IsStaff(ctx context.Context, userID int64) (bool, error)
	CreateListing(ctx context.Context, l *model.Listing) (*model.Listing, error)
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	ListListings(ctx context.Context) ([]model.Listing, error)
	GetBasket(ctx context.Context, userID int64) ([]model.Listing, error)
	AddToBasket(ctx context.Context, userID int64, listingID string) error
	RemoveFromBasket(ctx context.Context, userID int64, listingID string) error
	CreateOrder(ctx context.Context, userID int64, items []model.OrderItem, totalCents int64) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetOrderForUser(ctx context.Context, orderID string, requesterID int64) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID string, requesterID int64) error
	SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
	RejectPayment(ctx context.Context, orderID, reason string) error
	AttachProof(ctx context.Context, orderID string, requesterID int64, blob []byte, contentType string) error
	GetProof(ctx context.Context, orderID string, requesterID int64, staff bool) ([]byte, string, error)
	GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationSeen(ctx context.Context, userID int64, id string) error
}

// Handler реализует HTTP-обработчики API сервиса зоомаркет.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	paymentAddress string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, paymentAddress string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		paymentAddress: paymentAddress,
	}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, user.ID)
	w.WriteHeader(http.StatusOK)
}

// staffOnly пропускает запрос дальше только для пользователей с правами сотрудника.
func (h *Handler) staffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		staff, err := h.service.IsStaff(r.Context(), userID)
		if err != nil {
			h.logger.Error("staff check error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !staff {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type listingResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	Breed        string  `json:"breed,omitempty"`
	WeightGrams  int64   `json:"weight_grams,omitempty"`
	Price        float64 `json:"price"`
	Availability string  `json:"availability"`
}

func toListingResponse(l model.Listing) listingResponse {
	return listingResponse{
		ID:           l.ID,
		Name:         l.Name,
		Category:     l.Category,
		Breed:        l.Breed,
		WeightGrams:  l.WeightGrams,
		Price:        float64(l.PriceCents) / 100,
		Availability: string(l.Availability),
	}
}

// ListListings возвращает каталог объявлений.
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListListings(r.Context())
	if err != nil {
		h.logger.Error("list listings error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, toListingResponse(l))
	}

	writeJSON(w, h.logger, resp)
}

// GetListing возвращает одно объявление каталога.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "listingID")

	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get listing error", zap.Error(err), zap.String("listingID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, toListingResponse(*listing))
}

type createListingRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Breed       string  `json:"breed"`
	WeightGrams int64   `json:"weight_grams"`
	Price       float64 `json:"price"`
}

// CreateListing добавляет объявление в каталог (доступно сотрудникам).
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Price <= 0 {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	listing, err := h.service.CreateListing(r.Context(), &model.Listing{
		Name:        req.Name,
		Category:    req.Category,
		Breed:       req.Breed,
		WeightGrams: req.WeightGrams,
		PriceCents:  int64(req.Price * 100),
	})
	if err != nil {
		h.logger.Error("create listing error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, toListingResponse(*listing))
}

// GetBasket возвращает корзину текущего пользователя.
func (h *Handler) GetBasket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	listings, err := h.service.GetBasket(r.Context(), userID)
	if err != nil {
		h.logger.Error("get basket error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, toListingResponse(l))
	}

	writeJSON(w, h.logger, resp)
}

type addBasketRequest struct {
	ListingID string `json:"listing_id"`
}

// AddToBasket добавляет объявление в корзину текущего пользователя.
func (h *Handler) AddToBasket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req addBasketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidListingID(req.ListingID) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.AddToBasket(r.Context(), userID, req.ListingID); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("add to basket error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RemoveFromBasket убирает объявление из корзины текущего пользователя.
func (h *Handler) RemoveFromBasket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	listingID := pathParam(r, "listingID")

	if err := h.service.RemoveFromBasket(r.Context(), userID, listingID); err != nil {
		h.logger.Error("remove from basket error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type orderItemRequest struct {
	ListingID   string  `json:"listing_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Breed       string  `json:"breed"`
	WeightGrams int64   `json:"weight_grams"`
	Price       float64 `json:"price"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items"`
	Total float64            `json:"total"`
}

type orderItemResponse struct {
	ListingID   string  `json:"listing_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Breed       string  `json:"breed,omitempty"`
	WeightGrams int64   `json:"weight_grams,omitempty"`
	Price       float64 `json:"price"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Items           []orderItemResponse `json:"items"`
	Total           float64             `json:"total"`
	Status          string              `json:"status"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	HasProof        bool                `json:"has_proof"`
	CreatedAt       string              `json:"created_at"`
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ListingID:   it.ListingID,
			Name:        it.Name,
			Category:    it.Category,
			Breed:       it.Breed,
			WeightGrams: it.WeightGrams,
			Price:       float64(it.PriceCents) / 100,
		})
	}

	return orderResponse{
		ID:              o.ID,
		Items:           items,
		Total:           float64(o.TotalCents) / 100,
		Status:          string(o.Status),
		RejectionReason: o.RejectionReason,
		HasProof:        o.HasProof,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
}

// CreateOrder оформляет заказ из переданной корзины.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if len(req.Items) == 0 {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	prices := make([]int64, 0, len(req.Items))
	for _, it := range req.Items {
		if !validation.IsValidListingID(it.ListingID) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		priceCents := int64(it.Price * 100)
		prices = append(prices, priceCents)
		items = append(items, model.OrderItem{
			ListingID:   it.ListingID,
			Name:        it.Name,
			Category:    it.Category,
			Breed:       it.Breed,
			WeightGrams: it.WeightGrams,
			PriceCents:  priceCents,
		})
	}

	totalCents := int64(req.Total * 100)
	if !validation.OrderTotalMatches(prices, totalCents) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, items, totalCents)
	if err != nil {
		var conflict *reservation.ConflictError
		if errors.As(err, &conflict) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string][]string{"unavailable": conflict.IDs})
			return
		}
		h.logger.Error("create order error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, toOrderResponse(order))
}

// GetOrders возвращает список заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}

	writeJSON(w, h.logger, resp)
}

// GetOrder возвращает заказ текущего пользователя.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID := pathParam(r, "orderID")

	order, err := h.service.GetOrderForUser(r.Context(), orderID, userID)
	if err != nil {
		h.writeOrderError(w, err, orderID)
		return
	}

	writeJSON(w, h.logger, toOrderResponse(order))
}

// CancelOrder отменяет заказ текущего пользователя.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID := pathParam(r, "orderID")

	if err := h.service.CancelOrder(r.Context(), orderID, userID); err != nil {
		h.writeOrderError(w, err, orderID)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetOrderStatus выполняет переход статуса заказа от имени сотрудника.
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := pathParam(r, "orderID")

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	status := model.OrderStatus(req.Status)
	switch status {
	case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled, model.OrderStatusPaymentRejected:
	default:
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	order, err := h.service.SetOrderStatus(r.Context(), orderID, status)
	if err != nil {
		h.writeOrderError(w, err, orderID)
		return
	}

	writeJSON(w, h.logger, toOrderResponse(order))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectPayment отклоняет подтверждение оплаты заказа от имени сотрудника.
func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	orderID := pathParam(r, "orderID")

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Reason == "" {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.RejectPayment(r.Context(), orderID, req.Reason); err != nil {
		h.writeOrderError(w, err, orderID)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// AttachProof принимает подтверждение оплаты заказа от его владельца.
func (h *Handler) AttachProof(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID := pathParam(r, "orderID")

	defer r.Body.Close()
	blob, err := io.ReadAll(r.Body)
	if err != nil || len(blob) == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.service.AttachProof(r.Context(), orderID, userID, blob, contentType); err != nil {
		h.writeOrderError(w, err, orderID)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetProof отдаёт подтверждение оплаты заказа владельцу.
func (h *Handler) GetProof(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.serveProof(w, r, userID, false)
}

// GetProofStaff отдаёт подтверждение оплаты любого заказа сотруднику.
func (h *Handler) GetProofStaff(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.serveProof(w, r, userID, true)
}

func (h *Handler) serveProof(w http.ResponseWriter, r *http.Request, userID int64, staff bool) {
	orderID := pathParam(r, "orderID")

	blob, contentType, err := h.service.GetProof(r.Context(), orderID, userID, staff)
	if err != nil {
		if errors.Is(err, repository.ErrProofNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.writeOrderError(w, err, orderID)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		h.logger.Error("write proof error", zap.Error(err), zap.String("orderID", orderID))
	}
}

type notificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Seen      bool   `json:"seen"`
	CreatedAt string `json:"created_at"`
}

// GetNotifications возвращает уведомления текущего пользователя.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	notifications, err := h.service.GetNotifications(r.Context(), userID)
	if err != nil {
		h.logger.Error("get notifications error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(notifications) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Severity:  n.Severity,
			Seen:      n.Seen,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, h.logger, resp)
}

// MarkNotificationSeen отмечает уведомление текущего пользователя прочитанным.
func (h *Handler) MarkNotificationSeen(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id := pathParam(r, "notificationID")

	if err := h.service.MarkNotificationSeen(r.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("mark notification error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type paymentAddressResponse struct {
	PaymentAddress string `json:"payment_address"`
}

// GetPaymentAddress возвращает адрес для оплаты заказов.
func (h *Handler) GetPaymentAddress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, paymentAddressResponse{PaymentAddress: h.paymentAddress})
}

// writeOrderError переводит ошибки операций над заказом в HTTP-статусы.
func (h *Handler) writeOrderError(w http.ResponseWriter, err error, orderID string) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, service.ErrIllegalTransition):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	default:
		h.logger.Error("order operation error", zap.Error(err), zap.String("orderID", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response error", zap.Error(err))
	}
}
