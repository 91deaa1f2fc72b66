// Package service реализует бизнес-логику сервиса зоомаркет.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/zoomarket-system/internal/model"
	"github.com/mmeshcher/zoomarket-system/internal/repository"
)

// ErrIllegalTransition возвращается при недопустимом переходе статуса заказа.
var (
	ErrIllegalTransition = errors.New("illegal order status transition")
	// ErrForbidden возвращается, если заказ принадлежит другому пользователю.
	ErrForbidden = errors.New("order belongs to another user")
	// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	CreateListing(ctx context.Context, l *model.Listing) error
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	ListListings(ctx context.Context) ([]model.Listing, error)
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, rejectionReason string) error
	AttachProof(ctx context.Context, orderID string, blob []byte, contentType string) error
	GetProof(ctx context.Context, orderID string) ([]byte, string, error)
	GetBasket(ctx context.Context, userID int64) ([]model.Listing, error)
	AddBasketItem(ctx context.Context, userID int64, listingID string) error
	RemoveBasketItem(ctx context.Context, userID int64, listingID string) error
	ClearBasket(ctx context.Context, userID int64) error
	AppendNotification(ctx context.Context, n *model.Notification) error
	GetNotificationsByUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationSeen(ctx context.Context, userID int64, id string) error
}

// Reserver описывает контракт координатора резервирования объявлений.
type Reserver interface {
	Reserve(ctx context.Context, ids []string) error
	Release(ctx context.Context, ids []string) error
}

// Service содержит бизнес-логику сервиса зоомаркет.
type Service struct {
	repo     Repository
	reserver Reserver
	logger   *zap.Logger
}

// NewService создаёт новый сервис с указанным репозиторием и координатором резервирования.
func NewService(repo Repository, reserver Reserver, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		reserver: reserver,
		logger:   logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, login, password string) (int64, error) {
	hashed := hashPassword(login, password)
	id, err := s.repo.CreateUser(ctx, login, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет логин и пароль пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (*model.User, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}

	hashed := hashPassword(login, password)
	if subtle.ConstantTimeCompare(hashed, u.PasswordHash) != 1 {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// IsStaff сообщает, имеет ли пользователь права сотрудника.
func (s *Service) IsStaff(ctx context.Context, userID int64) (bool, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsStaff, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// CreateListing добавляет объявление в каталог. Новое объявление доступно для заказа.
func (s *Service) CreateListing(ctx context.Context, l *model.Listing) (*model.Listing, error) {
	l.ID = uuid.NewString()
	l.Availability = model.AvailabilityAvailable

	if err := s.repo.CreateListing(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetListing возвращает объявление каталога.
func (s *Service) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	return s.repo.GetListing(ctx, id)
}

// ListListings возвращает каталог объявлений.
func (s *Service) ListListings(ctx context.Context) ([]model.Listing, error) {
	return s.repo.ListListings(ctx)
}

// GetBasket возвращает корзину пользователя.
func (s *Service) GetBasket(ctx context.Context, userID int64) ([]model.Listing, error) {
	return s.repo.GetBasket(ctx, userID)
}

// AddToBasket добавляет объявление в корзину пользователя.
func (s *Service) AddToBasket(ctx context.Context, userID int64, listingID string) error {
	return s.repo.AddBasketItem(ctx, userID, listingID)
}

// RemoveFromBasket убирает объявление из корзины пользователя.
func (s *Service) RemoveFromBasket(ctx context.Context, userID int64, listingID string) error {
	return s.repo.RemoveBasketItem(ctx, userID, listingID)
}

// CreateOrder оформляет заказ: резервирует все объявления корзины пакетом
// "всё или ничего", сохраняет заказ со снимками позиций и очищает корзину.
// При недоступности части объявлений возвращает *reservation.ConflictError,
// не меняя ни одного объявления и не создавая заказ. Если заказ не удалось
// сохранить после успешного резерва, резерв снимается — объявление не может
// остаться RESERVED без сохранённого заказа.
func (s *Service) CreateOrder(ctx context.Context, userID int64, items []model.OrderItem, totalCents int64) (*model.Order, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ListingID)
	}

	if err := s.reserver.Reserve(ctx, ids); err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Items:      items,
		TotalCents: totalCents,
		Status:     model.OrderStatusProcessing,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if relErr := s.reserver.Release(ctx, ids); relErr != nil {
			s.logger.Error("release reservation after failed order persist",
				zap.Error(relErr), zap.String("orderID", order.ID))
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.repo.ClearBasket(ctx, userID); err != nil {
		// Заказ уже сохранён; неочищенная корзина не влияет на его корректность.
		s.logger.Error("clear basket after order", zap.Error(err), zap.Int64("userID", userID))
	}

	return order, nil
}

// GetOrdersByUser возвращает заказы пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// GetOrderForUser возвращает заказ, если он принадлежит указанному пользователю.
func (s *Service) GetOrderForUser(ctx context.Context, orderID string, requesterID int64) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != requesterID {
		return nil, ErrForbidden
	}
	return o, nil
}

// CancelOrder отменяет заказ по запросу владельца. Отмена допустима только из
// статуса PROCESSING; все объявления заказа возвращаются в AVAILABLE.
func (s *Service) CancelOrder(ctx context.Context, orderID string, requesterID int64) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != requesterID {
		return ErrForbidden
	}
	if o.Status != model.OrderStatusProcessing {
		return fmt.Errorf("%w: cancel from %s", ErrIllegalTransition, o.Status)
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusCancelled, ""); err != nil {
		return err
	}

	s.releaseOrderListings(ctx, o)
	return nil
}

// canStaffSet проверяет переход статуса, выполняемый сотрудником.
func canStaffSet(from, to model.OrderStatus) bool {
	if from != model.OrderStatusProcessing && from != model.OrderStatusPaymentRejected {
		return false
	}
	switch to {
	case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled, model.OrderStatusPaymentRejected:
		return true
	}
	return false
}

// SetOrderStatus выполняет переход статуса заказа от имени сотрудника.
// Допустимы переходы из PROCESSING и PAYMENT_REJECTED в SHIPPED, DELIVERED,
// CANCELLED и PAYMENT_REJECTED; при отмене объявления заказа освобождаются.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canStaffSet(o.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, status)
	}

	reason := ""
	if status == model.OrderStatusPaymentRejected {
		reason = o.RejectionReason
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, status, reason); err != nil {
		return nil, err
	}

	if status == model.OrderStatusCancelled {
		s.releaseOrderListings(ctx, o)
	}

	return s.repo.GetOrder(ctx, orderID)
}

// RejectPayment отклоняет подтверждение оплаты заказа: переводит заказ из
// PROCESSING в PAYMENT_REJECTED, сохраняет причину и уведомляет владельца.
// Объявления заказа остаются RESERVED — отклонение означает "исправьте и
// приложите заново", а не отказ от заказа.
func (s *Service) RejectPayment(ctx context.Context, orderID, reason string) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != model.OrderStatusProcessing {
		return fmt.Errorf("%w: reject from %s", ErrIllegalTransition, o.Status)
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusPaymentRejected, reason); err != nil {
		return err
	}

	s.notify(ctx, o.UserID, &model.Notification{
		Title:    "Payment rejected",
		Message:  fmt.Sprintf("Payment proof for order %s was rejected: %s", orderID, reason),
		Severity: "danger",
	})

	return nil
}

// AttachProof прикладывает подтверждение оплаты к заказу владельца, заменяя
// предыдущее. Допустимо из PROCESSING и PAYMENT_REJECTED; из PAYMENT_REJECTED
// заказ возвращается в PROCESSING со сброшенной причиной отклонения.
func (s *Service) AttachProof(ctx context.Context, orderID string, requesterID int64, blob []byte, contentType string) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != requesterID {
		return ErrForbidden
	}
	if o.Status != model.OrderStatusProcessing && o.Status != model.OrderStatusPaymentRejected {
		return fmt.Errorf("%w: attach proof in %s", ErrIllegalTransition, o.Status)
	}

	return s.repo.AttachProof(ctx, orderID, blob, contentType)
}

// GetProof возвращает подтверждение оплаты заказа владельцу или сотруднику.
func (s *Service) GetProof(ctx context.Context, orderID string, requesterID int64, staff bool) ([]byte, string, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if !staff && o.UserID != requesterID {
		return nil, "", ErrForbidden
	}

	return s.repo.GetProof(ctx, orderID)
}

// GetNotifications возвращает уведомления пользователя.
func (s *Service) GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.repo.GetNotificationsByUser(ctx, userID)
}

// MarkNotificationSeen отмечает уведомление пользователя прочитанным.
func (s *Service) MarkNotificationSeen(ctx context.Context, userID int64, id string) error {
	return s.repo.MarkNotificationSeen(ctx, userID, id)
}

// releaseOrderListings освобождает объявления заказа. Статус заказа уже
// изменён, поэтому ошибка освобождения логируется, но не возвращается:
// повторное освобождение идемпотентно и доступно оператору.
func (s *Service) releaseOrderListings(ctx context.Context, o *model.Order) {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ListingID)
	}
	if err := s.reserver.Release(ctx, ids); err != nil {
		s.logger.Error("release order listings", zap.Error(err), zap.String("orderID", o.ID))
	}
}

// notify добавляет уведомление во входящие пользователя. Ошибка доставки
// логируется и не прерывает вызвавшую операцию.
func (s *Service) notify(ctx context.Context, userID int64, n *model.Notification) {
	n.ID = uuid.NewString()
	n.UserID = userID
	if err := s.repo.AppendNotification(ctx, n); err != nil {
		s.logger.Error("append notification", zap.Error(err), zap.Int64("userID", userID))
	}
}
