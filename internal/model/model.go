// Package model содержит доменные сущности сервиса зоомаркет.
package model

import "time"

// User представляет зарегистрированного пользователя маркетплейса.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	IsStaff      bool
	CreatedAt    time.Time
}

// Availability описывает доступность объявления для заказа.
type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityReserved  Availability = "RESERVED"
)

// Listing описывает объявление о продаже животного в каталоге.
// Описательные поля принадлежат каталогу; availability меняется
// только через координатор резервирования.
type Listing struct {
	ID           string
	Name         string
	Category     string
	Breed        string
	WeightGrams  int64
	PriceCents   int64
	Availability Availability
	CreatedAt    time.Time
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusProcessing      OrderStatus = "PROCESSING"
	OrderStatusPaymentRejected OrderStatus = "PAYMENT_REJECTED"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// OrderItem — снимок объявления на момент оформления заказа.
// Последующие правки каталога не меняют историю заказов.
type OrderItem struct {
	ListingID   string
	Name        string
	Category    string
	Breed       string
	WeightGrams int64
	PriceCents  int64
}

// Order описывает заказ пользователя.
type Order struct {
	ID              string
	UserID          int64
	Items           []OrderItem
	TotalCents      int64
	Status          OrderStatus
	RejectionReason string
	HasProof        bool
	CreatedAt       time.Time
}

// Notification описывает запись во входящих уведомлениях пользователя.
type Notification struct {
	ID        string
	UserID    int64
	Title     string
	Message   string
	Severity  string
	Seen      bool
	CreatedAt time.Time
}

// BasketItem описывает объявление, отложенное пользователем в корзину.
type BasketItem struct {
	ListingID string
	AddedAt   time.Time
}
