// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mmeshcher/zoomarket-system/internal/model"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже существующим логином.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrListingNotFound возвращается, если объявление не найдено в каталоге.
	ErrListingNotFound = errors.New("listing not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProofNotFound возвращается, если к заказу не приложено подтверждение оплаты.
	ErrProofNotFound = errors.New("payment proof not found")
	// ErrNotificationNotFound возвращается, если уведомление не найдено у пользователя.
	ErrNotificationNotFound = errors.New("notification not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure или Deadlocks.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (login, password_hash) VALUES ($1, $2) RETURNING id`,
		login, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, login)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByLogin возвращает пользователя по логину.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, is_staff, created_at FROM users WHERE login = $1`,
		login,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, is_staff, created_at FROM users WHERE id = $1`,
		id,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// CreateListing сохраняет новое объявление каталога.
func (r *PostgresRepository) CreateListing(ctx context.Context, l *model.Listing) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO listings (id, name, category, breed, weight_grams, price_cents, availability)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.Name, l.Category, l.Breed, l.WeightGrams, l.PriceCents, string(l.Availability),
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// GetListing возвращает объявление по идентификатору.
func (r *PostgresRepository) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, category, breed, weight_grams, price_cents, availability, created_at
		 FROM listings WHERE id = $1`,
		id,
	)

	var l model.Listing
	var availability string
	err := row.Scan(&l.ID, &l.Name, &l.Category, &l.Breed, &l.WeightGrams, &l.PriceCents, &availability, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	l.Availability = model.Availability(availability)

	return &l, nil
}

// ListListings возвращает каталог объявлений, новые первыми.
func (r *PostgresRepository) ListListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, category, breed, weight_grams, price_cents, availability, created_at
		 FROM listings
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var availability string
		if err := rows.Scan(&l.ID, &l.Name, &l.Category, &l.Breed, &l.WeightGrams, &l.PriceCents, &availability, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		l.Availability = model.Availability(availability)
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return listings, nil
}

// GetAvailability возвращает текущую доступность объявления.
func (r *PostgresRepository) GetAvailability(ctx context.Context, id string) (model.Availability, error) {
	var availability string
	err := r.pool.QueryRow(ctx,
		`SELECT availability FROM listings WHERE id = $1`,
		id,
	).Scan(&availability)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrListingNotFound
		}
		return "", fmt.Errorf("get availability: %w", err)
	}
	return model.Availability(availability), nil
}

// ConditionalSetAvailability атомарно переводит availability объявления из expected в next.
// Возвращает false, если текущее значение не совпало с expected (или объявление не найдено) —
// проверка и запись выполняются одним условным UPDATE и не могут разойтись с конкурентным вызовом.
func (r *PostgresRepository) ConditionalSetAvailability(ctx context.Context, id string, expected, next model.Availability) (bool, error) {
	var cmdTag pgconn.CommandTag
	err := r.withRetry(ctx, func() error {
		var execErr error
		cmdTag, execErr = r.pool.Exec(ctx,
			`UPDATE listings SET availability = $3 WHERE id = $1 AND availability = $2`,
			id, string(expected), string(next),
		)
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("conditional set availability: %w", err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// CreateOrder сохраняет заказ вместе со снимками позиций в одной транзакции.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, total_cents, status) VALUES ($1, $2, $3, $4)`,
		o.ID, o.UserID, o.TotalCents, string(o.Status),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (order_id, listing_id, name, category, breed, weight_grams, price_cents, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, item.ListingID, item.Name, item.Category, item.Breed, item.WeightGrams, item.PriceCents, i,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetOrder возвращает заказ с позициями по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, total_cents, status, rejection_reason, proof IS NOT NULL, created_at
		 FROM orders WHERE id = $1`,
		id,
	)

	var o model.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.TotalCents, &status, &o.RejectionReason, &o.HasProof, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = model.OrderStatus(status)

	items, err := r.getOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *PostgresRepository) getOrderItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT listing_id, name, category, breed, weight_grams, price_cents
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY position`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ListingID, &it.Name, &it.Category, &it.Breed, &it.WeightGrams, &it.PriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// GetOrdersByUser возвращает заказы пользователя с позициями, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, total_cents, status, rejection_reason, proof IS NOT NULL, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents, &status, &o.RejectionReason, &o.HasProof, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = model.OrderStatus(status)
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		items, err := r.getOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// UpdateOrderStatus обновляет статус заказа и причину отклонения оплаты.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, rejectionReason string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, rejection_reason = $3 WHERE id = $1`,
		id, string(status), rejectionReason,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// AttachProof сохраняет подтверждение оплаты, заменяя предыдущее, и
// возвращает заказ в статус PROCESSING со сброшенной причиной отклонения.
func (r *PostgresRepository) AttachProof(ctx context.Context, orderID string, blob []byte, contentType string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET proof = $2, proof_content_type = $3, status = $4, rejection_reason = ''
		 WHERE id = $1`,
		orderID, blob, contentType, string(model.OrderStatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("attach proof: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetProof возвращает подтверждение оплаты заказа и его content-type.
func (r *PostgresRepository) GetProof(ctx context.Context, orderID string) ([]byte, string, error) {
	var blob []byte
	var contentType string
	err := r.pool.QueryRow(ctx,
		`SELECT proof, proof_content_type FROM orders WHERE id = $1`,
		orderID,
	).Scan(&blob, &contentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrOrderNotFound
		}
		return nil, "", fmt.Errorf("get proof: %w", err)
	}

	if blob == nil {
		return nil, "", ErrProofNotFound
	}

	return blob, contentType, nil
}

// GetBasket возвращает объявления из корзины пользователя.
func (r *PostgresRepository) GetBasket(ctx context.Context, userID int64) ([]model.Listing, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.name, l.category, l.breed, l.weight_grams, l.price_cents, l.availability, l.created_at
		 FROM basket_items b
		 JOIN listings l ON l.id = b.listing_id
		 WHERE b.user_id = $1
		 ORDER BY b.added_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select basket: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var availability string
		if err := rows.Scan(&l.ID, &l.Name, &l.Category, &l.Breed, &l.WeightGrams, &l.PriceCents, &availability, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan basket listing: %w", err)
		}
		l.Availability = model.Availability(availability)
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return listings, nil
}

// AddBasketItem добавляет объявление в корзину пользователя. Повторное добавление — no-op.
func (r *PostgresRepository) AddBasketItem(ctx context.Context, userID int64, listingID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO basket_items (user_id, listing_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, listing_id) DO NOTHING`,
		userID, listingID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
		}
		return fmt.Errorf("insert basket item: %w", err)
	}
	return nil
}

// RemoveBasketItem убирает объявление из корзины пользователя.
func (r *PostgresRepository) RemoveBasketItem(ctx context.Context, userID int64, listingID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM basket_items WHERE user_id = $1 AND listing_id = $2`,
		userID, listingID,
	)
	if err != nil {
		return fmt.Errorf("delete basket item: %w", err)
	}
	return nil
}

// ClearBasket очищает корзину пользователя.
func (r *PostgresRepository) ClearBasket(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM basket_items WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("clear basket: %w", err)
	}
	return nil
}

// AppendNotification добавляет запись во входящие уведомления пользователя.
func (r *PostgresRepository) AppendNotification(ctx context.Context, n *model.Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, message, severity) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.UserID, n.Title, n.Message, n.Severity,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetNotificationsByUser возвращает уведомления пользователя, новые первыми.
func (r *PostgresRepository) GetNotificationsByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, message, severity, seen, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var res []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Severity, &n.Seen, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		res = append(res, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkNotificationSeen отмечает уведомление пользователя прочитанным.
func (r *PostgresRepository) MarkNotificationSeen(ctx context.Context, userID int64, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET seen = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification seen: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
