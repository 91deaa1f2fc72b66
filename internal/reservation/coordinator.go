// Package reservation реализует координатор резервирования объявлений.
//
// Координатор не держит собственных блокировок: единицей взаимного
// исключения служит условное обновление availability отдельного
// объявления в хранилище, поэтому он корректен и при нескольких
// экземплярах сервиса над одной БД.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mmeshcher/zoomarket-system/internal/model"
	"github.com/mmeshcher/zoomarket-system/internal/repository"
)

// ListingStore описывает контракт хранилища объявлений, используемый координатором.
type ListingStore interface {
	GetAvailability(ctx context.Context, id string) (model.Availability, error)
	ConditionalSetAvailability(ctx context.Context, id string, expected, next model.Availability) (bool, error)
}

// ConflictError возвращается, когда часть объявлений из пакета недоступна.
// IDs перечисляет именно те идентификаторы, которые не удалось зарезервировать.
type ConflictError struct {
	IDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("listings unavailable: %s", strings.Join(e.IDs, ", "))
}

// Coordinator резервирует и освобождает объявления пакетами "всё или ничего".
type Coordinator struct {
	store ListingStore
}

// NewCoordinator создаёт координатор поверх указанного хранилища объявлений.
func NewCoordinator(store ListingStore) *Coordinator {
	return &Coordinator{store: store}
}

// Reserve атомарно переводит все перечисленные объявления из AVAILABLE в RESERVED.
// При любой неудаче уже переведённые в этом же пакете объявления возвращаются
// в AVAILABLE до возврата ошибки — частичный резерв не переживает вызов.
// Недоступные объявления возвращаются в *ConflictError целиком, чтобы клиент
// мог скорректировать корзину без перебора.
func (c *Coordinator) Reserve(ctx context.Context, ids []string) error {
	ids = normalize(ids)
	if len(ids) == 0 {
		return errors.New("empty listing batch")
	}

	// Предварительная проверка собирает полный список конфликтов.
	// Сама по себе она ничего не гарантирует — гонку закрывает
	// условное обновление ниже.
	var conflicts []string
	for _, id := range ids {
		availability, err := c.store.GetAvailability(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				conflicts = append(conflicts, id)
				continue
			}
			return fmt.Errorf("check availability %s: %w", id, err)
		}
		if availability != model.AvailabilityAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{IDs: conflicts}
	}

	reserved := make([]string, 0, len(ids))
	for _, id := range ids {
		ok, err := c.store.ConditionalSetAvailability(ctx, id, model.AvailabilityAvailable, model.AvailabilityReserved)
		if err != nil {
			c.rollback(ctx, reserved)
			return fmt.Errorf("reserve %s: %w", id, err)
		}
		if !ok {
			// Конкурент успел первым между проверкой и обновлением.
			c.rollback(ctx, reserved)
			return &ConflictError{IDs: []string{id}}
		}
		reserved = append(reserved, id)
	}

	return nil
}

// Release безусловно возвращает объявления в AVAILABLE. Идемпотентна:
// освобождение уже свободного объявления — no-op, а не ошибка.
func (c *Coordinator) Release(ctx context.Context, ids []string) error {
	ids = normalize(ids)

	var firstErr error
	for _, id := range ids {
		_, err := c.store.ConditionalSetAvailability(ctx, id, model.AvailabilityReserved, model.AvailabilityAvailable)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release %s: %w", id, err)
		}
	}

	return firstErr
}

func (c *Coordinator) rollback(ctx context.Context, reserved []string) {
	for _, id := range reserved {
		// Ошибки отката здесь некуда вернуть: вызов уже завершается ошибкой
		// резервирования, а повторный Release идемпотентен.
		_, _ = c.store.ConditionalSetAvailability(ctx, id, model.AvailabilityReserved, model.AvailabilityAvailable)
	}
}

// normalize убирает дубликаты и сортирует идентификаторы, чтобы пересекающиеся
// пакеты обходили объявления в одном порядке.
func normalize(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}
