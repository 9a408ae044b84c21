// Package ordersync держит локальные коллекции заказов согласованными с
// бэкендом: read-through кеш по ключу выборки и явная инвалидация после
// каждой мутации. Оптимистичных локальных правок нет — единственный путь
// изменения видимого состояния это подтверждённый бэкендом round-trip и
// последующий re-fetch.
package ordersync

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/logger"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/ordertime"
	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
)

// Backend — используемое подмножество api.Client; интерфейс ради моков.
type Backend interface {
	ListOrders(ctx context.Context, params api.ListOrdersParams) ([]models.Order, int, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*models.Order, error)
	UpdateOrder(ctx context.Context, id string, req api.UpdateOrderRequest) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	TakeOrder(ctx context.Context, id string) (*api.TakeResult, error)
	CloseOrder(ctx context.Context, id string) error
}

// ListResult — результат чтения списка. При ошибке сети Err заполнен, а
// Orders может нести последние удачные данные (Stale=true): лучше
// показать устаревший список с индикатором ошибки, чем пустой экран.
type ListResult struct {
	Orders []models.Order
	Total  int
	Stale  bool
	Err    error
}

type listEntry struct {
	orders    []models.Order
	total     int
	fetchedAt time.Time
}

type detailEntry struct {
	order     *models.Order
	fetchedAt time.Time
}

// Store — слой синхронизации поверх Backend.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	lists   map[string]*listEntry
	details map[string]*detailEntry
	ttl     time.Duration
	now     func() time.Time
	log     *logrus.Entry
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore создаёт слой синхронизации. ttl — срок свежести кеша; по его
// истечении чтение идёт в сеть, но старые данные не выбрасываются.
func NewStore(backend Backend, ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		lists:   make(map[string]*listEntry),
		details: make(map[string]*detailEntry),
		ttl:     ttl,
		now:     time.Now,
		log:     logger.WithComponent("ordersync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListOrders читает список: из кеша пока свежий, иначе из сети. Сбой
// сети не стирает последние удачные данные.
func (s *Store) ListOrders(ctx context.Context, params api.ListOrdersParams) ListResult {
	key := params.CacheKey()

	s.mu.RLock()
	entry, ok := s.lists[key]
	s.mu.RUnlock()

	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return ListResult{Orders: entry.orders, Total: entry.total}
	}

	orders, total, err := s.backend.ListOrders(ctx, params)
	if err != nil {
		if ok {
			// Устаревшие данные остаются видимыми рядом с ошибкой.
			return ListResult{Orders: entry.orders, Total: entry.total, Stale: true, Err: err}
		}
		return ListResult{Err: err}
	}

	s.mu.Lock()
	s.lists[key] = &listEntry{orders: orders, total: total, fetchedAt: s.now()}
	s.mu.Unlock()

	return ListResult{Orders: orders, Total: total}
}

// GetOrder читает заказ: из кеша пока свежий, иначе из сети, с той же
// политикой сохранения последних удачных данных.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	entry, ok := s.details[id]
	s.mu.RUnlock()

	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return entry.order, nil
	}

	order, err := s.backend.GetOrder(ctx, id)
	if err != nil {
		if ok {
			return entry.order, err
		}
		return nil, err
	}

	s.mu.Lock()
	s.details[id] = &detailEntry{order: order, fetchedAt: s.now()}
	s.mu.Unlock()

	return order, nil
}

// CreateOrder создаёт заказ и инвалидирует списочные выборки
// (включая "мои" — это тоже списочный ключ).
func (s *Store) CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*models.Order, error) {
	order, err := s.backend.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidateLists()
	return order, nil
}

// UpdateOrder обновляет изменяемые поля заказа. Смена города невозможна
// на уровне типа запроса. Инвалидация: деталь заказа + списки.
func (s *Store) UpdateOrder(ctx context.Context, id string, req api.UpdateOrderRequest) (*models.Order, error) {
	order, err := s.backend.UpdateOrder(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.invalidateDetail(id)
	s.invalidateLists()
	return order, nil
}

// DeleteOrder удаляет заказ. Инвалидация: деталь + списки.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	if err := s.backend.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.invalidateDetail(id)
	s.invalidateLists()
	return nil
}

// TakeOrder — отклик исполнителя. Перед сетью выполняется доменная
// предпроверка по известному состоянию заказа: на полный или истёкший
// заказ запрос не уходит вовсе. Никакого оптимистичного инкремента
// счётчика откликов — только инвалидация и re-fetch после подтверждения.
func (s *Store) TakeOrder(ctx context.Context, id string) (*api.TakeResult, error) {
	if known := s.cachedOrder(id); known != nil {
		now := s.now()
		if ordertime.TakenCount(known) >= models.MaxExecutorsPerOrder {
			return nil, apperror.ErrExecutorLimit
		}
		if ordertime.IsExpired(known, now) {
			return nil, apperror.ErrOrderExpired
		}
		if known.Status != models.OrderStatusActive {
			return nil, apperror.ErrOrderNotActive
		}
	}

	result, err := s.backend.TakeOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidateDetail(id)
	s.invalidateLists()
	return result, nil
}

// CloseOrder переводит заказ в терминальное состояние.
func (s *Store) CloseOrder(ctx context.Context, id string) error {
	if err := s.backend.CloseOrder(ctx, id); err != nil {
		return err
	}
	s.invalidateDetail(id)
	s.invalidateLists()
	return nil
}

// cachedOrder ищет заказ в детальном кеше, затем в списочных выборках.
func (s *Store) cachedOrder(id string) *models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.details[id]; ok {
		return entry.order
	}
	for _, entry := range s.lists {
		for i := range entry.orders {
			if entry.orders[i].ID == id {
				return &entry.orders[i]
			}
		}
	}
	return nil
}

func (s *Store) invalidateLists() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.lists {
		delete(s.lists, key)
	}
	s.log.Debug("списочные выборки инвалидированы")
}

func (s *Store) invalidateDetail(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.details, id)
}
