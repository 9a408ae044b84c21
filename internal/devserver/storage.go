// Package devserver — мок бэкенда в памяти, реализующий wire-контракт
// mini app. Нужен, чтобы клиентский движок запускался и тестировался в
// обычном браузере без настоящего бэкенда; серверные инварианты, на
// которые полагается клиент (потолок откликов, write-once город,
// уникальность отзывов), здесь соблюдаются честно.
package devserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
)

// Серверные константы мока.
const (
	initialBalance   = 500.0
	invoicePaidAfter = 9 * time.Second // счёт "оплачивается" сам спустя три опроса
)

type claimRecord struct {
	ExecutorID int64
	TakenAt    time.Time
}

type orderRecord struct {
	ID                  string
	CustomerID          int64
	Category            string
	City                string
	Description         string
	Contact             string
	CreatedAt           time.Time
	ExpiresInMinutes    int
	Status              string
	TakenBy             []claimRecord
	CustomerRespondedAt *time.Time
}

type reviewRecord struct {
	ID        string
	OrderID   string
	AuthorID  int64
	Role      string
	Rating    int
	Reason    string
	Comment   string
	CreatedAt time.Time
}

type paymentRecord struct {
	ID        string
	UserID    int64
	Amount    float64
	CreatedAt time.Time
	Status    string
}

// memStore — хранилище мока. Всё состояние живёт в памяти процесса.
type memStore struct {
	mu         sync.Mutex
	orders     map[string]*orderRecord
	orderList  []string // порядок вставки
	reviews    []reviewRecord
	payments   map[string]*paymentRecord
	balances   map[int64]float64
	cities     []string
	claimPrice float64
	now        func() time.Time
}

func newMemStore(claimPrice float64) *memStore {
	return &memStore{
		orders:     make(map[string]*orderRecord),
		payments:   make(map[string]*paymentRecord),
		balances:   make(map[int64]float64),
		cities:     []string{"Москва", "Санкт-Петербург", "Казань", "Новосибирск", "Екатеринбург"},
		claimPrice: claimPrice,
		now:        time.Now,
	}
}

// reconcile лениво сверяет статус заказа с арифметикой времени: истёкшие
// и брошенные заказчиком заказы получают терминальный статус при чтении.
func (s *memStore) reconcile(rec *orderRecord) {
	if rec.Status != models.OrderStatusActive {
		return
	}
	now := s.now()

	deadline := rec.CreatedAt.Add(time.Duration(rec.ExpiresInMinutes) * time.Minute)
	if !now.Before(deadline) {
		rec.Status = models.OrderStatusExpired
		return
	}

	if rec.CustomerRespondedAt == nil && len(rec.TakenBy) > 0 {
		earliest := rec.TakenBy[0].TakenAt
		for _, claim := range rec.TakenBy[1:] {
			if claim.TakenAt.Before(earliest) {
				earliest = claim.TakenAt
			}
		}
		if now.Sub(earliest) >= models.NoResponseTimeout {
			rec.Status = models.OrderStatusClosedNoResponse
		}
	}
}

// toWire переводит запись в wire-формат. Контакт отдаётся только
// участникам заказа (владелец или откликнувшийся исполнитель), остальным
// уходит null.
func (s *memStore) toWire(rec *orderRecord, viewerID int64) api.OrderResponse {
	var contact *string
	if rec.Contact != "" && s.isParticipant(rec, viewerID) {
		c := rec.Contact
		contact = &c
	}

	takenBy := make([]api.TakenByWire, 0, len(rec.TakenBy))
	for _, claim := range rec.TakenBy {
		takenBy = append(takenBy, api.TakenByWire{
			ExecutorID: claim.ExecutorID,
			TakenAt:    claim.TakenAt.UTC().Format(time.RFC3339),
		})
	}

	var respondedAt *string
	if rec.CustomerRespondedAt != nil {
		v := rec.CustomerRespondedAt.UTC().Format(time.RFC3339)
		respondedAt = &v
	}

	return api.OrderResponse{
		ID:                  rec.ID,
		CustomerID:          rec.CustomerID,
		Category:            rec.Category,
		City:                rec.City,
		Description:         rec.Description,
		Contact:             contact,
		CreatedAt:           rec.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresInMinutes:    rec.ExpiresInMinutes,
		Status:              rec.Status,
		TakenBy:             takenBy,
		CustomerRespondedAt: respondedAt,
	}
}

func (s *memStore) isParticipant(rec *orderRecord, userID int64) bool {
	if rec.CustomerID == userID {
		return true
	}
	for _, claim := range rec.TakenBy {
		if claim.ExecutorID == userID {
			return true
		}
	}
	return false
}

func (s *memStore) createOrder(userID int64, req api.CreateOrderRequest) api.OrderResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &orderRecord{
		ID:               uuid.NewString(),
		CustomerID:       userID,
		Category:         strings.TrimSpace(req.Category),
		City:             strings.TrimSpace(req.City),
		Description:      strings.TrimSpace(req.Description),
		Contact:          strings.TrimSpace(req.Contact),
		CreatedAt:        s.now(),
		ExpiresInMinutes: models.DefaultExpiresMinutes,
		Status:           models.OrderStatusActive,
	}
	s.orders[rec.ID] = rec
	s.orderList = append(s.orderList, rec.ID)

	return s.toWire(rec, userID)
}

type listFilters struct {
	category string
	city     string
	status   string
	limit    int
	offset   int
	mine     bool
}

func (s *memStore) listOrders(userID int64, f listFilters) api.ListOrdersResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*orderRecord, 0, len(s.orderList))
	for _, id := range s.orderList {
		rec := s.orders[id]
		s.reconcile(rec)

		if f.mine && rec.CustomerID != userID {
			continue
		}
		if !f.mine && rec.Status == models.OrderStatusDeleted {
			continue
		}
		if f.category != "" && rec.Category != f.category {
			continue
		}
		if f.city != "" && rec.City != f.city {
			continue
		}
		if f.status != "" && rec.Status != f.status {
			continue
		}
		matched = append(matched, rec)
	}

	total := len(matched)
	if f.offset > 0 {
		if f.offset >= total {
			matched = nil
		} else {
			matched = matched[f.offset:]
		}
	}
	if f.limit > 0 && len(matched) > f.limit {
		matched = matched[:f.limit]
	}

	orders := make([]api.OrderResponse, 0, len(matched))
	for _, rec := range matched {
		orders = append(orders, s.toWire(rec, userID))
	}
	return api.ListOrdersResponse{Orders: orders, Total: total}
}

func (s *memStore) getOrder(userID int64, id string) (api.OrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok || rec.Status == models.OrderStatusDeleted {
		return api.OrderResponse{}, errNotFound
	}
	s.reconcile(rec)

	// Деталь авторизованному пользователю всегда отдаёт contact строкой;
	// null остаётся только в списках.
	resp := s.toWire(rec, userID)
	if resp.Contact == nil {
		empty := ""
		resp.Contact = &empty
	}
	return resp, nil
}

func (s *memStore) updateOrder(userID int64, id string, req api.UpdateOrderRequest) (api.OrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok || rec.Status == models.OrderStatusDeleted {
		return api.OrderResponse{}, errNotFound
	}
	if rec.CustomerID != userID {
		return api.OrderResponse{}, errForbidden
	}

	if req.Category != nil {
		rec.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		rec.Description = strings.TrimSpace(*req.Description)
	}
	if req.Contact != nil {
		rec.Contact = strings.TrimSpace(*req.Contact)
	}
	return s.toWire(rec, userID), nil
}

func (s *memStore) deleteOrder(userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok || rec.Status == models.OrderStatusDeleted {
		return errNotFound
	}
	if rec.CustomerID != userID {
		return errForbidden
	}
	rec.Status = models.OrderStatusDeleted
	return nil
}

func (s *memStore) takeOrder(userID int64, id string) (api.TakeOrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok || rec.Status == models.OrderStatusDeleted {
		return api.TakeOrderResponse{}, errNotFound
	}
	s.reconcile(rec)

	if rec.CustomerID == userID {
		return api.TakeOrderResponse{}, errOwnOrder
	}
	if rec.Status != models.OrderStatusActive {
		return api.TakeOrderResponse{}, errOrderNotActive
	}

	// Повторный отклик того же исполнителя идемпотентен: без дебета.
	for _, claim := range rec.TakenBy {
		if claim.ExecutorID == userID {
			return api.TakeOrderResponse{
				Success:       true,
				Contact:       rec.Contact,
				ExecutorCount: len(rec.TakenBy),
				NewBalance:    s.balanceLocked(userID),
			}, nil
		}
	}

	if len(rec.TakenBy) >= models.MaxExecutorsPerOrder {
		return api.TakeOrderResponse{}, errExecutorLimit
	}
	if s.balanceLocked(userID) < s.claimPrice {
		return api.TakeOrderResponse{}, errInsufficientFunds
	}

	s.balances[userID] -= s.claimPrice
	rec.TakenBy = append(rec.TakenBy, claimRecord{ExecutorID: userID, TakenAt: s.now()})

	return api.TakeOrderResponse{
		Success:       true,
		Contact:       rec.Contact,
		ExecutorCount: len(rec.TakenBy),
		NewBalance:    s.balances[userID],
	}, nil
}

func (s *memStore) closeOrder(userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok || rec.Status == models.OrderStatusDeleted {
		return errNotFound
	}
	if rec.CustomerID != userID {
		return errForbidden
	}
	rec.Status = models.OrderStatusCompleted
	return nil
}

func (s *memStore) createReview(userID int64, role string, orderID string, rating int, reason, comment string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[orderID]
	if !ok {
		return "", errNotFound
	}
	if role == models.ReviewRoleClient && rec.CustomerID != userID {
		return "", errForbidden
	}

	for _, r := range s.reviews {
		if r.OrderID == orderID && r.Role == role {
			return "", errAlreadyReviewed
		}
	}

	review := reviewRecord{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		AuthorID:  userID,
		Role:      role,
		Rating:    rating,
		Reason:    reason,
		Comment:   comment,
		CreatedAt: s.now(),
	}
	s.reviews = append(s.reviews, review)
	return review.ID, nil
}

func (s *memStore) listReviews(userID int64, rating, limit int, mine bool) []api.ReviewResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]api.ReviewResponse, 0, len(s.reviews))
	for _, r := range s.reviews {
		if r.Role != models.ReviewRoleClient {
			continue
		}
		if rating > 0 && r.Rating != rating {
			continue
		}
		if mine && r.AuthorID != userID {
			continue
		}
		result = append(result, api.ReviewResponse{
			ID:        r.ID,
			OrderID:   r.OrderID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt > result[j].CreatedAt })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (s *memStore) profile(userID int64) api.ProfileResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed, active := 0, 0
	for _, id := range s.orderList {
		rec := s.orders[id]
		if rec.CustomerID != userID {
			continue
		}
		s.reconcile(rec)
		switch rec.Status {
		case models.OrderStatusCompleted:
			completed++
		case models.OrderStatusActive:
			active++
		}
	}

	ratingSum, ratingCount := 0, 0
	for _, r := range s.reviews {
		if r.Role == models.ReviewRoleClient && r.AuthorID == userID {
			ratingSum += r.Rating
			ratingCount++
		}
	}
	rating := 0.0
	if ratingCount > 0 {
		rating = float64(ratingSum) / float64(ratingCount)
	}

	return api.ProfileResponse{
		Balance:         s.balanceLocked(userID),
		Rating:          rating,
		CompletedOrders: completed,
		ActiveOrders:    active,
	}
}

// balanceLocked сеет стартовый баланс при первом обращении. Вызывается
// только под mu.
func (s *memStore) balanceLocked(userID int64) float64 {
	if _, ok := s.balances[userID]; !ok {
		s.balances[userID] = initialBalance
	}
	return s.balances[userID]
}

func (s *memStore) balance(userID int64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(userID)
}

func (s *memStore) recharge(userID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, errBadAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = s.balanceLocked(userID) + amount
	return s.balances[userID], nil
}

func (s *memStore) createInvoice(userID int64, amount float64) (api.InvoiceResponse, error) {
	if amount <= 0 {
		return api.InvoiceResponse{}, errBadAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &paymentRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		CreatedAt: s.now(),
		Status:    api.PaymentStatusPending,
	}
	s.payments[p.ID] = p

	return api.InvoiceResponse{
		PaymentID: p.ID,
		Amount:    amount,
		PayURL:    fmt.Sprintf("https://pay.dev.local/%s", p.ID),
	}, nil
}

// paymentStatus возвращает статус платежа. Мок "оплачивает" счёт сам
// спустя invoicePaidAfter и истекает по общему потолку ожидания.
func (s *memStore) paymentStatus(userID int64, paymentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok || p.UserID != userID {
		return "", errNotFound
	}

	if p.Status == api.PaymentStatusPending {
		age := s.now().Sub(p.CreatedAt)
		switch {
		case age >= models.PaymentMaxWait:
			p.Status = api.PaymentStatusExpired
		case age >= invoicePaidAfter:
			p.Status = api.PaymentStatusPaid
			s.balances[p.UserID] = s.balanceLocked(p.UserID) + p.Amount
		}
	}
	return p.Status, nil
}

func (s *memStore) cityList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cities...)
}
