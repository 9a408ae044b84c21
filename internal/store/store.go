// Package store — явные наблюдаемые хранилища сессии вместо глобальных
// мутабельных синглтонов: очередь тостов, держатель токена авторизации и
// локальный маркер "отзыв уже отправлен". Каждый экземпляр изолирован,
// тесты создают свои.
package store

import "sync"

// emitter — общая механика подписки/уведомления. Колбэки зовутся вне
// мьютекса по копии списка подписчиков.
type emitter[T any] struct {
	mu      sync.Mutex
	subs    map[int]func(T)
	nextSub int
}

func (e *emitter[T]) subscribe(fn func(T)) func() {
	e.mu.Lock()
	if e.subs == nil {
		e.subs = make(map[int]func(T))
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *emitter[T]) emit(value T) {
	e.mu.Lock()
	subs := make([]func(T), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

// ToastKind — тип тоста.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Toast — одно уведомление в очереди.
type Toast struct {
	ID      int
	Kind    ToastKind
	Message string
}

// ToastStore — очередь уведомлений с автоинкрементными id.
type ToastStore struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int

	emitter[[]Toast]
}

// NewToastStore создаёт пустую очередь тостов.
func NewToastStore() *ToastStore {
	return &ToastStore{}
}

// Push добавляет тост в очередь и возвращает его id.
func (s *ToastStore) Push(kind ToastKind, message string) int {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.toasts = append(s.toasts, Toast{ID: id, Kind: kind, Message: message})
	snapshot := append([]Toast(nil), s.toasts...)
	s.mu.Unlock()

	s.emit(snapshot)
	return id
}

// Dismiss убирает тост по id.
func (s *ToastStore) Dismiss(id int) {
	s.mu.Lock()
	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.toasts = kept
	snapshot := append([]Toast(nil), s.toasts...)
	s.mu.Unlock()

	s.emit(snapshot)
}

// Toasts возвращает копию очереди.
func (s *ToastStore) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast(nil), s.toasts...)
}

// Subscribe подписывает на изменения очереди; возвращает отписку.
func (s *ToastStore) Subscribe(fn func([]Toast)) func() {
	return s.subscribe(fn)
}

// AuthState — наблюдаемое состояние авторизации.
type AuthState struct {
	Token  string
	UserID string
}

// AuthStore — держатель сессии: токен и id пользователя.
type AuthStore struct {
	mu    sync.RWMutex
	state AuthState

	emitter[AuthState]
}

// NewAuthStore создаёт пустое (неавторизованное) хранилище.
func NewAuthStore() *AuthStore {
	return &AuthStore{}
}

// SetSession сохраняет токен и пользователя после handshake.
func (s *AuthStore) SetSession(token, userID string) {
	s.mu.Lock()
	s.state = AuthState{Token: token, UserID: userID}
	state := s.state
	s.mu.Unlock()

	s.emit(state)
}

// Clear сбрасывает сессию.
func (s *AuthStore) Clear() {
	s.mu.Lock()
	s.state = AuthState{}
	s.mu.Unlock()

	s.emit(AuthState{})
}

// Token возвращает текущий bearer-токен ("" если не авторизованы).
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// UserID возвращает id текущего пользователя.
func (s *AuthStore) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserID
}

// IsAuthenticated сообщает, есть ли активная сессия.
func (s *AuthStore) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe подписывает на смены сессии; возвращает отписку.
func (s *AuthStore) Subscribe(fn func(AuthState)) func() {
	return s.subscribe(fn)
}

// SubmissionGuard — локальный маркер идемпотентности отзывов/жалоб на
// пару (заказ, роль). Это защита от повторной отправки в рамках сессии,
// а не замена серверной уникальности: локальное хранилище можно стереть.
type SubmissionGuard struct {
	mu        sync.RWMutex
	submitted map[string]struct{}
}

// NewSubmissionGuard создаёт пустой маркер.
func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{submitted: make(map[string]struct{})}
}

// MarkSubmitted отмечает пару (заказ, роль) как отправленную.
func (g *SubmissionGuard) MarkSubmitted(orderID, role string) {
	g.mu.Lock()
	g.submitted[orderID+":"+role] = struct{}{}
	g.mu.Unlock()
}

// IsSubmitted сообщает, отправлялся ли уже отзыв для (заказ, роль).
func (g *SubmissionGuard) IsSubmitted(orderID, role string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.submitted[orderID+":"+role]
	return ok
}
