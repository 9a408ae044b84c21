package models

import "time"

// Order описывает заявку на услугу, размещённую заказчиком.
// CreatedAt и ExpiresInMinutes неизменяемы после создания и являются
// единственным источником истины для всей арифметики времени.
type Order struct {
	ID               string            `json:"id"`
	CustomerID       string            `json:"customerId"`
	Category         string            `json:"category"`
	City             string            `json:"city"` // write-once, после создания не меняется
	Description      string            `json:"description"`
	Contact          string            `json:"contact"` // "" — контакт не указан
	CreatedAt        time.Time         `json:"createdAt"`
	ExpiresInMinutes int               `json:"expiresInMinutes"`
	Status           string            `json:"status"`
	TakenBy          []Claim           `json:"takenBy"`
	CustomerResponse *CustomerResponse `json:"customerResponse,omitempty"`
}

// Claim фиксирует отклик исполнителя на заказ.
// Идентификаторы исполнителей всегда строки: приведение выполняется
// один раз на границе wire-формата, дальше сравниваются только строки.
type Claim struct {
	ExecutorID string    `json:"executorId"`
	TakenAt    time.Time `json:"takenAt"`
}

// CustomerResponse отмечает, что заказчик отреагировал на отклик.
// Его отсутствие после отклика запускает часы авто-закрытия.
type CustomerResponse struct {
	RespondedAt time.Time `json:"respondedAt"`
}

// Review — отзыв заказчика о выполнении заказа. Неизменяемый.
type Review struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Complaint — жалоба исполнителя на заказ. Неизменяемая.
type Complaint struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Reason    string    `json:"reason"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile — сводка по текущему пользователю.
type Profile struct {
	Balance         float64 `json:"balance"`
	Rating          float64 `json:"rating"`
	CompletedOrders int     `json:"completedOrders"`
	ActiveOrders    int     `json:"activeOrders"`
}

// Invoice — созданный счёт на пополнение баланса.
type Invoice struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	PayURL    string  `json:"payUrl"`
}
