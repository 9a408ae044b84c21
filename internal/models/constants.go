package models

import "time"

// OrderStatus константы статусов заказов
const (
	OrderStatusActive           = "active"
	OrderStatusExpired          = "expired"
	OrderStatusDeleted          = "deleted"
	OrderStatusClosedNoResponse = "closed_no_response"
	OrderStatusCompleted        = "completed"
)

// ComplaintReason константы причин жалоб исполнителей
const (
	ComplaintReasonNoResponse     = "no_response"
	ComplaintReasonInvalidContact = "invalid_contact"
	ComplaintReasonFakeOrder      = "fake_order"
	ComplaintReasonOther          = "other"
)

// ReviewRole роли авторов отзывов/жалоб: пара (заказ, роль) уникальна.
const (
	ReviewRoleClient   = "client"
	ReviewRoleExecutor = "executor"
)

// Доменные константы жизненного цикла заказа.
const (
	// MaxExecutorsPerOrder — жёсткий потолок откликов; четвёртый отклик
	// отклоняется ещё до похода в сеть.
	MaxExecutorsPerOrder = 3

	// DefaultExpiresMinutes — бюджет жизни заказа по умолчанию.
	DefaultExpiresMinutes = 60

	// NoResponseTimeout — сколько ждёт самый ранний неотвеченный отклик,
	// прежде чем заказ считается брошенным заказчиком.
	NoResponseTimeout = 15 * time.Minute

	// UrgentThreshold — остаток времени, ниже которого таймер переходит
	// на секундную частоту.
	UrgentThreshold = 10 * time.Minute

	// PaymentPollInterval / PaymentMaxWait — частота и потолок опроса
	// статуса платежа.
	PaymentPollInterval = 3 * time.Second
	PaymentMaxWait      = 30 * time.Minute
)

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusActive:           {},
	OrderStatusExpired:          {},
	OrderStatusDeleted:          {},
	OrderStatusClosedNoResponse: {},
	OrderStatusCompleted:        {},
}

// ValidComplaintReasons список валидных причин жалоб
var ValidComplaintReasons = map[string]struct{}{
	ComplaintReasonNoResponse:     {},
	ComplaintReasonInvalidContact: {},
	ComplaintReasonFakeOrder:      {},
	ComplaintReasonOther:          {},
}
