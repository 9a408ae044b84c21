// Wire-формат бэкенда: snake_case, nullable contact, числовые id
// исполнителей. Этот файл — единственное место, где он превращается во
// внутреннюю модель; правила отображения зафиксированы и с потерями
// (null-contact схлопывается в "", это осознанное упрощение).
package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ignatzorin/uslugi-miniapp/internal/models"
)

// OrderResponse — заказ в wire-формате списка и деталей.
type OrderResponse struct {
	ID                  string        `json:"id"`
	CustomerID          int64         `json:"customer_id"`
	Category            string        `json:"category"`
	City                string        `json:"city"`
	Description         string        `json:"description"`
	Contact             *string       `json:"contact"`
	CreatedAt           string        `json:"created_at"`
	ExpiresInMinutes    int           `json:"expires_in_minutes"`
	Status              string        `json:"status"`
	TakenBy             []TakenByWire `json:"taken_by"`
	CustomerRespondedAt *string       `json:"customer_responded_at"`
}

// TakenByWire — отклик исполнителя в wire-формате.
type TakenByWire struct {
	ExecutorID int64  `json:"executor_id"`
	TakenAt    string `json:"taken_at"`
}

// ListOrdersResponse — конверт списка заказов.
type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// TakeOrderResponse — результат отклика на заказ.
type TakeOrderResponse struct {
	Success       bool    `json:"success"`
	Contact       string  `json:"contact"`
	ExecutorCount int     `json:"executor_count"`
	NewBalance    float64 `json:"new_balance"`
}

// ReviewResponse — отзыв в wire-формате.
type ReviewResponse struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// ProfileResponse — профиль текущего пользователя.
type ProfileResponse struct {
	Balance         float64 `json:"balance"`
	Rating          float64 `json:"rating"`
	CompletedOrders int     `json:"completed_orders"`
	ActiveOrders    int     `json:"active_orders"`
}

// BalanceResponse — текущий баланс.
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// InvoiceResponse — созданный счёт на оплату.
type InvoiceResponse struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	PayURL    string  `json:"pay_url"`
}

// PaymentStatusResponse — статус платежа при опросе.
type PaymentStatusResponse struct {
	Status string `json:"status"`
}

// AuthResponse — результат обмена платформенного payload на токен.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

// Статусы платежа в wire-формате.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusExpired = "expired"
	PaymentStatusFailed  = "failed"
)

// CreateOrderRequest — тело создания заказа.
type CreateOrderRequest struct {
	Category    string `json:"category" binding:"required"`
	Description string `json:"description" binding:"required"`
	City        string `json:"city" binding:"required"`
	Contact     string `json:"contact" binding:"required"`
}

// UpdateOrderRequest — тело обновления заказа. Города здесь нет
// намеренно: city write-once, и тип не даёт его отправить.
type UpdateOrderRequest struct {
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Contact     *string `json:"contact,omitempty"`
}

// ClientReviewRequest — отзыв заказчика.
type ClientReviewRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment,omitempty"`
}

// ExecutorComplaintRequest — жалоба исполнителя.
type ExecutorComplaintRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	Complaint string `json:"complaint" binding:"required"`
	Comment   string `json:"comment,omitempty"`
}

// MapOrder переводит wire-заказ во внутреннюю модель.
// Правила точные: contact null -> "", executor_id число -> строка,
// customer_responded_at null -> отсутствие CustomerResponse (не пустая
// структура). Непарсящийся timestamp — порча данных, а не "истёкший
// заказ": возвращается ошибка, ничего не маскируется.
func MapOrder(w OrderResponse) (models.Order, error) {
	createdAt, err := time.Parse(time.RFC3339, w.CreatedAt)
	if err != nil {
		return models.Order{}, fmt.Errorf("api: заказ %s: битый created_at %q: %w", w.ID, w.CreatedAt, err)
	}

	contact := ""
	if w.Contact != nil {
		contact = *w.Contact
	}

	takenBy := make([]models.Claim, 0, len(w.TakenBy))
	for _, tb := range w.TakenBy {
		takenAt, err := time.Parse(time.RFC3339, tb.TakenAt)
		if err != nil {
			return models.Order{}, fmt.Errorf("api: заказ %s: битый taken_at %q: %w", w.ID, tb.TakenAt, err)
		}
		takenBy = append(takenBy, models.Claim{
			ExecutorID: strconv.FormatInt(tb.ExecutorID, 10),
			TakenAt:    takenAt,
		})
	}

	var response *models.CustomerResponse
	if w.CustomerRespondedAt != nil {
		respondedAt, err := time.Parse(time.RFC3339, *w.CustomerRespondedAt)
		if err != nil {
			return models.Order{}, fmt.Errorf("api: заказ %s: битый customer_responded_at %q: %w", w.ID, *w.CustomerRespondedAt, err)
		}
		response = &models.CustomerResponse{RespondedAt: respondedAt}
	}

	return models.Order{
		ID:               w.ID,
		CustomerID:       strconv.FormatInt(w.CustomerID, 10),
		Category:         w.Category,
		City:             w.City,
		Description:      w.Description,
		Contact:          contact,
		CreatedAt:        createdAt,
		ExpiresInMinutes: w.ExpiresInMinutes,
		Status:           w.Status,
		TakenBy:          takenBy,
		CustomerResponse: response,
	}, nil
}

// MapOrders переводит список wire-заказов, падая на первом битом.
func MapOrders(wires []OrderResponse) ([]models.Order, error) {
	orders := make([]models.Order, 0, len(wires))
	for _, w := range wires {
		o, err := MapOrder(w)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// MapReview переводит wire-отзыв во внутреннюю модель.
func MapReview(w ReviewResponse) (models.Review, error) {
	createdAt, err := time.Parse(time.RFC3339, w.CreatedAt)
	if err != nil {
		return models.Review{}, fmt.Errorf("api: отзыв %s: битый created_at %q: %w", w.ID, w.CreatedAt, err)
	}
	return models.Review{
		ID:        w.ID,
		OrderID:   w.OrderID,
		Rating:    w.Rating,
		Comment:   w.Comment,
		CreatedAt: createdAt,
	}, nil
}
