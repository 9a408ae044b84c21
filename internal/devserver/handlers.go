package devserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-miniapp/internal/validation"
)

// Handlers — gin-обработчики wire-контракта поверх memStore.
type Handlers struct {
	store  *memStore
	tokens *TokenManager
}

// NewHandlers создаёт набор обработчиков.
func NewHandlers(store *memStore, tokens *TokenManager) *Handlers {
	return &Handlers{store: store, tokens: tokens}
}

type authRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// AuthTelegram обменивает платформенный initData на bearer-токен.
// Подпись payload в dev-режиме не проверяется — используется только
// user_id из него; настоящую проверку делает боевой бэкенд.
func (h *Handlers) AuthTelegram(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "init_data обязателен")
		return
	}

	values, err := url.ParseQuery(req.InitData)
	if err != nil {
		detail(c, http.StatusBadRequest, "init_data не разбирается")
		return
	}

	userID, err := strconv.ParseInt(values.Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		detail(c, http.StatusUnauthorized, "init_data не содержит пользователя")
		return
	}

	token, err := h.tokens.Issue(userID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "не удалось выпустить токен")
		return
	}

	c.JSON(http.StatusOK, api.AuthResponse{Token: token, UserID: userID})
}

// ListOrders отдаёт страницу заказов по фильтрам запроса.
func (h *Handlers) ListOrders(c *gin.Context) {
	f := listFilters{
		category: c.Query("category"),
		city:     c.Query("city"),
		status:   c.Query("status"),
		mine:     c.Query("mine") == "true",
	}
	f.limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	f.offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	c.JSON(http.StatusOK, h.store.listOrders(currentUser(c), f))
}

// GetOrder отдаёт один заказ.
func (h *Handlers) GetOrder(c *gin.Context) {
	resp, err := h.store.getOrder(currentUser(c), c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateOrder создаёт заказ.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req api.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "категория, описание, город и контакт обязательны")
		return
	}
	if err := validation.ValidateOrderInput(req.Category, req.Description, req.City, req.Contact, h.store.cityList()); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusCreated, h.store.createOrder(currentUser(c), req))
}

// UpdateOrder обновляет изменяемые поля заказа. Город write-once:
// попытка прислать city отклоняется явно, а не игнорируется молча.
func (h *Handlers) UpdateOrder(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		detail(c, http.StatusBadRequest, "тело запроса не разбирается")
		return
	}
	if _, ok := raw["city"]; ok {
		detail(c, http.StatusBadRequest, apperror.ErrCityLocked.Message)
		return
	}

	var req api.UpdateOrderRequest
	if v, ok := raw["category"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			detail(c, http.StatusBadRequest, "категория не разбирается")
			return
		}
		req.Category = &s
	}
	if v, ok := raw["description"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			detail(c, http.StatusBadRequest, "описание не разбирается")
			return
		}
		req.Description = &s
	}
	if v, ok := raw["contact"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			detail(c, http.StatusBadRequest, "контакт не разбирается")
			return
		}
		req.Contact = &s
	}

	resp, err := h.store.updateOrder(currentUser(c), c.Param("id"), req)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteOrder удаляет заказ (мягко).
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if err := h.store.deleteOrder(currentUser(c), c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TakeOrder — отклик исполнителя на заказ.
func (h *Handlers) TakeOrder(c *gin.Context) {
	resp, err := h.store.takeOrder(currentUser(c), c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CloseOrder переводит заказ в терминальное состояние.
func (h *Handlers) CloseOrder(c *gin.Context) {
	if err := h.store.closeOrder(currentUser(c), c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateClientReview — отзыв заказчика по заказу.
func (h *Handlers) CreateClientReview(c *gin.Context) {
	var req api.ClientReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "order_id и rating обязательны")
		return
	}
	if err := validation.ValidateRating(req.Rating); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := h.store.createReview(currentUser(c), models.ReviewRoleClient, req.OrderID, req.Rating, "", strings.TrimSpace(req.Comment))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review_id": id})
}

// CreateExecutorComplaint — жалоба исполнителя по заказу.
func (h *Handlers) CreateExecutorComplaint(c *gin.Context) {
	var req api.ExecutorComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "order_id и complaint обязательны")
		return
	}
	if err := validation.ValidateComplaintReason(req.Complaint); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := h.store.createReview(currentUser(c), models.ReviewRoleExecutor, req.OrderID, 0, req.Complaint, strings.TrimSpace(req.Comment))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "complaint_id": id})
}

// ListReviews отдаёт отзывы по фильтрам.
func (h *Handlers) ListReviews(c *gin.Context) {
	rating, _ := strconv.Atoi(c.DefaultQuery("rating", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	mine := c.Query("mine") == "true"

	c.JSON(http.StatusOK, h.store.listReviews(currentUser(c), rating, limit, mine))
}

// Me отдаёт профиль текущего пользователя.
func (h *Handlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.profile(currentUser(c)))
}

// Cities отдаёт список городов.
func (h *Handlers) Cities(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.cityList())
}

// Balance отдаёт текущий баланс.
func (h *Handlers) Balance(c *gin.Context) {
	c.JSON(http.StatusOK, api.BalanceResponse{Balance: h.store.balance(currentUser(c))})
}

type amountRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// Recharge пополняет баланс напрямую (dev-сценарий).
func (h *Handlers) Recharge(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "сумма обязательна")
		return
	}
	balance, err := h.store.recharge(currentUser(c), req.Amount)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.BalanceResponse{Balance: balance})
}

// CreateInvoice создаёт счёт на пополнение.
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "сумма обязательна")
		return
	}
	resp, err := h.store.createInvoice(currentUser(c), req.Amount)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentStatus отдаёт статус платежа.
func (h *Handlers) PaymentStatus(c *gin.Context) {
	status, err := h.store.paymentStatus(currentUser(c), c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.PaymentStatusResponse{Status: status})
}

// Health — проверка живости.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
