// Package api — типизированный HTTP клиент к бэкенду mini app.
// Транспортные сбои и отказы бэкенда различаются: первые превращаются в
// ErrCodeTransport, вторые несут пользователю текст из конверта {detail}.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-miniapp/internal/logger"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
)

// Client выполняет запросы к бэкенду с bearer-авторизацией.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry

	mu    sync.RWMutex
	token string
}

// NewClient создаёт клиента бэкенда.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("api"),
	}
}

// SetToken устанавливает bearer-токен для последующих запросов.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token возвращает текущий bearer-токен ("" до handshake).
func (c *Client) Token() string {
	return c.bearer()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// errorEnvelope — конверт ошибки бэкенда: detail либо строка, либо
// массив ошибок валидации.
type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Msg string `json:"msg"`
}

// flattenDetail достаёт пользовательский текст из detail: строку как
// есть, из массива валидационных ошибок — первое сообщение.
func flattenDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var issues []validationIssue
	if err := json.Unmarshal(raw, &issues); err == nil && len(issues) > 0 {
		return issues[0].Msg
	}

	return ""
}

// do выполняет запрос и декодирует ответ в out (nil для 204).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать запрос")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось собрать запрос")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Debugf("транспортный сбой %s %s", method, path)
		return apperror.Wrap(err, apperror.ErrCodeTransport, apperror.ErrNetwork.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeTransport, apperror.ErrNetwork.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		_ = json.Unmarshal(raw, &envelope)
		detail := flattenDetail(envelope.Detail)
		c.log.Debugf("бэкенд отклонил %s %s: %d %s", method, path, resp.StatusCode, detail)
		return apperror.FromStatus(resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "бэкенд вернул неожиданный ответ")
	}
	return nil
}

// AuthTelegram обменивает платформенный initData на bearer-токен и
// запоминает его для последующих запросов.
func (c *Client) AuthTelegram(ctx context.Context, initData string) (string, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/telegram", nil,
		map[string]string{"init_data": initData}, &resp)
	if err != nil {
		return "", err
	}
	c.SetToken(resp.Token)
	return strconv.FormatInt(resp.UserID, 10), nil
}

// ListOrdersParams — фильтры списка заказов.
type ListOrdersParams struct {
	Category string
	City     string
	Status   string
	Limit    int
	Offset   int
	Mine     bool
}

// CacheKey — стабильный ключ выборки для кеша синхронизации.
func (p ListOrdersParams) CacheKey() string {
	return fmt.Sprintf("orders:%s:%s:%s:%d:%d:%t",
		p.Category, p.City, p.Status, p.Limit, p.Offset, p.Mine)
}

func (p ListOrdersParams) query() url.Values {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.City != "" {
		q.Set("city", p.City)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Mine {
		q.Set("mine", "true")
	}
	return q
}

// ListOrders возвращает страницу заказов и общее количество.
func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) ([]models.Order, int, error) {
	var resp ListOrdersResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders", params.query(), nil, &resp); err != nil {
		return nil, 0, err
	}
	orders, err := MapOrders(resp.Orders)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeInternal, "бэкенд вернул некорректный заказ")
	}
	return orders, resp.Total, nil
}

// GetOrder возвращает один заказ по id.
func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var resp OrderResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+id, nil, nil, &resp); err != nil {
		return nil, err
	}
	order, err := MapOrder(resp)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "бэкенд вернул некорректный заказ")
	}
	return &order, nil
}

// CreateOrder создаёт заказ и возвращает созданную запись.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	var resp OrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &resp); err != nil {
		return nil, err
	}
	order, err := MapOrder(resp)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "бэкенд вернул некорректный заказ")
	}
	return &order, nil
}

// UpdateOrder обновляет изменяемые поля заказа. Город обновить нельзя —
// его нет в типе запроса.
func (c *Client) UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) (*models.Order, error) {
	var resp OrderResponse
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+id, nil, req, &resp); err != nil {
		return nil, err
	}
	order, err := MapOrder(resp)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "бэкенд вернул некорректный заказ")
	}
	return &order, nil
}

// DeleteOrder удаляет заказ.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+id, nil, nil, nil)
}

// TakeResult — подтверждённый бэкендом результат отклика.
type TakeResult struct {
	Contact       string
	ExecutorCount int
	NewBalance    float64
}

// TakeOrder отправляет отклик исполнителя на заказ.
func (c *Client) TakeOrder(ctx context.Context, id string) (*TakeResult, error) {
	var resp TakeOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders/"+id+"/take", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &TakeResult{
		Contact:       resp.Contact,
		ExecutorCount: resp.ExecutorCount,
		NewBalance:    resp.NewBalance,
	}, nil
}

// CloseOrder переводит заказ в терминальное состояние.
func (c *Client) CloseOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/orders/"+id+"/close", nil, nil, nil)
}

// CreateClientReview отправляет отзыв заказчика.
func (c *Client) CreateClientReview(ctx context.Context, req ClientReviewRequest) error {
	return c.do(ctx, http.MethodPost, "/api/reviews/client", nil, req, nil)
}

// CreateExecutorComplaint отправляет жалобу исполнителя.
func (c *Client) CreateExecutorComplaint(ctx context.Context, req ExecutorComplaintRequest) error {
	return c.do(ctx, http.MethodPost, "/api/reviews/executor", nil, req, nil)
}

// ListReviews возвращает отзывы с опциональными фильтрами.
func (c *Client) ListReviews(ctx context.Context, rating int, limit int, mine bool) ([]models.Review, error) {
	q := url.Values{}
	if rating > 0 {
		q.Set("rating", strconv.Itoa(rating))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if mine {
		q.Set("mine", "true")
	}

	var resp []ReviewResponse
	if err := c.do(ctx, http.MethodGet, "/api/reviews", q, nil, &resp); err != nil {
		return nil, err
	}
	reviews := make([]models.Review, 0, len(resp))
	for _, w := range resp {
		r, err := MapReview(w)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "бэкенд вернул некорректный отзыв")
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

// Me возвращает профиль текущего пользователя.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var resp ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &models.Profile{
		Balance:         resp.Balance,
		Rating:          resp.Rating,
		CompletedOrders: resp.CompletedOrders,
		ActiveOrders:    resp.ActiveOrders,
	}, nil
}

// Cities возвращает список городов.
func (c *Client) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	if err := c.do(ctx, http.MethodGet, "/api/cities", nil, nil, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// Balance возвращает текущий баланс.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var resp BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/api/balance", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// RechargeBalance пополняет баланс напрямую (dev-сценарий).
func (c *Client) RechargeBalance(ctx context.Context, amount float64) (float64, error) {
	var resp BalanceResponse
	err := c.do(ctx, http.MethodPost, "/api/balance/recharge", nil,
		map[string]float64{"amount": amount}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// CreateInvoice создаёт счёт на пополнение через внешний платёжный поток.
func (c *Client) CreateInvoice(ctx context.Context, amount float64) (*models.Invoice, error) {
	var resp InvoiceResponse
	err := c.do(ctx, http.MethodPost, "/api/balance/create-invoice", nil,
		map[string]float64{"amount": amount}, &resp)
	if err != nil {
		return nil, err
	}
	return &models.Invoice{
		PaymentID: resp.PaymentID,
		Amount:    resp.Amount,
		PayURL:    resp.PayURL,
	}, nil
}

// PaymentStatus возвращает статус платежа по id.
func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (string, error) {
	var resp PaymentStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/balance/payment/"+paymentID+"/status", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
