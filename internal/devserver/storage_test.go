package devserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
)

// fakeNow подменяет часы хранилища на управляемые.
func fakeNow(s *memStore, start time.Time) *time.Time {
	now := start
	s.now = func() time.Time { return now }
	return &now
}

func TestReconcile_ExpiresOnRead(t *testing.T) {
	s := newMemStore(50)
	now := fakeNow(s, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	created := s.createOrder(100, api.CreateOrderRequest{
		Category: "ремонт", Description: "тест", City: "Москва", Contact: "@ivan",
	})
	assert.Equal(t, models.OrderStatusActive, created.Status)

	// За секунду до дедлайна заказ ещё активен.
	*now = now.Add(time.Duration(models.DefaultExpiresMinutes)*time.Minute - time.Second)
	got, err := s.getOrder(200, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusActive, got.Status)

	// Ровно на дедлайне статус сверяется при чтении.
	*now = now.Add(time.Second)
	got, err = s.getOrder(200, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusExpired, got.Status)
}

func TestReconcile_AutoCloseNoResponse(t *testing.T) {
	s := newMemStore(50)
	now := fakeNow(s, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	created := s.createOrder(100, api.CreateOrderRequest{
		Category: "ремонт", Description: "тест", City: "Москва", Contact: "@ivan",
	})

	_, err := s.takeOrder(200, created.ID)
	require.NoError(t, err)
	*now = now.Add(5 * time.Minute)
	_, err = s.takeOrder(300, created.ID)
	require.NoError(t, err)

	// Таймаут считается от самого раннего отклика: через 15 минут после
	// первого (то есть через 10 после второго) заказ закрывается.
	*now = now.Add(models.NoResponseTimeout - 5*time.Minute - time.Second)
	got, err := s.getOrder(100, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusActive, got.Status)

	*now = now.Add(time.Second)
	got, err = s.getOrder(100, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusClosedNoResponse, got.Status)
}

func TestTakeOrder_ExpiredRejected(t *testing.T) {
	s := newMemStore(50)
	now := fakeNow(s, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	created := s.createOrder(100, api.CreateOrderRequest{
		Category: "ремонт", Description: "тест", City: "Москва", Contact: "@ivan",
	})

	*now = now.Add(time.Duration(models.DefaultExpiresMinutes+1) * time.Minute)
	_, err := s.takeOrder(200, created.ID)
	assert.ErrorIs(t, err, errOrderNotActive)
}

func TestTakeOrder_InsufficientFunds(t *testing.T) {
	s := newMemStore(initialBalance + 1)

	created := s.createOrder(100, api.CreateOrderRequest{
		Category: "ремонт", Description: "тест", City: "Москва", Contact: "@ivan",
	})

	_, err := s.takeOrder(200, created.ID)
	assert.ErrorIs(t, err, errInsufficientFunds)
}

func TestListOrders_ActiveExcludesTimeExpired(t *testing.T) {
	s := newMemStore(50)
	now := fakeNow(s, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	stale := s.createOrder(100, api.CreateOrderRequest{
		Category: "ремонт", Description: "старый", City: "Москва", Contact: "@ivan",
	})
	*now = now.Add(time.Duration(models.DefaultExpiresMinutes) * time.Minute)
	fresh := s.createOrder(100, api.CreateOrderRequest{
		Category: "ремонт", Description: "свежий", City: "Москва", Contact: "@ivan",
	})

	resp := s.listOrders(200, listFilters{status: models.OrderStatusActive})
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, fresh.ID, resp.Orders[0].ID)

	// Протухший заказ не пропал, он виден со статусом expired.
	got, err := s.getOrder(200, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusExpired, got.Status)
}

func TestPaymentStatus_AutoPaidThenCredit(t *testing.T) {
	s := newMemStore(50)
	now := fakeNow(s, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	invoice, err := s.createInvoice(100, 300)
	require.NoError(t, err)

	status, err := s.paymentStatus(100, invoice.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, api.PaymentStatusPending, status)

	*now = now.Add(invoicePaidAfter)
	status, err = s.paymentStatus(100, invoice.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, api.PaymentStatusPaid, status)
	assert.Equal(t, initialBalance+300, s.balance(100))

	// Оплаченный счёт не истекает задним числом.
	*now = now.Add(models.PaymentMaxWait)
	status, err = s.paymentStatus(100, invoice.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, api.PaymentStatusPaid, status)
}

func TestPaymentStatus_ExpiresAfterCutoff(t *testing.T) {
	s := newMemStore(50)
	now := fakeNow(s, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	invoice, err := s.createInvoice(100, 300)
	require.NoError(t, err)

	*now = now.Add(models.PaymentMaxWait)
	status, err := s.paymentStatus(100, invoice.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, api.PaymentStatusExpired, status)
	// Деньги по истёкшему счёту не зачисляются.
	assert.Equal(t, float64(initialBalance), s.balance(100))
}

func TestPaymentStatus_ForeignInvoiceHidden(t *testing.T) {
	s := newMemStore(50)

	invoice, err := s.createInvoice(100, 300)
	require.NoError(t, err)

	_, err = s.paymentStatus(200, invoice.PaymentID)
	assert.ErrorIs(t, err, errNotFound)
}
