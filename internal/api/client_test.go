package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
)

func TestClient_ListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "уборка", r.URL.Query().Get("category"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"orders": [{
				"id": "ord-1",
				"customer_id": 100,
				"category": "уборка",
				"city": "Москва",
				"description": "помыть окна",
				"contact": null,
				"created_at": "2024-06-01T12:00:00Z",
				"expires_in_minutes": 60,
				"status": "active",
				"taken_by": [{"executor_id": 42, "taken_at": "2024-06-01T12:05:00Z"}],
				"customer_responded_at": null
			}],
			"total": 1
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	c.SetToken("token-1")

	orders, total, err := c.ListOrders(context.Background(), ListOrdersParams{Category: "уборка"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "", orders[0].Contact)
	assert.Equal(t, "42", orders[0].TakenBy[0].ExecutorID)
	assert.Nil(t, orders[0].CustomerResponse)
}

func TestClient_BackendErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail": "заказ уже взят максимальным числом исполнителей"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.TakeOrder(context.Background(), "ord-1")

	require.Error(t, err)
	assert.True(t, apperror.IsDomain(err), "отказ бэкенда должен быть доменной ошибкой, не сетевой")
	assert.Equal(t, "заказ уже взят максимальным числом исполнителей", apperror.UserMessage(err))
}

func TestClient_ValidationErrorFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": [{"msg": "рейтинг от 1 до 5"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.CreateClientReview(context.Background(), ClientReviewRequest{OrderID: "x", Rating: 9})

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, "рейтинг от 1 до 5", apperror.UserMessage(err))
}

func TestClient_TransportErrorIsDistinct(t *testing.T) {
	// Сервер, которого нет.
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, _, err := c.ListOrders(context.Background(), ListOrdersParams{})

	require.Error(t, err)
	assert.True(t, apperror.IsTransport(err))
}

func TestClient_NoContentIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.NoError(t, c.DeleteOrder(context.Background(), "ord-1"))
}

func TestListOrdersParams_CacheKeyStable(t *testing.T) {
	a := ListOrdersParams{Category: "уборка", City: "Москва", Limit: 20}
	b := ListOrdersParams{Category: "уборка", City: "Москва", Limit: 20}
	c := ListOrdersParams{Category: "ремонт"}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}
