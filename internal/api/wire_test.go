package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wireOrder() OrderResponse {
	return OrderResponse{
		ID:               "ord-1",
		CustomerID:       100,
		Category:         "ремонт",
		City:             "Москва",
		Description:      "починить кран",
		CreatedAt:        "2024-06-01T12:00:00Z",
		ExpiresInMinutes: 60,
		Status:           "active",
	}
}

func TestMapOrder_NullContactCollapsesToEmpty(t *testing.T) {
	w := wireOrder()
	w.Contact = nil

	o, err := MapOrder(w)
	require.NoError(t, err)
	assert.Equal(t, "", o.Contact)
}

func TestMapOrder_ExecutorIDCoercedToString(t *testing.T) {
	w := wireOrder()
	w.TakenBy = []TakenByWire{{ExecutorID: 42, TakenAt: "2024-06-01T12:05:00Z"}}

	o, err := MapOrder(w)
	require.NoError(t, err)
	require.Len(t, o.TakenBy, 1)
	assert.Equal(t, "42", o.TakenBy[0].ExecutorID)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 5, 0, 0, time.UTC), o.TakenBy[0].TakenAt)
}

func TestMapOrder_CustomerIDCoercedToString(t *testing.T) {
	o, err := MapOrder(wireOrder())
	require.NoError(t, err)
	assert.Equal(t, "100", o.CustomerID)
}

func TestMapOrder_NullResponseCollapsesToAbsence(t *testing.T) {
	w := wireOrder()
	w.CustomerRespondedAt = nil

	o, err := MapOrder(w)
	require.NoError(t, err)
	assert.Nil(t, o.CustomerResponse)

	respondedAt := "2024-06-01T12:10:00Z"
	w.CustomerRespondedAt = &respondedAt
	o, err = MapOrder(w)
	require.NoError(t, err)
	require.NotNil(t, o.CustomerResponse)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 10, 0, 0, time.UTC), o.CustomerResponse.RespondedAt)
}

func TestMapOrder_MalformedTimestampIsError(t *testing.T) {
	// Порча данных не маскируется под истёкший заказ.
	w := wireOrder()
	w.CreatedAt = "вчера"

	_, err := MapOrder(w)
	assert.Error(t, err)
}

func TestFlattenDetail(t *testing.T) {
	// Строка как есть.
	assert.Equal(t, "заказ не найден", flattenDetail([]byte(`"заказ не найден"`)))

	// Массив ошибок валидации — первое сообщение.
	raw := []byte(`[{"loc":["body","rating"],"msg":"рейтинг от 1 до 5","type":"value_error"},{"msg":"другое"}]`)
	assert.Equal(t, "рейтинг от 1 до 5", flattenDetail(raw))

	assert.Equal(t, "", flattenDetail(nil))
	assert.Equal(t, "", flattenDetail([]byte(`{}`)))
}
