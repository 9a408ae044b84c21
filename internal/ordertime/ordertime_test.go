package ordertime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/uslugi-miniapp/internal/models"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newOrder(expiresInMinutes int) *models.Order {
	return &models.Order{
		ID:               "order-1",
		Status:           models.OrderStatusActive,
		CreatedAt:        baseTime,
		ExpiresInMinutes: expiresInMinutes,
	}
}

func TestMinutesLeft_AtCreation(t *testing.T) {
	for _, m := range []int{0, 1, 15, 60, 1440} {
		o := newOrder(m)
		assert.Equal(t, m, MinutesLeft(o, baseTime), "expiresInMinutes=%d", m)
	}
}

func TestMinutesLeft_CeilingRounding(t *testing.T) {
	o := newOrder(60)

	// 54 секунды прошло из 3600 — осталась неполная 60-я минута.
	assert.Equal(t, 60, MinutesLeft(o, baseTime.Add(54*time.Second)))

	// Ровно минута прошла — осталось 59.
	assert.Equal(t, 59, MinutesLeft(o, baseTime.Add(time.Minute)))

	// Одна наносекунда после дедлайна — ноль, не отрицательное.
	assert.Equal(t, 0, MinutesLeft(o, baseTime.Add(60*time.Minute+time.Nanosecond)))
}

func TestSecondsLeft_CeilingRounding(t *testing.T) {
	o := newOrder(60)

	// 3599.5 секунды прошло — остаток полсекунды, округляется до 1.
	assert.Equal(t, 1, SecondsLeft(o, baseTime.Add(3599*time.Second+500*time.Millisecond)))

	assert.Equal(t, 3600, SecondsLeft(o, baseTime))
	assert.Equal(t, 0, SecondsLeft(o, baseTime.Add(time.Hour)))
	assert.Equal(t, 0, SecondsLeft(o, baseTime.Add(2*time.Hour)))
}

func TestTimeLeft_MonotonicNonIncreasing(t *testing.T) {
	o := newOrder(60)
	prevMin, prevSec := MinutesLeft(o, baseTime), SecondsLeft(o, baseTime)
	for step := time.Second; step <= 2*time.Hour; step += 7 * time.Minute {
		now := baseTime.Add(step)
		m, s := MinutesLeft(o, now), SecondsLeft(o, now)
		assert.LessOrEqual(t, m, prevMin)
		assert.LessOrEqual(t, s, prevSec)
		assert.GreaterOrEqual(t, m, 0)
		assert.GreaterOrEqual(t, s, 0)
		prevMin, prevSec = m, s
	}
}

func TestIsExpired_TruthTable(t *testing.T) {
	// Статус expired истёкший даже при остатке времени (рассинхрон часов).
	o := newOrder(60)
	o.Status = models.OrderStatusExpired
	assert.True(t, IsExpired(o, baseTime))

	// Статус completed не истёкший независимо от прошедшего времени.
	o = newOrder(60)
	o.Status = models.OrderStatusCompleted
	assert.False(t, IsExpired(o, baseTime))
	assert.False(t, IsExpired(o, baseTime.Add(24*time.Hour)))

	// Активный заказ истекает по арифметике.
	o = newOrder(60)
	assert.False(t, IsExpired(o, baseTime.Add(59*time.Minute)))
	assert.True(t, IsExpired(o, baseTime.Add(61*time.Minute)))
}

func TestIsTakenByUser(t *testing.T) {
	o := newOrder(60)
	o.TakenBy = []models.Claim{
		{ExecutorID: "42", TakenAt: baseTime},
		{ExecutorID: "7", TakenAt: baseTime.Add(time.Minute)},
	}

	assert.True(t, IsTakenByUser(o, "42"))
	assert.True(t, IsTakenByUser(o, "7"))
	assert.False(t, IsTakenByUser(o, "99"))
	assert.False(t, IsTakenByUser(o, ""))
}

func TestTakenCount(t *testing.T) {
	o := newOrder(60)
	assert.Equal(t, 0, TakenCount(o))

	o.TakenBy = []models.Claim{{ExecutorID: "1", TakenAt: baseTime}}
	assert.Equal(t, 1, TakenCount(o))
}

func TestIsAutoClosedNoResponse_EarliestClaimGoverns(t *testing.T) {
	o := newOrder(60)
	o.TakenBy = []models.Claim{
		{ExecutorID: "1", TakenAt: baseTime},
		// Второй, более свежий отклик не перезапускает часы.
		{ExecutorID: "2", TakenAt: baseTime.Add(14 * time.Minute)},
	}

	assert.False(t, IsAutoClosedNoResponse(o, baseTime.Add(14*time.Minute)))
	assert.True(t, IsAutoClosedNoResponse(o, baseTime.Add(15*time.Minute)))
	assert.True(t, IsAutoClosedNoResponse(o, baseTime.Add(16*time.Minute)))
}

func TestIsAutoClosedNoResponse_Conditions(t *testing.T) {
	// Без откликов не закрывается никогда.
	o := newOrder(60)
	assert.False(t, IsAutoClosedNoResponse(o, baseTime.Add(time.Hour)))

	// Ответ заказчика снимает условие.
	o.TakenBy = []models.Claim{{ExecutorID: "1", TakenAt: baseTime}}
	o.CustomerResponse = &models.CustomerResponse{RespondedAt: baseTime.Add(time.Minute)}
	assert.False(t, IsAutoClosedNoResponse(o, baseTime.Add(time.Hour)))

	// Статус уже отражает закрытие — арифметика не важна.
	o = newOrder(60)
	o.Status = models.OrderStatusClosedNoResponse
	assert.True(t, IsAutoClosedNoResponse(o, baseTime))
}

func TestIsClaimable(t *testing.T) {
	o := newOrder(60)
	assert.True(t, IsClaimable(o, baseTime))

	// Потолок откликов достигнут.
	o.TakenBy = []models.Claim{
		{ExecutorID: "1", TakenAt: baseTime},
		{ExecutorID: "2", TakenAt: baseTime},
		{ExecutorID: "3", TakenAt: baseTime},
	}
	assert.False(t, IsClaimable(o, baseTime))

	// Истёкший по времени.
	o = newOrder(60)
	assert.False(t, IsClaimable(o, baseTime.Add(2*time.Hour)))

	// Неактивный статус.
	o = newOrder(60)
	o.Status = models.OrderStatusDeleted
	assert.False(t, IsClaimable(o, baseTime))
}
