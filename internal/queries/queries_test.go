package queries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/uslugi-miniapp/internal/models"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func order(id, status string, createdAt time.Time) models.Order {
	return models.Order{
		ID:               id,
		Status:           status,
		CreatedAt:        createdAt,
		ExpiresInMinutes: 60,
	}
}

func TestActiveUnexpired(t *testing.T) {
	orders := []models.Order{
		order("fresh", models.OrderStatusActive, baseTime),
		// Активный по статусу, но арифметически истёкший — скрывается.
		order("stale", models.OrderStatusActive, baseTime.Add(-2*time.Hour)),
		order("done", models.OrderStatusCompleted, baseTime),
		order("gone", models.OrderStatusDeleted, baseTime),
	}

	got := ActiveUnexpired(orders, baseTime)
	assert.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestMine(t *testing.T) {
	a := order("a", models.OrderStatusActive, baseTime)
	a.CustomerID = "10"
	b := order("b", models.OrderStatusDeleted, baseTime)
	b.CustomerID = "10"
	c := order("c", models.OrderStatusCompleted, baseTime)
	c.CustomerID = "10"
	c.Contact = "" // пустой contact не выкидывает заказ из выборки
	d := order("d", models.OrderStatusActive, baseTime)
	d.CustomerID = "20"

	got := Mine([]models.Order{a, b, c, d}, "10")
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestTakenByMe(t *testing.T) {
	taken := order("taken", models.OrderStatusActive, baseTime)
	taken.TakenBy = []models.Claim{{ExecutorID: "42", TakenAt: baseTime}}
	finished := order("finished", models.OrderStatusCompleted, baseTime)
	finished.TakenBy = []models.Claim{{ExecutorID: "42", TakenAt: baseTime}}
	other := order("other", models.OrderStatusActive, baseTime)
	other.TakenBy = []models.Claim{{ExecutorID: "7", TakenAt: baseTime}}

	got := TakenByMe([]models.Order{taken, finished, other}, "42")
	assert.Len(t, got, 1)
	assert.Equal(t, "taken", got[0].ID)
}

func TestFilter_Facets(t *testing.T) {
	repair := order("repair", models.OrderStatusActive, baseTime)
	repair.Category, repair.City = "ремонт", "Москва"
	cleaningMsk := order("cleaning-msk", models.OrderStatusActive, baseTime)
	cleaningMsk.Category, cleaningMsk.City = "уборка", "Москва"
	cleaningSpb := order("cleaning-spb", models.OrderStatusActive, baseTime)
	cleaningSpb.Category, cleaningSpb.City = "уборка", "Санкт-Петербург"

	all := []models.Order{repair, cleaningMsk, cleaningSpb}

	// Оба сентинела — всё без изменений, порядок сохранён.
	got := Filter(all, FacetAll, FacetAll)
	assert.Equal(t, all, got)

	// Только категория.
	got = Filter(all, "уборка", FacetAll)
	assert.Len(t, got, 2)

	// Категория, затем город.
	got = Filter(all, "уборка", "Москва")
	assert.Len(t, got, 1)
	assert.Equal(t, "cleaning-msk", got[0].ID)

	// Только город.
	got = Filter(all, FacetAll, "Москва")
	assert.Len(t, got, 2)
}

func TestProjectionsDoNotMutateInput(t *testing.T) {
	a := order("a", models.OrderStatusActive, baseTime)
	orders := []models.Order{a}

	_ = ActiveUnexpired(orders, baseTime)
	_ = Mine(orders, "x")
	_ = TakenByMe(orders, "x")
	_ = Filter(orders, "y", "z")

	assert.Equal(t, a, orders[0])
}
