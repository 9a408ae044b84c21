// Package queries — чистые проекции над полным набором заказов.
// Ни одна функция не изменяет вход; порядок элементов сохраняется как
// пришёл из выборки, никакой неявной сортировки по остатку времени.
package queries

import (
	"time"

	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/ordertime"
)

// FacetAll — сентинел "все" для фасетных фильтров: фильтр пропускает всё.
const FacetAll = "all"

// ActiveUnexpired возвращает заказы для витрины исполнителя: активные по
// статусу и с ненулевым остатком времени. Арифметически истёкшие заказы
// скрываются, даже если бэкенд ещё не успел сверить их статус.
func ActiveUnexpired(orders []models.Order, now time.Time) []models.Order {
	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == models.OrderStatusActive && ordertime.MinutesLeft(&o, now) > 0 {
			result = append(result, o)
		}
	}
	return result
}

// Mine возвращает заказы заказчика, кроме удалённых. Пустой contact у
// старых записей — не признак отсутствия заказа.
func Mine(orders []models.Order, userID string) []models.Order {
	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.CustomerID == userID && o.Status != models.OrderStatusDeleted {
			result = append(result, o)
		}
	}
	return result
}

// TakenByMe возвращает активные заказы, на которые исполнитель userID
// уже откликнулся.
func TakenByMe(orders []models.Order, userID string) []models.Order {
	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == models.OrderStatusActive && ordertime.IsTakenByUser(&o, userID) {
			result = append(result, o)
		}
	}
	return result
}

// ByCategory фильтрует по точному совпадению категории; FacetAll
// пропускает всё.
func ByCategory(orders []models.Order, category string) []models.Order {
	if category == FacetAll || category == "" {
		return orders
	}
	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Category == category {
			result = append(result, o)
		}
	}
	return result
}

// ByCity фильтрует по точному совпадению города; FacetAll пропускает всё.
func ByCity(orders []models.Order, city string) []models.Order {
	if city == FacetAll || city == "" {
		return orders
	}
	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.City == city {
			result = append(result, o)
		}
	}
	return result
}

// Filter применяет фасеты последовательно: сначала категория, затем
// город. Каждый сентинел обходит свой фильтр независимо.
func Filter(orders []models.Order, category, city string) []models.Order {
	return ByCity(ByCategory(orders, category), city)
}
