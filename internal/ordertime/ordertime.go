// Package ordertime содержит чистую арифметику времени жизни заказа.
// Все функции детерминированы относительно переданного "сейчас" и не
// имеют состояния; округление остатка всегда вверх — неполная минута
// (секунда) ещё принадлежит заказу.
package ordertime

import (
	"time"

	"github.com/ignatzorin/uslugi-miniapp/internal/models"
)

// Deadline возвращает момент истечения заказа.
func Deadline(o *models.Order) time.Time {
	return o.CreatedAt.Add(time.Duration(o.ExpiresInMinutes) * time.Minute)
}

// MinutesLeft возвращает остаток жизни заказа в минутах, округлённый
// вверх и не опускающийся ниже нуля: 59 минут 6 секунд — это ещё 60.
func MinutesLeft(o *models.Order, now time.Time) int {
	return ceilUnits(Deadline(o).Sub(now), time.Minute)
}

// SecondsLeft возвращает остаток жизни заказа в секундах, той же схемой
// округления, что и MinutesLeft.
func SecondsLeft(o *models.Order, now time.Time) int {
	return ceilUnits(Deadline(o).Sub(now), time.Second)
}

// ceilUnits делит remaining на unit с округлением вверх, насыщаясь в нуле.
func ceilUnits(remaining, unit time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int((remaining + unit - 1) / unit)
}

// TakenCount возвращает число откликов на заказ.
func TakenCount(o *models.Order) int {
	return len(o.TakenBy)
}

// IsExpired сообщает, истёк ли заказ. Статус expired истёкший всегда,
// даже если арифметика ещё даёт остаток (расхождение часов); статус
// completed не истёкший никогда — завершение и истечение это разные
// терминальные пути, и таблица истинности здесь зафиксирована.
func IsExpired(o *models.Order, now time.Time) bool {
	switch o.Status {
	case models.OrderStatusExpired:
		return true
	case models.OrderStatusCompleted:
		return false
	}
	return MinutesLeft(o, now) <= 0
}

// IsTakenByUser проверяет, есть ли среди откликов исполнитель userID.
// Сравнение строго строковое: приведение числовых id выполняется на
// границе wire-формата, сюда уже приходят строки.
func IsTakenByUser(o *models.Order, userID string) bool {
	if userID == "" {
		return false
	}
	for _, claim := range o.TakenBy {
		if claim.ExecutorID == userID {
			return true
		}
	}
	return false
}

// IsAutoClosedNoResponse сообщает, закрыт ли заказ из-за молчания
// заказчика: либо статус уже это отражает, либо ни одного ответа нет,
// а самый ранний отклик ждёт не меньше NoResponseTimeout. Часы ведёт
// именно самый ранний отклик — более поздние их не перезапускают.
func IsAutoClosedNoResponse(o *models.Order, now time.Time) bool {
	if o.Status == models.OrderStatusClosedNoResponse {
		return true
	}
	if o.CustomerResponse != nil || len(o.TakenBy) == 0 {
		return false
	}
	earliest := o.TakenBy[0].TakenAt
	for _, claim := range o.TakenBy[1:] {
		if claim.TakenAt.Before(earliest) {
			earliest = claim.TakenAt
		}
	}
	return now.Sub(earliest) >= models.NoResponseTimeout
}

// IsClaimable сообщает, можно ли ещё откликнуться на заказ: он активен,
// не истёк и потолок откликов не достигнут. Это клиентская предпроверка;
// авторитетный отказ остаётся за бэкендом.
func IsClaimable(o *models.Order, now time.Time) bool {
	return o.Status == models.OrderStatusActive &&
		!IsExpired(o, now) &&
		TakenCount(o) < models.MaxExecutorsPerOrder
}
