// Package timer привязывает арифметику ordertime к настенным часам для
// живого отображения одного заказа: адаптивная частота пересэмплирования
// и принудительный пересчёт при возврате приложения на передний план.
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/ignatzorin/uslugi-miniapp/internal/goroutine"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/ordertime"
)

// Snapshot — производное состояние таймера на момент сэмпла.
type Snapshot struct {
	TotalSeconds int
	Minutes      int
	IsExpired    bool
	IsUrgent     bool
	Display      string
}

// Compute строит снапшот для заказа на момент now. Для отсутствующего
// заказа возвращается нулевое состояние: истёк, не срочный, "0:00".
func Compute(o *models.Order, now time.Time) Snapshot {
	if o == nil {
		return Snapshot{IsExpired: true, Display: Format(0)}
	}

	total := ordertime.SecondsLeft(o, now)
	minutes := total / 60
	return Snapshot{
		TotalSeconds: total,
		Minutes:      minutes,
		IsExpired:    total <= 0,
		// Истёкший заказ срочным не бывает.
		IsUrgent: minutes < 10 && total > 0,
		Display:  Format(total),
	}
}

// Format форматирует остаток: от десяти минут — целые минуты ("15 мин"),
// ниже — минуты и секунды ("9:59"). Граница точная: 600 секунд это уже
// "10 мин", 599 — ещё "9:59".
func Format(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	minutes := totalSeconds / 60
	if minutes >= 10 {
		return fmt.Sprintf("%d мин", minutes)
	}
	return fmt.Sprintf("%d:%02d", minutes, totalSeconds%60)
}

const (
	urgentInterval = time.Second
	normalInterval = time.Minute
)

// Timer — тикающий процесс одного заказа. Сэмплы строго последовательны;
// после Stop подписчик не вызывается.
type Timer struct {
	mu      sync.Mutex
	order   *models.Order
	onTick  func(Snapshot)
	now     func() time.Time
	stopped bool

	resample chan struct{}
	done     chan struct{}
}

// Option настраивает Timer.
type Option func(*Timer)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// New создаёт и запускает таймер для заказа. onTick получает снапшот
// сразу при старте и далее на каждом сэмпле. order может быть nil —
// таймер честно отдаёт нулевое состояние.
func New(order *models.Order, onTick func(Snapshot), opts ...Option) *Timer {
	t := &Timer{
		order:    order,
		onTick:   onTick,
		now:      time.Now,
		resample: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	goroutine.SafeGo(t.run)
	return t
}

// Resample форсирует немедленный пересэмпл — вызывается при возврате
// приложения на передний план, чтобы скорректировать дрейф за время,
// пока хост душил таймеры в фоне.
func (t *Timer) Resample() {
	select {
	case t.resample <- struct{}{}:
	default: // пересэмпл уже запрошен
	}
}

// Stop останавливает таймер. После возврата onTick не вызывается.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.done)
}

// Snapshot возвращает текущее состояние без ожидания тика.
func (t *Timer) Snapshot() Snapshot {
	return Compute(t.order, t.now())
}

func (t *Timer) run() {
	snap := t.sample()

	wake := time.NewTimer(nextWake(snap))
	defer wake.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-wake.C:
		case <-t.resample:
			if !wake.Stop() {
				select {
				case <-wake.C:
				default:
				}
			}
		}

		snap = t.sample()
		wake.Reset(nextWake(snap))
	}
}

// sample вычисляет снапшот и доставляет его подписчику, если таймер ещё
// жив. Колбэк зовётся вне мьютекса: подписчик вправе остановить таймер
// из собственного колбэка (обычная реакция на истечение), не ловя
// взаимоблокировку со Stop.
func (t *Timer) sample() Snapshot {
	t.mu.Lock()
	snap := Compute(t.order, t.now())
	onTick := t.onTick
	if t.stopped {
		onTick = nil
	}
	t.mu.Unlock()

	if onTick != nil {
		onTick(snap)
	}
	return snap
}

// nextWake выбирает задержку до следующего сэмпла: секунда в срочном
// режиме, минута в обычном — но не позже границы срочности, чтобы
// переход на секундную частоту не ждал конца минутного тика.
func nextWake(snap Snapshot) time.Duration {
	if snap.IsUrgent {
		return urgentInterval
	}
	if snap.IsExpired {
		// Обратный отсчёт закончен; редкие сэмплы безвредны.
		return normalInterval
	}

	untilUrgent := time.Duration(snap.TotalSeconds)*time.Second - models.UrgentThreshold
	if untilUrgent < normalInterval {
		if untilUrgent < urgentInterval {
			// Ровно на границе: следующая секунда уже срочная.
			return urgentInterval
		}
		return untilUrgent
	}
	return normalInterval
}
