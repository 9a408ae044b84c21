// Package payment — машина состояний оплаты счёта:
// idle -> creating -> awaiting -> paid | expired | error.
// Статус опрашивается с фиксированным интервалом до потолка ожидания,
// после которого платёж считается истёкшим, а не висит вечно.
package payment

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/goroutine"
	"github.com/ignatzorin/uslugi-miniapp/internal/logger"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
)

// State — состояние платёжного потока.
type State string

const (
	StateIdle     State = "idle"
	StateCreating State = "creating"
	StateAwaiting State = "awaiting"
	StatePaid     State = "paid"
	StateExpired  State = "expired"
	StateError    State = "error"
)

// Snapshot — наблюдаемое состояние поллера.
type Snapshot struct {
	State   State
	Invoice *models.Invoice
	Message string
}

// Backend — используемое подмножество api.Client.
type Backend interface {
	CreateInvoice(ctx context.Context, amount float64) (*models.Invoice, error)
	PaymentStatus(ctx context.Context, paymentID string) (string, error)
}

// Poller ведёт один платёжный поток за раз.
type Poller struct {
	backend  Backend
	interval time.Duration
	maxWait  time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	snap    Snapshot
	cancel  context.CancelFunc
	gen     int // поколение активного запуска; устаревшие не публикуют
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewPoller создаёт поллер. interval и maxWait по умолчанию — доменные
// константы (3 секунды и 30 минут).
func NewPoller(backend Backend, interval, maxWait time.Duration) *Poller {
	if interval <= 0 {
		interval = models.PaymentPollInterval
	}
	if maxWait <= 0 {
		maxWait = models.PaymentMaxWait
	}
	return &Poller{
		backend:  backend,
		interval: interval,
		maxWait:  maxWait,
		log:      logger.WithComponent("payment"),
		snap:     Snapshot{State: StateIdle},
		subs:     make(map[int]func(Snapshot)),
	}
}

// Subscribe подписывает на смены состояния; возвращает отписку.
// Текущее состояние доставляется сразу.
func (p *Poller) Subscribe(fn func(Snapshot)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	current := p.snap
	p.mu.Unlock()

	fn(current)
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Snapshot возвращает текущее состояние.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Start запускает оплату на сумму amount. Активный поток, если был,
// отменяется. Дальше состояние движется само: создание счёта, опрос
// статуса, терминальный paid/expired/error.
func (p *Poller) Start(ctx context.Context, amount float64) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	p.transition(gen, Snapshot{State: StateCreating})

	goroutine.SafeGo(func() { p.run(runCtx, gen, amount) })
}

// Cancel останавливает активный поток и возвращает поллер в idle.
// Терминальные состояния не затираются.
func (p *Poller) Cancel() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	gen := p.gen
	terminal := p.snap.State == StatePaid || p.snap.State == StateExpired || p.snap.State == StateError
	p.mu.Unlock()

	if !terminal {
		p.transition(gen, Snapshot{State: StateIdle})
	}
}

func (p *Poller) run(ctx context.Context, gen int, amount float64) {
	invoice, err := p.backend.CreateInvoice(ctx, amount)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.transition(gen, Snapshot{State: StateError, Message: apperror.UserMessage(err)})
		return
	}

	p.transition(gen, Snapshot{State: StateAwaiting, Invoice: invoice})
	p.log.WithField("payment_id", invoice.PaymentID).Debug("счёт создан, ждём оплату")

	deadline := time.Now().Add(p.maxWait)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			p.transition(gen, Snapshot{State: StateExpired, Invoice: invoice, Message: apperror.ErrPaymentExpired.Message})
			return
		}

		status, err := p.backend.PaymentStatus(ctx, invoice.PaymentID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Транспортный сбой не роняет поток — следующий тик повторит.
			if apperror.IsTransport(err) {
				p.log.WithError(err).Debug("опрос статуса не прошёл, повторим")
				continue
			}
			p.transition(gen, Snapshot{State: StateError, Invoice: invoice, Message: apperror.UserMessage(err)})
			return
		}

		switch status {
		case api.PaymentStatusPaid:
			p.transition(gen, Snapshot{State: StatePaid, Invoice: invoice})
			return
		case api.PaymentStatusExpired, api.PaymentStatusFailed:
			p.transition(gen, Snapshot{State: StateExpired, Invoice: invoice, Message: apperror.ErrPaymentExpired.Message})
			return
		}
		// pending — ждём следующий тик
	}
}

// transition публикует новое состояние подписчикам. Публикации
// устаревших запусков отбрасываются: отменённая горутина, успевшая
// дополучить статус, не затирает состояние активного потока. Колбэки
// зовутся вне мьютекса по копии списка.
func (p *Poller) transition(gen int, snap Snapshot) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.snap = snap
	subs := make([]func(Snapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
