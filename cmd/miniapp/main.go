// Консольная обвязка клиентского движка mini app: собирает клиент,
// кеш синхронизации и таймеры, проходит handshake и показывает живую
// ленту активных заказов. Используется для ручной проверки движка
// против dev-сервера без Telegram.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/config"
	"github.com/ignatzorin/uslugi-miniapp/internal/logger"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/ordersync"
	"github.com/ignatzorin/uslugi-miniapp/internal/payment"
	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-miniapp/internal/platform"
	"github.com/ignatzorin/uslugi-miniapp/internal/queries"
	"github.com/ignatzorin/uslugi-miniapp/internal/store"
	"github.com/ignatzorin/uslugi-miniapp/internal/timer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}
	logEntry := logger.WithComponent("miniapp")

	// Вне Telegram платформенный payload подменяется переменной окружения.
	initData := os.Getenv("INIT_DATA")
	if initData == "" {
		initData = "user_id=1&username=dev"
	}
	host := platform.NewBrowserHost(initData)

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	toasts := store.NewToastStore()
	auth := store.NewAuthStore()
	syncStore := ordersync.NewStore(client, cfg.CacheTTL)
	poller := payment.NewPoller(client, cfg.PaymentPollInterval, cfg.PaymentMaxWait)

	unsubscribeToasts := toasts.Subscribe(func(items []store.Toast) {
		for _, t := range items {
			logEntry.Infof("toast [%s]: %s", t.Kind, t.Message)
		}
	})
	defer unsubscribeToasts()

	userID, err := client.AuthTelegram(ctx, host.InitData())
	if err != nil {
		toasts.Push(store.ToastError, apperror.UserMessage(err))
		log.Fatalf("main: handshake не прошёл: %v", err)
	}
	auth.SetSession(client.Token(), userID)
	logEntry.Infof("авторизован как пользователь %s", userID)

	cities, err := client.Cities(ctx)
	if err != nil {
		toasts.Push(store.ToastError, apperror.UserMessage(err))
		log.Fatalf("main: не удалось получить города: %v", err)
	}
	logEntry.Infof("доступно городов: %d", len(cities))

	result := syncStore.ListOrders(ctx, api.ListOrdersParams{Status: models.OrderStatusActive})
	if result.Err != nil && !result.Stale {
		toasts.Push(store.ToastError, apperror.UserMessage(result.Err))
		log.Fatalf("main: не удалось получить ленту: %v", result.Err)
	}

	visible := queries.ActiveUnexpired(result.Orders, time.Now())
	logEntry.Infof("в ленте %d активных заказов (всего %d)", len(visible), result.Total)

	// Живой таймер на первом заказе ленты: обратный отсчёт в том виде,
	// в котором его рисует интерфейс.
	var countdown *timer.Timer
	if len(visible) > 0 {
		first := visible[0]
		countdown = timer.New(&first, func(snap timer.Snapshot) {
			if snap.IsExpired {
				logEntry.Infof("заказ %s: время вышло", first.ID)
				return
			}
			logEntry.Infof("заказ %s: осталось %s (срочный: %t)", first.ID, snap.Display, snap.IsUrgent)
		})
		defer countdown.Stop()
	}

	// Статусы платёжного поллера уходят в лог; Start здесь не вызывается,
	// поллер запускает экран пополнения.
	unsubscribePoller := poller.Subscribe(func(snap payment.Snapshot) {
		if snap.State != payment.StateIdle {
			logEntry.Infof("платёж: %s", snap.State)
		}
	})
	defer unsubscribePoller()

	logEntry.Info("движок запущен, Ctrl+C для выхода")
	<-ctx.Done()
	logEntry.Info("завершение работы")
}
