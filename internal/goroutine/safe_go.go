package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ignatzorin/uslugi-miniapp/internal/logger"
)

// SafeGo запускает горутину с обработкой panic: тикающий таймер или
// платёжный поллер не должны ронять всё приложение.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.WithComponent("goroutine").
					Errorf("panic в горутине: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	SafeGo(func() { fn(ctx) })
}
