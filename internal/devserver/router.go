package devserver

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uslugi-miniapp/internal/config"
)

// SetupRouter собирает gin-движок мока: CORS, rate limit и bearer-защита
// всего контракта, кроме handshake и health.
func SetupRouter(cfg *config.Config) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := newMemStore(cfg.ClaimPrice)
	tokens := NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	handlers := NewHandlers(store, tokens)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.AllowedOrigins))
	r.Use(rateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	r.GET("/health", handlers.Health)
	r.POST("/api/auth/telegram", handlers.AuthTelegram)

	authorized := r.Group("/api")
	authorized.Use(authMiddleware(tokens))
	{
		authorized.GET("/orders", handlers.ListOrders)
		authorized.POST("/orders", handlers.CreateOrder)
		authorized.GET("/orders/:id", handlers.GetOrder)
		authorized.PUT("/orders/:id", handlers.UpdateOrder)
		authorized.DELETE("/orders/:id", handlers.DeleteOrder)
		authorized.POST("/orders/:id/take", handlers.TakeOrder)
		authorized.POST("/orders/:id/close", handlers.CloseOrder)

		authorized.POST("/reviews/client", handlers.CreateClientReview)
		authorized.POST("/reviews/executor", handlers.CreateExecutorComplaint)
		authorized.GET("/reviews", handlers.ListReviews)

		authorized.GET("/users/me", handlers.Me)
		authorized.GET("/cities", handlers.Cities)

		authorized.GET("/balance", handlers.Balance)
		authorized.POST("/balance/recharge", handlers.Recharge)
		authorized.POST("/balance/create-invoice", handlers.CreateInvoice)
		authorized.GET("/balance/payment/:id/status", handlers.PaymentStatus)
	}

	return r
}
