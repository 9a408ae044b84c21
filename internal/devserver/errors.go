package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
)

// Ошибки хранилища мока; каждой соответствует HTTP статус и текст detail.
// Тексты контракта берутся из apperror — клиент и мок говорят одними
// словами.
var (
	errNotFound          = errors.New(apperror.ErrOrderNotFound.Message)
	errForbidden         = errors.New("недостаточно прав")
	errOwnOrder          = errors.New("нельзя откликнуться на собственный заказ")
	errOrderNotActive    = errors.New("заказ больше не активен")
	errExecutorLimit     = errors.New("заказ уже взят максимальным числом исполнителей")
	errInsufficientFunds = errors.New("недостаточно средств на балансе")
	errAlreadyReviewed   = errors.New("отзыв по этому заказу уже оставлен")
	errBadAmount         = errors.New("сумма должна быть положительной")
)

// detail отправляет ошибку в конверте контракта: {"detail": "..."}.
func detail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}

// storeError переводит ошибку хранилища в HTTP ответ с конвертом detail.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		detail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errForbidden):
		detail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, errExecutorLimit),
		errors.Is(err, errOrderNotActive),
		errors.Is(err, errOwnOrder),
		errors.Is(err, errAlreadyReviewed):
		detail(c, http.StatusConflict, err.Error())
	case errors.Is(err, errInsufficientFunds), errors.Is(err, errBadAmount):
		detail(c, http.StatusBadRequest, err.Error())
	default:
		detail(c, http.StatusInternalServerError, "внутренняя ошибка сервера")
	}
}
