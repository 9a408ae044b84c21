package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"

	// ErrCodeTransport: сеть недоступна, бэкенд вообще не ответил.
	// Отличается от ошибок, которые бэкенд вернул сам.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"

	// ErrCodeDomain: нарушение доменного правила (лимит исполнителей,
	// истёкший заказ, попытка сменить город).
	ErrCodeDomain ErrorCode = "DOMAIN_VIOLATION"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// FromStatus превращает не-2xx ответ бэкенда в типизированную ошибку.
// detail берётся из конверта {detail: ...} и показывается пользователю как есть.
func FromStatus(status int, detail string) *AppError {
	if detail == "" {
		detail = "запрос отклонён сервером"
	}
	return &AppError{
		Code:       statusToCode(status),
		Message:    detail,
		HTTPStatus: status,
	}
}

func statusToCode(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusConflict:
		return ErrCodeDomain
	case http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	default:
		return ErrCodeInternal
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeDomain:
		return http.StatusConflict
	case ErrCodeTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsTransport(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeTransport
}

func IsDomain(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeDomain
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

// UserMessage возвращает текст для показа пользователю: detail бэкенда
// для типизированных ошибок, нейтральная формулировка для остальных.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "что-то пошло не так, попробуйте ещё раз"
}

var (
	ErrOrderNotFound    = New(ErrCodeNotFound, "заказ не найден")
	ErrUnauthorized     = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrNetwork          = New(ErrCodeTransport, "не удалось связаться с сервером, проверьте соединение")
	ErrOrderNotActive   = New(ErrCodeDomain, "заказ больше не активен")
	ErrOrderExpired     = New(ErrCodeDomain, "срок заказа истёк")
	ErrExecutorLimit    = New(ErrCodeDomain, "заказ уже взят максимальным числом исполнителей")
	ErrCityLocked       = New(ErrCodeDomain, "город нельзя изменить после создания заказа")
	ErrAlreadySubmitted = New(ErrCodeConflict, "вы уже отправили отзыв по этому заказу")
	ErrPaymentExpired   = New(ErrCodeDomain, "время оплаты истекло, создайте счёт заново")
)
