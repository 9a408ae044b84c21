// Package reviews оркестрирует отправку отзывов и жалоб: сетевой вызов
// плюс локальный маркер идемпотентности на пару (заказ, роль). Повтор в
// рамках сессии не уходит в сеть — пользователю показывается прежнее
// подтверждение, а не создаётся дубликат.
package reviews

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/logger"
	"github.com/ignatzorin/uslugi-miniapp/internal/models"
	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-miniapp/internal/store"
)

// Backend — используемое подмножество api.Client; интерфейс ради моков.
type Backend interface {
	CreateClientReview(ctx context.Context, req api.ClientReviewRequest) error
	CreateExecutorComplaint(ctx context.Context, req api.ExecutorComplaintRequest) error
}

// Submitter отправляет отзывы и жалобы под защитой SubmissionGuard.
type Submitter struct {
	backend Backend
	guard   *store.SubmissionGuard
	log     *logrus.Entry
}

// NewSubmitter создаёт оркестратор отправки. guard может быть общим с
// остальным приложением; nil заводит собственный.
func NewSubmitter(backend Backend, guard *store.SubmissionGuard) *Submitter {
	if guard == nil {
		guard = store.NewSubmissionGuard()
	}
	return &Submitter{
		backend: backend,
		guard:   guard,
		log:     logger.WithComponent("reviews"),
	}
}

// SubmitClientReview отправляет отзыв заказчика. Повтор по той же паре
// (заказ, роль) возвращает ErrAlreadySubmitted без похода в сеть.
func (s *Submitter) SubmitClientReview(ctx context.Context, req api.ClientReviewRequest) error {
	return s.submit(req.OrderID, models.ReviewRoleClient, func() error {
		return s.backend.CreateClientReview(ctx, req)
	})
}

// SubmitExecutorComplaint отправляет жалобу исполнителя с той же
// гарантией идемпотентности.
func (s *Submitter) SubmitExecutorComplaint(ctx context.Context, req api.ExecutorComplaintRequest) error {
	return s.submit(req.OrderID, models.ReviewRoleExecutor, func() error {
		return s.backend.CreateExecutorComplaint(ctx, req)
	})
}

func (s *Submitter) submit(orderID, role string, send func() error) error {
	if s.guard.IsSubmitted(orderID, role) {
		return apperror.ErrAlreadySubmitted
	}

	if err := send(); err != nil {
		// Конфликт означает, что бэкенд уже видел отзыв по этой паре:
		// локальный маркер догоняет, повтор дальше в сеть не ходит.
		if apperror.IsDomain(err) {
			s.guard.MarkSubmitted(orderID, role)
			return apperror.ErrAlreadySubmitted
		}
		return err
	}

	s.guard.MarkSubmitted(orderID, role)
	s.log.WithField("order_id", orderID).Debugf("отправлено: %s", role)
	return nil
}
