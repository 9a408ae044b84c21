package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uslugi-miniapp/internal/api"
	"github.com/ignatzorin/uslugi-miniapp/internal/pkg/apperror"
	"github.com/ignatzorin/uslugi-miniapp/internal/store"
)

type mockReviewBackend struct {
	mock.Mock
}

func (m *mockReviewBackend) CreateClientReview(ctx context.Context, req api.ClientReviewRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockReviewBackend) CreateExecutorComplaint(ctx context.Context, req api.ExecutorComplaintRequest) error {
	return m.Called(ctx, req).Error(0)
}

func TestSubmitter_RepeatDoesNotReachNetwork(t *testing.T) {
	backend := new(mockReviewBackend)
	backend.On("CreateClientReview", mock.Anything, mock.Anything).Return(nil).Once()

	s := NewSubmitter(backend, store.NewSubmissionGuard())
	req := api.ClientReviewRequest{OrderID: "order-1", Rating: 5}

	require.NoError(t, s.SubmitClientReview(context.Background(), req))

	// Повтор той же пары (заказ, роль) короткозамкнут локальным маркером.
	err := s.SubmitClientReview(context.Background(), req)
	assert.ErrorIs(t, err, apperror.ErrAlreadySubmitted)
	backend.AssertNumberOfCalls(t, "CreateClientReview", 1)
}

func TestSubmitter_RolesIndependent(t *testing.T) {
	backend := new(mockReviewBackend)
	backend.On("CreateClientReview", mock.Anything, mock.Anything).Return(nil).Once()
	backend.On("CreateExecutorComplaint", mock.Anything, mock.Anything).Return(nil).Once()

	s := NewSubmitter(backend, store.NewSubmissionGuard())

	require.NoError(t, s.SubmitClientReview(context.Background(),
		api.ClientReviewRequest{OrderID: "order-1", Rating: 4}))

	// Жалоба исполнителя по тому же заказу — другая роль, не блокируется.
	require.NoError(t, s.SubmitExecutorComplaint(context.Background(),
		api.ExecutorComplaintRequest{OrderID: "order-1", Complaint: "no_response"}))

	backend.AssertExpectations(t)
}

func TestSubmitter_NetworkErrorAllowsRetry(t *testing.T) {
	backend := new(mockReviewBackend)
	backend.On("CreateClientReview", mock.Anything, mock.Anything).Return(apperror.ErrNetwork).Once()
	backend.On("CreateClientReview", mock.Anything, mock.Anything).Return(nil).Once()

	s := NewSubmitter(backend, store.NewSubmissionGuard())
	req := api.ClientReviewRequest{OrderID: "order-1", Rating: 5}

	// Сетевой сбой не помечает пару отправленной — повтор честно уходит в сеть.
	err := s.SubmitClientReview(context.Background(), req)
	assert.True(t, apperror.IsTransport(err))

	require.NoError(t, s.SubmitClientReview(context.Background(), req))
	backend.AssertNumberOfCalls(t, "CreateClientReview", 2)
}

func TestSubmitter_BackendConflictMarksLocally(t *testing.T) {
	backend := new(mockReviewBackend)
	backend.On("CreateClientReview", mock.Anything, mock.Anything).
		Return(apperror.New(apperror.ErrCodeDomain, "отзыв по этому заказу уже оставлен")).Once()

	s := NewSubmitter(backend, store.NewSubmissionGuard())
	req := api.ClientReviewRequest{OrderID: "order-1", Rating: 5}

	// Бэкенд уже видел отзыв (другая вкладка): маркер догоняет.
	err := s.SubmitClientReview(context.Background(), req)
	assert.ErrorIs(t, err, apperror.ErrAlreadySubmitted)

	err = s.SubmitClientReview(context.Background(), req)
	assert.ErrorIs(t, err, apperror.ErrAlreadySubmitted)
	backend.AssertNumberOfCalls(t, "CreateClientReview", 1)
}

func TestSubmitter_SharedGuardVisible(t *testing.T) {
	backend := new(mockReviewBackend)
	backend.On("CreateClientReview", mock.Anything, mock.Anything).Return(nil).Once()

	guard := store.NewSubmissionGuard()
	s := NewSubmitter(backend, guard)

	require.NoError(t, s.SubmitClientReview(context.Background(),
		api.ClientReviewRequest{OrderID: "order-1", Rating: 5}))

	// Экран подтверждения читает тот же guard напрямую.
	assert.True(t, guard.IsSubmitted("order-1", "client"))
	assert.False(t, guard.IsSubmitted("order-1", "executor"))
}
