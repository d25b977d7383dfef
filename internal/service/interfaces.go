package service

import (
	"context"

	"github.com/alphaarena/account-service/internal/models"
	"github.com/alphaarena/account-service/internal/repository"
)

// AccountStore is the persistence surface the service depends on,
// implemented by repository.AccountRepository.
type AccountStore interface {
	Create(params repository.CreateAccountParams) (*models.Account, error)
	GetByID(accountID int64) (*models.Account, error)
	ListByUser(userID int64, activeOnly bool) ([]models.Account, error)
	GetOrCreateDefault(userID int64) (*models.Account, error)
	Update(accountID int64, params repository.UpdateAccountParams) (*models.Account, error)
	UpdateCash(accountID int64, currentCash float64, frozenCash *float64) (*models.Account, error)
	Deactivate(accountID int64) (*models.Account, error)
}

// EventPublisher appends platform events to a stream. Implemented by
// events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}
