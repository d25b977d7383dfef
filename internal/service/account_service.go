package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/alphaarena/account-service/internal/events"
	"github.com/alphaarena/account-service/internal/models"
	"github.com/alphaarena/account-service/internal/repository"
)

// maskPrefix replaces everything but the last four characters of an API key
// on the way out. Keys shorter than four characters are appended whole.
const maskPrefix = "****"

// AccountService owns the account lifecycle rules: per-account ownership
// checks, name uniqueness within a user's active accounts, and secret
// masking. Session resolution happens upstream in the auth middleware, so
// every method receives an already-verified user id.
type AccountService struct {
	store     AccountStore
	publisher EventPublisher
}

func NewAccountService(store AccountStore, publisher EventPublisher) *AccountService {
	return &AccountService{store: store, publisher: publisher}
}

// CreateAccountCommand carries the creation fields for a verified user.
// Transport-level defaults are already applied by the handler.
type CreateAccountCommand struct {
	UserID         int64
	Name           string
	AccountType    string
	Model          string
	BaseURL        string
	APIKey         string
	InitialCapital float64
}

// UpdateAccountCommand lists the mutable fields; nil leaves a field as-is.
type UpdateAccountCommand struct {
	AccountID        int64
	RequestingUserID int64
	Name             *string
	Model            *string
	BaseURL          *string
	APIKey           *string
}

// List returns all of the user's active accounts, secrets masked.
func (s *AccountService) List(userID int64) ([]models.AccountView, error) {
	accounts, err := s.store.ListByUser(userID, true)
	if err != nil {
		return nil, err
	}

	views := make([]models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, *accountToView(&accounts[i]))
	}
	return views, nil
}

// Create adds an account after checking the name against the caller's
// existing active accounts.
func (s *AccountService) Create(cmd CreateAccountCommand) (*models.AccountView, error) {
	if err := s.checkNameAvailable(cmd.UserID, cmd.Name, 0); err != nil {
		return nil, err
	}

	account, err := s.store.Create(repository.CreateAccountParams{
		UserID:         cmd.UserID,
		Name:           cmd.Name,
		AccountType:    cmd.AccountType,
		InitialCapital: cmd.InitialCapital,
		Model:          cmd.Model,
		BaseURL:        cmd.BaseURL,
		APIKey:         cmd.APIKey,
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.AccountCreated, events.AccountCreatedEvent{
		AccountID:   account.ID,
		UserID:      account.UserID,
		Name:        account.Name,
		AccountType: account.AccountType,
	})
	return accountToView(account), nil
}

// Get returns a single owned account, secrets masked.
func (s *AccountService) Get(accountID, requestingUserID int64) (*models.AccountView, error) {
	account, err := s.authorize(accountID, requestingUserID)
	if err != nil {
		return nil, err
	}
	return accountToView(account), nil
}

// Update overwrites only the supplied fields. A new name is re-checked
// against the caller's other active accounts, excluding this one.
func (s *AccountService) Update(cmd UpdateAccountCommand) (*models.AccountView, error) {
	if _, err := s.authorize(cmd.AccountID, cmd.RequestingUserID); err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		if err := s.checkNameAvailable(cmd.RequestingUserID, *cmd.Name, cmd.AccountID); err != nil {
			return nil, err
		}
	}

	account, err := s.store.Update(cmd.AccountID, repository.UpdateAccountParams{
		Name:    cmd.Name,
		Model:   cmd.Model,
		BaseURL: cmd.BaseURL,
		APIKey:  cmd.APIKey,
	})
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	s.publish(events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID: account.ID,
		UserID:    account.UserID,
		Name:      account.Name,
	})
	return accountToView(account), nil
}

// Delete soft-deletes an owned account and returns its name for the
// confirmation message. The row persists with is_active = false.
func (s *AccountService) Delete(accountID, requestingUserID int64) (string, error) {
	account, err := s.authorize(accountID, requestingUserID)
	if err != nil {
		return "", err
	}

	if _, err := s.store.Deactivate(accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}

	s.publish(events.AccountDeactivated, events.AccountDeactivatedEvent{
		AccountID: account.ID,
		UserID:    account.UserID,
	})
	return account.Name, nil
}

// GetOrCreateDefault returns the user's first active account, creating the
// default AI account when they have none. No ownership check beyond the
// verified user id: the lookup is scoped to that user by construction.
func (s *AccountService) GetOrCreateDefault(userID int64) (*models.AccountView, error) {
	account, err := s.store.GetOrCreateDefault(userID)
	if err != nil {
		return nil, err
	}
	return accountToView(account), nil
}

// UpdateCash applies a cash setter on behalf of the order subsystem. This
// path carries no session authorization; it is reachable only from trusted
// in-process callers such as the settlement subscriber.
func (s *AccountService) UpdateCash(accountID int64, currentCash float64, frozenCash *float64) (*models.AccountView, error) {
	account, err := s.store.UpdateCash(accountID, currentCash, frozenCash)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	s.publish(events.AccountCashUpdated, events.AccountCashUpdatedEvent{
		AccountID:   account.ID,
		CurrentCash: account.CurrentCash,
		FrozenCash:  account.FrozenCash,
	})
	return accountToView(account), nil
}

// HandleOrderEvent applies order.settled events from the order subsystem's
// stream to account cash. Other event types are ignored.
func (s *AccountService) HandleOrderEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.OrderSettled {
		return nil
	}

	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to re-marshal order.settled event: %w", err)
	}
	var data events.OrderSettledEvent
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return fmt.Errorf("failed to unmarshal order.settled event: %w", err)
	}

	if _, err := s.UpdateCash(data.AccountID, data.CurrentCash, data.FrozenCash); err != nil {
		return fmt.Errorf("failed to apply settlement for order %s: %w", data.OrderID, err)
	}
	return nil
}

// authorize loads the account and checks ownership. Existence is checked
// first: an unknown id is a not-found regardless of who asks.
func (s *AccountService) authorize(accountID, requestingUserID int64) (*models.Account, error) {
	account, err := s.store.GetByID(accountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if account.UserID != requestingUserID {
		return nil, ErrAccessDenied
	}
	return account, nil
}

// checkNameAvailable scans the user's active accounts for a name collision.
// excludeID skips the account being renamed; pass 0 on creation.
func (s *AccountService) checkNameAvailable(userID int64, name string, excludeID int64) error {
	accounts, err := s.store.ListByUser(userID, true)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if account.Name == name && account.ID != excludeID {
			return ErrDuplicateName
		}
	}
	return nil
}

// publish emits a lifecycle event; failures are logged and never fail the
// request that triggered them.
func (s *AccountService) publish(eventType string, data any) {
	if err := s.publisher.Publish(context.Background(), events.AccountEventsStream, eventType, data); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}

// MaskAPIKey returns the outward-facing form of an API key: the mask prefix
// plus at most the last four characters, or "" when no key is stored.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	suffix := key
	if len(key) > 4 {
		suffix = key[len(key)-4:]
	}
	return maskPrefix + suffix
}

func accountToView(a *models.Account) *models.AccountView {
	view := &models.AccountView{
		ID:             a.ID,
		UserID:         a.UserID,
		Name:           a.Name,
		AccountType:    a.AccountType,
		InitialCapital: a.InitialCapital,
		CurrentCash:    a.CurrentCash,
		FrozenCash:     a.FrozenCash,
		IsActive:       a.IsActive,
	}
	if a.Model != nil {
		view.Model = *a.Model
	}
	if a.BaseURL != nil {
		view.BaseURL = *a.BaseURL
	}
	if a.APIKey != nil {
		view.APIKey = MaskAPIKey(*a.APIKey)
	}
	return view
}
