package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alphaarena/account-service/internal/models"
)

// ErrAccountNotFound is returned when no account row matches the given id.
var ErrAccountNotFound = errors.New("account not found")

// Defaults applied by GetOrCreateDefault when a user has no active account.
const (
	DefaultAccountName    = "Default AI Trader"
	DefaultInitialCapital = 10000.0
	DefaultModel          = "gpt-4-turbo"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultAPIKey         = "default-key-please-update-in-settings"
)

const accountColumns = `id, user_id, name, account_type, model, base_url, api_key,
		       initial_capital, current_cash, frozen_cash, is_active, created_at, updated_at`

// AccountRepository handles all account persistence against the PostgreSQL
// store. It applies no authorization and no uniqueness checks; those belong
// to the service layer. Every mutation is a single statement.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccountParams carries the caller-supplied creation fields. Model,
// BaseURL and APIKey are persisted only for AI accounts; for any other type
// they are stored as NULL regardless of what is passed.
type CreateAccountParams struct {
	UserID         int64
	Name           string
	AccountType    string
	InitialCapital float64
	Model          string
	BaseURL        string
	APIKey         string
}

// UpdateAccountParams lists the mutable fields. Nil means "leave unchanged".
type UpdateAccountParams struct {
	Name    *string
	Model   *string
	BaseURL *string
	APIKey  *string
}

// Create inserts a new account with current_cash = initial_capital,
// frozen_cash = 0 and is_active = true, and returns the stored row.
func (r *AccountRepository) Create(params CreateAccountParams) (*models.Account, error) {
	var model, baseURL, apiKey any
	if params.AccountType == models.AccountTypeAI {
		model, baseURL, apiKey = params.Model, params.BaseURL, params.APIKey
	}

	query := `
		INSERT INTO accounts (user_id, name, account_type, model, base_url, api_key,
				      initial_capital, current_cash, frozen_cash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, 0, TRUE, $8, $8)
		RETURNING ` + accountColumns

	now := time.Now().UTC()
	account, err := scanAccount(r.db.QueryRow(query,
		params.UserID, params.Name, params.AccountType,
		model, baseURL, apiKey,
		params.InitialCapital, now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetByID fetches a single account, active or not.
func (r *AccountRepository) GetByID(accountID int64) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListByUser returns a user's accounts ordered by id, optionally restricted
// to active ones.
func (r *AccountRepository) ListByUser(userID int64, activeOnly bool) ([]models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// GetOrCreateDefault returns the user's first active account, creating an
// AI account with the package defaults when none exists.
func (r *AccountRepository) GetOrCreateDefault(userID int64) (*models.Account, error) {
	accounts, err := r.ListByUser(userID, true)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return &accounts[0], nil
	}

	return r.Create(CreateAccountParams{
		UserID:         userID,
		Name:           DefaultAccountName,
		AccountType:    models.AccountTypeAI,
		InitialCapital: DefaultInitialCapital,
		Model:          DefaultModel,
		BaseURL:        DefaultBaseURL,
		APIKey:         DefaultAPIKey,
	})
}

// Update overwrites only the supplied fields and returns the refreshed row.
func (r *AccountRepository) Update(accountID int64, params UpdateAccountParams) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET name = COALESCE($2, name),
		    model = COALESCE($3, model),
		    base_url = COALESCE($4, base_url),
		    api_key = COALESCE($5, api_key),
		    updated_at = $6
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(query,
		accountID, params.Name, params.Model, params.BaseURL, params.APIKey,
		time.Now().UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return account, nil
}

// UpdateCash sets current_cash unconditionally and frozen_cash only when
// supplied. The cash change semantics belong to the order subsystem; this
// is a plain setter.
func (r *AccountRepository) UpdateCash(accountID int64, currentCash float64, frozenCash *float64) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET current_cash = $2,
		    frozen_cash = COALESCE($3, frozen_cash),
		    updated_at = $4
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(query,
		accountID, currentCash, frozenCash, time.Now().UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account cash: %w", err)
	}
	return account, nil
}

// Deactivate soft-deletes an account. The row persists and can be
// reactivated later; no caller ever hard-deletes through this repository.
func (r *AccountRepository) Deactivate(accountID int64) (*models.Account, error) {
	return r.setActive(accountID, false)
}

// Activate flips an account back to active.
func (r *AccountRepository) Activate(accountID int64) (*models.Account, error) {
	return r.setActive(accountID, true)
}

func (r *AccountRepository) setActive(accountID int64, active bool) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET is_active = $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRow(query, accountID, active, time.Now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set account active state: %w", err)
	}
	return account, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	var account models.Account
	var model, baseURL, apiKey sql.NullString

	err := s.Scan(
		&account.ID, &account.UserID, &account.Name, &account.AccountType,
		&model, &baseURL, &apiKey,
		&account.InitialCapital, &account.CurrentCash, &account.FrozenCash,
		&account.IsActive, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if model.Valid {
		account.Model = &model.String
	}
	if baseURL.Valid {
		account.BaseURL = &baseURL.String
	}
	if apiKey.Valid {
		account.APIKey = &apiKey.String
	}
	return &account, nil
}
