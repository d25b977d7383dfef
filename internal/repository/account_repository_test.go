package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alphaarena/account-service/internal/models"
)

var accountTestColumns = []string{
	"id", "user_id", "name", "account_type", "model", "base_url", "api_key",
	"initial_capital", "current_cash", "frozen_cash", "is_active", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*AccountRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	return NewAccountRepository(db), mock, func() { db.Close() }
}

func aiAccountRow(id, userID int64, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(accountTestColumns).
		AddRow(id, userID, name, models.AccountTypeAI, "gpt-4-turbo", "https://api.openai.com/v1", "sk-abcdef123456",
			10000.0, 10000.0, 0.0, true, now, now)
}

func TestAccountRepositoryCreate(t *testing.T) {
	tests := []struct {
		name      string
		params    CreateAccountParams
		mockSetup func(mock sqlmock.Sqlmock)
		check     func(t *testing.T, account *models.Account)
	}{
		{
			name: "AI account keeps model, base_url and api_key",
			params: CreateAccountParams{
				UserID: 1, Name: "Bot1", AccountType: models.AccountTypeAI,
				InitialCapital: 10000.0, Model: "gpt-4-turbo",
				BaseURL: "https://api.openai.com/v1", APIKey: "sk-abcdef123456",
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(int64(1), "Bot1", models.AccountTypeAI,
						"gpt-4-turbo", "https://api.openai.com/v1", "sk-abcdef123456",
						10000.0, sqlmock.AnyArg()).
					WillReturnRows(aiAccountRow(1, 1, "Bot1"))
			},
			check: func(t *testing.T, account *models.Account) {
				if account.APIKey == nil || *account.APIKey != "sk-abcdef123456" {
					t.Errorf("expected stored api key, got %v", account.APIKey)
				}
				if account.CurrentCash != account.InitialCapital {
					t.Errorf("expected current_cash = initial_capital, got %v", account.CurrentCash)
				}
				if account.FrozenCash != 0 {
					t.Errorf("expected zero frozen_cash, got %v", account.FrozenCash)
				}
				if !account.IsActive {
					t.Error("expected new account to be active")
				}
			},
		},
		{
			name: "MANUAL account nulls the AI fields",
			params: CreateAccountParams{
				UserID: 1, Name: "Hand", AccountType: models.AccountTypeManual,
				InitialCapital: 5000.0, Model: "gpt-4-turbo",
				BaseURL: "https://api.openai.com/v1", APIKey: "sk-ignored",
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				rows := sqlmock.NewRows(accountTestColumns).
					AddRow(2, 1, "Hand", models.AccountTypeManual, nil, nil, nil,
						5000.0, 5000.0, 0.0, true, now, now)
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(int64(1), "Hand", models.AccountTypeManual,
						nil, nil, nil, 5000.0, sqlmock.AnyArg()).
					WillReturnRows(rows)
			},
			check: func(t *testing.T, account *models.Account) {
				if account.Model != nil || account.BaseURL != nil || account.APIKey != nil {
					t.Errorf("expected nil AI fields, got %v %v %v",
						account.Model, account.BaseURL, account.APIKey)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, closeDB := newMockRepo(t)
			defer closeDB()

			tt.mockSetup(mock)

			account, err := repo.Create(tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, account)

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestAccountRepositoryGetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(aiAccountRow(1, 1, "Bot1"))

		account, err := repo.GetByID(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.ID != 1 || account.Name != "Bot1" {
			t.Errorf("unexpected account: %+v", account)
		}
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(accountTestColumns))

		_, err := repo.GetByID(99)
		if !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestAccountRepositoryListByUser(t *testing.T) {
	t.Run("active only filters on is_active", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		now := time.Now()
		rows := sqlmock.NewRows(accountTestColumns).
			AddRow(1, 1, "Bot1", models.AccountTypeAI, "gpt-4-turbo", "https://api.openai.com/v1", "sk-aaa",
				10000.0, 9000.0, 500.0, true, now, now).
			AddRow(3, 1, "Bot2", models.AccountTypeAI, "gpt-4-turbo", "https://api.openai.com/v1", "sk-bbb",
				10000.0, 10000.0, 0.0, true, now, now)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE user_id = \$1 AND is_active = TRUE ORDER BY id`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		accounts, err := repo.ListByUser(1, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 2 {
			t.Fatalf("expected 2 accounts, got %d", len(accounts))
		}
		if accounts[0].ID != 1 || accounts[1].ID != 3 {
			t.Errorf("expected id ordering, got %d then %d", accounts[0].ID, accounts[1].ID)
		}
	})

	t.Run("all accounts when activeOnly is false", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE user_id = \$1 ORDER BY id`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(accountTestColumns))

		accounts, err := repo.ListByUser(1, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 0 {
			t.Errorf("expected no accounts, got %d", len(accounts))
		}
	})
}

func TestAccountRepositoryGetOrCreateDefault(t *testing.T) {
	t.Run("returns first active account when one exists", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE user_id = \$1 AND is_active = TRUE ORDER BY id`).
			WithArgs(int64(1)).
			WillReturnRows(aiAccountRow(7, 1, "Bot1"))

		account, err := repo.GetOrCreateDefault(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.ID != 7 {
			t.Errorf("expected existing account 7, got %d", account.ID)
		}
	})

	t.Run("creates the default AI account when none exist", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE user_id = \$1 AND is_active = TRUE ORDER BY id`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(accountTestColumns))

		now := time.Now()
		created := sqlmock.NewRows(accountTestColumns).
			AddRow(8, 2, DefaultAccountName, models.AccountTypeAI, DefaultModel, DefaultBaseURL, DefaultAPIKey,
				DefaultInitialCapital, DefaultInitialCapital, 0.0, true, now, now)
		mock.ExpectQuery(`INSERT INTO accounts`).
			WithArgs(int64(2), DefaultAccountName, models.AccountTypeAI,
				DefaultModel, DefaultBaseURL, DefaultAPIKey,
				DefaultInitialCapital, sqlmock.AnyArg()).
			WillReturnRows(created)

		account, err := repo.GetOrCreateDefault(2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Name != DefaultAccountName {
			t.Errorf("expected default account name, got %q", account.Name)
		}
		if account.APIKey == nil || *account.APIKey != DefaultAPIKey {
			t.Errorf("expected placeholder api key, got %v", account.APIKey)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestAccountRepositoryUpdate(t *testing.T) {
	t.Run("only supplied fields are sent", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		newName := "Renamed"
		mock.ExpectQuery(`UPDATE accounts SET name = COALESCE\(\$2, name\)`).
			WithArgs(int64(1), &newName, (*string)(nil), (*string)(nil), (*string)(nil), sqlmock.AnyArg()).
			WillReturnRows(aiAccountRow(1, 1, "Renamed"))

		account, err := repo.Update(1, UpdateAccountParams{Name: &newName})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Name != "Renamed" {
			t.Errorf("expected renamed account, got %q", account.Name)
		}
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		newName := "Renamed"
		mock.ExpectQuery(`UPDATE accounts SET name = COALESCE\(\$2, name\)`).
			WithArgs(int64(99), &newName, (*string)(nil), (*string)(nil), (*string)(nil), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(accountTestColumns))

		_, err := repo.Update(99, UpdateAccountParams{Name: &newName})
		if !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestAccountRepositoryUpdateCash(t *testing.T) {
	t.Run("frozen cash untouched when nil", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		now := time.Now()
		rows := sqlmock.NewRows(accountTestColumns).
			AddRow(1, 1, "Bot1", models.AccountTypeAI, "gpt-4-turbo", "https://api.openai.com/v1", "sk-aaa",
				10000.0, 8000.0, 500.0, true, now, now)
		mock.ExpectQuery(`UPDATE accounts SET current_cash = \$2`).
			WithArgs(int64(1), 8000.0, (*float64)(nil), sqlmock.AnyArg()).
			WillReturnRows(rows)

		account, err := repo.UpdateCash(1, 8000.0, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.CurrentCash != 8000.0 || account.FrozenCash != 500.0 {
			t.Errorf("unexpected balances: %v / %v", account.CurrentCash, account.FrozenCash)
		}
	})

	t.Run("frozen cash overwritten when supplied", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		frozen := 250.0
		now := time.Now()
		rows := sqlmock.NewRows(accountTestColumns).
			AddRow(1, 1, "Bot1", models.AccountTypeAI, "gpt-4-turbo", "https://api.openai.com/v1", "sk-aaa",
				10000.0, 8000.0, 250.0, true, now, now)
		mock.ExpectQuery(`UPDATE accounts SET current_cash = \$2`).
			WithArgs(int64(1), 8000.0, &frozen, sqlmock.AnyArg()).
			WillReturnRows(rows)

		account, err := repo.UpdateCash(1, 8000.0, &frozen)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.FrozenCash != 250.0 {
			t.Errorf("expected frozen cash 250, got %v", account.FrozenCash)
		}
	})
}

func TestAccountRepositoryDeactivateActivate(t *testing.T) {
	t.Run("deactivate flips is_active off", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		now := time.Now()
		rows := sqlmock.NewRows(accountTestColumns).
			AddRow(1, 1, "Bot1", models.AccountTypeAI, "gpt-4-turbo", "https://api.openai.com/v1", "sk-aaa",
				10000.0, 10000.0, 0.0, false, now, now)
		mock.ExpectQuery(`UPDATE accounts SET is_active = \$2`).
			WithArgs(int64(1), false, sqlmock.AnyArg()).
			WillReturnRows(rows)

		account, err := repo.Deactivate(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.IsActive {
			t.Error("expected deactivated account")
		}
	})

	t.Run("activate flips is_active back on", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectQuery(`UPDATE accounts SET is_active = \$2`).
			WithArgs(int64(1), true, sqlmock.AnyArg()).
			WillReturnRows(aiAccountRow(1, 1, "Bot1"))

		account, err := repo.Activate(1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !account.IsActive {
			t.Error("expected reactivated account")
		}
	})

	t.Run("deactivate missing account", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()

		mock.ExpectQuery(`UPDATE accounts SET is_active = \$2`).
			WithArgs(int64(99), false, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(accountTestColumns))

		_, err := repo.Deactivate(99)
		if !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})
}
