package models

import "time"

// Account types. AI accounts carry LLM connection settings; MANUAL accounts
// are traded by the user directly and have none.
const (
	AccountTypeAI     = "AI"
	AccountTypeManual = "MANUAL"
)

// Account is the write model for a trading account. Model, BaseURL and
// APIKey are nil for MANUAL accounts. APIKey is never serialised raw.
type Account struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	AccountType    string    `json:"account_type"`
	Model          *string   `json:"model,omitempty"`
	BaseURL        *string   `json:"base_url,omitempty"`
	APIKey         *string   `json:"-"`
	InitialCapital float64   `json:"initial_capital"`
	CurrentCash    float64   `json:"current_cash"`
	FrozenCash     float64   `json:"frozen_cash"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountView is the API projection of an account. APIKey holds the masked
// form ("****" plus the last four characters), never the stored key.
type AccountView struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"user_id"`
	Name           string  `json:"name"`
	Model          string  `json:"model"`
	BaseURL        string  `json:"base_url"`
	APIKey         string  `json:"api_key"`
	InitialCapital float64 `json:"initial_capital"`
	CurrentCash    float64 `json:"current_cash"`
	FrozenCash     float64 `json:"frozen_cash"`
	AccountType    string  `json:"account_type"`
	IsActive       bool    `json:"is_active"`
}
