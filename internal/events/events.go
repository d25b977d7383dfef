package events

import "time"

// Event types
const (
	AccountCreated     = "account.created"
	AccountUpdated     = "account.updated"
	AccountDeactivated = "account.deactivated"
	AccountCashUpdated = "account.cash_updated"

	OrderSettled = "order.settled"
)

// Stream names
const (
	AccountEventsStream = "account.events"
	OrderEventsStream   = "order.events"
)

// Event is the envelope written to every stream entry.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Account lifecycle events, published by the account service.

type AccountCreatedEvent struct {
	AccountID   int64  `json:"account_id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
}

type AccountUpdatedEvent struct {
	AccountID int64  `json:"account_id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
}

type AccountDeactivatedEvent struct {
	AccountID int64 `json:"account_id"`
	UserID    int64 `json:"user_id"`
}

type AccountCashUpdatedEvent struct {
	AccountID   int64   `json:"account_id"`
	CurrentCash float64 `json:"current_cash"`
	FrozenCash  float64 `json:"frozen_cash"`
}

// OrderSettledEvent is emitted by the order subsystem after a fill settles.
// FrozenCash is nil when the settlement leaves reserved cash untouched.
type OrderSettledEvent struct {
	OrderID     string   `json:"order_id"`
	AccountID   int64    `json:"account_id"`
	CurrentCash float64  `json:"current_cash"`
	FrozenCash  *float64 `json:"frozen_cash,omitempty"`
}
