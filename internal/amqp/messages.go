package amqp

import (
	"encoding/json"
	"time"

	"spesebot/internal/core"
)

// EventType names a change made to the ledger.
type EventType string

const (
	EventExpenseAdded   EventType = "expense_added"
	EventExpenseRemoved EventType = "expense_removed"
	EventBudgetUpdated  EventType = "budget_updated"
)

// LedgerEvent is the message published after every ledger write. Amount is
// a fixed two-decimal string so consumers never see float rounding.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseAddedEvent(e core.Expense) *LedgerEvent {
	return &LedgerEvent{
		Type:      EventExpenseAdded,
		ExpenseID: e.ID,
		Amount:    e.Amount.String(),
		Date:      e.Date.String(),
		Timestamp: time.Now(),
	}
}

func NewExpenseRemovedEvent(id int64) *LedgerEvent {
	return &LedgerEvent{Type: EventExpenseRemoved, ExpenseID: id, Timestamp: time.Now()}
}

func NewBudgetUpdatedEvent(amount core.Money) *LedgerEvent {
	return &LedgerEvent{Type: EventBudgetUpdated, Amount: amount.String(), Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event published by PublishLedgerEvent.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
