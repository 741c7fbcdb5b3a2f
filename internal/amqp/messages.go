package amqp

import (
	"encoding/json"
	"time"

	"microbiz/internal/core"
)

// Routing keys on the topic exchange.
const (
	RoutingTransactionCreated   = "transaction.created"
	RoutingPaymentStatusChanged = "transaction.status_changed"
	RoutingTransactionDeleted   = "transaction.deleted"
	RoutingOverdueReminder      = "overdue.reminder"

	// TransactionBinding matches every transaction event.
	TransactionBinding = "transaction.#"
)

// TransactionEvent is a lightweight change notification. It carries only the
// ID and row version; consumers fetch the full transaction from the database.
type TransactionEvent struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event for one of the transaction routing keys.
func NewTransactionEvent(kind, id string, version int64) *TransactionEvent {
	return &TransactionEvent{
		Kind:      kind,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// OverdueReminder announces a receivable that is past its due date.
type OverdueReminder struct {
	TransactionID string     `json:"transactionId"`
	CustomerName  string     `json:"customerName"`
	Amount        core.Money `json:"amount"`
	Date          string     `json:"date"`
	DueDate       string     `json:"dueDate"`
	DelayDays     int        `json:"delayDays"`
	Timestamp     time.Time  `json:"timestamp"`
}

func (m *OverdueReminder) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OverdueReminderFromJSON(data []byte) (*OverdueReminder, error) {
	var msg OverdueReminder
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
