package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the kind of change carried by a sync message
type Operation string

const (
	OpUpsert Operation = "upsert"
	OpDelete Operation = "delete"
)

// TransactionSyncMessage announces that a transaction changed. It carries only
// the ID and version; the worker reloads the row from the store.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Operation Operation `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id, version int64, op Operation) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Version:   version,
		Operation: op,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionSyncMessage) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("invalid transaction id %d", m.ID)
	}
	switch m.Operation {
	case OpUpsert, OpDelete:
		return nil
	default:
		return fmt.Errorf("unknown operation %q", m.Operation)
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON decodes and validates a message body
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
