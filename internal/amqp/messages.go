package amqp

import (
	"encoding/json"
	"time"
)

// MessageKind distinguishes the payloads travelling on the sync queue.
type MessageKind string

const (
	KindTransactionSync   MessageKind = "transaction.sync"
	KindTransactionDelete MessageKind = "transaction.delete"
)

// TransactionSyncMessage asks the worker to mirror a transaction downstream.
// It carries only the ID and version; the worker fetches the full row from
// the database so the queue never holds stale data.
type TransactionSyncMessage struct {
	Kind      MessageKind `json:"kind"`
	ID        int64       `json:"id"`
	Version   int64       `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewTransactionSyncMessage creates a sync message for the given row.
func NewTransactionSyncMessage(id, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		Kind:      KindTransactionSync,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// TransactionDeleteMessage asks the worker to remove a mirrored transaction.
// The soft-deleted row is gone from the lister's view, so the message carries
// the data the exporter needs to find the mirrored copy.
type TransactionDeleteMessage struct {
	Kind            MessageKind `json:"kind"`
	ID              int64       `json:"id"`
	EntryDate       string      `json:"entry_date"`
	Description     string      `json:"description"`
	AmountCents     int64       `json:"amount_cents"`
	TransactionType string      `json:"transaction_type"`
	Category        string      `json:"category"`
	Timestamp       time.Time   `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON decodes a sync message.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransactionDeleteMessageFromJSON decodes a delete message.
func TransactionDeleteMessageFromJSON(data []byte) (*TransactionDeleteMessage, error) {
	var msg TransactionDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PeekKind reads only the kind discriminator so the consumer can dispatch.
func PeekKind(data []byte) (MessageKind, error) {
	var probe struct {
		Kind MessageKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", err
	}
	return probe.Kind, nil
}
