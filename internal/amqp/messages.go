package amqp

import (
	"encoding/json"
	"time"
)

// OperationRecordedMessage is the lightweight event emitted after an
// operation is committed. It carries identifiers only; the worker loads
// the current totals from the database when it handles the event.
type OperationRecordedMessage struct {
	OperationID int64     `json:"operation_id"`
	UserID      int64     `json:"user_id"`
	ChatID      int64     `json:"chat_id"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewOperationRecordedMessage(operationID, userID, chatID int64, year, month int, opType string) *OperationRecordedMessage {
	return &OperationRecordedMessage{
		OperationID: operationID,
		UserID:      userID,
		ChatID:      chatID,
		Year:        year,
		Month:       month,
		Type:        opType,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *OperationRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func OperationRecordedMessageFromJSON(data []byte) (*OperationRecordedMessage, error) {
	var msg OperationRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
