package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScanRequestMessage asks a worker to rescan the configured document source
// and record the outcome. Only the filter travels; documents are read by the
// worker at processing time.
type ScanRequestMessage struct {
	RequestID string    `json:"request_id"`
	Filter    string    `json:"filter"`
	Timestamp time.Time `json:"timestamp"`
}

// NewScanRequestMessage creates a request with a fresh request ID.
func NewScanRequestMessage(filter string) *ScanRequestMessage {
	return &ScanRequestMessage{
		RequestID: uuid.NewString(),
		Filter:    filter,
		Timestamp: time.Now(),
	}
}

func (m *ScanRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ScanRequestMessageFromJSON(data []byte) (*ScanRequestMessage, error) {
	var msg ScanRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RequestID == "" {
		return nil, fmt.Errorf("scan request without request_id")
	}
	return &msg, nil
}
