// Package events publishes ledger changes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

type Type string

const (
	TSDIssued   Type = "tsd.issued"
	TSDReturned Type = "tsd.returned"
	TSDDeleted  Type = "tsd.deleted"
)

type Event struct {
	Type          Type      `json:"type"`
	TransactionID uint      `json:"transaction_id"`
	TSDNumber     string    `json:"tsd_number"`
	EmployeeLogin string    `json:"employee_login"`
	Company       *string   `json:"company"`
	OperatorID    *uint     `json:"operator_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (e Event) Encode() ([]byte, error) { return json.Marshal(e) }

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                        { return nil }
