package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
)

type Kind string

const (
	KindCreate     Kind = "create"
	KindUpdate     Kind = "update"
	KindDelete     Kind = "delete"
	KindBulkDelete Kind = "bulk_delete"
)

// Event is one committed change. Before and After hold the record snapshots
// (a list of records for bulk deletes).
type Event struct {
	ID     string      `json:"id"`
	Kind   Kind        `json:"kind"`
	Entity string      `json:"entity"`
	Actor  string      `json:"actor,omitempty"`
	Before interface{} `json:"before,omitempty"`
	After  interface{} `json:"after,omitempty"`
	At     time.Time   `json:"at"`
}

// NewEvent stamps an event with a ULID and the current time.
func NewEvent(kind Kind, entity, actor string) Event {
	now := time.Now().UTC()
	return Event{
		ID:     ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Kind:   kind,
		Entity: entity,
		Actor:  actor,
		At:     now,
	}
}

type Auditor interface {
	Record(ctx context.Context, ev Event) error
}

// LogAuditor writes events through the standard logger.
type LogAuditor struct {
	logger *log.Logger
}

func NewLogAuditor(logger *log.Logger) *LogAuditor {
	if logger == nil {
		logger = log.Default()
	}
	return &LogAuditor{logger: logger}
}

func (a *LogAuditor) Record(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	a.logger.Printf("[AUDIT] %s", payload)
	return nil
}

// Multi fans an event out to every auditor and returns the first error.
type Multi []Auditor

func (m Multi) Record(ctx context.Context, ev Event) error {
	var first error
	for _, a := range m {
		if err := a.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
