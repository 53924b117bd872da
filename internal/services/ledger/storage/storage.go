// Package storage defines the persistence contract of the ledger service.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
)

// Record is a journaled event with its integrity fields.
type Record struct {
	TimelineID string
	Seq        uint64
	Event      event.Event
	Hash       string
	PrevHash   string
	ChainHash  string
	RecordedAt time.Time
}

// Timeline summarises one journaled timeline.
type Timeline struct {
	ID            string
	EventCount    int
	LastEventDate time.Time
	UpdatedAt     time.Time
}

// EventStore is an append-only journal of timeline events.
type EventStore interface {
	AppendEvent(ctx context.Context, timelineID string, evt event.Event) (Record, error)
	ListEvents(ctx context.Context, timelineID string) ([]event.Event, error)
	ListTimelines(ctx context.Context) ([]Timeline, error)
}
