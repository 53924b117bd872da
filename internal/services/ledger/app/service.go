package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	platformotel "github.com/louisbranch/credit-castor/internal/platform/otel"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/portage"
	"github.com/louisbranch/credit-castor/internal/services/ledger/projection"
	"github.com/louisbranch/credit-castor/internal/services/ledger/storage"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrStoreRequired indicates a missing event store.
var ErrStoreRequired = errors.New("event store is required")

// Service answers timeline queries over an event store.
type Service struct {
	store  storage.EventStore
	logger *log.Logger
	tracer trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for service spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewService builds a Service on store.
func NewService(store storage.EventStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	s := &Service{
		store:  store,
		logger: log.New(io.Discard, "", 0),
		tracer: platformotel.Tracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record appends evt to the timeline after checking it against the current
// state: a new timeline must start with the initial purchase, and the event
// must apply cleanly to the replayed state.
func (s *Service) Record(ctx context.Context, timelineID string, evt event.Event) (record storage.Record, err error) {
	ctx, span := s.start(ctx, "ledger.Record", timelineID)
	defer func() { end(span, err) }()

	if err := event.Validate(evt); err != nil {
		return storage.Record{}, err
	}
	events, err := s.events(ctx, timelineID, true)
	if err != nil {
		return storage.Record{}, err
	}
	// A journaled id goes straight to the store, which returns the stored
	// record or rejects different content.
	if !journaled(events, evt.EventID()) {
		if _, err := ledger.Replay(append(events, evt)); err != nil {
			return storage.Record{}, err
		}
	}
	record, err = s.store.AppendEvent(ctx, timelineID, evt)
	if err != nil {
		return storage.Record{}, err
	}
	span.SetAttributes(attribute.Int64("ledger.seq", int64(record.Seq)))
	s.logger.Printf("recorded %s %s on %s (seq %d)", record.Event.Kind(), record.Event.EventID(), timelineID, record.Seq)
	return record, nil
}

// Import records events in order and returns how many were appended.
func (s *Service) Import(ctx context.Context, timelineID string, events []event.Event) (int, error) {
	for i, evt := range events {
		if _, err := s.Record(ctx, timelineID, evt); err != nil {
			return i, fmt.Errorf("import event %d: %w", i, err)
		}
	}
	return len(events), nil
}

// Project replays the timeline into phases.
func (s *Service) Project(ctx context.Context, timelineID string, units model.UnitDetails) (phases []projection.Phase, err error) {
	ctx, span := s.start(ctx, "ledger.Project", timelineID)
	defer func() { end(span, err) }()

	events, err := s.events(ctx, timelineID, false)
	if err != nil {
		return nil, err
	}
	phases, err = projection.ProjectTimeline(events, units)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("ledger.phases", len(phases)))
	s.logger.Printf("projected %s: %d events, %d phases", timelineID, len(events), len(phases))
	return phases, nil
}

// State replays the timeline into its latest state.
func (s *Service) State(ctx context.Context, timelineID string) (state ledger.State, err error) {
	ctx, span := s.start(ctx, "ledger.State", timelineID)
	defer func() { end(span, err) }()

	events, err := s.events(ctx, timelineID, false)
	if err != nil {
		return ledger.State{}, err
	}
	return ledger.Replay(events)
}

// Available lists the lots purchasable on the timeline's latest state.
func (s *Service) Available(ctx context.Context, timelineID string) ([]portage.AvailableLot, error) {
	state, err := s.State(ctx, timelineID)
	if err != nil {
		return nil, err
	}
	return portage.AvailableLots(state), nil
}

// Timelines lists the journaled timelines.
func (s *Service) Timelines(ctx context.Context) (timelines []storage.Timeline, err error) {
	ctx, span := s.start(ctx, "ledger.Timelines", "")
	defer func() { end(span, err) }()
	return s.store.ListTimelines(ctx)
}

// events loads the timeline. With allowMissing, an unknown timeline is empty.
func (s *Service) events(ctx context.Context, timelineID string, allowMissing bool) ([]event.Event, error) {
	if strings.TrimSpace(timelineID) == "" {
		return nil, platformerrors.New(platformerrors.CodeTimelineIDRequired, "timeline id is required")
	}
	events, err := s.store.ListEvents(ctx, timelineID)
	if err != nil {
		if allowMissing && errors.Is(err, platformerrors.Sentinel(platformerrors.CodeNotFound)) {
			return nil, nil
		}
		return nil, fmt.Errorf("load timeline %s: %w", timelineID, err)
	}
	return events, nil
}

func journaled(events []event.Event, id string) bool {
	if id == "" {
		return false
	}
	for _, evt := range events {
		if evt.EventID() == id {
			return true
		}
	}
	return false
}

func (s *Service) start(ctx context.Context, name, timelineID string) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	if timelineID != "" {
		attrs = append(attrs, attribute.String("ledger.timeline_id", timelineID))
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		var domainErr *platformerrors.Error
		if errors.As(err, &domainErr) {
			span.SetAttributes(
				attribute.String("ledger.error_code", string(domainErr.Code)),
				attribute.Int64("rpc.grpc.status_code", int64(domainErr.Code.GRPCCode())),
			)
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
