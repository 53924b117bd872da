package app

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
	"github.com/louisbranch/credit-castor/internal/services/ledger/storage/sqlite"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc/codes"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func initialPurchase() event.InitialPurchase {
	start := date(2026, 2, 1)
	return event.InitialPurchase{
		Header: event.Header{ID: "evt-1", Date: start},
		Participants: []model.Participant{
			{Name: "Buyer A", Surface: 112, CapitalApporte: 50000, NotaryFeesRate: 12.5, InterestRate: 4.5, DurationYears: 25,
				LotsOwned: []model.Lot{{LotID: 1, Surface: 112}, {LotID: 3, Surface: 60, IsPortage: true, AcquiredDate: start, OriginalPrice: 90000}}},
			{Name: "Buyer B", Surface: 134, CapitalApporte: 170000, NotaryFeesRate: 12.5, InterestRate: 4.5, DurationYears: 25,
				LotsOwned: []model.Lot{{LotID: 2, Surface: 134}}},
		},
		ProjectParams: model.ProjectParams{TotalPurchase: 650000, GlobalCascoPerM2: 1590},
		CoproName:     "Castor",
		HiddenLots:    []model.CoproLot{{LotID: 10, Surface: 80}},
	}
}

type harness struct {
	service  *Service
	recorder *tracetest.SpanRecorder
	logs     *bytes.Buffer
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	logs := &bytes.Buffer{}
	service, err := NewService(store,
		WithLogger(log.New(logs, "", 0)),
		WithTracer(provider.Tracer("test")),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return harness{service: service, recorder: recorder, logs: logs}
}

func requireCode(t *testing.T, err error, code platformerrors.Code) {
	t.Helper()
	if !errors.Is(err, platformerrors.Sentinel(code)) {
		t.Fatalf("error = %v, want %s", err, code)
	}
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := NewService(nil); !errors.Is(err, ErrStoreRequired) {
		t.Fatalf("error = %v, want ErrStoreRequired", err)
	}
}

func TestRecordAndProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	events := []event.Event{
		initialPurchase(),
		event.NewcomerJoins{
			Header:      event.Header{ID: "evt-2", Date: date(2027, 1, 20)},
			Buyer:       model.Participant{Name: "Emma", Surface: 134, InterestRate: 4, DurationYears: 25},
			Acquisition: event.Acquisition{From: "Buyer B", LotID: 2, PurchasePrice: 165000, NotaryFees: 20625},
		},
	}
	n, err := h.service.Import(ctx, "castor", events)
	if err != nil || n != 2 {
		t.Fatalf("import = %d, %v", n, err)
	}

	phases, err := h.service.Project(ctx, "castor", nil)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(phases) != 2 || len(phases[1].Participants) != 3 {
		t.Fatalf("phases = %d", len(phases))
	}
	if !strings.Contains(h.logs.String(), "recorded NEWCOMER_JOINS evt-2 on castor (seq 2)") {
		t.Fatalf("logs = %q", h.logs.String())
	}

	timelines, err := h.service.Timelines(ctx)
	if err != nil || len(timelines) != 1 || timelines[0].EventCount != 2 {
		t.Fatalf("timelines = %+v, %v", timelines, err)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	events := []event.Event{
		initialPurchase(),
		event.CoproTakesLoan{
			Header: event.Header{ID: "evt-2", Date: date(2026, 6, 1)}, Amount: 50000, InterestRate: 4, DurationYears: 10,
		},
	}
	for i := 0; i < 2; i++ {
		if _, err := h.service.Import(ctx, "castor", events); err != nil {
			t.Fatalf("import %d: %v", i, err)
		}
	}
	timelines, err := h.service.Timelines(ctx)
	if err != nil || len(timelines) != 1 || timelines[0].EventCount != 2 {
		t.Fatalf("timelines = %+v, %v", timelines, err)
	}
}

func TestRecordRequiresInitialPurchaseFirst(t *testing.T) {
	h := newHarness(t)
	_, err := h.service.Record(context.Background(), "castor", event.CoproTakesLoan{
		Header: event.Header{ID: "evt-1", Date: date(2026, 1, 1)}, Amount: 1000, DurationYears: 1,
	})
	requireCode(t, err, platformerrors.CodeTimelineStart)

	if _, err := h.service.Project(context.Background(), "castor", nil); err == nil {
		t.Fatal("rejected event should not have been journaled")
	}
}

func TestRecordRejectsEventTheReducerRefuses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.service.Record(ctx, "castor", initialPurchase()); err != nil {
		t.Fatalf("record: %v", err)
	}
	_, err := h.service.Record(ctx, "castor", event.ParticipantExits{
		Header:      event.Header{ID: "evt-2", Date: date(2027, 1, 1)},
		Participant: "Ghost", BuyerType: event.BuyerCopro,
	})
	requireCode(t, err, platformerrors.CodeReferenceNotFound)

	spans := h.recorder.Ended()
	last := spans[len(spans)-1]
	if last.Name() != "ledger.Record" || last.Status().Code != otelcodes.Error {
		t.Fatalf("last span = %s %v, want failed ledger.Record", last.Name(), last.Status())
	}
	attrs := map[string]string{}
	for _, attr := range last.Attributes() {
		attrs[string(attr.Key)] = attr.Value.Emit()
	}
	if attrs["ledger.error_code"] != string(platformerrors.CodeReferenceNotFound) {
		t.Fatalf("error code attribute = %q", attrs["ledger.error_code"])
	}
	if attrs["rpc.grpc.status_code"] != strconv.Itoa(int(codes.FailedPrecondition)) {
		t.Fatalf("grpc status attribute = %q", attrs["rpc.grpc.status_code"])
	}
}

func TestRecordRejectsOutOfOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.service.Record(ctx, "castor", initialPurchase()); err != nil {
		t.Fatalf("record: %v", err)
	}
	_, err := h.service.Record(ctx, "castor", event.CoproTakesLoan{
		Header: event.Header{ID: "evt-2", Date: date(2025, 1, 1)}, Amount: 1000, DurationYears: 1,
	})
	requireCode(t, err, platformerrors.CodeEventOutOfOrder)
}

func TestAvailable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.service.Record(ctx, "castor", initialPurchase()); err != nil {
		t.Fatalf("record: %v", err)
	}
	lots, err := h.service.Available(ctx, "castor")
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(lots) != 2 || lots[0].LotID != 3 || lots[1].LotID != 10 {
		t.Fatalf("lots = %+v, want portage lot 3 then copro lot 10", lots)
	}
}

func TestProjectUnknownTimeline(t *testing.T) {
	h := newHarness(t)
	_, err := h.service.Project(context.Background(), "missing", nil)
	requireCode(t, err, platformerrors.CodeNotFound)

	_, err = h.service.Project(context.Background(), " ", nil)
	requireCode(t, err, platformerrors.CodeTimelineIDRequired)
}

func TestProjectRecordsSpan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.service.Record(ctx, "castor", initialPurchase()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := h.service.Project(ctx, "castor", nil); err != nil {
		t.Fatalf("project: %v", err)
	}

	var found bool
	for _, span := range h.recorder.Ended() {
		if span.Name() != "ledger.Project" {
			continue
		}
		found = true
		for _, attr := range span.Attributes() {
			if string(attr.Key) == "ledger.timeline_id" && attr.Value.AsString() != "castor" {
				t.Fatalf("timeline attribute = %q", attr.Value.AsString())
			}
		}
	}
	if !found {
		t.Fatal("expected a ledger.Project span")
	}
}
