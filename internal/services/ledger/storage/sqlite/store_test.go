package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
	"github.com/louisbranch/credit-castor/internal/platform/timeouts"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/event"
	"github.com/louisbranch/credit-castor/internal/services/ledger/domain/model"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func initialPurchase() event.InitialPurchase {
	return event.InitialPurchase{
		Header: event.Header{ID: "evt-1", Date: date(2026, 2, 1)},
		Participants: []model.Participant{
			{Name: "Buyer A", Surface: 112, CapitalApporte: 50000, NotaryFeesRate: 12.5, InterestRate: 4.5, DurationYears: 25},
			{Name: "Buyer B", Surface: 134, CapitalApporte: 170000, NotaryFeesRate: 12.5, InterestRate: 4.5, DurationYears: 25},
		},
		ProjectParams: model.ProjectParams{TotalPurchase: 650000},
		CoproName:     "Castor",
	}
}

func loan(id string, when time.Time) event.CoproTakesLoan {
	return event.CoproTakesLoan{Header: event.Header{ID: id, Date: when}, Amount: 50000, InterestRate: 3, DurationYears: 10}
}

func requireCode(t *testing.T, err error, code platformerrors.Code) {
	t.Helper()
	if !errors.Is(err, platformerrors.Sentinel(code)) {
		t.Fatalf("error = %v, want %s", err, code)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	store := openTempStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{pragma: "busy_timeout", want: strconv.FormatInt(timeouts.JournalBusy.Milliseconds(), 10)},
		{pragma: "foreign_keys", want: "1"},
		{pragma: "journal_mode", want: "wal"},
	}
	for _, tc := range tests {
		var got string
		if err := store.sqlDB.QueryRowContext(context.Background(), "PRAGMA "+tc.pragma).Scan(&got); err != nil {
			t.Fatalf("read %s: %v", tc.pragma, err)
		}
		if got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.pragma, got, tc.want)
		}
	}
}

func TestAppendAndListEventsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	events := []event.Event{initialPurchase(), loan("evt-2", date(2026, 6, 1))}
	for _, evt := range events {
		if _, err := store.AppendEvent(ctx, "castor", evt); err != nil {
			t.Fatalf("append %s: %v", evt.Kind(), err)
		}
	}

	got, err := store.ListEvents(ctx, "castor")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if !reflect.DeepEqual(got, events) {
		t.Fatalf("events = %#v, want %#v", got, events)
	}
}

func TestAppendEventAssignsSequenceAndChain(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	first, err := store.AppendEvent(ctx, "castor", initialPurchase())
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	second, err := store.AppendEvent(ctx, "castor", loan("evt-2", date(2026, 6, 1)))
	if err != nil {
		t.Fatalf("append second: %v", err)
	}

	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("seqs = %d, %d, want 1, 2", first.Seq, second.Seq)
	}
	if first.PrevHash != "" {
		t.Fatalf("first prev hash = %q, want empty", first.PrevHash)
	}
	if second.PrevHash != first.ChainHash {
		t.Fatalf("second prev hash = %q, want %q", second.PrevHash, first.ChainHash)
	}
	wantHash, _ := event.Hash(loan("evt-2", date(2026, 6, 1)))
	if second.Hash != wantHash {
		t.Fatalf("hash = %q, want %q", second.Hash, wantHash)
	}
	if second.ChainHash != ChainHash(first.ChainHash, second.Hash) {
		t.Fatal("chain hash does not link to the previous record")
	}
	if err := store.VerifyChain(ctx, "castor"); err != nil {
		t.Fatalf("verify chain: %v", err)
	}
}

func TestAppendEventRejectsOutOfOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.AppendEvent(ctx, "castor", initialPurchase()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, "castor", loan("evt-2", date(2026, 6, 1))); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, err := store.AppendEvent(ctx, "castor", loan("evt-3", date(2026, 5, 1)))
	requireCode(t, err, platformerrors.CodeEventOutOfOrder)

	if _, err := store.AppendEvent(ctx, "castor", loan("evt-4", date(2026, 6, 1))); err != nil {
		t.Fatalf("same-day append: %v", err)
	}
}

func TestAppendEventIsIdempotentByID(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	first, err := store.AppendEvent(ctx, "castor", initialPurchase())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, "castor", loan("evt-2", date(2026, 6, 1))); err != nil {
		t.Fatalf("append: %v", err)
	}

	again, err := store.AppendEvent(ctx, "castor", initialPurchase())
	if err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if again.Seq != first.Seq || again.ChainHash != first.ChainHash {
		t.Fatalf("re-append = %+v, want stored record %+v", again, first)
	}

	changed := initialPurchase()
	changed.CoproName = "Other"
	_, err = store.AppendEvent(ctx, "castor", changed)
	requireCode(t, err, platformerrors.CodeInvalidEvent)

	records, err := store.ListRecords(ctx, "castor")
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
}

func TestAppendEventAssignsMissingID(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	evt := initialPurchase()
	evt.ID = ""
	record, err := store.AppendEvent(context.Background(), "castor", evt)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(record.Event.EventID()) != 26 {
		t.Fatalf("generated id = %q, want 26 characters", record.Event.EventID())
	}
}

func TestAppendEventValidation(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	_, err := store.AppendEvent(ctx, "  ", initialPurchase())
	requireCode(t, err, platformerrors.CodeTimelineIDRequired)

	_, err = store.AppendEvent(ctx, "castor", loan("evt-1", time.Time{}))
	requireCode(t, err, platformerrors.CodeInvalidEvent)

	ctxCanceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.AppendEvent(ctxCanceled, "castor", initialPurchase()); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context canceled", err)
	}
}

func TestTimelinesAreIndependent(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.AppendEvent(ctx, "b-timeline", initialPurchase()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, "a-timeline", initialPurchase()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, "a-timeline", loan("evt-2", date(2026, 6, 1))); err != nil {
		t.Fatalf("append: %v", err)
	}

	timelines, err := store.ListTimelines(ctx)
	if err != nil {
		t.Fatalf("list timelines: %v", err)
	}
	if len(timelines) != 2 || timelines[0].ID != "a-timeline" || timelines[1].ID != "b-timeline" {
		t.Fatalf("timelines = %+v", timelines)
	}
	if timelines[0].EventCount != 2 || !timelines[0].LastEventDate.Equal(date(2026, 6, 1)) {
		t.Fatalf("a-timeline = %+v", timelines[0])
	}
	if timelines[1].EventCount != 1 {
		t.Fatalf("b-timeline = %+v", timelines[1])
	}
}

func TestListEventsUnknownTimeline(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.ListEvents(context.Background(), "missing")
	requireCode(t, err, platformerrors.CodeNotFound)
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.AppendEvent(ctx, "castor", initialPurchase()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, "castor", loan("evt-2", date(2026, 6, 1))); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := store.sqlDB.ExecContext(ctx,
		`UPDATE timeline_events SET payload_json = ? WHERE timeline_id = ? AND seq = 2`,
		[]byte(`{"amount":99,"interest_rate":3,"duration_years":10}`), "castor",
	); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if err := store.VerifyChain(ctx, "castor"); err == nil {
		t.Fatal("expected chain verification to fail")
	}
}
