package scheduler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"okxbalance/okx"
	"okxbalance/tg"
	"okxbalance/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type stubFetcher struct {
	snapshot *types.BalanceSnapshot
	calls    int
	onFetch  func(n int)
}

func (f *stubFetcher) Fetch(ctx context.Context) *types.BalanceSnapshot {
	f.calls++
	if f.onFetch != nil {
		f.onFetch(f.calls)
	}
	return f.snapshot
}

type stubDeliverer struct {
	ok       bool
	messages []string
}

func (d *stubDeliverer) Deliver(ctx context.Context, text string) bool {
	d.messages = append(d.messages, text)
	return d.ok
}

func str(s string) *string { return &s }

func everyFiveMinutes(t *testing.T) cron.Schedule {
	t.Helper()
	sched, err := NewSchedule("", 300)
	if err != nil {
		t.Fatalf("NewSchedule returned error: %v", err)
	}
	return sched
}

func cycleCount(t *testing.T, outcome Outcome) float64 {
	t.Helper()
	return counterValue(t, "okxbalance_cycles_total", "outcome", string(outcome))
}

func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRunOnceEmptyDataSkipsDelivery(t *testing.T) {
	var buf bytes.Buffer
	fetcher := &stubFetcher{snapshot: &types.BalanceSnapshot{Data: []types.BalanceEntry{}}}
	deliverer := &stubDeliverer{ok: true}
	s := New(fetcher, tg.Formatter{}, deliverer, everyFiveMinutes(t), zerolog.New(&buf))

	before := cycleCount(t, OutcomeNoData)
	if got := s.RunOnce(context.Background()); got != OutcomeNoData {
		t.Fatalf("expected %s, got %s", OutcomeNoData, got)
	}
	if len(deliverer.messages) != 0 {
		t.Fatalf("delivery must not be attempted, got %v", deliverer.messages)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "no balance data found") {
		t.Fatalf("expected warning, got %s", buf.String())
	}
	if after := cycleCount(t, OutcomeNoData); after != before+1 {
		t.Fatalf("expected no_data counter to move from %v, got %v", before, after)
	}
}

func TestRunOnceFetchFailureSkipsFormatting(t *testing.T) {
	deliverer := &stubDeliverer{ok: true}
	s := New(&stubFetcher{}, tg.Formatter{}, deliverer, everyFiveMinutes(t), zerolog.Nop())

	if got := s.RunOnce(context.Background()); got != OutcomeFetchFailed {
		t.Fatalf("expected %s, got %s", OutcomeFetchFailed, got)
	}
	if len(deliverer.messages) != 0 {
		t.Fatalf("delivery must not be attempted")
	}
}

func TestRunOnceFormatFailure(t *testing.T) {
	fetcher := &stubFetcher{snapshot: &types.BalanceSnapshot{Data: []types.BalanceEntry{{TotalEqRaw: str("x")}}}}
	deliverer := &stubDeliverer{ok: true}
	s := New(fetcher, tg.Formatter{Total: types.TotalSum}, deliverer, everyFiveMinutes(t), zerolog.Nop())

	if got := s.RunOnce(context.Background()); got != OutcomeFormatFailed {
		t.Fatalf("expected %s, got %s", OutcomeFormatFailed, got)
	}
	if len(deliverer.messages) != 0 {
		t.Fatalf("delivery must not be attempted")
	}
}

func TestRunOnceEndToEnd(t *testing.T) {
	okxServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[{"totalEq":"100.5","details":[{"ccy":"USDT","availEq":"100.5"}]}]}`))
	}))
	defer okxServer.Close()

	var delivered string
	tgServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered = r.URL.Query().Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer tgServer.Close()

	cfg := &types.Config{
		OKXBaseURL:        okxServer.URL,
		TelegramBaseURL:   tgServer.URL,
		RequestTimeoutSec: 2,
		Destination:       types.Destination{BotToken: "t", ChatID: "1"},
	}
	s := New(okx.NewClient(cfg, zerolog.Nop()), tg.Formatter{Total: types.TotalLast}, tg.NewNotifier(cfg, zerolog.Nop()),
		everyFiveMinutes(t), zerolog.Nop())

	if got := s.RunOnce(context.Background()); got != OutcomeDelivered {
		t.Fatalf("expected %s, got %s", OutcomeDelivered, got)
	}
	if want := "Account Balance:\nUSDT: 100.5\n\n账户余额 = 100.5 USDT"; delivered != want {
		t.Fatalf("expected %q got %q", want, delivered)
	}
}

func TestRunOnceDeliveryFailure(t *testing.T) {
	tgServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer tgServer.Close()

	cfg := &types.Config{TelegramBaseURL: tgServer.URL, RequestTimeoutSec: 2}
	fetcher := &stubFetcher{snapshot: &types.BalanceSnapshot{Data: []types.BalanceEntry{
		{TotalEqRaw: str("1"), Details: []types.Detail{{CcyRaw: str("USDT"), AvailEqRaw: str("1")}}},
	}}}

	var buf bytes.Buffer
	s := New(fetcher, tg.Formatter{}, tg.NewNotifier(cfg, zerolog.Nop()), everyFiveMinutes(t), zerolog.New(&buf))

	fetchesBefore := counterValue(t, "okxbalance_fetches_total", "result", "ok")
	failuresBefore := counterValue(t, "okxbalance_deliveries_total", "result", "error")
	if got := s.RunOnce(context.Background()); got != OutcomeDeliveryFailed {
		t.Fatalf("expected %s, got %s", OutcomeDeliveryFailed, got)
	}
	if got := counterValue(t, "okxbalance_fetches_total", "result", "ok"); got != fetchesBefore+1 {
		t.Fatalf("expected fetch ok counter %v, got %v", fetchesBefore+1, got)
	}
	if got := counterValue(t, "okxbalance_deliveries_total", "result", "error"); got != failuresBefore+1 {
		t.Fatalf("expected delivery error counter %v, got %v", failuresBefore+1, got)
	}
	if !strings.Contains(buf.String(), "failed to send telegram notification") {
		t.Fatalf("expected delivery failure log, got %s", buf.String())
	}
}

func TestRunWaitsFullIntervalAfterEveryCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &stubFetcher{onFetch: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	s := New(fetcher, tg.Formatter{}, &stubDeliverer{}, everyFiveMinutes(t), zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 900e6, time.UTC) }

	var waits []time.Duration
	s.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	if err := s.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected 3 cycles, got %d", fetcher.calls)
	}
	if len(waits) < 2 {
		t.Fatalf("expected a wait after each completed cycle, got %v", waits)
	}
	for _, w := range waits {
		if w != 300*time.Second {
			t.Fatalf("expected 300s wait after failed fetch, got %s", w)
		}
	}
}

func TestNewSchedule(t *testing.T) {
	sched, err := NewSchedule("@every 2m", 300)
	if err != nil {
		t.Fatalf("NewSchedule returned error: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := sched.Next(now).Sub(now); got != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", got)
	}

	sched, err = NewSchedule("", 300)
	if err != nil {
		t.Fatalf("NewSchedule returned error: %v", err)
	}
	for _, ns := range []int{0, 1, 500e6, 999999999} {
		now := time.Date(2024, 1, 1, 0, 0, 0, ns, time.UTC)
		if got := sched.Next(now).Sub(now); got != 300*time.Second {
			t.Fatalf("expected exactly 300s from %s, got %s", now.Format(time.RFC3339Nano), got)
		}
	}

	if _, err := NewSchedule("not a schedule", 300); err == nil {
		t.Fatalf("expected parse error")
	}
}
