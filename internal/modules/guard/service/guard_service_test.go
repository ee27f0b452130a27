package service_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomoguard/internal/modules/guard/domain"
	"pomoguard/internal/modules/guard/service"
	"pomoguard/internal/platform/clock"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeState struct {
	mu   sync.Mutex
	view domain.SessionView
	err  error
}

func (f *fakeState) Session(context.Context) (domain.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view, f.err
}

func (f *fakeState) set(v domain.SessionView) {
	f.mu.Lock()
	f.view = v
	f.mu.Unlock()
}

type fakeSites struct{ sites []string }

func (f fakeSites) BlockedSites(context.Context) ([]string, error) { return f.sites, nil }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type manualTicker struct{ ch chan time.Time }

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

type manualTickers struct{ created chan *manualTicker }

func (m manualTickers) NewTicker(time.Duration) clock.Ticker {
	t := &manualTicker{ch: make(chan time.Time)}
	m.created <- t
	return t
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "id-" + strconv.Itoa(s.n)
}

type recordingMetrics struct {
	mu        sync.Mutex
	decided   int
	redirects int
	contexts  int
}

func (m *recordingMetrics) Decided(domain.Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decided++
}

func (m *recordingMetrics) Redirected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirects++
}

func (m *recordingMetrics) Contexts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts = n
}

type harness struct {
	svc     *service.Service
	state   *fakeState
	clock   *fakeClock
	tickers manualTickers
	metrics *recordingMetrics
}

func newHarness(view domain.SessionView) *harness {
	h := &harness{
		state:   &fakeState{view: view},
		clock:   &fakeClock{now: t0},
		tickers: manualTickers{created: make(chan *manualTicker, 1)},
		metrics: &recordingMetrics{},
	}
	h.svc = service.NewService(service.Config{
		State:   h.state,
		Sites:   fakeSites{sites: []string{"reddit.com", "youtube.com"}},
		Metrics: h.metrics,
		Clock:   h.clock,
		Tickers: h.tickers,
		IDs:     &seqIDs{},
	})
	return h
}

func TestCheckBlocksOnlyDuringFocus(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{Running: true, TimeLeft: 600})

	d, err := h.svc.Check(context.Background(), "https://old.reddit.com/r/golang")
	require.NoError(t, err)
	assert.True(t, d.Blocked)
	assert.Equal(t, domain.DefaultBlockURL, d.Redirect)

	d, err = h.svc.Check(context.Background(), "https://notreddit.com")
	require.NoError(t, err)
	assert.False(t, d.Blocked)

	h.state.set(domain.SessionView{Running: true, OnBreak: true})
	d, err = h.svc.Check(context.Background(), "reddit.com")
	require.NoError(t, err)
	assert.False(t, d.Blocked)

	h.state.set(domain.SessionView{Paused: true})
	d, err = h.svc.Check(context.Background(), "reddit.com")
	require.NoError(t, err)
	assert.False(t, d.Blocked)
	assert.Equal(t, 4, h.metrics.decided)
}

func TestCheckPropagatesStateError(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{})
	h.state.err = errors.New("daemon down")

	_, err := h.svc.Check(context.Background(), "reddit.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read timer state")
}

func TestReportAssignsContextAndPublishesRedirect(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{Running: true})
	all, cancelAll := h.svc.Subscribe("", 4)
	defer cancelAll()
	other, cancelOther := h.svc.Subscribe("someone-else", 4)
	defer cancelOther()

	contextID, d, err := h.svc.Report(context.Background(), "", "https://www.youtube.com/watch")
	require.NoError(t, err)
	assert.Equal(t, "id-3", contextID)
	assert.True(t, d.Blocked)

	select {
	case ev := <-all:
		assert.Equal(t, contextID, ev.ContextID)
		assert.Equal(t, "youtube.com", ev.Host)
		assert.Equal(t, domain.DefaultBlockURL, ev.To)
		assert.Equal(t, t0, ev.At)
	default:
		t.Fatal("expected redirect event")
	}
	select {
	case <-other:
		t.Fatal("redirect leaked to another context")
	default:
	}
	assert.Equal(t, 1, h.metrics.redirects)
	assert.Equal(t, 1, h.metrics.contexts)
}

func TestReportRequiresURL(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{})
	_, _, err := h.svc.Report(context.Background(), "tab-1", "  ")
	require.Error(t, err)
}

func TestSweepRedirectsOnceWhenFocusStarts(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{})
	events, cancel := h.svc.Subscribe("tab-1", 4)
	defer cancel()

	_, d, err := h.svc.Report(context.Background(), "tab-1", "https://reddit.com/r/all")
	require.NoError(t, err)
	assert.False(t, d.Blocked)

	h.state.set(domain.SessionView{Running: true})
	h.svc.Sweep(context.Background())
	h.svc.Sweep(context.Background())
	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, "https://reddit.com/r/all", ev.From)

	_, d, err = h.svc.Report(context.Background(), "tab-1", domain.DefaultBlockURL)
	require.NoError(t, err)
	assert.True(t, d.BlockPage)
	h.svc.Sweep(context.Background())
	assert.Empty(t, events)
}

func TestSweepRedirectsAgainAfterFocusResumes(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{Running: true})
	events, cancel := h.svc.Subscribe("tab-1", 4)
	defer cancel()

	_, _, err := h.svc.Report(context.Background(), "tab-1", "reddit.com")
	require.NoError(t, err)
	require.Len(t, events, 1)
	<-events

	h.state.set(domain.SessionView{Running: true, OnBreak: true})
	h.svc.Sweep(context.Background())
	assert.Empty(t, events)

	h.state.set(domain.SessionView{Running: true})
	h.svc.Sweep(context.Background())
	assert.Len(t, events, 1)
}

func TestSweepEvictsStaleContexts(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{})
	_, _, err := h.svc.Report(context.Background(), "tab-1", "golang.org")
	require.NoError(t, err)
	require.Len(t, h.svc.Contexts(), 1)

	h.clock.Advance(service.ContextTTL + time.Second)
	h.svc.Sweep(context.Background())
	assert.Empty(t, h.svc.Contexts())
	assert.Equal(t, 0, h.metrics.contexts)
}

func TestForgetRemovesContext(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{})
	_, _, err := h.svc.Report(context.Background(), "tab-1", "golang.org")
	require.NoError(t, err)
	h.svc.Forget("tab-1")
	assert.Empty(t, h.svc.Contexts())
}

func TestRunSweepsOnTicks(t *testing.T) {
	t.Parallel()
	h := newHarness(domain.SessionView{})
	_, _, err := h.svc.Report(context.Background(), "tab-1", "youtube.com")
	require.NoError(t, err)
	events, cancel := h.svc.Subscribe("tab-1", 1)
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.svc.Run(ctx) }()

	ticker := <-h.tickers.created
	h.state.set(domain.SessionView{Running: true})
	ticker.ch <- t0

	select {
	case ev := <-events:
		assert.Equal(t, "tab-1", ev.ContextID)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not redirect")
	}

	stop()
	require.NoError(t, <-done)
}
