package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomoguard/internal/modules/timer/domain"
	"pomoguard/internal/modules/timer/service"
	"pomoguard/internal/platform/clock"
	apperrors "pomoguard/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

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

type manualTicker struct {
	ch      chan time.Time
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped = true }

type manualTickers struct {
	mu      sync.Mutex
	created []*manualTicker
}

func (f *manualTickers) NewTicker(time.Duration) clock.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time, 1)}
	f.created = append(f.created, t)
	return t
}

func (f *manualTickers) last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

func (f *manualTickers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeSnapshotStore struct {
	mu      sync.Mutex
	snap    *domain.Snapshot
	count   int
	saves   int
	failAll bool
}

func (s *fakeSnapshotStore) LoadSnapshot(context.Context) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return domain.Snapshot{}, false, errors.New("store down")
	}
	if s.snap == nil {
		return domain.Snapshot{}, false, nil
	}
	return *s.snap, true, nil
}

func (s *fakeSnapshotStore) SaveSnapshot(_ context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store down")
	}
	s.snap = &snap
	s.saves++
	return nil
}

func (s *fakeSnapshotStore) LoadCount(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return 0, errors.New("store down")
	}
	return s.count, nil
}

func (s *fakeSnapshotStore) SaveCount(_ context.Context, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store down")
	}
	s.count = count
	return nil
}

func (s *fakeSnapshotStore) stored() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return domain.Snapshot{}
	}
	return *s.snap
}

type fakeSettings struct{ focus, brk int }

func (f fakeSettings) Durations(context.Context) (int, int, error) { return f.focus, f.brk, nil }

type fakeNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	n.notes = append(n.notes, note)
	n.mu.Unlock()
	return nil
}

type fakeBadge struct {
	text, color string
}

func (b *fakeBadge) Update(_ context.Context, text, color string) error {
	b.text, b.color = text, color
	return nil
}

type fakeHistory struct {
	records []domain.PhaseRecord
}

func (h *fakeHistory) Append(_ context.Context, r domain.PhaseRecord) error {
	h.records = append(h.records, r)
	return nil
}

func (h *fakeHistory) List(context.Context, int) ([]domain.PhaseRecord, error) {
	return h.records, nil
}

type countingMetrics struct {
	mu          sync.Mutex
	storeFailed map[string]int
	completed   map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{storeFailed: map[string]int{}, completed: map[string]int{}}
}

func (m *countingMetrics) CommandHandled(string) {}
func (m *countingMetrics) PhaseCompleted(phase string) {
	m.mu.Lock()
	m.completed[phase]++
	m.mu.Unlock()
}
func (m *countingMetrics) StoreFailed(op string) {
	m.mu.Lock()
	m.storeFailed[op]++
	m.mu.Unlock()
}
func (m *countingMetrics) BroadcastDropped(int) {}
func (m *countingMetrics) TimeLeft(string, int) {}
func (m *countingMetrics) Subscribers(int)      {}

type harness struct {
	engine   *service.Engine
	clock    *fakeClock
	tickers  *manualTickers
	store    *fakeSnapshotStore
	notifier *fakeNotifier
	badge    *fakeBadge
	history  *fakeHistory
	metrics  *countingMetrics
}

func newHarness(store *fakeSnapshotStore) *harness {
	if store == nil {
		store = &fakeSnapshotStore{}
	}
	h := &harness{
		clock:    &fakeClock{now: t0},
		tickers:  &manualTickers{},
		store:    store,
		notifier: &fakeNotifier{},
		badge:    &fakeBadge{},
		history:  &fakeHistory{},
		metrics:  newCountingMetrics(),
	}
	h.engine = service.NewEngine(service.EngineDeps{
		Clock:    h.clock,
		Tickers:  h.tickers,
		Store:    h.store,
		Settings: fakeSettings{focus: 25, brk: 5},
		Notifier: h.notifier,
		Badge:    h.badge,
		History:  h.history,
		Metrics:  h.metrics,
	})
	return h
}

func (h *harness) do(t *testing.T, action domain.Action) domain.View {
	t.Helper()
	resp, err := h.engine.Handle(context.Background(), domain.Command{Action: action})
	require.NoError(t, err)
	require.True(t, resp.Success)
	return resp.State
}

func TestEngineInitializesWithDefaults(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)

	view := h.do(t, domain.ActionGetState)
	assert.Equal(t, domain.View{TimeLeft: 1500}, view)
	assert.True(t, h.engine.Initialized())
	assert.Equal(t, "25:00", h.badge.text)
	assert.Equal(t, domain.FocusColor, h.badge.color)

	snap := h.store.stored()
	require.NotNil(t, snap.TimeLeft)
	assert.Equal(t, 1500, *snap.TimeLeft)
}

func TestEngineStartUsesExplicitDurationAndTicksFromAnchor(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()

	resp, err := h.engine.Handle(ctx, domain.Command{Action: domain.ActionStart, FocusMinutes: 10, BreakMinutes: 3})
	require.NoError(t, err)
	assert.True(t, resp.State.Running)
	assert.Equal(t, 600, resp.State.TimeLeft)

	h.clock.Advance(5*time.Second + 400*time.Millisecond)
	h.engine.Tick(ctx)
	view, err := h.engine.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 595, view.TimeLeft)
	assert.Equal(t, "9:55", h.badge.text)

	snap := h.store.stored()
	require.NotNil(t, snap.StartTimestamp)
	assert.Equal(t, t0.UnixMilli(), *snap.StartTimestamp)
	assert.True(t, snap.IsRunning)
}

func TestEnginePauseResumeKeepsResidual(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()

	h.do(t, domain.ActionStart)
	h.clock.Advance(100 * time.Second)
	paused := h.do(t, domain.ActionPause)
	assert.True(t, paused.Paused)
	assert.False(t, paused.Running)
	assert.Equal(t, 1400, paused.TimeLeft)

	h.clock.Advance(time.Hour)
	view, err := h.engine.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1400, view.TimeLeft)

	resumed := h.do(t, domain.ActionResume)
	assert.True(t, resumed.Running)
	assert.Equal(t, 1400, resumed.TimeLeft)
	h.clock.Advance(2 * time.Second)
	h.engine.Tick(ctx)
	view, err = h.engine.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1398, view.TimeLeft)
}

func TestEngineRedundantCommandsAreNoOps(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()

	assert.Equal(t, domain.View{TimeLeft: 1500}, h.do(t, domain.ActionPause))
	assert.Equal(t, domain.View{TimeLeft: 1500}, h.do(t, domain.ActionResume))

	h.do(t, domain.ActionStart)
	armed := h.tickers.count()
	h.clock.Advance(10 * time.Second)
	resp, err := h.engine.Handle(ctx, domain.Command{Action: domain.ActionStart, FocusMinutes: 1})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, armed, h.tickers.count())
	view, err := h.engine.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1490, view.TimeLeft)

	h.do(t, domain.ActionPause)
	resp, err = h.engine.Handle(ctx, domain.Command{Action: domain.ActionStart, FocusMinutes: 1})
	require.NoError(t, err)
	assert.Equal(t, 1490, resp.State.TimeLeft)
	assert.True(t, resp.State.Running)
}

func TestEngineResetReloadsPhaseDuration(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)

	h.do(t, domain.ActionStart)
	h.clock.Advance(90 * time.Second)
	view := h.do(t, domain.ActionReset)
	assert.Equal(t, domain.View{TimeLeft: 1500}, view)
	assert.True(t, h.tickers.last().stopped)
}

func TestEnginePhaseCompletionFlipsCountsAndNotifies(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()

	_, err := h.engine.Handle(ctx, domain.Command{Action: domain.ActionStart, FocusMinutes: 1})
	require.NoError(t, err)
	h.clock.Advance(60 * time.Second)
	h.engine.Tick(ctx)

	view, err := h.engine.State(ctx)
	require.NoError(t, err)
	assert.True(t, view.OnBreak)
	assert.True(t, view.Running)
	assert.Equal(t, 300, view.TimeLeft)
	assert.Equal(t, 1, view.Completed)
	assert.Equal(t, 1, h.store.count)
	assert.Equal(t, domain.BreakColor, h.badge.color)

	require.Len(t, h.notifier.notes, 1)
	assert.Equal(t, "break-notification", h.notifier.notes[0].ID)
	assert.Equal(t, "Great work! Take a 5-minute break.", h.notifier.notes[0].Message)

	require.Len(t, h.history.records, 1)
	assert.Equal(t, domain.PhaseFocus, h.history.records[0].Phase)
	assert.Equal(t, 60, h.history.records[0].PlannedSeconds)
	assert.Equal(t, 1, h.history.records[0].PomodoroCount)

	h.clock.Advance(300 * time.Second)
	h.engine.Tick(ctx)
	view, err = h.engine.State(ctx)
	require.NoError(t, err)
	assert.False(t, view.OnBreak)
	assert.True(t, view.Running)
	assert.Equal(t, 1500, view.TimeLeft)
	assert.Equal(t, 1, view.Completed)
	require.Len(t, h.notifier.notes, 2)
	assert.Equal(t, "Ready for Pomodoro #2? Let's focus for 25 minutes!", h.notifier.notes[1].Message)
	assert.Equal(t, 1, h.metrics.completed["focus"])
	assert.Equal(t, 1, h.metrics.completed["break"])
}

func TestEngineResetCountKeepsTimer(t *testing.T) {
	t.Parallel()
	h := newHarness(&fakeSnapshotStore{count: 7})

	h.do(t, domain.ActionStart)
	view := h.do(t, domain.ActionResetCount)
	assert.Equal(t, 0, view.Completed)
	assert.True(t, view.Running)
	assert.Equal(t, 0, h.store.count)
}

func TestEngineUnknownActionLeavesStateAlone(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)

	_, err := h.engine.Handle(context.Background(), domain.Command{Action: "explode"})
	require.ErrorIs(t, err, apperrors.ErrUnknownAction)
	assert.False(t, h.engine.Initialized())
	assert.Equal(t, 0, h.store.saves)
}

func TestEngineRecoversRunningSnapshot(t *testing.T) {
	t.Parallel()
	start := t0.Add(-30 * time.Second).UnixMilli()
	duration := 120
	store := &fakeSnapshotStore{count: 2, snap: &domain.Snapshot{StartTimestamp: &start, Duration: &duration, IsRunning: true, Version: 1}}
	h := newHarness(store)

	view := h.do(t, domain.ActionGetState)
	assert.Equal(t, domain.View{TimeLeft: 90, Running: true, Completed: 2}, view)
	require.Equal(t, 1, h.tickers.count())
}

func TestEngineRecoversExpiredSnapshotIntoNextPhase(t *testing.T) {
	t.Parallel()
	start := t0.Add(-10 * time.Minute).UnixMilli()
	duration := 120
	store := &fakeSnapshotStore{snap: &domain.Snapshot{StartTimestamp: &start, Duration: &duration, IsRunning: true, Version: 1}}
	h := newHarness(store)

	view := h.do(t, domain.ActionGetState)
	assert.True(t, view.OnBreak)
	assert.True(t, view.Running)
	assert.Equal(t, 300, view.TimeLeft)
	assert.Equal(t, 1, view.Completed)
	require.Len(t, h.notifier.notes, 1)
}

func TestEngineReinitializeReloadsStore(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()
	h.do(t, domain.ActionGetState)

	left := 42
	h.store.mu.Lock()
	h.store.snap = &domain.Snapshot{IsPaused: true, TimeLeft: &left, Version: 1}
	h.store.mu.Unlock()

	require.NoError(t, h.engine.Initialize(ctx))
	view, err := h.engine.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1500, view.TimeLeft)

	require.NoError(t, h.engine.Reinitialize(ctx))
	view, err = h.engine.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.View{TimeLeft: 42, Paused: true}, view)
}

func TestEngineStoreFailuresAreNotFatal(t *testing.T) {
	t.Parallel()
	h := newHarness(&fakeSnapshotStore{failAll: true})

	view := h.do(t, domain.ActionStart)
	assert.True(t, view.Running)
	assert.Equal(t, 1500, view.TimeLeft)
	assert.Positive(t, h.metrics.storeFailed["load_snapshot"])
	assert.Positive(t, h.metrics.storeFailed["save_snapshot"])
}

func TestEngineBroadcastsEveryTransition(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()
	require.NoError(t, h.engine.Initialize(ctx))

	updates, cancel := h.engine.Subscribe(8)
	defer cancel()
	assert.Equal(t, 1, h.engine.Subscribers())

	h.do(t, domain.ActionStart)
	h.clock.Advance(time.Second)
	h.engine.Tick(ctx)
	h.do(t, domain.ActionPause)

	var got []domain.View
	for i := 0; i < 3; i++ {
		select {
		case v := <-updates:
			got = append(got, v)
		case <-time.After(time.Second):
			t.Fatalf("missing update %d", i)
		}
	}
	assert.Equal(t, 1500, got[0].TimeLeft)
	assert.Equal(t, 1499, got[1].TimeLeft)
	assert.True(t, got[2].Paused)

	cancel()
	_, open := <-updates
	assert.False(t, open)
	assert.Equal(t, 0, h.engine.Subscribers())
}

func TestEngineTickerDrivesCountdownAndStaleTicksAreIgnored(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()

	h.do(t, domain.ActionStart)
	first := h.tickers.last()
	require.NotNil(t, first)

	h.clock.Advance(3 * time.Second)
	first.ch <- h.clock.Now()
	require.Eventually(t, func() bool {
		view, err := h.engine.State(ctx)
		return err == nil && view.TimeLeft == 1497
	}, time.Second, 10*time.Millisecond)

	h.do(t, domain.ActionPause)
	assert.True(t, first.stopped)
	h.clock.Advance(30 * time.Second)
	select {
	case first.ch <- h.clock.Now():
	default:
	}
	time.Sleep(20 * time.Millisecond)
	view, err := h.engine.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.View{TimeLeft: 1497, Paused: true}, view)
}

func TestEngineShutdownPersistsAndClosesSubscribers(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	h.do(t, domain.ActionStart)
	updates, _ := h.engine.Subscribe(4)

	h.clock.Advance(7 * time.Second)
	h.engine.Shutdown(context.Background())

	snap := h.store.stored()
	require.NotNil(t, snap.TimeLeft)
	assert.Equal(t, 1493, *snap.TimeLeft)
	assert.True(t, snap.IsRunning)
	_, open := <-updates
	assert.False(t, open)
}

type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Notify(context.Context, domain.Notification) error {
	close(n.entered)
	<-n.release
	return nil
}

func TestEngineSlowNotifierDoesNotBlockQueries(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: t0}
	notifier := &blockingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	engine := service.NewEngine(service.EngineDeps{
		Clock:    clk,
		Tickers:  &manualTickers{},
		Store:    &fakeSnapshotStore{},
		Settings: fakeSettings{focus: 25, brk: 5},
		Notifier: notifier,
	})
	ctx := context.Background()
	_, err := engine.Handle(ctx, domain.Command{Action: domain.ActionStart, FocusMinutes: 1})
	require.NoError(t, err)
	clk.Advance(60 * time.Second)

	ticked := make(chan struct{})
	go func() {
		engine.Tick(ctx)
		close(ticked)
	}()
	select {
	case <-notifier.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier never called")
	}

	queried := make(chan domain.View, 1)
	go func() {
		view, _ := engine.State(ctx)
		queried <- view
	}()
	select {
	case view := <-queried:
		assert.True(t, view.OnBreak)
		assert.Equal(t, 300, view.TimeLeft)
	case <-time.After(2 * time.Second):
		t.Fatal("state query blocked behind the notifier")
	}

	close(notifier.release)
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not finish")
	}
}
