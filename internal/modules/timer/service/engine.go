package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	settingsdto "pomoguard/internal/modules/settings/dto"
	"pomoguard/internal/modules/timer/domain"
	timerout "pomoguard/internal/modules/timer/port/out"
	"pomoguard/internal/platform/clock"
	apperrors "pomoguard/internal/platform/errors"
	"pomoguard/internal/platform/id"
	"pomoguard/internal/platform/logger"
)

const TickInterval = time.Second

type EngineDeps struct {
	Clock    clock.Clock
	Tickers  clock.TickerFactory
	Store    timerout.SnapshotStore
	Settings timerout.SettingsReader
	Notifier timerout.Notifier
	Badge    timerout.Badge
	History  timerout.HistoryStore
	Metrics  timerout.Metrics
	IDs      id.Generator
	Log      logger.Logger
}

// Engine owns the session state. Every transition runs under mu, so commands,
// ticks and recovery never interleave.
type Engine struct {
	clock    clock.Clock
	tickers  clock.TickerFactory
	store    timerout.SnapshotStore
	settings timerout.SettingsReader
	notifier timerout.Notifier
	badge    timerout.Badge
	history  timerout.HistoryStore
	metrics  timerout.Metrics
	log      logger.Logger
	bus      *Broadcaster

	mu          sync.Mutex
	state       domain.SessionState
	initialized bool
	ticker      clock.Ticker
	stopTick    chan struct{}
	gen         uint64
	pending     []domain.Notification
}

func NewEngine(deps EngineDeps) *Engine {
	e := &Engine{
		clock:    deps.Clock,
		tickers:  deps.Tickers,
		store:    deps.Store,
		settings: deps.Settings,
		notifier: deps.Notifier,
		badge:    deps.Badge,
		history:  deps.History,
		metrics:  deps.Metrics,
		log:      deps.Log,
		bus:      NewBroadcaster(deps.IDs),
	}
	if e.clock == nil {
		e.clock = clock.SystemClock{}
	}
	if e.tickers == nil {
		e.tickers = clock.SystemClock{}
	}
	if e.metrics == nil {
		e.metrics = noopMetrics{}
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	e.log = e.log.With(logger.Component("timer.engine"))
	e.state = domain.IdleState(settingsdto.DefaultFocusMinutes * 60)
	return e
}

// Initialize recovers state from the store once. Later calls are no-ops until
// Reinitialize.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return nil
	}
	e.initialized = true
	e.recoverLocked(ctx)
	e.unlockAndNotify(ctx)
	return nil
}

func (e *Engine) Reinitialize(ctx context.Context) error {
	e.mu.Lock()
	e.initialized = false
	e.mu.Unlock()
	return e.Initialize(ctx)
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *Engine) recoverLocked(ctx context.Context) {
	e.disarmLocked()
	completed, err := e.store.LoadCount(ctx)
	if err != nil {
		e.storeFailed("load_count", err)
		completed = 0
	}
	snap, ok, err := e.store.LoadSnapshot(ctx)
	if err != nil {
		e.storeFailed("load_snapshot", err)
		ok = false
	}
	focus, _ := e.durations(ctx)
	state, kind := domain.Recover(snap, ok, e.clock.Now(), completed, focus*60)
	e.state = state
	e.log.Info("session recovered",
		logger.String("kind", string(kind)),
		logger.Int("time_left", state.TimeLeft),
		logger.String("phase", string(state.Phase())),
		logger.Int("completed", state.Completed),
	)
	switch kind {
	case domain.RecoverRunning:
		e.armLocked()
		e.publishLocked(ctx)
	case domain.RecoverExpired:
		e.completePhaseLocked(ctx)
	default:
		e.publishLocked(ctx)
	}
}

// Handle applies one command. Unknown actions fail without touching state.
func (e *Engine) Handle(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	if _, err := domain.ParseAction(string(cmd.Action)); err != nil {
		return domain.Response{}, err
	}
	if err := e.Initialize(ctx); err != nil {
		return domain.Response{}, err
	}
	cmd = cmd.Clamped()

	e.mu.Lock()
	defer e.unlockAndNotify(ctx)
	e.metrics.CommandHandled(string(cmd.Action))

	switch cmd.Action {
	case domain.ActionGetState:
		return domain.Response{Success: true, State: e.state.Recompute(e.clock.Now()).View()}, nil
	case domain.ActionStart:
		e.startLocked(ctx, cmd)
	case domain.ActionPause:
		e.pauseLocked(ctx)
	case domain.ActionResume:
		e.resumeLocked(ctx)
	case domain.ActionReset:
		e.resetLocked(ctx)
	case domain.ActionResetCount:
		e.resetCountLocked(ctx)
	default:
		return domain.Response{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownAction, cmd.Action)
	}
	return domain.Response{Success: true, State: e.state.View()}, nil
}

// State is getState without the metrics side effect.
func (e *Engine) State(ctx context.Context) (domain.View, error) {
	if err := e.Initialize(ctx); err != nil {
		return domain.View{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Recompute(e.clock.Now()).View(), nil
}

// Tick runs one tick against the current clock when the timer is running.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	if e.state.Running {
		e.tickLocked(ctx)
	}
	e.unlockAndNotify(ctx)
}

func (e *Engine) Subscribe(buffer int) (<-chan domain.View, func()) {
	return e.bus.Subscribe(buffer)
}

func (e *Engine) Subscribers() int {
	return e.bus.Count()
}

// Shutdown stops ticking and persists the current state so the next process
// can recover it. Subscriptions are closed.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	e.disarmLocked()
	if e.initialized {
		e.state = e.state.Recompute(e.clock.Now())
		e.persistLocked(ctx)
	}
	e.mu.Unlock()
	e.bus.Close()
	e.metrics.Subscribers(0)
}

func (e *Engine) startLocked(ctx context.Context, cmd domain.Command) {
	if e.state.Running {
		return
	}
	if !e.state.Paused {
		switch {
		case !e.state.OnBreak && cmd.FocusMinutes > 0:
			e.state.TimeLeft = cmd.FocusMinutes * 60
		case e.state.OnBreak && cmd.BreakMinutes > 0:
			e.state.TimeLeft = cmd.BreakMinutes * 60
		}
		if e.state.TimeLeft <= 0 {
			e.state.TimeLeft = e.phaseSeconds(ctx, e.state.OnBreak)
		}
	}
	e.state = e.state.StartAt(e.clock.Now())
	e.armLocked()
	e.publishLocked(ctx)
}

func (e *Engine) pauseLocked(ctx context.Context) {
	if !e.state.Running {
		return
	}
	e.disarmLocked()
	e.state = e.state.PauseAt(e.clock.Now())
	e.publishLocked(ctx)
}

func (e *Engine) resumeLocked(ctx context.Context) {
	if !e.state.Paused {
		return
	}
	e.state = e.state.StartAt(e.clock.Now())
	e.armLocked()
	e.publishLocked(ctx)
}

func (e *Engine) resetLocked(ctx context.Context) {
	e.disarmLocked()
	e.state = e.state.ResetTo(e.phaseSeconds(ctx, e.state.OnBreak))
	e.publishLocked(ctx)
}

func (e *Engine) resetCountLocked(ctx context.Context) {
	e.state.Completed = 0
	e.saveCountLocked(ctx)
	e.state = e.state.Recompute(e.clock.Now())
	e.publishLocked(ctx)
}

func (e *Engine) tickLocked(ctx context.Context) {
	e.state = e.state.Recompute(e.clock.Now())
	if e.state.TimeLeft <= 0 {
		e.completePhaseLocked(ctx)
		return
	}
	e.publishLocked(ctx)
}

// completePhaseLocked records the finished phase, flips to the other one and
// starts it immediately.
func (e *Engine) completePhaseLocked(ctx context.Context) {
	e.disarmLocked()
	now := e.clock.Now()
	finished := e.state
	e.state.TimeLeft = 0
	e.persistLocked(ctx)

	enteringBreak := !finished.OnBreak
	focus, brk := e.durations(ctx)
	minutes := focus
	if enteringBreak {
		minutes = brk
	}
	e.state = finished.CompletePhase(minutes * 60)
	if enteringBreak {
		e.saveCountLocked(ctx)
	}
	e.metrics.PhaseCompleted(string(finished.Phase()))
	e.recordHistoryLocked(ctx, finished, now)
	e.log.Info("phase completed",
		logger.String("phase", string(finished.Phase())),
		logger.String("next", string(e.state.Phase())),
		logger.Int("completed", e.state.Completed),
	)
	if e.notifier != nil {
		e.pending = append(e.pending, domain.PhaseNotification(enteringBreak, minutes, e.state.Completed))
	}

	e.state = e.state.StartAt(now)
	e.armLocked()
	e.publishLocked(ctx)
}

func (e *Engine) recordHistoryLocked(ctx context.Context, finished domain.SessionState, now time.Time) {
	if e.history == nil {
		return
	}
	record := domain.PhaseRecord{
		Phase:         finished.Phase(),
		CompletedAt:   now,
		PomodoroCount: finished.Completed,
	}
	if !finished.OnBreak {
		record.PomodoroCount++
	}
	if finished.Anchor != nil {
		record.StartedAt = finished.Anchor.StartedAt
		record.PlannedSeconds = finished.Anchor.PlannedSeconds
	}
	if err := e.history.Append(ctx, record); err != nil {
		e.storeFailed("append_history", err)
	}
}

// publishLocked updates the badge, persists and broadcasts the current state.
func (e *Engine) publishLocked(ctx context.Context) {
	view := e.state.View()
	if e.badge != nil {
		if err := e.badge.Update(ctx, domain.BadgeText(view.TimeLeft), domain.BadgeColor(view.OnBreak)); err != nil {
			e.log.Debug("badge update failed", logger.Err(err))
		}
	}
	e.metrics.TimeLeft(string(e.state.Phase()), view.TimeLeft)
	e.persistLocked(ctx)
	if dropped := e.bus.Publish(view); dropped > 0 {
		e.metrics.BroadcastDropped(dropped)
	}
	e.metrics.Subscribers(e.bus.Count())
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.store.SaveSnapshot(ctx, domain.SnapshotOf(e.state)); err != nil {
		e.storeFailed("save_snapshot", err)
	}
}

func (e *Engine) saveCountLocked(ctx context.Context) {
	if err := e.store.SaveCount(ctx, e.state.Completed); err != nil {
		e.storeFailed("save_count", err)
	}
}

func (e *Engine) storeFailed(op string, err error) {
	e.metrics.StoreFailed(op)
	e.log.Warn("store operation failed", logger.String("op", op), logger.Err(err))
}

func (e *Engine) durations(ctx context.Context) (int, int) {
	focus, brk := settingsdto.DefaultFocusMinutes, settingsdto.DefaultBreakMinutes
	if e.settings == nil {
		return focus, brk
	}
	f, b, err := e.settings.Durations(ctx)
	if err != nil {
		e.storeFailed("load_settings", err)
		return focus, brk
	}
	return settingsdto.ClampFocus(f), settingsdto.ClampBreak(b)
}

func (e *Engine) phaseSeconds(ctx context.Context, onBreak bool) int {
	focus, brk := e.durations(ctx)
	if onBreak {
		return brk * 60
	}
	return focus * 60
}

// armLocked replaces any live ticker. Ticks from an older generation are
// ignored so a stale tick can never act on a newer timer.
func (e *Engine) armLocked() {
	e.disarmLocked()
	e.gen++
	gen := e.gen
	ticker := e.tickers.NewTicker(TickInterval)
	stop := make(chan struct{})
	e.ticker = ticker
	e.stopTick = stop
	go e.runTicker(ticker, stop, gen)
}

func (e *Engine) disarmLocked() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.stopTick)
	e.ticker = nil
	e.stopTick = nil
	e.gen++
}

func (e *Engine) runTicker(ticker clock.Ticker, stop <-chan struct{}, gen uint64) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			e.mu.Lock()
			if gen == e.gen && e.state.Running {
				e.tickLocked(context.Background())
			}
			e.unlockAndNotify(context.Background())
		}
	}
}

// unlockAndNotify releases mu and then delivers the notifications queued by
// phase completion, so a slow notifier never holds up commands or ticks.
func (e *Engine) unlockAndNotify(ctx context.Context) {
	notes := e.pending
	e.pending = nil
	e.mu.Unlock()
	for _, note := range notes {
		if err := e.notifier.Notify(ctx, note); err != nil {
			e.log.Warn("notification failed", logger.String("id", note.ID), logger.Err(err))
		}
	}
}

type noopMetrics struct{}

func (noopMetrics) CommandHandled(string) {}
func (noopMetrics) PhaseCompleted(string) {}
func (noopMetrics) StoreFailed(string)    {}
func (noopMetrics) BroadcastDropped(int)  {}
func (noopMetrics) TimeLeft(string, int)  {}
func (noopMetrics) Subscribers(int)       {}
