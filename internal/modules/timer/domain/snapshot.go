package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const SnapshotVersion = 1

// Stored numbers above these bounds are treated as absent.
const (
	maxStoredSeconds = math.MaxInt32
	maxStoredMillis  = 253402300799999 // 9999-12-31T23:59:59.999Z
)

// Snapshot is the persisted timerState record.
type Snapshot struct {
	StartTimestamp *int64 `json:"startTimestamp"`
	Duration       *int   `json:"duration"`
	IsRunning      bool   `json:"isRunning"`
	IsBreak        bool   `json:"isBreak"`
	IsPaused       bool   `json:"isPaused"`
	TimeLeft       *int   `json:"timeLeft"`
	Version        int    `json:"version"`
}

func SnapshotOf(s SessionState) Snapshot {
	timeLeft := s.TimeLeft
	if timeLeft < 0 {
		timeLeft = 0
	}
	snap := Snapshot{
		IsRunning: s.Running,
		IsBreak:   s.OnBreak,
		IsPaused:  s.Paused,
		TimeLeft:  &timeLeft,
		Version:   SnapshotVersion,
	}
	if s.Running && s.Anchor != nil {
		ms := s.Anchor.StartedAt.UnixMilli()
		planned := s.Anchor.PlannedSeconds
		snap.StartTimestamp = &ms
		snap.Duration = &planned
	}
	return snap
}

// DecodeSnapshot sanitizes a stored record field by field. ok is false when the
// payload is not an object or was written by a newer version.
func DecodeSnapshot(raw []byte) (Snapshot, bool) {
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Snapshot{}, false
	}
	snap := Snapshot{Version: SnapshotVersion}
	if v, ok := number(fields["version"]); ok {
		if v > SnapshotVersion || v < math.MinInt32 {
			return Snapshot{}, false
		}
		snap.Version = int(v)
	}
	if v, ok := number(fields["startTimestamp"]); ok && v > 0 && v <= maxStoredMillis {
		ms := int64(v)
		snap.StartTimestamp = &ms
	}
	if v, ok := number(fields["duration"]); ok && v > 0 && v <= maxStoredSeconds {
		d := int(v)
		snap.Duration = &d
	}
	if v, ok := number(fields["timeLeft"]); ok && v >= 0 && v <= maxStoredSeconds {
		t := int(v)
		snap.TimeLeft = &t
	}
	snap.IsRunning = boolean(fields["isRunning"])
	snap.IsBreak = boolean(fields["isBreak"])
	snap.IsPaused = boolean(fields["isPaused"])
	return snap, true
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Trunc(f), true
}

func boolean(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

type RecoveryKind string

const (
	RecoverDefault RecoveryKind = "default"
	RecoverRunning RecoveryKind = "running"
	RecoverExpired RecoveryKind = "expired"
	RecoverPaused  RecoveryKind = "paused"
	RecoverStopped RecoveryKind = "stopped"
)

// Recover rebuilds the session from a snapshot. For RecoverExpired the returned
// state sits at zero in the old phase and the caller must run phase completion.
func Recover(snap Snapshot, ok bool, now time.Time, completed, focusSeconds int) (SessionState, RecoveryKind) {
	if !ok {
		state := IdleState(focusSeconds)
		state.Completed = completed
		return state, RecoverDefault
	}
	base := SessionState{OnBreak: snap.IsBreak, Completed: completed}
	switch {
	case snap.IsRunning && !snap.IsPaused && snap.Duration != nil && snap.StartTimestamp != nil:
		anchor := Anchor{StartedAt: time.UnixMilli(*snap.StartTimestamp).UTC(), PlannedSeconds: *snap.Duration}
		left := anchor.Remaining(now)
		if left <= 0 {
			base.TimeLeft = 0
			return base, RecoverExpired
		}
		base.TimeLeft = left
		base.Running = true
		base.Anchor = &anchor
		return base, RecoverRunning
	case snap.IsPaused && snap.TimeLeft != nil:
		base.TimeLeft = *snap.TimeLeft
		base.Paused = true
		return base, RecoverPaused
	case snap.TimeLeft != nil:
		base.TimeLeft = *snap.TimeLeft
		return base, RecoverStopped
	default:
		state := IdleState(focusSeconds)
		state.Completed = completed
		return state, RecoverDefault
	}
}
