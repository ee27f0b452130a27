package in_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	timerin "pomoguard/internal/modules/timer/adapter/in"
	"pomoguard/internal/modules/timer/dto"
	apperrors "pomoguard/internal/platform/errors"
)

type fakeUsecase struct {
	mu       sync.Mutex
	state    dto.StateOutput
	inputs   []dto.CommandInput
	updates  chan dto.StateOutput
	history  []dto.HistoryOutput
	limits   []int
	unsubbed bool
}

func (f *fakeUsecase) GetState(context.Context) (dto.StateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeUsecase) Dispatch(_ context.Context, input dto.CommandInput) (dto.CommandOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch input.Action {
	case "getState", "start", "pause", "resume", "reset", "resetCount":
	default:
		return dto.CommandOutput{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownAction, input.Action)
	}
	f.inputs = append(f.inputs, input)
	if input.Action == "start" {
		f.state.Running = true
	}
	return dto.CommandOutput{Success: true, State: f.state}, nil
}

func (f *fakeUsecase) Start(ctx context.Context, in dto.StartInput) (dto.CommandOutput, error) {
	return f.Dispatch(ctx, dto.CommandInput{Action: "start", FocusMinutes: in.FocusMinutes, BreakMinutes: in.BreakMinutes})
}
func (f *fakeUsecase) Pause(ctx context.Context) (dto.CommandOutput, error) {
	return f.Dispatch(ctx, dto.CommandInput{Action: "pause"})
}
func (f *fakeUsecase) Resume(ctx context.Context) (dto.CommandOutput, error) {
	return f.Dispatch(ctx, dto.CommandInput{Action: "resume"})
}
func (f *fakeUsecase) Reset(ctx context.Context) (dto.CommandOutput, error) {
	return f.Dispatch(ctx, dto.CommandInput{Action: "reset"})
}
func (f *fakeUsecase) ResetCount(ctx context.Context) (dto.CommandOutput, error) {
	return f.Dispatch(ctx, dto.CommandInput{Action: "resetCount"})
}

func (f *fakeUsecase) Subscribe(context.Context, int) (<-chan dto.StateOutput, func()) {
	return f.updates, func() {
		f.mu.Lock()
		f.unsubbed = true
		f.mu.Unlock()
	}
}

func (f *fakeUsecase) History(_ context.Context, limit int) ([]dto.HistoryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	return f.history, nil
}

func (f *fakeUsecase) RunDaemon(context.Context) error   { return nil }
func (f *fakeUsecase) StartDaemon(context.Context) error { return nil }
func (f *fakeUsecase) StopDaemon(context.Context) error  { return nil }
func (f *fakeUsecase) DaemonStatus(context.Context) (dto.DaemonStatusOutput, error) {
	return dto.DaemonStatusOutput{}, nil
}
func (f *fakeUsecase) DaemonLogs(context.Context, int) (string, error) { return "", nil }

func newTestServer(t *testing.T, uc *fakeUsecase) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	timerin.NewHTTPHandler(uc, nil).Register(r.PathPrefix("/v1").Subrouter())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetStateReturnsRecord(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{state: dto.StateOutput{TimeLeft: 1500, Phase: "focus", Status: "idle"}}
	srv := newTestServer(t, uc)

	resp, err := http.Get(srv.URL + "/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 1500, body["timeLeft"])
	assert.Equal(t, false, body["isRunning"])
	assert.EqualValues(t, 0, body["pomodoroCount"])
}

func TestPostCommandDispatches(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	srv := newTestServer(t, uc)

	resp, err := http.Post(srv.URL+"/v1/commands", "application/json", strings.NewReader(`{"action":"start","focusTime":15}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.CommandOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.True(t, out.State.Running)
	require.Len(t, uc.inputs, 1)
	assert.Equal(t, 15, uc.inputs[0].FocusMinutes)
}

func TestPostCommandAcceptsLooseDurations(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	srv := newTestServer(t, uc)

	for _, body := range []string{
		`{"action":"start","focusTime":25.5}`,
		`{"action":"start","focusTime":"25","breakTime":"7"}`,
		`{"action":"start","focusTime":1e20,"breakTime":-3}`,
		`{"action":"start","focusTime":"soon","breakTime":null}`,
	} {
		resp, err := http.Post(srv.URL+"/v1/commands", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, body)
	}

	require.Len(t, uc.inputs, 4)
	assert.Equal(t, 25, uc.inputs[0].FocusMinutes)
	assert.Equal(t, 25, uc.inputs[1].FocusMinutes)
	assert.Equal(t, 7, uc.inputs[1].BreakMinutes)
	assert.Equal(t, math.MaxInt32, uc.inputs[2].FocusMinutes)
	assert.Equal(t, -3, uc.inputs[2].BreakMinutes)
	assert.Equal(t, 0, uc.inputs[3].FocusMinutes)
	assert.Equal(t, 0, uc.inputs[3].BreakMinutes)
}

func TestPostGetStateReturnsBareState(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{state: dto.StateOutput{TimeLeft: 42, Paused: true}}
	srv := newTestServer(t, uc)

	resp, err := http.Post(srv.URL+"/v1/commands", "application/json", strings.NewReader(`{"action":"getState"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 42, body["timeLeft"])
	assert.Equal(t, true, body["isPaused"])
	_, hasSuccess := body["success"]
	assert.False(t, hasSuccess)
}

func TestPostCommandRejectsUnknownActionAndBadBody(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	srv := newTestServer(t, uc)

	for _, body := range []string{`{"action":"launch"}`, `{}`, `not json`} {
		resp, err := http.Post(srv.URL+"/v1/commands", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Empty(t, uc.inputs)
}

func TestHistoryParsesLimit(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{history: []dto.HistoryOutput{{Phase: "focus", PomodoroCount: 1}}}
	srv := newTestServer(t, uc)

	resp, err := http.Get(srv.URL + "/v1/history?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []dto.HistoryOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, []int{5}, uc.limits)

	bad, err := http.Get(srv.URL + "/v1/history?limit=-1")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestEventsStreamsInitialStateThenUpdates(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{
		state:   dto.StateOutput{TimeLeft: 1500},
		updates: make(chan dto.StateOutput, 1),
	}
	srv := newTestServer(t, uc)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first timerin.Event
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, timerin.EventStateUpdate, first.Type)
	assert.Equal(t, 1500, first.State.TimeLeft)

	uc.updates <- dto.StateOutput{TimeLeft: 1499, Running: true}
	var next timerin.Event
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, 1499, next.State.TimeLeft)
	assert.True(t, next.State.Running)

	close(uc.updates)
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
