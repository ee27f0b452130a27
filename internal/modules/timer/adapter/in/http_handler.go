package in

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"pomoguard/internal/modules/timer/dto"
	timerin "pomoguard/internal/modules/timer/port/in"
	apperrors "pomoguard/internal/platform/errors"
	"pomoguard/internal/platform/httpserver"
	"pomoguard/internal/platform/logger"
)

const (
	EventStateUpdate = "stateUpdate"

	eventBuffer    = 16
	writeTimeout   = 5 * time.Second
	pingInterval   = 30 * time.Second
	maxCommandBody = 4 << 10
)

// Event is one frame on the /v1/events stream.
type Event struct {
	Type  string          `json:"type"`
	State dto.StateOutput `json:"state"`
}

type HTTPHandler struct {
	usecase  timerin.Usecase
	log      logger.Logger
	upgrader websocket.Upgrader
}

func NewHTTPHandler(usecase timerin.Usecase, log logger.Logger) *HTTPHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPHandler{
		usecase: usecase,
		log:     log.With(logger.Component("timer.http")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *HTTPHandler) Register(api *mux.Router) {
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/commands", h.PostCommand).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/events", h.Events).Methods(http.MethodGet)
	api.HandleFunc("/history", h.History).Methods(http.MethodGet)
}

// GetState handles GET /v1/state
func (h *HTTPHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.usecase.GetState(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, state)
}

// PostCommand handles POST /v1/commands
func (h *HTTPHandler) PostCommand(w http.ResponseWriter, r *http.Request) {
	var input dto.CommandInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&input); err != nil {
		httpserver.WriteError(w, http.StatusBadRequest, errors.New("invalid request body: "+err.Error()))
		return
	}
	out, err := h.usecase.Dispatch(r.Context(), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	if input.Action == "getState" {
		httpserver.WriteJSON(w, http.StatusOK, out.State)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, out)
}

// History handles GET /v1/history?limit=N
func (h *HTTPHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpserver.WriteError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	records, err := h.usecase.History(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, records)
}

// Events handles GET /v1/events. The current state goes out first, then one
// frame per state change.
func (h *HTTPHandler) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", logger.Err(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates, unsubscribe := h.usecase.Subscribe(ctx, eventBuffer)
	defer unsubscribe()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if state, err := h.usecase.GetState(ctx); err == nil {
		if err := writeEvent(conn, state); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(conn, state); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, state dto.StateOutput) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(Event{Type: EventStateUpdate, State: state})
}

func (h *HTTPHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnknownAction), errors.Is(err, apperrors.ErrInvalidInput):
		httpserver.WriteError(w, http.StatusBadRequest, err)
	case errors.Is(err, apperrors.ErrDaemonUnavailable):
		httpserver.WriteError(w, http.StatusServiceUnavailable, err)
	default:
		h.log.Error("timer request failed", logger.Err(err))
		httpserver.WriteError(w, http.StatusInternalServerError, err)
	}
}
