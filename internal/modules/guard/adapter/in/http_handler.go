package in

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"pomoguard/internal/modules/guard/dto"
	guardin "pomoguard/internal/modules/guard/port/in"
	apperrors "pomoguard/internal/platform/errors"
	"pomoguard/internal/platform/httpserver"
	"pomoguard/internal/platform/logger"
)

const (
	redirectBuffer  = 8
	writeTimeout    = 5 * time.Second
	maxReportBody   = 8 << 10
	blockPageReload = 1
)

var blockPage = template.Must(template.New("block").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.Reload}}">
<title>{{.Page.Title}}</title>
<style>
body{font-family:sans-serif;background:#1e1e2e;color:#cdd6f4;display:flex;align-items:center;justify-content:center;height:100vh;margin:0}
main{text-align:center}
#timeLeft{font-size:4rem;color:{{.Color}}}
</style>
</head>
<body>
<main>
<h1>Stay Focused!</h1>
<div id="timeLeft">{{.Page.Clock}}</div>
{{if .Page.FocusActive}}<p>This site is blocked until your focus session ends.</p>{{else}}<p>Focus session is not running. You can go back.</p>{{end}}
</main>
</body>
</html>
`))

type HTTPHandler struct {
	usecase  guardin.Usecase
	log      logger.Logger
	upgrader websocket.Upgrader
}

func NewHTTPHandler(usecase guardin.Usecase, log logger.Logger) *HTTPHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPHandler{
		usecase: usecase,
		log:     log.With(logger.Component("guard.http")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register mounts the API routes on api (the /v1 subrouter) and the block
// page on root.
func (h *HTTPHandler) Register(root, api *mux.Router) {
	api.HandleFunc("/navigations", h.Report).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/navigations/{contextId}", h.Forget).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/guard/check", h.Check).Methods(http.MethodGet)
	api.HandleFunc("/guard/events", h.Events).Methods(http.MethodGet)
	root.HandleFunc("/block", h.BlockPage).Methods(http.MethodGet)
}

// Report handles POST /v1/navigations
func (h *HTTPHandler) Report(w http.ResponseWriter, r *http.Request) {
	var input dto.NavigationInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBody)).Decode(&input); err != nil {
		httpserver.WriteError(w, http.StatusBadRequest, errors.New("invalid request body: "+err.Error()))
		return
	}
	out, err := h.usecase.Report(r.Context(), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, out)
}

// Forget handles DELETE /v1/navigations/{contextId}
func (h *HTTPHandler) Forget(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.Forget(r.Context(), mux.Vars(r)["contextId"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Check handles GET /v1/guard/check?url=
func (h *HTTPHandler) Check(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Check(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, out)
}

// Events handles GET /v1/guard/events?contextId=
func (h *HTTPHandler) Events(w http.ResponseWriter, r *http.Request) {
	contextID := r.URL.Query().Get("contextId")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", logger.Err(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events, unsubscribe := h.usecase.Subscribe(ctx, contextID, redirectBuffer)
	defer unsubscribe()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// BlockPage handles GET /block
func (h *HTTPHandler) BlockPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.usecase.BlockPage(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	color := "#FE4F2D"
	if page.OnBreak {
		color = "#DAA520"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := blockPage.Execute(w, struct {
		Page   dto.BlockPageOutput
		Reload int
		Color  template.CSS
	}{Page: page, Reload: blockPageReload, Color: template.CSS(color)}); err != nil {
		h.log.Warn("render block page", logger.Err(err))
	}
}

func (h *HTTPHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		httpserver.WriteError(w, http.StatusBadRequest, err)
	case errors.Is(err, apperrors.ErrDaemonUnavailable):
		httpserver.WriteError(w, http.StatusServiceUnavailable, err)
	default:
		h.log.Error("guard request failed", logger.Err(err))
		httpserver.WriteError(w, http.StatusInternalServerError, err)
	}
}
