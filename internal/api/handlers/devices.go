package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/auth"
	"firmware-manager/internal/entity"
	"firmware-manager/internal/state"
	"firmware-manager/internal/util"
	"firmware-manager/internal/view"
)

// Poster queues events for the state loop without blocking.
type Poster interface {
	TryPost(ev state.Event) error
}

// DeviceHandler exposes the device board and turns operator actions into
// state events.
type DeviceHandler struct {
	Auth  auth.Auth
	Board *view.Board
	Loop  Poster
}

func (h *DeviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/devices")
	parts := filterEmpty(strings.Split(path, "/"))

	// GET /api/devices
	if len(parts) == 0 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.Auth.RequireViewer(h.list)(w, r)
		return
	}

	e, ok := entity.Parse(parts[0])
	if !ok {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}
	if !h.Board.Has(e) {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}

	// GET /api/devices/{id}/confirmation
	if len(parts) == 2 && parts[1] == "confirmation" && r.Method == http.MethodGet {
		h.Auth.RequireViewer(func(w http.ResponseWriter, r *http.Request) {
			h.confirmation(w, e)
		})(w, r)
		return
	}

	// POST /api/devices/{id}/{action}
	if len(parts) == 2 && r.Method == http.MethodPost {
		h.Auth.RequireOperator(func(w http.ResponseWriter, r *http.Request) {
			h.action(w, e, parts[1])
		})(w, r)
		return
	}

	http.Error(w, "not found", http.StatusNotFound)
}

// list godoc
// @Summary      List devices
// @Description  Snapshot of every discovered device and its update state
// @Tags         devices
// @Produce      json
// @Success      200  {object}  view.BoardDTO
// @Failure      401  {string}  string  "Unauthorized"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /devices [get]
func (h *DeviceHandler) list(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, h.Board.Snapshot())
}

// confirmation godoc
// @Summary      Pending confirmation
// @Description  Details of the update awaiting confirmation for a device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  view.ConfirmationDTO
// @Failure      404  {string}  string  "No confirmation pending"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /devices/{id}/confirmation [get]
func (h *DeviceHandler) confirmation(w http.ResponseWriter, e entity.Entity) {
	c, ok := h.Board.Confirmation(e)
	if !ok {
		http.Error(w, "no confirmation pending", http.StatusNotFound)
		return
	}
	util.WriteJSON(w, c.DTO())
}

// action godoc
// @Summary      Act on a device
// @Description  reveal toggles the changelog, update schedules the pending update, confirm/cancel answer a pending confirmation, hide/show report row visibility
// @Tags         devices
// @Produce      json
// @Param        id      path      string  true  "Device ID"
// @Param        action  path      string  true  "reveal, update, confirm, cancel, hide or show"
// @Success      202     {object}  map[string]bool
// @Failure      400     {string}  string  "Unknown action"
// @Failure      409     {string}  string  "No confirmation pending"
// @Failure      503     {string}  string  "State loop unavailable"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /devices/{id}/{action} [post]
func (h *DeviceHandler) action(w http.ResponseWriter, e entity.Entity, action string) {
	var ev state.Event
	switch action {
	case "reveal":
		ev = state.Reveal{Entity: e}
	case "update":
		ev = state.UpdateRequested{Entity: e}
	case "confirm", "cancel":
		if _, ok := h.Board.Confirmation(e); !ok {
			http.Error(w, "no confirmation pending", http.StatusConflict)
			return
		}
		if action == "confirm" {
			ev = state.UpdateConfirmed{Entity: e}
		} else {
			ev = state.UpdateCancelled{Entity: e}
		}
	case "hide":
		ev = state.RowVisibility{Entity: e, Shown: false}
	case "show":
		ev = state.RowVisibility{Entity: e, Shown: true}
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	if !h.post(w, ev) {
		return
	}
	switch action {
	case "confirm", "cancel":
		h.Board.CloseConfirmation(e)
	case "hide", "show":
		h.Board.SetHidden(e, action == "hide")
	}
	util.WriteJSONStatus(w, http.StatusAccepted, map[string]any{"accepted": true})
}

// Scan godoc
// @Summary      Rescan devices
// @Description  Clears the device list and asks the worker for a fresh scan
// @Tags         devices
// @Produce      json
// @Success      202  {object}  map[string]bool
// @Failure      503  {string}  string  "State loop unavailable"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /scan [post]
func (h *DeviceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.Auth.RequireOperator(func(w http.ResponseWriter, _ *http.Request) {
		if h.post(w, state.RescanRequested{}) {
			util.WriteJSONStatus(w, http.StatusAccepted, map[string]any{"accepted": true})
		}
	})(w, r)
}

func (h *DeviceHandler) post(w http.ResponseWriter, ev state.Event) bool {
	err := h.Loop.TryPost(ev)
	if err == nil {
		return true
	}
	log.Warn().Err(err).Type("event", ev).Msg("Could not queue device action")
	if errors.Is(err, state.ErrStopped) {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
	} else {
		http.Error(w, "busy, retry later", http.StatusServiceUnavailable)
	}
	return false
}

func filterEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
