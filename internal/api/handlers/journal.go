package handlers

import (
	"net/http"
	"strconv"

	"firmware-manager/internal/auth"
	"firmware-manager/internal/journal"
	"firmware-manager/internal/util"
)

// JournalReader lists journaled updates.
type JournalReader interface {
	List(device string, limit int) ([]journal.Entry, error)
}

// JournalHandler serves the update history.
type JournalHandler struct {
	Auth auth.Auth
	Repo JournalReader
}

// ServeHTTP godoc
// @Summary      Update history
// @Description  Journaled firmware updates and worker failures, newest first
// @Tags         history
// @Produce      json
// @Param        device  query     string  false  "Filter by device name"
// @Param        limit   query     int     false  "Maximum number of entries"
// @Success      200     {array}   journal.Entry
// @Failure      500     {string}  string  "Database error"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /history [get]
func (h *JournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.Auth.RequireViewer(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := h.Repo.List(r.URL.Query().Get("device"), limit)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []journal.Entry{}
		}
		util.WriteJSON(w, entries)
	})(w, r)
}
