package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/auth"
	"firmware-manager/internal/util"
	"firmware-manager/internal/webhook"
)

// WebhookHandler manages the subscriptions that receive update outcomes.
// Every route needs the operator role.
type WebhookHandler struct {
	Auth auth.Auth
	Repo webhook.Repository
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Auth.RequireOperator(h.route)(w, r)
}

func (h *WebhookHandler) route(w http.ResponseWriter, r *http.Request) {
	rest, nested := strings.CutPrefix(r.URL.Path, "/api/webhooks/")
	if !nested {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// list godoc
// @Summary      List webhooks
// @Description  Get all registered webhooks
// @Tags         webhooks
// @Produce      json
// @Success      200  {array}   webhook.WebhookDTO
// @Failure      401  {string}  string  "Unauthorized"
// @Failure      500  {string}  string  "Database error"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /webhooks [get]
func (h *WebhookHandler) list(w http.ResponseWriter) {
	hooks, err := h.Repo.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list webhooks")
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	out := make([]webhook.WebhookDTO, 0, len(hooks))
	for _, hook := range hooks {
		out = append(out, hook.DTO())
	}
	util.WriteJSON(w, out)
}

// create godoc
// @Summary      Create webhook
// @Description  Subscribe an endpoint to firmware.updated and/or firmware.failed. New subscriptions start enabled.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        webhook  body      webhook.WebhookDTO  true  "Webhook configuration"
// @Success      200      {object}  map[string]int      "Created webhook ID"
// @Failure      400      {string}  string              "Invalid body, URL or events"
// @Failure      401      {string}  string              "Unauthorized"
// @Failure      500      {string}  string              "Database error"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /webhooks [post]
func (h *WebhookHandler) create(w http.ResponseWriter, r *http.Request) {
	hook, ok := decodeWebhook(w, r)
	if !ok {
		return
	}
	hook.Enabled = true

	id, err := h.Repo.Create(hook)
	if err != nil {
		log.Error().Err(err).Str("url", hook.URL).Msg("Failed to create webhook")
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	log.Info().Int64("id", id).Str("url", hook.URL).Strs("events", hook.Events).Msg("Webhook created")
	util.WriteJSON(w, map[string]any{"id": id})
}

// update godoc
// @Summary      Update webhook
// @Description  Replace the URL, events and enabled flag of a webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        id       path      int                 true  "Webhook ID"
// @Param        webhook  body      webhook.WebhookDTO  true  "Updated webhook configuration"
// @Success      200      {object}  map[string]bool     "Update confirmation"
// @Failure      400      {string}  string              "Invalid body, URL or events"
// @Failure      401      {string}  string              "Unauthorized"
// @Failure      404      {string}  string              "No such webhook"
// @Failure      500      {string}  string              "Database error"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /webhooks/{id} [put]
func (h *WebhookHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	hook, ok := decodeWebhook(w, r)
	if !ok {
		return
	}

	err := h.Repo.Update(id, hook)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "not found", http.StatusNotFound)
	case err != nil:
		log.Error().Err(err).Int64("id", id).Msg("Failed to update webhook")
		http.Error(w, "db error", http.StatusInternalServerError)
	default:
		util.WriteJSON(w, map[string]any{"updated": true})
	}
}

// delete godoc
// @Summary      Delete webhook
// @Description  Remove a webhook subscription
// @Tags         webhooks
// @Produce      json
// @Param        id   path      int              true  "Webhook ID"
// @Success      200  {object}  map[string]bool  "Deletion confirmation"
// @Failure      400  {string}  string           "Invalid webhook ID"
// @Failure      401  {string}  string           "Unauthorized"
// @Failure      500  {string}  string           "Database error"
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /webhooks/{id} [delete]
func (h *WebhookHandler) delete(w http.ResponseWriter, id int64) {
	if err := h.Repo.Delete(id); err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to delete webhook")
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	util.WriteJSON(w, map[string]any{"deleted": true})
}

func decodeWebhook(w http.ResponseWriter, r *http.Request) (webhook.Webhook, bool) {
	var dto webhook.WebhookDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return webhook.Webhook{}, false
	}
	hook, err := dto.Webhook()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return webhook.Webhook{}, false
	}
	return hook, true
}
