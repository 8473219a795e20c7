// HTTP binding for the discovery service.
//
// All routes expect an x-user-id header carrying the identity-provider UID
// forwarded by the Gateway.
//
// Routes:
//
//	GET  /swipe/next     → next job card for the caller (?type= bucket)
//	POST /swipe          → record a swipe {jobId, action}
//	GET  /swipe/history  → paginated swipe history (?action=&page=&pageSize=)
//	GET  /swipe/liked    → paginated like/superlike history
//	GET  /swipe/stats    → per-action swipe counts
package discovery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"internsync/discovery-service/internal/model"
	"internsync/discovery-service/internal/web"
)

// Handler binds the discovery Service to HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all discovery routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swipe", h.handleSwipe)
	mux.HandleFunc("/swipe/next", h.handleNext)
	mux.HandleFunc("/swipe/history", h.handleHistory)
	mux.HandleFunc("/swipe/liked", h.handleLiked)
	mux.HandleFunc("/swipe/stats", h.handleStats)
}

// resolveUser authenticates the request from the x-user-id header. On
// failure it writes the response and returns nil.
func (h *Handler) resolveUser(w http.ResponseWriter, r *http.Request) *model.User {
	uid := r.Header.Get("x-user-id")
	if uid == "" {
		web.Error(w, "missing x-user-id header", http.StatusUnauthorized)
		return nil
	}

	user, err := h.svc.ResolveUser(r.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			web.Error(w, "unknown user", http.StatusUnauthorized)
			return nil
		}
		slog.Error("resolve user failed", "err", err)
		web.Error(w, "database error", http.StatusInternalServerError)
		return nil
	}
	return user
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}

	bucket := r.URL.Query().Get("type")
	if bucket == "" {
		bucket = r.URL.Query().Get("opportunityType")
	}

	result, err := h.svc.NextCandidate(r.Context(), user, bucket)
	if err != nil {
		slog.Error("next candidate failed", "userId", user.ID.Hex(), "err", err)
		web.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleSwipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}

	var body struct {
		JobID  string `json:"jobId"`
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		web.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RecordSwipe(r.Context(), user.ID, body.JobID, body.Action)
	if err != nil {
		h.writeServiceError(w, user, err)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}

	q := r.URL.Query()
	page, pageSize := intParam(q.Get("page"), 1), intParam(q.Get("pageSize"), 0)

	entries, pagination, err := h.svc.History(r.Context(), user.ID, q.Get("action"), page, pageSize)
	if err != nil {
		h.writeServiceError(w, user, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{"items": entries, "pagination": pagination})
}

func (h *Handler) handleLiked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}

	q := r.URL.Query()
	page, pageSize := intParam(q.Get("page"), 1), intParam(q.Get("pageSize"), 0)

	entries, pagination, err := h.svc.LikedJobs(r.Context(), user.ID, page, pageSize)
	if err != nil {
		h.writeServiceError(w, user, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{"items": entries, "pagination": pagination})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := h.resolveUser(w, r)
	if user == nil {
		return
	}

	stats, err := h.svc.SwipeStats(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, user, err)
		return
	}
	web.JSON(w, http.StatusOK, stats)
}

// writeServiceError maps domain errors to HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, user *model.User, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		web.Error(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		web.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("discovery request failed", "userId", user.ID.Hex(), "err", err)
		web.Error(w, "database error", http.StatusInternalServerError)
	}
}

// intParam parses a positive integer query parameter, returning fallback
// for absent or malformed input.
func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
