// HTTP binding for the listing endpoints.
//
// Routes:
//
//	GET /jobs       → filtered, paginated job listing
//	GET /jobs/{id}  → single job fetch
package listing

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"internsync/discovery-service/internal/jobfilter"
	"internsync/discovery-service/internal/web"
)

// Handler binds the listing Service to HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the listing routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs", h.handleList)
	mux.HandleFunc("/jobs/", h.handleByID)
}

// ParamsFromQuery maps query-string values onto the compiler's parameter
// struct. All parsing stays permissive and lives in the compiler.
func ParamsFromQuery(q url.Values) jobfilter.ListParams {
	return jobfilter.ListParams{
		Query:           q.Get("q"),
		Type:            q.Get("type"),
		OpportunityType: q.Get("opportunityType"),
		Categories:      q.Get("categories"),
		Tags:            q.Get("tags"),
		SourceType:      q.Get("sourceType"),
		IsRemote:        q.Get("isRemote"),
		JobType:         q.Get("jobType"),
		Featured:        q.Get("featured"),
		StipendMin:      q.Get("stipendMin"),
		StipendMax:      q.Get("stipendMax"),
		DeadlineBefore:  q.Get("deadlineBefore"),
		DeadlineAfter:   q.Get("deadlineAfter"),
		StartDate:       q.Get("startDate"),
		EndDate:         q.Get("endDate"),
		Status:          q.Get("status"),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	params := ParamsFromQuery(q)

	// Stored preferences are opt-in on this endpoint.
	var firebaseUID string
	if q.Get("applyPreferences") == "true" {
		firebaseUID = r.Header.Get("x-user-id")
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := h.svc.List(r.Context(), params, q.Get("sortBy"), firebaseUID, page, pageSize)
	if err != nil {
		slog.Error("job listing failed", "err", err)
		web.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idHex := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		web.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.svc.ByID(r.Context(), id)
	if err != nil {
		slog.Error("job fetch failed", "jobId", idHex, "err", err)
		web.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	if job == nil {
		web.Error(w, "job not found", http.StatusNotFound)
		return
	}
	web.JSON(w, http.StatusOK, job)
}
