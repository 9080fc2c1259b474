package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/daily-log/internal/apperror"
	"github.com/sakif/daily-log/internal/auth"
	"github.com/sakif/daily-log/internal/service"
)

// LogHandler manages submission and retrieval of daily log entries.
//
// All routes here sit behind RequireAuth; the admin routes additionally
// sit behind RequireAdmin. The handler reads the identity from the
// request context — body-supplied userId/userEmail would let a client
// submit entries as somebody else, so the body only ever carries the two
// text fields.
type LogHandler struct {
	logService  *service.LogService
	authService *service.AuthService
	logger      *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logService *service.LogService, authService *service.AuthService, logger *slog.Logger) *LogHandler {
	return &LogHandler{
		logService:  logService,
		authService: authService,
		logger:      logger,
	}
}

// submitRequest is the submission body: just the two free-text fields.
type submitRequest struct {
	Plan        string `json:"plan"`
	Achievement string `json:"achievement"`
}

// HandleSubmit saves one daily log entry for the current user.
//
// HTTP: POST /api/logs
// BODY: {"plan": "...", "achievement": "..."}
//
// 201 with the stored entry (including its server-assigned id and date)
// on success; 400 with a validation message if either field is blank
// after trimming — in which case no insert was issued and the client
// keeps its field contents for resubmission.
func (h *LogHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	// Resolve the session to stamp the entry with the submitter's email.
	session, err := h.authService.GetSession(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.logService.Submit(r.Context(), session.ID, session.Email, req.Plan, req.Achievement)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// HandleHistory returns the current user's own entries, newest first.
//
// HTTP: GET /api/logs
//
// Always scoped to the session identity — there is no query parameter to
// read another user's history. An empty history is 200 with [].
func (h *LogHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	entries, err := h.logService.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// HandleAdminList returns one page of entries across all users.
//
// HTTP: GET /api/admin/logs?page=N&user=<userId>  (behind RequireAdmin)
//
// page defaults to 1; user="" means no filter. The response carries
// page/totalPages/totalCount so the client can disable Previous at
// page 1 and Next at totalPages (or totalPages 0).
func (h *LogHandler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil {
			writeError(w, apperror.ValidationFailed("page", "page must be an integer"))
			return
		}
		page = parsed
	}

	result, err := h.logService.AdminList(r.Context(), page, r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleAdminSubmitters returns the distinct submitters for the admin
// filter dropdown, sorted by email.
//
// HTTP: GET /api/admin/users  (behind RequireAdmin)
//
// The client fetches this once on mount; it does not auto-refresh as new
// users submit their first log.
func (h *LogHandler) HandleAdminSubmitters(w http.ResponseWriter, r *http.Request) {
	submitters, err := h.logService.Submitters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitters)
}
