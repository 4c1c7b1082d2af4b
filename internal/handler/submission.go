package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codesync/internal/auth"
	"github.com/sakif/codesync/internal/model"
	"github.com/sakif/codesync/internal/service"
)

// SubmissionHandler records and lists solved problems.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	logger      *slog.Logger
}

func NewSubmissionHandler(submissions *service.SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, logger: logger}
}

// uploadRequest uses the field names the upload form posts.
type uploadRequest struct {
	ProblemName string `json:"problem_name"`
	Topic       string `json:"topic"`
	Difficulty  string `json:"difficulty"`
	Date        string `json:"date"`
	Notes       string `json:"notes"`
	Code        string `json:"code"`
}

type uploadResponse struct {
	OK         bool              `json:"ok"`
	Submission *model.Submission `json:"submission"`
}

type submissionsResponse struct {
	Submissions []model.Submission `json:"submissions"`
}

// HandleUpload appends one solved problem to the caller's own log.
//
// HTTP: POST /api/upload/{userID} (RequireAuth)
// Body: {"problem_name", "topic", "difficulty", "date", "notes", "code"}
//
// 201 on success, 400 for bad input, 403 if {userID} isn't the caller.
func (h *SubmissionHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.submissions.Append(r.Context(), session, userID, service.SubmissionInput{
		ProblemName: req.ProblemName,
		Topic:       req.Topic,
		Difficulty:  req.Difficulty,
		Date:        req.Date,
		Notes:       req.Notes,
		Code:        req.Code,
	})
	if err != nil {
		h.logger.Warn("upload rejected",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{OK: true, Submission: sub})
}

// HandleList returns a user's log, oldest first.
//
// HTTP: GET /api/submissions/{userID} (RequireAuth)
func (h *SubmissionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	subs, err := h.submissions.AllFor(r.Context(), userID)
	if err != nil {
		h.logger.Warn("listing submissions failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submissionsResponse{Submissions: subs})
}
