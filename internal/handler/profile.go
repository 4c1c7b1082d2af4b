package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codesync/internal/model"
	"github.com/sakif/codesync/internal/progress"
	"github.com/sakif/codesync/internal/service"
)

// ProfileHandler serves the dashboard and the peer directory.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// dashboardResponse pairs the profile with per-topic mastery percentages.
// Both topic objects list keys in first-solved order; in Mastery each
// entry's Count holds a percentage in [0, 100], not a solve count.
type dashboardResponse struct {
	User    *model.UserProfile  `json:"user"`
	Mastery model.TopicProgress `json:"mastery"`
}

type peersResponse struct {
	Users []model.PeerSummary `json:"users"`
}

// HandleDashboard returns one user's derived profile.
//
// HTTP: GET /api/dashboard/{userID} (RequireAuth)
//
// RESPONSE:
//
//	{"user": {"id": "...", "streak": {...}, "topics": {"arrays": 2}, ...},
//	 "mastery": {"arrays": 20}}
func (h *ProfileHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	p, err := h.profiles.Profile(r.Context(), userID)
	if err != nil {
		h.logger.Warn("dashboard failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{User: p, Mastery: progress.Mastery(p.Topics)})
}

// HandlePeers lists every user's summary, ordered by user ID.
//
// HTTP: GET /api/peers (RequireAuth)
func (h *ProfileHandler) HandlePeers(w http.ResponseWriter, r *http.Request) {
	peers, err := h.profiles.Peers(r.Context())
	if err != nil {
		h.logger.Error("listing peers failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, peersResponse{Users: peers})
}
