package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	matchservice "github.com/Solve-Wars/arena-bot/app/modules/match/application"
	ttrservice "github.com/Solve-Wars/arena-bot/app/modules/ttr/application"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// Router assembles the HTTP surface: match lifecycle, polling, and the
// ticket-to-ride actions, plus the metrics endpoint.
func (a *App) Router() chi.Router {
	h := &handlers{matches: a.MatchService, ttr: a.TTRService}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(correlationID)

	r.Route("/matches", func(r chi.Router) {
		r.Post("/", h.CreateMatch)
		r.Route("/{matchID}", func(r chi.Router) {
			r.Get("/", h.GetMatch)
			r.Post("/poll", h.Poll)
			r.Post("/claim-handle", h.ClaimHandle)
			r.Post("/map", h.SetupMap)
			r.Post("/tracks/{trackID}/claim", h.ClaimTrack)
			r.Post("/stations", h.PlaceStation)
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	return r
}

// correlationID tags every request context so log lines across a request
// share one id.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := attr.WithCorrelationID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type handlers struct {
	matches *matchservice.MatchService
	ttr     *ttrservice.Service
}

func (h *handlers) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var params matchservice.CreateMatchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	view, err := h.matches.CreateMatch(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}

	view, err := h.matches.GetMatch(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) Poll(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}

	result, err := h.matches.Poll(r.Context(), matchID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) ClaimHandle(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}
	var body struct {
		Handle  string `json:"handle"`
		Session string `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if body.Handle == "" || body.Session == "" {
		http.Error(w, "handle and session are required", http.StatusBadRequest)
		return
	}

	result, err := h.matches.ClaimHandle(r.Context(), matchID, body.Handle, body.Session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if result.IsFailure() {
		writeJSON(w, http.StatusConflict, result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func (h *handlers) SetupMap(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}
	var body struct {
		Tracks     []ttrservice.TrackSetup     `json:"tracks"`
		RouteCards []ttrservice.RouteCardSetup `json:"route_cards"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.ttr.SetupMap(r.Context(), matchID, body.Tracks, body.RouteCards); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *handlers) ClaimTrack(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}
	trackID, ok := pathUUID(w, r, "trackID")
	if !ok {
		return
	}
	var body struct {
		TeamID uuid.UUID `json:"team_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.ttr.ClaimTrack(r.Context(), matchID, body.TeamID, trackID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if result.IsFailure() {
		writeJSON(w, http.StatusConflict, result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func (h *handlers) PlaceStation(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}
	var body struct {
		TeamID uuid.UUID `json:"team_id"`
		City   string    `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if body.City == "" {
		http.Error(w, "city is required", http.StatusBadRequest)
		return
	}

	result, err := h.ttr.PlaceStation(r.Context(), matchID, body.TeamID, body.City)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if result.IsFailure() {
		writeJSON(w, http.StatusConflict, result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid %s", name), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matchservice.ErrMatchNotFound),
		errors.Is(err, ttrservice.ErrTrackNotFound),
		errors.Is(err, ttrservice.ErrTeamNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, matchservice.ErrWrongMode):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
