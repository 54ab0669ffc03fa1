package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/models"
)

// Server exposes the board over the REST surface the client polls,
// plus the websocket push endpoint. Every mutation is broadcast to all
// connected push clients so they converge before their next poll tick.
type Server struct {
	board *Board
	hub   *Hub
}

// NewServer creates a dev server around a board and push hub
func NewServer(board *Board, hub *Hub) *Server {
	return &Server{board: board, hub: hub}
}

// Handler builds the HTTP handler with CORS for local dashboards
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/sync", s.handleSync)

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", s.handleGetTeams)
		r.Post("/", s.handleCreateTeam)
		r.Put("/{teamID}", s.handleUpdateTeam)
		r.Delete("/{teamID}", s.handleDeleteTeam)
		r.Get("/{teamID}/breakdown", s.handleGetBreakdown)
		r.Post("/{teamID}/add-points", s.handleAddPoints)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.handleGetEvents)
		r.Post("/", s.handleCreateEvent)
		r.Put("/{eventID}", s.handleUpdateEvent)
		r.Delete("/{eventID}", s.handleDeleteEvent)
		r.Put("/{eventID}/matches/{matchID}", s.handleUpdateMatch)
		r.Put("/{eventID}/bracket/{bracketID}", s.handleUpdateBracket)
	})

	r.Route("/challenges", func(r chi.Router) {
		r.Get("/", s.handleGetChallenges)
		r.Post("/", s.handleCreateChallenge)
		r.Delete("/{challengeID}", s.handleDeleteChallenge)
	})

	r.Get("/app-state", s.handleGetAppState)
	r.Put("/app-state", s.handleUpdateAppState)
	r.Post("/countdown", s.handleCountdown)
	r.Post("/torch/light", s.handleTorch)

	r.Get("/push", s.handlePush)

	return cors.AllowAll().Handler(r)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if err := s.hub.HandleConnection(w, r); err != nil {
		log.Error().Err(err).Msg("push upgrade failed")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.board.Snapshot())
}

func (s *Server) handleGetTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.board.Teams())
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTeamRequest
	if !readJSON(w, r, &req) {
		return
	}
	team := s.board.CreateTeam(req)
	writeJSON(w, team)
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	var patch models.TeamPatch
	if !readJSON(w, r, &patch) {
		return
	}
	if !s.mutation(w, s.board.UpdateTeam(teamID, patch)) {
		return
	}
	s.broadcastPush(models.PushTeamUpdated, models.TeamUpdate{
		ID:        teamID,
		Rev:       time.Now().UnixMilli(),
		TeamPatch: patch,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if !s.mutation(w, s.board.DeleteTeam(chi.URLParam(r, "teamID"))) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	entries, err := s.board.Breakdown(chi.URLParam(r, "teamID"))
	if !s.mutation(w, err) {
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleAddPoints(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	var req models.AddPointsRequest
	if !readJSON(w, r, &req) {
		return
	}
	if !s.mutation(w, s.board.AddPoints(teamID, req)) {
		return
	}
	if breakdown, err := s.board.Breakdown(teamID); err == nil {
		s.broadcastPush(models.PushTeamUpdated, models.TeamUpdate{
			ID:        teamID,
			Rev:       time.Now().UnixMilli(),
			TeamPatch: models.TeamPatch{Breakdown: &breakdown},
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.board.Events())
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if !readJSON(w, r, &req) {
		return
	}
	event := s.board.CreateEvent(req)
	writeJSON(w, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	var patch models.EventPatch
	if !readJSON(w, r, &patch) {
		return
	}
	if !s.mutation(w, s.board.UpdateEvent(eventID, patch)) {
		return
	}
	s.broadcastPush(models.PushEventUpdated, models.EventUpdate{
		ID:         eventID,
		Rev:        time.Now().UnixMilli(),
		EventPatch: patch,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !s.mutation(w, s.board.DeleteEvent(chi.URLParam(r, "eventID"))) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	var patch models.MatchPatch
	if !readJSON(w, r, &patch) {
		return
	}
	if !s.mutation(w, s.board.UpdateMatch(eventID, chi.URLParam(r, "matchID"), patch)) {
		return
	}
	s.broadcastEventMatches(eventID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateBracket(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	var patch models.BracketPatch
	if !readJSON(w, r, &patch) {
		return
	}
	if !s.mutation(w, s.board.UpdateBracketMatch(eventID, chi.URLParam(r, "bracketID"), patch)) {
		return
	}
	s.broadcastEventMatches(eventID)
	w.WriteHeader(http.StatusNoContent)
}

// broadcastEventMatches pushes an event's current matches and bracket
func (s *Server) broadcastEventMatches(eventID string) {
	for _, e := range s.board.Events() {
		if e.ID == eventID {
			matches := e.Matches
			bracket := e.Bracket
			s.broadcastPush(models.PushEventUpdated, models.EventUpdate{
				ID:  eventID,
				Rev: time.Now().UnixMilli(),
				EventPatch: models.EventPatch{
					Matches: &matches,
					Bracket: &bracket,
				},
			})
			return
		}
	}
}

func (s *Server) handleGetChallenges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.board.Challenges())
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var ch models.Challenge
	if !readJSON(w, r, &ch) {
		return
	}
	writeJSON(w, s.board.CreateChallenge(ch))
}

func (s *Server) handleDeleteChallenge(w http.ResponseWriter, r *http.Request) {
	if !s.mutation(w, s.board.DeleteChallenge(chi.URLParam(r, "challengeID"))) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAppState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.board.AppState())
}

func (s *Server) handleUpdateAppState(w http.ResponseWriter, r *http.Request) {
	var patch models.AppStatePatch
	if !readJSON(w, r, &patch) {
		return
	}
	s.board.MergeAppState(patch)
	s.broadcastPush(models.PushAppStateUpdated, models.AppStateUpdate{
		Rev:           time.Now().UnixMilli(),
		AppStatePatch: patch,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	s.handleUpdateAppState(w, r)
}

func (s *Server) handleTorch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lit bool `json:"lit"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.board.MergeAppState(models.AppStatePatch{IsTorchLit: &req.Lit})
	s.broadcastPush(models.PushAppStateUpdated, models.AppStateUpdate{
		Rev:           time.Now().UnixMilli(),
		AppStatePatch: models.AppStatePatch{IsTorchLit: &req.Lit},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) broadcastPush(t models.PushType, data any) {
	envelope, err := models.NewPushEnvelope(t, data)
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("failed to build push envelope")
		return
	}
	s.hub.Broadcast(envelope)
}

// mutation maps a board error to an HTTP status and reports success
func (s *Server) mutation(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
	} else {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
