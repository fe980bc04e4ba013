package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/narrate"
	"github.com/and1mon/clueless/internal/platform/logger"
	"github.com/and1mon/clueless/internal/platform/metrics"
	"github.com/and1mon/clueless/internal/scheduler"
)

// GameAPI is the REST bridge for humans and narration consumers. Every
// successful mutation returns the fresh snapshot and kicks the
// autoplay loop in the background; the handler never waits for agents.
type GameAPI struct {
	registry *engine.Registry
	sched    *scheduler.Scheduler
	gates    *narrate.GateSet
	logger   *logger.Logger
}

// NewGameAPI creates the REST bridge.
func NewGameAPI(registry *engine.Registry, sched *scheduler.Scheduler, gates *narrate.GateSet, log *logger.Logger) *GameAPI {
	return &GameAPI{
		registry: registry,
		sched:    sched,
		gates:    gates,
		logger:   log,
	}
}

// ChatRequest posts table talk from a seat.
type ChatRequest struct {
	GameID  string `json:"game_id"`
	SeatID  string `json:"seat_id"`
	Message string `json:"message"`
}

// HintRequest submits the active spymaster's hint.
type HintRequest struct {
	GameID  string   `json:"game_id"`
	SeatID  string   `json:"seat_id"`
	Word    string   `json:"word"`
	Count   int      `json:"count"`
	Targets []string `json:"targets,omitempty"`
}

// ProposalRequest opens a guess or end-turn proposal.
type ProposalRequest struct {
	GameID string `json:"game_id"`
	SeatID string `json:"seat_id"`
	Kind   string `json:"kind"` // "guess" or "end_turn"
	Word   string `json:"word,omitempty"`
}

// VoteRequest casts a vote on a pending proposal.
type VoteRequest struct {
	GameID     string `json:"game_id"`
	SeatID     string `json:"seat_id"`
	ProposalID string `json:"proposal_id"`
	Decision   string `json:"decision"` // "accept" or "reject"
}

// NudgeRequest asks the seat's teammates to deliberate now.
type NudgeRequest struct {
	GameID string `json:"game_id"`
	SeatID string `json:"seat_id"`
}

// PauseRequest pauses or resumes a team's automatic deliberation.
type PauseRequest struct {
	GameID string `json:"game_id"`
	Team   string `json:"team"`
}

// NarrationRequest drives a game's delivery gate over REST. Enabled is
// only read by the gating endpoint.
type NarrationRequest struct {
	GameID  string `json:"game_id"`
	Enabled bool   `json:"enabled,omitempty"`
}

// HandleCreate deals a new game and starts autoplay.
// POST /api/game/create
func (api *GameAPI) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cfg engine.GameConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		api.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	game, err := api.registry.Create(cfg)
	if err != nil {
		api.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	api.kickAutoplay(game.ID())
	api.jsonSuccess(w, game.Snapshot())
}

// HandleState returns the full snapshot, secrets included. Masking per
// viewer is the consumer's concern.
// GET /api/game/state?game_id=XXX
func (api *GameAPI) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	game, ok := api.game(w, r.URL.Query().Get("game_id"))
	if !ok {
		return
	}
	api.jsonSuccess(w, game.Snapshot())
}

// HandleChat posts a chat message from a seat.
// POST /api/game/chat
func (api *GameAPI) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	game, ok := api.game(w, req.GameID)
	if !ok {
		return
	}
	_, err := game.PostChat(req.SeatID, req.Message)
	api.respondMutation(w, game, err)
}

// HandleHint submits the active spymaster's hint.
// POST /api/game/hint
func (api *GameAPI) HandleHint(w http.ResponseWriter, r *http.Request) {
	var req HintRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	game, ok := api.game(w, req.GameID)
	if !ok {
		return
	}
	err := game.SubmitHint(req.SeatID, req.Word, req.Count, req.Targets)
	api.respondMutation(w, game, err)
}

// HandleProposal opens a proposal on behalf of an operative.
// POST /api/game/proposal
func (api *GameAPI) HandleProposal(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	game, ok := api.game(w, req.GameID)
	if !ok {
		return
	}
	_, err := game.CreateProposal(req.SeatID, domain.ProposalKind(req.Kind), req.Word)
	api.respondMutation(w, game, err)
}

// HandleVote casts a vote on a pending proposal.
// POST /api/game/vote
func (api *GameAPI) HandleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	game, ok := api.game(w, req.GameID)
	if !ok {
		return
	}
	err := game.VoteOnProposal(req.SeatID, req.ProposalID, domain.VoteDecision(req.Decision))
	api.respondMutation(w, game, err)
}

// HandleNudge triggers a deliberation round for the seat's team.
// POST /api/game/nudge
func (api *GameAPI) HandleNudge(w http.ResponseWriter, r *http.Request) {
	var req NudgeRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	game, ok := api.game(w, req.GameID)
	if !ok {
		return
	}

	snap := game.Snapshot()
	seat, ok := snap.SeatByID(req.SeatID)
	if !ok {
		api.jsonError(w, fmt.Sprintf("unknown seat %q", req.SeatID), http.StatusBadRequest)
		return
	}

	api.logger.Event("API_NUDGE", req.SeatID, "team "+string(seat.Team))
	go api.sched.NudgeTeam(context.Background(), req.GameID, seat.Team)
	api.jsonSuccess(w, snap)
}

// HandlePause suspends a team's automatic deliberation.
// POST /api/game/pause
func (api *GameAPI) HandlePause(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	game, ok := api.game(w, req.GameID)
	if !ok {
		return
	}
	if err := game.Pause(domain.Team(req.Team)); err != nil {
		api.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	api.jsonSuccess(w, game.Snapshot())
}

// HandleResume lifts a pause and kicks autoplay.
// POST /api/game/resume
func (api *GameAPI) HandleResume(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	game, ok := api.game(w, req.GameID)
	if !ok {
		return
	}
	err := game.Resume(domain.Team(req.Team))
	api.respondMutation(w, game, err)
}

// HandleNarrationAck acknowledges one narrated message.
// POST /api/narration/ack
func (api *GameAPI) HandleNarrationAck(w http.ResponseWriter, r *http.Request) {
	var req NarrationRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	if _, ok := api.game(w, req.GameID); !ok {
		return
	}
	api.gates.Ack(req.GameID)
	api.jsonSuccess(w, map[string]interface{}{"acked": true})
}

// HandleNarrationGating switches delivery gating for a game.
// POST /api/narration/gating
func (api *GameAPI) HandleNarrationGating(w http.ResponseWriter, r *http.Request) {
	var req NarrationRequest
	if !api.decodePost(w, r, &req) {
		return
	}
	if _, ok := api.game(w, req.GameID); !ok {
		return
	}
	api.gates.SetGating(req.GameID, req.Enabled)
	state := "off"
	if req.Enabled {
		state = "on"
	}
	api.logger.Event("NARRATION_GATING", req.GameID, "gating "+state)
	api.jsonSuccess(w, map[string]interface{}{"gating": req.Enabled})
}

// HandleHealth reports liveness.
// GET /health
func (api *GameAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	api.jsonSuccess(w, map[string]interface{}{
		"status":    "ok",
		"games":     len(api.registry.All()),
		"timestamp": time.Now().Unix(),
	})
}

// RegisterRoutes sets up the game API routes.
func (api *GameAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/game/create", api.HandleCreate)
	mux.HandleFunc("/api/game/state", api.HandleState)
	mux.HandleFunc("/api/game/chat", api.HandleChat)
	mux.HandleFunc("/api/game/hint", api.HandleHint)
	mux.HandleFunc("/api/game/proposal", api.HandleProposal)
	mux.HandleFunc("/api/game/vote", api.HandleVote)
	mux.HandleFunc("/api/game/nudge", api.HandleNudge)
	mux.HandleFunc("/api/game/pause", api.HandlePause)
	mux.HandleFunc("/api/game/resume", api.HandleResume)
	mux.HandleFunc("/api/narration/ack", api.HandleNarrationAck)
	mux.HandleFunc("/api/narration/gating", api.HandleNarrationGating)
	mux.HandleFunc("/health", api.HandleHealth)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())
}

// decodePost enforces POST with a JSON body.
func (api *GameAPI) decodePost(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// game resolves a live game or writes the error response.
func (api *GameAPI) game(w http.ResponseWriter, gameID string) (*engine.Game, bool) {
	if gameID == "" {
		api.jsonError(w, "Missing game_id", http.StatusBadRequest)
		return nil, false
	}
	g, ok := api.registry.Get(gameID)
	if !ok {
		api.jsonError(w, engine.ErrGameNotFound.Error(), http.StatusNotFound)
		return nil, false
	}
	return g, true
}

// respondMutation maps an engine result to the HTTP response: a
// rejection reason, or the fresh snapshot with autoplay kicked.
func (api *GameAPI) respondMutation(w http.ResponseWriter, game *engine.Game, err error) {
	if err != nil {
		api.jsonError(w, err.Error(), statusFor(err))
		return
	}
	api.kickAutoplay(game.ID())
	api.jsonSuccess(w, game.Snapshot())
}

// statusFor classifies engine rejections. Acting on a finished game or
// a resolved proposal is a conflict, everything else a bad request.
func statusFor(err error) int {
	if errors.Is(err, engine.ErrGameEnded) || errors.Is(err, engine.ErrProposalResolved) {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

// kickAutoplay fires the scheduler in the background. The loop reaches
// a terminal state on its own; the request never waits for it.
func (api *GameAPI) kickAutoplay(gameID string) {
	go api.sched.Autoplay(context.Background(), gameID)
}

// jsonError sends an error response.
func (api *GameAPI) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (api *GameAPI) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
