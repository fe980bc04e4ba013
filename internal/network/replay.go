package network

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/and1mon/clueless/internal/infra/storage"
	"github.com/and1mon/clueless/internal/platform/logger"
)

// ReplayHandler serves archived transcripts. Replays come from the
// write-only archive, never from live games, so they survive the game
// leaving memory and cost the engine nothing.
type ReplayHandler struct {
	replayer *storage.Replayer
	logger   *logger.Logger
}

// NewReplayHandler creates the replay API. A nil replayer marks the
// archive as disabled; the endpoints then answer 503.
func NewReplayHandler(replayer *storage.Replayer, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		replayer: replayer,
		logger:   log,
	}
}

// HandleReplay returns a game's archived transcript with its summary.
// GET /api/replay?game_id=XXX&last=N
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rh.replayer == nil {
		rh.jsonError(w, "Archive disabled", http.StatusServiceUnavailable)
		return
	}

	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		rh.jsonError(w, "Missing game_id", http.StatusBadRequest)
		return
	}
	last := 0
	if v := r.URL.Query().Get("last"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			last = n
		}
	}

	replay, err := rh.replayer.GameReplay(r.Context(), gameID, last)
	if err != nil {
		rh.logger.Errorf("Replay read failed for %s: %v", gameID, err)
		rh.jsonError(w, "Archive read failed", http.StatusInternalServerError)
		return
	}
	if replay == nil {
		rh.jsonError(w, "Game not found in archive", http.StatusNotFound)
		return
	}

	rh.logger.Event("REPLAY_SERVED", gameID, fmt.Sprintf("messages=%d", len(replay.Messages)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(replay)
}

// HandleMessage returns one archived message with its game header.
// GET /api/replay/message?message_id=XXX
func (rh *ReplayHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rh.replayer == nil {
		rh.jsonError(w, "Archive disabled", http.StatusServiceUnavailable)
		return
	}

	messageID := r.URL.Query().Get("message_id")
	if messageID == "" {
		rh.jsonError(w, "Missing message_id", http.StatusBadRequest)
		return
	}

	detail, err := rh.replayer.MessageDetail(r.Context(), messageID)
	if err != nil {
		rh.logger.Errorf("Replay message read failed for %s: %v", messageID, err)
		rh.jsonError(w, "Archive read failed", http.StatusInternalServerError)
		return
	}
	if detail == nil {
		rh.jsonError(w, "Message not found in archive", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/replay/message", rh.HandleMessage)
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
