package network

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/and1mon/clueless/internal/infra/storage"
	"github.com/and1mon/clueless/internal/platform/logger"
)

func newTestReplayHandler(t *testing.T) (*ReplayHandler, storage.TranscriptRepository) {
	t.Helper()
	db, err := storage.InitSQLite(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := storage.NewSQLiteTranscriptRepository(db)
	return NewReplayHandler(storage.NewReplayer(repo), logger.NewLogger()), repo
}

func TestReplayEndpointServesArchive(t *testing.T) {
	rh, repo := newTestReplayHandler(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	if err := repo.SaveGame(ctx, storage.ArchivedGame{ID: "g1", CreatedAt: base}); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}
	for i, content := range []string{"first", "second", "third"} {
		msg := storage.ArchivedMessage{
			MessageID: "m" + string(rune('1'+i)),
			GameID:    "g1",
			Team:      "red",
			SeatID:    "red-op1",
			Kind:      "chat",
			Content:   content,
			Phase:     "guess",
			CreatedAt: base.Add(time.Duration(i+1) * time.Second),
		}
		if err := repo.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	w := getPath(rh.HandleReplay, "/api/replay?game_id=g1")
	if w.Code != http.StatusOK {
		t.Fatalf("Replay returned %d: %s", w.Code, w.Body.String())
	}
	var replay storage.Replay
	if err := json.NewDecoder(w.Body).Decode(&replay); err != nil {
		t.Fatalf("Failed to decode replay: %v", err)
	}
	if replay.Game.ID != "g1" || len(replay.Messages) != 3 {
		t.Errorf("Expected 3 archived messages for g1, got %d", len(replay.Messages))
	}
	if replay.Summary.ChatMessages != 3 {
		t.Errorf("Expected 3 chat messages in the summary, got %d", replay.Summary.ChatMessages)
	}

	// The last parameter bounds the window to the newest entries.
	w = getPath(rh.HandleReplay, "/api/replay?game_id=g1&last=2")
	if w.Code != http.StatusOK {
		t.Fatalf("Windowed replay returned %d", w.Code)
	}
	replay = storage.Replay{}
	if err := json.NewDecoder(w.Body).Decode(&replay); err != nil {
		t.Fatalf("Failed to decode windowed replay: %v", err)
	}
	if len(replay.Messages) != 2 || replay.Messages[0].Content != "second" {
		t.Errorf("Expected the newest 2 messages starting at second, got %+v", replay.Messages)
	}

	w = getPath(rh.HandleReplay, "/api/replay?game_id=ghost")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unarchived game, got %d", w.Code)
	}

	w = getPath(rh.HandleMessage, "/api/replay/message?message_id=m2")
	if w.Code != http.StatusOK {
		t.Fatalf("Message detail returned %d", w.Code)
	}
	var detail storage.ReplayedMessage
	if err := json.NewDecoder(w.Body).Decode(&detail); err != nil {
		t.Fatalf("Failed to decode detail: %v", err)
	}
	if detail.Message.Content != "second" || detail.Game.ID != "g1" {
		t.Errorf("Expected message m2 with its game header, got %+v", detail)
	}

	w = getPath(rh.HandleMessage, "/api/replay/message?message_id=nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown message, got %d", w.Code)
	}
}

func TestReplayDisabledArchive(t *testing.T) {
	rh := NewReplayHandler(nil, logger.NewLogger())

	if w := getPath(rh.HandleReplay, "/api/replay?game_id=g1"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 with archive disabled, got %d", w.Code)
	}
	if w := getPath(rh.HandleMessage, "/api/replay/message?message_id=m1"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 with archive disabled, got %d", w.Code)
	}
}
