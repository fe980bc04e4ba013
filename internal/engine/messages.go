// Package engine - messages.go
// The append-only transcript. Appends write through to the persister in
// a goroutine so slow storage never blocks play.
package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/platform/metrics"
)

// MessagePersister archives transcript entries as they happen. The
// engine only writes through it; nothing is ever read back into a live
// game.
type MessagePersister interface {
	SaveGame(gameID string, createdAt time.Time) error
	AppendMessage(gameID string, msg domain.Message) error
	SaveResult(gameID string, winner domain.Team, reason string) error
}

func (g *Game) appendMessageLocked(team domain.Team, playerID string, kind domain.MessageKind, content string) domain.Message {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Team:      team,
		PlayerID:  playerID,
		Kind:      kind,
		Content:   content,
		Phase:     g.turn.Phase,
		CreatedAt: time.Now(),
	}
	g.messages = append(g.messages, msg)
	metrics.Get().RecordMessage()

	if g.persister != nil {
		p, id, log := g.persister, g.id, g.logger
		go func() {
			start := time.Now()
			err := p.AppendMessage(id, msg)
			metrics.Get().RecordArchiveWrite(time.Since(start), err)
			if err != nil && log != nil {
				log.Errorf("archive write failed for game %s: %v", id, err)
			}
		}()
	}
	return msg
}

func (g *Game) appendSystemLocked(team domain.Team, content string) domain.Message {
	return g.appendMessageLocked(team, domain.SystemPlayerID, domain.MessageSystem, content)
}

// PostSystemNote appends a system message to a team's transcript. The
// scheduler uses it to explain rejected agent actions in the visible
// log instead of failing silently.
func (g *Game) PostSystemNote(team domain.Team, content string) domain.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.appendSystemLocked(team, trimContent(content))
}

func trimContent(content string) string {
	return strings.TrimSpace(content)
}
