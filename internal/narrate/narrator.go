package narrate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/platform/logger"
)

const (
	ttsRequestTimeout = 10 * time.Second
	// translate_tts rejects long inputs, so spoken text is clipped.
	maxSpokenRunes = 200
)

// Narrator is the built-in narration consumer. It polls the registry,
// enables gating for every game it sees, renders each new transcript
// message to an mp3 via Google Translate TTS and acknowledges it on
// the game's gate. External consumers (a frontend with its own audio
// player) use the ack endpoint instead and leave the narrator off.
type Narrator struct {
	registry *engine.Registry
	gates    *GateSet
	audioDir string
	lang     string
	poll     time.Duration
	client   *http.Client
	logger   *logger.Logger

	progress map[string]int
	done     map[string]bool
}

// NewNarrator creates a narrator writing mp3 files under audioDir.
func NewNarrator(registry *engine.Registry, gates *GateSet, audioDir, lang string, poll time.Duration, log *logger.Logger) *Narrator {
	return &Narrator{
		registry: registry,
		gates:    gates,
		audioDir: audioDir,
		lang:     lang,
		poll:     poll,
		client:   &http.Client{Timeout: ttsRequestTimeout},
		logger:   log,
		progress: make(map[string]int),
		done:     make(map[string]bool),
	}
}

// Run polls until ctx is cancelled.
func (n *Narrator) Run(ctx context.Context) {
	if err := os.MkdirAll(n.audioDir, 0o755); err != nil {
		n.logger.Errorf("narrator: cannot create audio dir %s: %v", n.audioDir, err)
		return
	}
	n.logger.Infof("narrator running, audio dir %s, poll %s", n.audioDir, n.poll)

	ticker := time.NewTicker(n.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.sweep(ctx)
		}
	}
}

func (n *Narrator) sweep(ctx context.Context) {
	for _, game := range n.registry.All() {
		id := game.ID()
		if n.done[id] {
			continue
		}
		if _, tracked := n.progress[id]; !tracked {
			n.progress[id] = 0
			n.gates.SetGating(id, true)
			n.logger.Infof("narrator: now narrating game %s", id)
		}
		state := game.Snapshot()
		for _, msg := range state.Messages[n.progress[id]:] {
			n.speak(ctx, state, msg)
			n.progress[id]++
			n.gates.Ack(id)
			if ctx.Err() != nil {
				return
			}
		}
		if state.Ended() {
			n.gates.SetGating(id, false)
			n.done[id] = true
			delete(n.progress, id)
			n.logger.Infof("narrator: game %s finished, narration closed", id)
		}
	}
}

// speak renders one message. Failures are logged and skipped; the ack
// still happens so a TTS outage never stalls a game.
func (n *Narrator) speak(ctx context.Context, state domain.GameState, msg domain.Message) {
	lang := n.lang
	if seat, ok := state.SeatByID(msg.PlayerID); ok && seat.Voice != "" {
		lang = seat.Voice
	}
	path := filepath.Join(n.audioDir, msg.ID+".mp3")
	if err := n.synthesize(ctx, clipSpoken(msg.Content), lang, path); err != nil {
		n.logger.Warnf("narrator: tts failed for message %s: %v", msg.ID, err)
	}
}

func (n *Narrator) synthesize(ctx context.Context, text, lang, outputPath string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", lang)
	params.Set("client", "tw-ob")
	params.Set("textlen", strconv.Itoa(len(text)))

	ttsURL := fmt.Sprintf("https://translate.google.com/translate_tts?%s", params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ttsURL, nil)
	if err != nil {
		return fmt.Errorf("creating TTS request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching TTS audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TTS service returned status %d", resp.StatusCode)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating audio file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing audio file: %w", err)
	}
	return nil
}

func clipSpoken(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSpokenRunes {
		return text
	}
	return string(runes[:maxSpokenRunes])
}
