// Package main is the entry point for the clueless game server. It
// only handles dependency injection and server initialization; no
// game logic belongs here.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/infra/ai"
	"github.com/and1mon/clueless/internal/infra/storage"
	"github.com/and1mon/clueless/internal/narrate"
	"github.com/and1mon/clueless/internal/network"
	"github.com/and1mon/clueless/internal/platform/config"
	"github.com/and1mon/clueless/internal/platform/logger"
	"github.com/and1mon/clueless/internal/scheduler"
)

// archivePersister adapts the transcript repository to the engine's
// write-through persister.
type archivePersister struct {
	repo storage.TranscriptRepository
}

func (a *archivePersister) SaveGame(gameID string, createdAt time.Time) error {
	return a.repo.SaveGame(context.Background(), storage.ArchivedGame{
		ID:        gameID,
		CreatedAt: createdAt,
	})
}

func (a *archivePersister) AppendMessage(gameID string, msg domain.Message) error {
	return a.repo.AppendMessage(context.Background(), storage.ArchivedMessage{
		MessageID: msg.ID,
		GameID:    gameID,
		Team:      string(msg.Team),
		SeatID:    msg.PlayerID,
		Kind:      string(msg.Kind),
		Content:   msg.Content,
		Phase:     string(msg.Phase),
		CreatedAt: msg.CreatedAt,
	})
}

func (a *archivePersister) SaveResult(gameID string, winner domain.Team, reason string) error {
	return a.repo.UpdateResult(context.Background(), gameID, string(winner), reason)
}

// openArchive opens the configured archive backend. It returns a nil
// repository when archiving is disabled.
func openArchive(cfg *config.Config, appLogger *logger.Logger) (*sql.DB, storage.TranscriptRepository) {
	if !cfg.ArchiveEnabled {
		appLogger.Info("Transcript archive disabled.")
		return nil, nil
	}

	switch cfg.ArchiveDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			appLogger.Error("ARCHIVE_DRIVER=postgres requires DATABASE_URL; archiving disabled.")
			return nil, nil
		}
		appLogger.Info("Initializing Postgres transcript archive...")
		db, err := storage.InitPostgres(cfg.DatabaseURL)
		if err != nil {
			appLogger.Errorf("Failed to initialize Postgres: %v; archiving disabled.", err)
			return nil, nil
		}
		return db, storage.NewPostgresTranscriptRepository(db)
	default:
		appLogger.Infof("Initializing SQLite transcript archive at %s...", cfg.DatabasePath)
		db, err := storage.InitSQLite(cfg.DatabasePath)
		if err != nil {
			appLogger.Errorf("Failed to initialize SQLite: %v; archiving disabled.", err)
			return nil, nil
		}
		return db, storage.NewSQLiteTranscriptRepository(db)
	}
}

// buildProviders orders the LLM adapters with the configured one first.
// The actor falls through to the next available provider at call time.
func buildProviders(cfg *config.Config, gate *ai.BudgetGate) []ai.LLMProvider {
	byName := map[string]ai.LLMProvider{
		"openai":    ai.NewOpenAIProvider(gate),
		"anthropic": ai.NewAnthropicProvider(gate),
		"gemini":    ai.NewGeminiProvider(gate),
	}
	order := []string{cfg.AgentProvider}
	for _, name := range []string{"openai", "anthropic", "gemini"} {
		if name != cfg.AgentProvider {
			order = append(order, name)
		}
	}
	var providers []ai.LLMProvider
	for _, name := range order {
		if p, ok := byName[name]; ok {
			providers = append(providers, p)
		}
	}
	return providers
}

func main() {
	log.Println("[CLUELESS] Initializing game server...")

	_ = godotenv.Load()
	cfg := config.Load()
	appLogger := logger.NewLogger()

	db, repo := openArchive(cfg, appLogger)
	if db != nil {
		defer db.Close()
	}
	var persister engine.MessagePersister
	var replayer *storage.Replayer
	if repo != nil {
		persister = &archivePersister{repo: repo}
		replayer = storage.NewReplayer(repo)
	}

	appLogger.Info("Bootstrapping game registry...")
	registry := engine.NewRegistry(persister, appLogger)
	gates := narrate.NewGateSet()

	appLogger.Info("Bootstrapping agent seats...")
	budgetGate := ai.NewBudgetGate(cfg.DailyBudgetUSD, cfg.MonthlyBudgetUSD)
	providers := buildProviders(cfg, budgetGate)
	actor := ai.NewActor(providers, appLogger)
	sched := scheduler.New(registry, actor, gates, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket hub...")
	hub := network.NewHub(gates, cfg.BroadcastChannelBuffer, cfg.ClientSendBuffer, appLogger)
	go hub.Run(ctx)
	hub.StartMessagePoller(ctx, registry)

	if cfg.NarratorEnabled {
		appLogger.Info("Bootstrapping narrator...")
		narrator := narrate.NewNarrator(registry, gates, cfg.NarratorAudioDir, cfg.NarratorLang, cfg.NarratorPoll, appLogger)
		go narrator.Run(ctx)
	}

	mux := http.NewServeMux()
	api := network.NewGameAPI(registry, sched, gates, appLogger)
	api.RegisterRoutes(mux)
	replay := network.NewReplayHandler(replayer, appLogger)
	replay.RegisterRoutes(mux)
	mux.HandleFunc("/ws", hub.ServeWS)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: mux,
	}

	go func() {
		log.Printf("[CLUELESS] HTTP API & WS server listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[CLUELESS] Server running. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[CLUELESS] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("HTTP shutdown: %v", err)
	}
}
