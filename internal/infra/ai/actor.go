// Package ai - actor.go
// Actor adapts the LLM providers to the scheduler's ResponsePort: it
// renders a Situation into a chat request, retries the provider, and
// parses the reply back into an Action.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/and1mon/clueless/internal/domain"
	"github.com/and1mon/clueless/internal/platform/logger"
	"github.com/and1mon/clueless/internal/platform/metrics"
	"github.com/and1mon/clueless/internal/scheduler"
)

const (
	actorMaxTokens   = 600
	actorTemperature = 0.7
)

// Actor implements scheduler.ResponsePort on top of one or more LLM
// providers, tried in preference order; the first available one wins.
type Actor struct {
	providers  []LLMProvider
	logger     *logger.Logger
	maxRetries int
}

// NewActor creates the port adapter.
func NewActor(providers []LLMProvider, log *logger.Logger) *Actor {
	return &Actor{
		providers:  providers,
		logger:     log,
		maxRetries: 2,
	}
}

// Decide asks the model what the seat does. Transport failures are
// retried with backoff; parse and validation misses are not retried
// here, they come back as errors for the scheduler to classify.
func (a *Actor) Decide(ctx context.Context, sit scheduler.Situation) (scheduler.Action, error) {
	provider := a.pick()
	if provider == nil {
		metrics.Get().RecordLLMError()
		return scheduler.Action{}, fmt.Errorf("no LLM provider available")
	}

	req := CompletionRequest{
		Messages:       BuildMessages(sit),
		MaxTokens:      actorMaxTokens,
		Temperature:    actorTemperature,
		Model:          sit.Seat.Model,
		ResponseFormat: "json",
	}

	var resp *CompletionResponse
	var err error

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		resp, err = provider.Complete(ctx, req)
		if err == nil {
			break
		}
		metrics.Get().RecordLLMError()
		if ctx.Err() != nil {
			break
		}
		a.logger.Warnf("%s attempt %d for seat %s failed: %v", provider.Name(), attempt+1, sit.Seat.Name, err)
		time.Sleep(time.Duration(attempt+1) * time.Second)
	}

	if err != nil {
		return scheduler.Action{}, fmt.Errorf("%s: %w", provider.Name(), err)
	}

	parsed, err := ParseAgentResponse(resp.Content)
	if err != nil {
		a.logger.Event("LLM_RAW", sit.Seat.ID, resp.Content)
		return scheduler.Action{}, fmt.Errorf("unusable %s reply: %w", provider.Name(), err)
	}
	if err := ValidateAgentResponse(parsed); err != nil {
		a.logger.Event("LLM_RAW", sit.Seat.ID, resp.Content)
		return scheduler.Action{}, fmt.Errorf("unusable %s reply: %w", provider.Name(), err)
	}

	a.logUsageStats(provider)

	return ToAction(parsed), nil
}

// pick returns the first available provider.
func (a *Actor) pick() LLMProvider {
	for _, p := range a.providers {
		if p.IsAvailable() {
			return p
		}
	}
	return nil
}

// logUsageStats logs current API usage for monitoring.
func (a *Actor) logUsageStats(p LLMProvider) {
	stats := p.GetUsageStats()
	a.logger.Infof("LLM usage (%s): %d requests, %d tokens, $%.4f spent",
		p.Name(), stats.TotalRequests, stats.TotalTokens, stats.TotalCostUSD)
}

// BuildMessages turns a situation into the full chat request: system
// prompt, then the visible transcript as alternating turns, then the
// situation prompt as the final user turn.
func BuildMessages(sit scheduler.Situation) []Message {
	history := historyMessages(sit)
	history = append(history, Message{Role: "user", Content: BuildSituationPrompt(sit)})
	history = normalizeAlternation(history)

	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, Message{Role: "system", Content: BuildSystemPrompt(sit)})
	return append(msgs, history...)
}

// historyMessages maps transcript entries to raw chat turns: the seat's
// own lines become assistant turns, everyone else becomes user turns
// prefixed with the speaker.
func historyMessages(sit scheduler.Situation) []Message {
	var msgs []Message
	for _, e := range sit.Transcript {
		if e.Speaker == sit.Seat.Name && e.Team == string(sit.Seat.Team) {
			msgs = append(msgs, Message{Role: "assistant", Content: e.Content})
			continue
		}
		msgs = append(msgs, Message{Role: "user", Content: speakerPrefix(e) + e.Content})
	}
	return msgs
}

func speakerPrefix(e scheduler.TranscriptEntry) string {
	if e.Speaker == domain.SystemPlayerID {
		return "[game] "
	}
	if e.Role != "" {
		return fmt.Sprintf("%s (%s %s): ", e.Speaker, e.Team, e.Role)
	}
	return e.Speaker + ": "
}

// normalizeAlternation enforces the turn shape chat APIs accept: drop
// leading assistant turns, then merge consecutive same-role turns. The
// result always starts and ends with a user turn.
func normalizeAlternation(msgs []Message) []Message {
	start := 0
	for start < len(msgs) && msgs[start].Role == "assistant" {
		start++
	}

	var out []Message
	for _, m := range msgs[start:] {
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	return out
}

// Ensure Actor implements the port
var _ scheduler.ResponsePort = (*Actor)(nil)
