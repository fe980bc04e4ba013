// Package ai - gemini.go
// Google Gemini adapter implementing the LLMProvider interface.
// Unlike the raw-HTTP adapters this one rides the official SDK.
package ai

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/and1mon/clueless/internal/platform/metrics"
)

// GeminiProvider implements LLMProvider via google.golang.org/genai.
type GeminiProvider struct {
	apiKey     string
	model      string
	client     *genai.Client
	budgetGate *BudgetGate

	statsMu    sync.Mutex
	usageStats UsageStats
}

// NewGeminiProvider creates a new Gemini adapter.
func NewGeminiProvider(budgetGate *BudgetGate) *GeminiProvider {
	apiKey := os.Getenv("GEMINI_API_KEY")

	p := &GeminiProvider{
		apiKey:     apiKey,
		model:      "gemini-2.0-flash",
		budgetGate: budgetGate,
	}

	if apiKey == "" {
		return p
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return p
	}
	p.client = client

	return p
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "Google Gemini"
}

// IsAvailable checks if the API key is configured and the client built.
func (p *GeminiProvider) IsAvailable() bool {
	return p.apiKey != "" && p.client != nil
}

// Complete sends a completion request to Gemini.
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("Gemini API key not configured")
	}

	// Check budget
	estimatedCost := p.estimateCost(req)
	if !p.budgetGate.CanSpend(estimatedCost) {
		return nil, fmt.Errorf("budget limit exceeded: %s", p.budgetGate.GetStatus())
	}

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	// The system prompt rides in the config, everything else becomes
	// role-tagged history ("assistant" maps to the model role).
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     genai.Ptr(float32(req.Temperature)),
	}
	if req.ResponseFormat == "json" {
		config.ResponseMIMEType = "application/json"
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	// Send request
	start := time.Now()

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	latency := time.Since(start)

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("no response content returned")
	}

	var promptTokens, outputTokens, totalTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		outputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		totalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	finishReason := ""
	if len(resp.Candidates) > 0 {
		finishReason = string(resp.Candidates[0].FinishReason)
	}

	actualCost := p.calculateCost(totalTokens, model)
	p.budgetGate.RecordSpend(actualCost)

	p.statsMu.Lock()
	p.usageStats.TotalRequests++
	p.usageStats.TotalTokens += totalTokens
	p.usageStats.TotalCostUSD += actualCost
	p.statsMu.Unlock()

	metrics.Get().RecordLLMCall(totalTokens, actualCost, latency)

	return &CompletionResponse{
		Content:      text,
		Model:        model,
		PromptTokens: promptTokens,
		OutputTokens: outputTokens,
		TotalTokens:  totalTokens,
		Latency:      latency,
		FinishReason: finishReason,
	}, nil
}

// estimateCost estimates cost before making a request.
func (p *GeminiProvider) estimateCost(req CompletionRequest) float64 {
	estimatedTokens := 1000 + req.MaxTokens
	return p.calculateCost(estimatedTokens, p.model)
}

// calculateCost computes actual cost based on tokens.
func (p *GeminiProvider) calculateCost(tokens int, model string) float64 {
	switch model {
	case "gemini-2.0-flash":
		return float64(tokens) * 0.00000025 // $0.25/1M tokens averaged
	case "gemini-1.5-pro":
		return float64(tokens) * 0.000003
	default:
		return float64(tokens) * 0.000001
	}
}

// GetUsageStats returns current usage statistics.
func (p *GeminiProvider) GetUsageStats() UsageStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	stats := p.usageStats
	stats.BudgetRemaining = p.budgetGate.MonthRemaining()
	return stats
}

// ResetUsage resets all usage counters.
func (p *GeminiProvider) ResetUsage() {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.usageStats = UsageStats{LastReset: time.Now()}
}

// Ensure GeminiProvider implements LLMProvider
var _ LLMProvider = (*GeminiProvider)(nil)
