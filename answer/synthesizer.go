package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/llm"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// Synthesizer produces the cited legal analysis from retrieved context.
type Synthesizer struct {
	LLM     llm.Provider
	History HistoryBound
	Timeout time.Duration
}

func NewSynthesizer(provider llm.Provider, cfg config.HistoryConfig, counter Counter, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		LLM:     provider,
		History: HistoryBound{MaxTurns: cfg.MaxTurns, MaxTokens: cfg.MaxTokens, Counter: counter},
		Timeout: timeout,
	}
}

// Prompt renders the prompt Synthesize would send.
func (s *Synthesizer) Prompt(contextBlock, question, lens string, history []schema.Turn) (string, error) {
	return BuildPrompt(contextBlock, question, lens, RenderHistory(s.History.Apply(history)))
}

// Synthesize makes one generation call and returns the model output unchanged.
func (s *Synthesizer) Synthesize(ctx context.Context, contextBlock, question, lens string, history []schema.Turn) (string, error) {
	prompt, err := s.Prompt(contextBlock, question, lens, history)
	if err != nil {
		return "", fmt.Errorf("render answer prompt: %w", err)
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	out, err := s.LLM.GenerateCompletion(ctx, prompt)
	if err != nil {
		return "", schema.GenerationError("synthesizer.synthesize", err)
	}
	return out, nil
}
