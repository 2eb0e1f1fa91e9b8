package router

import (
	"context"
	"fmt"
	"time"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/llm"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/metrics"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// RoutingDecision is the outcome of classifying one query.
type RoutingDecision struct {
	Intent   schema.Intent `json:"intent"`
	Fallback bool          `json:"fallback"` // payload unparseable, defaulted to conversational
	Raw      string        `json:"raw,omitempty"`
}

// Router decides whether a query needs the retrieval pipeline.
type Router interface {
	Route(ctx context.Context, query, jurisdiction string) (*RoutingDecision, error)
}

const routerPrompt = `
You are an intelligent routing assistant. Your task is to classify the user's query as one of the following intents:

- GENERAL: Greetings, chitchat, small talk, out-of-domain, irrelevant, or casual questions.
- TECHNICAL: Queries that are related to any labour law and likely need technical documentation or expert knowledge.

Respond strictly in this JSON format:
{"intent": "<intent_type>"}

Query: %s
`

// BuildPrompt returns the classification prompt. The jurisdiction is appended to the query text.
func BuildPrompt(query, jurisdiction string) string {
	q := query
	if jurisdiction != "" {
		q = fmt.Sprintf("%s for %s", query, jurisdiction)
	}
	return fmt.Sprintf(routerPrompt, q)
}

// LLMRouter classifies with a single generation call and fails open to conversational.
type LLMRouter struct {
	LLM     llm.Provider
	Timeout time.Duration
}

func NewLLMRouter(provider llm.Provider, timeout time.Duration) *LLMRouter {
	return &LLMRouter{LLM: provider, Timeout: timeout}
}

// Route classifies query. A failed generation call is returned as a generation error;
// an unparseable payload yields a conversational decision with Fallback set.
func (r *LLMRouter) Route(ctx context.Context, query, jurisdiction string) (*RoutingDecision, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	raw, err := r.LLM.GenerateCompletion(ctx, BuildPrompt(query, jurisdiction))
	if err != nil {
		return nil, schema.GenerationError("router.classify", err)
	}

	intent, err := ParseIntent(raw)
	if err != nil {
		metrics.IncParseFallback()
		logger.Warnf("router: classification fallback to %s: %v", schema.IntentConversational, err)
		return &RoutingDecision{Intent: schema.IntentConversational, Fallback: true, Raw: raw}, nil
	}
	metrics.IncIntent(intent.String())
	logger.Debugf("router: intent=%s", intent)
	return &RoutingDecision{Intent: intent, Raw: raw}, nil
}

// Classify is Route reduced to the intent.
func (r *LLMRouter) Classify(ctx context.Context, query, jurisdiction string) (schema.Intent, error) {
	d, err := r.Route(ctx, query, jurisdiction)
	if err != nil {
		return "", err
	}
	return d.Intent, nil
}
