package pre_retrieve

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/llm"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

const expansionPrompt = `
You are assisting in legal information retrieval.

Given:
Query: %s
Labour law subsection: %s

Generate exactly %d short related legal phrases or keywords relevant to this query.
Return them as a comma-separated list only.
`

// Expansion is the result of one expansion call.
type Expansion struct {
	Original string   `json:"original"`
	Expanded string   `json:"expanded"`
	Keywords []string `json:"keywords"`
}

// QueryExpander enriches a query with model-suggested legal keywords before retrieval.
type QueryExpander struct {
	LLM       llm.Provider
	Keywords  int
	HardLimit int
	Timeout   time.Duration
}

func NewQueryExpander(provider llm.Provider, cfg config.ExpansionConfig, timeout time.Duration) *QueryExpander {
	return &QueryExpander{LLM: provider, Keywords: cfg.Keywords, HardLimit: cfg.HardLimit, Timeout: timeout}
}

// BuildPrompt returns the keyword request for query under lens.
func (e *QueryExpander) BuildPrompt(query, lens string) string {
	n := e.Keywords
	if n <= 0 {
		n = 10
	}
	return fmt.Sprintf(expansionPrompt, query, lens, n)
}

// Expand returns "<query> <lens> <kw1> <kw2> ...". Any keyword count is accepted.
func (e *QueryExpander) Expand(ctx context.Context, query, lens string) (string, error) {
	x, err := e.ExpandDetailed(ctx, query, lens)
	if err != nil {
		return "", err
	}
	return x.Expanded, nil
}

func (e *QueryExpander) ExpandDetailed(ctx context.Context, query, lens string) (*Expansion, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	raw, err := e.LLM.GenerateCompletion(ctx, e.BuildPrompt(query, lens))
	if err != nil {
		return nil, schema.GenerationError("expander.expand", err)
	}
	kws := ParseKeywords(raw)
	if e.HardLimit > 0 && len(kws) > e.HardLimit {
		kws = kws[:e.HardLimit]
	}
	if n := e.Keywords; n > 0 && len(kws) != n {
		logger.Debugf("expander: asked for %d keywords, got %d", n, len(kws))
	}
	return &Expansion{Original: query, Expanded: Compose(query, lens, kws), Keywords: kws}, nil
}

// Compose joins the query, the lens and the keywords with single spaces.
func Compose(query, lens string, keywords []string) string {
	parts := make([]string, 0, len(keywords)+2)
	for _, p := range append([]string{query, lens}, keywords...) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return query
	}
	return strings.Join(parts, " ")
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// ParseKeywords splits a comma-separated reply. Line breaks are treated as separators,
// list markers and wrapping quotes are removed, and empty items are dropped.
func ParseKeywords(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r", "")
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = listMarker.ReplaceAllString(line, "")
		for _, item := range strings.Split(line, ",") {
			item = strings.Trim(strings.TrimSpace(item), `"'`+"`")
			item = strings.TrimSuffix(item, ".")
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
