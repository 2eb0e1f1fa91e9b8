package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/llm"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/metrics"
	pre_retrieve "github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/pre-retrieve"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/registry"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/retriever"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/router"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// Expander produces the retrieval query.
type Expander interface {
	ExpandDetailed(ctx context.Context, query, lens string) (*pre_retrieve.Expansion, error)
}

// Synthesizer produces the final answer from formatted context.
type Synthesizer interface {
	Synthesize(ctx context.Context, contextBlock, question, lens string, history []schema.Turn) (string, error)
}

const conversationalPrompt = `
If the user greets, reply with a polite greeting.
If the query is casual, irrelevant, or outside labour laws,
politely decline.

User query:
%s
`

// Orchestrator runs one query through ROUTE, then either a conversational reply
// or EXPAND, RETRIEVE and SYNTHESIZE. Stages run sequentially and are never retried.
type Orchestrator struct {
	Registry    registry.Resolver
	Router      router.Router
	Expander    Expander
	Retriever   retriever.Retriever
	Synthesizer Synthesizer
	LLM         llm.Provider // conversational replies

	TopK              int
	GenerationTimeout time.Duration
	RetrievalTimeout  time.Duration
}

// Result is the full outcome of Process.
type Result struct {
	QueryID   string                  `json:"query_id"`
	Answer    string                  `json:"answer"`
	Intent    schema.Intent           `json:"intent"`
	Fallback  bool                    `json:"fallback,omitempty"`
	Expansion *pre_retrieve.Expansion `json:"expansion,omitempty"`
	Fragments []schema.Fragment       `json:"fragments,omitempty"`
}

// Process answers q and returns the reply text.
func (o *Orchestrator) Process(ctx context.Context, q schema.Query) (string, error) {
	res, err := o.Run(ctx, q)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// Run answers q and returns every intermediate product.
func (o *Orchestrator) Run(ctx context.Context, q schema.Query) (res *Result, err error) {
	rec := metrics.NewQueryRecord(q.SessionID, q.Jurisdiction, q.LegalLens)
	rec.HistoryTurns = len(q.History)
	res = &Result{QueryID: rec.QueryID}
	defer func() {
		kind := string(schema.KindOf(err))
		if err != nil {
			metrics.IncQueryError(kind)
		}
		rec.Finish(kind, err)
		rec.LogJSON()
	}()

	entry, err := o.Registry.Resolve(q.Jurisdiction)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	decision, err := o.Router.Route(ctx, q.Text, entry.Jurisdiction)
	o.stageDone(rec, metrics.StageRoute, start, err)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	res.Intent, res.Fallback = decision.Intent, decision.Fallback
	rec.Intent, rec.ParseFallback = decision.Intent.String(), decision.Fallback

	if decision.Intent != schema.IntentSubstantive {
		start = time.Now()
		res.Answer, err = o.reply(ctx, q.Text)
		o.stageDone(rec, metrics.StageReply, start, err)
		if err != nil {
			return nil, fmt.Errorf("reply: %w", err)
		}
		return res, nil
	}

	x, frags, err := o.search(ctx, rec, entry.Jurisdiction, q)
	if err != nil {
		return nil, err
	}
	res.Expansion, res.Fragments = x, frags

	start = time.Now()
	history := append([]schema.Turn(nil), q.History...)
	res.Answer, err = o.Synthesizer.Synthesize(ctx, retriever.FormatContext(frags), x.Expanded, q.LegalLens, history)
	o.stageDone(rec, metrics.StageSynthesize, start, err)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return res, nil
}

// Search runs EXPAND and RETRIEVE only.
func (o *Orchestrator) Search(ctx context.Context, q schema.Query) (*pre_retrieve.Expansion, []schema.Fragment, error) {
	entry, err := o.Registry.Resolve(q.Jurisdiction)
	if err != nil {
		return nil, nil, err
	}
	rec := metrics.NewQueryRecord(q.SessionID, q.Jurisdiction, q.LegalLens)
	x, frags, err := o.search(ctx, rec, entry.Jurisdiction, q)
	rec.Finish(string(schema.KindOf(err)), err)
	rec.LogJSON()
	return x, frags, err
}

func (o *Orchestrator) search(ctx context.Context, rec *metrics.QueryRecord, jurisdiction string, q schema.Query) (*pre_retrieve.Expansion, []schema.Fragment, error) {
	start := time.Now()
	x, err := o.Expander.ExpandDetailed(ctx, q.Text, q.LegalLens)
	o.stageDone(rec, metrics.StageExpand, start, err)
	if err != nil {
		return nil, nil, fmt.Errorf("expand: %w", err)
	}
	rec.ExpandedQuery, rec.Keywords = x.Expanded, len(x.Keywords)

	start = time.Now()
	rctx, cancel := withTimeout(ctx, o.RetrievalTimeout)
	frags, err := o.Retriever.Retrieve(rctx, jurisdiction, x.Expanded, o.TopK)
	cancel()
	o.stageDone(rec, metrics.StageRetrieve, start, err)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve: %w", err)
	}
	rec.Fragments = len(frags)
	return x, frags, nil
}

func (o *Orchestrator) reply(ctx context.Context, query string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.GenerationTimeout)
	defer cancel()
	out, err := o.LLM.GenerateCompletion(ctx, fmt.Sprintf(conversationalPrompt, query))
	if err != nil {
		return "", schema.GenerationError("orchestrator.reply", err)
	}
	return out, nil
}

func (o *Orchestrator) stageDone(rec *metrics.QueryRecord, stage string, start time.Time, err error) {
	rec.Stage(stage, start)
	metrics.ObserveStage(stage, start, err)
	if err != nil {
		logger.Warnf("orchestrator: %s failed for query %s: %v", stage, rec.QueryID, err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
