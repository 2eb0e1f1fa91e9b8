package labourlaw

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/answer"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/httpx"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/embedding"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/llm"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/orchestrator"
	pre_retrieve "github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/pre-retrieve"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/registry"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/retriever"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/router"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/vectordb"
)

const MAX_SESSION_COUNT = 1000

// LabourLawClient owns the pipeline and the resources behind it.
type LabourLawClient struct {
	config   *config.Config
	registry registry.Resolver
	orch     *orchestrator.Orchestrator
	sessions SessionStore
	closers  []io.Closer
}

// NewLabourLawClient builds every provider named by cfg and wires them into an orchestrator.
// Indices are attached lazily on the first query for each jurisdiction.
func NewLabourLawClient(ctx context.Context, cfg *config.Config) (*LabourLawClient, error) {
	reg, err := registry.FromConfig(cfg.Index.Jurisdictions)
	if err != nil {
		return nil, err
	}
	hc := httpx.NewFromConfig(&cfg.HTTP).StandardClient()

	var closers []io.Closer
	fail := func(err error) (*LabourLawClient, error) {
		if cerr := closeAll(closers); cerr != nil {
			logger.Warnf("labourlaw: release providers: %v", cerr)
		}
		return nil, err
	}

	llmProvider, err := llm.NewProvider(ctx, cfg.LLM, hc)
	if err != nil {
		return nil, fmt.Errorf("create llm provider failed, err: %w", err)
	}
	if cl, ok := llmProvider.(io.Closer); ok {
		closers = append(closers, cl)
	}
	embeddingProvider, err := embedding.NewProvider(ctx, cfg.Embedding, hc)
	if err != nil {
		return fail(fmt.Errorf("create embedding provider failed, err: %w", err))
	}
	if cl, ok := embeddingProvider.(io.Closer); ok {
		closers = append(closers, cl)
	}
	opener, err := vectordb.NewOpener(cfg.Index, embeddingProvider.GetModel())
	if err != nil {
		return fail(fmt.Errorf("create index opener failed, err: %w", err))
	}

	timeouts := cfg.Pipeline.Timeouts
	indices := retriever.NewIndexCache(opener, timeouts.IndexLoad())
	closers = append(closers, indices)

	orch := &orchestrator.Orchestrator{
		Registry: reg,
		Router:   router.NewLLMRouter(llmProvider, timeouts.Generation()),
		Expander: pre_retrieve.NewQueryExpander(llmProvider, cfg.Pipeline.Expansion, timeouts.Generation()),
		Retriever: &retriever.JurisdictionRetriever{
			Registry:     reg,
			Indices:      indices,
			Embed:        embeddingProvider,
			TopK:         cfg.Pipeline.TopK,
			EmbedTimeout: timeouts.Embedding(),
		},
		Synthesizer: answer.NewSynthesizer(llmProvider, cfg.Pipeline.History,
			answer.NewTokenCounter(cfg.Pipeline.History.Encoding), timeouts.Generation()),
		LLM:               llmProvider,
		TopK:              cfg.Pipeline.TopK,
		GenerationTimeout: timeouts.Generation(),
		RetrievalTimeout:  timeouts.Retrieval(),
	}
	logger.Infof("labourlaw: llm=%s embedding=%s index=%s jurisdictions=%v",
		llmProvider.GetProviderType(), embeddingProvider.GetModel(), opener.GetProviderType(), reg.Jurisdictions())

	return newLabourLawClient(cfg, reg, orch, closers...), nil
}

func newLabourLawClient(cfg *config.Config, reg registry.Resolver, orch *orchestrator.Orchestrator, closers ...io.Closer) *LabourLawClient {
	return &LabourLawClient{
		config:   cfg,
		registry: reg,
		orch:     orch,
		sessions: NewMemSessionStore(),
		closers:  closers,
	}
}

// Ask answers q. When q names a session and carries no history, the session's turns are
// used as history, and the exchange is appended to the session on success.
func (c *LabourLawClient) Ask(ctx context.Context, q schema.Query) (*orchestrator.Result, error) {
	useSession := q.SessionID != "" && q.History == nil
	if useSession {
		c.sessions.GetOrCreate(q.SessionID)
		q.History = c.sessions.History(q.SessionID)
	}
	res, err := c.orch.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	if useSession {
		c.sessions.AddTurns(q.SessionID,
			schema.Turn{Role: schema.RoleUser, Content: q.Text},
			schema.Turn{Role: schema.RoleAssistant, Content: res.Answer},
		)
		if err := c.sessions.Clean(MAX_SESSION_COUNT); err != nil {
			logger.Warnf("labourlaw: clean sessions: %v", err)
		}
	}
	return res, nil
}

// Search runs expansion and retrieval and returns the context block the synthesizer would see.
func (c *LabourLawClient) Search(ctx context.Context, q schema.Query) (string, []schema.Fragment, error) {
	_, frags, err := c.orch.Search(ctx, q)
	if err != nil {
		return "", nil, err
	}
	return retriever.FormatContext(frags), frags, nil
}

func (c *LabourLawClient) Jurisdictions() []string {
	return c.registry.Jurisdictions()
}

func (c *LabourLawClient) Sessions() SessionStore {
	return c.sessions
}

// Close releases cached indices, the index backend and any provider holding a connection.
func (c *LabourLawClient) Close() error {
	return closeAll(c.closers)
}

func closeAll(closers []io.Closer) error {
	var result *multierror.Error
	for _, cl := range closers {
		if cl == nil {
			continue
		}
		if err := cl.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
