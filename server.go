package labourlaw

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
)

const Version = "1.0.0"

type LabourLawConfig struct {
	config *config.Config
	mu     sync.Mutex
	client *LabourLawClient
}

func NewLabourLawConfig() *LabourLawConfig {
	return &LabourLawConfig{config: config.Default()}
}

func (c *LabourLawConfig) Config() *config.Config { return c.config }

// ParseConfig overlays a decoded server configuration block onto the current values.
// Validation runs separately so callers can apply environment overrides in between.
func (c *LabourLawConfig) ParseConfig(cfg map[string]any) error {
	return config.Merge(c.config, cfg)
}

func (c *LabourLawConfig) Validate() error {
	return c.config.Validate()
}

func (c *LabourLawConfig) NewServer(serverName string) (*server.MCPServer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mcpServer := server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(false),
		server.WithInstructions("This server answers questions about Indian labour law (the four Labour Codes and State Draft Rules) with page-level citations, scoped to one jurisdiction per query"),
	)

	client, err := c.Client(context.Background())
	if err != nil {
		return nil, err
	}
	registerTools(mcpServer, client)
	return mcpServer, nil
}

func registerTools(mcpServer *server.MCPServer, client *LabourLawClient) {
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("labour-law-query", "Answer a question about Indian labour law for one jurisdiction, citing the source file and page of every statement", GetQuerySchema()),
		HandleQuery(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("search-legal-fragments", "Return the legal document fragments most relevant to a query, each tagged with its source file and page", GetSearchSchema()),
		HandleSearch(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("list-jurisdictions", "List the jurisdictions that have a document index", GetListJurisdictionsSchema()),
		HandleListJurisdictions(client),
	)

	// Session tools
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("create-session", "Start a conversation whose turns are reused as history by labour-law-query", GetCreateSessionSchema()),
		HandleCreateSession(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("list-sessions", "List conversations, most recently active first", GetListSessionsSchema()),
		HandleListSessions(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("get-session", "Return the turns recorded for a conversation", GetSessionIDSchema()),
		HandleGetSession(client),
	)
	mcpServer.AddTool(
		mcp.NewToolWithRawSchema("delete-session", "Delete a conversation and its turns", GetSessionIDSchema()),
		HandleDeleteSession(client),
	)
}

// Client returns the pipeline client, building it from the current configuration on first use.
func (c *LabourLawConfig) Client(ctx context.Context) (*LabourLawClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := NewLabourLawClient(ctx, c.config)
	if err != nil {
		return nil, fmt.Errorf("create labour law client failed, err: %w", err)
	}
	c.client = client
	return client, nil
}

// Close releases the client, if one was built. A later Client call builds a fresh one.
func (c *LabourLawConfig) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}
