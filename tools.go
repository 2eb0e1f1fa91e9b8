package labourlaw

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

const querySchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "The user's question about Indian labour law"},
    "jurisdiction": {"type": "string", "description": "Jurisdiction whose documents are searched, e.g. Central, Maharashtra, Karnataka"},
    "legal_lens": {"type": "string", "description": "Labour code the answer is analysed under, e.g. OSHWC, Code on Wages"},
    "session_id": {"type": "string", "description": "Optional conversation id; its prior turns are used as history"},
    "history": {
      "type": "array",
      "description": "Optional prior turns, oldest first. Overrides the session's stored history",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string", "enum": ["user", "assistant"]},
          "content": {"type": "string"}
        },
        "required": ["role", "content"]
      }
    }
  },
  "required": ["query", "jurisdiction", "legal_lens"]
}`

const searchSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Search text"},
    "jurisdiction": {"type": "string", "description": "Jurisdiction whose index is searched"},
    "legal_lens": {"type": "string", "description": "Labour code used to expand the search"}
  },
  "required": ["query", "jurisdiction", "legal_lens"]
}`

const listJurisdictionsSchema = `{"type": "object", "properties": {}}`

const sessionIDSchema = `{
  "type": "object",
  "properties": {
    "session_id": {"type": "string", "description": "Conversation id returned by create-session"}
  },
  "required": ["session_id"]
}`

func GetQuerySchema() json.RawMessage             { return json.RawMessage(querySchema) }
func GetSearchSchema() json.RawMessage            { return json.RawMessage(searchSchema) }
func GetListJurisdictionsSchema() json.RawMessage { return json.RawMessage(listJurisdictionsSchema) }
func GetCreateSessionSchema() json.RawMessage     { return json.RawMessage(listJurisdictionsSchema) }
func GetListSessionsSchema() json.RawMessage      { return json.RawMessage(listJurisdictionsSchema) }
func GetSessionIDSchema() json.RawMessage         { return json.RawMessage(sessionIDSchema) }

// HandleQuery answers a labour-law question through the full pipeline.
func HandleQuery(client *LabourLawClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := queryFromRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := client.Ask(ctx, q)
		if err != nil {
			return toolError("query", err), nil
		}
		return mcp.NewToolResultText(res.Answer), nil
	}
}

// HandleSearch returns the cited context block for a query without generating an answer.
func HandleSearch(client *LabourLawClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := queryFromRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		block, frags, err := client.Search(ctx, q)
		if err != nil {
			return toolError("search", err), nil
		}
		if len(frags) == 0 {
			return mcp.NewToolResultText("no fragments found"), nil
		}
		return mcp.NewToolResultText(block), nil
	}
}

func HandleListJurisdictions(client *LabourLawClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string][]string{"jurisdictions": client.Jurisdictions()})
	}
}

func HandleCreateSession(client *LabourLawClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s := client.Sessions().Create()
		logger.Debugf("labourlaw: created session %s", s.ID)
		return jsonResult(map[string]string{"session_id": s.ID})
	}
}

// sessionSummary is a session without its turns.
type sessionSummary struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

func HandleListSessions(client *LabourLawClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list := client.Sessions().List()
		out := make([]sessionSummary, 0, len(list))
		for _, s := range list {
			out = append(out, sessionSummary{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt, TurnCount: len(s.Turns)})
		}
		return jsonResult(map[string]any{"sessions": out})
	}
}

func HandleGetSession(client *LabourLawClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireNonEmpty(request, "session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s, ok := client.Sessions().Get(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
		}
		return jsonResult(s)
	}
}

func HandleDeleteSession(client *LabourLawClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireNonEmpty(request, "session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !client.Sessions().Delete(id) {
			return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("session %s deleted", id)), nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func queryFromRequest(request mcp.CallToolRequest) (schema.Query, error) {
	var q schema.Query
	var err error
	if q.Text, err = requireNonEmpty(request, "query"); err != nil {
		return q, err
	}
	if q.Jurisdiction, err = requireNonEmpty(request, "jurisdiction"); err != nil {
		return q, err
	}
	if q.LegalLens, err = requireNonEmpty(request, "legal_lens"); err != nil {
		return q, err
	}
	q.SessionID = strings.TrimSpace(request.GetString("session_id", ""))
	if raw, ok := request.GetArguments()["history"]; ok && raw != nil {
		if q.History, err = decodeHistory(raw); err != nil {
			return q, err
		}
	}
	return q, nil
}

func requireNonEmpty(request mcp.CallToolRequest, name string) (string, error) {
	v, err := request.RequireString(name)
	if err != nil {
		return "", err
	}
	if v = strings.TrimSpace(v); v == "" {
		return "", fmt.Errorf("argument %q must not be empty", name)
	}
	return v, nil
}

func decodeHistory(raw any) ([]schema.Turn, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid history: %w", err)
	}
	turns := []schema.Turn{}
	if err := json.Unmarshal(b, &turns); err != nil {
		return nil, fmt.Errorf("invalid history: %w", err)
	}
	for i, t := range turns {
		if t.Role != schema.RoleUser && t.Role != schema.RoleAssistant {
			return nil, fmt.Errorf("invalid history: turn %d has role %q", i, t.Role)
		}
	}
	return turns, nil
}

// toolError reports a pipeline failure to the caller, prefixed with its kind.
func toolError(tool string, err error) *mcp.CallToolResult {
	kind := schema.KindOf(err)
	if kind == "" {
		kind = "error"
	}
	logger.Errorf("labourlaw: %s failed: %v", tool, err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}
