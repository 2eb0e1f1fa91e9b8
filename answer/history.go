package answer

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// Counter measures text length in tokens.
type Counter interface {
	Count(text string) int
}

// WordCounter approximates tokens by whitespace-separated words.
type WordCounter struct{}

func (WordCounter) Count(text string) int { return len(strings.Fields(text)) }

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int { return len(c.enc.Encode(text, nil, nil)) }

// NewTokenCounter loads a tiktoken encoding, falling back to WordCounter when the
// encoding cannot be loaded (its BPE ranks are fetched on first use).
func NewTokenCounter(encoding string) Counter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		logger.Warnf("answer: tiktoken encoding %s unavailable, counting words instead: %v", encoding, err)
		return WordCounter{}
	}
	return tiktokenCounter{enc: enc}
}

// HistoryBound limits the chat history forwarded to the model.
type HistoryBound struct {
	MaxTurns  int // 0 means no turn limit
	MaxTokens int // 0 means no token limit
	Counter   Counter
}

// Apply keeps the most recent turns that satisfy both limits. The input is not modified.
func (b HistoryBound) Apply(history []schema.Turn) []schema.Turn {
	turns := history
	if b.MaxTurns > 0 && len(turns) > b.MaxTurns {
		turns = turns[len(turns)-b.MaxTurns:]
	}
	if b.MaxTokens > 0 {
		counter := b.Counter
		if counter == nil {
			counter = WordCounter{}
		}
		for len(turns) > 0 && counter.Count(RenderHistory(turns)) > b.MaxTokens {
			turns = turns[1:]
		}
	}
	if dropped := len(history) - len(turns); dropped > 0 {
		logger.Debugf("answer: dropped %d of %d history turns", dropped, len(history))
	}
	return append([]schema.Turn(nil), turns...)
}

const noHistory = "(no prior conversation)"

// RenderHistory formats turns one per line as "User: ..." / "Assistant: ...".
func RenderHistory(turns []schema.Turn) string {
	if len(turns) == 0 {
		return noHistory
	}
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(roleLabel(t.Role))
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(t.Content))
	}
	return sb.String()
}

func roleLabel(role string) string {
	switch strings.ToLower(role) {
	case schema.RoleAssistant, "ai", "bot":
		return "Assistant"
	case schema.RoleUser, "human", "":
		return "User"
	default:
		return strings.ToUpper(role[:1]) + role[1:]
	}
}
