package router

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// ParseIntent reads a classification payload of the form {"intent": "<label>"}.
// TECHNICAL and SUBSTANTIVE map to substantive, GENERAL and CONVERSATIONAL to
// conversational. Anything else is a classification parse error.
func ParseIntent(payload string) (schema.Intent, error) {
	s := stripFence(strings.TrimSpace(payload))
	if s == "" {
		return "", parseError("empty payload")
	}
	if !gjson.Valid(s) {
		return "", parseError("payload is not valid JSON: %q", truncate(s, 80))
	}
	doc := gjson.Parse(s)
	if !doc.IsObject() {
		return "", parseError("payload is not a JSON object: %q", truncate(s, 80))
	}
	v := doc.Get("intent")
	if v.Type != gjson.String {
		return "", parseError("missing string field \"intent\"")
	}
	switch strings.ToUpper(strings.TrimSpace(v.Str)) {
	case "TECHNICAL", "SUBSTANTIVE":
		return schema.IntentSubstantive, nil
	case "GENERAL", "CONVERSATIONAL":
		return schema.IntentConversational, nil
	default:
		return "", parseError("unrecognized intent %q", v.Str)
	}
}

func parseError(format string, args ...interface{}) error {
	return schema.NewError("router.parse_intent", schema.KindClassificationParse, fmt.Errorf(format, args...))
}

// stripFence removes a surrounding markdown code fence, with or without a language tag.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
