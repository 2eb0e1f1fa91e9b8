package retriever

import (
	"fmt"
	"strings"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// ToFragment converts a search hit, substituting sentinels for missing metadata.
func ToFragment(r schema.SearchResult) schema.Fragment {
	return schema.Fragment{
		Source:  metaOr(r.Document.Metadata, schema.MetaSource, schema.UnknownSource),
		Page:    metaOr(r.Document.Metadata, schema.MetaPage, schema.UnknownPage),
		Content: r.Document.Content,
		Score:   r.Score,
	}
}

func metaOr(m map[string]interface{}, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	return s
}

// FormatFragment renders one fragment as a citation block:
//
//	[SOURCE: <source> | PAGE: <page>]
//	CONTENT: <single-line text>
//
// The header is what the answer prompt tells the model to cite from.
func FormatFragment(f schema.Fragment) string {
	source, page := f.Source, f.Page
	if source == "" {
		source = schema.UnknownSource
	}
	if page == "" {
		page = schema.UnknownPage
	}
	return fmt.Sprintf("\n[SOURCE: %s | PAGE: %s]\nCONTENT: %s\n\n", source, page, strings.ReplaceAll(f.Content, "\n", " "))
}

// FormatContext concatenates fragments in retrieval order.
func FormatContext(frags []schema.Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(FormatFragment(f))
	}
	return b.String()
}
