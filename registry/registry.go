package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// Resolver maps a jurisdiction to the location of its pre-built index.
type Resolver interface {
	Resolve(jurisdiction string) (Entry, error)
	Jurisdictions() []string
}

// Entry is a resolved jurisdiction.
type Entry struct {
	Jurisdiction string // canonical name
	Location     string
}

// Registry is an immutable jurisdiction table. Lookups ignore case and surrounding space.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// defaultLocations are the indices shipped with the deployment.
var defaultLocations = map[string]string{
	"Central":       "unified_central_index",
	"Maharashtra":   "unified_marathi_index",
	"Karnataka":     "unified_Kannada_index",
	"Uttar Pradesh": "unified_up_index",
	"Uttarakhand":   "unified_uk_index",
	"Gujarat":       "unified_gujarat_index",
	"Jharkhand":     "unified_jha_index",
}

var defaultAliases = map[string]string{
	"Uttrakhand": "Uttarakhand",
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(defaultLocations)
	if err != nil {
		panic(err)
	}
	for alias, canonical := range defaultAliases {
		r.entries[key(alias)] = r.entries[key(canonical)]
	}
	return r
}

// New builds a registry from jurisdiction -> location pairs. Names that differ only in
// case or surrounding space are rejected, as are empty names and locations.
func New(locations map[string]string) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(locations))}
	for name, loc := range locations {
		name, loc = strings.TrimSpace(name), strings.TrimSpace(loc)
		if name == "" || loc == "" {
			return nil, schema.ConfigurationError("registry.new", name,
				fmt.Errorf("jurisdiction entries need a name and a location, got %q -> %q", name, loc))
		}
		if prev, ok := r.entries[key(name)]; ok {
			return nil, schema.ConfigurationError("registry.new", name,
				fmt.Errorf("jurisdiction %q collides with %q", name, prev.Jurisdiction))
		}
		r.entries[key(name)] = Entry{Jurisdiction: name, Location: loc}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// FromConfig returns the configured table, or the built-in one when none is configured.
func FromConfig(locations map[string]string) (*Registry, error) {
	if len(locations) == 0 {
		return Default(), nil
	}
	return New(locations)
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Resolve returns the entry for jurisdiction or a configuration error.
func (r *Registry) Resolve(jurisdiction string) (Entry, error) {
	e, ok := r.entries[key(jurisdiction)]
	if !ok || e.Location == "" {
		return Entry{}, schema.ConfigurationError("registry.resolve", jurisdiction,
			fmt.Errorf("%w %q (known: %s)", schema.ErrUnknownJurisdiction, jurisdiction, strings.Join(r.names, ", ")))
	}
	return e, nil
}

// Jurisdictions lists canonical names in sorted order.
func (r *Registry) Jurisdictions() []string {
	return append([]string(nil), r.names...)
}
