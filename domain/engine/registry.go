package engine

import "fmt"

// Registry is a process-wide, immutable mapping from template id to its
// implementation. It is populated once at startup; there is no dynamic
// registration from untrusted input (spec §4.2).
type Registry struct {
	templates map[string]Template
}

// NewRegistry builds an immutable registry from the given templates. Panics
// on a duplicate template id, which is a startup-time programming error, not
// a runtime condition callers need to handle.
func NewRegistry(templates ...Template) *Registry {
	m := make(map[string]Template, len(templates))
	for _, t := range templates {
		id := t.TemplateID()
		if _, exists := m[id]; exists {
			panic(fmt.Sprintf("engine: duplicate template id %q", id))
		}
		m[id] = t
	}
	return &Registry{templates: m}
}

// Lookup resolves a template id. The second return value is false if the id
// is unknown (spec: NOT_FOUND).
func (r *Registry) Lookup(templateID string) (Template, bool) {
	t, ok := r.templates[templateID]
	return t, ok
}

// IDs returns every registered template id, for diagnostics/listing.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	return ids
}
