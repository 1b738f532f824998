package binder

import (
	"golang.org/x/net/html"
)

// Descriptor records one element's interest in one data path for one kind
// of DOM effect. The element reference is exclusively owned by the registry
// entry; descriptors are never copied between registries.
type Descriptor struct {
	// Element is the DOM node the binding mutates.
	Element *html.Node

	// Kind selects the effect: text content, style property, or attribute.
	Kind Kind

	// Path is the dotted data path the descriptor subscribes to.
	Path string

	// Template carries the raw placeholder-bearing string for style and
	// attribute bindings. Empty for text bindings.
	Template string

	// Name is the style property or attribute name the template writes
	// into. Empty for text bindings.
	Name string
}

// registry maps data paths to the ordered descriptors subscribed to them.
// Key order is first-registration order. A registry is built fresh on each
// scan and never merged across scans, which keeps rescans idempotent.
type registry struct {
	byPath map[string][]*Descriptor
	order  []string
}

func newRegistry() *registry {
	return &registry{byPath: make(map[string][]*Descriptor)}
}

func (r *registry) add(d *Descriptor) {
	if _, exists := r.byPath[d.Path]; !exists {
		r.order = append(r.order, d.Path)
	}
	r.byPath[d.Path] = append(r.byPath[d.Path], d)
}

// paths returns registered paths in first-registration order.
func (r *registry) paths() []string {
	return r.order
}

func (r *registry) descriptors(path string) []*Descriptor {
	return r.byPath[path]
}

func (r *registry) size() int {
	total := 0
	for _, descriptors := range r.byPath {
		total += len(descriptors)
	}
	return total
}
