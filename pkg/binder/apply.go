package binder

import (
	"github.com/goliatone/go-databind/pkg/datapath"
)

// Apply walks the binding registry and writes data into the document. Each
// registered path resolves once; every descriptor under it is applied
// independently, so one bad template never aborts the rest of the pass.
//
// Text bindings are sticky: an unresolved path leaves the element's
// existing content untouched rather than blanking it. Style and attribute
// bindings skip assignment while their interpolated template still carries
// an unresolved placeholder, treating the value as not ready yet.
func (b *Binder) Apply(data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applyRegistry(b.bindings, data)
}

func (b *Binder) applyRegistry(reg *registry, data map[string]any) {
	for _, path := range reg.paths() {
		value, resolved := datapath.Resolve(data, path)
		for _, d := range reg.descriptors(path) {
			b.applyDescriptor(d, value, resolved, data)
		}
	}
}

func (b *Binder) applyDescriptor(d *Descriptor, value any, resolved bool, data map[string]any) {
	switch d.Kind {
	case KindText:
		if !resolved {
			b.logger.Debug().Str("path", d.Path).Msg("text binding unresolved, keeping existing content")
			return
		}
		setTextContent(d.Element, b.clean(datapath.FormatValue(value)))

	case KindStyle:
		out := datapath.Interpolate(d.Template, data)
		if datapath.HasPlaceholder(out) {
			b.logger.Debug().Str("path", d.Path).Str("template", d.Template).Msg("style binding not ready, skipping")
			return
		}
		styleSet(d.Element, d.Name, out)

	case KindAttr:
		out := datapath.Interpolate(d.Template, data)
		if datapath.HasPlaceholder(out) {
			b.logger.Debug().Str("path", d.Path).Str("template", d.Template).Msg("attribute binding not ready, skipping")
			return
		}
		setAttr(d.Element, d.Name, b.clean(out))
	}
}
