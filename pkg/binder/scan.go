package binder

import (
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/goliatone/go-databind/pkg/datapath"
)

// Scan rebuilds the binding registry from the current document. The
// registry is replaced wholesale, never merged, so scanning twice registers
// each element exactly once per binding kind. Stencil subtrees and rendered
// instances are skipped: their bindings are wired per instance at render
// time, not discovered retroactively.
func (b *Binder) Scan() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bindings = newRegistry()
	b.auth = nil
	b.forms = nil

	for _, root := range b.doc.Nodes {
		b.scanNode(root)
	}

	b.logger.Debug().
		Int("descriptors", b.bindings.size()).
		Int("templates", len(b.templates)).
		Int("auth_markers", len(b.auth)).
		Int("form_markers", len(b.forms)).
		Msg("scan complete")
	return nil
}

func (b *Binder) scanNode(n *html.Node) {
	if n.Type == html.ElementNode {
		attrs := attrMap(n)

		// Generated instances bound at render time; never re-registered.
		if _, isInstance := attrs[attrInstance]; isInstance {
			return
		}

		if name, ok := templateName(attrs); ok {
			b.registerTemplateLocked(name, n)
			return
		}

		for _, d := range collectDescriptors(n, attrs, b.logger) {
			b.bindings.add(d)
		}
		if mode, ok := authMode(attrs); ok {
			b.auth = append(b.auth, &authBinding{node: n, mode: mode})
		}
		if action, ok := formAction(attrs); ok {
			b.forms = append(b.forms, FormBinding{Element: n, Action: action})
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.scanNode(child)
	}
}

// collectDescriptors reads every binding marker on one element and returns
// its descriptors. Short spellings take precedence over verbose ones for
// the same concept, and duplicate (kind, target) pairs collapse to a single
// registration. Malformed name:template values skip the marker, logged at
// debug only.
func collectDescriptors(n *html.Node, attrs map[string]string, logger zerolog.Logger) []*Descriptor {
	var out []*Descriptor

	// Text: the attribute value is the bare path, no braces.
	if path, ok := textPath(attrs); ok {
		out = append(out, &Descriptor{Element: n, Kind: KindText, Path: path})
	}

	// Style and attribute targets, keyed by property/attribute name so
	// verbose and short spellings of the same target never both register.
	type target struct {
		template string
		short    bool
	}
	styles := make(map[string]target)
	attrsOut := make(map[string]target)
	var styleOrder, attrOrder []string

	record := func(dest map[string]target, order *[]string, name, template string, short bool) {
		existing, exists := dest[name]
		if exists && existing.short && !short {
			return
		}
		if !exists {
			*order = append(*order, name)
		}
		dest[name] = target{template: template, short: short}
	}

	if raw, ok := attrs[attrStyleVerbose]; ok {
		if name, template, ok := splitNameTemplate(raw); ok {
			record(styles, &styleOrder, name, template, false)
		} else {
			logger.Debug().Str("marker", attrStyleVerbose).Str("value", raw).Msg("malformed style marker skipped")
		}
	}
	if raw, ok := attrs[attrAttrVerbose]; ok {
		if name, template, ok := splitNameTemplate(raw); ok {
			record(attrsOut, &attrOrder, name, template, false)
		} else {
			logger.Debug().Str("marker", attrAttrVerbose).Str("value", raw).Msg("malformed attribute marker skipped")
		}
	}

	// Walk the attribute slice rather than the map so registration order
	// follows document attribute order.
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		key, value := a.Key, a.Val
		if spec, ok := markerTable[key]; ok && spec.fixedName != "" {
			record(attrsOut, &attrOrder, spec.fixedName, value, spec.short)
			continue
		}
		for _, family := range markerPrefixes {
			if !strings.HasPrefix(key, family.prefix) {
				continue
			}
			name := strings.TrimSpace(key[len(family.prefix):])
			if name == "" {
				logger.Debug().Str("marker", key).Msg("marker missing target name skipped")
				break
			}
			switch family.kind {
			case KindStyle:
				record(styles, &styleOrder, name, value, true)
			case KindAttr:
				record(attrsOut, &attrOrder, name, value, true)
			}
			break
		}
	}

	// One descriptor per distinct placeholder path, all sharing the full
	// template so any path change re-runs the whole interpolation.
	for _, name := range styleOrder {
		t := styles[name]
		for _, path := range datapath.Placeholders(t.template) {
			out = append(out, &Descriptor{Element: n, Kind: KindStyle, Path: path, Template: t.template, Name: name})
		}
	}
	for _, name := range attrOrder {
		t := attrsOut[name]
		for _, path := range datapath.Placeholders(t.template) {
			out = append(out, &Descriptor{Element: n, Kind: KindAttr, Path: path, Template: t.template, Name: name})
		}
	}

	return out
}

func textPath(attrs map[string]string) (string, bool) {
	if path := strings.TrimSpace(attrs[attrBindShort]); path != "" {
		return path, true
	}
	if path := strings.TrimSpace(attrs[attrBindVerbose]); path != "" {
		return path, true
	}
	return "", false
}
