package binder

import (
	"strconv"

	"golang.org/x/net/html"
)

// TemplateRecord captures a stencil element: its serialised markup, taken
// once at registration and immutable afterwards, and the parent node new
// instances are appended under.
type TemplateRecord struct {
	Name           string
	OriginalMarkup string

	parent *html.Node
}

// registerTemplateLocked captures a stencil the scan found. The markup is
// captured before the stencil is hidden, so rendered instances never
// inherit the hiding style. Re-scans keep the first capture.
func (b *Binder) registerTemplateLocked(name string, n *html.Node) {
	if _, exists := b.templates[name]; exists {
		return
	}

	markup, err := renderNode(n)
	if err != nil {
		b.logger.Debug().Str("template", name).Err(err).Msg("stencil capture failed, skipping")
		return
	}

	b.templates[name] = &TemplateRecord{
		Name:           name,
		OriginalMarkup: markup,
		parent:         n.Parent,
	}
	b.tmplOrder = append(b.tmplOrder, name)

	// The stencil is a source of markup, never visible content.
	styleSet(n, "display", "none")
}

// Templates returns registered template names in registration order.
func (b *Binder) Templates() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.tmplOrder))
	copy(out, b.tmplOrder)
	return out
}

// Render replaces every rendered instance of the named template with one
// fresh subtree per item, appended in item order. Instances are identified
// by a generated-instance marker distinct from the stencil marker, so the
// stencil itself survives. An empty items slice removes all instances and
// adds none. Rendering twice with equal input yields the same DOM as
// rendering once.
//
// An unregistered name returns *TemplateNotFoundError; callers treat it as
// a logged no-op.
func (b *Binder) Render(name string, items []map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.templates[name]
	if !ok {
		b.logger.Debug().Str("template", name).Msg("render for unregistered template")
		return &TemplateNotFoundError{Name: name}
	}
	if rec.parent == nil {
		return nil
	}

	removeInstances(rec.parent, name)

	for i, item := range items {
		instance, err := parseFragment(rec.OriginalMarkup, rec.parent)
		if err != nil || instance == nil {
			b.logger.Debug().Str("template", name).Int("index", i).Err(err).Msg("instance parse failed, skipping item")
			continue
		}

		removeAttr(instance, attrTemplateVerbose)
		removeAttr(instance, attrTemplateShort)
		// Page authors may pre-hide the stencil in source markup; the
		// capture happens before the binder's own hiding, but an inline
		// display declaration rides along and must not leak into
		// instances.
		styleRemove(instance, "display")

		b.bindInstance(instance, item)

		setAttr(instance, attrInstance, name)
		setAttr(instance, attrInstanceIndex, strconv.Itoa(i))
		rec.parent.AppendChild(instance)
	}
	return nil
}

// removeInstances drops every direct child of parent tagged as a rendered
// instance of the named template.
func removeInstances(parent *html.Node, name string) {
	for child := parent.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode {
			if tag, ok := getAttr(child, attrInstance); ok && tag == name {
				parent.RemoveChild(child)
			}
		}
		child = next
	}
}

// bindInstance wires the markers inside one freshly created subtree against
// the item that produced it. Nested stencils and nested instances keep
// their own lifecycles and are skipped.
func (b *Binder) bindInstance(root *html.Node, item map[string]any) {
	reg := newRegistry()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := attrMap(n)
			if n != root {
				if _, isInstance := attrs[attrInstance]; isInstance {
					return
				}
				if _, isStencil := templateName(attrs); isStencil {
					return
				}
			}
			for _, d := range collectDescriptors(n, attrs, b.logger) {
				reg.add(d)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	b.applyRegistry(reg, item)
}
