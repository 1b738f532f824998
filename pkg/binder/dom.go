package binder

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Small node-level helpers over x/net/html. goquery drives document-wide
// queries; these cover the targeted mutations goquery selections do not
// expose directly.

func attrMap(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		attrs[a.Key] = a.Val
	}
	return attrs
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// setTextContent replaces every child of n with a single text node.
func setTextContent(n *html.Node, text string) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		n.RemoveChild(child)
		child = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// styleSet writes one property into the element's inline style attribute,
// preserving declaration order and replacing an existing declaration for
// the same property.
func styleSet(n *html.Node, property, value string) {
	raw, _ := getAttr(n, "style")
	decls := parseStyle(raw)

	replaced := false
	for i := range decls {
		if decls[i][0] == property {
			decls[i][1] = value
			replaced = true
			break
		}
	}
	if !replaced {
		decls = append(decls, [2]string{property, value})
	}
	setAttr(n, "style", serializeStyle(decls))
}

// styleGet returns the value of one inline style property.
func styleGet(n *html.Node, property string) (string, bool) {
	raw, ok := getAttr(n, "style")
	if !ok {
		return "", false
	}
	for _, decl := range parseStyle(raw) {
		if decl[0] == property {
			return decl[1], true
		}
	}
	return "", false
}

// styleRemove drops one property from the inline style attribute, removing
// the attribute entirely when no declarations remain.
func styleRemove(n *html.Node, property string) {
	raw, ok := getAttr(n, "style")
	if !ok {
		return
	}
	decls := parseStyle(raw)
	kept := decls[:0]
	for _, decl := range decls {
		if decl[0] != property {
			kept = append(kept, decl)
		}
	}
	if len(kept) == 0 {
		removeAttr(n, "style")
		return
	}
	setAttr(n, "style", serializeStyle(kept))
}

func parseStyle(raw string) [][2]string {
	var decls [][2]string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.IndexByte(part, ':')
		if idx <= 0 {
			continue
		}
		property := strings.TrimSpace(part[:idx])
		value := strings.TrimSpace(part[idx+1:])
		if property == "" {
			continue
		}
		decls = append(decls, [2]string{property, value})
	}
	return decls
}

func serializeStyle(decls [][2]string) string {
	parts := make([]string, 0, len(decls))
	for _, decl := range decls {
		parts = append(parts, decl[0]+": "+decl[1])
	}
	return strings.Join(parts, "; ")
}

// renderNode serialises a node subtree back to HTML.
func renderNode(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// parseFragment parses markup in the context of the given parent element
// and returns the first element node of the fragment.
func parseFragment(markup string, parent *html.Node) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if parent != nil && parent.Type == html.ElementNode {
		// A detached context with the parent's tag keeps table-scoped
		// elements (tr, td, option) parsing correctly.
		context = &html.Node{Type: html.ElementNode, Data: parent.Data, DataAtom: parent.DataAtom}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, nil
}
