package binder

import "strings"

// Marker attribute vocabulary. Every concept accepts two spellings: the
// original verbose data-bb-* form and the short bb-* form. Both resolve to
// identical semantics; when one element carries both for the same concept
// the short form wins.
const (
	attrBindVerbose      = "data-bb-bind"
	attrBindShort        = "bb-text"
	attrStyleVerbose     = "data-bb-bind-style"
	attrStylePrefixShort = "bb-style:"
	attrAttrVerbose      = "data-bb-bind-attr"
	attrAttrPrefixShort  = "bb-attr:"
	attrTemplateVerbose  = "data-bb-template"
	attrTemplateShort    = "bb-template"
	attrAuthVerbose      = "data-bb-auth"
	attrAuthShort        = "bb-auth"
	attrFormVerbose      = "data-bb-form"
	attrFormShort        = "bb-form"

	attrInstance      = "bb-instance"
	attrInstanceIndex = "bb-instance-index"
)

// Kind identifies the DOM effect a binding descriptor performs.
type Kind string

const (
	// KindText replaces an element's text content with the resolved value.
	KindText Kind = "text"
	// KindStyle writes an interpolated template into one style property.
	KindStyle Kind = "style"
	// KindAttr writes an interpolated template into one attribute.
	KindAttr Kind = "attribute"
)

// markerSpec describes one exact-name marker attribute: its binding kind
// and how to split the attribute value into (name, template). Text markers
// have no name component; their value is the bare path.
type markerSpec struct {
	kind  Kind
	short bool
	// fixedName pins the target attribute for the shorthand family
	// (bb-class, bb-href, ...). Empty means the value carries a
	// name:template pair, or for text markers the path itself.
	fixedName string
}

// markerTable maps exact attribute names to their binding kind. Shorthand
// attribute markers bind a fixed attribute name directly to a template.
var markerTable = map[string]markerSpec{
	attrBindVerbose:  {kind: KindText},
	attrBindShort:    {kind: KindText, short: true},
	attrStyleVerbose: {kind: KindStyle},
	attrAttrVerbose:  {kind: KindAttr},

	"bb-class":       {kind: KindAttr, short: true, fixedName: "class"},
	"bb-href":        {kind: KindAttr, short: true, fixedName: "href"},
	"bb-src":         {kind: KindAttr, short: true, fixedName: "src"},
	"bb-alt":         {kind: KindAttr, short: true, fixedName: "alt"},
	"bb-title":       {kind: KindAttr, short: true, fixedName: "title"},
	"bb-placeholder": {kind: KindAttr, short: true, fixedName: "placeholder"},
	"bb-value":       {kind: KindAttr, short: true, fixedName: "value"},
}

// markerPrefixes handles the two attribute-name families whose target name
// rides inside the attribute name itself: bb-style:width="w:{x}%" and
// bb-attr:aria-label="{msg}". Both are short-form spellings.
var markerPrefixes = []struct {
	prefix string
	kind   Kind
}{
	{attrStylePrefixShort, KindStyle},
	{attrAttrPrefixShort, KindAttr},
}

// splitNameTemplate splits a verbose "name:template" marker value. The
// template may itself contain colons (url schemes, style values), so only
// the first separator counts. Returns ok=false when the separator is
// missing or the name side is empty; such markers are skipped.
func splitNameTemplate(value string) (name, template string, ok bool) {
	idx := strings.IndexByte(value, ':')
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(value[:idx])
	template = value[idx+1:]
	if name == "" {
		return "", "", false
	}
	return name, template, true
}

// templateName returns the stencil name on an element, preferring the
// short spelling when both are present.
func templateName(attrs map[string]string) (string, bool) {
	if name, ok := attrs[attrTemplateShort]; ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name), true
	}
	if name, ok := attrs[attrTemplateVerbose]; ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name), true
	}
	return "", false
}

// authMode returns the auth-conditional mode on an element, short spelling
// first. Only "required" and "guest" are recognised.
func authMode(attrs map[string]string) (string, bool) {
	for _, key := range []string{attrAuthShort, attrAuthVerbose} {
		mode := strings.TrimSpace(attrs[key])
		if mode == "required" || mode == "guest" {
			return mode, true
		}
	}
	return "", false
}

// formAction returns the form action name on an element, short spelling
// first.
func formAction(attrs map[string]string) (string, bool) {
	for _, key := range []string{attrFormShort, attrFormVerbose} {
		if action := strings.TrimSpace(attrs[key]); action != "" {
			return action, true
		}
	}
	return "", false
}
