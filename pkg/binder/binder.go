package binder

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Binder owns the parsed document, the binding registry built from it, and
// the captured template records. All state is per-instance; multiple
// binders over different documents never interfere.
type Binder struct {
	mu sync.Mutex

	doc       *goquery.Document
	bindings  *registry
	templates map[string]*TemplateRecord
	tmplOrder []string
	auth      []*authBinding
	forms     []FormBinding

	logger    zerolog.Logger
	sanitizer *bluemonday.Policy
}

// Option customises a Binder.
type Option func(*Binder)

// WithLogger injects a zerolog logger for debug diagnostics (skipped
// malformed markers, template misses). The default logger discards
// everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// WithSanitizer scrubs every bound value through the policy before it is
// written into the document. Useful when payloads may carry user-authored
// markup. Nil disables sanitisation (the default).
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(b *Binder) {
		b.sanitizer = policy
	}
}

// New parses an HTML document and runs the initial scan: binding markers
// are registered and template stencils captured and hidden.
func New(r io.Reader, options ...Option) (*Binder, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("binder: parse document: %w", err)
	}

	b := &Binder{
		doc:       doc,
		bindings:  newRegistry(),
		templates: make(map[string]*TemplateRecord),
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}

	if err := b.Scan(); err != nil {
		return nil, err
	}
	return b, nil
}

// Document exposes the underlying goquery document for read-side queries.
// Mutation stays with the binder.
func (b *Binder) Document() *goquery.Document {
	return b.doc
}

// Forms returns the form markers located during the last scan, in document
// order. The binder locates them; evaluating actions belongs to the forms
// package.
func (b *Binder) Forms() []FormBinding {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]FormBinding, len(b.forms))
	copy(out, b.forms)
	return out
}

// HTML serialises the current state of the document.
func (b *Binder) HTML() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	for _, n := range b.doc.Nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("binder: render document: %w", err)
		}
	}
	return sb.String(), nil
}

// clean passes a value through the configured sanitiser, if any.
func (b *Binder) clean(value string) string {
	if b.sanitizer == nil {
		return value
	}
	return b.sanitizer.Sanitize(value)
}

// FormBinding names a form element's submission action, as located by the
// scan.
type FormBinding struct {
	Element *html.Node
	Action  string
}
