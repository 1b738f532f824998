// Package databind keeps HTML documents synchronised with backend data.
// It scans a parsed document for declarative marker attributes, indexes
// them by dotted data path, and re-applies updates whenever new payloads
// arrive: text content, style properties, attributes, repeated template
// instances, and auth-conditional visibility.
package databind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-databind/pkg/binder"
	"github.com/goliatone/go-databind/pkg/fetch"
	"github.com/goliatone/go-databind/pkg/forms"
	"github.com/goliatone/go-databind/pkg/session"
)

// Descriptor aliases the registry's binding record, exported via the root
// package for convenience.
type Descriptor = binder.Descriptor

// TemplateNotFoundError aliases the typed render miss.
type TemplateNotFoundError = binder.TemplateNotFoundError

// changeNotifier is satisfied by sessions that announce auth state flips
// (session.TokenSession does).
type changeNotifier interface {
	OnChange(func(authenticated bool))
}

// Engine ties a Binder to its collaborators: the fetch client, the session
// and the form handler. One Engine owns one document; engines never share
// state.
type Engine struct {
	binder  *binder.Binder
	client  *fetch.Client
	session session.Session
	forms   *forms.Handler
	logger  zerolog.Logger

	refreshMu sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

// Option customises an Engine.
type Option func(*Engine, *engineConfig)

type engineConfig struct {
	binderOptions []binder.Option
	formOptions   []forms.HandlerOption
}

// WithClient attaches the fetch client LoadAndBind and form submissions
// use.
func WithClient(client *fetch.Client) Option {
	return func(e *Engine, _ *engineConfig) {
		e.client = client
	}
}

// WithSession attaches the session consulted by auto-refresh and the
// visibility hooks. Sessions that expose OnChange re-apply visibility on
// every auth state flip.
func WithSession(sess session.Session) Option {
	return func(e *Engine, _ *engineConfig) {
		e.session = sess
	}
}

// WithLogger injects a zerolog logger shared by the engine and its binder.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine, cfg *engineConfig) {
		e.logger = logger
		cfg.binderOptions = append(cfg.binderOptions, binder.WithLogger(logger))
		cfg.formOptions = append(cfg.formOptions, forms.WithLogger(logger))
	}
}

// WithSanitizer scrubs bound values through a bluemonday policy before
// they reach the document.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(_ *Engine, cfg *engineConfig) {
		cfg.binderOptions = append(cfg.binderOptions, binder.WithSanitizer(policy))
	}
}

// WithFormActions overlays custom form action routing on the defaults.
func WithFormActions(actions forms.ActionTable) Option {
	return func(_ *Engine, cfg *engineConfig) {
		cfg.formOptions = append(cfg.formOptions, forms.WithActions(actions))
	}
}

// New parses the document and runs the initial scan. The returned Engine
// is ready for Apply/LoadAndBind/Render calls.
func New(r io.Reader, options ...Option) (*Engine, error) {
	e := &Engine{logger: zerolog.Nop()}
	cfg := &engineConfig{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e, cfg)
	}

	b, err := binder.New(r, cfg.binderOptions...)
	if err != nil {
		return nil, err
	}
	e.binder = b

	if e.client == nil {
		e.client = fetch.NewClient("", fetch.WithSession(e.session))
	}
	e.forms = forms.NewHandler(e.client, cfg.formOptions...)

	if e.session != nil {
		e.binder.ApplyAuthState(e.session.IsAuthenticated())
		if notifier, ok := e.session.(changeNotifier); ok {
			notifier.OnChange(func(authenticated bool) {
				e.binder.ApplyAuthState(authenticated)
			})
		}
	}
	return e, nil
}

// Binder exposes the underlying binder for direct registry operations.
func (e *Engine) Binder() *binder.Binder {
	return e.binder
}

// Forms exposes the form handler, mainly for event subscriptions.
func (e *Engine) Forms() *forms.Handler {
	return e.forms
}

// Apply writes an already-combined data object through the registry.
func (e *Engine) Apply(data map[string]any) {
	e.binder.Apply(data)
}

// Render regenerates the instances of one template from items.
func (e *Engine) Render(name string, items []map[string]any) error {
	return e.binder.Render(name, items)
}

// HTML serialises the current document state.
func (e *Engine) HTML() (string, error) {
	return e.binder.HTML()
}

// LoadAndBind fetches every named endpoint concurrently, combines the
// payloads under their keys, and applies the result in one pass. Any
// single fetch failure abandons the whole cycle: nothing is applied and
// the error surfaces to the caller, who stays free to retry on the next
// tick.
func (e *Engine) LoadAndBind(ctx context.Context, endpointsByKey map[string]string) error {
	results, err := e.client.All(ctx, endpointsByKey)
	if err != nil {
		return fmt.Errorf("databind: load: %w", err)
	}

	combined := make(map[string]any, len(results))
	for key, payload := range results {
		combined[key] = payload
	}
	e.binder.Apply(combined)
	return nil
}

// BindTemplates renders every named template from its item list. A miss
// on one template never blocks the others; all failures come back joined.
func (e *Engine) BindTemplates(itemsByTemplateName map[string][]map[string]any) error {
	var errs []error
	for name, items := range itemsByTemplateName {
		if err := e.binder.Render(name, items); err != nil {
			e.logger.Debug().Str("template", name).Err(err).Msg("template render failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyAuthState toggles auth-conditional visibility.
func (e *Engine) ApplyAuthState(authenticated bool) {
	e.binder.ApplyAuthState(authenticated)
}

// SubmitForm submits the scanned form declaring the given action. The
// form's fields validate first; outcomes broadcast through the form
// handler's dispatcher.
func (e *Engine) SubmitForm(ctx context.Context, action string) error {
	for _, form := range e.binder.Forms() {
		if form.Action != action {
			continue
		}
		sel := goquery.NewDocumentFromNode(form.Element).Selection
		return e.forms.Submit(ctx, sel, action)
	}
	return fmt.Errorf("databind: no form declares action %q", action)
}

// AutoRefresh invokes fn at the fixed interval until StopRefresh. Starting
// while a timer is already running stops the previous one first, so timers
// never overlap. Ticks are skipped while the session reports
// unauthenticated; fn errors are logged and the loop keeps running.
func (e *Engine) AutoRefresh(interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 || fn == nil {
		return
	}

	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()
	e.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	e.stop = stop
	e.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if e.session != nil && !e.session.IsAuthenticated() {
					e.logger.Debug().Msg("refresh tick skipped: unauthenticated")
					continue
				}
				if err := fn(context.Background()); err != nil {
					e.logger.Debug().Err(err).Msg("refresh tick failed")
				}
			}
		}
	}()
}

// StopRefresh halts the auto-refresh timer. Calling it when no timer runs
// is a no-op.
func (e *Engine) StopRefresh() {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.stop == nil {
		return
	}
	close(e.stop)
	<-e.done
	e.stop = nil
	e.done = nil
}
