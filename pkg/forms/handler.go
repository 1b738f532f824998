package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-databind/pkg/fetch"
)

// Handler wires the pieces of a form submission: validate, collect,
// resolve the action, send, notify.
type Handler struct {
	client     *fetch.Client
	actions    ActionTable
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithActions overlays custom action mappings on the defaults.
func WithActions(actions ActionTable) HandlerOption {
	return func(h *Handler) {
		h.actions = h.actions.Merge(actions)
	}
}

// WithDispatcher shares an existing dispatcher so multiple handlers feed
// one subscriber set.
func WithDispatcher(dispatcher *Dispatcher) HandlerOption {
	return func(h *Handler) {
		if dispatcher != nil {
			h.dispatcher = dispatcher
		}
	}
}

// WithLogger injects a zerolog logger.
func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler builds a Handler submitting through the given client.
func NewHandler(client *fetch.Client, options ...HandlerOption) *Handler {
	h := &Handler{
		client:     client,
		actions:    DefaultActions.Merge(nil),
		dispatcher: NewDispatcher(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h
}

// Dispatcher exposes the handler's event dispatcher for subscriptions.
func (h *Handler) Dispatcher() *Dispatcher {
	return h.dispatcher
}

// Submit validates and submits one form. Validation failures render
// inline, dispatch an error event, and return a *ValidationError without
// touching the network. HTTP failures dispatch an error event carrying the
// status code. Success dispatches a success event.
func (h *Handler) Submit(ctx context.Context, form *goquery.Selection, action string) error {
	if fieldErrs := Validate(form); len(fieldErrs) > 0 {
		RenderErrors(form, fieldErrs)
		h.dispatcher.Dispatch(Event{
			Action:  action,
			Kind:    EventError,
			Message: "validation failed",
			Fields:  fieldErrs,
		})
		return &ValidationError{Fields: fieldErrs}
	}
	RenderErrors(form, nil)

	endpoint := h.actions.Resolve(action)
	body, err := encodeBody(Collect(form))
	if err != nil {
		return fmt.Errorf("forms: encode %q payload: %w", action, err)
	}

	h.logger.Debug().Str("action", action).Str("method", endpoint.Method).Str("path", endpoint.Path).Msg("submitting form")

	if _, err := h.client.Do(ctx, endpoint.Method, endpoint.Path, bytes.NewReader(body)); err != nil {
		event := Event{Action: action, Kind: EventError, Message: err.Error()}
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) {
			event.Status = statusErr.Code
			event.Message = statusErr.Message
		}
		h.dispatcher.Dispatch(event)
		return fmt.Errorf("forms: submit %q: %w", action, err)
	}

	h.dispatcher.Dispatch(Event{Action: action, Kind: EventSuccess, Message: "ok"})
	return nil
}

// encodeBody turns collected values into a JSON object. Single values
// encode as scalars, repeated names as arrays.
func encodeBody(values url.Values) ([]byte, error) {
	payload := make(map[string]any, len(values))
	for name, entries := range values {
		if len(entries) == 1 {
			payload[name] = entries[0]
			continue
		}
		payload[name] = entries
	}
	return json.Marshal(payload)
}
