// Package forms is the form collaborator: it resolves declared action
// names to HTTP endpoints, collects field values, validates them against
// declarative attribute rules, submits, and broadcasts the outcome to
// subscribers.
package forms

import (
	"net/http"
	"strings"
)

// Endpoint pairs an HTTP method with a backend path.
type Endpoint struct {
	Method string
	Path   string
}

// ActionTable resolves form action names to endpoints. Unknown actions
// fall back to the POST /v1/<action> convention.
type ActionTable map[string]Endpoint

// DefaultActions covers the product's built-in form actions.
var DefaultActions = ActionTable{
	"create-job":           {Method: http.MethodPost, Path: "/v1/jobs"},
	"cancel-job":           {Method: http.MethodDelete, Path: "/v1/jobs"},
	"invite-user":          {Method: http.MethodPost, Path: "/v1/invitations"},
	"update-notifications": {Method: http.MethodPatch, Path: "/v1/notifications"},
}

// Resolve returns the endpoint for an action, applying the fallback
// convention when the table has no entry.
func (t ActionTable) Resolve(action string) Endpoint {
	action = strings.TrimSpace(action)
	if endpoint, ok := t[action]; ok {
		return endpoint
	}
	return Endpoint{Method: http.MethodPost, Path: "/v1/" + action}
}

// Merge returns a copy of t with the entries of other applied on top.
func (t ActionTable) Merge(other ActionTable) ActionTable {
	out := make(ActionTable, len(t)+len(other))
	for action, endpoint := range t {
		out[action] = endpoint
	}
	for action, endpoint := range other {
		out[action] = endpoint
	}
	return out
}
