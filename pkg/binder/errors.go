package binder

import "fmt"

// TemplateNotFoundError reports a render call against a template name no
// scan ever registered. Callers log it and move on; it is never fatal.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("binder: template %q not registered", e.Name)
}
