package binder

import "golang.org/x/net/html"

// authBinding ties one element to an auth-conditional mode: "required"
// elements show only to authenticated sessions, "guest" elements only to
// unauthenticated ones.
type authBinding struct {
	node *html.Node
	mode string
}

// ApplyAuthState toggles visibility of every auth-conditional element for
// the given authentication state. Hiding uses the boolean hidden attribute
// so an element's inline style survives round trips.
func (b *Binder) ApplyAuthState(authenticated bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, binding := range b.auth {
		visible := binding.mode == "required" && authenticated ||
			binding.mode == "guest" && !authenticated
		if visible {
			removeAttr(binding.node, "hidden")
		} else {
			setAttr(binding.node, "hidden", "")
		}
	}
}
