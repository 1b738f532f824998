// Package binder scans parsed HTML for declarative marker attributes,
// indexes them into a path → descriptor registry, and applies data updates:
// text content, style properties, attributes, repeated template instances,
// and auth-conditional visibility.
package binder
