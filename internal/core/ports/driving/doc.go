// Package driving provides interfaces for application entry points (primary/inbound ports).
// The CLI and MCP adapters consume these; an HTTP layer would too.
package driving
