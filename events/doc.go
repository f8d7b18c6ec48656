// Package events provides the publishers the webhook pipeline dispatches to:
// an in-memory Bus keyed by notification kind, a CommandBus backed by the
// go-command dispatcher, and a Recorder for diagnostics.
package events
