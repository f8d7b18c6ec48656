// Package audit holds write-only sinks for raw webhook bodies.
package audit
