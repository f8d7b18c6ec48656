// Package fastspring is a small client for the FastSpring sessions and
// accounts endpoints.
package fastspring
