// Package webhooks verifies, classifies and dispatches FastSpring webhook
// batches.
//
// A batch moves through verifying -> iterating -> done within one request.
// Verification and envelope decoding are batch fatal. Every other failure is
// local to its event, which is then left out of the acknowledgment.
package webhooks
