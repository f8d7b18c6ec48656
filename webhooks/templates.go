package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const (
	EncodingBase64 = "base64"
	EncodingHex    = "hex"
)

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

// VerifierFunc adapts a function into a Verifier.
type VerifierFunc func(ctx context.Context, req core.InboundRequest) error

func (f VerifierFunc) Verify(ctx context.Context, req core.InboundRequest) error {
	return f(ctx, req)
}

type ProviderWebhookTemplate struct {
	ProviderID string
	Verifier   Verifier
}

// HMACVerifier checks an HMAC-SHA256 digest of the raw body against a header.
// An empty Secret disables verification.
type HMACVerifier struct {
	Header   string
	Secret   string
	Encoding string // base64 | hex
}

func (v HMACVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	if v.Secret == "" {
		return nil
	}
	header := strings.TrimSpace(v.Header)
	if header == "" {
		header = core.DefaultSignatureHeader
	}
	provided := headerValue(req.Headers, header)
	if provided == "" {
		return core.IntegrityViolation(
			"webhooks: "+header+" signature header is required",
			map[string]any{"header": header},
		)
	}
	expected := Sign(v.Secret, req.Body, v.Encoding)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return core.IntegrityViolation(
			"webhooks: signature verification failed",
			map[string]any{"header": header},
		)
	}
	return nil
}

// Sign computes the HMAC-SHA256 signature of body in the given encoding.
// Base64 is used unless hex is requested.
func Sign(secret string, body []byte, encoding string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	digest := mac.Sum(nil)
	if strings.EqualFold(strings.TrimSpace(encoding), EncodingHex) {
		return hex.EncodeToString(digest)
	}
	return base64.StdEncoding.EncodeToString(digest)
}

func NewFastSpringTemplate(secret string) ProviderWebhookTemplate {
	return ProviderWebhookTemplate{
		ProviderID: core.ProviderFastSpring,
		Verifier: HMACVerifier{
			Header:   core.DefaultSignatureHeader,
			Secret:   secret,
			Encoding: EncodingBase64,
		},
	}
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return value
		}
	}
	return ""
}
