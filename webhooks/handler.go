package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const RequestIDHeader = "X-Request-Id"

type BatchProcessor interface {
	Process(ctx context.Context, req core.InboundRequest) (core.Acknowledgment, error)
}

// Handler exposes a BatchProcessor as the FastSpring webhook endpoint.
type Handler struct {
	Processor    BatchProcessor
	ProviderID   string
	MaxBodyBytes int64
	Observer     core.Observer
}

func NewHandler(processor BatchProcessor, maxBodyBytes int64) *Handler {
	return &Handler{
		Processor:    processor,
		ProviderID:   core.ProviderFastSpring,
		MaxBodyBytes: maxBodyBytes,
	}
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code     int    `json:"code"`
	TextCode string `json:"text_code"`
	Message  string `json:"message"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, core.BadInputError("webhooks: method not allowed", nil), http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.Processor == nil {
		h.writeError(w, core.InternalError("webhooks: handler requires a processor", nil), 0)
		return
	}

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = core.DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, core.BadInputError("webhooks: body exceeds limit", map[string]any{"limit": limit}), http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, core.WrapBadInput(err, "webhooks: read body", nil), 0)
		return
	}

	requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ack, err := h.Processor.Process(r.Context(), core.InboundRequest{
		ProviderID: h.providerID(),
		RequestID:  requestID,
		Headers:    flattenHeaders(r.Header),
		Body:       body,
		ReceivedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"remote_addr": r.RemoteAddr,
			"path":        r.URL.Path,
		},
	})
	if err != nil {
		h.writeError(w, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(RequestIDHeader, requestID)
	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, ack.Body())
}

func (h *Handler) writeError(w http.ResponseWriter, err error, status int) {
	mapped := core.MapError(err)
	if status == 0 {
		status = mapped.Code
	}
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	if h != nil {
		h.Observer.Warn(context.Background(), "webhook request failed", core.ErrorFields(err, map[string]any{"status": status}))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{
		Code:     status,
		TextCode: mapped.TextCode,
		Message:  mapped.Message,
	}})
}

func (h *Handler) providerID() string {
	if id := strings.TrimSpace(h.ProviderID); id != "" {
		return id
	}
	return core.ProviderFastSpring
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			continue
		}
		out[key] = values[0]
	}
	return out
}
