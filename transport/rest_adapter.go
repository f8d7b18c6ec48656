package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const KindREST = "rest"

const (
	defaultRESTClientTimeout             = 30 * time.Second
	defaultRESTResponseBodyLimit   int64 = 10 << 20
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BasicAuth holds HTTP basic credentials applied to every request.
type BasicAuth struct {
	Username string
	Password string
}

func (b *BasicAuth) apply(req *http.Request) {
	if b == nil || (b.Username == "" && b.Password == "") {
		return
	}
	req.SetBasicAuth(b.Username, b.Password)
}

// RESTAdapter executes core.TransportRequest values over HTTP. Responses are
// returned whatever their status; only transport level failures are errors.
type RESTAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	BasicAuth            *BasicAuth
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	return &RESTAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
	}
}

func (*RESTAdapter) Kind() string {
	return KindREST
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, core.InternalError(
			"transport: rest adapter requires an http client",
			map[string]any{"adapter": KindREST},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := requestURL(req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	meta := map[string]any{"adapter": KindREST, "method": method, "url": target}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := a.newRequest(ctx, method, target, req)
	if err != nil {
		return core.TransportResponse{}, core.WrapBadInput(err, "transport: create http request", meta)
	}

	startedAt := time.Now().UTC()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, core.ProviderRequestFailure(err, "transport: execute http request", meta)
	}
	defer httpRes.Body.Close()

	meta["status_code"] = httpRes.StatusCode
	body, err := readLimited(httpRes.Body, a.responseLimit(req.MaxResponseBodyBytes))
	if err != nil {
		return core.TransportResponse{}, core.ProviderRequestFailure(err, err.Error(), meta)
	}

	meta["kind"] = KindREST
	meta["duration_ms"] = time.Since(startedAt).Milliseconds()
	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    headerMap(httpRes.Header),
		Body:       body,
		Metadata:   meta,
	}, nil
}

func (a *RESTAdapter) newRequest(ctx context.Context, method string, target string, req core.TransportRequest) (*http.Request, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	setHeaders(httpReq.Header, a.DefaultHeaders)
	setHeaders(httpReq.Header, req.Headers)
	a.BasicAuth.apply(httpReq)
	return httpReq, nil
}

func (a *RESTAdapter) responseLimit(requestLimit int64) int64 {
	switch {
	case requestLimit > 0:
		return requestLimit
	case a.MaxResponseBodyBytes > 0:
		return a.MaxResponseBodyBytes
	default:
		return defaultRESTResponseBodyLimit
	}
}

// requestURL validates req.URL and merges req.Query into it.
func requestURL(req core.TransportRequest) (string, error) {
	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return "", core.BadInputError("transport: request url is required", map[string]any{"adapter": KindREST})
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", core.WrapBadInput(err, "transport: invalid request url", map[string]any{"adapter": KindREST, "url": raw})
	}
	if len(req.Query) == 0 {
		return parsed.String(), nil
	}
	query := parsed.Query()
	for key, value := range req.Query {
		if key = strings.TrimSpace(key); key != "" {
			query.Set(key, strings.TrimSpace(value))
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func readLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("transport: read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("transport: response body exceeds limit of %d bytes", limit)
	}
	return data, nil
}

func setHeaders(target http.Header, values map[string]string) {
	for key, value := range values {
		if key = strings.TrimSpace(key); key != "" {
			target.Set(key, strings.TrimSpace(value))
		}
	}
}

func headerMap(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
