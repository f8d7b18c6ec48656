package fastspring

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-cashier-fastspring/core"
)

type apiStub struct {
	t        *testing.T
	requests []*http.Request
	bodies   []map[string]any
	handle   func(w http.ResponseWriter, r *http.Request)
}

func newAPIStub(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*apiStub, *Client) {
	t.Helper()
	stub := &apiStub{t: t, handle: handle}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		decoded := map[string]any{}
		if len(body) > 0 {
			_ = json.Unmarshal(body, &decoded)
		}
		stub.requests = append(stub.requests, r)
		stub.bodies = append(stub.bodies, decoded)
		stub.handle(w, r)
	}))
	t.Cleanup(server.Close)
	client := NewClient(core.FastSpringConfig{
		APIURL:   server.URL + "/",
		Username: "api-user",
		Password: "api-pass",
		Timeout:  5 * time.Second,
	}, server.Client())
	return stub, client
}

func TestClient_CreateSession(t *testing.T) {
	stub, client := newAPIStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PathSessions {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "api-user" || pass != "api-pass" {
			t.Fatalf("expected basic auth")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sess_1","currency":"USD","account":"acc_1","items":[{"product":"pro","quantity":2}],"subtotal":20}`))
	})

	session, err := client.CreateSession(context.Background(), map[string]any{
		"account": "acc_1",
		"items":   []any{map[string]any{"product": "pro", "quantity": 2}},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != "sess_1" || session.Account != "acc_1" || len(session.Items) != 1 || session.Items[0].Quantity != 2 {
		t.Fatalf("unexpected session %#v", session)
	}
	if session.Raw["currency"] != "USD" {
		t.Fatalf("expected raw session payload, got %#v", session.Raw)
	}
	if stub.bodies[0]["account"] != "acc_1" {
		t.Fatalf("expected payload forwarded, got %#v", stub.bodies[0])
	}
	if stub.requests[0].Header.Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type")
	}
}

func TestClient_CreateAccount(t *testing.T) {
	stub, client := newAPIStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PathAccounts {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"account":"acc_new","action":"account.create","result":"success"}`))
	})

	account, err := client.CreateAccount(context.Background(), core.Contact{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if account.AccountID() != "acc_new" {
		t.Fatalf("unexpected account %#v", account)
	}
	contact, ok := stub.bodies[0]["contact"].(map[string]any)
	if !ok || contact["email"] != "ada@example.com" || contact["first"] != "Ada" || contact["last"] != "Lovelace" {
		t.Fatalf("unexpected contact payload %#v", stub.bodies[0])
	}
}

func TestClient_CreateAccountDuplicateEmail(t *testing.T) {
	_, client := newAPIStub(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"action":"account.create","result":"error","error":{"email":"email is already in use"}}`))
	})

	_, err := client.CreateAccount(context.Background(), core.Contact{Email: "ada@example.com"})
	if err == nil {
		t.Fatalf("expected api error")
	}
	if !core.HasTextCode(err, core.ErrorProviderRequestFailed) {
		t.Fatalf("expected provider failure code, got %v", err)
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected api error in chain, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if !IsDuplicateEmail(err) {
		t.Fatalf("expected duplicate email detection")
	}
}

func TestClient_OtherAPIErrorsAreNotDuplicates(t *testing.T) {
	_, client := newAPIStub(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"credentials":"invalid"}}`))
	})
	_, err := client.CreateAccount(context.Background(), core.Contact{Email: "ada@example.com"})
	if err == nil || IsDuplicateEmail(err) {
		t.Fatalf("expected non-duplicate api error, got %v", err)
	}
}

func TestClient_ServerErrorWithEmailFieldIsNotDuplicate(t *testing.T) {
	_, client := newAPIStub(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"email":"upstream unavailable"}}`))
	})
	_, err := client.CreateAccount(context.Background(), core.Contact{Email: "ada@example.com"})
	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.HasFieldError("email") {
		t.Fatalf("expected api error carrying an email field, got %v", err)
	}
	if IsDuplicateEmail(err) {
		t.Fatalf("expected 5xx not to be treated as duplicate email")
	}
}

func TestClient_GetAccounts(t *testing.T) {
	_, client := newAPIStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != PathAccounts {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("email") != "ada@example.com" {
			t.Fatalf("expected email lookup, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"accounts":[{"id":"acc_1","contact":{"email":"ada@example.com"}}],"total":1}`))
	})

	page, err := client.GetAccounts(context.Background(), map[string]string{"email": "ada@example.com"})
	if err != nil {
		t.Fatalf("get accounts: %v", err)
	}
	if len(page.Accounts) != 1 || page.Accounts[0].AccountID() != "acc_1" || page.Accounts[0].Contact.Email != "ada@example.com" {
		t.Fatalf("unexpected page %#v", page)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	_, client := newAPIStub(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"accounts":`))
	})
	_, err := client.GetAccounts(context.Background(), nil)
	if !core.HasTextCode(err, core.ErrorProviderRequestFailed) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestClient_RequiresTransport(t *testing.T) {
	_, err := (&Client{}).GetAccounts(context.Background(), nil)
	if !core.HasTextCode(err, core.ErrorInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
