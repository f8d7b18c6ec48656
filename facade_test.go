package cashier

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-cashier-fastspring/adapters/gocommand"
	cashiercommand "github.com/goliatone/go-cashier-fastspring/command"
	"github.com/goliatone/go-cashier-fastspring/core"
	cashierquery "github.com/goliatone/go-cashier-fastspring/query"
	"github.com/goliatone/go-cashier-fastspring/webhooks"
)

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestFacade_BuildsCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(newTestService(t))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	commands := facade.Commands()
	if commands.CreateSession == nil || commands.ProcessWebhook == nil {
		t.Fatalf("expected commands, got %#v", commands)
	}
	queries := facade.Queries()
	if queries.GetCustomer == nil || queries.ListRegisteredVariants == nil {
		t.Fatalf("expected queries, got %#v", queries)
	}

	variants, err := queries.ListRegisteredVariants.Query(context.Background(), cashierquery.ListRegisteredVariantsMessage{})
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(variants) != len(webhooks.FastSpringVariants) {
		t.Fatalf("expected %d variants, got %d", len(webhooks.FastSpringVariants), len(variants))
	}
}

func TestFacade_RegisterDispatchesThroughGoCommand(t *testing.T) {
	sessions := &stubSessions{}
	customers := &memoryCustomers{customers: map[string]core.Customer{
		"user-1": {OwnerID: "user-1", Email: "ada@example.com", FastSpringID: "acc_1"},
	}}
	service := newTestService(t, WithSessionsAPI(sessions), WithAccountsAPI(&stubAccounts{}), WithCustomerStore(customers))
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	subs, err := facade.Register(gocommand.NewRegistryAdapter(nil))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	t.Cleanup(subs.UnsubscribeAll)
	if subs.Len() != 4 {
		t.Fatalf("expected 4 subscriptions, got %d", subs.Len())
	}

	collector := gocmd.NewResult[core.Session]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := gocommand.Dispatch(ctx, cashiercommand.CreateSessionMessage{OwnerID: "user-1", Name: "main", Plan: "pro"}); err != nil {
		t.Fatalf("dispatch create session: %v", err)
	}
	session, ok := collector.Load()
	if !ok || session.ID != "sess_1" {
		t.Fatalf("expected session result, got %#v", session)
	}
	if len(sessions.payloads) != 1 || sessions.payloads[0]["account"] != "acc_1" {
		t.Fatalf("unexpected session payloads %#v", sessions.payloads)
	}

	customer, err := gocommand.Query[cashierquery.GetCustomerMessage, core.Customer](context.Background(), cashierquery.GetCustomerMessage{OwnerID: "user-1"})
	if err != nil {
		t.Fatalf("query customer: %v", err)
	}
	if customer.FastSpringID != "acc_1" {
		t.Fatalf("unexpected customer %#v", customer)
	}

	body := `{"events":[{"id":"evt_1","type":"order.completed","data":{}}]}`
	ackCollector := gocmd.NewResult[core.Acknowledgment]()
	ackCtx := gocmd.ContextWithResult(context.Background(), ackCollector)
	err = gocommand.Dispatch(ackCtx, cashiercommand.ProcessWebhookMessage{Request: core.InboundRequest{
		ProviderID: core.ProviderFastSpring,
		Headers:    map[string]string{core.DefaultSignatureHeader: webhooks.Sign(testSecret, []byte(body), webhooks.EncodingBase64)},
		Body:       []byte(body),
	}})
	if err != nil {
		t.Fatalf("dispatch webhook: %v", err)
	}
	ack, ok := ackCollector.Load()
	if !ok || ack.Body() != "evt_1" {
		t.Fatalf("unexpected acknowledgment %#v", ack)
	}
}
