package webhooks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// Registry is the set of event variants the pipeline may publish. Lookups
// ignore case and resolve to the name as registered.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]string
}

func NewRegistry(variants ...string) (*Registry, error) {
	registry := &Registry{variants: make(map[string]string)}
	if err := registry.Register(variants...); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *Registry) Register(variants ...string) error {
	if r == nil {
		return fmt.Errorf("webhooks: registry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.variants == nil {
		r.variants = make(map[string]string)
	}
	for _, variant := range variants {
		name := strings.TrimSpace(variant)
		if name == "" {
			return fmt.Errorf("webhooks: event variant name is required")
		}
		r.variants[strings.ToLower(name)] = name
	}
	return nil
}

func (r *Registry) Has(variant string) bool {
	_, ok := r.Lookup(variant)
	return ok
}

// Lookup returns the registered spelling of variant.
func (r *Registry) Lookup(variant string) (string, bool) {
	if r == nil {
		return "", false
	}
	key := strings.ToLower(strings.TrimSpace(variant))
	if key == "" {
		return "", false
	}
	r.mu.RLock()
	name, ok := r.variants[key]
	r.mu.RUnlock()
	return name, ok
}

func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.variants))
	for _, name := range r.variants {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// FastSpringVariants is the catalogue of FastSpring webhook variants.
var FastSpringVariants = []string{
	core.EventKindAny,

	"AccountAny",
	"AccountCreated",
	"AccountUpdated",

	"FulfillmentAny",
	"FulfillmentFailed",

	"InvoiceAny",
	"InvoiceReminderEmail",

	"MailingListEntryAny",
	"MailingListEntryAbandoned",
	"MailingListEntryRemoved",
	"MailingListEntryUpdated",

	"OrderAny",
	"OrderApprovalPending",
	"OrderCanceled",
	"OrderCompleted",
	"OrderFailed",
	"OrderPaymentPending",

	"PayoutEntryAny",
	"PayoutEntryCreated",

	"QuoteAny",
	"QuoteCreated",
	"QuoteUpdated",

	"ReturnAny",
	"ReturnCreated",

	"SubscriptionAny",
	"SubscriptionActivated",
	"SubscriptionCanceled",
	"SubscriptionChargeCompleted",
	"SubscriptionChargeFailed",
	"SubscriptionDeactivated",
	"SubscriptionPaymentOverdue",
	"SubscriptionPaymentReminder",
	"SubscriptionTrialReminder",
	"SubscriptionUncanceled",
	"SubscriptionUpdated",
}

// DefaultRegistry returns a registry holding FastSpringVariants.
func DefaultRegistry() *Registry {
	registry := &Registry{variants: make(map[string]string, len(FastSpringVariants))}
	for _, variant := range FastSpringVariants {
		registry.variants[strings.ToLower(variant)] = variant
	}
	return registry
}
