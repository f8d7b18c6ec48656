package webhooks

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// Studly converts words separated by spaces, dashes or underscores into a
// single identifier, upper-casing the first rune of every word and keeping
// the rest untouched: "mailingListEntry" -> "MailingListEntry".
func Studly(value string) string {
	words := strings.FieldsFunc(value, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	var b strings.Builder
	b.Grow(len(value))
	for _, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(first))
		b.WriteString(word[size:])
	}
	return b.String()
}

// Classifier maps dotted event types to registered variants.
type Classifier struct {
	Registry *Registry
}

func NewClassifier(registry *Registry) *Classifier {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Classifier{Registry: registry}
}

// Classify derives the category-wide and activity variants for eventType.
// Variants match the registry case-insensitively and are returned in their
// registered spelling, so "ORDER.COMPLETED" yields OrderAny/OrderCompleted.
// Either one missing from the registry yields an UnknownEventType error.
func (c *Classifier) Classify(eventType string) (core.Classification, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return core.Classification{}, core.UnknownEventType(eventType)
	}
	category := eventType
	if idx := strings.Index(eventType, core.EventTypeSeparator); idx >= 0 {
		category = eventType[:idx]
	}
	registry := c.registry()
	categoryVariant, ok := registry.Lookup(Studly(category) + core.EventKindAny)
	if !ok {
		return core.Classification{}, core.UnknownEventType(eventType)
	}
	activityVariant, ok := registry.Lookup(Studly(strings.ReplaceAll(eventType, core.EventTypeSeparator, " ")))
	if !ok {
		return core.Classification{}, core.UnknownEventType(eventType)
	}
	return core.Classification{
		EventType: eventType,
		Category:  categoryVariant,
		Activity:  activityVariant,
	}, nil
}

func (c *Classifier) registry() *Registry {
	if c == nil || c.Registry == nil {
		return DefaultRegistry()
	}
	return c.Registry
}
