package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderFastSpring = "fastspring"

	// EventTypeSeparator splits an event type into category and activity segments.
	EventTypeSeparator = "."
)

// RawEvent is a single FastSpring webhook event as delivered.
type RawEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Live      bool            `json:"live"`
	Processed bool            `json:"processed"`
	Created   json.Number     `json:"created"`
	Data      json.RawMessage `json:"data"`
}

// Category returns the first separator-delimited segment of the event type.
func (e RawEvent) Category() string {
	eventType := strings.TrimSpace(e.Type)
	if idx := strings.Index(eventType, EventTypeSeparator); idx >= 0 {
		return eventType[:idx]
	}
	return eventType
}

// CreatedAt decodes the provider timestamp, expressed in epoch milliseconds.
func (e RawEvent) CreatedAt() (time.Time, error) {
	raw := strings.TrimSpace(e.Created.String())
	if raw == "" {
		return time.Time{}, nil
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("core: invalid event created timestamp %q: %w", raw, err)
	}
	return time.UnixMilli(millis).UTC(), nil
}

// DataMap decodes the opaque event payload into a generic map.
func (e RawEvent) DataMap() (map[string]any, error) {
	if len(bytes.TrimSpace(e.Data)) == 0 {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil, fmt.Errorf("core: decode event data: %w", err)
	}
	return out, nil
}

// Envelope is the inbound webhook body. Events stay undecoded so that a
// malformed event fails on its own; see DecodeEvent.
type Envelope struct {
	Events []json.RawMessage `json:"events"`
}

// DecodeEnvelope parses a raw webhook body. A body without an events key is
// rejected so that malformed deliveries are not acknowledged as empty batches.
func DecodeEnvelope(body []byte) (Envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Envelope{}, BadInputError("core: webhook body is empty", nil)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Envelope{}, WrapBadInput(err, "core: webhook body is not a json object", nil)
	}
	rawEvents, ok := fields["events"]
	if !ok {
		return Envelope{}, BadInputError("core: webhook body has no events", nil)
	}
	envelope := Envelope{}
	if err := json.Unmarshal(rawEvents, &envelope.Events); err != nil {
		return Envelope{}, WrapBadInput(err, "core: webhook events is not a list", nil)
	}
	return envelope, nil
}

// DecodeEvent parses one entry of Envelope.Events. On failure the returned
// event still carries whatever id and type could be read, for logging.
func DecodeEvent(raw json.RawMessage) (RawEvent, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	event := RawEvent{}
	if err := decoder.Decode(&event); err != nil {
		partial := eventIdentity(raw)
		return partial, WrapBadInput(err, "core: decode webhook event", map[string]any{
			"event_id":   partial.ID,
			"event_type": partial.Type,
		})
	}
	return event, nil
}

func eventIdentity(raw json.RawMessage) RawEvent {
	var loose struct {
		ID   any `json:"id"`
		Type any `json:"type"`
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&loose); err != nil {
		return RawEvent{}
	}
	return RawEvent{ID: looseString(loose.ID), Type: looseString(loose.Type)}
}

func looseString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Notification is the payload published on the event bus for each variant.
type Notification struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Live      bool            `json:"live"`
	Processed bool            `json:"processed"`
	Created   json.Number     `json:"created"`
	Data      json.RawMessage `json:"data"`
}

func NewNotification(kind string, event RawEvent) Notification {
	return Notification{
		Kind:      kind,
		ID:        event.ID,
		Type:      event.Type,
		Live:      event.Live,
		Processed: event.Processed,
		Created:   event.Created,
		Data:      append(json.RawMessage(nil), event.Data...),
	}
}

// Event rebuilds the raw event carried by the notification.
func (n Notification) Event() RawEvent {
	return RawEvent{
		ID:        n.ID,
		Type:      n.Type,
		Live:      n.Live,
		Processed: n.Processed,
		Created:   n.Created,
		Data:      n.Data,
	}
}

// Classification names the bus variants selected for one event type.
type Classification struct {
	EventType string
	Category  string
	Activity  string
}

// Kinds lists the variants in publish order.
func (c Classification) Kinds() []string {
	return []string{EventKindAny, c.Category, c.Activity}
}

// EventKindAny is the universal variant published for every event.
const EventKindAny = "Any"

// EventFailure records why an event was left out of the acknowledgment.
type EventFailure struct {
	EventID   string
	EventType string
	Err       error
}

// Acknowledgment is the per-request outcome of a webhook batch.
type Acknowledgment struct {
	RequestID string
	Received  int
	EventIDs  []string
	Failures  []EventFailure
}

// Body renders the acknowledged ids the way FastSpring expects them.
func (a Acknowledgment) Body() string {
	return strings.Join(a.EventIDs, "\n")
}

type Contact struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first,omitempty"`
	LastName  string `json:"last,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Map returns the contact as a payload fragment without empty fields.
func (c Contact) Map() map[string]any {
	out := map[string]any{}
	for key, value := range map[string]string{
		"email":   c.Email,
		"first":   c.FirstName,
		"last":    c.LastName,
		"company": c.Company,
		"phone":   c.Phone,
	} {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out[key] = trimmed
		}
	}
	return out
}

func (c Contact) IsZero() bool {
	return len(c.Map()) == 0
}

// Customer is the billable owner persisted by the application.
type Customer struct {
	ID           string
	OwnerID      string
	Email        string
	FirstName    string
	LastName     string
	Company      string
	Phone        string
	FastSpringID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c Customer) Contact() Contact {
	return Contact{
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Company:   c.Company,
		Phone:     c.Phone,
	}
}

type Account struct {
	ID       string         `json:"id"`
	Account  string         `json:"account,omitempty"`
	Contact  Contact        `json:"contact"`
	Language string         `json:"language,omitempty"`
	Country  string         `json:"country,omitempty"`
	Lookup   map[string]any `json:"lookup,omitempty"`
}

// AccountID returns the provider identifier, which FastSpring reports as
// either id or account depending on the endpoint.
func (a Account) AccountID() string {
	if id := strings.TrimSpace(a.ID); id != "" {
		return id
	}
	return strings.TrimSpace(a.Account)
}

type AccountsPage struct {
	Accounts []Account `json:"accounts"`
	Total    int       `json:"total,omitempty"`
	Page     int       `json:"page,omitempty"`
}

type Session struct {
	ID       string         `json:"id"`
	Currency string         `json:"currency,omitempty"`
	Expires  int64          `json:"expires,omitempty"`
	Account  string         `json:"account,omitempty"`
	Subtotal float64        `json:"subtotal,omitempty"`
	Items    []SessionItem  `json:"items,omitempty"`
	Raw      map[string]any `json:"-"`
}

type SessionItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}
