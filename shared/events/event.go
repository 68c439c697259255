package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/draftea/order-system/shared/models"
)

const envelopeVersion = "1.0"

var (
	ErrInvalidReceiver = errors.New("receiver should be a pointer")
	ErrInvalidEnvelope = errors.New("invalid event envelope")
)

// Metadata carries transport and tracing attributes next to the payload
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Set stores value under key. The map must be initialised.
func (m Metadata) Set(key, value string) {
	m[key] = value
}

func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m Metadata) Clone() Metadata {
	clone := make(Metadata, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event is the envelope shared by every message on the bus
type Event struct {
	ID            models.ID   `json:"id"`
	AggregateID   models.ID   `json:"aggregate_id"`
	Topic         Topic       `json:"topic"`
	EventType     string      `json:"event_type"`
	Version       string      `json:"version"`
	Data          interface{} `json:"data"`
	Metadata      Metadata    `json:"metadata"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID models.ID   `json:"correlation_id,omitempty"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Subscriber routes events whose topic matches pattern to handler
type Subscriber interface {
	Subscribe(ctx context.Context, pattern string, handler EventHandler) error
}

// EventHandler handles one event. A nil error acknowledges it.
type EventHandler interface {
	Handle(ctx context.Context, event *Event) error
}

// NewEvent creates an event for the given aggregate
func NewEvent(aggregateID models.ID, eventType string, data interface{}) *Event {
	return &Event{
		ID:          models.GenerateUUID(),
		AggregateID: aggregateID,
		Topic:       Topic(eventType),
		EventType:   eventType,
		Version:     envelopeVersion,
		Data:        data,
		Metadata:    make(Metadata),
		Timestamp:   time.Now().UTC(),
	}
}

// Validate checks the minimum envelope every inbound event must carry
func (e *Event) Validate() error {
	switch {
	case e == nil:
		return ErrInvalidEnvelope
	case e.ID.IsEmpty():
		return fmt.Errorf("%w: missing event id", ErrInvalidEnvelope)
	case e.EventType == "":
		return fmt.Errorf("%w: missing event type", ErrInvalidEnvelope)
	case e.AggregateID.IsEmpty():
		return fmt.Errorf("%w: missing order id", ErrInvalidEnvelope)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: missing occurred at", ErrInvalidEnvelope)
	}
	return nil
}

// Source returns the producing system of the event, the first segment of its type
func (e *Event) Source() string {
	if i := strings.IndexByte(e.EventType, '.'); i > 0 {
		return e.EventType[:i]
	}
	return e.EventType
}

func (e *Event) WithCorrelationID(correlationID models.ID) *Event {
	e.CorrelationID = correlationID
	return e
}

func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata.Set(key, value)
	return e
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an envelope. Data is left as whatever encoding/json produced for it and
// Metadata is never nil.
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.Topic == "" {
		event.Topic = Topic(event.EventType)
	}
	if event.Metadata == nil {
		event.Metadata = make(Metadata)
	}
	return &event, nil
}

// UnmarshalPayload decodes Data into v. A payload of v's own type is assigned as is and a
// missing payload leaves v untouched.
func (e *Event) UnmarshalPayload(v interface{}) error {
	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return ErrInvalidReceiver
	}

	var raw []byte
	switch data := e.Data.(type) {
	case nil:
		return nil
	case json.RawMessage:
		raw = data
	case []byte:
		raw = data
	default:
		if payload := reflect.ValueOf(data); payload.Type() == target.Elem().Type() {
			target.Elem().Set(payload)
			return nil
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = encoded
	}

	return json.Unmarshal(raw, v)
}

// Clone copies the envelope. Data is shared.
func (e *Event) Clone() *Event {
	clone := *e
	clone.Metadata = e.Metadata.Clone()
	return &clone
}
