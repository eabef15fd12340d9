package model

import (
	"strings"
	"time"
)

// EventType represents different types of events
type EventType string

// CRM change events consumed from JetStream. Subjects may carry a trailing
// owner identifier, e.g. "v1.interactions.upsert.owner123".
const (
	V1CustomersUpsert    EventType = "v1.customers.upsert"
	V1InteractionsUpsert EventType = "v1.interactions.upsert"
	V1InteractionsDelete EventType = "v1.interactions.delete"
)

var knownEventTypes = map[EventType]struct{}{
	V1CustomersUpsert:    {},
	V1InteractionsUpsert: {},
	V1InteractionsDelete: {},
}

// MapToBaseEventType maps a subject (optionally suffixed with an owner ID)
// back to a known base EventType.
func MapToBaseEventType(input string) (EventType, bool) {
	if _, ok := knownEventTypes[EventType(input)]; ok {
		return EventType(input), true
	}

	lastDotIndex := strings.LastIndex(input, ".")
	if lastDotIndex <= 0 {
		return "", false
	}

	base := EventType(input[:lastDotIndex])
	if _, ok := knownEventTypes[base]; ok {
		return base, true
	}
	return "", false
}

// GetVersion extracts the version from an event type
// Returns the version string (e.g., "v1") or an empty string if no version specified
func (e EventType) GetVersion() string {
	parts := strings.SplitN(string(e), ".", 2)
	if len(parts) < 2 {
		return ""
	}

	if len(parts[0]) >= 2 && parts[0][0] == 'v' {
		return parts[0]
	}

	return ""
}

// GetBaseType returns the event type without the version prefix
// For example: "v1.interactions.upsert" -> "interactions.upsert"
func (e EventType) GetBaseType() EventType {
	version := e.GetVersion()
	if version == "" {
		return e
	}
	return EventType(strings.TrimPrefix(string(e), version+"."))
}

// MessageMetadata describes the JetStream delivery an event arrived on.
type MessageMetadata struct {
	ConsumerSequence uint64
	StreamSequence   uint64
	NumDelivered     uint64
	NumPending       uint64
	Timestamp        time.Time
	Stream           string
	Consumer         string
	Domain           string
	MessageID        string
	MessageSubject   string
	OwnerID          string
}

// ToLastMetadata converts MessageMetadata to LastMetadata
func (e MessageMetadata) ToLastMetadata() *LastMetadata {
	return &LastMetadata{
		ConsumerSequence: int64(e.ConsumerSequence),
		StreamSequence:   int64(e.StreamSequence),
		Stream:           e.Stream,
		Consumer:         e.Consumer,
		Domain:           e.Domain,
		MessageID:        e.MessageID,
		MessageSubject:   e.MessageSubject,
		OwnerID:          e.OwnerID,
	}
}

// LastMetadata is the provenance stamped on a row by the last event that wrote it.
type LastMetadata struct {
	ConsumerSequence int64  `json:"consumer_sequence"`
	StreamSequence   int64  `json:"stream_sequence"`
	Stream           string `json:"stream"`
	Consumer         string `json:"consumer"`
	Domain           string `json:"domain"`
	MessageID        string `json:"message_id"`
	MessageSubject   string `json:"message_subject"`
	OwnerID          string `json:"owner_id"`
}
