package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapToBaseEventType(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedType  EventType
		expectedFound bool
	}{
		{"direct match interactions", string(V1InteractionsUpsert), V1InteractionsUpsert, true},
		{"direct match customers", string(V1CustomersUpsert), V1CustomersUpsert, true},
		{"strip owner suffix", "v1.interactions.delete.owner123", V1InteractionsDelete, true},
		{"no known base", "v1.unknown.event.owner1", "", false},
		{"no dot to strip", "unknown", "", false},
		{"only dot", ".", "", false},
		{"leading dot", ".v1.customers.upsert", "", false},
		{"empty string", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actualType, actualFound := MapToBaseEventType(tt.input)
			assert.Equal(t, tt.expectedType, actualType)
			assert.Equal(t, tt.expectedFound, actualFound)
		})
	}
}

func TestMessageMetadata_ToLastMetadata(t *testing.T) {
	input := MessageMetadata{
		ConsumerSequence: 10,
		StreamSequence:   100,
		NumDelivered:     1,
		Timestamp:        time.Now(),
		Stream:           "streamA",
		Consumer:         "consumerB",
		MessageID:        "msgD",
		MessageSubject:   "subjectE",
		OwnerID:          "ownerF",
	}

	expected := &LastMetadata{
		ConsumerSequence: 10,
		StreamSequence:   100,
		Stream:           "streamA",
		Consumer:         "consumerB",
		MessageID:        "msgD",
		MessageSubject:   "subjectE",
		OwnerID:          "ownerF",
	}
	assert.Equal(t, expected, input.ToLastMetadata())
}

func TestEventType_VersionAndBase(t *testing.T) {
	assert.Equal(t, "v1", V1InteractionsUpsert.GetVersion())
	assert.Equal(t, EventType("interactions.upsert"), V1InteractionsUpsert.GetBaseType())
	assert.Equal(t, "", EventType("customers.upsert").GetVersion())
	assert.Equal(t, EventType("customers.upsert"), EventType("customers.upsert").GetBaseType())
}

func TestInteraction_StatusHelpers(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, Interaction{Status: " Completed "}.IsCompleted())
	assert.True(t, Interaction{Status: "PENDING"}.IsPending())
	assert.False(t, Interaction{Status: "cancelled"}.IsPending())
	assert.Equal(t, "whatsapp", Interaction{Type: " WhatsApp"}.NormalizedType())

	assert.True(t, Interaction{FollowUpNeeded: true, FollowUpAt: &future}.HasFollowUpAfter(now))
	assert.False(t, Interaction{FollowUpNeeded: true, FollowUpAt: &past}.HasFollowUpAfter(now))
	assert.False(t, Interaction{FollowUpNeeded: false, FollowUpAt: &future}.HasFollowUpAfter(now))
	assert.False(t, Interaction{FollowUpNeeded: true}.HasFollowUpAfter(now))
}

func TestParseEngagementLevel(t *testing.T) {
	lvl, ok := ParseEngagementLevel(" high ")
	assert.True(t, ok)
	assert.Equal(t, EngagementHigh, lvl)

	_, ok = ParseEngagementLevel("Very High")
	assert.False(t, ok)
}

func TestUpsertInteractionPayload_ToModelDefaultsStatus(t *testing.T) {
	p := UpsertInteractionPayload{CustomerID: "c1", OwnerID: "o1", Type: "call", Title: "Intro"}
	m := p.ToModel()
	assert.Equal(t, InteractionStatusCompleted, m.Status)
	assert.Equal(t, "c1", m.CustomerID)
}

func TestInteractionUpdateColumns(t *testing.T) {
	cols := InteractionUpdateColumns()

	assert.Contains(t, cols, "customer_id", "a reassigned interaction must follow its new customer")
	assert.NotContains(t, cols, "id")
	assert.NotContains(t, cols, "owner_id")
	assert.NotContains(t, cols, "created_at")
}
