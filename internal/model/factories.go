package model

import (
	"encoding/json"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// InteractionTypes lists the well-known types used when generating fixtures.
var InteractionTypes = []string{
	InteractionTypeCall,
	InteractionTypeMeeting,
	InteractionTypeEmail,
	InteractionTypeWhatsApp,
	InteractionTypeSMS,
	InteractionTypeSocial,
	InteractionTypeVideoCall,
}

var fakeInteractionTitles = []string{
	"Initial consultation",
	"Policy renewal discussion",
	"Claim assistance",
	"New product presentation",
	"Follow-up on proposal",
	"Premium payment reminder",
	"Document collection",
}

var fakeInteractionNotes = []string{
	"Customer interested in health insurance for the family.",
	"Discussed term plan options, thinking about coverage amount.",
	"Wants information on child plan and education plan.",
	"Asked about car insurance renewal pricing.",
	"Considering an investment plan next quarter.",
	"Short call, will reconnect next week.",
	"",
}

// RandomJSONB generates random JSON data for testing.
func RandomJSONB() datatypes.JSON {
	bytes, _ := json.Marshal(map[string]interface{}{
		"stream":          "crm_events_stream",
		"stream_sequence": gofakeit.Number(1, 100000),
	})
	return datatypes.JSON(bytes)
}

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// NewCustomer creates a new Customer instance with default fake data.
func NewCustomer(overrideDefaults ...*Customer) *Customer {
	lastContacted := utils.Now().Add(-time.Duration(gofakeit.Number(1, 60)) * 24 * time.Hour)
	base := &Customer{
		ID:            gofakeit.UUID(),
		OwnerID:       "owner_" + gofakeit.LetterN(8),
		Name:          gofakeit.Name(),
		ContactInfo:   gofakeit.Phone(),
		Notes:         gofakeit.RandomString(fakeInteractionNotes),
		LastContacted: &lastContacted,
		CreatedAt:     utils.Now().Add(-time.Duration(gofakeit.Number(60, 365)) * 24 * time.Hour),
		UpdatedAt:     utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		// Allow overriding with empty string by direct assignment
		base.ID = ovr.ID
		base.OwnerID = ovr.OwnerID
		base.Name = ovr.Name
		base.ContactInfo = ovr.ContactInfo
		base.Notes = ovr.Notes
		base.LastContacted = ovr.LastContacted
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
		if !ovr.UpdatedAt.IsZero() {
			base.UpdatedAt = ovr.UpdatedAt
		}
		if ovr.LastMetadata != nil {
			base.LastMetadata = ovr.LastMetadata
		}
	}
	return base
}

// NewInteraction creates a new Interaction instance with default fake data.
// Zero-valued override fields keep the generated defaults, except ID and
// the owning identifiers which are always taken from the override.
func NewInteraction(overrideDefaults ...*Interaction) *Interaction {
	base := &Interaction{
		ID:         gofakeit.UUID(),
		CustomerID: gofakeit.UUID(),
		OwnerID:    "owner_" + gofakeit.LetterN(8),
		Type:       gofakeit.RandomString(InteractionTypes),
		OccurredAt: utils.Now().Add(-time.Duration(gofakeit.Number(1, 90*24)) * time.Hour),
		Title:      gofakeit.RandomString(fakeInteractionTitles),
		Notes:      gofakeit.RandomString(fakeInteractionNotes),
		Status:     InteractionStatusCompleted,
		CreatedAt:  utils.Now(),
		UpdatedAt:  utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		base.ID = ovr.ID
		base.CustomerID = ovr.CustomerID
		base.OwnerID = ovr.OwnerID
		if ovr.Type != "" {
			base.Type = ovr.Type
		}
		if !ovr.OccurredAt.IsZero() {
			base.OccurredAt = ovr.OccurredAt
		}
		if ovr.Title != "" {
			base.Title = ovr.Title
		}
		base.Notes = ovr.Notes
		base.FollowUpNeeded = ovr.FollowUpNeeded
		base.FollowUpAt = ovr.FollowUpAt
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
		if !ovr.UpdatedAt.IsZero() {
			base.UpdatedAt = ovr.UpdatedAt
		}
		if ovr.LastMetadata != nil {
			base.LastMetadata = ovr.LastMetadata
		}
	}
	return base
}

// NewUpsertInteractionPayload creates a payload with fake data for the given customer.
func NewUpsertInteractionPayload(customerID, ownerID string) UpsertInteractionPayload {
	p := UpsertInteractionPayload{
		InteractionID: gofakeit.UUID(),
		CustomerID:    customerID,
		OwnerID:       ownerID,
		Type:          gofakeit.RandomString(InteractionTypes),
		OccurredAt:    utils.Now().Add(-time.Duration(gofakeit.Number(1, 90*24)) * time.Hour),
		Title:         gofakeit.RandomString(fakeInteractionTitles),
		Notes:         gofakeit.RandomString(fakeInteractionNotes),
		Status:        gofakeit.RandomString([]string{InteractionStatusCompleted, InteractionStatusCompleted, InteractionStatusPending}),
	}
	if gofakeit.Bool() {
		followUp := utils.Now().Add(time.Duration(gofakeit.Number(1, 21)) * 24 * time.Hour)
		p.FollowUpNeeded = true
		p.FollowUpAt = &followUp
	}
	return p
}

// NewUpsertCustomerPayload creates a customer payload with fake data.
func NewUpsertCustomerPayload(ownerID string) UpsertCustomerPayload {
	return UpsertCustomerPayload{
		CustomerID:  gofakeit.UUID(),
		OwnerID:     ownerID,
		Name:        gofakeit.Name(),
		ContactInfo: gofakeit.Email(),
		Notes:       gofakeit.RandomString(fakeInteractionNotes),
	}
}
