package model

import (
	"time"
)

// UpsertCustomerPayload is the event body of v1.customers.upsert.
type UpsertCustomerPayload struct {
	CustomerID    string     `json:"customer_id" validate:"required"`
	OwnerID       string     `json:"owner_id" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	ContactInfo   string     `json:"contact_info,omitempty" validate:"omitempty"`
	Notes         string     `json:"notes,omitempty" validate:"omitempty"`
	LastContacted *time.Time `json:"last_contacted,omitempty" validate:"omitempty"`
}

// ToModel converts the payload into a Customer row.
func (p UpsertCustomerPayload) ToModel() Customer {
	return Customer{
		ID:            p.CustomerID,
		OwnerID:       p.OwnerID,
		Name:          p.Name,
		ContactInfo:   p.ContactInfo,
		Notes:         p.Notes,
		LastContacted: p.LastContacted,
	}
}

// UpsertInteractionPayload is the event body of v1.interactions.upsert.
type UpsertInteractionPayload struct {
	InteractionID  string     `json:"interaction_id,omitempty" validate:"omitempty"`
	CustomerID     string     `json:"customer_id" validate:"required"`
	OwnerID        string     `json:"owner_id" validate:"required"`
	Type           string     `json:"interaction_type" validate:"required"`
	OccurredAt     time.Time  `json:"interaction_date" validate:"required"`
	Title          string     `json:"title" validate:"required,max=255"`
	Notes          string     `json:"notes,omitempty" validate:"omitempty"`
	FollowUpNeeded bool       `json:"follow_up_needed,omitempty"`
	FollowUpAt     *time.Time `json:"follow_up_date,omitempty" validate:"omitempty"`
	Status         string     `json:"status,omitempty" validate:"omitempty"`
}

// ToModel converts the payload into an Interaction row. A missing status
// defaults to completed.
func (p UpsertInteractionPayload) ToModel() Interaction {
	status := p.Status
	if status == "" {
		status = InteractionStatusCompleted
	}
	return Interaction{
		ID:             p.InteractionID,
		CustomerID:     p.CustomerID,
		OwnerID:        p.OwnerID,
		Type:           p.Type,
		OccurredAt:     p.OccurredAt,
		Title:          p.Title,
		Notes:          p.Notes,
		FollowUpNeeded: p.FollowUpNeeded,
		FollowUpAt:     p.FollowUpAt,
		Status:         status,
	}
}

// DeleteInteractionPayload is the event body of v1.interactions.delete.
type DeleteInteractionPayload struct {
	InteractionID string `json:"interaction_id" validate:"required"`
	OwnerID       string `json:"owner_id" validate:"required"`
}
