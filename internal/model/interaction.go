package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Well-known interaction types. The set is open: any other string is stored
// and analysed as-is.
const (
	InteractionTypeCall      = "call"
	InteractionTypeMeeting   = "meeting"
	InteractionTypeEmail     = "email"
	InteractionTypeWhatsApp  = "whatsapp"
	InteractionTypeSMS       = "sms"
	InteractionTypeSocial    = "social_media"
	InteractionTypeVideoCall = "video_call"
)

// Well-known interaction statuses, compared case-insensitively.
const (
	InteractionStatusCompleted = "completed"
	InteractionStatusPending   = "pending"
)

// Interaction is a single logged touchpoint with a customer.
type Interaction struct {
	ID             string         `json:"id" gorm:"primaryKey;type:text"`
	CustomerID     string         `json:"customer_id" gorm:"column:customer_id;index:idx_interactions_customer_owner;type:text;not null"`
	OwnerID        string         `json:"owner_id" gorm:"column:owner_id;index:idx_interactions_customer_owner;type:text;not null"`
	Type           string         `json:"type" gorm:"column:interaction_type;type:text"`
	OccurredAt     time.Time      `json:"occurred_at" gorm:"column:occurred_at;index"`
	Title          string         `json:"title" gorm:"type:text"`
	Notes          string         `json:"notes,omitempty" gorm:"type:text"`
	FollowUpNeeded bool           `json:"follow_up_needed" gorm:"column:follow_up_needed"`
	FollowUpAt     *time.Time     `json:"follow_up_at,omitempty" gorm:"column:follow_up_at"`
	Status         string         `json:"status" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	LastMetadata   datatypes.JSON `json:"last_metadata,omitempty" gorm:"type:jsonb;column:last_metadata"`
}

// TableName specifies the table name for the Interaction model, respecting the Namer.
func (Interaction) TableName(namer schema.Namer) string {
	return namer.TableName("interactions")
}

// InteractionUpdateColumns lists the columns overwritten when an upsert hits an existing row.
func InteractionUpdateColumns() []string {
	return []string{
		"customer_id",
		"interaction_type",
		"occurred_at",
		"title",
		"notes",
		"follow_up_needed",
		"follow_up_at",
		"status",
		"updated_at",
		"last_metadata",
	}
}

// NormalizedType returns the lower-cased, trimmed interaction type.
func (i Interaction) NormalizedType() string {
	return strings.ToLower(strings.TrimSpace(i.Type))
}

// IsCompleted reports whether the status is "completed", ignoring case.
func (i Interaction) IsCompleted() bool {
	return strings.EqualFold(strings.TrimSpace(i.Status), InteractionStatusCompleted)
}

// IsPending reports whether the status is "pending", ignoring case.
func (i Interaction) IsPending() bool {
	return strings.EqualFold(strings.TrimSpace(i.Status), InteractionStatusPending)
}

// HasFollowUpAfter reports whether an explicit follow-up is scheduled strictly after t.
func (i Interaction) HasFollowUpAfter(t time.Time) bool {
	return i.FollowUpNeeded && i.FollowUpAt != nil && i.FollowUpAt.After(t)
}
