package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Customer is a CRM customer owned by a single user.
type Customer struct {
	ID            string         `json:"id" gorm:"primaryKey;type:text"`
	OwnerID       string         `json:"owner_id" gorm:"column:owner_id;index;type:text;not null"`
	Name          string         `json:"name" gorm:"type:text"`
	ContactInfo   string         `json:"contact_info,omitempty" gorm:"column:contact_info;type:text"`
	Notes         string         `json:"notes,omitempty" gorm:"type:text"`
	LastContacted *time.Time     `json:"last_contacted,omitempty" gorm:"column:last_contacted"`
	CreatedAt     time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	LastMetadata  datatypes.JSON `json:"last_metadata,omitempty" gorm:"type:jsonb;column:last_metadata"`
}

// TableName specifies the table name for the Customer model, respecting the Namer.
func (Customer) TableName(namer schema.Namer) string {
	return namer.TableName("customers")
}

// CustomerUpdateColumns lists the columns overwritten when an upsert hits an existing row.
func CustomerUpdateColumns() []string {
	return []string{
		"name",
		"contact_info",
		"notes",
		"last_contacted",
		"updated_at",
		"last_metadata",
	}
}
