package handler

import (
	"context"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// EventHandlerInterface defines the common interface for event handlers
type EventHandlerInterface interface {
	// HandleEvent processes an event
	HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error
}

// CRMService applies CRM change events to the history store
type CRMService interface {
	UpsertCustomer(ctx context.Context, customer model.UpsertCustomerPayload, metadata *model.LastMetadata) error
	UpsertInteraction(ctx context.Context, interaction model.UpsertInteractionPayload, metadata *model.LastMetadata) error
	DeleteInteraction(ctx context.Context, interaction model.DeleteInteractionPayload, metadata *model.LastMetadata) error
}

// Ensure the handler implements the interface
var _ EventHandlerInterface = (*CRMHandler)(nil)
