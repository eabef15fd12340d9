package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/tenant"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
)

// CRMHandler decodes CRM change events and hands them to the service
type CRMHandler struct {
	service CRMService
}

// NewCRMHandler creates a new CRM event handler
func NewCRMHandler(service CRMService) *CRMHandler {
	return &CRMHandler{
		service: service,
	}
}

// HandleEvent processes customer and interaction events
func (h *CRMHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	ctx = tenant.WithRequestID(ctx, uuid.NewString())

	log := logger.FromContext(ctx)
	log.Debug("Processing CRM event", zap.String("type", string(eventType)))

	lastMetadata := metadata.ToLastMetadata()
	switch eventType {
	case model.V1CustomersUpsert:
		return h.handleCustomerUpsert(ctx, lastMetadata, rawEvent)
	case model.V1InteractionsUpsert:
		return h.handleInteractionUpsert(ctx, lastMetadata, rawEvent)
	case model.V1InteractionsDelete:
		return h.handleInteractionDelete(ctx, lastMetadata, rawEvent)
	default:
		log.Error("Unsupported CRM event type", zap.String("eventType", string(eventType)))
		return apperrors.NewFatal(fmt.Errorf("unsupported CRM event type: %s", eventType), "unsupported CRM event type")
	}
}

func (h *CRMHandler) handleCustomerUpsert(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	var customer model.UpsertCustomerPayload
	if err := json.Unmarshal(rawEvent, &customer); err != nil {
		logger.FromContext(ctx).Error("Failed to unmarshal customer upsert payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal customer upsert payload")
	}

	// Owner falls back to the subject suffix
	if customer.OwnerID == "" {
		customer.OwnerID = metadata.OwnerID
	}

	return h.service.UpsertCustomer(ctx, customer, metadata)
}

func (h *CRMHandler) handleInteractionUpsert(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	var interaction model.UpsertInteractionPayload
	if err := json.Unmarshal(rawEvent, &interaction); err != nil {
		logger.FromContext(ctx).Error("Failed to unmarshal interaction upsert payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal interaction upsert payload")
	}

	if interaction.OwnerID == "" {
		interaction.OwnerID = metadata.OwnerID
	}

	return h.service.UpsertInteraction(ctx, interaction, metadata)
}

func (h *CRMHandler) handleInteractionDelete(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	var interaction model.DeleteInteractionPayload
	if err := json.Unmarshal(rawEvent, &interaction); err != nil {
		logger.FromContext(ctx).Error("Failed to unmarshal interaction delete payload", zap.Error(err))
		return apperrors.NewFatal(err, "failed to unmarshal interaction delete payload")
	}

	if interaction.OwnerID == "" {
		interaction.OwnerID = metadata.OwnerID
	}

	return h.service.DeleteInteraction(ctx, interaction, metadata)
}
