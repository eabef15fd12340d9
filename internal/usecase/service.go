package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/storage"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/tenant"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// EventService applies CRM change events to the history store
type EventService struct {
	customerRepo    storage.CustomerRepo
	interactionRepo storage.InteractionRepo
}

// NewEventService creates a new event service
func NewEventService(customerRepo storage.CustomerRepo, interactionRepo storage.InteractionRepo) *EventService {
	return &EventService{
		customerRepo:    customerRepo,
		interactionRepo: interactionRepo,
	}
}

// validateOwnerTenant checks that the payload owner matches the owner carried
// by the context. A context without an owner accepts any payload owner.
func validateOwnerTenant(ctx context.Context, ownerID string) error {
	ctxOwnerID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil
	}

	if ownerID != ctxOwnerID {
		return fmt.Errorf("owner_id (%s) does not match subject owner (%s)", ownerID, ctxOwnerID)
	}

	return nil
}

// metadataJSON converts event provenance into the last_metadata column value.
func metadataJSON(metadata *model.LastMetadata) datatypes.JSON {
	if metadata == nil {
		return nil
	}
	return utils.MustMarshalJSON(map[string]interface{}{
		"consumer_sequence": metadata.ConsumerSequence,
		"stream_sequence":   metadata.StreamSequence,
		"stream":            metadata.Stream,
		"consumer":          metadata.Consumer,
		"domain":            metadata.Domain,
		"message_id":        metadata.MessageID,
		"message_subject":   metadata.MessageSubject,
		"owner_id":          metadata.OwnerID,
		"processed_at":      utils.Now(),
	})
}

// isRetryableRepoError reports whether a repository failure may succeed on redelivery.
func isRetryableRepoError(err error) bool {
	return errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrTimeout)
}

// wrapRepoError classifies a repository error for the ack/nak decision and logs it.
func wrapRepoError(log *zap.Logger, err error, action string, fields ...zap.Field) error {
	fields = append(fields, zap.Error(err))
	if isRetryableRepoError(err) {
		log.Warn("Potentially retryable error during "+action, fields...)
		return apperrors.NewRetryable(err, "retryable repository error during %s", action)
	}
	log.Error("Fatal error during "+action, fields...)
	return apperrors.NewFatal(err, "fatal repository error during %s", action)
}
