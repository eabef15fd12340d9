package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/validator"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// UpsertInteraction stores the interaction carried by a v1.interactions.upsert event.
func (s *EventService) UpsertInteraction(ctx context.Context, payload model.UpsertInteractionPayload, metadata *model.LastMetadata) error {
	log := logger.FromContext(ctx).With(
		zap.String("interaction_id", payload.InteractionID),
		zap.String("customer_id", payload.CustomerID),
	)
	start := utils.Now()

	if err := validator.Validate(payload); err != nil {
		log.Error("Validation failed for interaction upsert", zap.Error(err))
		return apperrors.NewFatal(err, "validation failed for interaction upsert")
	}

	if err := validateOwnerTenant(ctx, payload.OwnerID); err != nil {
		log.Error("Owner validation failed for interaction upsert",
			zap.String("owner_id", payload.OwnerID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "owner validation failed for interaction upsert")
	}

	interaction := payload.ToModel()
	// A follow-up date without the flag is ignored
	if !interaction.FollowUpNeeded {
		interaction.FollowUpAt = nil
	}
	interaction.LastMetadata = metadataJSON(metadata)

	if err := s.interactionRepo.Save(ctx, interaction); err != nil {
		return wrapRepoError(log, err, "interaction upsert")
	}

	log.Debug("Interaction upserted", zap.Duration("duration", time.Since(start)))
	return nil
}

// DeleteInteraction removes the interaction named by a v1.interactions.delete
// event. Deleting an interaction that no longer exists succeeds.
func (s *EventService) DeleteInteraction(ctx context.Context, payload model.DeleteInteractionPayload, metadata *model.LastMetadata) error {
	log := logger.FromContext(ctx).With(zap.String("interaction_id", payload.InteractionID))

	if err := validator.Validate(payload); err != nil {
		log.Error("Validation failed for interaction delete", zap.Error(err))
		return apperrors.NewFatal(err, "validation failed for interaction delete")
	}

	if err := validateOwnerTenant(ctx, payload.OwnerID); err != nil {
		log.Error("Owner validation failed for interaction delete",
			zap.String("owner_id", payload.OwnerID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "owner validation failed for interaction delete")
	}

	if err := s.interactionRepo.Delete(ctx, payload.InteractionID, payload.OwnerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Info("Interaction already absent, nothing to delete")
			return nil
		}
		return wrapRepoError(log, err, "interaction delete")
	}

	if metadata != nil {
		log.Debug("Interaction deleted", zap.Int64("stream_sequence", metadata.StreamSequence))
	}
	return nil
}
