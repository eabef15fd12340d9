package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/validator"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// UpsertCustomer stores the customer carried by a v1.customers.upsert event.
func (s *EventService) UpsertCustomer(ctx context.Context, payload model.UpsertCustomerPayload, metadata *model.LastMetadata) error {
	log := logger.FromContext(ctx).With(zap.String("customer_id", payload.CustomerID))
	start := utils.Now()

	if err := validator.Validate(payload); err != nil {
		log.Error("Validation failed for customer upsert", zap.Error(err))
		return apperrors.NewFatal(err, "validation failed for customer upsert")
	}

	if err := validateOwnerTenant(ctx, payload.OwnerID); err != nil {
		log.Error("Owner validation failed for customer upsert",
			zap.String("owner_id", payload.OwnerID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "owner validation failed for customer upsert")
	}

	customer := payload.ToModel()
	customer.LastMetadata = metadataJSON(metadata)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return wrapRepoError(log, err, "customer upsert")
	}

	log.Debug("Customer upserted", zap.Duration("duration", time.Since(start)))
	return nil
}
