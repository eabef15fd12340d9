package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// SaveInteraction inserts an interaction or overwrites the mutable columns of
// an existing one owned by the same user. A missing ID is generated.
func (r *PostgresRepo) SaveInteraction(ctx context.Context, interaction model.Interaction) error {
	if interaction.OwnerID == "" || interaction.CustomerID == "" {
		return fmt.Errorf("%w: interaction owner_id and customer_id are required", apperrors.ErrBadRequest)
	}
	if interaction.ID == "" {
		interaction.ID = uuid.New().String()
	}
	interaction.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(model.InteractionUpdateColumns()),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: `"interactions"."owner_id" = excluded.owner_id`},
			}},
		}).Create(&interaction)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "SaveInteraction", operation)
	observer.ObserveDbOperationDuration("upsert", "interaction", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save interaction after retries",
			zap.String("interaction_id", interaction.ID),
			zap.String("customer_id", interaction.CustomerID),
			zap.Error(err))
		return err
	}
	return nil
}

// DeleteInteraction removes an interaction owned by ownerID.
func (r *PostgresRepo) DeleteInteraction(ctx context.Context, interactionID, ownerID string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("id = ? AND owner_id = ?", interactionID, ownerID).
			Delete(&model.Interaction{})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return backoff.Permanent(fmt.Errorf("%w: interaction_id %s", apperrors.ErrNotFound, interactionID))
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "DeleteInteraction", operation)
	observer.ObserveDbOperationDuration("delete", "interaction", time.Since(startTime), err)
	return err
}

// ListInteractions returns the whole history of a customer as seen by
// ownerID, newest first. An unknown customer yields an empty slice.
func (r *PostgresRepo) ListInteractions(ctx context.Context, customerID, ownerID string) ([]model.Interaction, error) {
	var interactions []model.Interaction
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("customer_id = ? AND owner_id = ?", customerID, ownerID).
			Order("occurred_at DESC, id ASC").
			Find(&interactions)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	return r.listInteractions(ctx, "list_by_customer", "ListInteractions", operation, &interactions,
		zap.String("customer_id", customerID))
}

// ListUpcomingFollowUps returns the open follow-ups of ownerID due in
// [from, to), soonest first. Completed interactions are excluded.
func (r *PostgresRepo) ListUpcomingFollowUps(ctx context.Context, ownerID string, from, to time.Time) ([]model.Interaction, error) {
	var interactions []model.Interaction
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("owner_id = ? AND follow_up_needed = ? AND follow_up_at >= ? AND follow_up_at < ? AND LOWER(status) <> ?",
				ownerID, true, from, to, model.InteractionStatusCompleted).
			Order("follow_up_at ASC, id ASC").
			Find(&interactions)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	return r.listInteractions(ctx, "list_upcoming_follow_ups", "ListUpcomingFollowUps", operation, &interactions,
		zap.Time("from", from), zap.Time("to", to))
}

// ListRecentInteractions returns the interactions of ownerID that occurred at
// or after since, newest first.
func (r *PostgresRepo) ListRecentInteractions(ctx context.Context, ownerID string, since time.Time) ([]model.Interaction, error) {
	var interactions []model.Interaction
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("owner_id = ? AND occurred_at >= ?", ownerID, since).
			Order("occurred_at DESC, id ASC").
			Find(&interactions)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	return r.listInteractions(ctx, "list_recent", "ListRecentInteractions", operation, &interactions,
		zap.Time("since", since))
}

// listInteractions runs a read operation with the read retry policy and
// normalises the result to a non-nil slice.
func (r *PostgresRepo) listInteractions(ctx context.Context, metricOp, opName string, operation func() error, out *[]model.Interaction, fields ...zap.Field) ([]model.Interaction, error) {
	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, readPolicy, opName, operation)
	observer.ObserveDbOperationDuration(metricOp, "interaction", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list interactions after retries",
			append(fields, zap.String("operation", opName), zap.Error(err))...)
		return nil, err
	}
	if *out == nil {
		return []model.Interaction{}, nil
	}
	return *out, nil
}
