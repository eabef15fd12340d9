package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// SaveCustomer inserts a customer or overwrites the mutable columns of an
// existing one. A row owned by another user is never touched.
func (r *PostgresRepo) SaveCustomer(ctx context.Context, customer model.Customer) error {
	if customer.OwnerID == "" {
		return fmt.Errorf("%w: customer owner_id is required", apperrors.ErrBadRequest)
	}
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	customer.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(model.CustomerUpdateColumns()),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: `"customers"."owner_id" = excluded.owner_id`},
			}},
		}).Create(&customer)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	err := retryableOperation(ctx, commitPolicy, "SaveCustomer", operation)
	observer.ObserveDbOperationDuration("upsert", "customer", time.Since(startTime), err)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to save customer after retries",
			zap.String("customer_id", customer.ID),
			zap.Error(err))
		return err
	}
	return nil
}

// FindCustomer loads a customer visible to ownerID. A customer that exists
// under a different owner is reported as not found.
func (r *PostgresRepo) FindCustomer(ctx context.Context, customerID, ownerID string) (*model.Customer, error) {
	var customer model.Customer
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", customerID, ownerID).First(&customer)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return backoff.Permanent(fmt.Errorf("%w: customer_id %s: %w", apperrors.ErrNotFound, customerID, result.Error))
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindCustomer", operation)
	observer.ObserveDbOperationDuration("find_by_id", "customer", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, findErr
		}
		logger.FromContext(ctx).Error("Failed to find customer after retries",
			zap.String("customer_id", customerID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &customer, nil
}
