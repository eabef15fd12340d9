package storage

import (
	"context"
	"time"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// CustomerRepoAdapter adapts the PostgresRepo to the CustomerRepo interface
type CustomerRepoAdapter struct {
	postgres *PostgresRepo
}

// NewCustomerRepoAdapter creates a new customer repository adapter
func NewCustomerRepoAdapter(postgres *PostgresRepo) CustomerRepo {
	return &CustomerRepoAdapter{postgres: postgres}
}

// Save upserts a customer
func (a *CustomerRepoAdapter) Save(ctx context.Context, customer model.Customer) error {
	return a.postgres.SaveCustomer(ctx, customer)
}

// FindByID finds a customer by ID within the owner's scope
func (a *CustomerRepoAdapter) FindByID(ctx context.Context, customerID, ownerID string) (*model.Customer, error) {
	return a.postgres.FindCustomer(ctx, customerID, ownerID)
}

func (a *CustomerRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// InteractionRepoAdapter adapts the PostgresRepo to the InteractionRepo interface
type InteractionRepoAdapter struct {
	postgres *PostgresRepo
}

// NewInteractionRepoAdapter creates a new interaction repository adapter
func NewInteractionRepoAdapter(postgres *PostgresRepo) InteractionRepo {
	return &InteractionRepoAdapter{postgres: postgres}
}

// Save upserts an interaction
func (a *InteractionRepoAdapter) Save(ctx context.Context, interaction model.Interaction) error {
	return a.postgres.SaveInteraction(ctx, interaction)
}

// Delete removes an interaction
func (a *InteractionRepoAdapter) Delete(ctx context.Context, interactionID, ownerID string) error {
	return a.postgres.DeleteInteraction(ctx, interactionID, ownerID)
}

// ListByCustomer returns a customer's interaction history
func (a *InteractionRepoAdapter) ListByCustomer(ctx context.Context, customerID, ownerID string) ([]model.Interaction, error) {
	return a.postgres.ListInteractions(ctx, customerID, ownerID)
}

// ListUpcomingFollowUps returns open follow-ups due in [from, to)
func (a *InteractionRepoAdapter) ListUpcomingFollowUps(ctx context.Context, ownerID string, from, to time.Time) ([]model.Interaction, error) {
	return a.postgres.ListUpcomingFollowUps(ctx, ownerID, from, to)
}

// ListRecent returns interactions since the given time
func (a *InteractionRepoAdapter) ListRecent(ctx context.Context, ownerID string, since time.Time) ([]model.Interaction, error) {
	return a.postgres.ListRecentInteractions(ctx, ownerID, since)
}

func (a *InteractionRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// Ensure adapters implement the interfaces
var _ CustomerRepo = (*CustomerRepoAdapter)(nil)
var _ InteractionRepo = (*InteractionRepoAdapter)(nil)
var _ Pinger = (*PostgresRepo)(nil)
