package storage

import (
	"context"
	"time"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// CustomerRepo defines customer storage operations
type CustomerRepo interface {
	Save(ctx context.Context, customer model.Customer) error
	FindByID(ctx context.Context, customerID, ownerID string) (*model.Customer, error)
	Close(ctx context.Context) error
}

// InteractionRepo defines interaction storage operations. Every read is
// scoped to the owning user.
type InteractionRepo interface {
	Save(ctx context.Context, interaction model.Interaction) error
	Delete(ctx context.Context, interactionID, ownerID string) error
	ListByCustomer(ctx context.Context, customerID, ownerID string) ([]model.Interaction, error)
	ListUpcomingFollowUps(ctx context.Context, ownerID string, from, to time.Time) ([]model.Interaction, error)
	ListRecent(ctx context.Context, ownerID string, since time.Time) ([]model.Interaction, error)
	Close(ctx context.Context) error
}

// Pinger reports database liveness for readiness probes
type Pinger interface {
	Ping(ctx context.Context) error
}
