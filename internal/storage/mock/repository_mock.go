package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// --- CustomerRepo Mock ---

// CustomerRepoMock mocks the CustomerRepo interface
type CustomerRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *CustomerRepoMock) Save(ctx context.Context, customer model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// FindByID mocks the FindByID method
func (m *CustomerRepoMock) FindByID(ctx context.Context, customerID, ownerID string) (*model.Customer, error) {
	args := m.Called(ctx, customerID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

// Close mocks the Close method
func (m *CustomerRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- InteractionRepo Mock ---

// InteractionRepoMock mocks the InteractionRepo interface
type InteractionRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *InteractionRepoMock) Save(ctx context.Context, interaction model.Interaction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

// Delete mocks the Delete method
func (m *InteractionRepoMock) Delete(ctx context.Context, interactionID, ownerID string) error {
	args := m.Called(ctx, interactionID, ownerID)
	return args.Error(0)
}

// ListByCustomer mocks the ListByCustomer method
func (m *InteractionRepoMock) ListByCustomer(ctx context.Context, customerID, ownerID string) ([]model.Interaction, error) {
	args := m.Called(ctx, customerID, ownerID)
	return interactionsArg(args)
}

// ListUpcomingFollowUps mocks the ListUpcomingFollowUps method
func (m *InteractionRepoMock) ListUpcomingFollowUps(ctx context.Context, ownerID string, from, to time.Time) ([]model.Interaction, error) {
	args := m.Called(ctx, ownerID, from, to)
	return interactionsArg(args)
}

// ListRecent mocks the ListRecent method
func (m *InteractionRepoMock) ListRecent(ctx context.Context, ownerID string, since time.Time) ([]model.Interaction, error) {
	args := m.Called(ctx, ownerID, since)
	return interactionsArg(args)
}

// Close mocks the Close method
func (m *InteractionRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func interactionsArg(args mock.Arguments) ([]model.Interaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Interaction), args.Error(1)
}

// --- Pinger Mock ---

// PingerMock mocks the Pinger interface
type PingerMock struct {
	mock.Mock
}

// Ping mocks the Ping method
func (m *PingerMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
