package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/ingestion/handler"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// MockCRMService is a mock implementation of handler.CRMService
type MockCRMService struct {
	mock.Mock
}

var _ handler.CRMService = (*MockCRMService)(nil)

// UpsertCustomer mocks the UpsertCustomer method
func (m *MockCRMService) UpsertCustomer(ctx context.Context, customer model.UpsertCustomerPayload, metadata *model.LastMetadata) error {
	args := m.Called(ctx, customer, metadata)
	return args.Error(0)
}

// UpsertInteraction mocks the UpsertInteraction method
func (m *MockCRMService) UpsertInteraction(ctx context.Context, interaction model.UpsertInteractionPayload, metadata *model.LastMetadata) error {
	args := m.Called(ctx, interaction, metadata)
	return args.Error(0)
}

// DeleteInteraction mocks the DeleteInteraction method
func (m *MockCRMService) DeleteInteraction(ctx context.Context, interaction model.DeleteInteractionPayload, metadata *model.LastMetadata) error {
	args := m.Called(ctx, interaction, metadata)
	return args.Error(0)
}
