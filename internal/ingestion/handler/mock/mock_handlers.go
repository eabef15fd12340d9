package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/ingestion/handler"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// MockCRMHandler is a mock implementation of handler.EventHandlerInterface
type MockCRMHandler struct {
	mock.Mock
}

var _ handler.EventHandlerInterface = (*MockCRMHandler)(nil)

// HandleEvent mocks the HandleEvent method
func (m *MockCRMHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	args := m.Called(ctx, eventType, metadata, rawEvent)
	return args.Error(0)
}
