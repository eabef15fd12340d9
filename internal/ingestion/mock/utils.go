package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/tenant"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
)

// WithTestContext returns a context carrying a test logger and, when given, an owner ID
func WithTestContext(t *testing.T, ownerID string) context.Context {
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))
	if ownerID != "" {
		ctx = tenant.WithOwnerID(ctx, ownerID)
	}
	return ctx
}

// SetupMessageMetadata creates a MessageMetadata instance for testing
func SetupMessageMetadata(messageID, subject, ownerID string) *model.MessageMetadata {
	return &model.MessageMetadata{
		MessageID:        messageID,
		MessageSubject:   subject,
		OwnerID:          ownerID,
		StreamSequence:   1,
		ConsumerSequence: 1,
		Stream:           "test_stream",
		Consumer:         "test_consumer",
		NumDelivered:     1,
		NumPending:       0,
	}
}

// AssertRouterRegistered checks that all expected routes were registered
func AssertRouterRegistered(t *testing.T, mockRouter *RouterMock, expectedEvents []model.EventType) {
	for _, eventType := range expectedEvents {
		mockRouter.AssertCalled(t, "Register", eventType, mock.Anything)
	}
}
