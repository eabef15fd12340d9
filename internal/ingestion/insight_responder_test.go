package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/config"
	clientmock "gitlab.com/timkado/api/daisi-crm-insights/internal/jetstream/mock"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/tenant"
)

type mockInsightQuerier struct {
	mock.Mock
}

func (m *mockInsightQuerier) GetCustomerInsights(ctx context.Context, req model.InsightRequest) (*model.InsightResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InsightResponse), args.Error(1)
}

func testInsightsConfig() (config.InsightsNatsConfig, config.WorkerPoolConfig) {
	return config.InsightsNatsConfig{
			Enabled:    true,
			Subject:    "v1.insights.request",
			QueueGroup: "crm_insights_responders",
		}, config.WorkerPoolConfig{
			PoolSize:   2,
			QueueSize:  10,
			ExpiryTime: time.Minute,
		}
}

func newTestResponder(t *testing.T) (*InsightResponder, *clientmock.ClientMock, *mockInsightQuerier) {
	mockClient, _ := setupTest(t)
	querier := new(mockInsightQuerier)
	cfg, poolCfg := testInsightsConfig()
	r, err := NewInsightResponder(mockClient, querier, cfg, poolCfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.pool.ReleaseTimeout(time.Second) })
	return r, mockClient, querier
}

func decodeErrorReply(t *testing.T, data []byte) model.ErrorReply {
	var reply model.ErrorReply
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestInsightResponder_Answer_Success(t *testing.T) {
	r, _, querier := newTestResponder(t)
	req := model.InsightRequest{CustomerID: "cust-1", OwnerID: "owner-1"}
	resp := &model.InsightResponse{
		CustomerID: "cust-1",
		Insights:   model.InsightProfile{EngagementLevel: model.EngagementHigh},
	}

	querier.On("GetCustomerInsights", mock.MatchedBy(func(ctx context.Context) bool {
		owner, err := tenant.FromContext(ctx)
		if err != nil || owner != "owner-1" {
			return false
		}
		_, err = tenant.FromRequestIDContext(ctx)
		return err == nil
	}), req).Return(resp, nil).Once()

	data := r.answer(context.Background(), []byte(`{"customer_id":"cust-1","owner_id":"owner-1"}`))

	var got model.InsightResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "cust-1", got.CustomerID)
	assert.Equal(t, model.EngagementHigh, got.Insights.EngagementLevel)
	querier.AssertExpectations(t)
}

func TestInsightResponder_Answer_MalformedRequest(t *testing.T) {
	r, _, querier := newTestResponder(t)

	reply := decodeErrorReply(t, r.answer(context.Background(), []byte(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, reply.Code)
	assert.Contains(t, reply.Error, "malformed request")
	querier.AssertNotCalled(t, "GetCustomerInsights", mock.Anything, mock.Anything)
}

func TestInsightResponder_Answer_ServiceErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{
			name:        "validation",
			err:         fmt.Errorf("%w: customer_id is required", apperrors.ErrValidation),
			wantCode:    http.StatusBadRequest,
			wantMessage: "customer_id is required",
		},
		{
			name:        "not found",
			err:         fmt.Errorf("%w: customer_id cust-1", apperrors.ErrNotFound),
			wantCode:    http.StatusNotFound,
			wantMessage: "customer_id cust-1",
		},
		{
			name:        "database error is hidden",
			err:         fmt.Errorf("%w: connection reset by peer", apperrors.ErrDatabase),
			wantCode:    http.StatusInternalServerError,
			wantMessage: "internal error",
		},
		{
			name:        "timeout is reported",
			err:         fmt.Errorf("%w: deadline", apperrors.ErrTimeout),
			wantCode:    http.StatusGatewayTimeout,
			wantMessage: "deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, querier := newTestResponder(t)
			querier.On("GetCustomerInsights", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			reply := decodeErrorReply(t, r.answer(context.Background(), []byte(`{"customer_id":"cust-1","owner_id":"owner-1"}`)))

			assert.Equal(t, tt.wantCode, reply.Code)
			assert.Contains(t, reply.Error, tt.wantMessage)
			if tt.wantMessage == "internal error" {
				assert.NotContains(t, reply.Error, "connection reset")
			}
		})
	}
}

func TestInsightResponder_StartStop(t *testing.T) {
	r, mockClient, _ := newTestResponder(t)
	mockClient.On("QueueSubscribe", "v1.insights.request", "crm_insights_responders", mock.Anything).
		Return(clientmock.MockSubscription(), nil).Once()

	require.NoError(t, r.Setup())
	require.NoError(t, r.Start())

	ctx := r.ctx
	r.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(100 * time.Millisecond):
		assert.Fail(t, "Context was not canceled within timeout")
	}
	mockClient.AssertExpectations(t)
}

func TestInsightResponder_Start_Error(t *testing.T) {
	r, mockClient, _ := newTestResponder(t)
	expectedErr := errors.New("subscribe failed")
	mockClient.On("QueueSubscribe", mock.Anything, mock.Anything, mock.Anything).Return(nil, expectedErr).Once()

	err := r.Start()

	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, r.sub)
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "ok", outcomeLabel(http.StatusOK))
	assert.Equal(t, "not_found", outcomeLabel(http.StatusNotFound))
	assert.Equal(t, "client_error", outcomeLabel(http.StatusBadRequest))
	assert.Equal(t, "client_error", outcomeLabel(http.StatusTooManyRequests))
	assert.Equal(t, "server_error", outcomeLabel(http.StatusServiceUnavailable))
}
