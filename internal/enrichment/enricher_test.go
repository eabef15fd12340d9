package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

var enrichNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func enrichFixtures() (model.Customer, []model.Interaction) {
	customer := model.Customer{ID: "cust-1", OwnerID: "owner-1", Name: "Asha Rao", ContactInfo: "+91 98450 00000"}
	history := []model.Interaction{{
		ID:         "i-1",
		CustomerID: "cust-1",
		OwnerID:    "owner-1",
		Type:       "call",
		OccurredAt: enrichNow.AddDate(0, 0, -4),
		Title:      "Intro",
		Status:     "completed",
	}}
	return customer, history
}

func TestEnrich_MergesGeneratedFields(t *testing.T) {
	logger.Log = zaptest.NewLogger(t)
	gen := new(mockGenerator)
	gen.On("GenerateText", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Asha Rao")
	})).Return("```json\n{\"engagement_level\":\"High\",\"insights_summary\":\"Strong interest.\",\"suggested_follow_up_date\":\"2031-01-01\"}\n```", nil)

	customer, history := enrichFixtures()
	base := heuristicProfile()

	merged, used := NewEnricher(gen, time.Second).Enrich(context.Background(), base, customer, history, enrichNow)

	require.True(t, used)
	assert.Equal(t, model.EngagementHigh, merged.EngagementLevel)
	assert.Equal(t, "Strong interest.", merged.InsightsSummary)
	assert.Equal(t, base.SuggestedFollowUpDate, merged.SuggestedFollowUpDate)
	assert.Equal(t, base.FollowUpSuggestionReason, merged.FollowUpSuggestionReason)
	gen.AssertExpectations(t)
}

func TestEnrich_MalformedJSONFallsBack(t *testing.T) {
	logger.Log = zaptest.NewLogger(t)
	gen := new(mockGenerator)
	gen.On("GenerateText", mock.Anything, mock.Anything).Return(`{"engagement_level": "High", "recommended_actions": ["x"`, nil)

	customer, history := enrichFixtures()
	base := heuristicProfile()

	got, used := NewEnricher(gen, time.Second).Enrich(context.Background(), base, customer, history, enrichNow)
	assert.False(t, used)
	assert.Equal(t, base, got)
}

func TestEnrich_TruncatedReplyKeepsHeuristicProfile(t *testing.T) {
	logger.Log = zaptest.NewLogger(t)
	gen := new(mockGenerator)
	gen.On("GenerateText", mock.Anything, mock.Anything).
		Return(`{"engagement_level":"High","details":{"risk_assessment":"churn likely"},"recommended_actions":["a"`, nil)

	customer, history := enrichFixtures()
	base := heuristicProfile()

	got, used := NewEnricher(gen, time.Second).Enrich(context.Background(), base, customer, history, enrichNow)
	assert.False(t, used)
	assert.Equal(t, base, got)
	gen.AssertExpectations(t)
}

func TestEnrich_GeneratorErrorsFallBack(t *testing.T) {
	errs := []error{
		apperrors.ErrEnrichmentUnavailable,
		apperrors.ErrEnrichmentRejected,
		apperrors.ErrEnrichmentInvalidResponse,
		errors.New("unclassified failure"),
	}
	for _, genErr := range errs {
		t.Run(genErr.Error(), func(t *testing.T) {
			logger.Log = zaptest.NewLogger(t)
			gen := new(mockGenerator)
			gen.On("GenerateText", mock.Anything, mock.Anything).Return("", genErr)

			customer, history := enrichFixtures()
			base := heuristicProfile()

			got, used := NewEnricher(gen, time.Second).Enrich(context.Background(), base, customer, history, enrichNow)
			assert.False(t, used)
			assert.Equal(t, base, got)
		})
	}
}

func TestEnrich_TimeoutFallsBack(t *testing.T) {
	logger.Log = zaptest.NewLogger(t)
	gen := new(mockGenerator)
	gen.On("GenerateText", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.DeadlineExceeded)

	customer, history := enrichFixtures()
	base := heuristicProfile()

	start := time.Now()
	got, used := NewEnricher(gen, 30*time.Millisecond).Enrich(context.Background(), base, customer, history, enrichNow)
	assert.False(t, used)
	assert.Equal(t, base, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestEnrich_PanicFallsBack(t *testing.T) {
	logger.Log = zaptest.NewLogger(t)
	gen := new(mockGenerator)
	gen.On("GenerateText", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("generator exploded")
	}).Return("", nil)

	customer, history := enrichFixtures()
	base := heuristicProfile()

	var got model.InsightProfile
	var used bool
	require.NotPanics(t, func() {
		got, used = NewEnricher(gen, time.Second).Enrich(context.Background(), base, customer, history, enrichNow)
	})
	assert.False(t, used)
	assert.Equal(t, base, got)
}

func TestEnrich_SkippedWithoutGeneratorOrHistory(t *testing.T) {
	logger.Log = zaptest.NewLogger(t)
	customer, history := enrichFixtures()
	base := heuristicProfile()

	got, used := NewEnricher(nil, 0).Enrich(context.Background(), base, customer, history, enrichNow)
	assert.False(t, used)
	assert.Equal(t, base, got)

	var nilEnricher *Enricher
	got, used = nilEnricher.Enrich(context.Background(), base, customer, history, enrichNow)
	assert.False(t, used)
	assert.Equal(t, base, got)

	gen := new(mockGenerator)
	got, used = NewEnricher(gen, time.Second).Enrich(context.Background(), base, customer, nil, enrichNow)
	assert.False(t, used)
	assert.Equal(t, base, got)
	gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}
