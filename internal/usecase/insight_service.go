package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/enrichment"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/insight"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/storage"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/validator"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// Window bounds for the follow-up and recent-interaction queries, in days.
const (
	DefaultWindowDays = 7
	MaxWindowDays     = 365
)

// ProfileEnricher augments a heuristic profile. Implementations never fail;
// they return the input profile and false when nothing was merged.
type ProfileEnricher interface {
	Enrich(ctx context.Context, profile model.InsightProfile, customer model.Customer, history []model.Interaction, now time.Time) (model.InsightProfile, bool)
}

// InsightService answers insight and history queries for a single owner.
type InsightService struct {
	customerRepo    storage.CustomerRepo
	interactionRepo storage.InteractionRepo
	engine          *insight.Engine
	enricher        ProfileEnricher
	now             func() time.Time
}

// NewInsightService creates an InsightService. A nil enricher yields purely
// heuristic profiles.
func NewInsightService(customerRepo storage.CustomerRepo, interactionRepo storage.InteractionRepo, engine *insight.Engine, enricher ProfileEnricher) *InsightService {
	if engine == nil {
		engine = insight.NewEngine(time.UTC)
	}
	return &InsightService{
		customerRepo:    customerRepo,
		interactionRepo: interactionRepo,
		engine:          engine,
		enricher:        enricher,
		now:             utils.Now,
	}
}

// GetCustomerInsights loads the customer and its history, computes the
// heuristic profile and merges enrichment into it when available.
func (s *InsightService) GetCustomerInsights(ctx context.Context, req model.InsightRequest) (*model.InsightResponse, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).With(
		zap.String("customer_id", req.CustomerID),
		zap.String("owner_id", req.OwnerID),
	)

	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID, req.OwnerID)
	if err != nil {
		if !apperrors.IsNotFoundError(err) {
			log.Error("Failed to load customer for insights", zap.Error(err))
		}
		return nil, err
	}

	history, err := s.interactionRepo.ListByCustomer(ctx, req.CustomerID, req.OwnerID)
	if err != nil {
		log.Error("Failed to load interaction history for insights", zap.Error(err))
		return nil, err
	}

	now := s.now()
	profile := s.engine.Compute(history, now)
	aiPowered := false
	if s.enricher != nil {
		profile, aiPowered = s.enricher.Enrich(ctx, profile, *customer, history, now)
	}

	observer.IncInsightEngagement(string(profile.EngagementLevel), aiPowered)
	log.Debug("Insights computed",
		zap.Int("interactions", len(history)),
		zap.String("engagement_level", string(profile.EngagementLevel)),
		zap.Bool("ai_powered", aiPowered),
	)

	return &model.InsightResponse{
		CustomerID: customer.ID,
		Insights:   profile,
		Context:    buildInsightContext(*customer, history),
		AIPowered:  aiPowered,
	}, nil
}

// UpcomingFollowUps lists the open follow-ups of ownerID due within the next
// days days. Zero days selects the default window.
func (s *InsightService) UpcomingFollowUps(ctx context.Context, ownerID string, days int) ([]model.Interaction, error) {
	days, err := normalizeWindow(ownerID, days)
	if err != nil {
		return nil, err
	}
	from := s.now()
	return s.interactionRepo.ListUpcomingFollowUps(ctx, ownerID, from, from.AddDate(0, 0, days))
}

// RecentInteractions lists the interactions of ownerID from the last days
// days, newest first. Zero days selects the default window.
func (s *InsightService) RecentInteractions(ctx context.Context, ownerID string, days int) ([]model.Interaction, error) {
	days, err := normalizeWindow(ownerID, days)
	if err != nil {
		return nil, err
	}
	return s.interactionRepo.ListRecent(ctx, ownerID, s.now().AddDate(0, 0, -days))
}

func normalizeWindow(ownerID string, days int) (int, error) {
	if ownerID == "" {
		return 0, fmt.Errorf("%w: owner_id is required", apperrors.ErrValidation)
	}
	if days == 0 {
		return DefaultWindowDays, nil
	}
	if days < 0 || days > MaxWindowDays {
		return 0, fmt.Errorf("%w: days must be between 1 and %d", apperrors.ErrValidation, MaxWindowDays)
	}
	return days, nil
}

func buildInsightContext(customer model.Customer, history []model.Interaction) model.InsightContext {
	ordered := insight.NewestFirst(history)
	summaries := make([]model.InteractionSummary, 0, len(ordered))
	for _, it := range ordered {
		summary := model.InteractionSummary{
			ID:             it.ID,
			Type:           it.Type,
			Date:           utils.FormatISO8601(it.OccurredAt),
			Title:          it.Title,
			Notes:          it.Notes,
			Status:         it.Status,
			FollowUpNeeded: it.FollowUpNeeded,
		}
		if it.FollowUpNeeded {
			summary.FollowUpDate = it.FollowUpAt
		}
		summaries = append(summaries, summary)
	}

	return model.InsightContext{
		CustomerName:  customer.Name,
		ContactInfo:   customer.ContactInfo,
		Notes:         customer.Notes,
		LastContacted: enrichment.LastContactedLabel(customer),
		Interactions:  summaries,
	}
}
