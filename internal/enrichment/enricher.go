// Package enrichment augments heuristic insight profiles with output from a
// text-generation service. Every failure falls back to the heuristic profile.
package enrichment

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
)

// DefaultTimeout bounds a single enrichment attempt.
const DefaultTimeout = 30 * time.Second

// Result labels reported by the enricher.
const (
	ResultUsed    = "used"
	ResultSkipped = "skipped"
	ResultEmpty   = "empty"
)

// Enricher merges generated insights into a heuristic profile.
type Enricher struct {
	generator TextGenerator
	timeout   time.Duration
}

// NewEnricher creates an Enricher. A nil generator disables enrichment.
func NewEnricher(generator TextGenerator, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Enricher{generator: generator, timeout: timeout}
}

// Enabled reports whether the enricher will call out at all.
func (e *Enricher) Enabled() bool {
	return e != nil && e.generator != nil
}

// Enrich asks the generator for insights and merges them into profile. It
// returns the input profile and false on any failure, including timeouts,
// cancellation and panics, and never returns an error.
func (e *Enricher) Enrich(ctx context.Context, profile model.InsightProfile, customer model.Customer, history []model.Interaction, now time.Time) (result model.InsightProfile, aiPowered bool) {
	if !e.Enabled() || len(history) == 0 {
		observer.IncEnrichmentResult(ResultSkipped)
		return profile, false
	}

	log := logger.FromContext(ctx).With(zap.String("customer_id", customer.ID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("[panic] Recovered from panic during enrichment",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			observer.IncEnrichmentResult("panic")
			result, aiPowered = profile, false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.generator.GenerateText(ctx, BuildPrompt(customer, history, profile, now))
	if err != nil {
		if !apperrors.IsEnrichmentError(err) {
			err = fmt.Errorf("%w: %w", apperrors.ErrEnrichmentUnavailable, err)
		}
		reason := apperrors.EnrichmentReason(err)
		observer.ObserveEnrichmentDuration(reason, time.Since(start))
		observer.IncEnrichmentResult(reason)
		log.Warn("Enrichment unavailable, using heuristic insights",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return profile, false
	}
	observer.ObserveEnrichmentDuration("ok", time.Since(start))

	fields, err := parseGenerated(text)
	if err != nil {
		observer.IncEnrichmentResult(apperrors.EnrichmentReason(err))
		log.Warn("Could not parse generated insights, using heuristic insights",
			zap.Error(err),
			zap.Int("text_length", len(text)),
		)
		return profile, false
	}

	merged, used := Merge(profile, fields)
	if !used {
		observer.IncEnrichmentResult(ResultEmpty)
		log.Info("Generated insights had no usable fields")
		return profile, false
	}

	observer.IncEnrichmentResult(ResultUsed)
	log.Debug("Merged generated insights")
	return merged, true
}
