package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/config"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/ingestion"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/ingestion/handler"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/jetstream"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
)

// Processor wires the CRM event consumer and the insight responder to NATS
type Processor struct {
	service          *EventService
	jsClient         jetstream.ClientInterface
	eventConsumer    ingestion.ConsumerInterface
	insightResponder ingestion.ConsumerInterface // nil when request/reply is disabled
	eventRouter      ingestion.RouterInterface
	crmHandler       handler.EventHandlerInterface
}

// NewProcessor creates a new processor with all components wired up
func NewProcessor(service *EventService, insights ingestion.InsightQuerier, jsClient jetstream.ClientInterface, cfg *config.Config) (*Processor, error) {
	router := ingestion.NewRouter()

	p := &Processor{
		service:       service,
		jsClient:      jsClient,
		eventConsumer: ingestion.NewEventConsumer(jsClient, router, cfg.NATS.Ingestion),
		eventRouter:   router,
		crmHandler:    handler.NewCRMHandler(service),
	}

	if cfg.NATS.Insights.Enabled && insights != nil {
		responder, err := ingestion.NewInsightResponder(jsClient, insights, cfg.NATS.Insights, cfg.WorkerPools.Insights)
		if err != nil {
			return nil, fmt.Errorf("failed to create insight responder: %w", err)
		}
		p.insightResponder = responder
	}

	return p, nil
}

// GetRouter returns the processor's event router.
func (p *Processor) GetRouter() ingestion.RouterInterface {
	return p.eventRouter
}

// Setup registers the CRM handlers and prepares the stream and consumer
func (p *Processor) Setup() error {
	p.eventRouter.Register(model.V1CustomersUpsert, p.crmHandler.HandleEvent)
	p.eventRouter.Register(model.V1InteractionsUpsert, p.crmHandler.HandleEvent)
	p.eventRouter.Register(model.V1InteractionsDelete, p.crmHandler.HandleEvent)

	p.eventRouter.RegisterDefault(func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		logger.FromContext(ctx).Warn("Unhandled event type",
			zap.String("type", string(eventType)),
			zap.String("subject", metadata.MessageSubject),
			zap.String("version", eventType.GetVersion()),
			zap.String("base_type", string(eventType.GetBaseType())),
		)
		return nil
	})

	if err := p.eventConsumer.Setup(); err != nil {
		return fmt.Errorf("failed to setup event consumer: %w", err)
	}
	if p.insightResponder != nil {
		if err := p.insightResponder.Setup(); err != nil {
			return fmt.Errorf("failed to setup insight responder: %w", err)
		}
	}

	logger.Log.Info("Processor setup complete")
	return nil
}

// Start starts the event consumer and, when enabled, the insight responder
func (p *Processor) Start() error {
	logger.Log.Info("Starting event processor...")

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("[panic] Recovered from panic in processor",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if err := p.eventConsumer.Start(); err != nil {
		return fmt.Errorf("failed to start event consumer: %w", err)
	}
	if p.insightResponder != nil {
		if err := p.insightResponder.Start(); err != nil {
			p.eventConsumer.Stop()
			return fmt.Errorf("failed to start insight responder: %w", err)
		}
	}

	logger.Log.Info("Event processor started", zap.Bool("insight_responder", p.insightResponder != nil))
	return nil
}

// Stop stops the responder first so no new insight work is accepted, then the consumer
func (p *Processor) Stop() {
	logger.Log.Info("Stopping event processor...")
	if p.insightResponder != nil {
		p.insightResponder.Stop()
	}
	p.eventConsumer.Stop()
	logger.Log.Info("Event processor stopped")
}
