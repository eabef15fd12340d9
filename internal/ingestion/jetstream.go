package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/config"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/jetstream"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

const (
	consumerTypeIngestion = "ingestion"

	ingestionAckWait       = 30 * time.Second
	ingestionMaxAckPending = 1000
)

// AckNakAction represents the decision made after processing a message
type AckNakAction int

const (
	ActionAck      AckNakAction = iota // Message processed successfully, ACK it
	ActionNakDelay                     // Retryable error, NAK with calculated delay
	ActionTerm                         // Max deliveries reached or fatal error, stop redelivery
)

// EventConsumer applies CRM change events from a durable push consumer
type EventConsumer struct {
	client        jetstream.ClientInterface
	router        RouterInterface
	cfg           config.ConsumerNatsConfig
	consumerType  string
	ctx           context.Context
	cancel        context.CancelFunc
	sub           *nats.Subscription
	filterSubject string
}

// NewEventConsumer creates the CRM event consumer
func NewEventConsumer(client jetstream.ClientInterface, router RouterInterface, cfg config.ConsumerNatsConfig) *EventConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(zap.String("consumerType", consumerTypeIngestion)))

	return &EventConsumer{
		client:       client,
		router:       router,
		cfg:          cfg,
		consumerType: consumerTypeIngestion,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// determineAckNakAction decides the fate of a message based on processing result and metadata.
// It returns the action to take and the NAK delay if applicable.
func determineAckNakAction(
	processingErr error,
	metadata *nats.MsgMetadata,
	maxDeliver int,
	nakBaseDelay time.Duration,
	nakMaxDelay time.Duration,
) (action AckNakAction, delay time.Duration) {
	if processingErr == nil {
		return ActionAck, 0
	}

	isRetryable := apperrors.IsRetryable(processingErr)
	numDelivered := metadata.NumDelivered

	if !isRetryable || (maxDeliver > 0 && numDelivered >= uint64(maxDeliver)) {
		return ActionTerm, 0
	}

	// base * 2^(attempt-1), attempt starts at 1
	delay = nakBaseDelay
	for i := uint64(1); i < numDelivered && delay < nakMaxDelay; i++ {
		delay *= 2
	}
	if delay > nakMaxDelay {
		delay = nakMaxDelay
	}
	return ActionNakDelay, delay
}

// ownerFromSubject returns the owner suffix of a subject such as
// "v1.interactions.upsert.owner123", or "" when the subject is the bare event type.
func ownerFromSubject(subject string, eventType model.EventType) string {
	return strings.TrimPrefix(strings.TrimPrefix(subject, string(eventType)), ".")
}

// toMessageMetadata converts the JetStream delivery information of msg.
func toMessageMetadata(msg *nats.Msg, eventType model.EventType, metadata *nats.MsgMetadata) *model.MessageMetadata {
	var msgID string
	if msg.Header != nil {
		msgID = msg.Header.Get(nats.MsgIdHdr)
	}
	if msgID == "" {
		msgID = fmt.Sprintf("msg-%d", metadata.Sequence.Stream)
	}

	return &model.MessageMetadata{
		StreamSequence:   metadata.Sequence.Stream,
		ConsumerSequence: metadata.Sequence.Consumer,
		NumDelivered:     metadata.NumDelivered,
		NumPending:       metadata.NumPending,
		Timestamp:        metadata.Timestamp,
		Stream:           metadata.Stream,
		Consumer:         metadata.Consumer,
		Domain:           metadata.Domain,
		MessageID:        msgID,
		MessageSubject:   msg.Subject,
		OwnerID:          ownerFromSubject(msg.Subject, eventType),
	}
}

// handleMessage routes one delivery and acknowledges it according to the outcome
func (c *EventConsumer) handleMessage(msg *nats.Msg) {
	startTime := utils.Now()
	eventType, found := model.MapToBaseEventType(msg.Subject)

	defer func() {
		observer.ObserveEventProcessingDuration(string(eventType), c.consumerType, time.Since(startTime))

		if r := recover(); r != nil {
			logger.FromContext(c.ctx).Error("[panic] Recovered from panic in message handler",
				zap.Any("panic", r),
				zap.String("subject", msg.Subject),
				zap.Duration("duration", time.Since(startTime)),
				zap.Stack("stack"),
			)
			observer.IncEventsFailed(string(eventType), c.consumerType)
			observer.IncEventProcessingAction(string(eventType), c.consumerType, "panic_nak", "panic")
			if nakErr := msg.Nak(); nakErr != nil {
				logger.FromContext(c.ctx).Error("Failed to NAK message after panic", zap.Error(nakErr))
			}
		}
	}()

	log := logger.FromContext(c.ctx)

	if !found {
		// Nothing will ever handle this subject
		log.Warn("Unknown event type, terminating message", zap.String("subject", msg.Subject))
		observer.IncEventProcessingAction("unknown", c.consumerType, "term_unknown_type", "unknown_event_type")
		if termErr := msg.Term(); termErr != nil {
			log.Error("Failed to TERM message for unknown event type", zap.Error(termErr))
		}
		return
	}

	metadata, err := msg.Metadata()
	if err != nil {
		log.Error("Failed to read message metadata", zap.Error(err))
		observer.IncEventProcessingAction(string(eventType), c.consumerType, "nak_metadata_error", "metadata")
		if nakErr := msg.Nak(); nakErr != nil {
			log.Error("Failed to NAK message", zap.Error(nakErr))
		}
		return
	}

	internalMetadata := toMessageMetadata(msg, eventType, metadata)
	observer.IncEventsReceived(string(eventType), c.consumerType)

	msgCtx := logger.WithLogger(c.ctx, log.With(
		zap.String("nats_message_id", internalMetadata.MessageID),
		zap.Uint64("stream_sequence", internalMetadata.StreamSequence),
		zap.Uint64("consumer_sequence", internalMetadata.ConsumerSequence),
		zap.String("subject", msg.Subject),
	))
	enhancedLog := logger.FromContext(msgCtx)

	processingErr := c.router.Route(msgCtx, internalMetadata, msg.Data)

	action, nakDelay := determineAckNakAction(processingErr, metadata, c.cfg.MaxDeliver, c.cfg.NakBaseDelay, c.cfg.NakMaxDelay)

	errorType := "none"
	if processingErr != nil {
		errorType = observer.SanitizeErrorType(processingErr.Error())
	}

	switch action {
	case ActionAck:
		enhancedLog.Info("Successfully processed message", zap.Duration("duration", time.Since(startTime)))
		observer.IncEventsProcessed(string(eventType), c.consumerType)
		observer.IncEventProcessingAction(string(eventType), c.consumerType, "ack_success", errorType)
		if ackErr := msg.Ack(); ackErr != nil {
			enhancedLog.Error("Failed to ACK message after successful processing", zap.Error(ackErr))
		}

	case ActionNakDelay:
		enhancedLog.Info("NAKing message with delay for redelivery (retryable error)",
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", c.cfg.MaxDeliver),
			zap.Duration("nak_delay", nakDelay),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncEventsFailed(string(eventType), c.consumerType)
		observer.IncEventProcessingAction(string(eventType), c.consumerType, "nak_retry", errorType)
		if nakErr := msg.NakWithDelay(nakDelay); nakErr != nil {
			enhancedLog.Error("Failed to NAK message with delay", zap.Error(nakErr))
		}

	case ActionTerm:
		reason := "fatal error encountered"
		if apperrors.IsRetryable(processingErr) {
			reason = "max delivery attempts reached"
		}
		enhancedLog.Warn("Terminating message: "+reason,
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", c.cfg.MaxDeliver),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncEventsFailed(string(eventType), c.consumerType)
		observer.IncEventProcessingAction(string(eventType), c.consumerType, "term", errorType)
		if termErr := msg.Term(); termErr != nil {
			enhancedLog.Error("Failed to TERM message", zap.Error(termErr))
		}
	}
}

// Setup configures the NATS stream and durable consumer for CRM events
func (c *EventConsumer) Setup() error {
	log := logger.FromContext(c.ctx)
	log.Info("Setting up EventConsumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	streamCfg := &nats.StreamConfig{
		Name:      c.cfg.Stream,
		Subjects:  c.cfg.SubjectList,
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Duration(c.cfg.MaxAge*24) * time.Hour,
	}

	if err := c.client.SetupStream(c.ctx, streamCfg); err != nil {
		log.Error("Failed to setup event stream", zap.Error(err), zap.String("stream", c.cfg.Stream))
		return fmt.Errorf("failed to setup event stream '%s': %w", c.cfg.Stream, err)
	}

	consumerCfg := &nats.ConsumerConfig{
		Durable:        c.cfg.Consumer,
		DeliverGroup:   c.cfg.QueueGroup,
		FilterSubjects: c.cfg.SubjectList,
		AckPolicy:      nats.AckExplicitPolicy,
		DeliverSubject: nats.NewInbox(),
		MaxDeliver:     c.cfg.MaxDeliver,
		AckWait:        ingestionAckWait,
		MaxAckPending:  ingestionMaxAckPending,
		ReplayPolicy:   nats.ReplayInstantPolicy,
		DeliverPolicy:  nats.DeliverAllPolicy,
	}
	c.filterSubject = "v1.>"

	if err := c.client.SetupConsumer(c.ctx, c.cfg.Stream, consumerCfg); err != nil {
		log.Error("Failed to setup event consumer", zap.Error(err), zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
		return fmt.Errorf("failed to setup event consumer '%s' for stream '%s': %w", c.cfg.Consumer, c.cfg.Stream, err)
	}

	log.Info("EventConsumer setup complete")
	return nil
}

// Start subscribes to the NATS stream
func (c *EventConsumer) Start() error {
	log := logger.FromContext(c.ctx)
	log.Info("Starting EventConsumer subscription...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	sub, err := c.client.SubscribePush(c.filterSubject, c.cfg.Consumer, c.cfg.QueueGroup, c.cfg.Stream, c.handleMessage)
	if err != nil {
		log.Error("Failed to subscribe event consumer", zap.Error(err),
			zap.String("stream", c.cfg.Stream),
			zap.String("consumer", c.cfg.Consumer),
			zap.String("group", c.cfg.QueueGroup),
		)
		return fmt.Errorf("failed to subscribe event consumer '%s': %w", c.cfg.Consumer, err)
	}
	c.sub = sub
	log.Info("EventConsumer subscribed successfully")
	return nil
}

// Stop drains the subscription and cancels the consumer context
func (c *EventConsumer) Stop() {
	log := logger.FromContext(c.ctx)
	log.Info("Stopping EventConsumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			log.Error("Error draining event subscription", zap.Error(err))
		}
		log.Info("Event subscription drained")
	}
	if c.cancel != nil {
		c.cancel()
	}
	log.Info("EventConsumer stopped")
}
