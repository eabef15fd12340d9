package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/config"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/jetstream"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/tenant"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

const (
	transportNATS = "nats"

	responderReleaseTimeout = 10 * time.Second
)

// InsightResponder answers insight requests received over core NATS
// request/reply. Requests run on a bounded ants worker pool.
type InsightResponder struct {
	client  jetstream.ClientInterface
	service InsightQuerier
	cfg     config.InsightsNatsConfig
	poolCfg config.WorkerPoolConfig
	pool    *ants.PoolWithFunc
	sub     *nats.Subscription
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewInsightResponder creates the responder and its worker pool
func NewInsightResponder(client jetstream.ClientInterface, service InsightQuerier, cfg config.InsightsNatsConfig, poolCfg config.WorkerPoolConfig) (*InsightResponder, error) {
	ctx, cancel := context.WithCancel(context.Background())
	log := logger.FromContext(ctx).Named("insight_responder")
	ctx = logger.WithLogger(ctx, log)

	r := &InsightResponder{
		client:  client,
		service: service,
		cfg:     cfg,
		poolCfg: poolCfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	pool, err := ants.NewPoolWithFunc(poolCfg.PoolSize, func(i interface{}) {
		msg, ok := i.(*nats.Msg)
		if !ok {
			log.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		r.respond(msg)
	},
		ants.WithExpiryDuration(poolCfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(poolCfg.QueueSize),
		ants.WithPanicHandler(func(p interface{}) {
			log.Error("Panic recovered in insight worker", zap.Any("panic_error", p), zap.Stack("stack"))
		}),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create insight worker pool: %w", err)
	}
	r.pool = pool

	log.Info("Insight worker pool initialized",
		zap.Int("pool_size", poolCfg.PoolSize),
		zap.Int("queue_size", poolCfg.QueueSize),
		zap.Duration("expiry_time", poolCfg.ExpiryTime),
	)
	return r, nil
}

// Setup is a no-op; core request/reply needs no server-side state.
func (r *InsightResponder) Setup() error {
	return nil
}

// Start subscribes to the insight request subject
func (r *InsightResponder) Start() error {
	log := logger.FromContext(r.ctx)
	sub, err := r.client.QueueSubscribe(r.cfg.Subject, r.cfg.QueueGroup, r.dispatch)
	if err != nil {
		log.Error("Failed to subscribe insight responder", zap.Error(err), zap.String("subject", r.cfg.Subject))
		return fmt.Errorf("failed to subscribe insight responder on '%s': %w", r.cfg.Subject, err)
	}
	r.sub = sub
	log.Info("Insight responder subscribed", zap.String("subject", r.cfg.Subject), zap.String("group", r.cfg.QueueGroup))
	return nil
}

// Stop drains the subscription and releases the worker pool
func (r *InsightResponder) Stop() {
	log := logger.FromContext(r.ctx)
	if r.sub != nil {
		if err := r.sub.Drain(); err != nil {
			log.Error("Error draining insight subscription", zap.Error(err))
		}
	}
	if r.pool != nil {
		start := time.Now()
		if err := r.pool.ReleaseTimeout(responderReleaseTimeout); err != nil {
			log.Warn("Insight worker pool release timed out", zap.Error(err))
		}
		log.Info("Insight worker pool released", zap.Duration("duration", time.Since(start)))
	}
	r.cancel()
}

// dispatch hands a request to the pool. It blocks while the pool is busy
// and answers with an overload error once the blocking queue is full.
func (r *InsightResponder) dispatch(msg *nats.Msg) {
	observer.SetInsightPoolStats(r.pool.Running(), r.pool.Waiting())

	if err := r.pool.Invoke(msg); err != nil {
		logger.FromContext(r.ctx).Warn("Failed to submit insight request to pool", zap.Error(err))
		status := http.StatusServiceUnavailable
		observer.ObserveInsightRequest(transportNATS, outcomeLabel(status), 0)
		r.reply(msg, mustErrorReply(fmt.Sprintf("insight workers unavailable: %v", err), status))
	}
}

func (r *InsightResponder) respond(msg *nats.Msg) {
	defer observer.SetInsightPoolStats(r.pool.Running(), r.pool.Waiting())
	r.reply(msg, r.answer(r.ctx, msg.Data))
}

func (r *InsightResponder) reply(msg *nats.Msg, data []byte) {
	if msg.Reply == "" {
		logger.FromContext(r.ctx).Warn("Insight request without reply subject dropped", zap.String("subject", msg.Subject))
		return
	}
	if err := msg.Respond(data); err != nil {
		logger.FromContext(r.ctx).Error("Failed to send insight reply", zap.Error(err))
	}
}

// answer decodes one request, runs it and encodes the reply.
func (r *InsightResponder) answer(ctx context.Context, data []byte) []byte {
	start := utils.Now()
	requestID := uuid.NewString()
	ctx = tenant.WithRequestID(ctx, requestID)
	log := logger.FromContext(ctx).With(zap.String("request_id", requestID))
	ctx = logger.WithLogger(ctx, log)

	var req model.InsightRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn("Malformed insight request", zap.Error(err))
		observer.ObserveInsightRequest(transportNATS, outcomeLabel(http.StatusBadRequest), time.Since(start))
		return mustErrorReply(fmt.Sprintf("%v: malformed request: %v", apperrors.ErrBadRequest, err), http.StatusBadRequest)
	}
	if req.OwnerID != "" {
		ctx = tenant.WithOwnerID(ctx, req.OwnerID)
	}

	resp, err := r.service.GetCustomerInsights(ctx, req)
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("Insight request failed", zap.Error(err))
		}
		observer.ObserveInsightRequest(transportNATS, outcomeLabel(status), time.Since(start))
		return mustErrorReply(publicMessage(err, status), status)
	}

	observer.ObserveInsightRequest(transportNATS, outcomeLabel(http.StatusOK), time.Since(start))
	return utils.MustMarshalJSON(resp)
}

func mustErrorReply(message string, code int) []byte {
	return utils.MustMarshalJSON(model.ErrorReply{Error: message, Code: code})
}

// publicMessage hides internal error detail from callers.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError && !errors.Is(err, apperrors.ErrTimeout) {
		return "internal error"
	}
	return err.Error()
}

func outcomeLabel(status int) string {
	switch {
	case status < 400:
		return "ok"
	case status == http.StatusNotFound:
		return "not_found"
	case status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}
