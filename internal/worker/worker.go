// Package worker provides async assessment processing from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/chittyos/trustengine/internal/domain"
	"github.com/chittyos/trustengine/internal/trust"
	"github.com/chittyos/trustengine/internal/watch"
)

// assessmentTTL matches the API layer's cache lifetime for computed
// assessments.
const assessmentTTL = 5 * time.Minute

// Worker reassesses entities when new events are recorded.
type Worker struct {
	bus     domain.EventBus
	repo    domain.Repository
	cache   domain.Cache
	engine  *trust.Engine
	watches *watch.Engine

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, cache domain.Cache, engine *trust.Engine, watches *watch.Engine) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     bus,
		repo:    repo,
		cache:   cache,
		engine:  engine,
		watches: watches,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicEventRecorded, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicEventRecorded, func(ctx context.Context, msg *domain.Message) error {
		return w.processRecordedEvents(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicEventRecorded,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processRecordedEvents(ctx, msg.TenantID, msg)
}

// EventRecordedMessage is the message payload published when events are
// appended to an entity's history.
type EventRecordedMessage struct {
	EntityID string `json:"entityId"`
	TenantID string `json:"tenantId,omitempty"`
	TraceID  string `json:"traceId,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// AssessmentMessage is published on the assessment-completed topic.
type AssessmentMessage struct {
	EntityID     string               `json:"entityId"`
	TenantID     string               `json:"tenantId"`
	TraceID      string               `json:"traceId,omitempty"`
	Score        domain.ScoreParts    `json:"score"`
	WatchResults []domain.WatchResult `json:"watchResults,omitempty"`
}

// processRecordedEvents reassesses an entity after new events.
func (w *Worker) processRecordedEvents(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var evMsg EventRecordedMessage
	if err := json.Unmarshal(msg.Payload, &evMsg); err != nil {
		slog.Error("failed to parse event-recorded message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if evMsg.TenantID != "" {
		tenantID = evMsg.TenantID
	}

	traceID := evMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("reassessing entity",
		"entity_id", evMsg.EntityID,
		"tenant_id", tenantID,
		"trace_id", traceID,
	)

	// 1. Load the stored records
	entity, err := w.repo.GetEntity(ctx, tenantID, evMsg.EntityID)
	if err != nil {
		slog.Error("failed to load entity",
			"entity_id", evMsg.EntityID,
			"error", err,
		)
		return err
	}

	events, err := w.repo.GetEventsByEntity(ctx, tenantID, evMsg.EntityID)
	if err != nil {
		slog.Error("failed to load events",
			"entity_id", evMsg.EntityID,
			"error", err,
		)
		return err
	}

	// 2. Assess
	score, err := w.engine.Assess(ctx, entity, events, nil)
	if err != nil {
		slog.Error("assessment failed",
			"entity_id", evMsg.EntityID,
			"error", err,
		)
		return err
	}

	parts := score.Parts()

	// 3. Refresh the cached assessment
	if w.cache != nil {
		if err := w.cache.SetAssessment(ctx, tenantID, evMsg.EntityID, &parts, assessmentTTL); err != nil {
			slog.Error("failed to cache assessment",
				"entity_id", evMsg.EntityID,
				"error", err,
			)
		}
	}

	// 4. Run watches against the fresh score
	var watchResults []domain.WatchResult
	if w.watches != nil && w.watches.WatchCount() > 0 {
		evalInput := &watch.EvaluateInput{
			TenantID:   tenantID,
			EntityID:   evMsg.EntityID,
			Score:      score,
			EventCount: int64(len(events)),
		}

		if evalInput.ActivityWindow == 0 {
			evalInput.ActivityWindow = 3600 // Default 1 hour
		}

		watchResults, err = w.watches.EvaluateAll(ctx, evalInput)
		if err != nil {
			slog.Error("watch evaluation failed",
				"entity_id", evMsg.EntityID,
				"error", err,
			)
		}
	}

	// 5. Publish the completed assessment
	result := AssessmentMessage{
		EntityID:     evMsg.EntityID,
		TenantID:     tenantID,
		TraceID:      traceID,
		Score:        parts,
		WatchResults: watchResults,
	}
	resultPayload, _ := json.Marshal(result)
	if err := w.bus.Publish(ctx, tenantID, domain.TopicAssessmentCompleted, resultPayload); err != nil {
		slog.Error("failed to publish assessment",
			"entity_id", evMsg.EntityID,
			"error", err,
		)
	}

	// 6. Publish any alert outcomes
	for _, res := range watchResults {
		if res.Outcome != domain.WatchOutcomeAlert {
			continue
		}
		alertPayload, _ := json.Marshal(res)
		if err := w.bus.Publish(ctx, tenantID, domain.TopicAlert, alertPayload); err != nil {
			slog.Error("failed to publish alert",
				"entity_id", evMsg.EntityID,
				"watch_id", res.WatchID,
				"error", err,
			)
		}
	}

	slog.Info("entity reassessed",
		"entity_id", evMsg.EntityID,
		"tenant_id", tenantID,
		"composite", parts.Scores["composite"],
		"watch_results", len(watchResults),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
