package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chittyos/trustengine/internal/activity"
	"github.com/chittyos/trustengine/internal/analytics"
	"github.com/chittyos/trustengine/internal/domain"
	"github.com/chittyos/trustengine/internal/repository"
	"github.com/chittyos/trustengine/internal/trust"
	"github.com/chittyos/trustengine/internal/watch"
)

// assessmentTTL bounds how long a computed assessment may be served
// from cache before stored records are re-read.
const assessmentTTL = 5 * time.Minute

// defaultActivityWindow is the lookback for activity counts, in seconds.
const defaultActivityWindow = 3600

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	engine   *trust.Engine
	analyzer *analytics.Analyzer
	watches  *watch.Engine
	activity *activity.Service
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *trust.Engine, analyzer *analytics.Analyzer, watches *watch.Engine, activitySvc *activity.Service, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		engine:   engine,
		analyzer: analyzer,
		watches:  watches,
		activity: activitySvc,
		version:  version,
	}
}

// AssessRequest is the request body for POST /assess.
type AssessRequest struct {
	Entity  *domain.TrustEntity  `json:"entity"`
	Events  []*domain.TrustEvent `json:"events"`
	Context map[string]any       `json:"context,omitempty"`
}

// AssessResponse is the response for assessment endpoints.
type AssessResponse struct {
	EntityID     string               `json:"entityId"`
	Score        domain.ScoreParts    `json:"score"`
	WatchResults []domain.WatchResult `json:"watchResults,omitempty"`
	Cached       bool                 `json:"cached"`
	Metadata     struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// Assess handles POST /assess: a one-shot assessment over inline
// records. Nothing is persisted or cached.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	traceID := GetTraceID(ctx)

	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	score, err := h.engine.Assess(ctx, req.Entity, req.Events, req.Context)
	if err != nil {
		writeAssessError(w, err)
		return
	}

	resp := AssessResponse{
		EntityID: req.Entity.ID,
		Score:    score.Parts(),
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// CreateEntity handles POST /entities.
func (h *Handler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var entity domain.TrustEntity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	if err := h.repo.SaveEntity(ctx, tenantID, &entity); err != nil {
		if errors.Is(err, repository.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("failed to save entity", "id", entity.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save entity",
		})
		return
	}

	writeJSON(w, http.StatusCreated, &entity)
}

// GetEntity handles GET /entities/{id}.
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	entityID := chi.URLParam(r, "id")

	entity, err := h.repo.GetEntity(ctx, tenantID, entityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "entity not found",
			})
			return
		}
		slog.Error("failed to get entity", "id", entityID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get entity",
		})
		return
	}

	writeJSON(w, http.StatusOK, entity)
}

// AppendEventsRequest is the request body for POST /entities/{id}/events.
type AppendEventsRequest struct {
	Events []*domain.TrustEvent `json:"events"`
}

// AppendEvents handles POST /entities/{id}/events: validates and
// appends a batch of events, invalidates any cached assessment, and
// publishes an event-recorded message for the async pipeline.
func (h *Handler) AppendEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	entityID := chi.URLParam(r, "id")

	var req AppendEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if len(req.Events) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "at least one event is required",
		})
		return
	}

	if _, err := h.repo.GetEntity(ctx, tenantID, entityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "entity not found",
			})
			return
		}
		slog.Error("failed to get entity", "id", entityID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get entity",
		})
		return
	}

	for _, ev := range req.Events {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		if ev.EntityID == "" {
			ev.EntityID = entityID
		}
	}

	if err := domain.ValidateEvents(entityID, req.Events); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	for _, ev := range req.Events {
		if err := h.repo.SaveEvent(ctx, tenantID, ev); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "duplicate event id: " + ev.ID,
				})
				return
			}
			slog.Error("failed to save event", "id", ev.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save event",
			})
			return
		}
	}

	// The stored history changed, so any cached assessment is stale.
	if h.cache != nil {
		if err := h.cache.Delete(ctx, tenantID, "assessment:"+entityID); err != nil {
			slog.Warn("failed to invalidate cached assessment", "entity", entityID, "error", err)
		}
	}

	if h.activity != nil {
		for range req.Events {
			h.activity.Touch(ctx, tenantID, entityID, time.Duration(defaultActivityWindow)*time.Second)
		}
	}

	h.publish(ctx, tenantID, domain.TopicEventRecorded, map[string]any{
		"entityId": entityID,
		"count":    len(req.Events),
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"entityId": entityID,
		"saved":    len(req.Events),
	})
}

// AssessEntity handles POST /entities/{id}/assess: assessment over the
// stored record history, served from cache when fresh. Loaded watches
// run against the resulting score.
func (h *Handler) AssessEntity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	entityID := chi.URLParam(r, "id")
	traceID := GetTraceID(ctx)

	refresh := r.URL.Query().Get("refresh") == "true"

	if h.cache != nil && !refresh {
		parts, err := h.cache.GetAssessment(ctx, tenantID, entityID)
		if err != nil {
			slog.Warn("assessment cache read failed", "entity", entityID, "error", err)
		}
		if parts != nil {
			resp := AssessResponse{
				EntityID: entityID,
				Score:    *parts,
				Cached:   true,
			}
			resp.Metadata.TraceID = traceID
			resp.Metadata.TotalMs = time.Since(start).Milliseconds()
			resp.Metadata.Version = h.version
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	entity, events, ok := h.loadRecords(w, r, tenantID, entityID)
	if !ok {
		return
	}

	score, err := h.engine.Assess(ctx, entity, events, nil)
	if err != nil {
		writeAssessError(w, err)
		return
	}

	parts := score.Parts()

	if h.cache != nil {
		if err := h.cache.SetAssessment(ctx, tenantID, entityID, &parts, assessmentTTL); err != nil {
			slog.Warn("assessment cache write failed", "entity", entityID, "error", err)
		}
	}

	var watchResults []domain.WatchResult
	if h.watches != nil && h.watches.WatchCount() > 0 {
		watchResults, err = h.watches.EvaluateAll(ctx, &watch.EvaluateInput{
			TenantID:       tenantID,
			EntityID:       entityID,
			Score:          score,
			EventCount:     int64(len(events)),
			ActivityWindow: defaultActivityWindow,
		})
		if err != nil {
			slog.Error("watch evaluation failed", "entity", entityID, "error", err)
		}
		for _, res := range watchResults {
			if res.Outcome == domain.WatchOutcomeAlert {
				h.publish(ctx, tenantID, domain.TopicAlert, res)
			}
		}
	}

	h.publish(ctx, tenantID, domain.TopicAssessmentCompleted, map[string]any{
		"entityId": entityID,
		"score":    parts,
	})

	resp := AssessResponse{
		EntityID:     entityID,
		Score:        parts,
		WatchResults: watchResults,
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// GetInsights handles GET /entities/{id}/insights.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	entityID := chi.URLParam(r, "id")

	entity, events, ok := h.loadRecords(w, r, tenantID, entityID)
	if !ok {
		return
	}

	score, err := h.engine.Assess(ctx, entity, events, nil)
	if err != nil {
		writeAssessError(w, err)
		return
	}

	insights := h.analyzer.Insights(entity, events, score.Dimensions())

	writeJSON(w, http.StatusOK, map[string]any{
		"entityId": entityID,
		"insights": insights,
		"count":    len(insights),
	})
}

// GetPatterns handles GET /entities/{id}/patterns.
func (h *Handler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	tenantID := GetTenantID(r.Context())
	entityID := chi.URLParam(r, "id")

	entity, events, ok := h.loadRecords(w, r, tenantID, entityID)
	if !ok {
		return
	}

	patterns := h.analyzer.Patterns(entity, events)

	writeJSON(w, http.StatusOK, map[string]any{
		"entityId": entityID,
		"patterns": patterns,
		"count":    len(patterns),
	})
}

// GetIntervals handles GET /entities/{id}/intervals.
func (h *Handler) GetIntervals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	entityID := chi.URLParam(r, "id")

	entity, events, ok := h.loadRecords(w, r, tenantID, entityID)
	if !ok {
		return
	}

	score, err := h.engine.Assess(ctx, entity, events, nil)
	if err != nil {
		writeAssessError(w, err)
		return
	}

	intervals := h.analyzer.ConfidenceIntervals(score.Dimensions(), events)

	writeJSON(w, http.StatusOK, map[string]any{
		"entityId":  entityID,
		"intervals": intervals,
	})
}

// GetActivity handles GET /entities/{id}/activity?window=SECONDS.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	entityID := chi.URLParam(r, "id")

	window := defaultActivityWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "window must be a positive number of seconds",
			})
			return
		}
		window = parsed
	}

	count, err := h.activity.GetEventCount(ctx, tenantID, entityID, window)
	if err != nil {
		slog.Error("failed to count activity", "entity", entityID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to count activity",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entityId":   entityID,
		"windowSecs": window,
		"count":      count,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GlobalTenantID is used for watches that apply to all tenants.
const GlobalTenantID = "*"

// ListWatches returns all loaded watches from the engine.
// Watches are loaded from the database at startup and can be reloaded
// via POST /watches/reload.
func (h *Handler) ListWatches(w http.ResponseWriter, r *http.Request) {
	loaded := h.watches.GetLoadedWatches()

	writeJSON(w, http.StatusOK, map[string]any{
		"watches": loaded,
		"count":   len(loaded),
		"source":  "database",
	})
}

// GetWatch retrieves a watch by ID from the loaded engine watches.
func (h *Handler) GetWatch(w http.ResponseWriter, r *http.Request) {
	watchID := chi.URLParam(r, "id")

	for _, cfg := range h.watches.GetLoadedWatches() {
		if cfg.ID == watchID {
			writeJSON(w, http.StatusOK, cfg)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "watch not found",
	})
}

// CreateWatchRequest is the request body for creating a watch.
type CreateWatchRequest struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Expression  string             `json:"expression"`
	Bands       []domain.WatchBand `json:"bands"`
	Enabled     bool               `json:"enabled"`
}

// CreateWatch creates a new watch and saves it to the database.
// Watches are saved globally (tenant_id = "*") so they apply to all
// tenants. After saving, call POST /watches/reload to hot-reload into
// the engine.
func (h *Handler) CreateWatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	cfg := &domain.WatchConfig{
		ID:          req.ID,
		TenantID:    GlobalTenantID,
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0.0",
		Expression:  req.Expression,
		Bands:       req.Bands,
		Enabled:     req.Enabled,
	}

	// Validate CEL expression by attempting to load
	if err := h.watches.LoadWatch(cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if err := h.repo.SaveWatchConfig(ctx, GlobalTenantID, cfg); err != nil {
		slog.Error("failed to save watch config", "id", cfg.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save watch",
		})
		return
	}

	slog.Info("watch created", "id", cfg.ID, "name", cfg.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"watch":   cfg,
		"message": "Watch created. Call POST /watches/reload to apply changes.",
	})
}

// UpdateWatch updates an existing watch.
func (h *Handler) UpdateWatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	watchID := chi.URLParam(r, "id")

	var req CreateWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name and expression are required",
		})
		return
	}

	cfg := &domain.WatchConfig{
		ID:          watchID,
		TenantID:    GlobalTenantID,
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0.0",
		Expression:  req.Expression,
		Bands:       req.Bands,
		Enabled:     req.Enabled,
	}

	if err := h.watches.ValidateWatch(cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if err := h.repo.SaveWatchConfig(ctx, GlobalTenantID, cfg); err != nil {
		slog.Error("failed to update watch", "id", watchID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to update watch",
		})
		return
	}

	slog.Info("watch updated", "id", watchID)
	writeJSON(w, http.StatusOK, map[string]any{
		"watch":   cfg,
		"message": "Watch updated. Call POST /watches/reload to apply changes.",
	})
}

// DeleteWatch disables a watch and auto-reloads the engine.
func (h *Handler) DeleteWatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	watchID := chi.URLParam(r, "id")

	if err := h.repo.DeleteWatchConfig(ctx, GlobalTenantID, watchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "watch not found",
			})
			return
		}
		slog.Error("failed to delete watch", "id", watchID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to delete watch",
		})
		return
	}

	// Auto-reload after delete
	configs, err := h.repo.ListWatchConfigs(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to reload watches after delete", "error", err)
	} else if err := h.watches.ReloadWatches(configs); err != nil {
		slog.Error("failed to reload watches after delete", "error", err)
	} else {
		slog.Info("watches auto-reloaded after delete", "count", len(configs))
	}

	slog.Info("watch deleted", "id", watchID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Watch deleted and engine reloaded.",
	})
}

// ReloadWatches reloads all watches from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadWatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	configs, err := h.repo.ListWatchConfigs(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list watches from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load watches from database",
		})
		return
	}

	if err := h.watches.ReloadWatches(configs); err != nil {
		slog.Error("failed to reload watches into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload watches: " + err.Error(),
		})
		return
	}

	slog.Info("watches reloaded from database", "count", len(configs))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "watches reloaded successfully",
		"count":   len(configs),
	})
}

// loadRecords fetches the entity and its event history, writing the
// error response itself when either lookup fails.
func (h *Handler) loadRecords(w http.ResponseWriter, r *http.Request, tenantID, entityID string) (*domain.TrustEntity, []*domain.TrustEvent, bool) {
	ctx := r.Context()

	entity, err := h.repo.GetEntity(ctx, tenantID, entityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "entity not found",
			})
			return nil, nil, false
		}
		slog.Error("failed to get entity", "id", entityID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get entity",
		})
		return nil, nil, false
	}

	events, err := h.repo.GetEventsByEntity(ctx, tenantID, entityID)
	if err != nil {
		slog.Error("failed to get events", "entity", entityID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get events",
		})
		return nil, nil, false
	}

	return entity, events, true
}

// publish sends a message on the bus, logging on failure. Publication
// is best-effort; the synchronous response never depends on it.
func (h *Handler) publish(ctx context.Context, tenantID, topic string, payload any) {
	if h.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal bus payload", "topic", topic, "error", err)
		return
	}
	if err := h.bus.Publish(ctx, tenantID, topic, data); err != nil {
		slog.Error("failed to publish message", "topic", topic, "error", err)
	}
}

// writeAssessError maps assessment errors onto HTTP statuses.
func writeAssessError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
		})
		return
	}
	slog.Error("assessment failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "assessment failed",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
