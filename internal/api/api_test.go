package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/chittyos/trustengine/internal/activity"
	"github.com/chittyos/trustengine/internal/analytics"
	"github.com/chittyos/trustengine/internal/bus"
	"github.com/chittyos/trustengine/internal/cache"
	"github.com/chittyos/trustengine/internal/domain"
	"github.com/chittyos/trustengine/internal/repository"
	"github.com/chittyos/trustengine/internal/trust"
	"github.com/chittyos/trustengine/internal/watch"
)

// createTestServer wires a server over a temp SQLite repository with
// in-process cache and bus.
func createTestServer(t *testing.T) (*Server, domain.Repository) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	lru := cache.NewLRUCache(100)
	t.Cleanup(func() { lru.Close() })

	channelBus := bus.NewChannelBus(100)
	t.Cleanup(func() { channelBus.Close() })

	activitySvc := activity.NewService(repo, lru)

	watches, err := watch.NewEngine(activitySvc.GetActivityGetter(), 5)
	if err != nil {
		t.Fatalf("failed to create watch engine: %v", err)
	}
	t.Cleanup(func() { watches.Close() })

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	server := NewServer(cfg, repo, lru, channelBus, trust.NewEngine(), analytics.NewAnalyzer(), watches, activitySvc, "test-v1")
	return server, repo
}

// doJSON performs a tenant-scoped JSON request against the server.
func doJSON(server *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-001")

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

// seedPersona stores a demo persona's entity and events.
func seedPersona(t *testing.T, repo domain.Repository, personaID string) (*domain.TrustEntity, []*domain.TrustEvent) {
	t.Helper()

	entity, events := trust.Persona(personaID)
	if entity == nil {
		t.Fatalf("unknown persona %q", personaID)
	}
	ctx := context.Background()
	if err := repo.SaveEntity(ctx, "tenant-001", entity); err != nil {
		t.Fatalf("failed to seed entity: %v", err)
	}
	for _, ev := range events {
		if err := repo.SaveEvent(ctx, "tenant-001", ev); err != nil {
			t.Fatalf("failed to seed event %s: %v", ev.ID, err)
		}
	}
	return entity, events
}

func TestAssessEndpoint(t *testing.T) {
	server, _ := createTestServer(t)

	t.Run("SuccessfulAssessment", func(t *testing.T) {
		entity, events := trust.Persona("alice")
		rr := doJSON(server, http.MethodPost, "/assess", AssessRequest{
			Entity: entity,
			Events: events,
		})

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp AssessResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.EntityID != entity.ID {
			t.Errorf("expected entityId %s, got %s", entity.ID, resp.EntityID)
		}
		if len(resp.Score.Dimensions) != 6 {
			t.Errorf("expected 6 dimensions, got %d", len(resp.Score.Dimensions))
		}
		composite := resp.Score.Scores["composite"]
		if composite <= 0 || composite > 100 {
			t.Errorf("composite %.2f out of range", composite)
		}
		if resp.Cached {
			t.Error("inline assessment must not be cached")
		}
		if resp.Metadata.Version != "test-v1" {
			t.Errorf("expected version test-v1, got %s", resp.Metadata.Version)
		}
		if resp.Metadata.TraceID == "" {
			t.Error("expected traceId in metadata")
		}
	})

	t.Run("MissingTenantID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/assess", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		// No X-Tenant-ID header

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/assess", bytes.NewBufferString("not-json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MissingEntity", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/assess", AssessRequest{})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidTransparency", func(t *testing.T) {
		entity, _ := trust.Persona("alice")
		entity.TransparencyLevel = 1.5

		rr := doJSON(server, http.MethodPost, "/assess", AssessRequest{Entity: entity})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("ResponseHeaders", func(t *testing.T) {
		entity, _ := trust.Persona("bob")
		rr := doJSON(server, http.MethodPost, "/assess", AssessRequest{Entity: entity})

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header in response")
		}
		if rr.Header().Get("X-Trace-ID") == "" {
			t.Error("expected X-Trace-ID header in response")
		}
		if rr.Header().Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
	})
}

func TestEntityEndpoints(t *testing.T) {
	server, _ := createTestServer(t)

	entity, _ := trust.Persona("bob")

	t.Run("CreateEntity", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities", entity)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("GetEntity", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/entities/"+entity.ID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var got domain.TrustEntity
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if got.ID != entity.ID {
			t.Errorf("expected id %s, got %s", entity.ID, got.ID)
		}
		if len(got.Credentials) != len(entity.Credentials) {
			t.Errorf("expected %d credentials, got %d", len(entity.Credentials), len(got.Credentials))
		}
	})

	t.Run("GetUnknownEntity", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/entities/no-such-entity", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("CreateInvalidEntity", func(t *testing.T) {
		bad := *entity
		bad.TransparencyLevel = 2.0
		rr := doJSON(server, http.MethodPost, "/entities", &bad)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestEventAndStoredAssessment(t *testing.T) {
	server, _ := createTestServer(t)

	entity, _ := trust.Persona("alice")
	if rr := doJSON(server, http.MethodPost, "/entities", entity); rr.Code != http.StatusCreated {
		t.Fatalf("seed entity failed: %d", rr.Code)
	}

	newEvent := func(id string) *domain.TrustEvent {
		return &domain.TrustEvent{
			ID:          id,
			EntityID:    entity.ID,
			EventType:   domain.EventTransaction,
			Timestamp:   time.Now().UTC().Add(-time.Hour),
			Channel:     "verified_api",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 5,
		}
	}

	t.Run("AppendEvents", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/events", AppendEventsRequest{
			Events: []*domain.TrustEvent{newEvent("ev-1"), newEvent("ev-2")},
		})
		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp map[string]any
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["saved"] != float64(2) {
			t.Errorf("expected saved 2, got %v", resp["saved"])
		}
	})

	t.Run("DuplicateEventID", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/events", AppendEventsRequest{
			Events: []*domain.TrustEvent{newEvent("ev-1")},
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for duplicate id, got %d", rr.Code)
		}
	})

	t.Run("EntityMismatch", func(t *testing.T) {
		ev := newEvent("ev-3")
		ev.EntityID = "someone-else"
		rr := doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/events", AppendEventsRequest{
			Events: []*domain.TrustEvent{ev},
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for entity mismatch, got %d", rr.Code)
		}
	})

	t.Run("EventsForUnknownEntity", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities/no-such-entity/events", AppendEventsRequest{
			Events: []*domain.TrustEvent{newEvent("ev-4")},
		})
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/events", AppendEventsRequest{})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("StoredAssessment", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/assess", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var first AssessResponse
		json.Unmarshal(rr.Body.Bytes(), &first)
		if first.Cached {
			t.Error("first assessment should not be cached")
		}
		if first.Score.Scores["composite"] <= 0 {
			t.Errorf("unexpected composite %.2f", first.Score.Scores["composite"])
		}

		// Second call should come from cache
		rr = doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/assess", nil)
		var second AssessResponse
		json.Unmarshal(rr.Body.Bytes(), &second)
		if !second.Cached {
			t.Error("second assessment should be cached")
		}
		if second.Score.Scores["composite"] != first.Score.Scores["composite"] {
			t.Error("cached composite differs from computed one")
		}

		// Appending an event invalidates the cached assessment
		rr = doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/events", AppendEventsRequest{
			Events: []*domain.TrustEvent{newEvent("ev-5")},
		})
		if rr.Code != http.StatusAccepted {
			t.Fatalf("append failed: %d", rr.Code)
		}

		rr = doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/assess", nil)
		var third AssessResponse
		json.Unmarshal(rr.Body.Bytes(), &third)
		if third.Cached {
			t.Error("assessment after new events should be recomputed")
		}
	})

	t.Run("RefreshBypassesCache", func(t *testing.T) {
		doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/assess", nil)

		rr := doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/assess?refresh=true", nil)
		var resp AssessResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Cached {
			t.Error("refresh=true should bypass the cache")
		}
	})

	t.Run("AssessUnknownEntity", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities/no-such-entity/assess", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestAnalyticsEndpoints(t *testing.T) {
	server, repo := createTestServer(t)
	entity, events := seedPersona(t, repo, "alice")

	t.Run("Insights", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/entities/"+entity.ID+"/insights", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp struct {
			Insights []domain.TrustInsight `json:"insights"`
			Count    int                   `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count == 0 {
			t.Error("expected at least one insight for alice")
		}
		for i := 1; i < len(resp.Insights); i++ {
			if resp.Insights[i].Confidence > resp.Insights[i-1].Confidence {
				t.Error("insights not sorted by descending confidence")
				break
			}
		}
	})

	t.Run("Patterns", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/entities/"+entity.ID+"/patterns", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("Intervals", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/entities/"+entity.ID+"/intervals", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Intervals map[string]domain.ScoreInterval `json:"intervals"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if len(resp.Intervals) != 6 {
			t.Errorf("expected 6 intervals, got %d", len(resp.Intervals))
		}
		for dim, iv := range resp.Intervals {
			if iv.Lower < 0 || iv.Upper > 100 || iv.Lower > iv.Upper {
				t.Errorf("%s: malformed interval [%.1f, %.1f]", dim, iv.Lower, iv.Upper)
			}
		}
	})

	t.Run("Activity", func(t *testing.T) {
		// Window wide enough to cover the persona's full history
		path := fmt.Sprintf("/entities/%s/activity?window=%d", entity.ID, 10*365*24*3600)
		rr := doJSON(server, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp struct {
			Count int64 `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != int64(len(events)) {
			t.Errorf("expected count %d, got %d", len(events), resp.Count)
		}
	})

	t.Run("ActivityInvalidWindow", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/entities/"+entity.ID+"/activity?window=bogus", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("UnknownEntity", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/entities/no-such-entity/insights", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestWatchEndpoints(t *testing.T) {
	server, repo := createTestServer(t)
	entity, _ := seedPersona(t, repo, "charlie")

	create := CreateWatchRequest{
		ID:         "low-composite-001",
		Name:       "Low Composite Alert",
		Expression: "composite < 20.0 ? 1.0 : 0.0",
		Bands: []domain.WatchBand{
			{UpperLimit: ptr(1.0), Outcome: domain.WatchOutcomePass, Reason: "Composite healthy"},
			{LowerLimit: ptr(1.0), Outcome: domain.WatchOutcomeAlert, Reason: "Composite critically low"},
		},
		Enabled: true,
	}

	t.Run("CreateWatch", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/watches", create)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("CreateInvalidExpression", func(t *testing.T) {
		bad := create
		bad.ID = "bad-watch"
		bad.Expression = "not valid CEL !!!"
		rr := doJSON(server, http.MethodPost, "/watches", bad)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ListWatches", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/watches", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 watch, got %d", resp.Count)
		}
	})

	t.Run("GetWatch", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/watches/"+create.ID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("GetUnknownWatch", func(t *testing.T) {
		rr := doJSON(server, http.MethodGet, "/watches/no-such-watch", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("AssessmentRunsWatches", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/entities/"+entity.ID+"/assess?refresh=true", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp AssessResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if len(resp.WatchResults) != 1 {
			t.Fatalf("expected 1 watch result, got %d", len(resp.WatchResults))
		}
		if resp.WatchResults[0].WatchID != create.ID {
			t.Errorf("unexpected watch id %s", resp.WatchResults[0].WatchID)
		}
	})

	t.Run("UpdateWatch", func(t *testing.T) {
		update := create
		update.Expression = "composite < 30.0 ? 1.0 : 0.0"
		rr := doJSON(server, http.MethodPut, "/watches/"+create.ID, update)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("ReloadWatches", func(t *testing.T) {
		rr := doJSON(server, http.MethodPost, "/watches/reload", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 reloaded watch, got %d", resp.Count)
		}
	})

	t.Run("DeleteWatch", func(t *testing.T) {
		rr := doJSON(server, http.MethodDelete, "/watches/"+create.ID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		rr = doJSON(server, http.MethodGet, "/watches", nil)
		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 0 {
			t.Errorf("expected 0 watches after delete, got %d", resp.Count)
		}
	})

	t.Run("DeleteUnknownWatch", func(t *testing.T) {
		rr := doJSON(server, http.MethodDelete, "/watches/no-such-watch", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := createTestServer(t)

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got '%s'", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version 'test-v1', got '%s'", resp["version"])
		}
	})

	t.Run("ReadyCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("TenantMiddlewareExtractsID", func(t *testing.T) {
		var capturedTenantID string

		handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedTenantID = GetTenantID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant-ID", "my-tenant-123")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedTenantID != "my-tenant-123" {
			t.Errorf("expected tenant ID 'my-tenant-123', got '%s'", capturedTenantID)
		}
	})

	t.Run("TracingMiddlewareSetsRequestID", func(t *testing.T) {
		var capturedRequestID string

		handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(RequestIDKey).(string); ok {
				capturedRequestID = v
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedRequestID == "" {
			t.Error("expected request ID to be set")
		}

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("RecoverMiddlewareHandlesPanic", func(t *testing.T) {
		handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// Should not panic
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})
}

func ptr(v float64) *float64 {
	return &v
}
