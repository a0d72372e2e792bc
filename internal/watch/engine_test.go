package watch

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chittyos/trustengine/internal/domain"
)

// uniformScore returns a score with every dimension set to v, so the
// composite is also v.
func uniformScore(v float64) *domain.TrustScore {
	return &domain.TrustScore{
		SourceScore:   v,
		TemporalScore: v,
		ChannelScore:  v,
		OutcomeScore:  v,
		NetworkScore:  v,
		JusticeScore:  v,
		PeopleScore:   v,
		LegalScore:    v,
		StateScore:    v,
		ChittyScore:   v,
		Confidence:    0.8,
		CalculatedAt:  time.Now().UTC(),
	}
}

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine(nil, 5)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.WatchCount() != 0 {
		t.Errorf("expected 0 watches, got %d", engine.WatchCount())
	}
}

func TestLoadWatch(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	cfg := &domain.WatchConfig{
		ID:         "test-watch-001",
		Name:       "Test Watch",
		Expression: "composite < 40.0",
		Bands:      []domain.WatchBand{},
		Enabled:    true,
	}

	err := engine.LoadWatch(cfg)
	if err != nil {
		t.Fatalf("failed to load watch: %v", err)
	}

	if engine.WatchCount() != 1 {
		t.Errorf("expected 1 watch, got %d", engine.WatchCount())
	}
}

func TestLoadInvalidWatch(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	cfg := &domain.WatchConfig{
		ID:         "invalid-watch",
		Name:       "Invalid Watch",
		Expression: "this is not valid CEL !!!",
		Enabled:    true,
	}

	err := engine.LoadWatch(cfg)
	if err == nil {
		t.Error("expected error for invalid CEL expression")
	}
}

func TestValidateWatchDoesNotLoad(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	cfg := &domain.WatchConfig{
		ID:         "validate-only",
		Expression: "chitty < 30.0",
		Enabled:    true,
	}

	if err := engine.ValidateWatch(cfg); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if engine.WatchCount() != 0 {
		t.Errorf("validate should not load, got %d watches", engine.WatchCount())
	}

	if err := engine.ValidateWatch(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestEvaluateBandedWatch(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	zero := 0.0
	one := 1.0

	cfg := &domain.WatchConfig{
		ID:         "low-composite",
		Name:       "Low Composite Check",
		Expression: "composite < 40.0 ? 1.0 : 0.0",
		Bands: []domain.WatchBand{
			{LowerLimit: &zero, UpperLimit: &one, Outcome: domain.WatchOutcomePass, Reason: "Composite healthy"},
			{LowerLimit: &one, UpperLimit: nil, Outcome: domain.WatchOutcomeAlert, Reason: "Composite below threshold"},
		},
		Enabled: true,
	}

	engine.LoadWatch(cfg)

	ctx := context.Background()

	// Healthy score
	input := &EvaluateInput{
		TenantID: "tenant-001",
		EntityID: "entity-001",
		Score:    uniformScore(75),
	}

	results, err := engine.EvaluateAll(ctx, input)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Value != 0.0 {
		t.Errorf("expected value 0.0 for healthy score, got %.2f", results[0].Value)
	}
	if results[0].Outcome != domain.WatchOutcomePass {
		t.Errorf("expected pass, got %s", results[0].Outcome)
	}

	// Low score
	input.Score = uniformScore(25)
	results, _ = engine.EvaluateAll(ctx, input)

	if results[0].Value != 1.0 {
		t.Errorf("expected value 1.0 for low score, got %.2f", results[0].Value)
	}
	if results[0].Outcome != domain.WatchOutcomeAlert {
		t.Errorf("expected alert, got %s", results[0].Outcome)
	}
	if results[0].Reason != "Composite below threshold" {
		t.Errorf("unexpected reason: %s", results[0].Reason)
	}
}

func TestEvaluateBooleanWatch(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	cfg := &domain.WatchConfig{
		ID:         "low-confidence",
		Name:       "Low Confidence Check",
		Expression: "confidence < 0.3",
		Bands:      []domain.WatchBand{},
		Enabled:    true,
	}

	engine.LoadWatch(cfg)

	ctx := context.Background()

	score := uniformScore(50)
	score.Confidence = 0.8

	input := &EvaluateInput{
		TenantID: "tenant-001",
		EntityID: "entity-001",
		Score:    score,
	}

	results, _ := engine.EvaluateAll(ctx, input)
	if results[0].Value != 0.0 {
		t.Errorf("expected value 0.0 for confident score, got %.2f", results[0].Value)
	}

	score.Confidence = 0.15
	results, _ = engine.EvaluateAll(ctx, input)
	if results[0].Value != 1.0 {
		t.Errorf("expected value 1.0 for low confidence, got %.2f", results[0].Value)
	}
}

func TestActivityWatch(t *testing.T) {
	// Mock activity getter that returns a fixed count
	activityGetter := func(ctx context.Context, tenantID, entityID string, windowSecs int) (int64, error) {
		return 15, nil // Simulates 15 events in window
	}

	engine, _ := NewEngine(activityGetter, 5)
	defer engine.Close()

	zero := 0.0
	half := 0.5
	one := 1.0

	cfg := &domain.WatchConfig{
		ID:          "activity-spike-001",
		Name:        "Activity Spike Check",
		Description: "Flags entities with unusually high recent event frequency",
		Version:     "1.0.0",
		Expression:  "activity_count > 10 ? 1.0 : (activity_count > 5 ? 0.5 : 0.0)",
		Bands: []domain.WatchBand{
			{LowerLimit: &zero, UpperLimit: &half, Outcome: domain.WatchOutcomePass, Reason: "Normal activity"},
			{LowerLimit: &half, UpperLimit: &one, Outcome: domain.WatchOutcomeReview, Reason: "Elevated activity"},
			{LowerLimit: &one, UpperLimit: nil, Outcome: domain.WatchOutcomeAlert, Reason: "Activity spike"},
		},
		Enabled: true,
	}
	engine.LoadWatch(cfg)

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID:       "tenant-001",
		EntityID:       "entity-001",
		Score:          uniformScore(60),
		ActivityWindow: 3600, // 1 hour
	}

	results, _ := engine.EvaluateAll(ctx, input)

	// With 15 events (> 10), should return 1.0 (alert)
	if results[0].Value != 1.0 {
		t.Errorf("expected value 1.0 for activity spike, got %.2f", results[0].Value)
	}
	if results[0].Outcome != domain.WatchOutcomeAlert {
		t.Errorf("expected alert for activity spike, got %s", results[0].Outcome)
	}
}

func TestScoresMapVariable(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	cfg := &domain.WatchConfig{
		ID:         "scores-map",
		Expression: `scores["chitty"] < scores["legal"]`,
		Enabled:    true,
	}
	engine.LoadWatch(cfg)

	score := uniformScore(50)
	score.ChittyScore = 30
	score.LegalScore = 70

	ctx := context.Background()
	results, _ := engine.EvaluateAll(ctx, &EvaluateInput{
		TenantID: "tenant-001",
		EntityID: "entity-001",
		Score:    score,
	})

	if results[0].Value != 1.0 {
		t.Errorf("expected value 1.0, got %.2f", results[0].Value)
	}
}

func TestParallelExecution(t *testing.T) {
	engine, _ := NewEngine(nil, 3)
	defer engine.Close()

	// Load multiple watches
	for i := 0; i < 10; i++ {
		cfg := &domain.WatchConfig{
			ID:         fmt.Sprintf("watch-%d", i),
			Name:       fmt.Sprintf("Watch %d", i),
			Expression: "composite > 0.0",
			Enabled:    true,
		}
		engine.LoadWatch(cfg)
	}

	if engine.WatchCount() != 10 {
		t.Fatalf("expected 10 watches, got %d", engine.WatchCount())
	}

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID: "tenant-001",
		EntityID: "entity-001",
		Score:    uniformScore(60),
	}

	results, err := engine.EvaluateAll(ctx, input)
	if err != nil {
		t.Fatalf("parallel evaluation failed: %v", err)
	}

	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}

	for i, r := range results {
		if r.Value != 1.0 {
			t.Errorf("watch %d: expected value 1.0, got %.2f", i, r.Value)
		}
	}
}

func TestConcurrencyLimit(t *testing.T) {
	var concurrentCount int32
	var maxConcurrent int32

	// Activity getter that tracks concurrent executions
	activityGetter := func(ctx context.Context, tenantID, entityID string, windowSecs int) (int64, error) {
		current := atomic.AddInt32(&concurrentCount, 1)
		defer atomic.AddInt32(&concurrentCount, -1)

		for {
			old := atomic.LoadInt32(&maxConcurrent)
			if current <= old || atomic.CompareAndSwapInt32(&maxConcurrent, old, current) {
				break
			}
		}

		time.Sleep(10 * time.Millisecond) // Simulate work
		return 5, nil
	}

	engine, _ := NewEngine(activityGetter, 2) // Max 2 workers
	defer engine.Close()

	for i := 0; i < 10; i++ {
		cfg := &domain.WatchConfig{
			ID:         fmt.Sprintf("watch-%d", i),
			Expression: "activity_count > 10 ? 1.0 : 0.0",
			Enabled:    true,
		}
		engine.LoadWatch(cfg)
	}

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID:       "tenant-001",
		EntityID:       "entity-001",
		Score:          uniformScore(60),
		ActivityWindow: 3600,
	}

	engine.EvaluateAll(ctx, input)

	// Activity is fetched once before parallel execution, so the
	// semaphore governs watch evaluation only. This mainly verifies
	// the worker pool doesn't crash.
}

func TestReloadWatches(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	engine.LoadWatch(&domain.WatchConfig{ID: "old", Expression: "composite > 0.0", Enabled: true})

	err := engine.ReloadWatches([]*domain.WatchConfig{
		{ID: "new-1", Expression: "chitty < 50.0", Enabled: true},
		{ID: "new-2", Expression: "confidence < 0.3", Enabled: true},
		{ID: "disabled", Expression: "legal < 50.0", Enabled: false},
	})
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if engine.WatchCount() != 2 {
		t.Errorf("expected 2 watches after reload, got %d", engine.WatchCount())
	}

	for _, cfg := range engine.GetLoadedWatches() {
		if cfg.ID == "old" {
			t.Error("old watch survived reload")
		}
		if cfg.ID == "disabled" {
			t.Error("disabled watch loaded on reload")
		}
	}
}

func TestWatchResultMetadata(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	cfg := &domain.WatchConfig{
		ID:         "meta-test",
		Expression: "composite > 0.0",
		Enabled:    true,
	}
	engine.LoadWatch(cfg)

	ctx := context.Background()
	input := &EvaluateInput{
		TenantID: "tenant-123",
		EntityID: "entity-456",
		Score:    uniformScore(55),
	}

	results, _ := engine.EvaluateAll(ctx, input)

	if results[0].WatchID != "meta-test" {
		t.Errorf("expected WatchID 'meta-test', got '%s'", results[0].WatchID)
	}
	if results[0].TenantID != "tenant-123" {
		t.Errorf("expected TenantID 'tenant-123', got '%s'", results[0].TenantID)
	}
	if results[0].EntityID != "entity-456" {
		t.Errorf("expected EntityID 'entity-456', got '%s'", results[0].EntityID)
	}
	if results[0].ProcessMs < 0 {
		t.Error("ProcessMs should be non-negative")
	}
}

func TestEvaluateRequiresScore(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	engine.LoadWatch(&domain.WatchConfig{ID: "w", Expression: "composite > 0.0", Enabled: true})

	_, err := engine.EvaluateAll(context.Background(), &EvaluateInput{
		TenantID: "tenant-001",
		EntityID: "entity-001",
	})
	if err == nil {
		t.Error("expected error for missing score")
	}
}
