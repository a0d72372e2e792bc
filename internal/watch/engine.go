// Package watch provides the CEL-Go based watch evaluation engine.
// Watches run over freshly computed trust assessments and map score
// movements to pass/review/alert outcomes.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/chittyos/trustengine/internal/domain"
)

// Engine is the CEL-based watch evaluation engine.
type Engine struct {
	mu             sync.RWMutex
	env            *cel.Env
	compiled       map[string]*CompiledWatch
	activityGetter ActivityGetter
	maxWorkers     int
}

// CompiledWatch holds a pre-compiled CEL program.
type CompiledWatch struct {
	Config  *domain.WatchConfig
	Program cel.Program
}

// ActivityGetter returns the number of events recorded for an entity
// within a time window, in seconds.
type ActivityGetter func(ctx context.Context, tenantID, entityID string, windowSecs int) (int64, error)

// NewEngine creates a new watch evaluation engine.
func NewEngine(activityGetter ActivityGetter, maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	// CEL environment exposing the assessment variables
	env, err := cel.NewEnv(
		cel.Variable("scores", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("source", cel.DoubleType),
		cel.Variable("temporal", cel.DoubleType),
		cel.Variable("channel", cel.DoubleType),
		cel.Variable("outcome", cel.DoubleType),
		cel.Variable("network", cel.DoubleType),
		cel.Variable("justice", cel.DoubleType),
		cel.Variable("people", cel.DoubleType),
		cel.Variable("legal", cel.DoubleType),
		cel.Variable("state", cel.DoubleType),
		cel.Variable("chitty", cel.DoubleType),
		cel.Variable("composite", cel.DoubleType),
		cel.Variable("confidence", cel.DoubleType),
		cel.Variable("event_count", cel.IntType),
		cel.Variable("activity_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:            env,
		compiled:       make(map[string]*CompiledWatch),
		activityGetter: activityGetter,
		maxWorkers:     maxWorkers,
	}, nil
}

// ValidateWatch compiles and validates a watch without mutating loaded engine state.
func (e *Engine) ValidateWatch(cfg *domain.WatchConfig) error {
	if cfg == nil {
		return fmt.Errorf("watch config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileWatch(cfg)
	return err
}

// LoadWatch compiles and loads a watch into the engine.
func (e *Engine) LoadWatch(cfg *domain.WatchConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileWatch(cfg)
	if err != nil {
		return err
	}

	e.compiled[cfg.ID] = compiled

	return nil
}

// LoadWatches compiles and loads multiple watches.
func (e *Engine) LoadWatches(configs []*domain.WatchConfig) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadWatch(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateInput holds the assessment data for watch evaluation.
type EvaluateInput struct {
	TenantID       string
	EntityID       string
	Score          *domain.TrustScore
	EventCount     int64
	ActivityWindow int // seconds
}

// EvaluateAll evaluates all loaded watches in parallel.
func (e *Engine) EvaluateAll(ctx context.Context, input *EvaluateInput) ([]domain.WatchResult, error) {
	e.mu.RLock()
	watches := make([]*CompiledWatch, 0, len(e.compiled))
	for _, w := range e.compiled {
		watches = append(watches, w)
	}
	e.mu.RUnlock()

	if len(watches) == 0 {
		return nil, nil
	}
	if input.Score == nil {
		return nil, fmt.Errorf("assessment score is required")
	}

	// Get recent activity count if getter is available
	var activityCount int64
	if e.activityGetter != nil && input.ActivityWindow > 0 {
		count, err := e.activityGetter(ctx, input.TenantID, input.EntityID, input.ActivityWindow)
		if err == nil {
			activityCount = count
		}
	}

	s := input.Score
	activation := map[string]any{
		"scores": map[string]float64{
			"people":    s.PeopleScore,
			"legal":     s.LegalScore,
			"state":     s.StateScore,
			"chitty":    s.ChittyScore,
			"composite": s.CompositeScore(),
		},
		"source":         s.SourceScore,
		"temporal":       s.TemporalScore,
		"channel":        s.ChannelScore,
		"outcome":        s.OutcomeScore,
		"network":        s.NetworkScore,
		"justice":        s.JusticeScore,
		"people":         s.PeopleScore,
		"legal":          s.LegalScore,
		"state":          s.StateScore,
		"chitty":         s.ChittyScore,
		"composite":      s.CompositeScore(),
		"confidence":     s.Confidence,
		"event_count":    input.EventCount,
		"activity_count": activityCount,
	}

	// Parallel evaluation using worker pool pattern
	results := make([]domain.WatchResult, len(watches))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, e.maxWorkers)

	for i, w := range watches {
		wg.Add(1)
		go func(idx int, cw *CompiledWatch) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			results[idx] = e.evaluateWatch(cw, activation, input)
		}(i, w)
	}

	wg.Wait()

	return results, nil
}

// evaluateWatch evaluates a single watch and returns the result.
func (e *Engine) evaluateWatch(w *CompiledWatch, activation map[string]any, input *EvaluateInput) domain.WatchResult {
	start := time.Now()

	result := domain.WatchResult{
		WatchID:  w.Config.ID,
		TenantID: input.TenantID,
		EntityID: input.EntityID,
	}

	out, _, err := w.Program.Eval(activation)
	if err != nil {
		result.Outcome = domain.WatchOutcomeError
		result.Reason = fmt.Sprintf("evaluation error: %v", err)
		result.ProcessMs = time.Since(start).Milliseconds()
		return result
	}

	value := toValue(out)
	result.Value = value

	result.Outcome, result.Reason = matchBand(value, w.Config.Bands)
	result.ProcessMs = time.Since(start).Milliseconds()

	return result
}

// toValue converts a CEL value to a numeric result.
func toValue(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Bool:
		if v {
			return 1.0
		}
		return 0.0
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}

// matchBand finds the matching band for a value.
// Bands are evaluated in order. Lower bounds are inclusive, upper
// bounds exclusive; a nil upper limit means unbounded.
func matchBand(value float64, bands []domain.WatchBand) (string, string) {
	for _, band := range bands {
		lower := 0.0
		hasUpper := band.UpperLimit != nil
		upper := float64(1e9)

		if band.LowerLimit != nil {
			lower = *band.LowerLimit
		}
		if hasUpper {
			upper = *band.UpperLimit
		}

		if value >= lower {
			if !hasUpper || value < upper {
				return band.Outcome, band.Reason
			}
		}
	}

	// Default to pass if no band matches
	return domain.WatchOutcomePass, "no matching band"
}

// WatchCount returns the number of loaded watches.
func (e *Engine) WatchCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// ReloadWatches clears all existing watches and loads new ones.
// This enables hot-reloading of watch configs from the database.
func (e *Engine) ReloadWatches(configs []*domain.WatchConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newWatches := make(map[string]*CompiledWatch)

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		compiled, err := e.compileWatch(cfg)
		if err != nil {
			return err
		}
		newWatches[cfg.ID] = compiled
	}

	e.compiled = newWatches

	return nil
}

// GetLoadedWatches returns the currently loaded watch configurations.
func (e *Engine) GetLoadedWatches() []*domain.WatchConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	watches := make([]*domain.WatchConfig, 0, len(e.compiled))
	for _, compiled := range e.compiled {
		watches = append(watches, compiled.Config)
	}
	return watches
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*CompiledWatch)
	return nil
}

func (e *Engine) compileWatch(cfg *domain.WatchConfig) (*CompiledWatch, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile watch %s: %w", cfg.ID, issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.BoolType && outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("watch %s: expression must return bool, int, or double, got %s", cfg.ID, outputType)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for watch %s: %w", cfg.ID, err)
	}

	return &CompiledWatch{
		Config:  cfg,
		Program: program,
	}, nil
}
