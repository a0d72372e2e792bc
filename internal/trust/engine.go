package trust

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chittyos/trustengine/internal/domain"
)

// Engine computes trust scores. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	dimensions []DimensionScorer
	outputs    []OutputScorer
}

// NewEngine creates a trust engine with the full dimension and output
// scorer sets.
func NewEngine() *Engine {
	return &Engine{
		dimensions: Dimensions(),
		outputs:    OutputScorers(),
	}
}

// Assess computes the full trust score for an entity and its event
// history. The entity and events are read-only inputs; the returned
// score is built fresh on every call.
//
// The optional context map carries caller-supplied hints for future
// explanation tailoring. It is accepted and currently unused.
func (e *Engine) Assess(ctx context.Context, entity *domain.TrustEntity, events []*domain.TrustEvent, assessCtx map[string]any) (*domain.TrustScore, error) {
	if entity == nil {
		return nil, &domain.ValidationError{Field: "entity", Reason: "entity is required"}
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateEvents(entity.ID, events); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assessment cancelled: %w", err)
	}

	// Scorers assume chronological order for recency weighting and
	// gap analysis. Sort a copy so the caller's slice is untouched.
	ordered := make([]*domain.TrustEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	// Dimensions are independent of each other, so fan out.
	results := make(map[string]float64, len(e.dimensions))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, dim := range e.dimensions {
		wg.Add(1)
		go func(d DimensionScorer) {
			defer wg.Done()
			score := d.Calculate(entity, ordered)
			mu.Lock()
			results[d.Name()] = score
			mu.Unlock()
		}(dim)
	}
	wg.Wait()

	dims := DimensionScores{
		Source:   results[domain.DimensionSource],
		Temporal: results[domain.DimensionTemporal],
		Channel:  results[domain.DimensionChannel],
		Outcome:  results[domain.DimensionOutcome],
		Network:  results[domain.DimensionNetwork],
		Justice:  results[domain.DimensionJustice],
	}

	score := &domain.TrustScore{
		SourceScore:   dims.Source,
		TemporalScore: dims.Temporal,
		ChannelScore:  dims.Channel,
		OutcomeScore:  dims.Outcome,
		NetworkScore:  dims.Network,
		JusticeScore:  dims.Justice,
		CalculatedAt:  timeNow().UTC(),
		Confidence:    calculateConfidence(ordered, dims),
		Explanation:   explainDimensions(dims),
	}

	for _, out := range e.outputs {
		value := out.Calculate(dims, entity, ordered)
		switch out.Name() {
		case "people":
			score.PeopleScore = value
		case "legal":
			score.LegalScore = value
		case "state":
			score.StateScore = value
		case "chitty":
			score.ChittyScore = value
		}
	}

	return score, nil
}
