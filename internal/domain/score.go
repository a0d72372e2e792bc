package domain

import (
	"fmt"
	"time"
)

// Dimension names, in canonical order.
const (
	DimensionSource   = "source"
	DimensionTemporal = "temporal"
	DimensionChannel  = "channel"
	DimensionOutcome  = "outcome"
	DimensionNetwork  = "network"
	DimensionJustice  = "justice"
)

// DimensionNames lists the six dimensions in canonical order.
var DimensionNames = []string{
	DimensionSource,
	DimensionTemporal,
	DimensionChannel,
	DimensionOutcome,
	DimensionNetwork,
	DimensionJustice,
}

// Composite weights of the six dimensions. The composite score is
// always derived from these, never independently stored.
var compositeWeights = map[string]float64{
	DimensionSource:   0.15,
	DimensionTemporal: 0.10,
	DimensionChannel:  0.15,
	DimensionOutcome:  0.20,
	DimensionNetwork:  0.15,
	DimensionJustice:  0.25,
}

// TrustScore is the complete assessment result: six dimension scores,
// four stakeholder-facing output scores, and metadata. Produced fresh
// per call; never mutated after construction.
type TrustScore struct {
	// Dimension scores (0-100)
	SourceScore   float64 `json:"sourceScore"`
	TemporalScore float64 `json:"temporalScore"`
	ChannelScore  float64 `json:"channelScore"`
	OutcomeScore  float64 `json:"outcomeScore"`
	NetworkScore  float64 `json:"networkScore"`
	JusticeScore  float64 `json:"justiceScore"`

	// Output scores (0-100)
	PeopleScore float64 `json:"peopleScore"`
	LegalScore  float64 `json:"legalScore"`
	StateScore  float64 `json:"stateScore"`
	ChittyScore float64 `json:"chittyScore"`

	// Metadata
	CalculatedAt time.Time         `json:"calculatedAt"`
	Confidence   float64           `json:"confidence"` // 0.1-1.0
	Explanation  map[string]string `json:"explanation"`
}

// Dimensions returns the six dimension scores keyed by name.
func (s *TrustScore) Dimensions() map[string]float64 {
	return map[string]float64{
		DimensionSource:   s.SourceScore,
		DimensionTemporal: s.TemporalScore,
		DimensionChannel:  s.ChannelScore,
		DimensionOutcome:  s.OutcomeScore,
		DimensionNetwork:  s.NetworkScore,
		DimensionJustice:  s.JusticeScore,
	}
}

// CompositeScore derives the fixed-weight aggregate of the six
// dimension scores.
func (s *TrustScore) CompositeScore() float64 {
	var sum float64
	for dim, score := range s.Dimensions() {
		sum += score * compositeWeights[dim]
	}
	return sum
}

// ScoreParts is the stable three-part serialization contract for
// embedding a TrustScore in any transport.
type ScoreParts struct {
	Dimensions map[string]float64 `json:"dimensions"`
	Scores     map[string]float64 `json:"scores"`
	Metadata   ScoreMetadata      `json:"metadata"`
}

// ScoreMetadata carries the non-numeric portion of the contract.
type ScoreMetadata struct {
	CalculatedAt string            `json:"calculated_at"` // RFC 3339
	Confidence   float64           `json:"confidence"`
	Explanation  map[string]string `json:"explanation"`
}

// Parts converts the score into its three-part transport shape.
func (s *TrustScore) Parts() ScoreParts {
	return ScoreParts{
		Dimensions: s.Dimensions(),
		Scores: map[string]float64{
			"people":    s.PeopleScore,
			"legal":     s.LegalScore,
			"state":     s.StateScore,
			"chitty":    s.ChittyScore,
			"composite": s.CompositeScore(),
		},
		Metadata: ScoreMetadata{
			CalculatedAt: s.CalculatedAt.UTC().Format(time.RFC3339Nano),
			Confidence:   s.Confidence,
			Explanation:  s.Explanation,
		},
	}
}

// ScoreFromParts reconstructs a TrustScore from its transport shape.
// Numeric fields round-trip exactly; the derived composite value is
// discarded on reconstruction.
func ScoreFromParts(p ScoreParts) (*TrustScore, error) {
	calculatedAt, err := time.Parse(time.RFC3339Nano, p.Metadata.CalculatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid calculated_at: %w", err)
	}

	return &TrustScore{
		SourceScore:   p.Dimensions[DimensionSource],
		TemporalScore: p.Dimensions[DimensionTemporal],
		ChannelScore:  p.Dimensions[DimensionChannel],
		OutcomeScore:  p.Dimensions[DimensionOutcome],
		NetworkScore:  p.Dimensions[DimensionNetwork],
		JusticeScore:  p.Dimensions[DimensionJustice],
		PeopleScore:   p.Scores["people"],
		LegalScore:    p.Scores["legal"],
		StateScore:    p.Scores["state"],
		ChittyScore:   p.Scores["chitty"],
		CalculatedAt:  calculatedAt,
		Confidence:    p.Metadata.Confidence,
		Explanation:   p.Metadata.Explanation,
	}, nil
}
