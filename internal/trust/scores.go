package trust

import (
	"github.com/chittyos/trustengine/internal/domain"
)

// DimensionScores holds the six dimension results.
type DimensionScores struct {
	Source   float64
	Temporal float64
	Channel  float64
	Outcome  float64
	Network  float64
	Justice  float64
}

// AsMap returns the scores keyed by canonical dimension name.
func (d DimensionScores) AsMap() map[string]float64 {
	return map[string]float64{
		domain.DimensionSource:   d.Source,
		domain.DimensionTemporal: d.Temporal,
		domain.DimensionChannel:  d.Channel,
		domain.DimensionOutcome:  d.Outcome,
		domain.DimensionNetwork:  d.Network,
		domain.DimensionJustice:  d.Justice,
	}
}

// Variance returns the population variance of the six scores.
func (d DimensionScores) Variance() float64 {
	values := [6]float64{d.Source, d.Temporal, d.Channel, d.Outcome, d.Network, d.Justice}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= 6

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return variance / 6
}

// dimensionWeights is a per-output weighting of the six dimensions.
type dimensionWeights struct {
	Source   float64
	Temporal float64
	Channel  float64
	Outcome  float64
	Network  float64
	Justice  float64
}

func (w dimensionWeights) apply(d DimensionScores) float64 {
	return d.Source*w.Source +
		d.Temporal*w.Temporal +
		d.Channel*w.Channel +
		d.Outcome*w.Outcome +
		d.Network*w.Network +
		d.Justice*w.Justice
}

// OutputScorer recombines the six dimension scores into a 0-100
// stakeholder-facing score, with bonus/penalty lookups over the raw
// entity and events.
type OutputScorer interface {
	// Name returns the output score name.
	Name() string

	// Calculate returns the output score.
	Calculate(dims DimensionScores, entity *domain.TrustEntity, events []*domain.TrustEvent) float64
}

// OutputScorers returns the four scorers. The set is closed.
func OutputScorers() []OutputScorer {
	return []OutputScorer{
		&PeopleScorer{},
		&LegalScorer{},
		&StateScorer{},
		&ChittyScorer{},
	}
}

// countTagged returns how many events carry at least one tag from the
// vocabulary.
func countTagged(events []*domain.TrustEvent, vocabulary ...string) int {
	count := 0
	for _, ev := range events {
		if ev.Tags.ContainsAny(vocabulary...) {
			count++
		}
	}
	return count
}

// PeopleScorer measures community impact and social trust.
type PeopleScorer struct{}

func (s *PeopleScorer) Name() string { return "people" }

var (
	communityTags  = []string{"community", "volunteer", "charity", "public_good"}
	antisocialTags = []string{"harassment", "discrimination", "fraud", "violation"}
)

func (s *PeopleScorer) Calculate(dims DimensionScores, entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	base := dimensionWeights{
		Source:   0.10,
		Temporal: 0.10,
		Channel:  0.10,
		Outcome:  0.20,
		Network:  0.25,
		Justice:  0.25,
	}.apply(dims)

	communityBonus := min(float64(countTagged(events, communityTags...))*2, 10)
	antisocialPenalty := float64(countTagged(events, antisocialTags...)) * 5

	return max(0, min(base+communityBonus-antisocialPenalty, 100))
}

// LegalScorer measures technical compliance and legal standing.
type LegalScorer struct{}

func (s *LegalScorer) Name() string { return "legal" }

var (
	complianceTags = []string{"compliance", "regulatory", "audit_passed", "certification"}
	violationTags  = []string{"violation", "breach", "illegal", "sanctioned"}
)

func (s *LegalScorer) Calculate(dims DimensionScores, entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	base := dimensionWeights{
		Source:   0.25,
		Temporal: 0.15,
		Channel:  0.20,
		Outcome:  0.15,
		Network:  0.10,
		Justice:  0.15,
	}.apply(dims)

	complianceBonus := min(float64(countTagged(events, complianceTags...))*3, 15)
	violationPenalty := float64(countTagged(events, violationTags...)) * 10
	documentationBonus := min(float64(len(entity.Credentials))*2, 10)

	return max(0, min(base+complianceBonus+documentationBonus-violationPenalty, 100))
}

// StateScorer measures authority approval and institutional trust.
type StateScorer struct{}

func (s *StateScorer) Name() string { return "state" }

var (
	institutionalTags     = []string{"government", "institutional", "official", "licensed"}
	antiEstablishmentTags = []string{"protest", "dissent", "whistleblower", "activist"}
)

func (s *StateScorer) Calculate(dims DimensionScores, entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	base := dimensionWeights{
		Source:   0.30,
		Temporal: 0.15,
		Channel:  0.25,
		Outcome:  0.10,
		Network:  0.10,
		Justice:  0.10,
	}.apply(dims)

	var governmentBonus float64
	for i := range entity.Credentials {
		c := &entity.Credentials[i]
		if c.Type == domain.CredentialGovernmentID && c.VerificationStatus == domain.VerificationVerified {
			governmentBonus += 15
		}
	}

	institutionalBonus := min(float64(countTagged(events, institutionalTags...))*2, 10)

	// Deliberately mild: these activities may be legitimate.
	antiPenalty := float64(countTagged(events, antiEstablishmentTags...)) * 2

	return max(0, min(base+governmentBonus+institutionalBonus-antiPenalty, 100))
}

// ChittyScorer is the composite "true measure": justice and real
// outcomes over institutional approval.
type ChittyScorer struct{}

func (s *ChittyScorer) Name() string { return "chitty" }

var (
	chittyJusticeTags = []string{
		"justice", "fairness", "helped_vulnerable", "truth_telling",
		"accountability", "reparation", "reform",
	}
	// Violations carrying one of these tags receive the reduced
	// "rebel with a cause" penalty.
	causeTags = []string{"civil_disobedience", "whistleblower"}
)

func (s *ChittyScorer) Calculate(dims DimensionScores, entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	base := dimensionWeights{
		Source:   0.10,
		Temporal: 0.10,
		Channel:  0.10,
		Outcome:  0.25,
		Network:  0.15,
		Justice:  0.30,
	}.apply(dims)

	justiceBonus := min(float64(countTagged(events, chittyJusticeTags...))*4, 20)

	var impactSum float64
	for _, ev := range events {
		if ev.Outcome == domain.OutcomePositive && ev.ImpactScore > 5 {
			impactSum += ev.ImpactScore
		}
	}
	impactBonus := min(impactSum/10, 15)

	var regularViolations, causeViolations int
	for _, ev := range events {
		if !ev.Tags.Has("violation") {
			continue
		}
		if ev.Tags.ContainsAny(causeTags...) {
			causeViolations++
		} else {
			regularViolations++
		}
	}
	violationPenalty := float64(regularViolations)*5 + float64(causeViolations)*1

	var transformationBonus float64
	for _, ev := range events {
		if ev.Tags.Has("transformation") {
			transformationBonus = 10
			break
		}
	}

	return max(0, min(base+justiceBonus+impactBonus+transformationBonus-violationPenalty, 100))
}
