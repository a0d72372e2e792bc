// Package trust implements the six-dimension trust scoring engine.
package trust

import (
	"time"

	"github.com/chittyos/trustengine/internal/domain"
)

// timeNow is overridable in tests for deterministic scoring.
var timeNow = time.Now

// DimensionScorer computes a single 0-100 trust axis from an immutable
// entity/event snapshot. All scorers are stateless and side-effect-free;
// they have no mutual dependency and may run concurrently.
type DimensionScorer interface {
	// Name returns the canonical dimension name.
	Name() string

	// Calculate returns the dimension score. Events are chronologically
	// sorted (earliest first) by the engine before dispatch.
	Calculate(entity *domain.TrustEntity, events []*domain.TrustEvent) float64
}

// Dimensions returns the six scorers in canonical order. The set is
// closed; there is no open registration.
func Dimensions() []DimensionScorer {
	return []DimensionScorer{
		&SourceDimension{},
		&TemporalDimension{},
		&ChannelDimension{},
		&OutcomeDimension{},
		&NetworkDimension{},
		&JusticeDimension{},
	}
}

// SourceDimension scores "who": identity verification and credential
// assessment.
type SourceDimension struct{}

func (d *SourceDimension) Name() string { return domain.DimensionSource }

func (d *SourceDimension) Calculate(entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	score := 0.0

	if entity.IdentityVerified {
		score += 30
	}

	credentials := entity.Credentials
	score += min(float64(len(credentials))*10, 30)

	hasGovernmentID := false
	professionalCount := 0
	for i := range credentials {
		switch credentials[i].Type {
		case domain.CredentialGovernmentID:
			hasGovernmentID = true
		case domain.CredentialProfessional:
			professionalCount++
		}
	}

	if hasGovernmentID {
		score += 20
	}
	score += min(float64(professionalCount)*5, 20)

	return min(score, 100)
}

// TemporalDimension scores "when": account age, event consistency,
// recency, and long-term positive behavior.
type TemporalDimension struct{}

func (d *TemporalDimension) Name() string { return domain.DimensionTemporal }

func (d *TemporalDimension) Calculate(entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	if len(events) == 0 {
		return 0
	}

	now := timeNow().UTC()

	accountAgeDays := daysBetween(entity.CreatedAt, now)
	ageScore := min(accountAgeDays/365*30, 30)

	// Mean gap between consecutive events
	var consistencyScore float64
	if len(events) > 1 {
		var totalGap float64
		for i := 1; i < len(events); i++ {
			totalGap += daysBetween(events[i-1].Timestamp, events[i].Timestamp)
		}
		meanGap := totalGap / float64(len(events)-1)
		consistencyScore = max(0, 30-meanGap/10)
	} else {
		consistencyScore = 15
	}

	latest := events[len(events)-1]
	recencyScore := max(0, 20-daysBetween(latest.Timestamp, now)/10)

	positiveCount := 0
	for _, ev := range events {
		if ev.Outcome == domain.OutcomePositive {
			positiveCount++
		}
	}
	longevityScore := min(float64(positiveCount)/10*20, 20)

	// The four sub-terms can sum above 100 for old, dense, recently
	// active histories; clamp to preserve the output bound.
	return min(ageScore+consistencyScore+recencyScore+longevityScore, 100)
}

// ChannelDimension scores "how": the trustworthiness of the channels
// events arrive through.
type ChannelDimension struct{}

func (d *ChannelDimension) Name() string { return domain.DimensionChannel }

// channelTrustScores is the fixed channel trust table.
var channelTrustScores = map[string]float64{
	"verified_api":  95,
	"blockchain":    90,
	"bank_transfer": 85,
	"credit_card":   80,
	"oauth":         75,
	"email":         60,
	"sms":           55,
	"social_media":  40,
	"anonymous":     10,
}

// verifiedChannels are channels that count toward the diversity bonus.
var verifiedChannels = map[string]bool{
	"verified_api":  true,
	"blockchain":    true,
	"bank_transfer": true,
}

func (d *ChannelDimension) Calculate(entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	if len(events) == 0 {
		return 0
	}

	// Recency-weighted average: weights rise linearly from 0.5 on the
	// earliest event to 1.0 on the latest.
	var weightedSum, weightSum float64
	n := len(events)
	for i, ev := range events {
		channel := ev.Channel
		if channel == "" {
			channel = "anonymous"
		}
		trust, ok := channelTrustScores[channel]
		if !ok {
			trust = 20
		}

		weight := 1.0
		if n > 1 {
			weight = 0.5 + 0.5*float64(i)/float64(n-1)
		}
		weightedSum += trust * weight
		weightSum += weight
	}
	weightedScore := weightedSum / weightSum

	distinct := make(map[string]bool)
	for _, ev := range events {
		if verifiedChannels[ev.Channel] {
			distinct[ev.Channel] = true
		}
	}
	diversityBonus := min(float64(len(distinct))*5, 15)

	return min(weightedScore+diversityBonus, 100)
}

// OutcomeDimension scores "results": the track record of positive and
// negative outcomes, with recent outcomes weighted more heavily.
type OutcomeDimension struct{}

func (d *OutcomeDimension) Name() string { return domain.DimensionOutcome }

func (d *OutcomeDimension) Calculate(entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	if len(events) == 0 {
		return 0
	}

	now := timeNow().UTC()
	total := float64(len(events))

	var positive, negative float64
	for _, ev := range events {
		switch ev.Outcome {
		case domain.OutcomePositive:
			positive++
		case domain.OutcomeNegative:
			negative++
		}
	}
	positiveRatio := positive / total
	negativeRatio := negative / total

	baseScore := positiveRatio * 70
	negativePenalty := negativeRatio * 100

	var consistencyBonus float64
	switch {
	case positiveRatio > 0.8 && len(events) > 10:
		consistencyBonus = 20
	case positiveRatio > 0.6:
		consistencyBonus = 10
	}

	// Recent outcomes matter more
	cutoff := now.AddDate(0, 0, -90)
	var recentTotal, recentPositive float64
	for _, ev := range events {
		if ev.Timestamp.After(cutoff) {
			recentTotal++
			if ev.Outcome == domain.OutcomePositive {
				recentPositive++
			}
		}
	}
	var recencyAdjustment float64
	if recentTotal > 0 {
		recencyAdjustment = (recentPositive/recentTotal - positiveRatio) * 20
	}

	score := baseScore - negativePenalty + consistencyBonus + recencyAdjustment
	return max(0, min(score, 100))
}

// NetworkDimension scores "connections": size, quality, and activity of
// the entity's trust network.
type NetworkDimension struct{}

func (d *NetworkDimension) Name() string { return domain.DimensionNetwork }

func (d *NetworkDimension) Calculate(entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	connections := entity.Connections
	sizeScore := min(float64(len(connections))/100*20, 20)

	var qualityScore float64
	if len(connections) > 0 {
		var totalTrust float64
		for i := range connections {
			totalTrust += connections[i].TrustScore
		}
		qualityScore = totalTrust / float64(len(connections)) * 0.4
	}

	interactionCount := 0
	endorsementCount := 0
	for _, ev := range events {
		switch ev.EventType {
		case domain.EventInteraction, domain.EventTransaction, domain.EventCollaboration:
			interactionCount++
		case domain.EventEndorsement:
			if ev.Outcome == domain.OutcomePositive {
				endorsementCount++
			}
		}
	}
	frequencyScore := min(float64(interactionCount)/50*20, 20)
	endorsementScore := min(float64(endorsementCount)*5, 20)

	return min(sizeScore+qualityScore+frequencyScore+endorsementScore, 100)
}

// JusticeDimension scores "impact": alignment with justice and positive
// societal impact.
type JusticeDimension struct{}

func (d *JusticeDimension) Name() string { return domain.DimensionJustice }

var justiceTags = []string{"justice", "fairness", "equality", "transparency"}

func (d *JusticeDimension) Calculate(entity *domain.TrustEntity, events []*domain.TrustEvent) float64 {
	score := 0.0

	var community, justiceAligned, harmPrevention, resolutions int
	for _, ev := range events {
		if ev.Tags.Has("community_impact") {
			community++
		}
		if ev.Tags.ContainsAny(justiceTags...) {
			justiceAligned++
		}
		if ev.Tags.Has("harm_prevention") {
			harmPrevention++
		}
		if ev.EventType == domain.EventDisputeResolution && ev.Outcome == domain.OutcomePositive {
			resolutions++
		}
	}

	score += min(float64(community)*10, 30)
	score += min(float64(justiceAligned)*8, 25)
	score += min(float64(harmPrevention)*5, 15)
	score += min(float64(resolutions)*10, 20)

	if entity.TransparencyLevel > 0.7 {
		score += 10
	}

	return min(score, 100)
}

// daysBetween returns the fractional number of days from a to b.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}
