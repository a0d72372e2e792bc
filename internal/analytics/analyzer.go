// Package analytics derives qualitative insights, behavioral patterns,
// and confidence intervals from trust data. Everything here is a pure
// function over an immutable entity/event snapshot plus already-computed
// dimension scores; the package performs no I/O and holds no state.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chittyos/trustengine/internal/domain"
)

// timeNow is overridable in tests for deterministic windows.
var timeNow = time.Now

// Analyzer generates insights, patterns, and confidence intervals.
type Analyzer struct{}

// NewAnalyzer creates an analytics engine.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Insights evaluates every insight rule independently and returns the
// hits ordered by descending confidence. Each rule carries a fixed
// confidence weight; no learned content.
func (a *Analyzer) Insights(entity *domain.TrustEntity, events []*domain.TrustEvent, scores map[string]float64) []domain.TrustInsight {
	var insights []domain.TrustInsight

	insights = append(insights, identityInsights(entity, scores)...)
	insights = append(insights, behaviorInsights(events)...)
	insights = append(insights, networkInsights(entity)...)
	insights = append(insights, riskInsights(entity, events)...)
	insights = append(insights, trendInsights(events)...)

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Confidence > insights[j].Confidence
	})
	return insights
}

func identityInsights(entity *domain.TrustEntity, scores map[string]float64) []domain.TrustInsight {
	var insights []domain.TrustInsight
	sourceScore := scores[domain.DimensionSource]

	if sourceScore >= 85 {
		insights = append(insights, domain.TrustInsight{
			Category:    "identity",
			Title:       "Strong Identity Verification",
			Description: "Multiple verified credentials and government ID confirmation provide high confidence in identity authenticity.",
			Impact:      domain.ImpactPositive,
			Confidence:  92.0,
			SupportingEvidence: []string{
				fmt.Sprintf("Identity verified: %t", entity.IdentityVerified),
				fmt.Sprintf("Credentials count: %d", len(entity.Credentials)),
				"Government ID verified",
			},
		})
	} else if sourceScore < 50 {
		insights = append(insights, domain.TrustInsight{
			Category:    "identity",
			Title:       "Identity Verification Concerns",
			Description: "Limited identity verification may pose risks for high-trust interactions.",
			Impact:      domain.ImpactNegative,
			Confidence:  78.0,
			SupportingEvidence: []string{
				"Missing government ID verification",
				"Limited professional credentials",
				"Low source dimension score",
			},
			Trend: domain.TrendStable,
		})
	}

	return insights
}

func behaviorInsights(events []*domain.TrustEvent) []domain.TrustInsight {
	if len(events) == 0 {
		return nil
	}

	var insights []domain.TrustInsight

	positive := 0
	for _, ev := range events {
		if ev.Outcome == domain.OutcomePositive {
			positive++
		}
	}
	positiveRate := float64(positive) / float64(len(events))

	if positiveRate > 0.85 {
		insights = append(insights, domain.TrustInsight{
			Category:    "behavior",
			Title:       "Exceptional Outcome Consistency",
			Description: "Consistently delivers positive outcomes across interactions, indicating high reliability.",
			Impact:      domain.ImpactPositive,
			Confidence:  88.0,
			SupportingEvidence: []string{
				fmt.Sprintf("Positive outcome rate: %.1f%%", positiveRate*100),
				fmt.Sprintf("Total events analyzed: %d", len(events)),
				"Low negative event frequency",
			},
			Trend: domain.TrendStable,
		})
	}

	cutoff := timeNow().UTC().AddDate(0, 0, -30)
	recent := 0
	for _, ev := range events {
		if ev.Timestamp.After(cutoff) {
			recent++
		}
	}
	if recent > 10 {
		insights = append(insights, domain.TrustInsight{
			Category:    "activity",
			Title:       "High Recent Activity",
			Description: "Strong recent engagement suggests active and reliable presence.",
			Impact:      domain.ImpactPositive,
			Confidence:  75.0,
			SupportingEvidence: []string{
				fmt.Sprintf("Recent events (30 days): %d", recent),
				"Consistent activity pattern",
				"Regular interaction frequency",
			},
		})
	}

	return insights
}

func networkInsights(entity *domain.TrustEntity) []domain.TrustInsight {
	connections := entity.Connections
	if len(connections) == 0 {
		return nil
	}

	var insights []domain.TrustInsight

	var totalTrust float64
	highTrust := 0
	for i := range connections {
		totalTrust += connections[i].TrustScore
		if connections[i].TrustScore > 80 {
			highTrust++
		}
	}
	avgTrust := totalTrust / float64(len(connections))

	if avgTrust > 85 {
		insights = append(insights, domain.TrustInsight{
			Category:    "network",
			Title:       "High-Quality Network",
			Description: "Connected to highly trusted entities, indicating strong professional or social standing.",
			Impact:      domain.ImpactPositive,
			Confidence:  82.0,
			SupportingEvidence: []string{
				fmt.Sprintf("Average network trust: %.1f", avgTrust),
				fmt.Sprintf("High-trust connections: %d", highTrust),
				fmt.Sprintf("Total connections: %d", len(connections)),
			},
		})
	}

	types := make(map[string]bool)
	for i := range connections {
		types[connections[i].ConnectionType] = true
	}
	if len(types) >= 3 {
		names := make([]string, 0, len(types))
		for t := range types {
			names = append(names, t)
		}
		sort.Strings(names)

		insights = append(insights, domain.TrustInsight{
			Category:    "network",
			Title:       "Diverse Network Connections",
			Description: "Multiple types of professional and social connections demonstrate broad engagement.",
			Impact:      domain.ImpactPositive,
			Confidence:  70.0,
			SupportingEvidence: []string{
				fmt.Sprintf("Connection types: %d", len(types)),
				fmt.Sprintf("Types: %s", strings.Join(names, ", ")),
				"Broad professional engagement",
			},
		})
	}

	return insights
}

func riskInsights(entity *domain.TrustEntity, events []*domain.TrustEvent) []domain.TrustInsight {
	var insights []domain.TrustInsight

	cutoff := timeNow().UTC().AddDate(0, 0, -90)
	recentNegative := 0
	for _, ev := range events {
		if ev.Outcome == domain.OutcomeNegative && ev.Timestamp.After(cutoff) {
			recentNegative++
		}
	}
	if recentNegative > 2 {
		insights = append(insights, domain.TrustInsight{
			Category:    "risk",
			Title:       "Recent Negative Outcomes",
			Description: "Multiple recent negative outcomes warrant careful consideration for future engagements.",
			Impact:      domain.ImpactNegative,
			Confidence:  85.0,
			SupportingEvidence: []string{
				fmt.Sprintf("Recent negative events: %d", recentNegative),
				"Pattern of concerning outcomes",
				"Elevated risk profile",
			},
			Trend: domain.TrendDeclining,
		})
	}

	if entity.TransparencyLevel < 0.5 {
		insights = append(insights, domain.TrustInsight{
			Category:    "risk",
			Title:       "Limited Transparency",
			Description: "Low transparency level may indicate reluctance to share information or verify claims.",
			Impact:      domain.ImpactNegative,
			Confidence:  70.0,
			SupportingEvidence: []string{
				fmt.Sprintf("Transparency level: %.1f", entity.TransparencyLevel),
				"Limited information disclosure",
				"Verification challenges",
			},
		})
	}

	return insights
}

func trendInsights(events []*domain.TrustEvent) []domain.TrustInsight {
	if len(events) < 5 {
		return nil
	}

	ordered := make([]*domain.TrustEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	half := len(ordered) / 2
	earlyRate := positiveRate(ordered[:half])
	recentRate := positiveRate(ordered[half:])

	evidence := []string{
		fmt.Sprintf("Recent positive rate: %.1f%%", recentRate*100),
		fmt.Sprintf("Early positive rate: %.1f%%", earlyRate*100),
	}

	switch {
	case recentRate > earlyRate+0.2:
		return []domain.TrustInsight{{
			Category:           "trend",
			Title:              "Improving Performance Trend",
			Description:        "Significant improvement in outcome quality over time demonstrates growth and learning.",
			Impact:             domain.ImpactPositive,
			Confidence:         78.0,
			SupportingEvidence: append(evidence, "Upward trajectory in performance"),
			Trend:              domain.TrendImproving,
		}}
	case earlyRate > recentRate+0.2:
		return []domain.TrustInsight{{
			Category:           "trend",
			Title:              "Declining Performance Trend",
			Description:        "Recent decrease in positive outcomes may indicate changing circumstances or capabilities.",
			Impact:             domain.ImpactNegative,
			Confidence:         82.0,
			SupportingEvidence: append(evidence, "Downward trajectory in performance"),
			Trend:              domain.TrendDeclining,
		}}
	}
	return nil
}

func positiveRate(events []*domain.TrustEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	positive := 0
	for _, ev := range events {
		if ev.Outcome == domain.OutcomePositive {
			positive++
		}
	}
	return float64(positive) / float64(len(events))
}

var (
	communityEventTypes = map[string]bool{
		domain.EventCommunityService: true,
		domain.EventEndorsement:      true,
		domain.EventCollaboration:    true,
	}
	professionalEventTypes = map[string]bool{
		domain.EventCertification:           true,
		domain.EventProfessionalDevelopment: true,
		domain.EventTraining:                true,
	}
)

// Patterns runs the frequency-threshold pattern rules over the event
// history.
func (a *Analyzer) Patterns(entity *domain.TrustEntity, events []*domain.TrustEvent) []domain.TrustPattern {
	var patterns []domain.TrustPattern

	var highValue []*domain.TrustEvent
	for _, ev := range events {
		if ev.EventType != domain.EventTransaction {
			continue
		}
		if value, ok := ev.Metadata["value"].(float64); ok && value > 1000 {
			highValue = append(highValue, ev)
		}
	}
	if len(highValue) > 5 {
		patterns = append(patterns, domain.TrustPattern{
			PatternType:    "high_value_activity",
			Description:    "Regular high-value transactions with consistent positive outcomes",
			Frequency:      len(highValue),
			LastOccurrence: lastTimestamp(highValue),
			RiskLevel:      domain.RiskLow,
			Recommendation: "Suitable for high-value engagements",
		})
	}

	var community []*domain.TrustEvent
	for _, ev := range events {
		if communityEventTypes[ev.EventType] {
			community = append(community, ev)
		}
	}
	if len(community) >= 8 {
		patterns = append(patterns, domain.TrustPattern{
			PatternType:    "community_engagement",
			Description:    "Strong pattern of community involvement and collaborative activities",
			Frequency:      len(community),
			LastOccurrence: lastTimestamp(community),
			RiskLevel:      domain.RiskLow,
			Recommendation: "Excellent for community-focused initiatives",
		})
	}

	var professional []*domain.TrustEvent
	for _, ev := range events {
		if professionalEventTypes[ev.EventType] {
			professional = append(professional, ev)
		}
	}
	if len(professional) >= 3 {
		patterns = append(patterns, domain.TrustPattern{
			PatternType:    "professional_development",
			Description:    "Consistent investment in professional growth and skill development",
			Frequency:      len(professional),
			LastOccurrence: lastTimestamp(professional),
			RiskLevel:      domain.RiskLow,
			Recommendation: "Strong candidate for professional partnerships",
		})
	}

	return patterns
}

func lastTimestamp(events []*domain.TrustEvent) time.Time {
	latest := events[0].Timestamp
	for _, ev := range events[1:] {
		if ev.Timestamp.After(latest) {
			latest = ev.Timestamp
		}
	}
	return latest
}

// ConfidenceIntervals computes a per-dimension interval around each
// score. The margin widens when fewer than 20 events back the score.
func (a *Analyzer) ConfidenceIntervals(scores map[string]float64, events []*domain.TrustEvent) map[string]domain.ScoreInterval {
	margin := 5.0 + max(0, float64(20-len(events))*0.5)

	intervals := make(map[string]domain.ScoreInterval, len(scores))
	for dimension, score := range scores {
		intervals[dimension] = domain.ScoreInterval{
			Lower: max(0, score-margin),
			Upper: min(100, score+margin),
		}
	}
	return intervals
}
