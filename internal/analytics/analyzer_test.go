package analytics

import (
	"sort"
	"testing"
	"time"

	"github.com/chittyos/trustengine/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t *testing.T) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return testNow }
	t.Cleanup(func() { timeNow = prev })
}

func event(id, eventType, outcome string, daysAgo int) *domain.TrustEvent {
	return &domain.TrustEvent{
		ID:          id,
		EntityID:    "entity-1",
		EventType:   eventType,
		Timestamp:   testNow.AddDate(0, 0, -daysAgo),
		Outcome:     outcome,
		ImpactScore: 5,
	}
}

func findInsight(insights []domain.TrustInsight, title string) *domain.TrustInsight {
	for i := range insights {
		if insights[i].Title == title {
			return &insights[i]
		}
	}
	return nil
}

func TestAnalyzer_Insights_Identity(t *testing.T) {
	fixedClock(t)
	analyzer := NewAnalyzer()
	entity := &domain.TrustEntity{ID: "entity-1", IdentityVerified: true}

	t.Run("strong verification", func(t *testing.T) {
		insights := analyzer.Insights(entity, nil, map[string]float64{domain.DimensionSource: 90})

		insight := findInsight(insights, "Strong Identity Verification")
		if insight == nil {
			t.Fatal("expected strong identity insight")
		}
		if insight.Confidence != 92.0 {
			t.Errorf("confidence = %.1f, want 92.0", insight.Confidence)
		}
		if insight.Impact != domain.ImpactPositive {
			t.Errorf("impact = %q, want positive", insight.Impact)
		}
	})

	t.Run("weak verification", func(t *testing.T) {
		insights := analyzer.Insights(entity, nil, map[string]float64{domain.DimensionSource: 30})

		insight := findInsight(insights, "Identity Verification Concerns")
		if insight == nil {
			t.Fatal("expected identity concern insight")
		}
		if insight.Confidence != 78.0 {
			t.Errorf("confidence = %.1f, want 78.0", insight.Confidence)
		}
		if insight.Trend != domain.TrendStable {
			t.Errorf("trend = %q, want stable", insight.Trend)
		}
	})

	t.Run("middle band produces neither", func(t *testing.T) {
		insights := analyzer.Insights(entity, nil, map[string]float64{domain.DimensionSource: 70})
		if findInsight(insights, "Strong Identity Verification") != nil ||
			findInsight(insights, "Identity Verification Concerns") != nil {
			t.Error("no identity insight expected for a middling source score")
		}
	})
}

func TestAnalyzer_Insights_Behavior(t *testing.T) {
	fixedClock(t)
	analyzer := NewAnalyzer()
	entity := &domain.TrustEntity{ID: "entity-1"}
	scores := map[string]float64{}

	t.Run("outcome consistency above 85 percent", func(t *testing.T) {
		var events []*domain.TrustEvent
		for i := 0; i < 9; i++ {
			events = append(events, event("p"+string(rune('0'+i)), domain.EventTransaction, domain.OutcomePositive, 200+i))
		}
		events = append(events, event("n0", domain.EventDispute, domain.OutcomeNegative, 210))

		// 9/10 = 90% positive
		insights := analyzer.Insights(entity, events, scores)
		insight := findInsight(insights, "Exceptional Outcome Consistency")
		if insight == nil {
			t.Fatal("expected consistency insight")
		}
		if insight.Confidence != 88.0 {
			t.Errorf("confidence = %.1f, want 88.0", insight.Confidence)
		}
	})

	t.Run("high recent activity needs more than 10 events in 30 days", func(t *testing.T) {
		var events []*domain.TrustEvent
		for i := 0; i < 11; i++ {
			events = append(events, event("r"+string(rune('a'+i)), domain.EventInteraction, domain.OutcomeNeutral, i+1))
		}

		insights := analyzer.Insights(entity, events, scores)
		insight := findInsight(insights, "High Recent Activity")
		if insight == nil {
			t.Fatal("expected activity insight")
		}
		if insight.Confidence != 75.0 {
			t.Errorf("confidence = %.1f, want 75.0", insight.Confidence)
		}

		// exactly 10 recent events should not fire
		insights = analyzer.Insights(entity, events[:10], scores)
		if findInsight(insights, "High Recent Activity") != nil {
			t.Error("activity insight should require more than 10 recent events")
		}
	})
}

func TestAnalyzer_Insights_Network(t *testing.T) {
	fixedClock(t)
	analyzer := NewAnalyzer()
	scores := map[string]float64{}

	entity := &domain.TrustEntity{
		ID: "entity-1",
		Connections: []domain.Connection{
			{EntityID: "c1", ConnectionType: "business", TrustScore: 90},
			{EntityID: "c2", ConnectionType: "community", TrustScore: 88},
			{EntityID: "c3", ConnectionType: "mentorship", TrustScore: 86},
		},
	}

	insights := analyzer.Insights(entity, nil, scores)

	quality := findInsight(insights, "High-Quality Network")
	if quality == nil {
		t.Fatal("expected network quality insight")
	}
	if quality.Confidence != 82.0 {
		t.Errorf("quality confidence = %.1f, want 82.0", quality.Confidence)
	}

	diversity := findInsight(insights, "Diverse Network Connections")
	if diversity == nil {
		t.Fatal("expected network diversity insight")
	}
	if diversity.Confidence != 70.0 {
		t.Errorf("diversity confidence = %.1f, want 70.0", diversity.Confidence)
	}
}

func TestAnalyzer_Insights_Risk(t *testing.T) {
	fixedClock(t)
	analyzer := NewAnalyzer()
	scores := map[string]float64{}

	t.Run("recent negatives", func(t *testing.T) {
		entity := &domain.TrustEntity{ID: "entity-1", TransparencyLevel: 0.8}
		events := []*domain.TrustEvent{
			event("n1", domain.EventDispute, domain.OutcomeNegative, 10),
			event("n2", domain.EventDispute, domain.OutcomeNegative, 30),
			event("n3", domain.EventDispute, domain.OutcomeNegative, 50),
			event("n4", domain.EventDispute, domain.OutcomeNegative, 400), // outside window
		}

		insights := analyzer.Insights(entity, events, scores)
		insight := findInsight(insights, "Recent Negative Outcomes")
		if insight == nil {
			t.Fatal("expected risk insight")
		}
		if insight.Confidence != 85.0 {
			t.Errorf("confidence = %.1f, want 85.0", insight.Confidence)
		}
		if insight.Trend != domain.TrendDeclining {
			t.Errorf("trend = %q, want declining", insight.Trend)
		}

		// two recent negatives are below the threshold
		insights = analyzer.Insights(entity, events[:2], scores)
		if findInsight(insights, "Recent Negative Outcomes") != nil {
			t.Error("risk insight should require more than 2 recent negatives")
		}
	})

	t.Run("low transparency", func(t *testing.T) {
		entity := &domain.TrustEntity{ID: "entity-1", TransparencyLevel: 0.4}
		insights := analyzer.Insights(entity, nil, scores)
		if findInsight(insights, "Limited Transparency") == nil {
			t.Error("expected transparency insight")
		}
	})
}

func TestAnalyzer_Insights_Trend(t *testing.T) {
	fixedClock(t)
	analyzer := NewAnalyzer()
	entity := &domain.TrustEntity{ID: "entity-1"}
	scores := map[string]float64{}

	t.Run("improving", func(t *testing.T) {
		// early half all negative, recent half all positive
		events := []*domain.TrustEvent{
			event("e1", domain.EventDispute, domain.OutcomeNegative, 100),
			event("e2", domain.EventDispute, domain.OutcomeNegative, 90),
			event("e3", domain.EventDispute, domain.OutcomeNegative, 80),
			event("e4", domain.EventTransaction, domain.OutcomePositive, 30),
			event("e5", domain.EventTransaction, domain.OutcomePositive, 20),
			event("e6", domain.EventTransaction, domain.OutcomePositive, 10),
		}

		insights := analyzer.Insights(entity, events, scores)
		insight := findInsight(insights, "Improving Performance Trend")
		if insight == nil {
			t.Fatal("expected improving trend insight")
		}
		if insight.Trend != domain.TrendImproving {
			t.Errorf("trend = %q, want improving", insight.Trend)
		}
		if insight.Confidence != 78.0 {
			t.Errorf("confidence = %.1f, want 78.0", insight.Confidence)
		}
	})

	t.Run("declining", func(t *testing.T) {
		events := []*domain.TrustEvent{
			event("e1", domain.EventTransaction, domain.OutcomePositive, 100),
			event("e2", domain.EventTransaction, domain.OutcomePositive, 90),
			event("e3", domain.EventTransaction, domain.OutcomePositive, 80),
			event("e4", domain.EventDispute, domain.OutcomeNegative, 30),
			event("e5", domain.EventDispute, domain.OutcomeNegative, 20),
			event("e6", domain.EventDispute, domain.OutcomeNegative, 10),
		}

		insights := analyzer.Insights(entity, events, scores)
		insight := findInsight(insights, "Declining Performance Trend")
		if insight == nil {
			t.Fatal("expected declining trend insight")
		}
		if insight.Confidence != 82.0 {
			t.Errorf("confidence = %.1f, want 82.0", insight.Confidence)
		}
	})

	t.Run("too few events", func(t *testing.T) {
		events := []*domain.TrustEvent{
			event("e1", domain.EventDispute, domain.OutcomeNegative, 40),
			event("e2", domain.EventTransaction, domain.OutcomePositive, 30),
			event("e3", domain.EventTransaction, domain.OutcomePositive, 20),
			event("e4", domain.EventTransaction, domain.OutcomePositive, 10),
		}
		insights := analyzer.Insights(entity, events, scores)
		if findInsight(insights, "Improving Performance Trend") != nil {
			t.Error("trend analysis requires at least 5 events")
		}
	})
}

func TestAnalyzer_Insights_Ordering(t *testing.T) {
	fixedClock(t)
	analyzer := NewAnalyzer()

	// Entity triggering several rules at once.
	entity := &domain.TrustEntity{
		ID:                "entity-1",
		IdentityVerified:  true,
		TransparencyLevel: 0.4,
		Connections: []domain.Connection{
			{EntityID: "c1", ConnectionType: "business", TrustScore: 90},
			{EntityID: "c2", ConnectionType: "community", TrustScore: 88},
			{EntityID: "c3", ConnectionType: "mentorship", TrustScore: 86},
		},
	}
	insights := analyzer.Insights(entity, nil, map[string]float64{domain.DimensionSource: 90})

	if len(insights) < 3 {
		t.Fatalf("expected at least 3 insights, got %d", len(insights))
	}
	if !sort.SliceIsSorted(insights, func(i, j int) bool {
		return insights[i].Confidence > insights[j].Confidence
	}) {
		t.Error("insights should be ordered by descending confidence")
	}
	if insights[0].Title != "Strong Identity Verification" {
		t.Errorf("first insight = %q, want the 92-confidence identity rule", insights[0].Title)
	}
}

func TestAnalyzer_Patterns(t *testing.T) {
	fixedClock(t)
	analyzer := NewAnalyzer()
	entity := &domain.TrustEntity{ID: "entity-1"}

	t.Run("community engagement at threshold", func(t *testing.T) {
		var events []*domain.TrustEvent
		for i := 0; i < 8; i++ {
			eventType := domain.EventCollaboration
			if i%3 == 0 {
				eventType = domain.EventEndorsement
			}
			events = append(events, event("c"+string(rune('a'+i)), eventType, domain.OutcomePositive, 100-i*10))
		}

		patterns := analyzer.Patterns(entity, events)
		if len(patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(patterns))
		}
		p := patterns[0]
		if p.PatternType != "community_engagement" {
			t.Errorf("pattern type = %q, want community_engagement", p.PatternType)
		}
		if p.Frequency != 8 {
			t.Errorf("frequency = %d, want 8", p.Frequency)
		}
		if p.RiskLevel != domain.RiskLow {
			t.Errorf("risk = %q, want low", p.RiskLevel)
		}
		want := testNow.AddDate(0, 0, -30) // newest of the series
		if !p.LastOccurrence.Equal(want) {
			t.Errorf("last occurrence = %v, want %v", p.LastOccurrence, want)
		}
	})

	t.Run("professional development at threshold", func(t *testing.T) {
		events := []*domain.TrustEvent{
			event("p1", domain.EventCertification, domain.OutcomePositive, 60),
			event("p2", domain.EventTraining, domain.OutcomePositive, 40),
			event("p3", domain.EventProfessionalDevelopment, domain.OutcomePositive, 20),
		}

		patterns := analyzer.Patterns(entity, events)
		if len(patterns) != 1 || patterns[0].PatternType != "professional_development" {
			t.Fatalf("expected professional_development pattern, got %+v", patterns)
		}

		// two such events are not enough
		if got := analyzer.Patterns(entity, events[:2]); len(got) != 0 {
			t.Errorf("expected no patterns below threshold, got %d", len(got))
		}
	})

	t.Run("high value transactions need metadata value", func(t *testing.T) {
		var events []*domain.TrustEvent
		for i := 0; i < 6; i++ {
			ev := event("hv"+string(rune('a'+i)), domain.EventTransaction, domain.OutcomePositive, 60-i*10)
			ev.Metadata = map[string]any{"value": 2500.0}
			events = append(events, ev)
		}

		patterns := analyzer.Patterns(entity, events)
		if len(patterns) != 1 || patterns[0].PatternType != "high_value_activity" {
			t.Fatalf("expected high_value_activity pattern, got %+v", patterns)
		}

		// transactions without a value do not count
		plain := []*domain.TrustEvent{}
		for i := 0; i < 6; i++ {
			plain = append(plain, event("pl"+string(rune('a'+i)), domain.EventTransaction, domain.OutcomePositive, 60-i*10))
		}
		if got := analyzer.Patterns(entity, plain); len(got) != 0 {
			t.Errorf("expected no patterns for unvalued transactions, got %d", len(got))
		}
	})

	t.Run("no events no patterns", func(t *testing.T) {
		if got := analyzer.Patterns(entity, nil); len(got) != 0 {
			t.Errorf("expected no patterns, got %d", len(got))
		}
	})
}

func TestAnalyzer_ConfidenceIntervals(t *testing.T) {
	analyzer := NewAnalyzer()
	scores := map[string]float64{
		domain.DimensionSource:  80,
		domain.DimensionOutcome: 3,
		domain.DimensionJustice: 98,
	}

	t.Run("margin widens with sparse data", func(t *testing.T) {
		// 4 events: margin = 5 + (20-4)*0.5 = 13
		events := []*domain.TrustEvent{
			event("e1", domain.EventTransaction, domain.OutcomePositive, 40),
			event("e2", domain.EventTransaction, domain.OutcomePositive, 30),
			event("e3", domain.EventTransaction, domain.OutcomePositive, 20),
			event("e4", domain.EventTransaction, domain.OutcomePositive, 10),
		}

		intervals := analyzer.ConfidenceIntervals(scores, events)

		source := intervals[domain.DimensionSource]
		if source.Lower != 67 || source.Upper != 93 {
			t.Errorf("source interval = [%.1f, %.1f], want [67, 93]", source.Lower, source.Upper)
		}

		outcome := intervals[domain.DimensionOutcome]
		if outcome.Lower != 0 {
			t.Errorf("outcome lower = %.1f, want clamp at 0", outcome.Lower)
		}

		justice := intervals[domain.DimensionJustice]
		if justice.Upper != 100 {
			t.Errorf("justice upper = %.1f, want clamp at 100", justice.Upper)
		}
	})

	t.Run("margin floors at 5 with 20 or more events", func(t *testing.T) {
		var events []*domain.TrustEvent
		for i := 0; i < 25; i++ {
			events = append(events, event(
				"m"+string(rune('a'+i%26)), domain.EventTransaction, domain.OutcomePositive, i+1))
		}

		intervals := analyzer.ConfidenceIntervals(scores, events)
		source := intervals[domain.DimensionSource]
		if source.Lower != 75 || source.Upper != 85 {
			t.Errorf("source interval = [%.1f, %.1f], want [75, 85]", source.Lower, source.Upper)
		}
	})
}
