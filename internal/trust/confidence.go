package trust

import (
	"github.com/chittyos/trustengine/internal/domain"
)

// calculateConfidence estimates how much the score should be trusted.
// Three weighted components: data quantity (0.5), score consistency
// across dimensions (0.3), and recency of the latest event (0.2).
// The result is clamped to [0.1, 1.0] so a score is never presented
// as fully certain or fully meaningless.
func calculateConfidence(events []*domain.TrustEvent, dims DimensionScores) float64 {
	eventConfidence := min(float64(len(events))/100, 1.0) * 0.5

	consistencyConfidence := (1 - dims.Variance()/5000) * 0.3

	var recencyConfidence float64
	if len(events) > 0 {
		latest := events[0].Timestamp
		for _, ev := range events[1:] {
			if ev.Timestamp.After(latest) {
				latest = ev.Timestamp
			}
		}
		// Whole days, matching calendar-style aging.
		daysOld := float64(int(timeNow().UTC().Sub(latest).Hours() / 24))
		recencyConfidence = max(0, 1-daysOld/365) * 0.2
	}

	total := eventConfidence + consistencyConfidence + recencyConfidence

	return min(max(total, 0.1), 1.0)
}
