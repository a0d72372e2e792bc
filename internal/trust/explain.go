package trust

import (
	"github.com/chittyos/trustengine/internal/domain"
)

// explanationBands maps each dimension to its low / medium / high text.
// Band boundaries are <50 and <80.
var explanationBands = map[string][3]string{
	domain.DimensionSource: {
		"Limited verification of identity and credentials",
		"Partially verified identity with some credentials",
		"Fully verified identity with strong credentials",
	},
	domain.DimensionTemporal: {
		"Limited or inconsistent history",
		"Moderate history with some gaps",
		"Long, consistent history of positive behavior",
	},
	domain.DimensionChannel: {
		"Uses unverified or low-trust channels",
		"Mix of verified and unverified channels",
		"Primarily uses verified, high-trust channels",
	},
	domain.DimensionOutcome: {
		"Poor track record of outcomes",
		"Mixed outcomes with room for improvement",
		"Excellent track record of positive outcomes",
	},
	domain.DimensionNetwork: {
		"Limited or low-trust network connections",
		"Growing network with mixed trust levels",
		"Strong network of high-trust connections",
	},
	domain.DimensionJustice: {
		"Actions show limited alignment with justice",
		"Generally justice-aligned with some concerns",
		"Strongly aligned with justice principles",
	},
}

// explainDimensions produces the per-dimension human-readable text.
func explainDimensions(dims DimensionScores) map[string]string {
	scores := dims.AsMap()
	explanation := make(map[string]string, len(scores))
	for name, score := range scores {
		bands := explanationBands[name]
		switch {
		case score < 50:
			explanation[name] = bands[0]
		case score < 80:
			explanation[name] = bands[1]
		default:
			explanation[name] = bands[2]
		}
	}
	return explanation
}
