package domain

import "time"

// Insight impact values.
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
	ImpactNeutral  = "neutral"
)

// Insight trend values.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Pattern risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// TrustInsight is a qualitative, confidence-scored observation derived
// from an entity's trust data.
type TrustInsight struct {
	Category           string   `json:"category"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Impact             string   `json:"impact"`     // positive, negative, neutral
	Confidence         float64  `json:"confidence"` // 0-100
	SupportingEvidence []string `json:"supportingEvidence"`
	Trend              string   `json:"trend,omitempty"` // improving, declining, stable
}

// TrustPattern is a recurring behavioral signature detected in the
// event history.
type TrustPattern struct {
	PatternType    string    `json:"patternType"`
	Description    string    `json:"description"`
	Frequency      int       `json:"frequency"`
	LastOccurrence time.Time `json:"lastOccurrence"`
	RiskLevel      string    `json:"riskLevel"` // low, medium, high
	Recommendation string    `json:"recommendation"`
}

// ScoreInterval is a confidence interval around a dimension score,
// clamped to [0,100].
type ScoreInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}
