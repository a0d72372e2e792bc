package domain

import "time"

// WatchConfig defines a score watch rule. Watches are operator-defined
// CEL expressions evaluated over a freshly computed trust assessment;
// they turn score movements into review/alert signals without touching
// the scoring formulas themselves.
type WatchConfig struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// CEL expression over assessment variables (chitty, legal, people,
	// state, composite, the six dimension scores, confidence,
	// event_count, activity_count). Must return bool, int, or double.
	Expression string `json:"expression"`

	// Outcome bands for value-to-outcome mapping
	Bands []WatchBand `json:"bands"`

	// Whether the watch is active
	Enabled bool `json:"enabled"`

	// Audit timestamps
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// WatchBand maps a value range to an outcome.
type WatchBand struct {
	LowerLimit *float64 `json:"lowerLimit,omitempty"`
	UpperLimit *float64 `json:"upperLimit,omitempty"`
	Outcome    string   `json:"outcome"` // ".pass", ".review", ".alert"
	Reason     string   `json:"reason"`
}

// WatchResult is the output of a watch evaluation.
type WatchResult struct {
	WatchID   string  `json:"watchId"`
	TenantID  string  `json:"tenantId"`
	EntityID  string  `json:"entityId"`
	Outcome   string  `json:"outcome"`
	Value     float64 `json:"value"` // the computed expression value
	Reason    string  `json:"reason"`
	ProcessMs int64   `json:"processMs"`
}

// Predefined watch outcomes
const (
	WatchOutcomePass   = ".pass"
	WatchOutcomeReview = ".review"
	WatchOutcomeAlert  = ".alert"
	WatchOutcomeError  = ".err"
)
