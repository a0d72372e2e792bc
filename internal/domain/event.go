package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Event types recognized by the engine. The core nine drive scoring;
// the remaining types participate in pattern detection.
const (
	EventTransaction       = "transaction"
	EventInteraction       = "interaction"
	EventVerification      = "verification"
	EventEndorsement       = "endorsement"
	EventDispute           = "dispute"
	EventDisputeResolution = "dispute_resolution"
	EventCollaboration     = "collaboration"
	EventReview            = "review"
	EventAchievement       = "achievement"

	EventCommunityService        = "community_service"
	EventCertification           = "certification"
	EventProfessionalDevelopment = "professional_development"
	EventTraining                = "training"
)

// Event outcomes.
const (
	OutcomePositive = "positive"
	OutcomeNegative = "negative"
	OutcomeNeutral  = "neutral"
	OutcomePending  = "pending"
)

var eventTypes = map[string]bool{
	EventTransaction:             true,
	EventInteraction:             true,
	EventVerification:            true,
	EventEndorsement:             true,
	EventDispute:                 true,
	EventDisputeResolution:       true,
	EventCollaboration:           true,
	EventReview:                  true,
	EventAchievement:             true,
	EventCommunityService:        true,
	EventCertification:           true,
	EventProfessionalDevelopment: true,
	EventTraining:                true,
}

var outcomes = map[string]bool{
	OutcomePositive: true,
	OutcomeNegative: true,
	OutcomeNeutral:  true,
	OutcomePending:  true,
}

// TagSet is a set of string tags. Tag-based scoring rules use
// set-intersection tests against fixed vocabularies.
// Serializes as a JSON string array.
type TagSet map[string]struct{}

// NewTagSet builds a TagSet from the given tags.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether the set contains tag.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// ContainsAny reports whether the set intersects the given vocabulary.
func (s TagSet) ContainsAny(tags ...string) bool {
	for _, t := range tags {
		if _, ok := s[t]; ok {
			return true
		}
	}
	return false
}

// Slice returns the tags in sorted order.
func (s TagSet) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted string array.
func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes a string array into the set.
func (s *TagSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}

// TrustEvent is a timestamped occurrence affecting an entity's trust
// profile. Immutable, append-only; ordering by timestamp matters for
// temporal and trend logic.
type TrustEvent struct {
	ID              string         `json:"id"`
	EntityID        string         `json:"entityId"`
	EventType       string         `json:"eventType"`
	Timestamp       time.Time      `json:"timestamp"`
	Channel         string         `json:"channel,omitempty"`
	Outcome         string         `json:"outcome"`
	ImpactScore     float64        `json:"impactScore"` // 0-10
	RelatedEntities []string       `json:"relatedEntities,omitempty"`
	Tags            TagSet         `json:"tags,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Validate checks event field constraints.
func (e *TrustEvent) Validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "event.id", Reason: "id is required"}
	}
	if e.EntityID == "" {
		return &ValidationError{Field: "event.entityId", Reason: "entityId is required"}
	}
	if !eventTypes[e.EventType] {
		return &ValidationError{Field: "event.eventType", Reason: fmt.Sprintf("unknown type %q", e.EventType)}
	}
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "event.timestamp", Reason: "timestamp is required"}
	}
	if !outcomes[e.Outcome] {
		return &ValidationError{Field: "event.outcome", Reason: fmt.Sprintf("unknown outcome %q", e.Outcome)}
	}
	if e.ImpactScore < 0 || e.ImpactScore > 10 {
		return &ValidationError{Field: "event.impactScore", Reason: fmt.Sprintf("must be in [0,10], got %.2f", e.ImpactScore)}
	}
	return nil
}

// ValidateEvents validates a batch of events against the owning entity:
// every event must validate on its own, reference entityID, and carry a
// unique ID.
func ValidateEvents(entityID string, events []*TrustEvent) error {
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return err
		}
		if ev.EntityID != entityID {
			return &ValidationError{
				Field:  "event.entityId",
				Reason: fmt.Sprintf("event %s references entity %q, expected %q", ev.ID, ev.EntityID, entityID),
			}
		}
		if seen[ev.ID] {
			return &ValidationError{Field: "event.id", Reason: fmt.Sprintf("duplicate event id %q", ev.ID)}
		}
		seen[ev.ID] = true
	}
	return nil
}
