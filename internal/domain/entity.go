// Package domain defines the core types and interfaces for the trust engine.
package domain

import (
	"fmt"
	"time"
)

// Credential types recognized by the engine.
const (
	CredentialGovernmentID = "government_id"
	CredentialProfessional = "professional"
	CredentialEducational  = "educational"
	CredentialFinancial    = "financial"
	CredentialSocial       = "social"
	CredentialBlockchain   = "blockchain"
)

// Verification statuses for credentials. Only the external verification
// collaborator ever sets a credential to "verified"; the engine treats
// the field as a given fact.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Credential is a verifiable claim about an entity's identity or standing.
// Immutable once issued.
type Credential struct {
	Type               string         `json:"type"`
	Issuer             string         `json:"issuer"`
	IssuedAt           time.Time      `json:"issuedAt"`
	ExpiresAt          *time.Time     `json:"expiresAt,omitempty"`
	VerificationStatus string         `json:"verificationStatus"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Connection is a directed trust edge from the subject to another entity.
type Connection struct {
	EntityID         string     `json:"entityId"`
	ConnectionType   string     `json:"connectionType"`
	EstablishedAt    time.Time  `json:"establishedAt"`
	TrustScore       float64    `json:"trustScore"`       // 0-100
	InteractionCount int        `json:"interactionCount"` // >= 0
	LastInteraction  *time.Time `json:"lastInteraction,omitempty"`
}

// TrustEntity is the subject being assessed: a person, organization, or
// software agent. Collaborator-owned; the engine only reads it.
type TrustEntity struct {
	ID                string         `json:"id"`
	EntityType        string         `json:"entityType"` // "person", "organization", "agent"
	Name              string         `json:"name"`
	CreatedAt         time.Time      `json:"createdAt"`
	IdentityVerified  bool           `json:"identityVerified"`
	Credentials       []Credential   `json:"credentials,omitempty"`
	Connections       []Connection   `json:"connections,omitempty"`
	TransparencyLevel float64        `json:"transparencyLevel"` // 0-1
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ValidationError reports a malformed or out-of-range record field.
// Raised at the data-model boundary, never inside a scorer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

var credentialTypes = map[string]bool{
	CredentialGovernmentID: true,
	CredentialProfessional: true,
	CredentialEducational:  true,
	CredentialFinancial:    true,
	CredentialSocial:       true,
	CredentialBlockchain:   true,
}

// Validate checks credential field constraints.
func (c *Credential) Validate() error {
	if !credentialTypes[c.Type] {
		return &ValidationError{Field: "credential.type", Reason: fmt.Sprintf("unknown type %q", c.Type)}
	}
	if c.Issuer == "" {
		return &ValidationError{Field: "credential.issuer", Reason: "issuer is required"}
	}
	if c.IssuedAt.IsZero() {
		return &ValidationError{Field: "credential.issuedAt", Reason: "issuedAt is required"}
	}
	return nil
}

// Validate checks connection field constraints.
func (c *Connection) Validate() error {
	if c.EntityID == "" {
		return &ValidationError{Field: "connection.entityId", Reason: "entityId is required"}
	}
	if c.TrustScore < 0 || c.TrustScore > 100 {
		return &ValidationError{Field: "connection.trustScore", Reason: fmt.Sprintf("must be in [0,100], got %.2f", c.TrustScore)}
	}
	if c.InteractionCount < 0 {
		return &ValidationError{Field: "connection.interactionCount", Reason: "must be >= 0"}
	}
	return nil
}

// Validate checks entity field constraints, including all nested
// credentials and connections.
func (e *TrustEntity) Validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "entity.id", Reason: "id is required"}
	}
	if e.TransparencyLevel < 0 || e.TransparencyLevel > 1 {
		return &ValidationError{Field: "entity.transparencyLevel", Reason: fmt.Sprintf("must be in [0,1], got %.2f", e.TransparencyLevel)}
	}
	for i := range e.Credentials {
		if err := e.Credentials[i].Validate(); err != nil {
			return err
		}
	}
	for i := range e.Connections {
		if err := e.Connections[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
