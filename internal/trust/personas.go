package trust

import (
	"time"

	"github.com/chittyos/trustengine/internal/domain"
)

// Persona returns demo entity and event data for one of the built-in
// personas: "alice" (high-trust community leader), "bob" (mixed
// business history with a resolved dispute), or "charlie"
// (transformation story). Returns nil for an unknown id.
//
// Timestamps are anchored to the current clock so temporal and recency
// scoring behaves as intended whenever the demo runs.
func Persona(id string) (*domain.TrustEntity, []*domain.TrustEvent) {
	switch id {
	case "alice":
		return alicePersona()
	case "bob":
		return bobPersona()
	case "charlie":
		return charliePersona()
	default:
		return nil, nil
	}
}

// PersonaIDs lists the built-in personas.
func PersonaIDs() []string {
	return []string{"alice", "bob", "charlie"}
}

func daysAgo(days int) time.Time {
	return timeNow().UTC().AddDate(0, 0, -days)
}

func alicePersona() (*domain.TrustEntity, []*domain.TrustEvent) {
	entity := &domain.TrustEntity{
		ID:                "alice_community",
		EntityType:        "person",
		Name:              "Alice Community",
		CreatedAt:         daysAgo(1095),
		IdentityVerified:  true,
		TransparencyLevel: 0.9,
		Credentials: []domain.Credential{
			{
				Type:               domain.CredentialGovernmentID,
				Issuer:             "State of Illinois",
				IssuedAt:           daysAgo(900),
				VerificationStatus: domain.VerificationVerified,
			},
			{
				Type:               domain.CredentialProfessional,
				Issuer:             "Community Leadership Certificate",
				IssuedAt:           daysAgo(600),
				VerificationStatus: domain.VerificationVerified,
			},
			{
				Type:               domain.CredentialEducational,
				Issuer:             "University of Chicago",
				IssuedAt:           daysAgo(2000),
				VerificationStatus: domain.VerificationVerified,
			},
		},
		Connections: []domain.Connection{
			{
				EntityID:         "nonprofit_org_1",
				ConnectionType:   "leadership",
				EstablishedAt:    daysAgo(800),
				TrustScore:       92.0,
				InteractionCount: 150,
			},
			{
				EntityID:         "local_government",
				ConnectionType:   "civic_engagement",
				EstablishedAt:    daysAgo(600),
				TrustScore:       88.0,
				InteractionCount: 75,
			},
			{
				EntityID:         "community_members",
				ConnectionType:   "community",
				EstablishedAt:    daysAgo(1000),
				TrustScore:       94.0,
				InteractionCount: 300,
			},
		},
	}

	events := []*domain.TrustEvent{
		{
			ID:          "alice_evt_1",
			EntityID:    entity.ID,
			EventType:   domain.EventAchievement,
			Timestamp:   daysAgo(30),
			Channel:     "verified_api",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 8.5,
			Tags:        domain.NewTagSet("community_impact", "justice", "helped_vulnerable"),
			Metadata:    map[string]any{"description": "Organized community food drive"},
		},
		{
			ID:          "alice_evt_2",
			EntityID:    entity.ID,
			EventType:   domain.EventCollaboration,
			Timestamp:   daysAgo(60),
			Channel:     "blockchain",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 7.2,
			Tags:        domain.NewTagSet("transparency", "community_impact"),
			Metadata:    map[string]any{"description": "Led transparent budget planning"},
		},
		{
			ID:          "alice_evt_3",
			EntityID:    entity.ID,
			EventType:   domain.EventDisputeResolution,
			Timestamp:   daysAgo(90),
			Channel:     "email",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 6.8,
			Tags:        domain.NewTagSet("justice", "fairness", "mediation"),
			Metadata:    map[string]any{"description": "Successfully mediated neighbor dispute"},
		},
		{
			ID:          "alice_evt_4",
			EntityID:    entity.ID,
			EventType:   domain.EventEndorsement,
			Timestamp:   daysAgo(45),
			Channel:     "social_media",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 5.5,
			Tags:        domain.NewTagSet("community", "endorsement"),
			Metadata:    map[string]any{"description": "Endorsed by community members"},
		},
		{
			ID:          "alice_evt_5",
			EntityID:    entity.ID,
			EventType:   domain.EventVerification,
			Timestamp:   daysAgo(15),
			Channel:     "verified_api",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 4.0,
			Tags:        domain.NewTagSet("transparency", "accountability"),
			Metadata:    map[string]any{"description": "Background check completed"},
		},
	}

	return entity, events
}

func bobPersona() (*domain.TrustEntity, []*domain.TrustEvent) {
	entity := &domain.TrustEntity{
		ID:                "bob_business",
		EntityType:        "person",
		Name:              "Bob Business",
		CreatedAt:         daysAgo(1800),
		IdentityVerified:  true,
		TransparencyLevel: 0.6,
		Credentials: []domain.Credential{
			{
				Type:               domain.CredentialGovernmentID,
				Issuer:             "State of Illinois",
				IssuedAt:           daysAgo(1500),
				VerificationStatus: domain.VerificationVerified,
			},
			{
				Type:               domain.CredentialProfessional,
				Issuer:             "Illinois Business License",
				IssuedAt:           daysAgo(1200),
				VerificationStatus: domain.VerificationVerified,
			},
			{
				Type:               domain.CredentialFinancial,
				Issuer:             "Chase Bank",
				IssuedAt:           daysAgo(800),
				VerificationStatus: domain.VerificationVerified,
			},
		},
		Connections: []domain.Connection{
			{
				EntityID:         "business_partner_1",
				ConnectionType:   "business",
				EstablishedAt:    daysAgo(1200),
				TrustScore:       75.0,
				InteractionCount: 200,
			},
			{
				EntityID:         "customers",
				ConnectionType:   "commercial",
				EstablishedAt:    daysAgo(1500),
				TrustScore:       82.0,
				InteractionCount: 500,
			},
			{
				EntityID:         "suppliers",
				ConnectionType:   "vendor",
				EstablishedAt:    daysAgo(1000),
				TrustScore:       68.0,
				InteractionCount: 150,
			},
		},
	}

	events := []*domain.TrustEvent{
		{
			ID:          "bob_evt_1",
			EntityID:    entity.ID,
			EventType:   domain.EventTransaction,
			Timestamp:   daysAgo(20),
			Channel:     "bank_transfer",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 6.0,
			Tags:        domain.NewTagSet("business", "payment"),
			Metadata:    map[string]any{"description": "Successful large transaction"},
		},
		{
			ID:          "bob_evt_2",
			EntityID:    entity.ID,
			EventType:   domain.EventDispute,
			Timestamp:   daysAgo(120),
			Channel:     "email",
			Outcome:     domain.OutcomeNegative,
			ImpactScore: 3.0,
			Tags:        domain.NewTagSet("dispute", "customer_service"),
			Metadata:    map[string]any{"description": "Customer complaint about delivery"},
		},
		{
			ID:          "bob_evt_3",
			EntityID:    entity.ID,
			EventType:   domain.EventDisputeResolution,
			Timestamp:   daysAgo(100),
			Channel:     "phone",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 7.5,
			Tags:        domain.NewTagSet("resolution", "customer_satisfaction"),
			Metadata:    map[string]any{"description": "Successfully resolved dispute with refund"},
		},
		{
			ID:          "bob_evt_4",
			EntityID:    entity.ID,
			EventType:   domain.EventReview,
			Timestamp:   daysAgo(50),
			Channel:     "social_media",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 4.5,
			Tags:        domain.NewTagSet("review", "reputation"),
			Metadata:    map[string]any{"description": "Positive customer review"},
		},
		{
			ID:          "bob_evt_5",
			EntityID:    entity.ID,
			EventType:   domain.EventVerification,
			Timestamp:   daysAgo(200),
			Channel:     "verified_api",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 5.0,
			Tags:        domain.NewTagSet("compliance", "audit_passed"),
			Metadata:    map[string]any{"description": "Business license renewal"},
		},
	}

	return entity, events
}

func charliePersona() (*domain.TrustEntity, []*domain.TrustEvent) {
	entity := &domain.TrustEntity{
		ID:                "charlie_changed",
		EntityType:        "person",
		Name:              "Charlie Changed",
		CreatedAt:         daysAgo(2190),
		IdentityVerified:  true,
		TransparencyLevel: 0.8,
		Credentials: []domain.Credential{
			{
				Type:               domain.CredentialGovernmentID,
				Issuer:             "State of Illinois",
				IssuedAt:           daysAgo(2000),
				VerificationStatus: domain.VerificationVerified,
			},
			{
				Type:               domain.CredentialEducational,
				Issuer:             "Community College Certificate",
				IssuedAt:           daysAgo(365),
				VerificationStatus: domain.VerificationVerified,
			},
		},
		Connections: []domain.Connection{
			{
				EntityID:         "support_group",
				ConnectionType:   "recovery",
				EstablishedAt:    daysAgo(730),
				TrustScore:       85.0,
				InteractionCount: 100,
			},
			{
				EntityID:         "mentor",
				ConnectionType:   "mentorship",
				EstablishedAt:    daysAgo(500),
				TrustScore:       90.0,
				InteractionCount: 50,
			},
			{
				EntityID:         "employer",
				ConnectionType:   "employment",
				EstablishedAt:    daysAgo(400),
				TrustScore:       78.0,
				InteractionCount: 80,
			},
		},
	}

	events := []*domain.TrustEvent{
		{
			ID:          "charlie_evt_1",
			EntityID:    entity.ID,
			EventType:   domain.EventDispute,
			Timestamp:   daysAgo(1800),
			Channel:     "anonymous",
			Outcome:     domain.OutcomeNegative,
			ImpactScore: 2.0,
			Tags:        domain.NewTagSet("violation", "past_mistakes"),
			Metadata:    map[string]any{"description": "Early dispute during learning period"},
		},
		{
			ID:          "charlie_evt_2",
			EntityID:    entity.ID,
			EventType:   domain.EventAchievement,
			Timestamp:   daysAgo(730),
			Channel:     "email",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 6.0,
			Tags:        domain.NewTagSet("transformation", "personal_growth"),
			Metadata:    map[string]any{"description": "Completed rehabilitation program"},
		},
		{
			ID:          "charlie_evt_3",
			EntityID:    entity.ID,
			EventType:   domain.EventCollaboration,
			Timestamp:   daysAgo(400),
			Channel:     "verified_api",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 7.0,
			Tags:        domain.NewTagSet("community_impact", "helped_vulnerable", "mentoring"),
			Metadata:    map[string]any{"description": "Now mentoring others in recovery"},
		},
		{
			ID:          "charlie_evt_4",
			EntityID:    entity.ID,
			EventType:   domain.EventAchievement,
			Timestamp:   daysAgo(200),
			Channel:     "blockchain",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 8.0,
			Tags:        domain.NewTagSet("transformation", "justice", "accountability"),
			Metadata:    map[string]any{"description": "Speaking at transformation conferences"},
		},
		{
			ID:          "charlie_evt_5",
			EntityID:    entity.ID,
			EventType:   domain.EventEndorsement,
			Timestamp:   daysAgo(100),
			Channel:     "social_media",
			Outcome:     domain.OutcomePositive,
			ImpactScore: 5.5,
			Tags:        domain.NewTagSet("community", "transformation", "inspiration"),
			Metadata:    map[string]any{"description": "Endorsed by community for positive change"},
		},
	}

	return entity, events
}
