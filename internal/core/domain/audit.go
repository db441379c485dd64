package domain

import "time"

// AuditEvent is one append-only compliance record.
type AuditEvent struct {
	Market        MarketID
	Org           OrgID
	LegalEntity   LegalEntityID
	CorrelationID string
	Subject       string
	Action        string
	ResourceType  string
	ResourceID    string
	Outcome       string
	OccurredAt    time.Time
	Metadata      map[string]any
}
