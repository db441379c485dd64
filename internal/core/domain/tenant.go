package domain

import (
	"strings"

	"github.com/kitewire/treasury_backend/internal/apperrors"
)

// MarketID identifies the top-level jurisdiction/tenant boundary
// (e.g. a country deployment).
type MarketID string

// OrgID identifies an organization within a market; the primary tenant unit
// for account and transfer scoping.
type OrgID string

// LegalEntityID identifies a sub-scope within an org; accounts and transfers
// must share one legal entity.
type LegalEntityID string

func ParseMarketID(value string) (MarketID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.NewValidation("market id is required", nil)
	}
	return MarketID(trimmed), nil
}

func ParseOrgID(value string) (OrgID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.NewValidation("org id is required", nil)
	}
	return OrgID(trimmed), nil
}

func ParseLegalEntityID(value string) (LegalEntityID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.NewValidation("legal entity id is required", nil)
	}
	return LegalEntityID(trimmed), nil
}

func (m MarketID) String() string      { return string(m) }
func (o OrgID) String() string         { return string(o) }
func (l LegalEntityID) String() string { return string(l) }
