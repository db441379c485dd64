package domain

import (
	"strings"

	"github.com/kitewire/treasury_backend/internal/apperrors"
)

// RequestScope carries the tenant context of a single request. It is passed
// explicitly as the first argument to every service call; there is no
// ambient/global tenant state.
type RequestScope struct {
	Market               MarketID
	Org                  OrgID
	AllowedLegalEntities map[LegalEntityID]struct{}
	Subject              string
}

// NewRequestScope validates and normalizes a scope. An empty allowed set
// means the subject is not restricted to particular legal entities.
func NewRequestScope(market MarketID, org OrgID, allowedLegalEntities []LegalEntityID, subject string) (RequestScope, error) {
	if market == "" {
		return RequestScope{}, apperrors.NewValidation("market id is required", nil)
	}
	if org == "" {
		return RequestScope{}, apperrors.NewValidation("org id is required", nil)
	}
	if strings.TrimSpace(subject) == "" {
		return RequestScope{}, apperrors.NewValidation("subject is required", nil)
	}
	allowed := make(map[LegalEntityID]struct{}, len(allowedLegalEntities))
	for _, le := range allowedLegalEntities {
		allowed[le] = struct{}{}
	}
	return RequestScope{
		Market:               market,
		Org:                  org,
		AllowedLegalEntities: allowed,
		Subject:              subject,
	}, nil
}

// AllowsLegalEntity reports whether the scope may act on the given legal
// entity. An empty allowed set allows every legal entity of the org.
func (s RequestScope) AllowsLegalEntity(legalEntity LegalEntityID) bool {
	if len(s.AllowedLegalEntities) == 0 {
		return true
	}
	_, ok := s.AllowedLegalEntities[legalEntity]
	return ok
}
