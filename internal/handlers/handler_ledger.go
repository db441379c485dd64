package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/dto"
	"github.com/kitewire/treasury_backend/internal/middleware"
)

// ledgerHandler serves the balance and chain query endpoints.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

// getBalance handles GET /accounts/:accountID/balance.
func (h *ledgerHandler) getBalance(c *gin.Context) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}
	accountID, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		respondError(c, apperrors.NewValidation("invalid account id", nil))
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), scope, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

// listJournalEntries handles GET /journal/entries.
func (h *ledgerHandler) listJournalEntries(c *gin.Context) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(c, apperrors.NewValidation("invalid limit", nil))
			return
		}
		limit = parsed
	}
	var nextToken *string
	if raw := c.Query("next_token"); raw != "" {
		nextToken = &raw
	}

	entries, token, err := h.ledgerService.ListJournalEntries(c.Request.Context(), scope, limit, nextToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListJournalEntriesResponse{
		Entries:   dto.ToJournalEntryResponses(entries),
		NextToken: token,
	})
}

// getJournalLines handles GET /journal/entries/:entryID/lines.
func (h *ledgerHandler) getJournalLines(c *gin.Context) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}
	entryID, err := uuid.Parse(c.Param("entryID"))
	if err != nil {
		respondError(c, apperrors.NewValidation("invalid entry id", nil))
		return
	}

	lines, err := h.ledgerService.GetJournalLines(c.Request.Context(), scope, entryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": dto.ToJournalLineResponses(lines)})
}

// listLedgerEntries handles GET /accounts/:accountID/ledger.
func (h *ledgerHandler) listLedgerEntries(c *gin.Context) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}
	accountID, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		respondError(c, apperrors.NewValidation("invalid account id", nil))
		return
	}

	entries, err := h.ledgerService.ListLedgerEntries(c.Request.Context(), scope, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": dto.ToLedgerEntryResponses(entries)})
}
