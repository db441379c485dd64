package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/dto"
	"github.com/kitewire/treasury_backend/internal/middleware"
)

type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newReconciliationHandler(reconciliationService portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{reconciliationService: reconciliationService}
}

// triggerRun handles POST /reconciliation/runs.
func (h *reconciliationHandler) triggerRun(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}

	correlationID := middleware.GetCorrelationID(c.Request.Context())
	run, err := h.reconciliationService.TriggerRun(c.Request.Context(), scope, correlationID)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("reconciliation run finished",
		slog.String("run_id", run.RunID.String()),
		slog.String("status", string(run.Status)),
		slog.Int("entries_verified", run.EntriesVerified))
	c.JSON(http.StatusCreated, dto.ToReconciliationRunResponse(run))
}

// getRun handles GET /reconciliation/runs/:runID.
func (h *reconciliationHandler) getRun(c *gin.Context) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}
	runID, err := uuid.Parse(c.Param("runID"))
	if err != nil {
		respondError(c, apperrors.NewValidation("invalid run id", nil))
		return
	}

	run, err := h.reconciliationService.GetRun(c.Request.Context(), scope, runID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationRunResponse(run))
}
