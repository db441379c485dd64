package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/dto"
	"github.com/kitewire/treasury_backend/internal/middleware"
)

const idempotencyKeyHeader = "Idempotency-Key"
const replayHeader = "X-Idempotent-Replay"

// transferHandler handles HTTP requests for the transfer lifecycle.
type transferHandler struct {
	transferService    portssvc.TransferSvcFacade
	idempotencyService portssvc.IdempotencySvcFacade
}

func newTransferHandler(transferService portssvc.TransferSvcFacade, idempotencyService portssvc.IdempotencySvcFacade) *transferHandler {
	return &transferHandler{
		transferService:    transferService,
		idempotencyService: idempotencyService,
	}
}

// createTransfer handles POST /transfers. The Idempotency-Key header is
// mandatory; a replayed request returns the stored response with the
// X-Idempotent-Replay header set.
func (h *transferHandler) createTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}

	idempotencyKey := c.GetHeader(idempotencyKeyHeader)
	if idempotencyKey == "" {
		respondError(c, apperrors.NewValidation("Idempotency-Key header is required", nil))
		return
	}

	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("failed to bind transfer request", slog.String("error", err.Error()))
		respondError(c, apperrors.NewValidation("invalid request format", nil))
		return
	}

	correlationID := middleware.GetCorrelationID(c.Request.Context())

	response, err := h.idempotencyService.Execute(c.Request.Context(), scope, idempotencyKey, req,
		func(ctx context.Context) (int, any, error) {
			draft, err := buildDraft(scope, req)
			if err != nil {
				return 0, nil, err
			}
			created, err := h.transferService.CreateTransfer(ctx, scope, draft, correlationID)
			if err != nil {
				return 0, nil, err
			}
			return http.StatusCreated, dto.ToTransferResponse(created), nil
		})
	if err != nil {
		respondError(c, err)
		return
	}

	if response.Replayed {
		c.Header(replayHeader, "true")
	}
	c.Data(response.Status, "application/json", response.Body)
}

func buildDraft(scope domain.RequestScope, req dto.CreateTransferRequest) (*domain.Transfer, error) {
	legalEntity, err := domain.ParseLegalEntityID(req.LegalEntityID)
	if err != nil {
		return nil, err
	}
	sourceID, err := uuid.Parse(req.SourceAccountID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid source account id", nil)
	}
	destinationID, err := uuid.Parse(req.DestinationAccountID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid destination account id", nil)
	}
	money, err := domain.NewMoney(req.Amount.AmountMinor, req.Amount.Currency)
	if err != nil {
		return nil, err
	}
	return domain.NewPendingTransfer(scope.Market, scope.Org, legalEntity, sourceID, destinationID,
		money, scope.Subject, req.Reason, time.Now())
}

// getTransfer handles GET /transfers/:transferID.
func (h *transferHandler) getTransfer(c *gin.Context) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}
	transferID, err := uuid.Parse(c.Param("transferID"))
	if err != nil {
		respondError(c, apperrors.NewValidation("invalid transfer id", nil))
		return
	}

	transfer, err := h.transferService.GetTransfer(c.Request.Context(), scope, transferID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// approveTransfer handles POST /transfers/:transferID/approve.
func (h *transferHandler) approveTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}
	transferID, err := uuid.Parse(c.Param("transferID"))
	if err != nil {
		respondError(c, apperrors.NewValidation("invalid transfer id", nil))
		return
	}

	correlationID := middleware.GetCorrelationID(c.Request.Context())
	transfer, err := h.transferService.ApproveTransfer(c.Request.Context(), scope, transferID, correlationID)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("transfer approved",
		slog.String("transfer_id", transferID.String()),
		slog.String("status", string(transfer.Status)))
	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// cancelTransfer handles POST /transfers/:transferID/cancel.
func (h *transferHandler) cancelTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorized("missing request scope"))
		return
	}
	transferID, err := uuid.Parse(c.Param("transferID"))
	if err != nil {
		respondError(c, apperrors.NewValidation("invalid transfer id", nil))
		return
	}

	var req dto.CancelTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("failed to bind cancel request", slog.String("error", err.Error()))
		respondError(c, apperrors.NewValidation("invalid request format", nil))
		return
	}

	correlationID := middleware.GetCorrelationID(c.Request.Context())
	transfer, err := h.transferService.CancelTransfer(c.Request.Context(), scope, transferID, req.Reason, correlationID)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("transfer canceled", slog.String("transfer_id", transferID.String()))
	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}
