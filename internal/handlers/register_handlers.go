package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/middleware"
	"github.com/kitewire/treasury_backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service facades.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	registerValidations()

	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupAPIV1Routes(r, cfg, services, rateLimiter)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the
// per-resource registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1",
		middleware.RateLimit(rateLimiter),
		middleware.AuthMiddleware(cfg.JWTSecret),
	)

	registerTransferRoutes(v1, services.Transfer, services.Idempotency)
	registerLedgerRoutes(v1, services.Ledger)
	registerReconciliationRoutes(v1, services.Reconciliation)
}

func registerTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvcFacade, idempotencyService portssvc.IdempotencySvcFacade) {
	h := newTransferHandler(transferService, idempotencyService)

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.createTransfer)
		transfers.GET("/:transferID", h.getTransfer)
		transfers.POST("/:transferID/approve", h.approveTransfer)
		transfers.POST("/:transferID/cancel", h.cancelTransfer)
	}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:accountID/balance", h.getBalance)
		accounts.GET("/:accountID/ledger", h.listLedgerEntries)
	}

	journal := rg.Group("/journal")
	{
		journal.GET("/entries", h.listJournalEntries)
		journal.GET("/entries/:entryID/lines", h.getJournalLines)
	}
}

func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)

	runs := rg.Group("/reconciliation/runs")
	{
		runs.POST("", h.triggerRun)
		runs.GET("/:runID", h.getRun)
	}
}
