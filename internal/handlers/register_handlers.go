package handlers

import (
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	registerHomeRoutes(r)

	// Setup API v1 routes, passing service interfaces
	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	registerPaymentRoutes(v1, service.Payment)
	registerObligationRoutes(v1, service.Obligation)
	registerSettlementRoutes(v1, service.Settlement)
	registerOrderRoutes(v1, service.Credit, service.Reversal)
	registerCompanyRoutes(v1, service.Payment, service.Obligation, service.Audit)
	registerLedgerRoutes(v1, service.Ledger)
	registerIntegrityRoutes(v1, service.Integrity)
}
