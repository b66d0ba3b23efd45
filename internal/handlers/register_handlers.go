package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fibukit/fibu_backend/internal/core/domain/accountpath"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerCustomValidators(cfg)

	r.GET("/", getHome)
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	registerAccountRoutes(v1, services.Account)
	registerEntryRoutes(v1, services.Entry)
	registerTemplateRoutes(v1, services.Template)
	registerReportingRoutes(v1, services.Reporting)
}

// registerCustomValidators attaches the "accountpath" binding rule so request
// payloads reject malformed paths before they reach the services.
func registerCustomValidators(cfg *config.Config) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	maxDepth := cfg.Ledger.MaxAccountDepth
	_ = v.RegisterValidation("accountpath", func(fl validator.FieldLevel) bool {
		return accountpath.Validate(fl.Field().String(), maxDepth) == nil
	})
}
