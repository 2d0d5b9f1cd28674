package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/application"
	"github.com/punchly/service-loyalty/internal/platform/auth"
	"github.com/punchly/service-loyalty/internal/platform/middleware"
	"github.com/punchly/service-loyalty/internal/platform/response"
)

// AdminHandler handles admin HTTP requests for loyalty oversight.
type AdminHandler struct {
	businessService *application.BusinessService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(businessService *application.BusinessService) *AdminHandler {
	return &AdminHandler{businessService: businessService}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/businesses/:id/stats", h.BusinessStats)
	}
}

// BusinessStats handles GET /api/v1/admin/businesses/:id/stats
func (h *AdminHandler) BusinessStats(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid business ID")
		return
	}

	stats, err := h.businessService.GetStats(c.Request.Context(), businessID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
