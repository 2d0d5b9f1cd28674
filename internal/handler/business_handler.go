package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/application"
	"github.com/punchly/service-loyalty/internal/platform/auth"
	"github.com/punchly/service-loyalty/internal/platform/middleware"
	"github.com/punchly/service-loyalty/internal/platform/response"
)

// BusinessHandler handles loyalty program settings for business accounts.
type BusinessHandler struct {
	service *application.BusinessService
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(service *application.BusinessService) *BusinessHandler {
	return &BusinessHandler{service: service}
}

// RegisterRoutes registers business routes on the given router group.
func (h *BusinessHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	businesses := r.Group("/businesses")
	businesses.Use(middleware.AuthMiddleware(jwtManager))
	{
		businesses.GET("/:id", h.GetBusiness)
		businesses.PUT("/program", middleware.RequireRole(auth.RoleBusiness), h.UpdateProgram)
		businesses.GET("/stats", middleware.RequireRole(auth.RoleBusiness), h.OwnStats)
	}
}

// GetBusiness handles GET /api/v1/businesses/:id
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid business ID")
		return
	}

	dto, err := h.service.GetBusiness(c.Request.Context(), businessID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// UpdateProgram handles PUT /api/v1/businesses/program
func (h *BusinessHandler) UpdateProgram(c *gin.Context) {
	businessID, ok := middleware.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.UpdateProgram(c.Request.Context(), businessID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// OwnStats handles GET /api/v1/businesses/stats
func (h *BusinessHandler) OwnStats(c *gin.Context) {
	businessID, ok := middleware.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), businessID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
