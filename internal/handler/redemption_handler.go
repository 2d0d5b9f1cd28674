package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/punchly/service-loyalty/internal/application"
	"github.com/punchly/service-loyalty/internal/platform/auth"
	"github.com/punchly/service-loyalty/internal/platform/middleware"
	"github.com/punchly/service-loyalty/internal/platform/response"
	"github.com/punchly/service-loyalty/internal/qr"
)

// RedemptionHandler handles HTTP requests for issuing redemption tokens.
type RedemptionHandler struct {
	service *application.RedemptionService
}

// NewRedemptionHandler creates a new RedemptionHandler.
func NewRedemptionHandler(service *application.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{service: service}
}

// RegisterRoutes registers all redemption routes on the given router group.
func (h *RedemptionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	redemptions := r.Group("/redemptions")
	redemptions.Use(middleware.AuthMiddleware(jwtManager))
	{
		redemptions.POST("", middleware.RequireRole(auth.RoleUser), h.IssueToken)
		redemptions.GET("/:token/qr", middleware.RequireRole(auth.RoleUser), h.TokenQRImage)
	}
}

// IssueToken handles POST /api/v1/redemptions
func (h *RedemptionHandler) IssueToken(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.Issue(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// TokenQRImage handles GET /api/v1/redemptions/:token/qr
func (h *RedemptionHandler) TokenQRImage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	payload, err := h.service.EncodePayload(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	png, err := qr.RenderPNG(payload, qr.DefaultImageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
