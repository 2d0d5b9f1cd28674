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

// PunchcardHandler handles customer-facing punchcard requests.
type PunchcardHandler struct {
	service *application.PunchService
}

// NewPunchcardHandler creates a new PunchcardHandler.
func NewPunchcardHandler(service *application.PunchService) *PunchcardHandler {
	return &PunchcardHandler{service: service}
}

// RegisterRoutes registers punchcard routes on the given router group.
func (h *PunchcardHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	punchcards := r.Group("/punchcards")
	punchcards.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleUser))
	{
		punchcards.GET("", h.ListPunchcards)
		punchcards.GET("/identity/qr", h.IdentityQRImage)
	}
}

// ListPunchcards handles GET /api/v1/punchcards
func (h *PunchcardHandler) ListPunchcards(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dtos, err := h.service.ListPunchcards(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dtos)
}

// IdentityQRImage handles GET /api/v1/punchcards/identity/qr
func (h *PunchcardHandler) IdentityQRImage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	png, err := qr.RenderPNG(qr.EncodeIdentity(userID), qr.DefaultImageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
