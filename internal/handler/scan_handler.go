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

// ScanRequest carries the raw decoded QR text from the business scanner.
type ScanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// ScanResult wraps the outcome of a scan with the action that was taken.
type ScanResult struct {
	Action     string                           `json:"action"`
	Punch      *application.PunchResultDTO      `json:"punch,omitempty"`
	Redemption *application.RedemptionResultDTO `json:"redemption,omitempty"`
}

// ScanHandler dispatches scanned QR payloads to the punch or redemption flow.
type ScanHandler struct {
	punches     *application.PunchService
	redemptions *application.RedemptionService
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(punches *application.PunchService, redemptions *application.RedemptionService) *ScanHandler {
	return &ScanHandler{punches: punches, redemptions: redemptions}
}

// RegisterRoutes registers scan routes on the given router group.
func (h *ScanHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	scans := r.Group("/scans")
	scans.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleBusiness))
	{
		scans.POST("", h.Scan)
	}
}

// Scan handles POST /api/v1/scans
func (h *ScanHandler) Scan(c *gin.Context) {
	businessID, ok := middleware.GetBusinessID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	payload, err := qr.Decode(req.Payload)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	switch p := payload.(type) {
	case qr.CustomerIdentityPayload:
		dto, err := h.punches.RecordPunch(c.Request.Context(), businessID, p.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, ScanResult{Action: "punch", Punch: dto})

	case qr.RedemptionPayload:
		dto, err := h.redemptions.Redeem(c.Request.Context(), p, businessID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, ScanResult{Action: "redemption", Redemption: dto})

	default:
		response.BadRequest(c, "Invalid QR code format")
	}
}
