package ledger

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/middleware"
)

// Handler handles HTTP requests for the ride ledger.
type Handler struct {
	service *Service
}

// NewHandler creates a ride ledger handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the ride lifecycle endpoints.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/rides", h.RequestRide)
	r.GET("/rides/:id", h.GetRide)
	r.POST("/rides/:id/accept", h.AcceptRide)
	r.POST("/rides/:id/start", h.StartRide)
	r.POST("/rides/:id/complete", h.CompleteRide)
	r.POST("/rides/:id/cancel", h.CancelRide)
}

// RequestRide handles creating a new ride request.
func (h *Handler) RequestRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Pickup      string `json:"pickup" binding:"required"`
		Destination string `json:"destination" binding:"required"`
		Distance    int64  `json:"distance" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ride, err := h.service.RequestRide(c.Request.Context(), userID, req.Pickup, req.Destination, req.Distance)
	if err != nil {
		respondError(c, err, "failed to request ride")
		return
	}
	common.CreatedResponse(c, ride)
}

// GetRide returns a ride record.
func (h *Handler) GetRide(c *gin.Context) {
	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	ride, err := h.service.GetRide(c.Request.Context(), rideID)
	if err != nil {
		respondError(c, err, "failed to get ride")
		return
	}
	common.SuccessResponse(c, ride)
}

// AcceptRide handles a driver claiming a requested ride.
func (h *Handler) AcceptRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	ride, err := h.service.AcceptRide(c.Request.Context(), userID, rideID)
	if err != nil {
		respondError(c, err, "failed to accept ride")
		return
	}
	common.SuccessResponse(c, ride)
}

// StartRide handles the assigned driver starting a ride.
func (h *Handler) StartRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	ride, err := h.service.StartRide(c.Request.Context(), userID, rideID)
	if err != nil {
		respondError(c, err, "failed to start ride")
		return
	}
	common.SuccessResponse(c, ride)
}

// CompleteRide handles the rider completing and paying for a ride.
func (h *Handler) CompleteRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	var req struct {
		AmountPaid int64 `json:"amount_paid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ride, settlement, err := h.service.CompleteRide(c.Request.Context(), userID, rideID, req.AmountPaid)
	if err != nil {
		respondError(c, err, "failed to complete ride")
		return
	}
	common.SuccessResponse(c, gin.H{"ride": ride, "settlement": settlement})
}

// CancelRide handles either party cancelling a not-yet-started ride.
func (h *Handler) CancelRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	rideID, ok := parseRideID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ride, err := h.service.CancelRide(c.Request.Context(), userID, rideID, req.Reason)
	if err != nil {
		respondError(c, err, "failed to cancel ride")
		return
	}
	common.SuccessResponse(c, ride)
}

func parseRideID(c *gin.Context) (int64, bool) {
	rideID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return 0, false
	}
	return rideID, true
}

func respondError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*common.AppError); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}
