package rating

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/middleware"
)

// Handler handles HTTP requests for ratings.
type Handler struct {
	service *Service
}

// NewHandler creates a rating handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the rating endpoint.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/rides/:id/rating", h.RateUser)
}

// RateUser records the caller's rating of the other party on a completed
// ride. target selects who receives the rating: "driver" or "rider".
func (h *Handler) RateUser(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rideID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	var req struct {
		Rating int64  `json:"rating" binding:"required"`
		Target string `json:"target" binding:"required,oneof=driver rider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RateUser(c.Request.Context(), userID, rideID, req.Rating, req.Target == "driver")
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to rate user")
		return
	}
	common.SuccessResponse(c, result)
}
