package registry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/middleware"
)

// Handler handles HTTP requests for the registry.
type Handler struct {
	service *Service
}

// NewHandler creates a registry handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the registry endpoints.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/drivers", h.RegisterDriver)
	r.POST("/riders", h.RegisterRider)
	r.POST("/drivers/availability", h.ToggleAvailability)
	r.GET("/drivers/:id", h.GetDriver)
	r.GET("/riders/:id", h.GetRider)
	r.GET("/drivers/:id/rides", h.DriverHistory)
	r.GET("/riders/:id/rides", h.RiderHistory)
}

// RegisterDriver handles driver registration.
func (h *Handler) RegisterDriver(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Name    string `json:"name" binding:"required"`
		Vehicle string `json:"vehicle" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	driver, err := h.service.RegisterDriver(c.Request.Context(), userID, req.Name, req.Vehicle)
	if err != nil {
		respondError(c, err, "failed to register driver")
		return
	}
	common.CreatedResponse(c, driver)
}

// RegisterRider handles rider registration.
func (h *Handler) RegisterRider(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	rider, err := h.service.RegisterRider(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err, "failed to register rider")
		return
	}
	common.CreatedResponse(c, rider)
}

// ToggleAvailability flips the calling driver's active flag.
func (h *Handler) ToggleAvailability(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	driver, err := h.service.ToggleDriverAvailability(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to toggle availability")
		return
	}
	common.SuccessResponse(c, driver)
}

// GetDriver returns a driver record.
func (h *Handler) GetDriver(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver ID")
		return
	}

	driver, err := h.service.GetDriver(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get driver")
		return
	}
	common.SuccessResponse(c, driver)
}

// GetRider returns a rider record.
func (h *Handler) GetRider(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid rider ID")
		return
	}

	rider, err := h.service.GetRider(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get rider")
		return
	}
	common.SuccessResponse(c, rider)
}

// DriverHistory returns the ride ids associated with a driver.
func (h *Handler) DriverHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver ID")
		return
	}

	history, err := h.service.DriverHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get driver history")
		return
	}
	common.SuccessResponse(c, history)
}

// RiderHistory returns the ride ids associated with a rider.
func (h *Handler) RiderHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid rider ID")
		return
	}

	history, err := h.service.RiderHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get rider history")
		return
	}
	common.SuccessResponse(c, history)
}

func respondError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*common.AppError); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}
