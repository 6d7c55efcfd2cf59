package escrow

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/middleware"
)

// Handler handles HTTP requests for wallet and escrow administration.
type Handler struct {
	service *Service
}

// NewHandler creates an escrow handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the wallet and admin endpoints.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/wallet/deposit", h.Deposit)
	r.GET("/wallet/balance", h.Balance)
	r.POST("/admin/withdraw", h.EmergencyWithdraw)
}

// Deposit credits the caller's wallet.
func (h *Handler) Deposit(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Amount int64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.service.Deposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondError(c, err, "failed to deposit")
		return
	}
	common.SuccessResponse(c, account)
}

// Balance returns the caller's escrow-held balance.
func (h *Handler) Balance(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	account, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get balance")
		return
	}
	common.SuccessResponse(c, account)
}

// EmergencyWithdraw sweeps all escrow-held funds to the platform account.
// Owner only.
func (h *Handler) EmergencyWithdraw(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	swept, err := h.service.EmergencyWithdraw(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to withdraw")
		return
	}
	common.SuccessResponse(c, gin.H{"swept": swept})
}

func respondError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*common.AppError); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}
