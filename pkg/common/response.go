package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope for every HTTP reply.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
}

// SuccessResponse writes a 200 reply with the given payload.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// CreatedResponse writes a 201 reply with the given payload.
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// ErrorResponse writes a failure reply with an explicit status code.
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &AppError{Code: CodeInternal, Message: message},
	})
}

// AppErrorResponse writes a failure reply, deriving the status from the
// error's class.
func AppErrorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.HTTPStatus(), APIResponse{Success: false, Error: err})
}
