package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calotrack-server-go/internal/platform/errors"
)

// APIResponse is the uniform envelope for every endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// RespondSuccess writes a success envelope.
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	if message == "" {
		message = "ok"
	}

	resp := APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}

// RespondError writes a failure envelope.
func RespondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	resp := APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}

// RespondDomainError maps a domain error kind to an HTTP status.
func RespondDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsKind(err, errors.KindValidation):
		status = http.StatusBadRequest
	case errors.IsKind(err, errors.KindConflict):
		status = http.StatusConflict
	case errors.IsKind(err, errors.KindAnalysis):
		status = http.StatusBadGateway
	}
	RespondError(c, status, err.Error(), nil)
}
