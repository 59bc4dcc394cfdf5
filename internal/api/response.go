package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func SuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

func ErrorResponse(message, code string) Response {
	return Response{
		Success: false,
		Error: &ErrorData{
			Message: message,
			Code:    code,
		},
	}
}

// abortWithError writes err as an error envelope. AppError messages are
// meant for the user and pass through; anything else is replaced with a
// generic message.
func abortWithError(c *gin.Context, err error) {
	status := apperrors.StatusFor(err)

	message := "Internal server error"
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		message = appErr.Error()
	case status < 500:
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, ErrorResponse(message, apperrors.Code(err)))
}
