package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"convert-gateway/service"
	"convert-gateway/storage/postgres"
	"convert-gateway/types"
)

// Fixed client-facing messages.
const (
	MsgNoFilePart       = "No file part"
	MsgNoSelectedFile   = "No selected file"
	MsgTypeNotAllowed   = "File type not allowed"
	MsgFileTooLarge     = "File too large"
	MsgStagingFailed    = "Failed to store upload"
	MsgConversionFailed = "Conversion failed"
	MsgTimedOut         = "Conversion timed out"
	MsgNotFound         = "Conversion not found"
	MsgHistoryDisabled  = "Conversion history is disabled"
	MsgBadRequest       = "Invalid request"
	MsgServerRunning    = "Server is running"
)

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, types.ErrorResponse{Error: msg})
}

// Error writes the status and message for err. With expose set, 5xx bodies
// carry err's full text instead of the generic message.
func Error(c *gin.Context, err error, expose bool) {
	status, msg := StatusFor(err)
	if expose && status >= http.StatusInternalServerError {
		msg = err.Error()
	}
	Fail(c, status, msg)
}

// StatusFor maps an error onto its HTTP status and generic message.
// errors.Is sees through wrapping, so callers must use %w.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingFile):
		return http.StatusBadRequest, MsgNoFilePart
	case errors.Is(err, service.ErrNoSelectedFile):
		return http.StatusBadRequest, MsgNoSelectedFile
	case errors.Is(err, service.ErrUnsupportedType):
		return http.StatusBadRequest, MsgTypeNotAllowed
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, MsgFileTooLarge
	case errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusNotFound, MsgHistoryDisabled
	case errors.Is(err, postgres.ErrNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, service.ErrConversionTimeout):
		return http.StatusInternalServerError, MsgTimedOut
	case errors.Is(err, service.ErrStaging):
		return http.StatusInternalServerError, MsgStagingFailed
	default:
		return http.StatusInternalServerError, MsgConversionFailed
	}
}
