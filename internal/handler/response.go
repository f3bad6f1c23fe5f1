package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"shipdocs/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrInvalidFileType):
		return http.StatusBadRequest, "INVALID_FILE_TYPE", "unsupported file type; allowed: pdf, xlsx"
	case errors.Is(err, domain.ErrDuplicateFile):
		return http.StatusConflict, "DUPLICATE_FILE", "file was already submitted"
	case errors.Is(err, domain.ErrUnsupportedDocument):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_DOCUMENT", "document could not be read"
	case errors.Is(err, domain.ErrNoContent):
		return http.StatusUnprocessableEntity, "NO_CONTENT", "no processable content in the submitted documents"
	case errors.Is(err, domain.ErrOracleUnavailable):
		return http.StatusBadGateway, "ORACLE_UNAVAILABLE", "field extraction service is unavailable"
	case errors.Is(err, domain.ErrOracleMalformedResponse):
		return http.StatusBadGateway, "ORACLE_MALFORMED_RESPONSE", "field extraction service returned an unusable response"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrOCRFailure):
		return http.StatusUnprocessableEntity, "OCR_FAILURE", "document could not be rasterized for recognition"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
