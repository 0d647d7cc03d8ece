package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trip-server/internal/model"
)

// handleServiceError преобразует ошибку сервиса в HTTP-ответ с кодом.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp model.ErrorResponse

	switch {
	case errors.Is(err, model.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = model.ErrorResponse{Error: model.ErrorBody{Code: model.ErrCodeInvalidInput, Message: err.Error()}}
	case errors.Is(err, model.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = model.ErrorResponse{Error: model.ErrorBody{Code: model.ErrCodeNotFound, Message: "Plan not found"}}
	case errors.Is(err, model.ErrGenerationFailed):
		statusCode = http.StatusBadGateway
		errResp = model.ErrorResponse{Error: model.ErrorBody{Code: model.ErrCodeGenerationFailed, Message: "The model failed to produce a response"}}
	case errors.Is(err, model.ErrEmptyModelOutput):
		statusCode = http.StatusUnprocessableEntity
		errResp = model.ErrorResponse{Error: model.ErrorBody{Code: model.ErrCodeEmptyModelOutput, Message: "The model response was empty or could not be repaired into a plan"}}
	case errors.Is(err, model.ErrSchemaViolation):
		statusCode = http.StatusUnprocessableEntity
		errResp = model.ErrorResponse{Error: model.ErrorBody{Code: model.ErrCodeSchemaViolation, Message: "The generated plan did not match the required structure"}}
	case errors.Is(err, model.ErrPersistence):
		statusCode = http.StatusInternalServerError
		errResp = model.ErrorResponse{Error: model.ErrorBody{Code: model.ErrCodePersistence, Message: "Failed to save the generated plan"}}
	default:
		statusCode = http.StatusInternalServerError
		errResp = model.ErrorResponse{Error: model.ErrorBody{Code: model.ErrCodeInternal, Message: "Internal server error"}}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
