package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta describes how a payload was produced. Simulation responses carry
// the run and request identity; list responses carry Count and Limit.
type Meta struct {
	RunID       string `json:"run_id,omitempty"`
	RequestHash string `json:"request_hash,omitempty"`
	Cached      bool   `json:"cached"`
	Count       int    `json:"count,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// SimulationMeta identifies the run behind a simulation payload.
func SimulationMeta(runID, requestHash string, cached bool) *Meta {
	return &Meta{RunID: runID, RequestHash: requestHash, Cached: cached}
}

// ListMeta reports how many rows a list returned under which limit.
func ListMeta(count, limit int) *Meta {
	return &Meta{Count: count, Limit: limit}
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func SendSuccessWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func SendError(c *gin.Context, statusCode int, err *AppError) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   err,
	})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadRequest, NewAppError(ErrCodeValidation, message, details))
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, NewAppError(ErrCodeNotFound, message))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, NewAppError(ErrCodeInternal, message))
}

func SendBadGateway(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadGateway, NewAppError(ErrCodeUpstream, message, details))
}

func SendUnavailable(c *gin.Context, message string) {
	SendError(c, http.StatusServiceUnavailable, NewAppError(ErrCodeUnavailable, message))
}
