package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingualoop/lingualoop/internal/attempt"
)

// AttemptHandler exposes exercise attempt submission.
type AttemptHandler struct {
	svc *attempt.Service
}

// NewAttemptHandler wires the handler.
func NewAttemptHandler(svc *attempt.Service) *AttemptHandler {
	return &AttemptHandler{svc: svc}
}

// Submit handles POST /api/attempts.
func (h *AttemptHandler) Submit(c *gin.Context) {
	var in attempt.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), learnerFrom(c), in)
	if err != nil {
		status, code := mapError(err)
		respondError(c, status, code, err)
		return
	}
	respondOK(c, result)
}
