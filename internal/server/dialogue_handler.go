package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lingualoop/lingualoop/internal/dialogue"
)

// DialogueHandler exposes the dialogue session machine.
type DialogueHandler struct {
	svc *dialogue.Service
}

// NewDialogueHandler wires the handler.
func NewDialogueHandler(svc *dialogue.Service) *DialogueHandler {
	return &DialogueHandler{svc: svc}
}

type startSessionRequest struct {
	ScenarioID uuid.UUID `json:"scenarioId" binding:"required"`
	Mode       string    `json:"mode" binding:"required"`
}

// Start handles POST /api/dialogue/sessions.
func (h *DialogueHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	mode, err := dialogue.ParseMode(req.Mode)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	result, err := h.svc.Start(c.Request.Context(), learnerFrom(c), req.ScenarioID, mode)
	if err != nil {
		status, code := mapError(err)
		respondError(c, status, code, err)
		return
	}
	respondOK(c, result)
}

type respondRequest struct {
	Message string `json:"message" binding:"required"`
}

// Respond handles POST /api/dialogue/sessions/:id/messages.
func (h *DialogueHandler) Respond(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	result, err := h.svc.Respond(c.Request.Context(), learnerFrom(c), sessionID, req.Message)
	if err != nil {
		status, code := mapError(err)
		respondError(c, status, code, err)
		return
	}
	respondOK(c, result)
}

// Complete handles POST /api/dialogue/sessions/:id/complete.
func (h *DialogueHandler) Complete(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	if _, err := h.svc.Complete(c.Request.Context(), learnerFrom(c), sessionID); err != nil {
		status, code := mapError(err)
		respondError(c, status, code, err)
		return
	}
	respondOK(c, gin.H{"success": true})
}
