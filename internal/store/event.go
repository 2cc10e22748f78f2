package store

import (
	"context"

	"gorm.io/gorm"
)

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventSink receives audit events for evaluation-gateway calls. The llm
// package's logging decorator writes through this interface.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// EventRepo is the gorm-backed EventSink.
type EventRepo struct {
	db *gorm.DB
}

// AppendLLMRequest records one gateway call.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	row := LLMRequestEvent{
		Provider:     data.Provider,
		Model:        data.Model,
		Purpose:      data.Purpose,
		InputTokens:  data.InputTokens,
		OutputTokens: data.OutputTokens,
		LatencyMs:    data.LatencyMs,
		Success:      data.Success,
		ErrorMessage: data.ErrorMessage,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}
