package server

import (
	"errors"
	"net/http"

	"github.com/lingualoop/lingualoop/internal/attempt"
	"github.com/lingualoop/lingualoop/internal/dialogue"
	"github.com/lingualoop/lingualoop/internal/llm"
	"github.com/lingualoop/lingualoop/internal/store"
)

// mapError translates service errors into HTTP status and error code.
// Gateway rate-limit and quota conditions keep their own statuses so
// clients can tell a retryable throttle from a billing problem.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, attempt.ErrValidation),
		errors.Is(err, dialogue.ErrEmptyMessage):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, dialogue.ErrLockedMode):
		return http.StatusForbidden, "mode_locked"
	case errors.Is(err, dialogue.ErrNotOwner):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, dialogue.ErrTurnInFlight):
		return http.StatusConflict, "turn_in_flight"
	case errors.Is(err, dialogue.ErrSessionNotActive):
		return http.StatusConflict, "session_not_active"
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict, "conflict"
	}

	var rateLimit *llm.ErrRateLimit
	if errors.As(err, &rateLimit) {
		return http.StatusTooManyRequests, "upstream_rate_limited"
	}
	var quota *llm.ErrQuotaExhausted
	if errors.As(err, &quota) {
		return http.StatusPaymentRequired, "upstream_quota_exhausted"
	}
	var unavailable *llm.ErrProviderUnavailable
	if errors.As(err, &unavailable) {
		return http.StatusBadGateway, "upstream_unavailable"
	}
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return http.StatusBadGateway, "upstream_invalid_response"
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return http.StatusBadGateway, "upstream_truncated"
	}

	return http.StatusInternalServerError, "internal_error"
}
