package api

import (
	"errors"
	"net/http"

	"github.com/mooot/league/internal/adapters/repository"
	service "github.com/mooot/league/internal/app"
	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/ranking"
	"github.com/mooot/league/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// statusFor maps a failure to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, repository.ErrInvalidCharacter),
		errors.Is(err, model.ErrUnknownPeriod),
		errors.Is(err, model.ErrUnknownPlayerKind),
		errors.Is(err, scoring.ErrNotAShare),
		errors.Is(err, scoring.ErrInvalidAbility):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrUnknownChat), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrPeriodClosed):
		return http.StatusConflict, "period_closed"
	case errors.Is(err, ranking.ErrInvalidRecordBatch):
		return http.StatusUnprocessableEntity, "invalid_record_batch"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
