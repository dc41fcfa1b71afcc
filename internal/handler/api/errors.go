package api

import (
	"errors"

	"ChartCast/internal/service/blob"
	"ChartCast/internal/service/neynar"
	"ChartCast/internal/service/openai"
	"ChartCast/internal/services/chart"
	xhttp "ChartCast/pkg/http"
)

// toAppError maps domain sentinels to HTTP errors, falling back to a 500 with msg.
func toAppError(err error, msg string) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, chart.ErrInvalidRecordShape):
		return xhttp.UnprocessableError("Market data has an invalid record shape").WithError(err)
	case errors.Is(err, openai.ErrCaptionUnavailable):
		return xhttp.ServiceUnavailableError("AI Configuration Missing").WithError(err)
	case errors.Is(err, neynar.ErrSignerRequired):
		return xhttp.UnauthorizedError("Signer UUID required (Client or Server ENV)").WithError(err)
	case errors.Is(err, blob.ErrEmptyBody):
		return xhttp.BadRequestError("No body").WithError(err)
	default:
		return xhttp.InternalError(msg).WithError(err)
	}
}
