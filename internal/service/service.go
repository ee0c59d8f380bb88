// Package service implements the HTTP handlers of the API. Each service
// wraps the store and exposes echo handlers; routing lives in router.go.
// Handlers translate typed domain errors into HTTP statuses and log at the
// edges, keeping the core packages transport-free.
package service

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/ledger"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// divisionError maps a division validation failure to an HTTP error.
// Membership lookups that failed underneath are the one case that is not the
// client's fault, so they surface as 503 instead of 400.
func divisionError(err error) error {
	var dep *ledger.DependencyUnavailableError
	if errors.As(err, &dep) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "membership check unavailable")
	}
	rejectedDivisions.Inc()
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// notFoundOr maps storage.ErrNotFound to 404 and everything else to 500.
func notFoundOr(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
