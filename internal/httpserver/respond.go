package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/storefront/internal/domain"
	"github.com/mkravets/storefront/internal/transport"
)

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, transport.Envelope{Success: true, Data: data})
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, transport.Envelope{Success: false, Message: message})
}

// failDomain maps the error taxonomy onto statuses. Validation errors
// carry their message to the client; anything unrecognized is an
// infrastructure failure and gets a generic 500, the detail stays in the
// server log.
func failDomain(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrPaymentAmountMismatch):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPaymentFailure):
		return fail(c, http.StatusBadGateway, "payment was declined")
	case errors.Is(err, domain.ErrReconciliationRequired):
		return fail(c, http.StatusInternalServerError, "order could not be completed, support has been notified")
	default:
		return fail(c, http.StatusInternalServerError, "internal error")
	}
}
