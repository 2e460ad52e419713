package cli

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// describeError turns a service error into a line for the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, services.ErrNotLoggedIn):
		return "You are not logged in."
	case errors.Is(err, client.ErrUnauthorized):
		return "Not authorized: " + err.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable: " + err.Error()
	case errors.Is(err, common.ErrorConflict):
		return "This email is already registered."
	case errors.Is(err, common.ErrorNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, common.ErrorRateLimited):
		return "Too many requests, try again later."
	case errors.Is(err, client.ErrInvalidArgument):
		return "Rejected: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
