package aptus

import (
	"errors"
	"fmt"
)

var (
	ErrRedirectLoop    = errors.New("redirect loop detected")
	ErrMissingToken    = errors.New("could not find a request verification token")
	ErrMissingLocation = errors.New("redirect response is missing a Location header")
	ErrEmptyBody       = errors.New("empty response body")
	ErrLoginFailed     = errors.New("failed to login to the portal")
	// ErrSessionExpired means the portal answered with its login page where
	// calendar or action content was expected. callers should obtain a fresh
	// session and retry, this is not the same as "nothing available".
	ErrSessionExpired = errors.New("the portal returned its login page, the session has expired")
)

type UnexpectedStatusError struct {
	Code int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}
