package common

import "errors"

var (
	// ErrUnauthenticated is returned when an identity-dependent operation
	// runs without a session token.
	ErrUnauthenticated = errors.New("user is not logged in")

	// ErrUnidentifiable is returned when the session token carries no
	// decodable user id.
	ErrUnidentifiable = errors.New("unable to identify the user from the session token")

	// ErrForbidden is returned by client-side permission checks. The server
	// may still reject calls that pass them.
	ErrForbidden = errors.New("operation not permitted for the current user")
)
