package adapter

import "errors"

var (
	// ErrLoginFailed covers every way a login can fail remotely: bad
	// credentials, a failure envelope, or the token missing from a
	// success envelope.
	ErrLoginFailed = errors.New("remote login failed")

	// ErrUnauthorized is returned when the session token is rejected.
	ErrUnauthorized = errors.New("session token rejected")

	// ErrRemoteUnavailable covers transport failures and 5xx responses.
	ErrRemoteUnavailable = errors.New("remote api unavailable")

	// ErrEmptyResult is returned when a success envelope carries no
	// usable payload.
	ErrEmptyResult = errors.New("remote api returned empty result")
)
