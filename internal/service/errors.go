package service

import (
	"errors"

	"github.com/radarlink/radarlink/internal/store"
)

var (
	// ErrDuplicateAccount is returned when a user tries to link a RadarGame
	// username that is already linked to them. Detected before any network
	// call is made.
	ErrDuplicateAccount = errors.New("account already linked")

	// ErrAccountNotFound is returned when the named account does not belong
	// to the calling user.
	ErrAccountNotFound = errors.New("linked account not found")

	// ErrNoActiveAccount is returned when an operation needs the active
	// account and the user has none.
	ErrNoActiveAccount = errors.New("no active linked account")

	// ErrLoginFailed is the user-visible "try again / login failed" outcome
	// covering every remote failure shape.
	ErrLoginFailed = errors.New("radar-game login failed")

	// ErrNoServers is returned when the remote API offers no servers to the
	// session.
	ErrNoServers = errors.New("no servers available")

	// ErrUserBanned rejects any action of a banned user. The ban flag beats
	// every role, including a configured admin id.
	ErrUserBanned = errors.New("user is banned")

	// ErrNotAdmin rejects administrative actions of non-admin users.
	ErrNotAdmin = errors.New("user is not an admin")

	// ErrUserNotFound is returned when a lookup key resolves no user.
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingPayloadField fails a config build whose input payload lacks
	// a required field, instead of emitting a partial document.
	ErrMissingPayloadField = errors.New("account payload field missing")

	// ErrInvalidDNSProfile fails a config build when a chosen DNS profile
	// does not carry both addresses.
	ErrInvalidDNSProfile = errors.New("dns profile incomplete")

	// ErrNoRegistrationFlow is returned when text input arrives for a user
	// with no registration in progress.
	ErrNoRegistrationFlow = errors.New("no registration in progress")
)

// isNotFound collapses the repository not-found sentinels so services can
// translate them into their own vocabulary.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrUserNotFound) || errors.Is(err, store.ErrAccountNotFound)
}

