// Package adapter implements the HTTP client for the remote RadarGame API.
// Every failure mode of the remote side (transport error, non-2xx status,
// isSuccess=false envelope) is normalized to a package sentinel so the
// service layer only ever distinguishes "worked" from "remote said no".
package adapter

import (
	"context"

	"github.com/radarlink/radarlink/models"
)

// GameClient is the boundary to the RadarGame REST API. The client is
// stateless with respect to sessions: the bearer token travels with each
// call because different linked accounts hold different tokens.
type GameClient interface {
	// Login exchanges account credentials for a session token.
	Login(ctx context.Context, username, password string) (string, error)

	// Servers returns the servers available to the session.
	Servers(ctx context.Context, token string) ([]models.Server, error)

	// Account fetches the connection payload for one server.
	Account(ctx context.Context, token string, serverID int64) (models.AccountPayload, error)
}
