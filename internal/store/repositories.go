// Package store implements persistence for platform users and their linked
// RadarGame accounts on top of SQLite or PostgreSQL.
package store

import (
	"github.com/radarlink/radarlink/internal/crypto"
	"github.com/radarlink/radarlink/internal/logger"
)

// Repositories bundles every repository behind one constructor so the
// service layer receives a single wired object.
type Repositories struct {
	Users    UserRepository
	Accounts AccountRepository
}

func NewRepositories(db *DB, codec crypto.CredentialCodec, log *logger.Logger) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db, log),
		Accounts: NewAccountRepository(db, codec, log),
	}
}
