package service

import (
	"context"

	"github.com/radarlink/radarlink/models"
)

// UserService maintains the platform user table and its counters.
type UserService interface {
	// EnsureUser upserts the user on every inbound update. On first sight
	// the user receives an opaque hash that never changes afterwards; the
	// returned flag reports that first sight.
	EnsureUser(ctx context.Context, user models.User) (models.User, bool, error)

	// Find resolves key by its lexical shape (id, @handle, or hash).
	Find(ctx context.Context, key string) (models.User, error)

	// PageUsers returns one clamped page of the admin user listing.
	PageUsers(ctx context.Context, page int) (models.UserPage, error)

	// Stats returns per-user counters for the profile view.
	Stats(ctx context.Context, userID int64) (models.UserStats, error)

	// GlobalStats returns bot-wide counters.
	GlobalStats(ctx context.Context) (models.GlobalStats, error)

	// SetBan resolves key and flips the ban flag of the matched user.
	SetBan(ctx context.Context, key string, banned bool) (models.User, error)

	// AddUsage increments the issued-config counter of one user.
	AddUsage(ctx context.Context, userID int64) error
}

// AccountService manages the linked RadarGame accounts of a user.
type AccountService interface {
	// Register performs the duplicate check, exchanges the credentials for
	// a session token remotely, and persists the new account as the active
	// one. The duplicate check runs before any network call.
	Register(ctx context.Context, userID int64, username, password string) (models.LinkedAccount, error)

	// ListPage returns one page of the account selector. page is clamped
	// into [1, pageCount]; pageCount is at least 1 for a non-empty set.
	ListPage(ctx context.Context, userID int64, page int) (models.AccountPage, error)

	// SetActive makes the named account the only active one.
	SetActive(ctx context.Context, userID int64, username string) error

	// Active returns the active account or ErrNoActiveAccount.
	Active(ctx context.Context, userID int64) (models.LinkedAccount, error)

	// Remove unlinks one account.
	Remove(ctx context.Context, userID int64, username string) error

	// RemoveAll unlinks every account of the user and reports how many
	// rows were removed.
	RemoveAll(ctx context.Context, userID int64) (int64, error)
}

// SessionService exchanges stored credentials for remote session state.
type SessionService interface {
	// Token returns a usable session token for the account, reusing the
	// cached one while its exp claim is still in the future.
	Token(ctx context.Context, account models.LinkedAccount) (string, error)

	// Servers lists the servers available to the account, sorted ascending
	// by load.
	Servers(ctx context.Context, account models.LinkedAccount) ([]models.Server, error)

	// AccountPayload fetches the connection payload for one server.
	AccountPayload(ctx context.Context, account models.LinkedAccount, serverID int64) (models.AccountPayload, error)
}

// ConfigService renders WireGuard configuration artifacts.
type ConfigService interface {
	// Build renders the fixed-order document into a fresh artifact file
	// and returns its path. profile is nil when the user skipped the DNS
	// choice, in which case the defaults apply.
	Build(ctx context.Context, payload models.AccountPayload, profile *models.DNSProfile) (string, error)
}

// ModerationGate answers role and ban questions. All methods are pure
// reads over configuration and the user row passed in.
type ModerationGate interface {
	// CanUse rejects banned users.
	CanUse(user models.User) error

	// CanModerate rejects banned users first, then non-admins. A banned
	// id listed as admin is still rejected.
	CanModerate(user models.User) error

	IsAdmin(userID int64) bool
	IsOwner(userID int64) bool

	// OwnerIDs returns the configured owner ids for notification fan-out.
	OwnerIDs() []int64

	// Toggles returns the current notification snapshot; SetToggles swaps
	// it atomically, readers in flight keep the old one.
	Toggles() NotificationToggles
	SetToggles(t NotificationToggles)
}

// TextSender delivers a plain text message to one chat. The bot transport
// satisfies it; tests inject a recorder.
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// MessageDeleter removes one message from a chat, used for the best-effort
// deletion of password messages.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// BroadcastService fans a message out to users.
type BroadcastService interface {
	// Broadcast sends text to every non-banned user sequentially. One
	// recipient's failure never aborts the batch; the tallies report both
	// outcomes.
	Broadcast(ctx context.Context, text string) (models.BroadcastResult, error)

	// SendTo resolves key to a single user and sends text to them.
	SendTo(ctx context.Context, key, text string) error
}

// RegistrationService drives the two-step account linking dialog.
type RegistrationService interface {
	// Begin starts (or restarts) the flow for one user.
	Begin(userID int64)

	// Input feeds one text message into the user's flow and returns the
	// resulting step. messageID identifies the inbound message so the
	// password message can be deleted best-effort.
	Input(ctx context.Context, userID int64, chatID int64, messageID int, text string) (StepResult, error)

	// Cancel aborts the flow from any state.
	Cancel(userID int64)

	// InProgress reports whether the user has a live flow.
	InProgress(userID int64) bool
}
