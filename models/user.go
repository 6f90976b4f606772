package models

// User represents one chat identity known to the bot.
// A row is created on first interaction and never deleted; moderation is
// applied through the Banned flag instead of removal.
type User struct {
	// UserID is the numeric chat-platform identifier and the primary key.
	UserID int64 `json:"user_id"`

	// Handle is the optional public @handle of the user, stored without the
	// leading '@'. May be empty.
	Handle string `json:"handle,omitempty"`

	// Name is the display name as reported by the chat platform.
	// Refreshed on every interaction.
	Name string `json:"name"`

	// Hash is the stable opaque identifier issued exactly once at first
	// contact. It never changes for the lifetime of the row and can be used
	// to reference a user without exposing the numeric id.
	Hash string `json:"hash"`

	// UsageCount counts issued configuration artifacts.
	UsageCount int64 `json:"usage_count"`

	// CreatedAt and LastActive are unix timestamps (seconds).
	CreatedAt  int64 `json:"created_at"`
	LastActive int64 `json:"last_active"`

	// Banned soft-deletes the user: banned users are rejected by every
	// entry point and excluded from broadcasts.
	Banned bool `json:"banned"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}

// UserStats aggregates per-user counters shown in the profile and the
// administrative user-info views.
type UserStats struct {
	User         User  `json:"user"`
	AccountCount int64 `json:"account_count"`
}

// GlobalStats aggregates bot-wide counters for the status panel.
type GlobalStats struct {
	TotalUsers    int64 `json:"total_users"`
	TotalAccounts int64 `json:"total_accounts"`
	BannedUsers   int64 `json:"banned_users"`
	ActiveToday   int64 `json:"active_today"`
}
