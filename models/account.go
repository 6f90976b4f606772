package models

// LinkedAccount is a credential pair for the RadarGame service owned by
// exactly one chat user. For a given user at most one linked account is
// active at any time; (UserID, Username) pairs are unique.
//
// Password is stored as persisted by the credential codec configured on the
// store: plaintext when no at-rest key is set, sealed otherwise. Token is a
// best-effort cache of the last session token and carries no freshness
// guarantee.
type LinkedAccount struct {
	ID        int64  `json:"-"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	Token     string `json:"-"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the LinkedAccount model.
func (a LinkedAccount) TableName() string {
	return "linked_accounts"
}

// AccountPage is one page of a user's linked accounts together with the
// clamped page number and the total page count.
type AccountPage struct {
	Items     []LinkedAccount `json:"items"`
	Page      int             `json:"page"`
	PageCount int             `json:"page_count"`
}

// UserPage is one page of the administrative user listing.
type UserPage struct {
	Items     []User `json:"items"`
	Page      int    `json:"page"`
	PageCount int    `json:"page_count"`
}
