package models

// DNSProfile is a named pair of resolver addresses offered to the user
// before artifact generation. When a profile has been chosen both values
// are used verbatim in the rendered configuration.
type DNSProfile struct {
	Name      string `json:"name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}
