package bot

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedCommand is the single error path for every unparseable
// callback payload: unknown verb, wrong field count, or a non-numeric
// field where a number belongs.
var ErrMalformedCommand = errors.New("malformed callback command")

// CommandKind is the closed set of callback verbs. Payloads are parsed
// exactly once, at the transport boundary; handlers only ever see a typed
// Command.
type CommandKind int

const (
	CmdNewAccount CommandKind = iota + 1
	CmdSetActive
	CmdRemoveAccount
	CmdAccountsPage
	CmdNewConfig
	CmdChooseServer
	CmdChooseDNS
	CmdSkipDNS
	CmdCancel
	CmdAdminUsersPage
	CmdToggleNotifyUser
	CmdToggleNotifyConfig
)

// Command is one parsed callback payload. Only the fields relevant to the
// Kind are set.
type Command struct {
	Kind CommandKind

	// Username names the target account for CmdSetActive and
	// CmdRemoveAccount.
	Username string

	// Page is the selector page for the paging and account verbs.
	Page int

	// ServerID is set for CmdChooseServer.
	ServerID int64

	// DNSIndex is set for CmdChooseDNS.
	DNSIndex int
}

// Payload renders the wire form of the command, the inverse of
// ParseCommand.
func (c Command) Payload() string {
	switch c.Kind {
	case CmdNewAccount:
		return "new_account"
	case CmdSetActive:
		return "set_active:" + c.Username + ":" + strconv.Itoa(c.Page)
	case CmdRemoveAccount:
		return "remove:" + c.Username + ":" + strconv.Itoa(c.Page)
	case CmdAccountsPage:
		return "page:" + strconv.Itoa(c.Page)
	case CmdNewConfig:
		return "new_config"
	case CmdChooseServer:
		return "server:" + strconv.FormatInt(c.ServerID, 10)
	case CmdChooseDNS:
		return "dns:" + strconv.Itoa(c.DNSIndex)
	case CmdSkipDNS:
		return "dns_skip"
	case CmdCancel:
		return "cancel"
	case CmdAdminUsersPage:
		return "admin_users:" + strconv.Itoa(c.Page)
	case CmdToggleNotifyUser:
		return "toggle_notify_user"
	case CmdToggleNotifyConfig:
		return "toggle_notify_config"
	}
	return ""
}

// ParseCommand decodes a callback payload into its typed form. Account
// usernames may contain ':' only because the page number is always the
// last field; everything between the verb and the final field belongs to
// the username.
func ParseCommand(payload string) (Command, error) {
	switch payload {
	case "new_account":
		return Command{Kind: CmdNewAccount}, nil
	case "new_config":
		return Command{Kind: CmdNewConfig}, nil
	case "dns_skip":
		return Command{Kind: CmdSkipDNS}, nil
	case "cancel":
		return Command{Kind: CmdCancel}, nil
	case "toggle_notify_user":
		return Command{Kind: CmdToggleNotifyUser}, nil
	case "toggle_notify_config":
		return Command{Kind: CmdToggleNotifyConfig}, nil
	}

	verb, rest, ok := strings.Cut(payload, ":")
	if !ok {
		return Command{}, ErrMalformedCommand
	}

	switch verb {
	case "set_active", "remove":
		username, pageField, ok := cutLast(rest, ":")
		if !ok || username == "" {
			return Command{}, ErrMalformedCommand
		}
		page, err := strconv.Atoi(pageField)
		if err != nil {
			return Command{}, ErrMalformedCommand
		}

		kind := CmdSetActive
		if verb == "remove" {
			kind = CmdRemoveAccount
		}
		return Command{Kind: kind, Username: username, Page: page}, nil

	case "page":
		page, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, ErrMalformedCommand
		}
		return Command{Kind: CmdAccountsPage, Page: page}, nil

	case "server":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Command{}, ErrMalformedCommand
		}
		return Command{Kind: CmdChooseServer, ServerID: id}, nil

	case "dns":
		idx, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, ErrMalformedCommand
		}
		return Command{Kind: CmdChooseDNS, DNSIndex: idx}, nil

	case "admin_users":
		page, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, ErrMalformedCommand
		}
		return Command{Kind: CmdAdminUsersPage, Page: page}, nil
	}

	return Command{}, ErrMalformedCommand
}

// cutLast splits s around the last occurrence of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}
