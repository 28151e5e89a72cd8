package entity

import "time"

// Actor who issued an administrative command
type Actor struct {
	UserID      int64
	ChatID      int64
	IsPrivate   bool
	IsChatAdmin bool
}

// AdminAction audit record of a settings change
type AdminAction struct {
	ID        string
	UserID    int64
	ChatID    int64
	Action    string // "translate_on", "setlang", "import_settings", ...
	Details   string
	Timestamp time.Time
}

// AuthPolicy who may change chat-level settings
type AuthPolicy string

const (
	AuthAnyone     AuthPolicy = "anyone"
	AuthChatAdmins AuthPolicy = "chat_admins"
	AuthBotAdmins  AuthPolicy = "bot_admins"
)

// ParseAuthPolicy accepts the configured policy name
func ParseAuthPolicy(s string) (AuthPolicy, bool) {
	switch p := AuthPolicy(s); p {
	case AuthAnyone, AuthChatAdmins, AuthBotAdmins:
		return p, true
	}
	return "", false
}

// CommandScope what a command touches
type CommandScope int

const (
	ScopeSelf CommandScope = iota // the sender's own user setting
	ScopeChat                     // the current chat's setting
	ScopeBot                      // every chat, bot operators only
)
