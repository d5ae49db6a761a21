package botkit

// CommandScope defines where a command should be available.
type CommandScope interface {
	toAPI() botCommandScope
}

// botCommandScope is the wire form of a BotCommandScope object.
type botCommandScope struct {
	Type   string `json:"type"`
	ChatID ChatID `json:"chat_id,omitzero"`
	UserID int64  `json:"user_id,omitempty"`
}

// ScopeDefault is used when no narrower scope matches.
type ScopeDefault struct{}

func (s ScopeDefault) toAPI() botCommandScope {
	return botCommandScope{Type: "default"}
}

// ScopeAllPrivate makes the command available in all private chats.
type ScopeAllPrivate struct{}

func (s ScopeAllPrivate) toAPI() botCommandScope {
	return botCommandScope{Type: "all_private_chats"}
}

// ScopeAllGroups makes the command available in all group and supergroup chats.
type ScopeAllGroups struct{}

func (s ScopeAllGroups) toAPI() botCommandScope {
	return botCommandScope{Type: "all_group_chats"}
}

// ScopeAllGroupAdmins makes the command available to all group admins.
type ScopeAllGroupAdmins struct{}

func (s ScopeAllGroupAdmins) toAPI() botCommandScope {
	return botCommandScope{Type: "all_chat_administrators"}
}

// ScopeChat makes the command available in a specific chat.
// For a user's private chat, ChatID is the user ID.
type ScopeChat struct {
	ChatID int64
}

func (s ScopeChat) toAPI() botCommandScope {
	return botCommandScope{Type: "chat", ChatID: ID(s.ChatID)}
}

// ScopeChatAdmins makes the command available to admins of a specific group.
type ScopeChatAdmins struct {
	ChatID int64
}

func (s ScopeChatAdmins) toAPI() botCommandScope {
	return botCommandScope{Type: "chat_administrators", ChatID: ID(s.ChatID)}
}

// ScopeChatMember makes the command available to one member of a group.
type ScopeChatMember struct {
	ChatID int64
	UserID int64
}

func (s ScopeChatMember) toAPI() botCommandScope {
	return botCommandScope{Type: "chat_member", ChatID: ID(s.ChatID), UserID: s.UserID}
}

// ScopeChatUsername makes the command available in a public supergroup or
// channel addressed by username.
type ScopeChatUsername struct {
	Username string // Without @ prefix
}

func (s ScopeChatUsername) toAPI() botCommandScope {
	return botCommandScope{Type: "chat", ChatID: Username(s.Username)}
}

// ScopeChatAdminsUsername makes the command available to admins of a public
// supergroup addressed by username.
type ScopeChatAdminsUsername struct {
	Username string // Without @ prefix
}

func (s ScopeChatAdminsUsername) toAPI() botCommandScope {
	return botCommandScope{Type: "chat_administrators", ChatID: Username(s.Username)}
}

// CommandRegistration holds command info for syncing to Telegram.
type CommandRegistration struct {
	// Name is the command name without leading slash.
	Name string

	// Description is shown in the bot menu.
	Description string

	// Scope defines where the command is available.
	// Defaults to ScopeDefault if nil.
	Scope CommandScope

	// LangCode is the language code for this registration.
	// Empty string means all languages.
	LangCode string
}
