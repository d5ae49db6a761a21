package botkit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// commandHandlers returns every CommandHandler registered on the dispatcher,
// including those inside conversations.
func (d *Dispatcher) commandHandlers() []*CommandHandler {
	var out []*CommandHandler
	var walk func(hs []Handler)
	walk = func(hs []Handler) {
		for _, h := range hs {
			switch h := h.(type) {
			case *CommandHandler:
				out = append(out, h)
			case *ConversationHandler:
				walk(h.handlers())
			}
		}
	}
	walk(d.Handlers())
	return out
}

// SyncCommands publishes the described commands to the bot menu, one
// setMyCommands call per scope and language. Scopes set by the previous
// sync are cleared first. Commands without a description stay hidden.
func (b *Bot) SyncCommands(ctx context.Context) error {
	type menu struct {
		scope    CommandScope
		langCode string
		commands []BotCommand
	}
	var menus []*menu
	byKey := make(map[string]*menu)

	for _, h := range b.dispatcher.commandHandlers() {
		if h.Description == "" {
			continue
		}
		key := scopeKeyString(h.Scope, h.LangCode)
		m, ok := byKey[key]
		if !ok {
			m = &menu{scope: h.Scope, langCode: h.LangCode}
			if m.scope == nil {
				m.scope = ScopeDefault{}
			}
			byKey[key] = m
			menus = append(menus, m)
		}
		for _, name := range h.Commands {
			name = strings.ToLower(name)
			if !slices.ContainsFunc(m.commands, func(c BotCommand) bool { return c.Command == name }) {
				m.commands = append(m.commands, BotCommand{Command: name, Description: h.Description})
			}
		}
	}

	if len(menus) == 0 {
		b.config.Logger.Debug("no commands with descriptions to sync")
		return nil
	}

	if err := b.ResetCommands(ctx); err != nil {
		b.config.Logger.Warn("failed to reset previous commands", "error", err)
	}

	var synced []string
	for _, m := range menus {
		key := scopeKeyString(m.scope, m.langCode)
		if err := b.SetMyCommands(ctx, m.commands, m.scope, m.langCode); err != nil {
			b.config.Logger.Error("failed to set commands", "scope", key, "error", err)
			continue
		}
		synced = append(synced, key)
		b.config.Logger.Debug("set commands for scope", "scope", key, "count", len(m.commands))
	}

	if err := b.saveCommandScopes(synced); err != nil {
		b.config.Logger.Warn("failed to save command scopes", "error", err)
	}

	b.config.Logger.Info("synced commands to Telegram", "scopes", len(synced))
	if failed := len(menus) - len(synced); failed > 0 {
		return fmt.Errorf("botkit: failed to set commands for %d of %d scopes", failed, len(menus))
	}
	return nil
}

// ResetCommands deletes the command lists stored by the last SyncCommands.
// Without a saved list it clears the default and the three broad scopes.
func (b *Bot) ResetCommands(ctx context.Context) error {
	keys := b.loadCommandScopes()
	if len(keys) == 0 {
		keys = []string{"default|", "users|", "chats|", "chat_admins|"}
	}

	for _, key := range keys {
		scope, langCode := parseScopeKey(key)
		if scope == nil {
			b.config.Logger.Debug("skipping invalid scope key", "key", key)
			continue
		}
		if err := b.DeleteMyCommands(ctx, scope, langCode); err != nil {
			b.config.Logger.Debug("failed to reset scope", "key", key, "error", err)
		}
	}

	b.config.Logger.Debug("reset bot commands", "count", len(keys))
	return nil
}

// SetCommandsForScope sets commands for a specific scope and language.
func (b *Bot) SetCommandsForScope(ctx context.Context, scope CommandScope, langCode string, commands []CommandRegistration) error {
	if scope == nil {
		scope = ScopeDefault{}
	}

	botCommands := make([]BotCommand, 0, len(commands))
	for _, cmd := range commands {
		botCommands = append(botCommands, BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}

	return b.SetMyCommands(ctx, botCommands, scope, langCode)
}

func (b *Bot) commandScopesFile() string {
	return filepath.Join(b.config.StateDir, "command_scopes.json")
}

func (b *Bot) loadCommandScopes() []string {
	data, err := os.ReadFile(b.commandScopesFile())
	if err != nil {
		return nil
	}

	var scopes []string
	if err := json.Unmarshal(data, &scopes); err != nil {
		b.config.Logger.Debug("failed to parse command scopes file", "error", err)
		return nil
	}

	return scopes
}

func (b *Bot) saveCommandScopes(scopes []string) error {
	data, err := json.Marshal(scopes)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(b.config.StateDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(b.commandScopesFile(), data, 0600)
}

// scopeKeyString encodes a scope and language as "<scope>|<lang>", the
// format kept in command_scopes.json.
func scopeKeyString(scope CommandScope, langCode string) string {
	return scopeName(scope) + "|" + langCode
}

func scopeName(scope CommandScope) string {
	switch s := scope.(type) {
	case nil, ScopeDefault:
		return "default"
	case ScopeAllPrivate:
		return "users"
	case ScopeAllGroups:
		return "chats"
	case ScopeAllGroupAdmins:
		return "chat_admins"
	case ScopeChat:
		return "chat:" + strconv.FormatInt(s.ChatID, 10)
	case ScopeChatAdmins:
		return "chat_admins:" + strconv.FormatInt(s.ChatID, 10)
	case ScopeChatMember:
		return "chat_member:" + strconv.FormatInt(s.ChatID, 10) + ":" + strconv.FormatInt(s.UserID, 10)
	case ScopeChatUsername:
		return "chat:@" + strings.TrimPrefix(s.Username, "@")
	case ScopeChatAdminsUsername:
		return "chat_admins:@" + strings.TrimPrefix(s.Username, "@")
	}
	return "unknown"
}

// parseScopeKey reverses scopeKeyString. It returns a nil scope for keys it
// does not understand.
func parseScopeKey(key string) (CommandScope, string) {
	name, langCode, ok := strings.Cut(key, "|")
	if !ok {
		return nil, ""
	}
	scope := parseScopeName(name)
	if scope == nil {
		return nil, ""
	}
	return scope, langCode
}

func parseScopeName(name string) CommandScope {
	switch name {
	case "default":
		return ScopeDefault{}
	case "users":
		return ScopeAllPrivate{}
	case "chats":
		return ScopeAllGroups{}
	case "chat_admins":
		return ScopeAllGroupAdmins{}
	}

	kind, arg, ok := strings.Cut(name, ":")
	if !ok || arg == "" {
		return nil
	}

	if username, ok := strings.CutPrefix(arg, "@"); ok {
		if username == "" {
			return nil
		}
		switch kind {
		case "chat":
			return ScopeChatUsername{Username: username}
		case "chat_admins":
			return ScopeChatAdminsUsername{Username: username}
		}
		return nil
	}

	switch kind {
	case "chat", "chat_admins":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil
		}
		if kind == "chat" {
			return ScopeChat{ChatID: id}
		}
		return ScopeChatAdmins{ChatID: id}
	case "chat_member":
		chat, user, ok := strings.Cut(arg, ":")
		if !ok {
			return nil
		}
		chatID, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil
		}
		userID, err := strconv.ParseInt(user, 10, 64)
		if err != nil {
			return nil
		}
		return ScopeChatMember{ChatID: chatID, UserID: userID}
	}
	return nil
}
