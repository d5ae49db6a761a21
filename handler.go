package botkit

import (
	"regexp"
	"slices"
	"strings"
)

// HandlerFunc is the function signature for update callbacks.
type HandlerFunc func(ctx *Context) error

// Handler matches updates and handles the ones it accepts.
// CheckUpdate must not block; the value it returns is passed to HandleUpdate.
type Handler interface {
	CheckUpdate(u *Update) (bool, any)
	HandleUpdate(ctx *Context, u *Update, data any) error
}

// matchResult carries what a matching handler learned during CheckUpdate.
type matchResult struct {
	args    []string
	matches []string
}

func (m matchResult) apply(ctx *Context) {
	if m.args != nil {
		ctx.Args = m.args
	}
	if m.matches != nil {
		ctx.Matches = m.matches
	}
}

func runCallback(fn HandlerFunc, ctx *Context, data any) error {
	if m, ok := data.(matchResult); ok {
		m.apply(ctx)
	}
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// MessageHandler handles new and edited messages and channel posts that
// pass Filter. A nil Filter accepts every message.
type MessageHandler struct {
	Filter   Filter
	Callback HandlerFunc
}

func (h *MessageHandler) CheckUpdate(u *Update) (bool, any) {
	if u.Message == nil && u.EditedMessage == nil && u.ChannelPost == nil && u.EditedChannelPost == nil {
		return false, nil
	}
	matches, ok := MatchFilter(h.Filter, u)
	if !ok {
		return false, nil
	}
	return true, matchResult{matches: matches}
}

func (h *MessageHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// CommandHandler handles /commands. A command addressed to another bot
// (/cmd@OtherBot) is ignored.
type CommandHandler struct {
	// Commands are the names without the leading slash, matched case-insensitively.
	Commands []string

	// Filter further restricts the messages handled.
	Filter Filter

	Callback HandlerFunc

	// AllowEdited also handles commands in edited messages.
	AllowEdited bool

	// Params is the schema for key=value arguments. When set, invalid
	// arguments are answered with the validation error and the callback
	// does not run.
	Params Params

	// Locked blocks other locked commands for the same user while this
	// one runs. Commands arriving meanwhile are dropped.
	Locked bool

	// Description, Scope and LangCode describe the command for SyncCommands.
	// Commands without a description are not synced.
	Description string
	Scope       CommandScope
	LangCode    string
}

func (h *CommandHandler) CheckUpdate(u *Update) (bool, any) {
	m := u.Message
	if m == nil {
		m = u.ChannelPost
	}
	if m == nil && h.AllowEdited {
		m = u.EditedMessage
		if m == nil {
			m = u.EditedChannelPost
		}
	}
	if m == nil || !m.IsCommand() {
		return false, nil
	}

	name, mention, args := m.Command()
	if mention != "" && !strings.EqualFold(mention, u.botUsername) {
		return false, nil
	}
	if !slices.ContainsFunc(h.Commands, func(c string) bool { return strings.EqualFold(c, name) }) {
		return false, nil
	}
	matches, ok := MatchFilter(h.Filter, u)
	if !ok {
		return false, nil
	}
	return true, matchResult{args: strings.Fields(args), matches: matches}
}

func (h *CommandHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	if m, ok := data.(matchResult); ok {
		m.apply(ctx)
	}

	userID := ctx.SenderID()
	if userID != 0 && h.Locked {
		lock := ctx.dispatcher.commandLock
		if !lock.TryLock(userID) {
			ctx.logger().Debug("command blocked by lock",
				"command", h.Commands,
				"sender_id", userID)
			return nil
		}
		defer lock.Unlock(userID)
	}

	params, err := parseParams(ctx.Args, h.Params)
	if err != nil {
		return ctx.Reply("Error: " + err.Error())
	}
	ctx.params = params

	return runCallback(h.Callback, ctx, nil)
}

// PrefixHandler handles commands written with arbitrary prefixes, such as
// "!help" or "#help". Every prefix is combined with every command.
type PrefixHandler struct {
	Prefixes []string
	Commands []string
	Filter   Filter
	Callback HandlerFunc
}

func (h *PrefixHandler) CheckUpdate(u *Update) (bool, any) {
	m := u.Message
	if m == nil {
		m = u.ChannelPost
	}
	if m == nil {
		return false, nil
	}
	text := m.Text
	if text == "" {
		text = m.Caption
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return false, nil
	}

	first := strings.ToLower(words[0])
	found := false
	for _, p := range h.Prefixes {
		for _, c := range h.Commands {
			if first == strings.ToLower(p+c) {
				found = true
			}
		}
	}
	if !found {
		return false, nil
	}
	matches, ok := MatchFilter(h.Filter, u)
	if !ok {
		return false, nil
	}
	return true, matchResult{args: words[1:], matches: matches}
}

func (h *PrefixHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// CallbackQueryHandler handles inline keyboard button presses.
type CallbackQueryHandler struct {
	// Pattern is matched against the callback data; the submatches
	// become Context.Matches.
	Pattern *regexp.Regexp

	// DataPrefix filters by callback data prefix.
	DataPrefix string

	// Users filters by user IDs.
	Users []int64

	// Custom is a custom filter function.
	Custom func(q *CallbackQuery) bool

	Callback HandlerFunc
}

func (h *CallbackQueryHandler) CheckUpdate(u *Update) (bool, any) {
	q := u.CallbackQuery
	if q == nil {
		return false, nil
	}
	if h.DataPrefix != "" && !strings.HasPrefix(q.Data, h.DataPrefix) {
		return false, nil
	}
	if len(h.Users) > 0 && !slices.Contains(h.Users, q.From.ID) {
		return false, nil
	}
	var matches []string
	if h.Pattern != nil {
		if matches = h.Pattern.FindStringSubmatch(q.Data); matches == nil {
			return false, nil
		}
	}
	if h.Custom != nil && !h.Custom(q) {
		return false, nil
	}
	return true, matchResult{matches: matches}
}

func (h *CallbackQueryHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// InlineQueryHandler handles inline queries.
type InlineQueryHandler struct {
	Pattern *regexp.Regexp

	// ChatTypes filters by the type of chat the query was sent from.
	ChatTypes []string

	Callback HandlerFunc
}

func (h *InlineQueryHandler) CheckUpdate(u *Update) (bool, any) {
	q := u.InlineQuery
	if q == nil {
		return false, nil
	}
	if len(h.ChatTypes) > 0 && !slices.Contains(h.ChatTypes, q.ChatType) {
		return false, nil
	}
	var matches []string
	if h.Pattern != nil {
		if matches = h.Pattern.FindStringSubmatch(q.Query); matches == nil {
			return false, nil
		}
	}
	return true, matchResult{matches: matches}
}

func (h *InlineQueryHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// ChosenInlineResultHandler handles chosen inline results. Pattern is
// matched against the result ID.
type ChosenInlineResultHandler struct {
	Pattern  *regexp.Regexp
	Callback HandlerFunc
}

func (h *ChosenInlineResultHandler) CheckUpdate(u *Update) (bool, any) {
	r := u.ChosenInlineResult
	if r == nil {
		return false, nil
	}
	var matches []string
	if h.Pattern != nil {
		if matches = h.Pattern.FindStringSubmatch(r.ResultID); matches == nil {
			return false, nil
		}
	}
	return true, matchResult{matches: matches}
}

func (h *ChosenInlineResultHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// ShippingQueryHandler handles shipping queries of flexible invoices.
type ShippingQueryHandler struct {
	Callback HandlerFunc
}

func (h *ShippingQueryHandler) CheckUpdate(u *Update) (bool, any) {
	return u.ShippingQuery != nil, nil
}

func (h *ShippingQueryHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// PreCheckoutQueryHandler handles pre-checkout queries. Pattern is matched
// against the invoice payload.
type PreCheckoutQueryHandler struct {
	Pattern  *regexp.Regexp
	Callback HandlerFunc
}

func (h *PreCheckoutQueryHandler) CheckUpdate(u *Update) (bool, any) {
	q := u.PreCheckoutQuery
	if q == nil {
		return false, nil
	}
	var matches []string
	if h.Pattern != nil {
		if matches = h.Pattern.FindStringSubmatch(q.InvoicePayload); matches == nil {
			return false, nil
		}
	}
	return true, matchResult{matches: matches}
}

func (h *PreCheckoutQueryHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// PollHandler handles poll state updates.
type PollHandler struct {
	Callback HandlerFunc
}

func (h *PollHandler) CheckUpdate(u *Update) (bool, any) { return u.Poll != nil, nil }

func (h *PollHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// PollAnswerHandler handles answers in non-anonymous polls.
type PollAnswerHandler struct {
	Callback HandlerFunc
}

func (h *PollAnswerHandler) CheckUpdate(u *Update) (bool, any) { return u.PollAnswer != nil, nil }

func (h *PollAnswerHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// ChatMemberKind selects the member updates a ChatMemberHandler receives.
type ChatMemberKind int

const (
	// KindMyChatMember selects changes of the bot's own membership.
	KindMyChatMember ChatMemberKind = iota
	// KindChatMember selects changes of other members. Telegram only sends
	// these when "chat_member" is in allowed_updates.
	KindChatMember
	KindAnyChatMember
)

// ChatMemberHandler handles membership changes.
type ChatMemberHandler struct {
	Kind     ChatMemberKind
	Chats    []int64
	Callback HandlerFunc
}

func (h *ChatMemberHandler) CheckUpdate(u *Update) (bool, any) {
	var cm *ChatMemberUpdated
	switch h.Kind {
	case KindMyChatMember:
		cm = u.MyChatMember
	case KindChatMember:
		cm = u.ChatMember
	case KindAnyChatMember:
		cm = u.MyChatMember
		if cm == nil {
			cm = u.ChatMember
		}
	}
	if cm == nil {
		return false, nil
	}
	if len(h.Chats) > 0 && !slices.Contains(h.Chats, cm.Chat.ID) {
		return false, nil
	}
	return true, nil
}

func (h *ChatMemberHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// ChatJoinRequestHandler handles join requests, optionally restricted to
// chats and requesting users.
type ChatJoinRequestHandler struct {
	Chats    []int64
	Users    []int64
	Callback HandlerFunc
}

func (h *ChatJoinRequestHandler) CheckUpdate(u *Update) (bool, any) {
	r := u.ChatJoinRequest
	if r == nil {
		return false, nil
	}
	if len(h.Chats) > 0 && !slices.Contains(h.Chats, r.Chat.ID) {
		return false, nil
	}
	if len(h.Users) > 0 && !slices.Contains(h.Users, r.From.ID) {
		return false, nil
	}
	return true, nil
}

func (h *ChatJoinRequestHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

// TypeHandler handles any update Match accepts.
type TypeHandler struct {
	Match    func(u *Update) bool
	Callback HandlerFunc
}

func (h *TypeHandler) CheckUpdate(u *Update) (bool, any) {
	return h.Match != nil && h.Match(u), nil
}

func (h *TypeHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	return runCallback(h.Callback, ctx, data)
}

type albumHandler struct {
	fn     HandlerFunc
	filter Filter
}
