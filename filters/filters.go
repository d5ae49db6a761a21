// Package filters provides update filters for botkit handlers.
//
// Filters compose with And, Or, Not and Xor:
//
//	filters.And(filters.ChatType(botkit.ChatTypePrivate), filters.Photo)
package filters

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/en9inerd/botkit"
)

type andFilter []botkit.Filter

// And matches when every filter matches. Regexp matches of all parts are
// concatenated in order.
func And(filters ...botkit.Filter) botkit.DataFilter { return andFilter(filters) }

func (f andFilter) Check(u *botkit.Update) bool {
	_, ok := f.Match(u)
	return ok
}

func (f andFilter) Match(u *botkit.Update) ([]string, bool) {
	var all []string
	for _, sub := range f {
		m, ok := botkit.MatchFilter(sub, u)
		if !ok {
			return nil, false
		}
		all = append(all, m...)
	}
	return all, true
}

type orFilter []botkit.Filter

// Or matches when any filter matches, stopping at the first one.
func Or(filters ...botkit.Filter) botkit.DataFilter { return orFilter(filters) }

func (f orFilter) Check(u *botkit.Update) bool {
	_, ok := f.Match(u)
	return ok
}

func (f orFilter) Match(u *botkit.Update) ([]string, bool) {
	for _, sub := range f {
		if m, ok := botkit.MatchFilter(sub, u); ok {
			return m, true
		}
	}
	return nil, false
}

// Not inverts a filter.
func Not(f botkit.Filter) botkit.Filter {
	return botkit.FilterFunc(func(u *botkit.Update) bool { return !f.Check(u) })
}

// Xor matches when exactly one of a and b matches.
func Xor(a, b botkit.Filter) botkit.Filter {
	return botkit.FilterFunc(func(u *botkit.Update) bool { return a.Check(u) != b.Check(u) })
}

// MessageFunc adapts a predicate over the effective message.
// Updates without a message never match.
type MessageFunc func(m *botkit.Message) bool

// Check applies f to the effective message.
func (f MessageFunc) Check(u *botkit.Update) bool {
	m := u.EffectiveMessage()
	return m != nil && f(m)
}

// Message filters.
var (
	All       botkit.Filter = MessageFunc(func(*botkit.Message) bool { return true })
	Text      botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Text != "" && !m.IsCommand() })
	Command   botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.IsCommand() })
	Caption   botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Caption != "" })
	Photo     botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return len(m.Photo) > 0 })
	Video     botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Video != nil })
	Audio     botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Audio != nil })
	Voice     botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Voice != nil })
	Document  botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Document != nil })
	Animation botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Animation != nil })
	Sticker   botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Sticker != nil })
	VideoNote botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.VideoNote != nil })
	Contact   botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Contact != nil })
	Location  botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Location != nil })
	Venue     botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Venue != nil })
	Poll      botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Poll != nil })
	Dice      botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Dice != nil })
	Game      botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Game != nil })
	Invoice   botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.Invoice != nil })

	SuccessfulPayment   botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.SuccessfulPayment != nil })
	Forwarded           botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.IsForwarded() })
	Reply               botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.ReplyToMessage != nil })
	ViaBot              botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.ViaBot != nil })
	HasProtectedContent botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.HasProtectedContent })
	IsAutomaticForward  botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.IsAutomaticForward })
	StatusUpdate        botkit.Filter = MessageFunc(func(m *botkit.Message) bool { return m.IsStatusUpdate() })
)

// Update kind filters.
var (
	UpdateMessage           botkit.Filter = botkit.FilterFunc(func(u *botkit.Update) bool { return u.Message != nil })
	UpdateEditedMessage     botkit.Filter = botkit.FilterFunc(func(u *botkit.Update) bool { return u.EditedMessage != nil })
	UpdateChannelPost       botkit.Filter = botkit.FilterFunc(func(u *botkit.Update) bool { return u.ChannelPost != nil })
	UpdateEditedChannelPost botkit.Filter = botkit.FilterFunc(func(u *botkit.Update) bool { return u.EditedChannelPost != nil })
	UpdateEdited            botkit.Filter = botkit.FilterFunc(func(u *botkit.Update) bool {
		return u.EditedMessage != nil || u.EditedChannelPost != nil
	})
)

type regexFilter struct {
	re      *regexp.Regexp
	caption bool
}

// Regex matches message text against pattern. The submatches become
// Context.Matches. It panics if pattern does not compile.
func Regex(pattern string) botkit.DataFilter {
	return regexFilter{re: regexp.MustCompile(pattern)}
}

// CaptionRegex is Regex over the caption.
func CaptionRegex(pattern string) botkit.DataFilter {
	return regexFilter{re: regexp.MustCompile(pattern), caption: true}
}

func (f regexFilter) Check(u *botkit.Update) bool {
	_, ok := f.Match(u)
	return ok
}

func (f regexFilter) Match(u *botkit.Update) ([]string, bool) {
	m := u.EffectiveMessage()
	if m == nil {
		return nil, false
	}
	s := m.Text
	if f.caption {
		s = m.Caption
	}
	if s == "" {
		return nil, false
	}
	sub := f.re.FindStringSubmatch(s)
	if sub == nil {
		return nil, false
	}
	return sub, true
}

func hasEntity(entities []botkit.MessageEntity, types []string) bool {
	for _, e := range entities {
		if slices.Contains(types, e.Type) {
			return true
		}
	}
	return false
}

// Entity matches messages whose text has an entity of one of types.
func Entity(types ...string) botkit.Filter {
	return MessageFunc(func(m *botkit.Message) bool { return hasEntity(m.Entities, types) })
}

// CaptionEntity matches messages whose caption has an entity of one of types.
func CaptionEntity(types ...string) botkit.Filter {
	return MessageFunc(func(m *botkit.Message) bool { return hasEntity(m.CaptionEntities, types) })
}

// ChatType matches updates from chats of the given types.
func ChatType(types ...string) botkit.Filter {
	return botkit.FilterFunc(func(u *botkit.Update) bool {
		c := u.EffectiveChat()
		return c != nil && slices.Contains(types, c.Type)
	})
}

// Language matches users whose language code starts with one of prefixes,
// so "en" matches "en-US".
func Language(prefixes ...string) botkit.Filter {
	return botkit.FilterFunc(func(u *botkit.Update) bool {
		user := u.EffectiveUser()
		if user == nil || user.LanguageCode == "" {
			return false
		}
		for _, p := range prefixes {
			if strings.HasPrefix(user.LanguageCode, p) {
				return true
			}
		}
		return false
	})
}

// IDFilter matches updates by a chat or user ID taken from the update.
// The set can be changed while the bot is running.
type IDFilter struct {
	// AllowEmpty makes an empty set match every update.
	AllowEmpty bool

	mu  sync.RWMutex
	ids map[int64]struct{}
	id  func(u *botkit.Update) (int64, bool)
}

// Chats matches updates from the effective chat IDs.
func Chats(ids ...int64) *IDFilter {
	f := &IDFilter{id: func(u *botkit.Update) (int64, bool) {
		c := u.EffectiveChat()
		if c == nil {
			return 0, false
		}
		return c.ID, true
	}}
	f.Add(ids...)
	return f
}

// Users matches updates from the effective user IDs.
func Users(ids ...int64) *IDFilter {
	f := &IDFilter{id: func(u *botkit.Update) (int64, bool) {
		user := u.EffectiveUser()
		if user == nil {
			return 0, false
		}
		return user.ID, true
	}}
	f.Add(ids...)
	return f
}

// Add inserts ids into the set.
func (f *IDFilter) Add(ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids == nil {
		f.ids = make(map[int64]struct{}, len(ids))
	}
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
}

// Remove deletes ids from the set.
func (f *IDFilter) Remove(ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.ids, id)
	}
}

// Check reports whether the update's ID is in the set.
func (f *IDFilter) Check(u *botkit.Update) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.ids) == 0 {
		return f.AllowEmpty
	}
	id, ok := f.id(u)
	if !ok {
		return false
	}
	_, found := f.ids[id]
	return found
}

// UsernameFilter matches updates by the effective user's username,
// compared case-insensitively and without "@".
type UsernameFilter struct {
	// AllowEmpty makes an empty set match every update.
	AllowEmpty bool

	mu    sync.RWMutex
	names map[string]struct{}
}

// Usernames matches updates from users with the given usernames.
func Usernames(names ...string) *UsernameFilter {
	f := &UsernameFilter{}
	f.Add(names...)
	return f
}

func normalizeUsername(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "@"))
}

// Add inserts names into the set.
func (f *UsernameFilter) Add(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.names == nil {
		f.names = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		f.names[normalizeUsername(n)] = struct{}{}
	}
}

// Remove deletes names from the set.
func (f *UsernameFilter) Remove(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		delete(f.names, normalizeUsername(n))
	}
}

// Check reports whether the effective user's username is in the set.
func (f *UsernameFilter) Check(u *botkit.Update) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.names) == 0 {
		return f.AllowEmpty
	}
	user := u.EffectiveUser()
	if user == nil || user.Username == "" {
		return false
	}
	_, found := f.names[normalizeUsername(user.Username)]
	return found
}
