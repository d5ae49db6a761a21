package botkit

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// State names a step of a conversation.
type State string

const (
	// End ends a conversation and forgets its key.
	End State = "END"

	// TimeoutState holds the handlers run when a conversation times out.
	TimeoutState State = "TIMEOUT"
)

// ConversationKey selects the update parts that identify a conversation.
type ConversationKey int

const (
	KeyChat ConversationKey = 1 << iota
	KeyUser
	// KeyMessage keys by the callback query's message, so each inline
	// keyboard runs its own conversation.
	KeyMessage
)

// ConversationHandler is a state machine over handlers. Updates are matched
// against EntryPoints when there is no conversation for their key, and
// against the handlers of the current state followed by Fallbacks
// otherwise. Callbacks move the conversation with Context.Transition.
type ConversationHandler struct {
	// Name identifies the conversation in persistence. Required when
	// Persistent is set.
	Name string

	EntryPoints []Handler
	States      map[State][]Handler
	Fallbacks   []Handler

	// AllowReentry checks entry points even while a conversation is active.
	AllowReentry bool

	// Key is a combination of KeyChat, KeyUser and KeyMessage.
	// Zero means KeyChat|KeyUser.
	Key ConversationKey

	// Timeout ends a conversation after this long without a handled update,
	// running the matching TimeoutState handlers first. Zero disables it.
	Timeout time.Duration

	// Persistent stores states through the dispatcher's Persistence.
	Persistent bool

	// MapToParent ends this conversation when a callback transitions to one
	// of its keys and moves the enclosing conversation to the mapped state.
	MapToParent map[State]State

	mu            sync.Mutex
	conversations map[string]State
	timers        map[string]*conversationTimer
	dispatcher    *Dispatcher
	persistence   Persistence
}

type conversationTimer struct {
	t *time.Timer
}

type conversationMatch struct {
	key     string
	handler Handler
	data    any
}

func (h *ConversationHandler) init() {
	if h.conversations == nil {
		h.conversations = make(map[string]State)
	}
	if h.timers == nil {
		h.timers = make(map[string]*conversationTimer)
	}
}

// attach binds h and its nested conversations to d and loads persisted
// states.
func (h *ConversationHandler) attach(ctx context.Context, d *Dispatcher) error {
	h.mu.Lock()
	h.init()
	h.dispatcher = d
	h.mu.Unlock()

	var errs []error
	if h.Persistent && d.persistence != nil {
		if err := h.load(ctx, d.persistence); err != nil {
			errs = append(errs, err)
		}
	}
	for _, nested := range h.handlers() {
		if conv, ok := nested.(*ConversationHandler); ok {
			if err := conv.attach(ctx, d); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *ConversationHandler) load(ctx context.Context, p Persistence) error {
	if h.Name == "" {
		return errors.New("botkit: persistent conversation requires a name")
	}
	states, err := p.GetConversations(ctx, h.Name)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.persistence = p
	for key, state := range states {
		h.conversations[key] = state
	}
	return nil
}

// handlers returns every handler of the conversation.
func (h *ConversationHandler) handlers() []Handler {
	all := append([]Handler(nil), h.EntryPoints...)
	for _, state := range slices.Sorted(maps.Keys(h.States)) {
		all = append(all, h.States[state]...)
	}
	return append(all, h.Fallbacks...)
}

// CurrentState returns the state of the conversation u belongs to.
func (h *ConversationHandler) CurrentState(u *Update) (State, bool) {
	key, ok := h.key(u)
	if !ok {
		return "", false
	}
	return h.state(key)
}

func (h *ConversationHandler) state(key string) (State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.conversations[key]
	return s, ok
}

func (h *ConversationHandler) key(u *Update) (string, bool) {
	k := h.Key
	if k == 0 {
		k = KeyChat | KeyUser
	}

	var parts []string
	if k&KeyChat != 0 {
		chat := u.EffectiveChat()
		if chat == nil {
			return "", false
		}
		parts = append(parts, strconv.FormatInt(chat.ID, 10))
	}
	if k&KeyUser != 0 {
		user := u.EffectiveUser()
		if user == nil {
			return "", false
		}
		parts = append(parts, strconv.FormatInt(user.ID, 10))
	}
	if k&KeyMessage != 0 {
		q := u.CallbackQuery
		switch {
		case q == nil:
			return "", false
		case q.InlineMessageID != "":
			parts = append(parts, q.InlineMessageID)
		case q.Message != nil:
			parts = append(parts, strconv.Itoa(q.Message.MessageID))
		default:
			return "", false
		}
	}
	return strings.Join(parts, ":"), true
}

func (h *ConversationHandler) CheckUpdate(u *Update) (bool, any) {
	key, ok := h.key(u)
	if !ok {
		return false, nil
	}
	state, active := h.state(key)

	var candidates [][]Handler
	if !active || h.AllowReentry {
		candidates = append(candidates, h.EntryPoints)
	}
	if active {
		candidates = append(candidates, h.States[state], h.Fallbacks)
	}
	for _, handlers := range candidates {
		for _, handler := range handlers {
			if ok, data := handler.CheckUpdate(u); ok {
				return true, conversationMatch{key: key, handler: handler, data: data}
			}
		}
	}
	return false, nil
}

func (h *ConversationHandler) HandleUpdate(ctx *Context, u *Update, data any) error {
	m, ok := data.(conversationMatch)
	if !ok {
		return nil
	}

	h.mu.Lock()
	h.init()
	if h.dispatcher == nil {
		h.dispatcher = ctx.dispatcher
	}
	h.mu.Unlock()

	prev := ctx.nextState
	ctx.nextState = nil
	err := m.handler.HandleUpdate(ctx, u, m.data)
	next := ctx.nextState
	ctx.nextState = prev

	if err != nil && !errors.Is(err, ErrHandlerStop) {
		return err
	}

	if next != nil {
		if parent, ok := h.MapToParent[*next]; ok {
			h.setState(ctx, m.key, End)
			ctx.nextState = &parent
			return err
		}
		h.setState(ctx, m.key, *next)
	}
	if h.Timeout > 0 {
		if _, active := h.state(m.key); active {
			h.resetTimer(m.key, u)
		}
	}
	return err
}

func (h *ConversationHandler) setState(ctx context.Context, key string, state State) {
	h.mu.Lock()
	if state == End {
		delete(h.conversations, key)
		if ct, ok := h.timers[key]; ok {
			ct.t.Stop()
			delete(h.timers, key)
		}
	} else {
		h.conversations[key] = state
	}
	p := h.persistence
	logger := h.logger()
	h.mu.Unlock()

	if p == nil {
		return
	}
	if err := p.UpdateConversation(context.WithoutCancel(ctx), h.Name, key, state); err != nil {
		logger.Error("failed to persist conversation state",
			"conversation", h.Name,
			"key", key,
			"error", err)
	}
}

func (h *ConversationHandler) resetTimer(key string, u *Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ct, ok := h.timers[key]; ok {
		ct.t.Stop()
	}
	ct := &conversationTimer{}
	ct.t = time.AfterFunc(h.Timeout, func() { h.expire(key, u, ct) })
	h.timers[key] = ct
}

// expire ends the conversation for key unless the timer was replaced in
// the meantime.
func (h *ConversationHandler) expire(key string, u *Update, ct *conversationTimer) {
	h.mu.Lock()
	if h.timers[key] != ct {
		h.mu.Unlock()
		return
	}
	delete(h.timers, key)
	_, active := h.conversations[key]
	d := h.dispatcher
	h.mu.Unlock()

	if !active || d == nil {
		return
	}

	ctx := context.Background()
	if base := d.base.Load(); base != nil {
		ctx = *base
	}
	c := d.newContext(ctx, u)
	for _, handler := range h.States[TimeoutState] {
		ok, data := handler.CheckUpdate(u)
		if !ok {
			continue
		}
		c.Args, c.Matches, c.params = nil, nil, nil
		if err := handler.HandleUpdate(c, u, data); err != nil && !errors.Is(err, ErrHandlerStop) {
			d.handleError(c, err)
		}
	}
	h.setState(c, key, End)
	d.persist(c)
}

// stopTimers cancels pending timeouts, including those of nested
// conversations.
func (h *ConversationHandler) stopTimers() {
	h.mu.Lock()
	for key, ct := range h.timers {
		ct.t.Stop()
		delete(h.timers, key)
	}
	h.mu.Unlock()

	for _, nested := range h.handlers() {
		if conv, ok := nested.(*ConversationHandler); ok {
			conv.stopTimers()
		}
	}
}

func (h *ConversationHandler) logger() *slog.Logger {
	if h.dispatcher != nil {
		return h.dispatcher.logger
	}
	return slog.Default()
}
