package botkit

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// CommandGroup is the dispatcher group the Bot's command shortcuts use.
// Other shortcuts each get a group of their own above it, in registration
// order, so every matching shortcut handler runs.
const CommandGroup = 0

// Bot is the main Telegram bot client. It embeds the API client, so every
// Bot API method is available on it.
type Bot struct {
	*Client

	config     Config
	dispatcher *Dispatcher
	jobs       *JobQueue
	queue      *MessageQueue
	metrics    *Metrics

	mu        sync.Mutex
	nextGroup int

	// Lifecycle callbacks
	onReady func(ctx context.Context)

	// State
	running atomic.Bool
	self    atomic.Pointer[User]
}

// New creates a new Bot with the given configuration.
func New(cfg Config) (*Bot, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("botkit: register metrics: %w", err)
	}

	// Long polling holds the request open for the polling timeout.
	httpTimeout := cfg.RequestTimeout + time.Duration(cfg.Polling.Timeout)*time.Second
	opts := []ClientOption{
		WithAPIURL(cfg.APIURL),
		WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		WithZapLogger(cfg.zapLogger()),
		WithMetrics(metrics),
		WithRetries(cfg.MaxRetries),
		WithMaxFloodWait(cfg.MaxFloodWait),
		WithDefaults(cfg.Defaults),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, WithTracerProvider(cfg.TracerProvider))
	}
	client, err := NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		Client:    client,
		config:    cfg,
		metrics:   metrics,
		nextGroup: CommandGroup + 1,
	}
	bot.dispatcher = newDispatcher(bot)
	bot.jobs = newJobQueue(bot.dispatcher)

	if cfg.MessageQueue != nil {
		qc := *cfg.MessageQueue
		if qc.OnError == nil {
			qc.OnError = func(err error) {
				cfg.Logger.Error("queued send failed", "error", err)
			}
		}
		bot.queue = NewMessageQueue(qc)
		bot.queue.setMetrics(metrics)
	}

	return bot, nil
}

// Dispatcher returns the update dispatcher for registering handlers directly.
func (b *Bot) Dispatcher() *Dispatcher {
	return b.dispatcher
}

// JobQueue returns the scheduler for timed callbacks.
func (b *Bot) JobQueue() *JobQueue {
	return b.jobs
}

// Self returns the bot's user, known once Run has called getMe.
func (b *Bot) Self() *User {
	return b.self.Load()
}

// SelfID returns the bot's user ID.
func (b *Bot) SelfID() int64 {
	if u := b.self.Load(); u != nil {
		return u.ID
	}
	return 0
}

// OnReady sets a callback that's called when the bot is connected and ready.
func (b *Bot) OnReady(fn func(ctx context.Context)) {
	b.onReady = fn
}

// OnError registers a handler for errors returned by callbacks.
// Without one, errors are logged.
func (b *Bot) OnError(fn HandlerFunc) {
	b.dispatcher.AddErrorHandler(fn)
}

func (b *Bot) addGrouped(h Handler) {
	b.mu.Lock()
	group := b.nextGroup
	b.nextGroup++
	b.mu.Unlock()
	b.dispatcher.AddHandler(h, group)
}

func newMessage(u *Update) *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.ChannelPost
}

func editedMessage(u *Update) *Message {
	if u.EditedMessage != nil {
		return u.EditedMessage
	}
	return u.EditedChannelPost
}

// OnMessage registers a handler for new messages and channel posts.
// Commands are left to the command handlers.
func (b *Bot) OnMessage(filter Filter, fn HandlerFunc) {
	b.addGrouped(&MessageHandler{
		Filter: guardFilter{
			guard: func(u *Update) bool {
				m := newMessage(u)
				return m != nil && !m.IsCommand()
			},
			next: filter,
		},
		Callback: fn,
	})
}

// OnChannelPost registers a handler for new posts in a channel.
func (b *Bot) OnChannelPost(channelID int64, fn HandlerFunc) {
	b.addGrouped(&MessageHandler{
		Filter: FilterFunc(func(u *Update) bool {
			return u.ChannelPost != nil && u.ChannelPost.Chat.ID == channelID
		}),
		Callback: fn,
	})
}

// OnPrivateMessage registers a handler for private messages from specific users.
func (b *Bot) OnPrivateMessage(userIDs []int64, fn HandlerFunc) {
	b.OnMessage(FilterFunc(func(u *Update) bool {
		m := u.Message
		return m != nil && m.Chat.IsPrivate() && m.From != nil && slices.Contains(userIDs, m.From.ID)
	}), fn)
}

// OnEdit registers a handler for edited messages and channel posts.
func (b *Bot) OnEdit(filter Filter, fn HandlerFunc) {
	b.addGrouped(&MessageHandler{
		Filter: guardFilter{
			guard: func(u *Update) bool { return editedMessage(u) != nil },
			next:  filter,
		},
		Callback: fn,
	})
}

// OnChannelEdit registers a handler for edited channel posts.
func (b *Bot) OnChannelEdit(channelID int64, fn HandlerFunc) {
	b.OnEdit(FilterFunc(func(u *Update) bool {
		return u.EditedChannelPost != nil && u.EditedChannelPost.Chat.ID == channelID
	}), fn)
}

// OnAlbum registers a handler for albums (grouped media).
func (b *Bot) OnAlbum(filter Filter, fn HandlerFunc) {
	b.dispatcher.OnAlbum(filter, fn)
}

// CommandDef defines a command with its metadata.
type CommandDef struct {
	// Name is the command name without the leading slash.
	Name string

	// Description is shown in the bot's command menu.
	Description string

	// Params defines the parameter schema for validation.
	Params Params

	// Locked enables mutual exclusion for this command.
	// When true, this command blocks other locked commands for the same user.
	Locked bool

	// Scope defines where the command is available (default: ScopeDefault).
	Scope CommandScope

	// LangCode is the language code for this command's description.
	LangCode string
}

// Command registers a command handler with optional parameter schema.
func (b *Bot) Command(name string, params Params, fn HandlerFunc) {
	b.CommandWithFilter(CommandDef{Name: name, Params: params}, nil, fn)
}

// CommandWithDesc registers a command with description (for menu sync).
func (b *Bot) CommandWithDesc(def CommandDef, fn HandlerFunc) {
	b.CommandWithFilter(def, nil, fn)
}

// CommandWithFilter registers a command handler with a custom filter.
func (b *Bot) CommandWithFilter(def CommandDef, filter Filter, fn HandlerFunc) {
	b.dispatcher.AddHandler(&CommandHandler{
		Commands:    []string{def.Name},
		Filter:      filter,
		Callback:    fn,
		Params:      def.Params,
		Locked:      def.Locked,
		Description: def.Description,
		Scope:       def.Scope,
		LangCode:    def.LangCode,
	}, CommandGroup)
}

func fromUsers(userIDs []int64) Filter {
	return FilterFunc(func(u *Update) bool {
		user := u.EffectiveUser()
		return user != nil && slices.Contains(userIDs, user.ID)
	})
}

// CommandFrom registers a command handler that only responds to specific users.
func (b *Bot) CommandFrom(name string, params Params, userIDs []int64, fn HandlerFunc) {
	b.CommandWithFilter(CommandDef{Name: name, Params: params}, fromUsers(userIDs), fn)
}

// LockedCommand registers a command with mutual exclusion.
func (b *Bot) LockedCommand(name string, params Params, fn HandlerFunc) {
	b.CommandWithFilter(CommandDef{Name: name, Params: params, Locked: true}, nil, fn)
}

// LockedCommandWithDesc registers a locked command with description.
func (b *Bot) LockedCommandWithDesc(def CommandDef, fn HandlerFunc) {
	def.Locked = true
	b.CommandWithFilter(def, nil, fn)
}

// LockedCommandFrom registers a locked command for specific users.
func (b *Bot) LockedCommandFrom(name string, params Params, userIDs []int64, fn HandlerFunc) {
	b.CommandWithFilter(CommandDef{Name: name, Params: params, Locked: true}, fromUsers(userIDs), fn)
}

// OnCallback registers a handler for callback queries (inline button clicks).
// The Pattern, DataPrefix, Users and Custom fields of filter select the
// queries; its Callback is replaced by fn.
func (b *Bot) OnCallback(filter CallbackQueryHandler, fn HandlerFunc) {
	filter.Callback = fn
	b.addGrouped(&filter)
}

// OnCallbackPrefix registers a handler for callback queries with a specific data prefix.
func (b *Bot) OnCallbackPrefix(prefix string, fn HandlerFunc) {
	b.OnCallback(CallbackQueryHandler{DataPrefix: prefix}, fn)
}

// OnInlineQuery registers a handler for inline queries matching pattern.
// An empty pattern matches every query. It panics if pattern does not compile.
func (b *Bot) OnInlineQuery(pattern string, fn HandlerFunc) {
	h := &InlineQueryHandler{Callback: fn}
	if pattern != "" {
		h.Pattern = regexp.MustCompile(pattern)
	}
	b.addGrouped(h)
}

// AddConversation registers a conversation in group.
func (b *Bot) AddConversation(conv *ConversationHandler, group int) {
	b.dispatcher.AddHandler(conv, group)
}

// Run starts the bot and blocks until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	self, err := b.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("botkit: getMe: %w", err)
	}
	b.self.Store(self)
	b.dispatcher.setUsername(self.Username)

	if err := b.dispatcher.Load(ctx); err != nil {
		return fmt.Errorf("botkit: load persistence: %w", err)
	}

	if b.config.BotInfo != nil {
		if err := b.UpdateBotInfo(ctx, *b.config.BotInfo); err != nil {
			b.config.Logger.Warn("failed to update bot info", "error", err)
		}
	}

	if b.onReady != nil {
		b.onReady(ctx)
	}

	if b.config.SyncCommands {
		if err := b.SyncCommands(ctx); err != nil {
			b.config.Logger.Warn("failed to sync commands", "error", err)
		}
	}

	b.jobs.Start()
	if b.queue != nil {
		b.queue.Start()
	}

	// Handlers keep running on buffered updates after ctx is done; the
	// receive loop stops first and the dispatcher drains what is left.
	updates := make(chan *Update, 100)
	b.dispatcher.Run(context.WithoutCancel(ctx), updates)

	b.config.Logger.Info("bot started",
		"id", self.ID,
		"username", self.Username,
		"mode", b.config.Mode)

	var runErr error
	switch b.config.Mode {
	case ModeWebhook:
		runErr = b.serveWebhook(ctx, updates)
	default:
		runErr = b.poll(ctx, updates)
	}

	close(updates)
	b.shutdown()

	b.config.Logger.Info("bot stopped")
	return runErr
}

func (b *Bot) shutdown() {
	b.dispatcher.Stop()
	if b.queue != nil {
		b.queue.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.jobs.Stop(ctx); err != nil {
		b.config.Logger.Warn("jobs still running at shutdown", "error", err)
	}

	if p := b.config.Persistence; p != nil {
		if err := p.Flush(ctx); err != nil {
			b.config.Logger.Error("failed to flush persistence", "error", err)
		}
	}
}
