package botkit

import (
	"context"
	"log/slog"
)

// Context provides access to the current update and utility methods.
type Context struct {
	context.Context

	bot        *Bot
	dispatcher *Dispatcher
	update     *Update
	job        *Job

	// Parsed command parameters (nil if not a command)
	params ParsedParams

	// For album handling
	messages []*Message

	// Set by Transition; read by the enclosing ConversationHandler.
	nextState *State

	// Data maps opened by the handlers, merged back by Dispatcher.persist.
	userView *dataView
	chatView *dataView
	botView  *dataView

	// Args holds the words after a command.
	Args []string

	// Matches holds regexp submatches of the filter or pattern that matched.
	Matches []string

	// HandlerErr is the error being handled, set for error handlers only.
	HandlerErr error
}

// Bot returns the bot that received the update.
func (c *Context) Bot() *Bot {
	return c.bot
}

// Update returns the update being handled. It is nil for job callbacks.
func (c *Context) Update() *Update {
	return c.update
}

// Job returns the scheduled job, for job callbacks.
func (c *Context) Job() *Job {
	return c.job
}

// Message returns the effective message.
func (c *Context) Message() *Message {
	return c.update.EffectiveMessage()
}

// Messages returns all messages (for albums, otherwise single message).
func (c *Context) Messages() []*Message {
	if len(c.messages) > 0 {
		return c.messages
	}
	if m := c.Message(); m != nil {
		return []*Message{m}
	}
	return nil
}

// CallbackQuery returns the callback query, if any.
func (c *Context) CallbackQuery() *CallbackQuery {
	if c.update == nil {
		return nil
	}
	return c.update.CallbackQuery
}

// InlineQuery returns the inline query, if any.
func (c *Context) InlineQuery() *InlineQuery {
	if c.update == nil {
		return nil
	}
	return c.update.InlineQuery
}

// Data returns the callback data of a callback query.
func (c *Context) Data() string {
	if q := c.CallbackQuery(); q != nil {
		return q.Data
	}
	return ""
}

// Text returns the message text, or the caption for media messages.
func (c *Context) Text() string {
	m := c.Message()
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// MessageID returns the effective message ID.
func (c *Context) MessageID() int {
	if m := c.Message(); m != nil {
		return m.MessageID
	}
	return 0
}

// ChatID returns the effective chat ID. In job callbacks it is the
// job's ChatID.
func (c *Context) ChatID() int64 {
	if chat := c.update.EffectiveChat(); chat != nil {
		return chat.ID
	}
	if c.job != nil {
		return c.job.ChatID
	}
	return 0
}

// SenderID returns the effective user's ID. In job callbacks it is the
// job's UserID.
func (c *Context) SenderID() int64 {
	if user := c.update.EffectiveUser(); user != nil {
		return user.ID
	}
	if c.job != nil {
		return c.job.UserID
	}
	return 0
}

// IsPrivate returns true if the update comes from a private chat.
func (c *Context) IsPrivate() bool {
	chat := c.update.EffectiveChat()
	return chat != nil && chat.IsPrivate()
}

// IsGroup returns true if the update comes from a group or supergroup.
func (c *Context) IsGroup() bool {
	chat := c.update.EffectiveChat()
	return chat != nil && chat.IsGroup()
}

// IsChannel returns true if the update comes from a channel.
func (c *Context) IsChannel() bool {
	chat := c.update.EffectiveChat()
	return chat != nil && chat.IsChannel()
}

// Params returns the parsed command parameters.
func (c *Context) Params() ParsedParams {
	return c.params
}

// Param returns a single parameter value.
func (c *Context) Param(key string) any {
	if c.params != nil {
		return c.params[key]
	}
	return nil
}

// UserData returns the data map of the effective user, or nil if there is
// no user. The map belongs to this Context: changed keys are merged into
// the user's data, and persisted, once the update is handled. Updates
// handled concurrently see each other's changes only after that.
func (c *Context) UserData() map[string]any {
	id := c.SenderID()
	if id == 0 {
		return nil
	}
	if c.userView == nil {
		c.userView = c.dispatcher.userData(id)
	}
	return c.userView.work
}

// ChatData returns the data map of the effective chat, or nil if there is
// no chat. It is merged like UserData.
func (c *Context) ChatData() map[string]any {
	id := c.ChatID()
	if id == 0 {
		return nil
	}
	if c.chatView == nil {
		c.chatView = c.dispatcher.chatData(id)
	}
	return c.chatView.work
}

// BotData returns the data map shared by all updates and jobs. It is
// merged like UserData.
func (c *Context) BotData() map[string]any {
	if c.botView == nil {
		c.botView = c.dispatcher.botData()
	}
	return c.botView.work
}

// Transition sets the state the enclosing conversation moves to after the
// callback returns.
func (c *Context) Transition(state State) {
	c.nextState = &state
}

// EndConversation ends the enclosing conversation.
func (c *Context) EndConversation() {
	c.Transition(End)
}

// Reply sends a reply to the current message.
func (c *Context) Reply(text string) error {
	m := c.Message()
	if m == nil {
		return nil
	}
	_, err := c.bot.SendMessage(c, &SendMessageParams{
		ChatID:          ID(m.Chat.ID),
		MessageThreadID: threadID(m),
		Text:            text,
		ReplyParameters: ReplyTo(m.MessageID),
	})
	return err
}

// Send sends a message to the current chat.
func (c *Context) Send(text string) error {
	chatID := c.ChatID()
	if chatID == 0 {
		return nil
	}
	p := &SendMessageParams{ChatID: ID(chatID), Text: text}
	if m := c.Message(); m != nil {
		p.MessageThreadID = threadID(m)
	}
	_, err := c.bot.SendMessage(c, p)
	return err
}

// SendTo sends a message to a specific chat or user ID.
func (c *Context) SendTo(chatID int64, text string) error {
	_, err := c.bot.SendMessage(c, &SendMessageParams{ChatID: ID(chatID), Text: text})
	return err
}

// AnswerCallback answers the callback query with a toast, or an alert
// when alert is true.
func (c *Context) AnswerCallback(text string, alert bool) error {
	q := c.CallbackQuery()
	if q == nil {
		return nil
	}
	return c.bot.AnswerCallbackQuery(c, &AnswerCallbackQueryParams{
		CallbackQueryID: q.ID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// AnswerInline answers the inline query with results.
func (c *Context) AnswerInline(results []InlineQueryResult) error {
	q := c.InlineQuery()
	if q == nil {
		return nil
	}
	return c.bot.AnswerInlineQuery(c, &AnswerInlineQueryParams{
		InlineQueryID: q.ID,
		Results:       results,
	})
}

// Queued runs fn through the bot's message queue, or directly when no
// queue is configured. With a queue it returns once fn is enqueued, and
// errors returned by fn go to the queue's error callback.
func (c *Context) Queued(fn func(ctx context.Context) error) error {
	if c.bot.queue == nil {
		return fn(c)
	}
	return c.bot.queue.Submit(c, c.IsGroup(), fn)
}

func (c *Context) logger() *slog.Logger {
	return c.bot.config.Logger
}

func threadID(m *Message) int {
	if m.IsTopicMessage {
		return m.MessageThreadID
	}
	return 0
}
