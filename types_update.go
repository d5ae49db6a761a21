package botkit

// Update kinds as named in allowed_updates.
const (
	UpdateKindMessage            = "message"
	UpdateKindEditedMessage      = "edited_message"
	UpdateKindChannelPost        = "channel_post"
	UpdateKindEditedChannelPost  = "edited_channel_post"
	UpdateKindInlineQuery        = "inline_query"
	UpdateKindChosenInlineResult = "chosen_inline_result"
	UpdateKindCallbackQuery      = "callback_query"
	UpdateKindShippingQuery      = "shipping_query"
	UpdateKindPreCheckoutQuery   = "pre_checkout_query"
	UpdateKindPoll               = "poll"
	UpdateKindPollAnswer         = "poll_answer"
	UpdateKindMyChatMember       = "my_chat_member"
	UpdateKindChatMember         = "chat_member"
	UpdateKindChatJoinRequest    = "chat_join_request"
)

// Update is an incoming event. At most one of the optional fields is set.
type Update struct {
	UpdateID           int                 `json:"update_id"`
	Message            *Message            `json:"message,omitempty"`
	EditedMessage      *Message            `json:"edited_message,omitempty"`
	ChannelPost        *Message            `json:"channel_post,omitempty"`
	EditedChannelPost  *Message            `json:"edited_channel_post,omitempty"`
	InlineQuery        *InlineQuery        `json:"inline_query,omitempty"`
	ChosenInlineResult *ChosenInlineResult `json:"chosen_inline_result,omitempty"`
	CallbackQuery      *CallbackQuery      `json:"callback_query,omitempty"`
	ShippingQuery      *ShippingQuery      `json:"shipping_query,omitempty"`
	PreCheckoutQuery   *PreCheckoutQuery   `json:"pre_checkout_query,omitempty"`
	Poll               *Poll               `json:"poll,omitempty"`
	PollAnswer         *PollAnswer         `json:"poll_answer,omitempty"`
	MyChatMember       *ChatMemberUpdated  `json:"my_chat_member,omitempty"`
	ChatMember         *ChatMemberUpdated  `json:"chat_member,omitempty"`
	ChatJoinRequest    *ChatJoinRequest    `json:"chat_join_request,omitempty"`

	// botUsername is set by the dispatcher for /cmd@bot matching.
	botUsername string
}

// Kind returns the allowed_updates name of the populated payload,
// or "" when the update carries nothing this library knows.
func (u *Update) Kind() string {
	switch {
	case u == nil:
		return ""
	case u.Message != nil:
		return UpdateKindMessage
	case u.EditedMessage != nil:
		return UpdateKindEditedMessage
	case u.ChannelPost != nil:
		return UpdateKindChannelPost
	case u.EditedChannelPost != nil:
		return UpdateKindEditedChannelPost
	case u.InlineQuery != nil:
		return UpdateKindInlineQuery
	case u.ChosenInlineResult != nil:
		return UpdateKindChosenInlineResult
	case u.CallbackQuery != nil:
		return UpdateKindCallbackQuery
	case u.ShippingQuery != nil:
		return UpdateKindShippingQuery
	case u.PreCheckoutQuery != nil:
		return UpdateKindPreCheckoutQuery
	case u.Poll != nil:
		return UpdateKindPoll
	case u.PollAnswer != nil:
		return UpdateKindPollAnswer
	case u.MyChatMember != nil:
		return UpdateKindMyChatMember
	case u.ChatMember != nil:
		return UpdateKindChatMember
	case u.ChatJoinRequest != nil:
		return UpdateKindChatJoinRequest
	}
	return ""
}

// EffectiveMessage returns the message the update is about, if any.
// For callback queries this is the message carrying the button.
func (u *Update) EffectiveMessage() *Message {
	switch {
	case u == nil:
		return nil
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	case u.CallbackQuery != nil:
		return u.CallbackQuery.Message
	}
	return nil
}

// EffectiveChat returns the chat the update happened in, if any.
func (u *Update) EffectiveChat() *Chat {
	if u == nil {
		return nil
	}
	if m := u.EffectiveMessage(); m != nil {
		return &m.Chat
	}
	switch {
	case u.MyChatMember != nil:
		return &u.MyChatMember.Chat
	case u.ChatMember != nil:
		return &u.ChatMember.Chat
	case u.ChatJoinRequest != nil:
		return &u.ChatJoinRequest.Chat
	}
	return nil
}

// EffectiveUser returns the user that triggered the update, if any.
func (u *Update) EffectiveUser() *User {
	switch {
	case u == nil:
		return nil
	case u.Message != nil:
		return u.Message.From
	case u.EditedMessage != nil:
		return u.EditedMessage.From
	case u.ChannelPost != nil:
		return u.ChannelPost.From
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost.From
	case u.InlineQuery != nil:
		return &u.InlineQuery.From
	case u.ChosenInlineResult != nil:
		return &u.ChosenInlineResult.From
	case u.CallbackQuery != nil:
		return &u.CallbackQuery.From
	case u.ShippingQuery != nil:
		return &u.ShippingQuery.From
	case u.PreCheckoutQuery != nil:
		return &u.PreCheckoutQuery.From
	case u.PollAnswer != nil:
		return u.PollAnswer.User
	case u.MyChatMember != nil:
		return &u.MyChatMember.From
	case u.ChatMember != nil:
		return &u.ChatMember.From
	case u.ChatJoinRequest != nil:
		return &u.ChatJoinRequest.From
	}
	return nil
}

// WebhookInfo describes the current webhook status.
type WebhookInfo struct {
	URL                          string   `json:"url"`
	HasCustomCertificate         bool     `json:"has_custom_certificate"`
	PendingUpdateCount           int      `json:"pending_update_count"`
	IPAddress                    string   `json:"ip_address,omitempty"`
	LastErrorDate                int64    `json:"last_error_date,omitempty"`
	LastErrorMessage             string   `json:"last_error_message,omitempty"`
	LastSynchronizationErrorDate int64    `json:"last_synchronization_error_date,omitempty"`
	MaxConnections               int      `json:"max_connections,omitempty"`
	AllowedUpdates               []string `json:"allowed_updates,omitempty"`
}

// ResponseParameters explains why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}
