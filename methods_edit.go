package botkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// callEdit invokes an edit method. Telegram returns the edited message for
// chat messages and true for inline messages, in which case the message is nil.
func callEdit(ctx context.Context, c *Client, method string, params any) (*Message, error) {
	raw, err := c.Raw(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("true")) {
		return nil, nil
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("botkit: decode %s result: %w", method, err)
	}
	return &msg, nil
}

// EditMessageTextParams are the parameters of editMessageText. Set either
// ChatID and MessageID, or InlineMessageID.
type EditMessageTextParams struct {
	ChatID             ChatID                `json:"chat_id,omitzero"`
	MessageID          int                   `json:"message_id,omitempty"`
	InlineMessageID    string                `json:"inline_message_id,omitempty"`
	Text               string                `json:"text"`
	ParseMode          string                `json:"parse_mode,omitempty"`
	Entities           []MessageEntity       `json:"entities,omitempty"`
	LinkPreviewOptions *LinkPreviewOptions   `json:"link_preview_options,omitempty"`
	ReplyMarkup        *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageText edits a text or game message.
func (c *Client) EditMessageText(ctx context.Context, p *EditMessageTextParams) (*Message, error) {
	return callEdit(ctx, c, "editMessageText", p)
}

// EditMessageCaptionParams are the parameters of editMessageCaption.
type EditMessageCaptionParams struct {
	ChatID          ChatID                `json:"chat_id,omitzero"`
	MessageID       int                   `json:"message_id,omitempty"`
	InlineMessageID string                `json:"inline_message_id,omitempty"`
	Caption         string                `json:"caption,omitempty"`
	ParseMode       string                `json:"parse_mode,omitempty"`
	CaptionEntities []MessageEntity       `json:"caption_entities,omitempty"`
	ReplyMarkup     *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageCaption edits a media caption.
func (c *Client) EditMessageCaption(ctx context.Context, p *EditMessageCaptionParams) (*Message, error) {
	return callEdit(ctx, c, "editMessageCaption", p)
}

// EditMessageMediaParams are the parameters of editMessageMedia.
type EditMessageMediaParams struct {
	ChatID          ChatID                `json:"chat_id,omitzero"`
	MessageID       int                   `json:"message_id,omitempty"`
	InlineMessageID string                `json:"inline_message_id,omitempty"`
	Media           InputMedia            `json:"media"`
	ReplyMarkup     *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (p *EditMessageMediaParams) uploads() []upload { return mediaUploads(p.Media) }

// EditMessageMedia replaces the media of a message. New files of inline
// messages cannot be uploaded.
func (c *Client) EditMessageMedia(ctx context.Context, p *EditMessageMediaParams) (*Message, error) {
	return callEdit(ctx, c, "editMessageMedia", p)
}

// EditMessageReplyMarkupParams are the parameters of editMessageReplyMarkup.
type EditMessageReplyMarkupParams struct {
	ChatID          ChatID                `json:"chat_id,omitzero"`
	MessageID       int                   `json:"message_id,omitempty"`
	InlineMessageID string                `json:"inline_message_id,omitempty"`
	ReplyMarkup     *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageReplyMarkup edits only the inline keyboard.
func (c *Client) EditMessageReplyMarkup(ctx context.Context, p *EditMessageReplyMarkupParams) (*Message, error) {
	return callEdit(ctx, c, "editMessageReplyMarkup", p)
}

// StopPoll closes a poll sent by the bot and returns its final state.
func (c *Client) StopPoll(ctx context.Context, chatID ChatID, messageID int, markup *InlineKeyboardMarkup) (*Poll, error) {
	params := map[string]any{"chat_id": chatID, "message_id": messageID}
	if markup != nil {
		params["reply_markup"] = markup
	}
	return call[*Poll](ctx, c, "stopPoll", params)
}

// DeleteMessage deletes a message. Messages older than 48 hours can only be
// deleted in some chats.
func (c *Client) DeleteMessage(ctx context.Context, chatID ChatID, messageID int) error {
	_, err := call[bool](ctx, c, "deleteMessage", map[string]any{"chat_id": chatID, "message_id": messageID})
	return err
}

// DeleteMessages deletes 1-100 messages at once, skipping the ones that
// can't be found.
func (c *Client) DeleteMessages(ctx context.Context, chatID ChatID, messageIDs []int) error {
	_, err := call[bool](ctx, c, "deleteMessages", map[string]any{"chat_id": chatID, "message_ids": messageIDs})
	return err
}

// AnswerCallbackQueryParams are the parameters of answerCallbackQuery.
type AnswerCallbackQueryParams struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
	URL             string `json:"url,omitempty"`
	CacheTime       int    `json:"cache_time,omitempty"`
}

// AnswerCallbackQuery stops the loading indicator on an inline button,
// optionally showing a notification.
func (c *Client) AnswerCallbackQuery(ctx context.Context, p *AnswerCallbackQueryParams) error {
	_, err := call[bool](ctx, c, "answerCallbackQuery", p)
	return err
}
