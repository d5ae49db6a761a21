package botkit

import "context"

// AnswerInlineQueryParams are the parameters of answerInlineQuery.
type AnswerInlineQueryParams struct {
	InlineQueryID string                    `json:"inline_query_id"`
	Results       []InlineQueryResult       `json:"results"`
	CacheTime     int                       `json:"cache_time,omitempty"`
	IsPersonal    bool                      `json:"is_personal,omitempty"`
	NextOffset    string                    `json:"next_offset,omitempty"`
	Button        *InlineQueryResultsButton `json:"button,omitempty"`
}

// AnswerInlineQuery sends up to 50 results for an inline query.
func (c *Client) AnswerInlineQuery(ctx context.Context, p *AnswerInlineQueryParams) error {
	if p.Results == nil {
		p.Results = []InlineQueryResult{}
	}
	_, err := call[bool](ctx, c, "answerInlineQuery", p)
	return err
}

// AnswerWebAppQuery sets the result of a Web App interaction.
func (c *Client) AnswerWebAppQuery(ctx context.Context, queryID string, result InlineQueryResult) (*SentWebAppMessage, error) {
	return call[*SentWebAppMessage](ctx, c, "answerWebAppQuery", map[string]any{
		"web_app_query_id": queryID,
		"result":           result,
	})
}

// SendInvoiceParams are the parameters of sendInvoice.
type SendInvoiceParams struct {
	ChatID                    ChatID                `json:"chat_id"`
	MessageThreadID           int                   `json:"message_thread_id,omitempty"`
	Title                     string                `json:"title"`
	Description               string                `json:"description"`
	Payload                   string                `json:"payload"`
	ProviderToken             string                `json:"provider_token"`
	Currency                  string                `json:"currency"`
	Prices                    []LabeledPrice        `json:"prices"`
	MaxTipAmount              int                   `json:"max_tip_amount,omitempty"`
	SuggestedTipAmounts       []int                 `json:"suggested_tip_amounts,omitempty"`
	StartParameter            string                `json:"start_parameter,omitempty"`
	ProviderData              string                `json:"provider_data,omitempty"`
	PhotoURL                  string                `json:"photo_url,omitempty"`
	PhotoSize                 int                   `json:"photo_size,omitempty"`
	PhotoWidth                int                   `json:"photo_width,omitempty"`
	PhotoHeight               int                   `json:"photo_height,omitempty"`
	NeedName                  bool                  `json:"need_name,omitempty"`
	NeedPhoneNumber           bool                  `json:"need_phone_number,omitempty"`
	NeedEmail                 bool                  `json:"need_email,omitempty"`
	NeedShippingAddress       bool                  `json:"need_shipping_address,omitempty"`
	SendPhoneNumberToProvider bool                  `json:"send_phone_number_to_provider,omitempty"`
	SendEmailToProvider       bool                  `json:"send_email_to_provider,omitempty"`
	IsFlexible                bool                  `json:"is_flexible,omitempty"`
	DisableNotification       bool                  `json:"disable_notification,omitempty"`
	ProtectContent            bool                  `json:"protect_content,omitempty"`
	ReplyParameters           *ReplyParameters      `json:"reply_parameters,omitempty"`
	ReplyMarkup               *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendInvoice sends an invoice.
func (c *Client) SendInvoice(ctx context.Context, p *SendInvoiceParams) (*Message, error) {
	return call[*Message](ctx, c, "sendInvoice", p)
}

// CreateInvoiceLinkParams are the parameters of createInvoiceLink.
type CreateInvoiceLinkParams struct {
	Title                     string         `json:"title"`
	Description               string         `json:"description"`
	Payload                   string         `json:"payload"`
	ProviderToken             string         `json:"provider_token"`
	Currency                  string         `json:"currency"`
	Prices                    []LabeledPrice `json:"prices"`
	MaxTipAmount              int            `json:"max_tip_amount,omitempty"`
	SuggestedTipAmounts       []int          `json:"suggested_tip_amounts,omitempty"`
	ProviderData              string         `json:"provider_data,omitempty"`
	PhotoURL                  string         `json:"photo_url,omitempty"`
	NeedName                  bool           `json:"need_name,omitempty"`
	NeedPhoneNumber           bool           `json:"need_phone_number,omitempty"`
	NeedEmail                 bool           `json:"need_email,omitempty"`
	NeedShippingAddress       bool           `json:"need_shipping_address,omitempty"`
	SendPhoneNumberToProvider bool           `json:"send_phone_number_to_provider,omitempty"`
	SendEmailToProvider       bool           `json:"send_email_to_provider,omitempty"`
	IsFlexible                bool           `json:"is_flexible,omitempty"`
}

// CreateInvoiceLink returns a link for an invoice.
func (c *Client) CreateInvoiceLink(ctx context.Context, p *CreateInvoiceLinkParams) (string, error) {
	return call[string](ctx, c, "createInvoiceLink", p)
}

// AnswerShippingQuery replies to a shipping query. With ok false,
// errorMessage explains why the order can't be shipped.
func (c *Client) AnswerShippingQuery(ctx context.Context, queryID string, ok bool, options []ShippingOption, errorMessage string) error {
	params := map[string]any{"shipping_query_id": queryID, "ok": ok}
	if ok {
		params["shipping_options"] = options
	} else {
		params["error_message"] = errorMessage
	}
	_, err := call[bool](ctx, c, "answerShippingQuery", params)
	return err
}

// AnswerPreCheckoutQuery confirms or rejects an order. It must be called
// within 10 seconds of the query.
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage string) error {
	params := map[string]any{"pre_checkout_query_id": queryID, "ok": ok}
	if !ok {
		params["error_message"] = errorMessage
	}
	_, err := call[bool](ctx, c, "answerPreCheckoutQuery", params)
	return err
}

// SendGameParams are the parameters of sendGame.
type SendGameParams struct {
	ChatID              int64                 `json:"chat_id"`
	MessageThreadID     int                   `json:"message_thread_id,omitempty"`
	GameShortName       string                `json:"game_short_name"`
	DisableNotification bool                  `json:"disable_notification,omitempty"`
	ProtectContent      bool                  `json:"protect_content,omitempty"`
	ReplyParameters     *ReplyParameters      `json:"reply_parameters,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendGame sends a game.
func (c *Client) SendGame(ctx context.Context, p *SendGameParams) (*Message, error) {
	return call[*Message](ctx, c, "sendGame", p)
}

// SetGameScoreParams are the parameters of setGameScore.
type SetGameScoreParams struct {
	UserID             int64  `json:"user_id"`
	Score              int    `json:"score"`
	Force              bool   `json:"force,omitempty"`
	DisableEditMessage bool   `json:"disable_edit_message,omitempty"`
	ChatID             int64  `json:"chat_id,omitempty"`
	MessageID          int    `json:"message_id,omitempty"`
	InlineMessageID    string `json:"inline_message_id,omitempty"`
}

// SetGameScore sets a user's score. The edited message is nil for inline
// messages.
func (c *Client) SetGameScore(ctx context.Context, p *SetGameScoreParams) (*Message, error) {
	return callEdit(ctx, c, "setGameScore", p)
}

// GetGameHighScoresParams are the parameters of getGameHighScores.
type GetGameHighScoresParams struct {
	UserID          int64  `json:"user_id"`
	ChatID          int64  `json:"chat_id,omitempty"`
	MessageID       int    `json:"message_id,omitempty"`
	InlineMessageID string `json:"inline_message_id,omitempty"`
}

// GetGameHighScores returns the high score table around the user.
func (c *Client) GetGameHighScores(ctx context.Context, p *GetGameHighScoresParams) ([]GameHighScore, error) {
	return call[[]GameHighScore](ctx, c, "getGameHighScores", p)
}
