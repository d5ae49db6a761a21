package botkit

import "context"

// GetUpdatesParams are the parameters of getUpdates.
type GetUpdatesParams struct {
	Offset         int      `json:"offset,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates receives incoming updates using long polling.
func (c *Client) GetUpdates(ctx context.Context, p *GetUpdatesParams) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", p)
}

// SetWebhookParams are the parameters of setWebhook.
type SetWebhookParams struct {
	URL                string     `json:"url"`
	Certificate        *InputFile `json:"certificate,omitempty"`
	IPAddress          string     `json:"ip_address,omitempty"`
	MaxConnections     int        `json:"max_connections,omitempty"`
	AllowedUpdates     []string   `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool       `json:"drop_pending_updates,omitempty"`
	SecretToken        string     `json:"secret_token,omitempty"`
}

func (p *SetWebhookParams) uploads() []upload { return fileField("certificate", p.Certificate) }

// SetWebhook registers an HTTPS URL for incoming updates.
func (c *Client) SetWebhook(ctx context.Context, p *SetWebhookParams) error {
	_, err := call[bool](ctx, c, "setWebhook", p)
	return err
}

// DeleteWebhook removes the webhook integration.
func (c *Client) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error {
	_, err := call[bool](ctx, c, "deleteWebhook", map[string]bool{"drop_pending_updates": dropPendingUpdates})
	return err
}

// GetWebhookInfo returns the current webhook status.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	return call[*WebhookInfo](ctx, c, "getWebhookInfo", nil)
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return call[*User](ctx, c, "getMe", nil)
}

// LogOut logs the bot out from the cloud Bot API server.
func (c *Client) LogOut(ctx context.Context) error {
	_, err := call[bool](ctx, c, "logOut", nil)
	return err
}

// CloseBot closes the bot instance before moving it to another local server.
func (c *Client) CloseBot(ctx context.Context) error {
	_, err := call[bool](ctx, c, "close", nil)
	return err
}
