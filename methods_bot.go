package botkit

import "context"

func scopeParams(scope CommandScope, langCode string) map[string]any {
	params := map[string]any{}
	if scope != nil {
		params["scope"] = scope.toAPI()
	}
	if langCode != "" {
		params["language_code"] = langCode
	}
	return params
}

// SetMyCommands sets the command list for a scope and language.
// A nil scope means ScopeDefault.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand, scope CommandScope, langCode string) error {
	params := scopeParams(scope, langCode)
	if commands == nil {
		commands = []BotCommand{}
	}
	params["commands"] = commands
	_, err := call[bool](ctx, c, "setMyCommands", params)
	return err
}

// DeleteMyCommands removes the command list for a scope and language, so
// that broader scopes apply again.
func (c *Client) DeleteMyCommands(ctx context.Context, scope CommandScope, langCode string) error {
	_, err := call[bool](ctx, c, "deleteMyCommands", scopeParams(scope, langCode))
	return err
}

// GetMyCommands returns the command list for a scope and language.
func (c *Client) GetMyCommands(ctx context.Context, scope CommandScope, langCode string) ([]BotCommand, error) {
	return call[[]BotCommand](ctx, c, "getMyCommands", scopeParams(scope, langCode))
}

func langParams(langCode string) map[string]any {
	params := map[string]any{}
	if langCode != "" {
		params["language_code"] = langCode
	}
	return params
}

// SetMyName changes the bot's name. An empty name removes the
// language-specific name.
func (c *Client) SetMyName(ctx context.Context, name, langCode string) error {
	params := langParams(langCode)
	params["name"] = name
	_, err := call[bool](ctx, c, "setMyName", params)
	return err
}

// GetMyName returns the bot's name for the language.
func (c *Client) GetMyName(ctx context.Context, langCode string) (*BotName, error) {
	return call[*BotName](ctx, c, "getMyName", langParams(langCode))
}

// SetMyDescription changes the text shown in an empty chat with the bot.
func (c *Client) SetMyDescription(ctx context.Context, description, langCode string) error {
	params := langParams(langCode)
	params["description"] = description
	_, err := call[bool](ctx, c, "setMyDescription", params)
	return err
}

// GetMyDescription returns the bot's description for the language.
func (c *Client) GetMyDescription(ctx context.Context, langCode string) (*BotDescription, error) {
	return call[*BotDescription](ctx, c, "getMyDescription", langParams(langCode))
}

// SetMyShortDescription changes the text on the bot's profile page.
func (c *Client) SetMyShortDescription(ctx context.Context, shortDescription, langCode string) error {
	params := langParams(langCode)
	params["short_description"] = shortDescription
	_, err := call[bool](ctx, c, "setMyShortDescription", params)
	return err
}

// GetMyShortDescription returns the bot's short description for the language.
func (c *Client) GetMyShortDescription(ctx context.Context, langCode string) (*BotShortDescription, error) {
	return call[*BotShortDescription](ctx, c, "getMyShortDescription", langParams(langCode))
}

// SetChatMenuButton changes the menu button of a private chat, or the
// default menu button when chatID is 0.
func (c *Client) SetChatMenuButton(ctx context.Context, chatID int64, button MenuButton) error {
	params := map[string]any{}
	if chatID != 0 {
		params["chat_id"] = chatID
	}
	if button != nil {
		params["menu_button"] = button
	}
	_, err := call[bool](ctx, c, "setChatMenuButton", params)
	return err
}

// GetChatMenuButton returns the menu button of a private chat, or the
// default one when chatID is 0.
func (c *Client) GetChatMenuButton(ctx context.Context, chatID int64) (MenuButton, error) {
	params := map[string]any{}
	if chatID != 0 {
		params["chat_id"] = chatID
	}
	raw, err := c.Raw(ctx, "getChatMenuButton", params)
	if err != nil {
		return nil, err
	}
	return UnmarshalMenuButton(raw)
}

// SetMyDefaultAdministratorRights sets the rights suggested when the bot is
// added as an administrator. Nil rights clear the suggestion.
func (c *Client) SetMyDefaultAdministratorRights(ctx context.Context, rights *ChatAdministratorRights, forChannels bool) error {
	params := map[string]any{"for_channels": forChannels}
	if rights != nil {
		params["rights"] = rights
	}
	_, err := call[bool](ctx, c, "setMyDefaultAdministratorRights", params)
	return err
}

// GetMyDefaultAdministratorRights returns the suggested administrator rights.
func (c *Client) GetMyDefaultAdministratorRights(ctx context.Context, forChannels bool) (*ChatAdministratorRights, error) {
	return call[*ChatAdministratorRights](ctx, c, "getMyDefaultAdministratorRights", map[string]any{"for_channels": forChannels})
}
