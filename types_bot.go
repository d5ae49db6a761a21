package botkit

import (
	"encoding/json"
	"fmt"
)

// BotCommand is a command shown in the bot's menu.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// BotName is the result of getMyName.
type BotName struct {
	Name string `json:"name"`
}

// BotDescription is the result of getMyDescription.
type BotDescription struct {
	Description string `json:"description"`
}

// BotShortDescription is the result of getMyShortDescription.
type BotShortDescription struct {
	ShortDescription string `json:"short_description"`
}

// LinkPreviewOptions controls link preview generation.
type LinkPreviewOptions struct {
	IsDisabled       bool   `json:"is_disabled,omitempty"`
	URL              string `json:"url,omitempty"`
	PreferSmallMedia bool   `json:"prefer_small_media,omitempty"`
	PreferLargeMedia bool   `json:"prefer_large_media,omitempty"`
	ShowAboveText    bool   `json:"show_above_text,omitempty"`
}

// Menu button types.
const (
	MenuButtonTypeCommands = "commands"
	MenuButtonTypeWebApp   = "web_app"
	MenuButtonTypeDefault  = "default"
)

// MenuButton is the bot's menu button in a private chat:
// MenuButtonCommands, MenuButtonWebApp or MenuButtonDefault.
type MenuButton interface {
	ButtonType() string
}

// MenuButtonCommands opens the list of bot commands.
type MenuButtonCommands struct{}

// MenuButtonWebApp launches a Web App.
type MenuButtonWebApp struct {
	Text   string     `json:"text"`
	WebApp WebAppInfo `json:"web_app"`
}

// MenuButtonDefault leaves the choice to Telegram.
type MenuButtonDefault struct{}

func (MenuButtonCommands) ButtonType() string { return MenuButtonTypeCommands }
func (MenuButtonWebApp) ButtonType() string   { return MenuButtonTypeWebApp }
func (MenuButtonDefault) ButtonType() string  { return MenuButtonTypeDefault }

func (b MenuButtonCommands) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", b.ButtonType(), struct{}{})
}

func (b MenuButtonWebApp) MarshalJSON() ([]byte, error) {
	type plain MenuButtonWebApp
	return marshalTagged("type", b.ButtonType(), plain(b))
}

func (b MenuButtonDefault) MarshalJSON() ([]byte, error) {
	return marshalTagged("type", b.ButtonType(), struct{}{})
}

// UnmarshalMenuButton decodes a MenuButton by its type field.
func UnmarshalMenuButton(data []byte) (MenuButton, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case MenuButtonTypeCommands:
		return MenuButtonCommands{}, nil
	case MenuButtonTypeDefault:
		return MenuButtonDefault{}, nil
	case MenuButtonTypeWebApp:
		var b MenuButtonWebApp
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("botkit: unknown menu button type %q", probe.Type)
}
