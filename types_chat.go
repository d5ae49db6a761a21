package botkit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Chat types.
const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
	ChatTypeSender     = "sender"
)

// User represents a Telegram user or bot.
type User struct {
	ID                      int64  `json:"id"`
	IsBot                   bool   `json:"is_bot"`
	FirstName               string `json:"first_name"`
	LastName                string `json:"last_name,omitempty"`
	Username                string `json:"username,omitempty"`
	LanguageCode            string `json:"language_code,omitempty"`
	IsPremium               bool   `json:"is_premium,omitempty"`
	AddedToAttachmentMenu   bool   `json:"added_to_attachment_menu,omitempty"`
	CanJoinGroups           bool   `json:"can_join_groups,omitempty"`
	CanReadAllGroupMessages bool   `json:"can_read_all_group_messages,omitempty"`
	SupportsInlineQueries   bool   `json:"supports_inline_queries,omitempty"`
}

// Equal reports whether both values describe the same user.
func (u *User) Equal(o *User) bool {
	return u != nil && o != nil && u.ID == o.ID
}

// FullName joins the first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Name returns @username when set, otherwise the full name.
func (u *User) Name() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FullName()
}

// Link returns the t.me link for users with a username.
func (u *User) Link() string {
	if u.Username == "" {
		return ""
	}
	return "https://t.me/" + u.Username
}

// MentionHTML returns an HTML inline mention of the user.
func (u *User) MentionHTML(name string) string {
	if name == "" {
		name = u.FullName()
	}
	return MentionHTML(u.ID, name)
}

// Chat represents a chat.
type Chat struct {
	ID                  int64            `json:"id"`
	Type                string           `json:"type"`
	Title               string           `json:"title,omitempty"`
	Username            string           `json:"username,omitempty"`
	FirstName           string           `json:"first_name,omitempty"`
	LastName            string           `json:"last_name,omitempty"`
	IsForum             bool             `json:"is_forum,omitempty"`
	Photo               *ChatPhoto       `json:"photo,omitempty"`
	ActiveUsernames     []string         `json:"active_usernames,omitempty"`
	Bio                 string           `json:"bio,omitempty"`
	Description         string           `json:"description,omitempty"`
	InviteLink          string           `json:"invite_link,omitempty"`
	PinnedMessage       *Message         `json:"pinned_message,omitempty"`
	Permissions         *ChatPermissions `json:"permissions,omitempty"`
	SlowModeDelay       int              `json:"slow_mode_delay,omitempty"`
	MessageAutoDelete   int              `json:"message_auto_delete_time,omitempty"`
	HasProtectedContent bool             `json:"has_protected_content,omitempty"`
	StickerSetName      string           `json:"sticker_set_name,omitempty"`
	CanSetStickerSet    bool             `json:"can_set_sticker_set,omitempty"`
	LinkedChatID        int64            `json:"linked_chat_id,omitempty"`
	Location            *ChatLocation    `json:"location,omitempty"`
}

// Equal reports whether both values describe the same chat.
func (c *Chat) Equal(o *Chat) bool {
	return c != nil && o != nil && c.ID == o.ID
}

// IsPrivate reports whether the chat is a one-to-one chat.
func (c *Chat) IsPrivate() bool { return c.Type == ChatTypePrivate }

// IsGroup reports whether the chat is a basic group or a supergroup.
func (c *Chat) IsGroup() bool { return c.Type == ChatTypeGroup || c.Type == ChatTypeSupergroup }

// IsChannel reports whether the chat is a channel.
func (c *Chat) IsChannel() bool { return c.Type == ChatTypeChannel }

// EffectiveName is the title for groups and channels, the full name for users.
func (c *Chat) EffectiveName() string {
	if c.Title != "" {
		return c.Title
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Link returns the t.me link for chats with a username.
func (c *Chat) Link() string {
	if c.Username == "" {
		return ""
	}
	return "https://t.me/" + c.Username
}

// ChatPhoto holds chat photo file identifiers.
type ChatPhoto struct {
	SmallFileID       string `json:"small_file_id"`
	SmallFileUniqueID string `json:"small_file_unique_id"`
	BigFileID         string `json:"big_file_id"`
	BigFileUniqueID   string `json:"big_file_unique_id"`
}

// ChatLocation is the location a supergroup is connected to.
type ChatLocation struct {
	Location Location `json:"location"`
	Address  string   `json:"address"`
}

// ChatPermissions describes actions a non-administrator may take.
type ChatPermissions struct {
	CanSendMessages       *bool `json:"can_send_messages,omitempty"`
	CanSendAudios         *bool `json:"can_send_audios,omitempty"`
	CanSendDocuments      *bool `json:"can_send_documents,omitempty"`
	CanSendPhotos         *bool `json:"can_send_photos,omitempty"`
	CanSendVideos         *bool `json:"can_send_videos,omitempty"`
	CanSendVideoNotes     *bool `json:"can_send_video_notes,omitempty"`
	CanSendVoiceNotes     *bool `json:"can_send_voice_notes,omitempty"`
	CanSendPolls          *bool `json:"can_send_polls,omitempty"`
	CanSendOtherMessages  *bool `json:"can_send_other_messages,omitempty"`
	CanAddWebPagePreviews *bool `json:"can_add_web_page_previews,omitempty"`
	CanChangeInfo         *bool `json:"can_change_info,omitempty"`
	CanInviteUsers        *bool `json:"can_invite_users,omitempty"`
	CanPinMessages        *bool `json:"can_pin_messages,omitempty"`
	CanManageTopics       *bool `json:"can_manage_topics,omitempty"`
}

// ChatAdministratorRights describes administrator privileges.
type ChatAdministratorRights struct {
	IsAnonymous         bool `json:"is_anonymous"`
	CanManageChat       bool `json:"can_manage_chat"`
	CanDeleteMessages   bool `json:"can_delete_messages"`
	CanManageVideoChats bool `json:"can_manage_video_chats"`
	CanRestrictMembers  bool `json:"can_restrict_members"`
	CanPromoteMembers   bool `json:"can_promote_members"`
	CanChangeInfo       bool `json:"can_change_info"`
	CanInviteUsers      bool `json:"can_invite_users"`
	CanPostMessages     bool `json:"can_post_messages,omitempty"`
	CanEditMessages     bool `json:"can_edit_messages,omitempty"`
	CanPinMessages      bool `json:"can_pin_messages,omitempty"`
	CanManageTopics     bool `json:"can_manage_topics,omitempty"`
}

// ChatInviteLink is an invite link for a chat.
type ChatInviteLink struct {
	InviteLink              string `json:"invite_link"`
	Creator                 User   `json:"creator"`
	CreatesJoinRequest      bool   `json:"creates_join_request"`
	IsPrimary               bool   `json:"is_primary"`
	IsRevoked               bool   `json:"is_revoked"`
	Name                    string `json:"name,omitempty"`
	ExpireDate              int64  `json:"expire_date,omitempty"`
	MemberLimit             int    `json:"member_limit,omitempty"`
	PendingJoinRequestCount int    `json:"pending_join_request_count,omitempty"`
}

// ChatJoinRequest is a request to join a chat.
type ChatJoinRequest struct {
	Chat       Chat            `json:"chat"`
	From       User            `json:"from"`
	UserChatID int64           `json:"user_chat_id"`
	Date       int64           `json:"date"`
	Bio        string          `json:"bio,omitempty"`
	InviteLink *ChatInviteLink `json:"invite_link,omitempty"`
}

// Chat member statuses.
const (
	MemberStatusCreator       = "creator"
	MemberStatusAdministrator = "administrator"
	MemberStatusMember        = "member"
	MemberStatusRestricted    = "restricted"
	MemberStatusLeft          = "left"
	MemberStatusKicked        = "kicked"
)

// ChatMember is one of ChatMemberOwner, ChatMemberAdministrator,
// ChatMemberMember, ChatMemberRestricted, ChatMemberLeft, ChatMemberBanned.
type ChatMember interface {
	MemberStatus() string
	MemberUser() User
}

// ChatMemberOwner is the chat creator.
type ChatMemberOwner struct {
	User        User   `json:"user"`
	IsAnonymous bool   `json:"is_anonymous"`
	CustomTitle string `json:"custom_title,omitempty"`
}

// ChatMemberAdministrator is a chat administrator.
type ChatMemberAdministrator struct {
	User        User `json:"user"`
	CanBeEdited bool `json:"can_be_edited"`
	ChatAdministratorRights
	CustomTitle string `json:"custom_title,omitempty"`
}

// ChatMemberMember is a regular member.
type ChatMemberMember struct {
	User      User  `json:"user"`
	UntilDate int64 `json:"until_date,omitempty"`
}

// ChatMemberRestricted is a member with restrictions.
type ChatMemberRestricted struct {
	User     User `json:"user"`
	IsMember bool `json:"is_member"`
	ChatPermissions
	UntilDate int64 `json:"until_date"`
}

// ChatMemberLeft is a user who is not a member.
type ChatMemberLeft struct {
	User User `json:"user"`
}

// ChatMemberBanned is a banned user.
type ChatMemberBanned struct {
	User      User  `json:"user"`
	UntilDate int64 `json:"until_date"`
}

func (ChatMemberOwner) MemberStatus() string         { return MemberStatusCreator }
func (ChatMemberAdministrator) MemberStatus() string { return MemberStatusAdministrator }
func (ChatMemberMember) MemberStatus() string        { return MemberStatusMember }
func (ChatMemberRestricted) MemberStatus() string    { return MemberStatusRestricted }
func (ChatMemberLeft) MemberStatus() string          { return MemberStatusLeft }
func (ChatMemberBanned) MemberStatus() string        { return MemberStatusKicked }

func (m ChatMemberOwner) MemberUser() User         { return m.User }
func (m ChatMemberAdministrator) MemberUser() User { return m.User }
func (m ChatMemberMember) MemberUser() User        { return m.User }
func (m ChatMemberRestricted) MemberUser() User    { return m.User }
func (m ChatMemberLeft) MemberUser() User          { return m.User }
func (m ChatMemberBanned) MemberUser() User        { return m.User }

func marshalWithStatus(status string, v any) ([]byte, error) {
	return marshalTagged("status", status, v)
}

func (m ChatMemberOwner) MarshalJSON() ([]byte, error) {
	type plain ChatMemberOwner
	return marshalWithStatus(m.MemberStatus(), plain(m))
}

func (m ChatMemberAdministrator) MarshalJSON() ([]byte, error) {
	type plain ChatMemberAdministrator
	return marshalWithStatus(m.MemberStatus(), plain(m))
}

func (m ChatMemberMember) MarshalJSON() ([]byte, error) {
	type plain ChatMemberMember
	return marshalWithStatus(m.MemberStatus(), plain(m))
}

func (m ChatMemberRestricted) MarshalJSON() ([]byte, error) {
	type plain ChatMemberRestricted
	return marshalWithStatus(m.MemberStatus(), plain(m))
}

func (m ChatMemberLeft) MarshalJSON() ([]byte, error) {
	type plain ChatMemberLeft
	return marshalWithStatus(m.MemberStatus(), plain(m))
}

func (m ChatMemberBanned) MarshalJSON() ([]byte, error) {
	type plain ChatMemberBanned
	return marshalWithStatus(m.MemberStatus(), plain(m))
}

// UnmarshalChatMember decodes a ChatMember by its status field.
func UnmarshalChatMember(data []byte) (ChatMember, error) {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	var m ChatMember
	var err error
	switch probe.Status {
	case MemberStatusCreator:
		var v ChatMemberOwner
		err = json.Unmarshal(data, &v)
		m = v
	case MemberStatusAdministrator:
		var v ChatMemberAdministrator
		err = json.Unmarshal(data, &v)
		m = v
	case MemberStatusMember:
		var v ChatMemberMember
		err = json.Unmarshal(data, &v)
		m = v
	case MemberStatusRestricted:
		var v ChatMemberRestricted
		err = json.Unmarshal(data, &v)
		m = v
	case MemberStatusLeft:
		var v ChatMemberLeft
		err = json.Unmarshal(data, &v)
		m = v
	case MemberStatusKicked:
		var v ChatMemberBanned
		err = json.Unmarshal(data, &v)
		m = v
	default:
		return nil, fmt.Errorf("botkit: unknown chat member status %q", probe.Status)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// chatMemberJSON decodes a ChatMember field inside another object.
type chatMemberJSON struct {
	ChatMember
}

func (c *chatMemberJSON) UnmarshalJSON(data []byte) error {
	m, err := UnmarshalChatMember(data)
	if err != nil {
		return err
	}
	c.ChatMember = m
	return nil
}

func (c chatMemberJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ChatMember)
}

// ChatMemberUpdated describes a change of a chat member's status.
type ChatMemberUpdated struct {
	Chat          Chat            `json:"chat"`
	From          User            `json:"from"`
	Date          int64           `json:"date"`
	OldChatMember ChatMember      `json:"-"`
	NewChatMember ChatMember      `json:"-"`
	InviteLink    *ChatInviteLink `json:"invite_link,omitempty"`
	ViaChatFolder bool            `json:"via_chat_folder_invite_link,omitempty"`
}

type chatMemberUpdatedJSON struct {
	Chat          Chat            `json:"chat"`
	From          User            `json:"from"`
	Date          int64           `json:"date"`
	OldChatMember chatMemberJSON  `json:"old_chat_member"`
	NewChatMember chatMemberJSON  `json:"new_chat_member"`
	InviteLink    *ChatInviteLink `json:"invite_link,omitempty"`
	ViaChatFolder bool            `json:"via_chat_folder_invite_link,omitempty"`
}

func (c *ChatMemberUpdated) UnmarshalJSON(data []byte) error {
	var raw chatMemberUpdatedJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ChatMemberUpdated{
		Chat:          raw.Chat,
		From:          raw.From,
		Date:          raw.Date,
		OldChatMember: raw.OldChatMember.ChatMember,
		NewChatMember: raw.NewChatMember.ChatMember,
		InviteLink:    raw.InviteLink,
		ViaChatFolder: raw.ViaChatFolder,
	}
	return nil
}

func (c ChatMemberUpdated) MarshalJSON() ([]byte, error) {
	return json.Marshal(chatMemberUpdatedJSON{
		Chat:          c.Chat,
		From:          c.From,
		Date:          c.Date,
		OldChatMember: chatMemberJSON{c.OldChatMember},
		NewChatMember: chatMemberJSON{c.NewChatMember},
		InviteLink:    c.InviteLink,
		ViaChatFolder: c.ViaChatFolder,
	})
}

// StatusChange reports whether the user was a member before and is one after.
// Owners, administrators, members and restricted users that are still members count.
func (c *ChatMemberUpdated) StatusChange() (wasMember, isMember bool) {
	return isChatMember(c.OldChatMember), isChatMember(c.NewChatMember)
}

func isChatMember(m ChatMember) bool {
	switch v := m.(type) {
	case ChatMemberOwner, ChatMemberAdministrator, ChatMemberMember:
		return true
	case ChatMemberRestricted:
		return v.IsMember
	}
	return false
}
