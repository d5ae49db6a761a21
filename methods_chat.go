package botkit

import (
	"context"
	"time"
)

// GetFile returns download information for a file. The link is valid for an hour.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	return call[*File](ctx, c, "getFile", map[string]string{"file_id": fileID})
}

// GetUserProfilePhotosParams are the parameters of getUserProfilePhotos.
type GetUserProfilePhotosParams struct {
	UserID int64 `json:"user_id"`
	Offset int   `json:"offset,omitempty"`
	Limit  int   `json:"limit,omitempty"`
}

// GetUserProfilePhotos lists a user's profile pictures.
func (c *Client) GetUserProfilePhotos(ctx context.Context, p *GetUserProfilePhotosParams) (*UserProfilePhotos, error) {
	return call[*UserProfilePhotos](ctx, c, "getUserProfilePhotos", p)
}

// BanChatMemberParams are the parameters of banChatMember.
type BanChatMemberParams struct {
	ChatID         ChatID `json:"chat_id"`
	UserID         int64  `json:"user_id"`
	UntilDate      int64  `json:"until_date,omitempty"`
	RevokeMessages bool   `json:"revoke_messages,omitempty"`
}

// BanChatMember bans a user. Bans shorter than 30 seconds or longer than
// 366 days are permanent.
func (c *Client) BanChatMember(ctx context.Context, p *BanChatMemberParams) error {
	_, err := call[bool](ctx, c, "banChatMember", p)
	return err
}

// UnbanChatMember lifts a ban. With onlyIfBanned a current member is not kicked.
func (c *Client) UnbanChatMember(ctx context.Context, chatID ChatID, userID int64, onlyIfBanned bool) error {
	_, err := call[bool](ctx, c, "unbanChatMember", map[string]any{
		"chat_id":        chatID,
		"user_id":        userID,
		"only_if_banned": onlyIfBanned,
	})
	return err
}

// RestrictChatMemberParams are the parameters of restrictChatMember.
type RestrictChatMemberParams struct {
	ChatID                        ChatID          `json:"chat_id"`
	UserID                        int64           `json:"user_id"`
	Permissions                   ChatPermissions `json:"permissions"`
	UseIndependentChatPermissions bool            `json:"use_independent_chat_permissions,omitempty"`
	UntilDate                     int64           `json:"until_date,omitempty"`
}

// RestrictChatMember changes a supergroup member's permissions.
func (c *Client) RestrictChatMember(ctx context.Context, p *RestrictChatMemberParams) error {
	_, err := call[bool](ctx, c, "restrictChatMember", p)
	return err
}

// PromoteChatMemberParams are the parameters of promoteChatMember.
type PromoteChatMemberParams struct {
	ChatID ChatID `json:"chat_id"`
	UserID int64  `json:"user_id"`
	ChatAdministratorRights
}

// PromoteChatMember grants or revokes administrator rights.
func (c *Client) PromoteChatMember(ctx context.Context, p *PromoteChatMemberParams) error {
	_, err := call[bool](ctx, c, "promoteChatMember", p)
	return err
}

// SetChatAdministratorCustomTitle sets an administrator's title in a supergroup.
func (c *Client) SetChatAdministratorCustomTitle(ctx context.Context, chatID ChatID, userID int64, title string) error {
	_, err := call[bool](ctx, c, "setChatAdministratorCustomTitle", map[string]any{
		"chat_id":      chatID,
		"user_id":      userID,
		"custom_title": title,
	})
	return err
}

// BanChatSenderChat bans a channel chat from posting in a group.
func (c *Client) BanChatSenderChat(ctx context.Context, chatID ChatID, senderChatID int64) error {
	_, err := call[bool](ctx, c, "banChatSenderChat", map[string]any{"chat_id": chatID, "sender_chat_id": senderChatID})
	return err
}

// UnbanChatSenderChat lifts a sender chat ban.
func (c *Client) UnbanChatSenderChat(ctx context.Context, chatID ChatID, senderChatID int64) error {
	_, err := call[bool](ctx, c, "unbanChatSenderChat", map[string]any{"chat_id": chatID, "sender_chat_id": senderChatID})
	return err
}

// SetChatPermissionsParams are the parameters of setChatPermissions.
type SetChatPermissionsParams struct {
	ChatID                        ChatID          `json:"chat_id"`
	Permissions                   ChatPermissions `json:"permissions"`
	UseIndependentChatPermissions bool            `json:"use_independent_chat_permissions,omitempty"`
}

// SetChatPermissions sets the default permissions of all members.
func (c *Client) SetChatPermissions(ctx context.Context, p *SetChatPermissionsParams) error {
	_, err := call[bool](ctx, c, "setChatPermissions", p)
	return err
}

// ExportChatInviteLink generates a new primary invite link, revoking the old one.
func (c *Client) ExportChatInviteLink(ctx context.Context, chatID ChatID) (string, error) {
	return call[string](ctx, c, "exportChatInviteLink", map[string]any{"chat_id": chatID})
}

// ChatInviteLinkParams are the parameters of createChatInviteLink and
// editChatInviteLink. InviteLink is only used when editing.
type ChatInviteLinkParams struct {
	ChatID             ChatID `json:"chat_id"`
	InviteLink         string `json:"invite_link,omitempty"`
	Name               string `json:"name,omitempty"`
	ExpireDate         int64  `json:"expire_date,omitempty"`
	MemberLimit        int    `json:"member_limit,omitempty"`
	CreatesJoinRequest bool   `json:"creates_join_request,omitempty"`
}

// ExpireIn sets ExpireDate relative to now.
func (p *ChatInviteLinkParams) ExpireIn(d time.Duration) *ChatInviteLinkParams {
	p.ExpireDate = time.Now().Add(d).Unix()
	return p
}

// CreateChatInviteLink creates an additional invite link.
func (c *Client) CreateChatInviteLink(ctx context.Context, p *ChatInviteLinkParams) (*ChatInviteLink, error) {
	return call[*ChatInviteLink](ctx, c, "createChatInviteLink", p)
}

// EditChatInviteLink edits a link created by the bot.
func (c *Client) EditChatInviteLink(ctx context.Context, p *ChatInviteLinkParams) (*ChatInviteLink, error) {
	return call[*ChatInviteLink](ctx, c, "editChatInviteLink", p)
}

// RevokeChatInviteLink revokes a link created by the bot.
func (c *Client) RevokeChatInviteLink(ctx context.Context, chatID ChatID, link string) (*ChatInviteLink, error) {
	return call[*ChatInviteLink](ctx, c, "revokeChatInviteLink", map[string]any{"chat_id": chatID, "invite_link": link})
}

// ApproveChatJoinRequest approves a join request.
func (c *Client) ApproveChatJoinRequest(ctx context.Context, chatID ChatID, userID int64) error {
	_, err := call[bool](ctx, c, "approveChatJoinRequest", map[string]any{"chat_id": chatID, "user_id": userID})
	return err
}

// DeclineChatJoinRequest declines a join request.
func (c *Client) DeclineChatJoinRequest(ctx context.Context, chatID ChatID, userID int64) error {
	_, err := call[bool](ctx, c, "declineChatJoinRequest", map[string]any{"chat_id": chatID, "user_id": userID})
	return err
}

type setChatPhotoParams struct {
	ChatID ChatID     `json:"chat_id"`
	Photo  *InputFile `json:"photo"`
}

func (p *setChatPhotoParams) uploads() []upload { return fileField("photo", p.Photo) }

// SetChatPhoto sets a new chat photo. The photo must be uploaded.
func (c *Client) SetChatPhoto(ctx context.Context, chatID ChatID, photo *InputFile) error {
	_, err := call[bool](ctx, c, "setChatPhoto", &setChatPhotoParams{ChatID: chatID, Photo: photo})
	return err
}

// DeleteChatPhoto removes the chat photo.
func (c *Client) DeleteChatPhoto(ctx context.Context, chatID ChatID) error {
	_, err := call[bool](ctx, c, "deleteChatPhoto", map[string]any{"chat_id": chatID})
	return err
}

// SetChatTitle changes the chat title.
func (c *Client) SetChatTitle(ctx context.Context, chatID ChatID, title string) error {
	_, err := call[bool](ctx, c, "setChatTitle", map[string]any{"chat_id": chatID, "title": title})
	return err
}

// SetChatDescription changes the chat description.
func (c *Client) SetChatDescription(ctx context.Context, chatID ChatID, description string) error {
	_, err := call[bool](ctx, c, "setChatDescription", map[string]any{"chat_id": chatID, "description": description})
	return err
}

// PinChatMessage pins a message.
func (c *Client) PinChatMessage(ctx context.Context, chatID ChatID, messageID int, disableNotification bool) error {
	_, err := call[bool](ctx, c, "pinChatMessage", map[string]any{
		"chat_id":              chatID,
		"message_id":           messageID,
		"disable_notification": disableNotification,
	})
	return err
}

// UnpinChatMessage unpins a message, or the most recent pin when messageID is 0.
func (c *Client) UnpinChatMessage(ctx context.Context, chatID ChatID, messageID int) error {
	params := map[string]any{"chat_id": chatID}
	if messageID != 0 {
		params["message_id"] = messageID
	}
	_, err := call[bool](ctx, c, "unpinChatMessage", params)
	return err
}

// UnpinAllChatMessages clears the pinned message list.
func (c *Client) UnpinAllChatMessages(ctx context.Context, chatID ChatID) error {
	_, err := call[bool](ctx, c, "unpinAllChatMessages", map[string]any{"chat_id": chatID})
	return err
}

// LeaveChat makes the bot leave a group, supergroup or channel.
func (c *Client) LeaveChat(ctx context.Context, chatID ChatID) error {
	_, err := call[bool](ctx, c, "leaveChat", map[string]any{"chat_id": chatID})
	return err
}

// GetChat returns up-to-date information about a chat.
func (c *Client) GetChat(ctx context.Context, chatID ChatID) (*Chat, error) {
	return call[*Chat](ctx, c, "getChat", map[string]any{"chat_id": chatID})
}

// GetChatAdministrators lists the chat's administrators other than bots.
func (c *Client) GetChatAdministrators(ctx context.Context, chatID ChatID) ([]ChatMember, error) {
	raw, err := call[[]chatMemberJSON](ctx, c, "getChatAdministrators", map[string]any{"chat_id": chatID})
	if err != nil {
		return nil, err
	}
	members := make([]ChatMember, len(raw))
	for i, m := range raw {
		members[i] = m.ChatMember
	}
	return members, nil
}

// GetChatMemberCount returns the number of members in a chat.
func (c *Client) GetChatMemberCount(ctx context.Context, chatID ChatID) (int, error) {
	return call[int](ctx, c, "getChatMemberCount", map[string]any{"chat_id": chatID})
}

// GetChatMember returns a member's status in a chat.
func (c *Client) GetChatMember(ctx context.Context, chatID ChatID, userID int64) (ChatMember, error) {
	m, err := call[chatMemberJSON](ctx, c, "getChatMember", map[string]any{"chat_id": chatID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	return m.ChatMember, nil
}

// SetChatStickerSet sets the group sticker set of a supergroup.
func (c *Client) SetChatStickerSet(ctx context.Context, chatID ChatID, name string) error {
	_, err := call[bool](ctx, c, "setChatStickerSet", map[string]any{"chat_id": chatID, "sticker_set_name": name})
	return err
}

// DeleteChatStickerSet removes the group sticker set.
func (c *Client) DeleteChatStickerSet(ctx context.Context, chatID ChatID) error {
	_, err := call[bool](ctx, c, "deleteChatStickerSet", map[string]any{"chat_id": chatID})
	return err
}
