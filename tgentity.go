package botkit

import (
	"strconv"

	"github.com/gotd/td/tg"
)

// EntitiesToTG converts Bot API entities into their MTProto counterparts.
// Unknown entity types become tg.MessageEntityUnknown.
func EntitiesToTG(entities []MessageEntity) []tg.MessageEntityClass {
	if len(entities) == 0 {
		return nil
	}
	out := make([]tg.MessageEntityClass, 0, len(entities))
	for _, e := range entities {
		off, n := e.Offset, e.Length
		var ent tg.MessageEntityClass
		switch e.Type {
		case EntityBold:
			ent = &tg.MessageEntityBold{Offset: off, Length: n}
		case EntityItalic:
			ent = &tg.MessageEntityItalic{Offset: off, Length: n}
		case EntityUnderline:
			ent = &tg.MessageEntityUnderline{Offset: off, Length: n}
		case EntityStrikethrough:
			ent = &tg.MessageEntityStrike{Offset: off, Length: n}
		case EntitySpoiler:
			ent = &tg.MessageEntitySpoiler{Offset: off, Length: n}
		case EntityCode:
			ent = &tg.MessageEntityCode{Offset: off, Length: n}
		case EntityPre:
			ent = &tg.MessageEntityPre{Offset: off, Length: n, Language: e.Language}
		case EntityBlockquote:
			ent = &tg.MessageEntityBlockquote{Offset: off, Length: n}
		case EntityExpandable:
			ent = &tg.MessageEntityBlockquote{Offset: off, Length: n, Collapsed: true}
		case EntityTextLink:
			ent = &tg.MessageEntityTextURL{Offset: off, Length: n, URL: e.URL}
		case EntityTextMention:
			var id int64
			if e.User != nil {
				id = e.User.ID
			}
			ent = &tg.MessageEntityMentionName{Offset: off, Length: n, UserID: id}
		case EntityCustomEmoji:
			id, _ := strconv.ParseInt(e.CustomEmojiID, 10, 64)
			ent = &tg.MessageEntityCustomEmoji{Offset: off, Length: n, DocumentID: id}
		case EntityMention:
			ent = &tg.MessageEntityMention{Offset: off, Length: n}
		case EntityHashtag:
			ent = &tg.MessageEntityHashtag{Offset: off, Length: n}
		case EntityCashtag:
			ent = &tg.MessageEntityCashtag{Offset: off, Length: n}
		case EntityBotCommand:
			ent = &tg.MessageEntityBotCommand{Offset: off, Length: n}
		case EntityURL:
			ent = &tg.MessageEntityURL{Offset: off, Length: n}
		case EntityEmail:
			ent = &tg.MessageEntityEmail{Offset: off, Length: n}
		case EntityPhoneNumber:
			ent = &tg.MessageEntityPhone{Offset: off, Length: n}
		default:
			ent = &tg.MessageEntityUnknown{Offset: off, Length: n}
		}
		out = append(out, ent)
	}
	return out
}

// EntitiesFromTG converts MTProto entities into Bot API entities.
// Entity kinds without a Bot API equivalent are skipped.
func EntitiesFromTG(entities []tg.MessageEntityClass) []MessageEntity {
	var out []MessageEntity
	for _, entity := range entities {
		var e MessageEntity
		switch v := entity.(type) {
		case *tg.MessageEntityBold:
			e = MessageEntity{Type: EntityBold, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityItalic:
			e = MessageEntity{Type: EntityItalic, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityUnderline:
			e = MessageEntity{Type: EntityUnderline, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityStrike:
			e = MessageEntity{Type: EntityStrikethrough, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntitySpoiler:
			e = MessageEntity{Type: EntitySpoiler, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityCode:
			e = MessageEntity{Type: EntityCode, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityPre:
			e = MessageEntity{Type: EntityPre, Offset: v.Offset, Length: v.Length, Language: v.Language}
		case *tg.MessageEntityBlockquote:
			e = MessageEntity{Type: EntityBlockquote, Offset: v.Offset, Length: v.Length}
			if v.Collapsed {
				e.Type = EntityExpandable
			}
		case *tg.MessageEntityTextURL:
			e = MessageEntity{Type: EntityTextLink, Offset: v.Offset, Length: v.Length, URL: v.URL}
		case *tg.MessageEntityMentionName:
			e = MessageEntity{Type: EntityTextMention, Offset: v.Offset, Length: v.Length, User: &User{ID: v.UserID}}
		case *tg.MessageEntityCustomEmoji:
			e = MessageEntity{Type: EntityCustomEmoji, Offset: v.Offset, Length: v.Length,
				CustomEmojiID: strconv.FormatInt(v.DocumentID, 10)}
		case *tg.MessageEntityMention:
			e = MessageEntity{Type: EntityMention, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityHashtag:
			e = MessageEntity{Type: EntityHashtag, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityCashtag:
			e = MessageEntity{Type: EntityCashtag, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityBotCommand:
			e = MessageEntity{Type: EntityBotCommand, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityURL:
			e = MessageEntity{Type: EntityURL, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityEmail:
			e = MessageEntity{Type: EntityEmail, Offset: v.Offset, Length: v.Length}
		case *tg.MessageEntityPhone:
			e = MessageEntity{Type: EntityPhoneNumber, Offset: v.Offset, Length: v.Length}
		default:
			continue
		}
		out = append(out, e)
	}
	return out
}
