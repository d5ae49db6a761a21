package botkit

import (
	"cmp"
	"html"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/gotd/td/tg"
)

// UTF16Len returns the length of s in UTF-16 code units, the unit Telegram
// uses for entity offsets and lengths.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// utf16Offset returns the byte index in s of UTF-16 unit n. A unit inside a
// surrogate pair maps to the start of that character; n past the end maps to len(s).
func utf16Offset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	units := 0
	for i, r := range s {
		w := runeUnits(r)
		if units+w > n {
			return i
		}
		units += w
	}
	return len(s)
}

// ParseEntity returns the part of text covered by e.
// Entities reaching past the end of text are clamped.
func ParseEntity(text string, e MessageEntity) string {
	if e.Offset < 0 || e.Length < 0 {
		return ""
	}
	start := utf16Offset(text, e.Offset)
	end := utf16Offset(text, e.Offset+e.Length)
	return text[start:end]
}

// ParsedEntity is an entity together with the text it covers.
type ParsedEntity struct {
	Entity MessageEntity
	Text   string
}

func parseEntities(text string, entities []MessageEntity, types []string) []ParsedEntity {
	var out []ParsedEntity
	for _, e := range entities {
		if len(types) > 0 && !slices.Contains(types, e.Type) {
			continue
		}
		out = append(out, ParsedEntity{Entity: e, Text: ParseEntity(text, e)})
	}
	return out
}

// ParseEntity returns the part of the message text covered by e.
func (m *Message) ParseEntity(e MessageEntity) string {
	return ParseEntity(m.Text, e)
}

// ParseEntities returns text entities of the given types, or all of them
// when no type is given.
func (m *Message) ParseEntities(types ...string) []ParsedEntity {
	return parseEntities(m.Text, m.Entities, types)
}

// ParseCaptionEntity returns the part of the caption covered by e.
func (m *Message) ParseCaptionEntity(e MessageEntity) string {
	return ParseEntity(m.Caption, e)
}

// ParseCaptionEntities returns caption entities of the given types, or all
// of them when no type is given.
func (m *Message) ParseCaptionEntities(types ...string) []ParsedEntity {
	return parseEntities(m.Caption, m.CaptionEntities, types)
}

// AdjustEntitiesToUTF16 converts entities whose offsets and lengths count
// Unicode code points into UTF-16 code units. Ranges past the end of text are clamped.
func AdjustEntitiesToUTF16(text string, entities []MessageEntity) []MessageEntity {
	// prefix[i] is the UTF-16 length of the first i code points.
	runes := []rune(text)
	prefix := make([]int, len(runes)+1)
	for i, r := range runes {
		prefix[i+1] = prefix[i] + runeUnits(r)
	}
	at := func(i int) int {
		return prefix[max(0, min(i, len(runes)))]
	}

	out := make([]MessageEntity, len(entities))
	for i, e := range entities {
		start := at(e.Offset)
		end := at(e.Offset + e.Length)
		e.Offset, e.Length = start, end-start
		out[i] = e
	}
	return out
}

// ShiftEntities returns copies of entities moved by the given number of UTF-16 units.
func ShiftEntities(by int, entities []MessageEntity) []MessageEntity {
	out := make([]MessageEntity, len(entities))
	for i, e := range entities {
		e.Offset += by
		out[i] = e
	}
	return out
}

// TextWithEntities is a piece of formatted text.
type TextWithEntities struct {
	Text     string
	Entities []MessageEntity
}

// ConcatEntities joins texts and shifts every part's entities by the UTF-16
// length of the text before it.
func ConcatEntities(parts ...TextWithEntities) (string, []MessageEntity) {
	var b strings.Builder
	var entities []MessageEntity
	offset := 0
	for _, p := range parts {
		b.WriteString(p.Text)
		entities = append(entities, ShiftEntities(offset, p.Entities)...)
		offset += UTF16Len(p.Text)
	}
	return b.String(), entities
}

// TextHTML renders the message text with its entities as Telegram HTML.
func (m *Message) TextHTML() string {
	return EntitiesToHTML(m.Text, EntitiesToTG(m.Entities))
}

// CaptionHTML renders the caption with its entities as Telegram HTML.
func (m *Message) CaptionHTML() string {
	return EntitiesToHTML(m.Caption, EntitiesToTG(m.CaptionEntities))
}

// TextHTMLURLed is TextHTML with plain URLs and mentions turned into links.
func (m *Message) TextHTMLURLed() string {
	return EntitiesToHTMLURLed(m.Text, EntitiesToTG(m.Entities))
}

type entityInfo struct {
	offset   int
	length   int
	startTag string
	endTag   string
	id       int // unique ID for tracking in stack
}

type tagEvent struct {
	pos      int
	isStart  bool
	entity   *entityInfo
	priority int // for sorting: ends before starts at same position
}

// EntitiesToHTML converts message entities to Telegram HTML.
// Offsets are UTF-16 units. Overlapping entities are split and reopened so
// the output is always well nested.
func EntitiesToHTML(text string, entities []tg.MessageEntityClass) string {
	return renderHTML(text, entities, false)
}

// EntitiesToHTMLURLed is EntitiesToHTML that also links plain URLs and @mentions.
func EntitiesToHTMLURLed(text string, entities []tg.MessageEntityClass) string {
	return renderHTML(text, entities, true)
}

func renderHTML(text string, entities []tg.MessageEntityClass, urled bool) string {
	if len(entities) == 0 {
		return html.EscapeString(text)
	}

	units := utf16.Encode([]rune(text))
	// A boundary inside a surrogate pair moves to the start of the
	// character, as in ParseEntity.
	snap := func(i int) int {
		if i > 0 && i < len(units) && units[i] >= 0xDC00 && units[i] <= 0xDFFF {
			return i - 1
		}
		return i
	}
	slice := func(from, to int) string {
		return string(utf16.Decode(units[snap(from):snap(to)]))
	}

	var infos []*entityInfo
	for i, entity := range entities {
		var offset, length int
		var startTag, endTag string

		switch e := entity.(type) {
		case *tg.MessageEntityBold:
			offset, length = e.Offset, e.Length
			startTag, endTag = "<b>", "</b>"
		case *tg.MessageEntityItalic:
			offset, length = e.Offset, e.Length
			startTag, endTag = "<i>", "</i>"
		case *tg.MessageEntityUnderline:
			offset, length = e.Offset, e.Length
			startTag, endTag = "<u>", "</u>"
		case *tg.MessageEntityStrike:
			offset, length = e.Offset, e.Length
			startTag, endTag = "<s>", "</s>"
		case *tg.MessageEntitySpoiler:
			offset, length = e.Offset, e.Length
			startTag, endTag = "<tg-spoiler>", "</tg-spoiler>"
		case *tg.MessageEntityCode:
			offset, length = e.Offset, e.Length
			startTag, endTag = "<code>", "</code>"
		case *tg.MessageEntityPre:
			offset, length = e.Offset, e.Length
			if e.Language != "" {
				startTag = "<pre><code class=\"language-" + html.EscapeString(e.Language) + "\">"
				endTag = "</code></pre>"
			} else {
				startTag, endTag = "<pre>", "</pre>"
			}
		case *tg.MessageEntityBlockquote:
			offset, length = e.Offset, e.Length
			if e.Collapsed {
				startTag = "<blockquote expandable>"
			} else {
				startTag = "<blockquote>"
			}
			endTag = "</blockquote>"
		case *tg.MessageEntityTextURL:
			offset, length = e.Offset, e.Length
			startTag = "<a href=\"" + html.EscapeString(e.URL) + "\">"
			endTag = "</a>"
		case *tg.MessageEntityMentionName:
			offset, length = e.Offset, e.Length
			startTag = "<a href=\"tg://user?id=" + strconv.FormatInt(e.UserID, 10) + "\">"
			endTag = "</a>"
		case *tg.MessageEntityCustomEmoji:
			offset, length = e.Offset, e.Length
			startTag = "<tg-emoji emoji-id=\"" + strconv.FormatInt(e.DocumentID, 10) + "\">"
			endTag = "</tg-emoji>"
		case *tg.MessageEntityMention:
			if !urled {
				continue
			}
			offset, length = e.Offset, e.Length
			if offset < 0 || length < 0 || offset+length > len(units) {
				continue
			}
			username := strings.TrimPrefix(slice(offset, offset+length), "@")
			startTag = "<a href=\"https://t.me/" + html.EscapeString(username) + "\">"
			endTag = "</a>"
		case *tg.MessageEntityURL:
			if !urled {
				continue
			}
			offset, length = e.Offset, e.Length
			if offset < 0 || length < 0 || offset+length > len(units) {
				continue
			}
			startTag = "<a href=\"" + html.EscapeString(slice(offset, offset+length)) + "\">"
			endTag = "</a>"
		default:
			continue
		}

		if offset < 0 || length < 0 || offset+length > len(units) {
			continue
		}

		// Trim trailing whitespace from entity boundaries
		// Telegram's markdown parser often includes trailing spaces in entities
		for length > 0 && (units[offset+length-1] == ' ' || units[offset+length-1] == '\t') {
			length--
		}
		if length <= 0 {
			continue
		}

		infos = append(infos, &entityInfo{
			offset:   offset,
			length:   length,
			startTag: startTag,
			endTag:   endTag,
			id:       i,
		})
	}

	if len(infos) == 0 {
		return html.EscapeString(text)
	}

	events := make([]tagEvent, 0, 2*len(infos))
	for _, info := range infos {
		events = append(events,
			tagEvent{pos: info.offset, isStart: true, entity: info, priority: 1},
			tagEvent{pos: info.offset + info.length, isStart: false, entity: info, priority: 0},
		)
	}

	// Longer entities open first and close last so they wrap shorter ones.
	slices.SortFunc(events, func(a, b tagEvent) int {
		if c := cmp.Compare(a.pos, b.pos); c != 0 {
			return c
		}
		if c := cmp.Compare(a.priority, b.priority); c != 0 {
			return c
		}
		if a.isStart {
			return cmp.Compare(b.entity.length, a.entity.length)
		}
		return cmp.Compare(a.entity.length, b.entity.length)
	})

	closingAt := make(map[int]map[int]bool) // pos -> entity id
	for _, event := range events {
		if !event.isStart {
			if closingAt[event.pos] == nil {
				closingAt[event.pos] = make(map[int]bool)
			}
			closingAt[event.pos][event.entity.id] = true
		}
	}

	var result strings.Builder
	var openStack []*entityInfo
	alreadyClosed := make(map[int]bool)
	lastPos := 0

	for _, event := range events {
		if event.pos > lastPos {
			result.WriteString(html.EscapeString(slice(lastPos, event.pos)))
			lastPos = event.pos
		}

		if event.isStart {
			result.WriteString(event.entity.startTag)
			openStack = append(openStack, event.entity)
			continue
		}
		if alreadyClosed[event.entity.id] {
			continue
		}

		idx := slices.IndexFunc(openStack, func(e *entityInfo) bool { return e.id == event.entity.id })
		if idx < 0 {
			continue
		}

		// Close everything opened after the entity, then reopen what
		// does not end here.
		var toClose []*entityInfo
		for i := len(openStack) - 1; i >= idx; i-- {
			toClose = append(toClose, openStack[i])
		}
		for _, e := range toClose {
			result.WriteString(e.endTag)
			alreadyClosed[e.id] = true
		}
		openStack = openStack[:idx]

		for i := len(toClose) - 1; i >= 0; i-- {
			e := toClose[i]
			if e.id == event.entity.id || closingAt[event.pos][e.id] {
				continue
			}
			result.WriteString(e.startTag)
			openStack = append(openStack, e)
			delete(alreadyClosed, e.id)
		}
	}

	if lastPos < len(units) {
		result.WriteString(html.EscapeString(slice(lastPos, len(units))))
	}

	return result.String()
}
