package botkit

import (
	"strings"
	"testing"

	"github.com/gotd/td/tg"
)

// =============================================================================
// HTML rendering
// =============================================================================

func TestTextHTML(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []MessageEntity
		want     string
	}{
		{
			name:     "bold",
			text:     "This is bold text",
			entities: []MessageEntity{{Type: EntityBold, Offset: 8, Length: 4}},
			want:     "This is <b>bold</b> text",
		},
		{
			name:     "italic",
			text:     "This is italic text",
			entities: []MessageEntity{{Type: EntityItalic, Offset: 8, Length: 6}},
			want:     "This is <i>italic</i> text",
		},
		{
			name:     "underline",
			text:     "This is underlined text",
			entities: []MessageEntity{{Type: EntityUnderline, Offset: 8, Length: 10}},
			want:     "This is <u>underlined</u> text",
		},
		{
			name:     "strikethrough",
			text:     "This is strikethrough text",
			entities: []MessageEntity{{Type: EntityStrikethrough, Offset: 8, Length: 13}},
			want:     "This is <s>strikethrough</s> text",
		},
		{
			name:     "spoiler",
			text:     "This is spoiler text",
			entities: []MessageEntity{{Type: EntitySpoiler, Offset: 8, Length: 7}},
			want:     "This is <tg-spoiler>spoiler</tg-spoiler> text",
		},
		{
			name:     "inline code escapes",
			text:     "Check if x < 10 && y > 5 condition",
			entities: []MessageEntity{{Type: EntityCode, Offset: 6, Length: 18}},
			want:     "Check <code>if x &lt; 10 &amp;&amp; y &gt; 5</code> condition",
		},
		{
			name:     "pre with language",
			text:     "fmt.Println()",
			entities: []MessageEntity{{Type: EntityPre, Offset: 0, Length: 13, Language: "go"}},
			want:     `<pre><code class="language-go">fmt.Println()</code></pre>`,
		},
		{
			name:     "pre without language",
			text:     "plain code block",
			entities: []MessageEntity{{Type: EntityPre, Offset: 0, Length: 16}},
			want:     "<pre>plain code block</pre>",
		},
		{
			name:     "text link",
			text:     "Visit our website for more",
			entities: []MessageEntity{{Type: EntityTextLink, Offset: 10, Length: 7, URL: "https://example.com"}},
			want:     `Visit our <a href="https://example.com">website</a> for more`,
		},
		{
			name:     "text link escapes url",
			text:     "search",
			entities: []MessageEntity{{Type: EntityTextLink, Offset: 0, Length: 6, URL: "https://example.com/?a=1&b=2"}},
			want:     `<a href="https://example.com/?a=1&amp;b=2">search</a>`,
		},
		{
			name:     "text mention",
			text:     "Hello John",
			entities: []MessageEntity{{Type: EntityTextMention, Offset: 6, Length: 4, User: &User{ID: 42}}},
			want:     `Hello <a href="tg://user?id=42">John</a>`,
		},
		{
			name:     "custom emoji",
			text:     "x",
			entities: []MessageEntity{{Type: EntityCustomEmoji, Offset: 0, Length: 1, CustomEmojiID: "5368324170671202286"}},
			want:     `<tg-emoji emoji-id="5368324170671202286">x</tg-emoji>`,
		},
		{
			name:     "blockquote",
			text:     "quoted",
			entities: []MessageEntity{{Type: EntityBlockquote, Offset: 0, Length: 6}},
			want:     "<blockquote>quoted</blockquote>",
		},
		{
			name:     "expandable blockquote",
			text:     "long quote",
			entities: []MessageEntity{{Type: EntityExpandable, Offset: 0, Length: 10}},
			want:     "<blockquote expandable>long quote</blockquote>",
		},
		{
			name:     "mention left plain",
			text:     "Hello @user",
			entities: []MessageEntity{{Type: EntityMention, Offset: 6, Length: 5}},
			want:     "Hello @user",
		},
		{
			name: "nested",
			text: "bold italic",
			entities: []MessageEntity{
				{Type: EntityBold, Offset: 0, Length: 11},
				{Type: EntityItalic, Offset: 5, Length: 6},
			},
			want: "<b>bold <i>italic</i></b>",
		},
		{
			name: "overlapping entities are split",
			text: "abcdef",
			entities: []MessageEntity{
				{Type: EntityBold, Offset: 0, Length: 4},
				{Type: EntityItalic, Offset: 2, Length: 4},
			},
			want: "<b>ab<i>cd</i></b><i>ef</i>",
		},
		{
			name: "adjacent",
			text: "boldital",
			entities: []MessageEntity{
				{Type: EntityBold, Offset: 0, Length: 4},
				{Type: EntityItalic, Offset: 4, Length: 4},
			},
			want: "<b>bold</b><i>ital</i>",
		},
		{
			name:     "emoji before entity",
			text:     "😀 bold",
			entities: []MessageEntity{{Type: EntityBold, Offset: 3, Length: 4}},
			want:     "😀 <b>bold</b>",
		},
		{
			name:     "trailing whitespace trimmed",
			text:     "bold  rest",
			entities: []MessageEntity{{Type: EntityBold, Offset: 0, Length: 6}},
			want:     "<b>bold</b>  rest",
		},
		{
			name:     "offset past end is ignored",
			text:     "short",
			entities: []MessageEntity{{Type: EntityBold, Offset: 3, Length: 10}},
			want:     "short",
		},
		{
			name: "no entities escapes text",
			text: `a < b & "c"`,
			want: "a &lt; b &amp; &#34;c&#34;",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Message{Text: tt.text, Entities: tt.entities}
			if got := m.TextHTML(); got != tt.want {
				t.Errorf("TextHTML()\nwant: %s\ngot:  %s", tt.want, got)
			}
		})
	}
}

func TestCaptionHTML(t *testing.T) {
	m := &Message{
		Caption:         "photo caption",
		CaptionEntities: []MessageEntity{{Type: EntityItalic, Offset: 6, Length: 7}},
	}
	if got, want := m.CaptionHTML(), "photo <i>caption</i>"; got != want {
		t.Errorf("CaptionHTML() = %q, want %q", got, want)
	}
}

func TestTextHTMLURLed(t *testing.T) {
	m := &Message{
		Text: "@gopher see https://go.dev",
		Entities: []MessageEntity{
			{Type: EntityMention, Offset: 0, Length: 7},
			{Type: EntityURL, Offset: 12, Length: 14},
		},
	}
	want := `<a href="https://t.me/gopher">@gopher</a> see <a href="https://go.dev">https://go.dev</a>`
	if got := m.TextHTMLURLed(); got != want {
		t.Errorf("TextHTMLURLed()\nwant: %s\ngot:  %s", want, got)
	}

	// Without linking, plain URLs stay plain.
	if got := m.TextHTML(); strings.Contains(got, "<a") {
		t.Errorf("TextHTML() = %q, should not contain links", got)
	}
}

func TestEntitiesToHTML_VeryLongText(t *testing.T) {
	text := strings.Repeat("a", 10000) + "bold"
	entities := []tg.MessageEntityClass{
		&tg.MessageEntityBold{Offset: 10000, Length: 4},
	}

	result := EntitiesToHTML(text, entities)
	if !strings.HasSuffix(result, "<b>bold</b>") {
		t.Errorf("expected trailing bold, got suffix %q", result[len(result)-20:])
	}
}

func TestEntitiesToHTML_BoundaryInsideSurrogatePair(t *testing.T) {
	// "😀" occupies units 1 and 2 of "a😀b".
	text := "a😀b"
	tests := []struct {
		name   string
		entity MessageEntity
		want   string
	}{
		{"end inside emoji", MessageEntity{Type: EntityBold, Offset: 0, Length: 2}, "<b>a</b>😀b"},
		{"start inside emoji", MessageEntity{Type: EntityBold, Offset: 2, Length: 2}, "a<b>😀b</b>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EntitiesToHTML(text, EntitiesToTG([]MessageEntity{tt.entity}))
			if got != tt.want {
				t.Errorf("EntitiesToHTML() = %q, want %q", got, tt.want)
			}
			if strings.ContainsRune(got, '\uFFFD') {
				t.Errorf("EntitiesToHTML() = %q, emoji was split", got)
			}

			_, bold, _ := strings.Cut(got, "<b>")
			inner, _, _ := strings.Cut(bold, "</b>")
			if parsed := ParseEntity(text, tt.entity); parsed != inner {
				t.Errorf("ParseEntity() = %q, rendered bold text = %q", parsed, inner)
			}
		})
	}
}

// =============================================================================
// UTF-16 helpers
// =============================================================================

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"привет", 6},
		{"😀", 2},
		{"a😀b", 4},
		{"👍🏽", 4},
	}
	for _, tt := range tests {
		if got := UTF16Len(tt.text); got != tt.want {
			t.Errorf("UTF16Len(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestParseEntity(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		entity MessageEntity
		want   string
	}{
		{"ascii", "hello world", MessageEntity{Offset: 6, Length: 5}, "world"},
		{"after emoji", "😀 hi", MessageEntity{Offset: 3, Length: 2}, "hi"},
		{"emoji itself", "a😀b", MessageEntity{Offset: 1, Length: 2}, "😀"},
		{"cyrillic", "привет мир", MessageEntity{Offset: 7, Length: 3}, "мир"},
		{"clamped", "short", MessageEntity{Offset: 2, Length: 100}, "ort"},
		{"negative", "short", MessageEntity{Offset: -1, Length: 2}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEntity(tt.text, tt.entity); got != tt.want {
				t.Errorf("ParseEntity() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageParseEntities(t *testing.T) {
	m := &Message{
		Text: "/start @bot #tag",
		Entities: []MessageEntity{
			{Type: EntityBotCommand, Offset: 0, Length: 6},
			{Type: EntityMention, Offset: 7, Length: 4},
			{Type: EntityHashtag, Offset: 12, Length: 4},
		},
	}

	all := m.ParseEntities()
	if len(all) != 3 {
		t.Fatalf("ParseEntities() returned %d entities, want 3", len(all))
	}

	tags := m.ParseEntities(EntityHashtag, EntityMention)
	if len(tags) != 2 {
		t.Fatalf("ParseEntities(hashtag, mention) returned %d entities, want 2", len(tags))
	}
	if tags[0].Text != "@bot" || tags[1].Text != "#tag" {
		t.Errorf("ParseEntities() texts = %q, %q", tags[0].Text, tags[1].Text)
	}
}

func TestAdjustEntitiesToUTF16(t *testing.T) {
	// Offsets counted in code points: "😀" is one point but two UTF-16 units.
	text := "😀 bold"
	in := []MessageEntity{{Type: EntityBold, Offset: 2, Length: 4}}

	out := AdjustEntitiesToUTF16(text, in)
	if out[0].Offset != 3 || out[0].Length != 4 {
		t.Errorf("AdjustEntitiesToUTF16() = offset %d length %d, want 3 4", out[0].Offset, out[0].Length)
	}
	if in[0].Offset != 2 {
		t.Error("AdjustEntitiesToUTF16() modified its input")
	}
}

func TestConcatEntities(t *testing.T) {
	text, entities := ConcatEntities(
		TextWithEntities{Text: "😀 ", Entities: []MessageEntity{{Type: EntityBold, Offset: 0, Length: 2}}},
		TextWithEntities{Text: "hello", Entities: []MessageEntity{{Type: EntityItalic, Offset: 0, Length: 5}}},
	)

	if text != "😀 hello" {
		t.Errorf("text = %q", text)
	}
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[1].Offset != 3 {
		t.Errorf("second entity offset = %d, want 3", entities[1].Offset)
	}
	if got := ParseEntity(text, entities[1]); got != "hello" {
		t.Errorf("second entity covers %q, want %q", got, "hello")
	}
}

// =============================================================================
// MTProto conversion
// =============================================================================

func TestEntitiesTGRoundTrip(t *testing.T) {
	in := []MessageEntity{
		{Type: EntityBold, Offset: 0, Length: 1},
		{Type: EntityPre, Offset: 1, Length: 2, Language: "go"},
		{Type: EntityExpandable, Offset: 3, Length: 4},
		{Type: EntityTextLink, Offset: 4, Length: 1, URL: "https://example.com"},
		{Type: EntityTextMention, Offset: 5, Length: 1, User: &User{ID: 7}},
		{Type: EntityCustomEmoji, Offset: 6, Length: 2, CustomEmojiID: "99"},
		{Type: EntityPhoneNumber, Offset: 8, Length: 3},
	}

	out := EntitiesFromTG(EntitiesToTG(in))
	if len(out) != len(in) {
		t.Fatalf("got %d entities, want %d", len(out), len(in))
	}
	for i := range in {
		if !out[i].Equal(in[i]) {
			t.Errorf("entity %d = %+v, want %+v", i, out[i], in[i])
		}
	}
	if out[1].Language != "go" {
		t.Errorf("pre language = %q", out[1].Language)
	}
	if out[3].URL != "https://example.com" {
		t.Errorf("text link url = %q", out[3].URL)
	}
	if out[4].User == nil || out[4].User.ID != 7 {
		t.Errorf("text mention user = %+v", out[4].User)
	}
	if out[5].CustomEmojiID != "99" {
		t.Errorf("custom emoji id = %q", out[5].CustomEmojiID)
	}
}

func TestEntitiesToTGUnknown(t *testing.T) {
	out := EntitiesToTG([]MessageEntity{{Type: "future_type", Offset: 1, Length: 2}})
	if _, ok := out[0].(*tg.MessageEntityUnknown); !ok {
		t.Errorf("unknown type converted to %T", out[0])
	}
	if EntitiesToTG(nil) != nil {
		t.Error("EntitiesToTG(nil) should be nil")
	}
}
