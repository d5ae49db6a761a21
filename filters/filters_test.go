package filters

import (
	"testing"

	"github.com/en9inerd/botkit"
)

func message(text string) *botkit.Update {
	return &botkit.Update{Message: &botkit.Message{
		MessageID: 1,
		From:      &botkit.User{ID: 20, Username: "Alice", LanguageCode: "en-US"},
		Chat:      botkit.Chat{ID: 10, Type: botkit.ChatTypePrivate},
		Text:      text,
	}}
}

func command(text string) *botkit.Update {
	u := message(text)
	u.Message.Entities = []botkit.MessageEntity{{Type: botkit.EntityBotCommand, Offset: 0, Length: len(text)}}
	return u
}

func photo() *botkit.Update {
	u := message("")
	u.Message.Photo = []botkit.PhotoSize{{FileID: "p"}}
	u.Message.Caption = "sunset #travel"
	return u
}

func TestMessageFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter botkit.Filter
		update *botkit.Update
		want   bool
	}{
		{"text", Text, message("hi"), true},
		{"text excludes commands", Text, command("/start"), false},
		{"command", Command, command("/start"), true},
		{"command on text", Command, message("hi"), false},
		{"photo", Photo, photo(), true},
		{"photo on text", Photo, message("hi"), false},
		{"caption", Caption, photo(), true},
		{"all", All, message("hi"), true},
		{"all without message", All, &botkit.Update{CallbackQuery: &botkit.CallbackQuery{}}, false},
		{"reply", Reply, message("hi"), false},
		{"update message", UpdateMessage, message("hi"), true},
		{"update edited", UpdateEdited, &botkit.Update{EditedMessage: message("x").Message}, true},
		{"update edited on new", UpdateEdited, message("hi"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Check(tt.update); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombinators(t *testing.T) {
	private := ChatType(botkit.ChatTypePrivate)
	group := ChatType(botkit.ChatTypeGroup, botkit.ChatTypeSupergroup)

	tests := []struct {
		name   string
		filter botkit.Filter
		want   bool
	}{
		{"and both", And(private, Text), true},
		{"and one", And(group, Text), false},
		{"or one", Or(group, Text), true},
		{"or none", Or(group, Photo), false},
		{"not", Not(group), true},
		{"xor one", Xor(private, group), true},
		{"xor both", Xor(private, Text), false},
	}
	u := message("hi")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Check(u); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegex(t *testing.T) {
	f := Regex(`^order (\d+)$`)

	matches, ok := f.Match(message("order 42"))
	if !ok {
		t.Fatal("Match() ok = false")
	}
	if len(matches) != 2 || matches[1] != "42" {
		t.Errorf("matches = %v, want [order 42 42]", matches)
	}
	if f.Check(message("order x")) {
		t.Error("Check() = true for non-matching text")
	}

	if !CaptionRegex(`#(\w+)`).Check(photo()) {
		t.Error("CaptionRegex did not match caption")
	}
	if Regex(`sunset`).Check(photo()) {
		t.Error("Regex matched the caption of a message without text")
	}
}

func TestAndConcatenatesMatches(t *testing.T) {
	f := And(Regex(`(\w+) (\w+)`), Regex(`(o)`))
	matches, ok := botkit.MatchFilter(f, message("hello world"))
	if !ok {
		t.Fatal("MatchFilter() ok = false")
	}
	want := []string{"hello world", "hello", "world", "o", "o"}
	if len(matches) != len(want) {
		t.Fatalf("matches = %v, want %v", matches, want)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("matches[%d] = %q, want %q", i, matches[i], want[i])
		}
	}
}

func TestEntity(t *testing.T) {
	if !Entity(botkit.EntityBotCommand).Check(command("/start")) {
		t.Error("Entity(bot_command) did not match a command")
	}
	if Entity(botkit.EntityBotCommand).Check(message("hi")) {
		t.Error("Entity(bot_command) matched plain text")
	}
	if CaptionEntity(botkit.EntityBotCommand).Check(command("/start")) {
		t.Error("CaptionEntity matched text entities")
	}
}

func TestLanguage(t *testing.T) {
	if !Language("en").Check(message("hi")) {
		t.Error(`Language("en") did not match en-US`)
	}
	if Language("de", "fr").Check(message("hi")) {
		t.Error(`Language("de", "fr") matched en-US`)
	}
}

func TestIDFilter(t *testing.T) {
	users := Users(1, 2)
	if users.Check(message("hi")) {
		t.Error("Users(1, 2) matched user 20")
	}

	users.Add(20)
	if !users.Check(message("hi")) {
		t.Error("Users did not match after Add(20)")
	}

	users.Remove(1, 2, 20)
	if users.Check(message("hi")) {
		t.Error("empty Users matched without AllowEmpty")
	}
	users.AllowEmpty = true
	if !users.Check(message("hi")) {
		t.Error("empty Users did not match with AllowEmpty")
	}

	if !Chats(10).Check(message("hi")) {
		t.Error("Chats(10) did not match chat 10")
	}
	if Chats(10).Check(&botkit.Update{}) {
		t.Error("Chats(10) matched an update without a chat")
	}
}

func TestUsernameFilter(t *testing.T) {
	f := Usernames("@alice", "bob")
	if !f.Check(message("hi")) {
		t.Error("Usernames did not match Alice case-insensitively")
	}
	f.Remove("ALICE")
	if f.Check(message("hi")) {
		t.Error("Usernames matched after Remove")
	}
}
