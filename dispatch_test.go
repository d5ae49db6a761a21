package botkit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder collects handler invocations from several goroutines.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) handler(name string) HandlerFunc {
	return func(*Context) error {
		r.add(name)
		return nil
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func messageUpdate(id int, m *Message) *Update {
	return &Update{UpdateID: id, Message: m}
}

func TestDispatcherGroups(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	d := bot.Dispatcher()
	rec := &recorder{}

	d.AddHandler(&MessageHandler{Callback: rec.handler("g1-first")}, 1)
	d.AddHandler(&MessageHandler{Callback: rec.handler("g1-second")}, 1)
	d.AddHandler(&MessageHandler{Callback: rec.handler("g-1")}, -1)
	d.AddHandler(&CallbackQueryHandler{Callback: rec.handler("never")}, 0)
	d.AddHandler(&MessageHandler{Callback: rec.handler("g0")}, 0)

	d.ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 20, "hello")))

	want := []string{"g-1", "g0", "g1-first"}
	if got := rec.get(); !equalStrings(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestDispatcherHandlerStop(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	d := bot.Dispatcher()
	rec := &recorder{}

	d.AddHandler(&MessageHandler{Callback: func(*Context) error {
		rec.add("first")
		return ErrHandlerStop
	}}, 0)
	d.AddHandler(&MessageHandler{Callback: rec.handler("second")}, 1)

	var handled []error
	d.AddErrorHandler(func(c *Context) error {
		handled = append(handled, c.HandlerErr)
		return nil
	})

	d.ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 20, "hello")))

	if got := rec.get(); !equalStrings(got, []string{"first"}) {
		t.Errorf("calls = %v, want [first]", got)
	}
	if len(handled) != 0 {
		t.Errorf("ErrHandlerStop reached the error handlers: %v", handled)
	}
}

func TestDispatcherErrorHandlers(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	d := bot.Dispatcher()
	rec := &recorder{}
	boom := errors.New("boom")

	d.AddHandler(&MessageHandler{Callback: func(*Context) error { return boom }}, 0)
	d.AddHandler(&MessageHandler{Callback: rec.handler("after")}, 1)

	var got error
	var chatID int64
	bot.OnError(func(c *Context) error {
		got = c.HandlerErr
		chatID = c.ChatID()
		return nil
	})

	d.ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 20, "hello")))

	if !errors.Is(got, boom) {
		t.Errorf("error handler got %v, want %v", got, boom)
	}
	if chatID != 10 {
		t.Errorf("error handler chat = %d, want 10", chatID)
	}
	// Errors do not stop later groups.
	if calls := rec.get(); !equalStrings(calls, []string{"after"}) {
		t.Errorf("calls = %v, want [after]", calls)
	}
}

func TestDispatcherRemoveHandler(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	d := bot.Dispatcher()
	rec := &recorder{}

	h := &MessageHandler{Callback: rec.handler("removed")}
	d.AddHandler(h, 0)
	d.AddHandler(&MessageHandler{Callback: rec.handler("kept")}, 0)

	if !d.RemoveHandler(h, 0) {
		t.Fatal("RemoveHandler() = false, want true")
	}
	if d.RemoveHandler(h, 0) {
		t.Error("second RemoveHandler() = true, want false")
	}

	d.ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 20, "hello")))
	if got := rec.get(); !equalStrings(got, []string{"kept"}) {
		t.Errorf("calls = %v, want [kept]", got)
	}
	if n := len(d.Handlers()); n != 1 {
		t.Errorf("Handlers() has %d entries, want 1", n)
	}
}

func TestCommandMention(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	d := bot.Dispatcher()
	d.setUsername("test_bot")
	rec := &recorder{}

	bot.Command("start", nil, func(c *Context) error {
		rec.add("start:" + strings.Join(c.Args, ","))
		return nil
	})

	tests := []struct {
		text string
		want bool
	}{
		{"/start", true},
		{"/START a b", true},
		{"/start@test_bot x", true},
		{"/start@Test_Bot", true},
		{"/start@other_bot", false},
		{"/stop", false},
		{"start", false},
	}
	for i, tt := range tests {
		before := len(rec.get())
		d.ProcessUpdate(context.Background(), messageUpdate(i, textMessage(i, 10, 20, tt.text)))
		got := len(rec.get()) > before
		if got != tt.want {
			t.Errorf("%q handled = %v, want %v", tt.text, got, tt.want)
		}
	}

	want := []string{"start:", "start:a,b", "start:x", "start:"}
	if got := rec.get(); !equalStrings(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestCommandParams(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("sendMessage", func(map[string]json.RawMessage) any { return Message{MessageID: 99} })
	bot := newTestBot(t, api, nil)
	d := bot.Dispatcher()

	var got ParsedParams
	bot.Command("deploy", Params{
		"env":   {Type: TypeEnum, Enum: []string{"prod", "staging"}, Required: true},
		"count": {Type: TypeInt, Default: int64(1)},
	}, func(c *Context) error {
		got = c.Params()
		return nil
	})

	d.ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 20, "/deploy env=prod")))
	if got.String("env") != "prod" || got.Int("count") != 1 {
		t.Errorf("params = %v", got)
	}

	got = nil
	d.ProcessUpdate(context.Background(), messageUpdate(2, textMessage(2, 10, 20, "/deploy env=dev")))
	if got != nil {
		t.Error("callback ran with invalid params")
	}

	calls := api.callsTo("sendMessage")
	if len(calls) != 1 {
		t.Fatalf("got %d replies, want 1", len(calls))
	}
	text := jsonString(t, calls[0].Params["text"])
	if !strings.HasPrefix(text, "Error: ") || !strings.Contains(text, "prod, staging") {
		t.Errorf("reply = %q", text)
	}
}

func TestLockedCommandIsDropped(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	d := bot.Dispatcher()
	rec := &recorder{}

	bot.LockedCommand("export", nil, rec.handler("export"))
	bot.Command("status", nil, rec.handler("status"))

	// A locked command of user 20 is in progress.
	if !d.commandLock.TryLock(20) {
		t.Fatal("TryLock() = false")
	}
	d.ProcessUpdate(context.Background(), messageUpdate(1, textMessage(1, 10, 20, "/export")))
	d.ProcessUpdate(context.Background(), messageUpdate(2, textMessage(2, 10, 20, "/status")))
	d.ProcessUpdate(context.Background(), messageUpdate(3, textMessage(3, 11, 21, "/export")))
	d.commandLock.Unlock(20)
	d.ProcessUpdate(context.Background(), messageUpdate(4, textMessage(4, 10, 20, "/export")))

	want := []string{"status", "export", "export"}
	if got := rec.get(); !equalStrings(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if d.commandLock.Held(20) {
		t.Error("lock still held after the command finished")
	}
}

func TestDispatcherRun(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), func(c *Config) { c.Workers = 4 })
	d := bot.Dispatcher()

	var mu sync.Mutex
	seen := map[int]bool{}
	d.AddHandler(&MessageHandler{Callback: func(c *Context) error {
		mu.Lock()
		seen[c.Update().UpdateID] = true
		mu.Unlock()
		return nil
	}}, 0)

	updates := make(chan *Update)
	d.Run(context.Background(), updates)
	for i := range 20 {
		updates <- messageUpdate(i, textMessage(i, 10, 20, "x"))
	}
	close(updates)
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 20 {
		t.Errorf("handled %d updates, want 20", len(seen))
	}
}

func TestAlbums(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), func(c *Config) { c.AlbumTimeout = 50 * time.Millisecond })
	d := bot.Dispatcher()
	rec := &recorder{}

	done := make(chan []*Message, 1)
	bot.OnAlbum(nil, func(c *Context) error {
		done <- c.Messages()
		return nil
	})
	d.AddHandler(&MessageHandler{Callback: rec.handler("single")}, 0)

	for _, id := range []int{3, 1, 2} {
		m := textMessage(id, 10, 20, "")
		m.MediaGroupID = "album-1"
		m.Photo = []PhotoSize{{FileID: "p"}}
		d.ProcessUpdate(context.Background(), messageUpdate(id, m))
	}
	// Plain messages are not held back.
	d.ProcessUpdate(context.Background(), messageUpdate(4, textMessage(4, 10, 20, "text")))

	select {
	case msgs := <-done:
		if len(msgs) != 3 {
			t.Fatalf("album has %d messages, want 3", len(msgs))
		}
		for i, m := range msgs {
			if m.MessageID != i+1 {
				t.Errorf("messages[%d].MessageID = %d, want %d", i, m.MessageID, i+1)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("album was not delivered")
	}

	if got := rec.get(); !equalStrings(got, []string{"single"}) {
		t.Errorf("calls = %v, want [single]", got)
	}
	if n := d.albums.pending(); n != 0 {
		t.Errorf("pending albums = %d, want 0", n)
	}
}

func TestUserDataPersisted(t *testing.T) {
	p, err := NewMemoryPersistence("")
	if err != nil {
		t.Fatal(err)
	}
	bot := newTestBot(t, newFakeAPI(t), func(c *Config) { c.Persistence = p })
	d := bot.Dispatcher()

	d.AddHandler(&MessageHandler{Callback: func(c *Context) error {
		n, _ := c.UserData()["count"].(int)
		c.UserData()["count"] = n + 1
		c.ChatData()["last"] = c.Text()
		return nil
	}}, 0)

	ctx := context.Background()
	d.ProcessUpdate(ctx, messageUpdate(1, textMessage(1, 10, 20, "one")))
	d.ProcessUpdate(ctx, messageUpdate(2, textMessage(2, 10, 20, "two")))

	users, err := p.GetUserData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Values go through JSON, so numbers come back as float64.
	if got := users[20]["count"]; got != float64(2) {
		t.Errorf("user count = %v (%T), want 2", got, got)
	}
	chats, err := p.GetChatData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := chats[10]["last"]; got != "two" {
		t.Errorf("chat last = %v, want two", got)
	}
	bots, err := p.GetBotData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(bots) != 0 {
		t.Errorf("bot data = %v, want empty: it was never touched", bots)
	}
}

func TestDispatcherLoad(t *testing.T) {
	p, err := NewMemoryPersistence("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := p.UpdateUserData(ctx, 20, map[string]any{"lang": "de"}); err != nil {
		t.Fatal(err)
	}
	if err := p.UpdateBotData(ctx, map[string]any{"version": "1"}); err != nil {
		t.Fatal(err)
	}

	bot := newTestBot(t, newFakeAPI(t), func(c *Config) { c.Persistence = p })
	d := bot.Dispatcher()
	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var lang, version any
	d.AddHandler(&MessageHandler{Callback: func(c *Context) error {
		lang = c.UserData()["lang"]
		version = c.BotData()["version"]
		return nil
	}}, 0)
	d.ProcessUpdate(ctx, messageUpdate(1, textMessage(1, 10, 20, "x")))

	if lang != "de" || version != "1" {
		t.Errorf("lang = %v, version = %v", lang, version)
	}
}

func TestBotDataConcurrentWriters(t *testing.T) {
	p, err := NewMemoryPersistence("")
	if err != nil {
		t.Fatal(err)
	}
	bot := newTestBot(t, newFakeAPI(t), func(c *Config) { c.Persistence = p })
	d := bot.Dispatcher()

	d.AddHandler(&MessageHandler{Callback: func(c *Context) error {
		n, _ := c.BotData()["updates"].(int)
		c.BotData()["updates"] = n + 1
		c.UserData()["seen"] = true
		return nil
	}}, 0)

	const rounds = 50
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range rounds {
			d.ProcessUpdate(ctx, messageUpdate(i+1, textMessage(i+1, 10, 20, "hi")))
		}
	}()
	go func() {
		defer wg.Done()
		// Job callbacks get a Context without an update.
		for range rounds {
			c := &Context{Context: ctx, bot: bot, dispatcher: d}
			n, _ := c.BotData()["jobs"].(int)
			c.BotData()["jobs"] = n + 1
			d.persist(c)
		}
	}()
	wg.Wait()

	var updates, jobs any
	d.AddHandler(&TypeHandler{Match: func(*Update) bool { return true }, Callback: func(c *Context) error {
		updates, jobs = c.BotData()["updates"], c.BotData()["jobs"]
		return nil
	}}, 1)
	d.ProcessUpdate(ctx, &Update{UpdateID: 1000})

	if updates != rounds || jobs != rounds {
		t.Errorf("updates = %v, jobs = %v, want %d each", updates, jobs, rounds)
	}

	saved, err := p.GetBotData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if saved["updates"] != float64(rounds) || saved["jobs"] != float64(rounds) {
		t.Errorf("persisted bot data = %v", saved)
	}
}

func TestDataChangesVisibleAfterUpdate(t *testing.T) {
	bot := newTestBot(t, newFakeAPI(t), nil)
	d := bot.Dispatcher()

	var seen []any
	d.AddHandler(&MessageHandler{Callback: func(c *Context) error {
		data := c.ChatData()
		seen = append(seen, data["last"])
		switch c.Text() {
		case "clear":
			delete(data, "last")
		default:
			data["last"] = c.Text()
		}
		return nil
	}}, 0)

	ctx := context.Background()
	for i, text := range []string{"one", "two", "clear", "three"} {
		d.ProcessUpdate(ctx, messageUpdate(i+1, textMessage(i+1, 10, 20, text)))
	}

	want := []any{nil, "one", "two", nil}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
}
