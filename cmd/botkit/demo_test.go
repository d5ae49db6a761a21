package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"

	"github.com/en9inerd/botkit"
)

// replies records the text of every sendMessage request.
type replies struct {
	mu    sync.Mutex
	texts []string
}

func (r *replies) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func newDemoBot(t *testing.T) (*botkit.Bot, *replies) {
	t.Helper()
	rec := &replies{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		_ = json.NewDecoder(r.Body).Decode(&params)

		var result any = true
		if path.Base(r.URL.Path) == "sendMessage" {
			text, _ := params["text"].(string)
			rec.mu.Lock()
			rec.texts = append(rec.texts, text)
			rec.mu.Unlock()
			result = map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 10, "type": "private"}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bot, err := botkit.New(botkit.Config{
		Token:      "123:abc",
		APIURL:     srv.URL,
		StateDir:   t.TempDir(),
		Logger:     logger,
		MaxRetries: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := registerDemo(bot, &fileConfig{}, logger); err != nil {
		t.Fatal(err)
	}
	return bot, rec
}

func message(id int, text string) *botkit.Update {
	m := &botkit.Message{
		MessageID: id,
		From:      &botkit.User{ID: 20, FirstName: "Ann"},
		Chat:      botkit.Chat{ID: 10, Type: botkit.ChatTypePrivate},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		m.Entities = []botkit.MessageEntity{{Type: botkit.EntityBotCommand, Length: len(text)}}
	}
	return &botkit.Update{UpdateID: id, Message: m}
}

func TestDemoFeedback(t *testing.T) {
	bot, rec := newDemoBot(t)
	d := bot.Dispatcher()

	for i, text := range []string{"/feedback", "7", "4", "great bot", "/stats", "hello"} {
		d.ProcessUpdate(context.Background(), message(i+1, text))
	}

	want := []string{
		"How would you rate me, 1 to 5?",
		"Please send a number from 1 to 5.",
		"Thanks! Any comment? Send /skip to finish.",
		"Feedback saved.",
		"1 ratings, average 4.0",
		"HELLO",
	}
	got := rec.all()
	if len(got) != len(want) {
		t.Fatalf("replies = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reply %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDemoStart(t *testing.T) {
	bot, rec := newDemoBot(t)
	d := bot.Dispatcher()
	d.ProcessUpdate(context.Background(), message(1, "/start"))
	d.ProcessUpdate(context.Background(), message(2, "/start"))

	got := rec.all()
	if len(got) != 2 || got[1] != "Hello, <b>Ann</b>! Visit #2." {
		t.Errorf("replies = %q", got)
	}
}

func TestDemoRemindRequiresParam(t *testing.T) {
	bot, rec := newDemoBot(t)
	bot.Dispatcher().ProcessUpdate(context.Background(), message(1, "/remind"))

	got := rec.all()
	if len(got) != 1 || got[0] == "" {
		t.Fatalf("replies = %q, want one error reply", got)
	}
	if len(bot.JobQueue().JobsByName("remind")) != 0 {
		t.Error("reminder scheduled without the required parameter")
	}
}
