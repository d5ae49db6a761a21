package botkit

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
)

const testToken = "123456:TEST-token_abc"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

// apiCall is a request received by fakeAPI. Multipart form values are
// stored JSON-encoded as strings.
type apiCall struct {
	Method string
	Params map[string]json.RawMessage
	Files  map[string]string
}

// apiFailure makes a fakeAPI route answer with an error.
type apiFailure struct {
	Code        int
	Description string
	RetryAfter  int
}

// fakeAPI is an httptest Bot API server. Routes return the result value;
// methods without a route answer true.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu     sync.Mutex
	calls  []apiCall
	routes map[string]func(params map[string]json.RawMessage) any
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		t:      t,
		routes: make(map[string]func(map[string]json.RawMessage) any),
	}
	f.handle("getMe", func(map[string]json.RawMessage) any {
		return User{ID: 1, IsBot: true, FirstName: "Test", Username: "test_bot"}
	})
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) handle(method string, fn func(params map[string]json.RawMessage) any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method] = fn
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	call := apiCall{
		Method: path.Base(r.URL.Path),
		Params: map[string]json.RawMessage{},
		Files:  map[string]string{},
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for k, v := range r.MultipartForm.Value {
			raw, _ := json.Marshal(v[0])
			call.Params[k] = raw
		}
		for k, fh := range r.MultipartForm.File {
			file, err := fh[0].Open()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(file)
			file.Close()
			call.Files[k] = string(data)
		}
	} else if err := json.NewDecoder(r.Body).Decode(&call.Params); err != nil && err != io.EOF {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	route := f.routes[call.Method]
	f.mu.Unlock()

	var result any = true
	if route != nil {
		result = route(call.Params)
	}

	if fail, ok := result.(apiFailure); ok {
		body := map[string]any{
			"ok":          false,
			"error_code":  fail.Code,
			"description": fail.Description,
		}
		if fail.RetryAfter > 0 {
			body["parameters"] = map[string]any{"retry_after": fail.RetryAfter}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fail.Code)
		_ = json.NewEncoder(w).Encode(body)
		return
	}
	writeJSON(f.t, w, map[string]any{"ok": true, "result": result})
}

// callsTo returns the recorded requests for method.
func (f *fakeAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) client(t *testing.T, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithAPIURL(f.srv.URL), WithRetries(-1)}, opts...)
	c, err := NewClient(testToken, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

// newTestBot builds a Bot talking to api. mutate may adjust the config
// before the bot is created.
func newTestBot(t *testing.T, api *fakeAPI, mutate func(*Config)) *Bot {
	t.Helper()
	cfg := Config{
		Token:      testToken,
		APIURL:     api.srv.URL,
		StateDir:   t.TempDir(),
		Logger:     discardLogger(),
		MaxRetries: -1,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func jsonString(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("decode %s as string: %v", raw, err)
	}
	return s
}

func textMessage(id int, chatID, userID int64, text string) *Message {
	m := &Message{
		MessageID: id,
		From:      &User{ID: userID, FirstName: "User"},
		Chat:      Chat{ID: chatID, Type: ChatTypePrivate},
		Text:      text,
	}
	if chatID < 0 {
		m.Chat.Type = ChatTypeSupergroup
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		m.Entities = []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: end}}
	}
	return m
}
