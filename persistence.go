package botkit

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Persistence stores user, chat and bot data and conversation states
// across restarts. Data maps are stored as JSON, so values read back are
// JSON-decoded types (float64, string, bool, []any, map[string]any).
type Persistence interface {
	GetUserData(ctx context.Context) (map[int64]map[string]any, error)
	GetChatData(ctx context.Context) (map[int64]map[string]any, error)
	GetBotData(ctx context.Context) (map[string]any, error)
	GetConversations(ctx context.Context, name string) (map[string]State, error)

	UpdateUserData(ctx context.Context, userID int64, data map[string]any) error
	UpdateChatData(ctx context.Context, chatID int64, data map[string]any) error
	UpdateBotData(ctx context.Context, data map[string]any) error
	// UpdateConversation stores the state for key. End deletes the key.
	UpdateConversation(ctx context.Context, name, key string, state State) error

	// Flush writes buffered changes to the backing store.
	Flush(ctx context.Context) error
	Close() error
}

// MemoryPersistence keeps everything in process. With a Path it loads a
// JSON snapshot on creation and writes one on Flush and Close.
type MemoryPersistence struct {
	path string

	mu            sync.Mutex
	users         map[int64]json.RawMessage
	chats         map[int64]json.RawMessage
	bot           json.RawMessage
	conversations map[string]map[string]State
}

// memorySnapshot is the on-disk form of MemoryPersistence.
type memorySnapshot struct {
	UserData      map[string]json.RawMessage  `json:"user_data"`
	ChatData      map[string]json.RawMessage  `json:"chat_data"`
	BotData       json.RawMessage             `json:"bot_data,omitempty"`
	Conversations map[string]map[string]State `json:"conversations"`
}

// NewMemoryPersistence creates an in-memory store. If path is not empty
// and the file exists, its snapshot is loaded.
func NewMemoryPersistence(path string) (*MemoryPersistence, error) {
	p := &MemoryPersistence{
		path:          path,
		users:         make(map[int64]json.RawMessage),
		chats:         make(map[int64]json.RawMessage),
		conversations: make(map[string]map[string]State),
	}
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if err := p.Restore(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Snapshot returns the stored data as JSON.
func (p *MemoryPersistence) Snapshot() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := memorySnapshot{
		UserData:      make(map[string]json.RawMessage, len(p.users)),
		ChatData:      make(map[string]json.RawMessage, len(p.chats)),
		BotData:       p.bot,
		Conversations: p.conversations,
	}
	for id, v := range p.users {
		snap.UserData[strconv.FormatInt(id, 10)] = v
	}
	for id, v := range p.chats {
		snap.ChatData[strconv.FormatInt(id, 10)] = v
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Restore replaces the stored data with a snapshot.
func (p *MemoryPersistence) Restore(data []byte) error {
	var snap memorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	users, err := parseIDKeys(snap.UserData)
	if err != nil {
		return err
	}
	chats, err := parseIDKeys(snap.ChatData)
	if err != nil {
		return err
	}
	if snap.Conversations == nil {
		snap.Conversations = make(map[string]map[string]State)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = users
	p.chats = chats
	p.bot = snap.BotData
	p.conversations = snap.Conversations
	return nil
}

func parseIDKeys(m map[string]json.RawMessage) (map[int64]json.RawMessage, error) {
	out := make(map[int64]json.RawMessage, len(m))
	for k, v := range m {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func decodeDataMaps(m map[int64]json.RawMessage) (map[int64]map[string]any, error) {
	out := make(map[int64]map[string]any, len(m))
	for id, raw := range m {
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		if data == nil {
			data = make(map[string]any)
		}
		out[id] = data
	}
	return out, nil
}

func (p *MemoryPersistence) GetUserData(ctx context.Context) (map[int64]map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return decodeDataMaps(p.users)
}

func (p *MemoryPersistence) GetChatData(ctx context.Context) (map[int64]map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return decodeDataMaps(p.chats)
}

func (p *MemoryPersistence) GetBotData(ctx context.Context) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := make(map[string]any)
	if len(p.bot) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(p.bot, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (p *MemoryPersistence) GetConversations(ctx context.Context, name string) (map[string]State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]State, len(p.conversations[name]))
	for k, v := range p.conversations[name] {
		out[k] = v
	}
	return out, nil
}

func (p *MemoryPersistence) UpdateUserData(ctx context.Context, userID int64, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = raw
	return nil
}

func (p *MemoryPersistence) UpdateChatData(ctx context.Context, chatID int64, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chats[chatID] = raw
	return nil
}

func (p *MemoryPersistence) UpdateBotData(ctx context.Context, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bot = raw
	return nil
}

func (p *MemoryPersistence) UpdateConversation(ctx context.Context, name, key string, state State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state == End {
		delete(p.conversations[name], key)
		return nil
	}
	if p.conversations[name] == nil {
		p.conversations[name] = make(map[string]State)
	}
	p.conversations[name][key] = state
	return nil
}

// Flush writes the snapshot to the file given to NewMemoryPersistence.
func (p *MemoryPersistence) Flush(ctx context.Context) error {
	if p.path == "" {
		return nil
	}
	data, err := p.Snapshot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

// Close flushes the snapshot.
func (p *MemoryPersistence) Close() error {
	return p.Flush(context.Background())
}
