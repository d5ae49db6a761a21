package botkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketUserData      = []byte("user_data")
	bucketChatData      = []byte("chat_data")
	bucketBotData       = []byte("bot_data")
	bucketConversations = []byte("conversations")

	keyBotData = []byte("data")
)

// BoltPersistence stores data in a bbolt file. Every update is written in
// its own transaction, so Flush has nothing to do.
type BoltPersistence struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltPersistence, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUserData, bucketChatData, bucketBotData, bucketConversations} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltPersistence{db: db}, nil
}

func (p *BoltPersistence) Close() error { return p.db.Close() }

func (p *BoltPersistence) Flush(ctx context.Context) error { return nil }

func (p *BoltPersistence) readIDBucket(name []byte) (map[int64]map[string]any, error) {
	out := make(map[int64]map[string]any)
	err := p.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(name).ForEach(func(k, v []byte) error {
			id, err := strconv.ParseInt(string(k), 10, 64)
			if err != nil {
				return fmt.Errorf("botkit: bad key %q in %s: %w", k, name, err)
			}
			var data map[string]any
			if err := json.Unmarshal(v, &data); err != nil {
				return err
			}
			if data == nil {
				data = make(map[string]any)
			}
			out[id] = data
			return nil
		})
	})
	return out, err
}

func (p *BoltPersistence) put(name, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(name).Put(key, b)
	})
}

func idKey(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

func (p *BoltPersistence) GetUserData(ctx context.Context) (map[int64]map[string]any, error) {
	return p.readIDBucket(bucketUserData)
}

func (p *BoltPersistence) GetChatData(ctx context.Context) (map[int64]map[string]any, error) {
	return p.readIDBucket(bucketChatData)
}

func (p *BoltPersistence) GetBotData(ctx context.Context) (map[string]any, error) {
	data := make(map[string]any)
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBotData).Get(keyBotData)
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &data)
	})
	return data, err
}

// GetConversations reads the states stored under conversations/<name>.
func (p *BoltPersistence) GetConversations(ctx context.Context, name string) (map[string]State, error) {
	out := make(map[string]State)
	err := p.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversations).Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var s State
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			out[string(k)] = s
			return nil
		})
	})
	return out, err
}

func (p *BoltPersistence) UpdateUserData(ctx context.Context, userID int64, data map[string]any) error {
	return p.put(bucketUserData, idKey(userID), data)
}

func (p *BoltPersistence) UpdateChatData(ctx context.Context, chatID int64, data map[string]any) error {
	return p.put(bucketChatData, idKey(chatID), data)
}

func (p *BoltPersistence) UpdateBotData(ctx context.Context, data map[string]any) error {
	return p.put(bucketBotData, keyBotData, data)
}

func (p *BoltPersistence) UpdateConversation(ctx context.Context, name, key string, state State) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bucketConversations)
		if state == End {
			b := parent.Bucket([]byte(name))
			if b == nil {
				return nil
			}
			return b.Delete([]byte(key))
		}
		b, err := parent.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		v, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), v)
	})
}
