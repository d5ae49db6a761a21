package botkit

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// albumCollector collects grouped messages (albums) and fires a callback
// when the album is complete.
type albumCollector struct {
	mu       sync.Mutex
	albums   map[string][]*Message // media_group_id -> messages
	first    map[string]*Update    // media_group_id -> first update
	timers   map[string]*time.Timer
	timeout  time.Duration
	callback func(u *Update, messages []*Message)
}

func newAlbumCollector(timeout time.Duration, callback func(u *Update, messages []*Message)) *albumCollector {
	return &albumCollector{
		albums:   make(map[string][]*Message),
		first:    make(map[string]*Update),
		timers:   make(map[string]*time.Timer),
		timeout:  timeout,
		callback: callback,
	}
}

// add returns true if the update was collected into an album (should not
// be processed individually). Only new messages and channel posts are
// collected; edits of album items go through the regular handlers.
func (c *albumCollector) add(u *Update) bool {
	msg := u.Message
	if msg == nil {
		msg = u.ChannelPost
	}
	if msg == nil || msg.MediaGroupID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	groupID := msg.MediaGroupID
	if len(c.albums[groupID]) == 0 {
		c.first[groupID] = u
	}
	c.albums[groupID] = append(c.albums[groupID], msg)

	if timer, ok := c.timers[groupID]; ok {
		timer.Stop()
	}

	c.timers[groupID] = time.AfterFunc(c.timeout, func() {
		c.flush(groupID)
	})

	return true
}

func (c *albumCollector) flush(groupID string) {
	c.mu.Lock()
	messages := c.albums[groupID]
	first := c.first[groupID]
	delete(c.albums, groupID)
	delete(c.first, groupID)
	delete(c.timers, groupID)
	c.mu.Unlock()

	if len(messages) == 0 {
		return
	}

	// Sort by message ID to ensure correct order
	slices.SortFunc(messages, func(a, b *Message) int {
		return cmp.Compare(a.MessageID, b.MessageID)
	})

	c.callback(first, messages)
}

// pending returns the number of albums still being collected.
func (c *albumCollector) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.albums)
}

// stop cancels all pending album timers.
func (c *albumCollector) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, timer := range c.timers {
		timer.Stop()
	}
	c.albums = make(map[string][]*Message)
	c.first = make(map[string]*Update)
	c.timers = make(map[string]*time.Timer)
}
