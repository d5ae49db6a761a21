package botkit

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// Dispatcher routes updates to handlers organised in numbered groups.
//
// Groups run in ascending order. Within a group the first handler whose
// CheckUpdate accepts the update handles it, so at most one handler runs
// per group. A handler returning ErrHandlerStop ends processing of the
// update. Any other error is passed to the error handlers.
type Dispatcher struct {
	bot         *Bot
	logger      *slog.Logger
	metrics     *Metrics
	persistence Persistence
	workers     int

	mu            sync.RWMutex
	groups        map[int][]Handler
	order         []int
	errorHandlers []HandlerFunc
	albumHandlers []albumHandler

	albums      *albumCollector
	commandLock *CommandLock
	username    atomic.Pointer[string]
	base        atomic.Pointer[context.Context]

	dataMu    sync.Mutex
	persistMu sync.Mutex
	users     map[int64]map[string]any
	chats     map[int64]map[string]any
	shared    map[string]any
	loadOnce  sync.Once
	loadErr   error

	wg sync.WaitGroup
}

func newDispatcher(b *Bot) *Dispatcher {
	d := &Dispatcher{
		bot:         b,
		logger:      b.config.Logger,
		metrics:     b.metrics,
		persistence: b.config.Persistence,
		workers:     b.config.Workers,
		groups:      make(map[int][]Handler),
		commandLock: NewCommandLock(),
		users:       make(map[int64]map[string]any),
		chats:       make(map[int64]map[string]any),
		shared:      make(map[string]any),
	}
	d.albums = newAlbumCollector(b.config.AlbumTimeout, d.handleAlbum)
	return d
}

// AddHandler appends h to group. Persistent conversation handlers load
// their states when added.
func (d *Dispatcher) AddHandler(h Handler, group int) {
	if conv, ok := h.(*ConversationHandler); ok {
		if err := conv.attach(context.Background(), d); err != nil {
			d.logger.Error("failed to load conversation states",
				"conversation", conv.Name,
				"error", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.groups[group]; !ok {
		d.order = append(d.order, group)
		slices.Sort(d.order)
	}
	d.groups[group] = append(d.groups[group], h)
}

// RemoveHandler removes h from group. Handlers are compared by identity.
// It reports whether h was found.
func (d *Dispatcher) RemoveHandler(h Handler, group int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.groups[group]
	i := slices.Index(handlers, h)
	if i < 0 {
		return false
	}
	// Copy so that snapshots held by running updates stay intact.
	d.groups[group] = slices.Delete(slices.Clone(handlers), i, i+1)
	if len(d.groups[group]) == 0 {
		delete(d.groups, group)
		d.order = slices.DeleteFunc(d.order, func(g int) bool { return g == group })
	}
	return true
}

// AddErrorHandler registers fn to receive handler errors in Context.HandlerErr.
func (d *Dispatcher) AddErrorHandler(fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorHandlers = append(d.errorHandlers, fn)
}

// OnAlbum registers fn for media groups. Messages sharing a media_group_id
// are collected for the album timeout and delivered together, sorted by
// message ID, in Context.Messages. The filter is checked against the
// first update of the album.
func (d *Dispatcher) OnAlbum(filter Filter, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.albumHandlers = append(d.albumHandlers, albumHandler{fn: fn, filter: filter})
}

// Handlers returns a snapshot of the handlers in group order.
func (d *Dispatcher) Handlers() []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var all []Handler
	for _, g := range d.order {
		all = append(all, d.groups[g]...)
	}
	return all
}

// Run starts the configured number of workers consuming updates until ctx
// is done or updates is closed. It returns immediately; Stop waits for the
// workers. With one worker updates are handled in arrival order.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan *Update) {
	d.base.Store(&ctx)

	for range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case u, ok := <-updates:
					if !ok {
						return
					}
					d.ProcessUpdate(ctx, u)
				}
			}
		}()
	}
}

// Stop waits for in-flight updates and drops albums still being collected.
func (d *Dispatcher) Stop() {
	d.wg.Wait()
	d.albums.stop()
	for _, h := range d.Handlers() {
		if conv, ok := h.(*ConversationHandler); ok {
			conv.stopTimers()
		}
	}
}

// ProcessUpdate runs the handlers for u and returns when they are done.
// Albums are the exception: their messages are collected and handled
// once the album timeout expires.
func (d *Dispatcher) ProcessUpdate(ctx context.Context, u *Update) {
	if u == nil {
		return
	}
	d.metrics.observeUpdate(u.Kind())
	if name := d.username.Load(); name != nil {
		u.botUsername = *name
	}

	d.mu.RLock()
	hasAlbumHandlers := len(d.albumHandlers) > 0
	d.mu.RUnlock()
	if hasAlbumHandlers && d.albums.add(u) {
		return
	}

	c := d.newContext(ctx, u)
	defer d.persist(c)

	d.mu.RLock()
	order := slices.Clone(d.order)
	groups := make([][]Handler, len(order))
	for i, g := range order {
		groups[i] = d.groups[g]
	}
	d.mu.RUnlock()

	for _, handlers := range groups {
		for _, h := range handlers {
			ok, data := h.CheckUpdate(u)
			if !ok {
				continue
			}
			c.Args, c.Matches, c.params = nil, nil, nil
			if err := h.HandleUpdate(c, u, data); err != nil {
				if errors.Is(err, ErrHandlerStop) {
					return
				}
				d.handleError(c, err)
			}
			break
		}
	}
}

func (d *Dispatcher) handleAlbum(first *Update, messages []*Message) {
	ctx := context.Background()
	if base := d.base.Load(); base != nil {
		ctx = *base
	}
	if ctx.Err() != nil {
		return
	}

	d.mu.RLock()
	handlers := d.albumHandlers
	d.mu.RUnlock()

	c := d.newContext(ctx, first)
	c.messages = messages
	defer d.persist(c)

	for _, h := range handlers {
		matches, ok := MatchFilter(h.filter, first)
		if !ok {
			continue
		}
		c.Matches = matches
		if err := h.fn(c); err != nil {
			if errors.Is(err, ErrHandlerStop) {
				return
			}
			d.handleError(c, err)
		}
	}
}

// handleError passes err to the error handlers, or logs it when there
// are none. Errors returned by error handlers are only logged.
func (d *Dispatcher) handleError(c *Context, err error) {
	d.metrics.observeHandlerError()

	d.mu.RLock()
	handlers := d.errorHandlers
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.logger.Error("handler error",
			"update_id", updateID(c.update),
			"chat_id", c.ChatID(),
			"error", err)
		return
	}

	c.HandlerErr = err
	defer func() { c.HandlerErr = nil }()
	for _, fn := range handlers {
		if herr := fn(c); herr != nil {
			d.logger.Error("error handler failed",
				"handler_error", err,
				"error", herr)
		}
	}
}

func (d *Dispatcher) newContext(ctx context.Context, u *Update) *Context {
	return &Context{
		Context:    ctx,
		bot:        d.bot,
		dispatcher: d,
		update:     u,
	}
}

func (d *Dispatcher) setUsername(name string) {
	d.username.Store(&name)
}

func updateID(u *Update) int {
	if u == nil {
		return 0
	}
	return u.UpdateID
}

// Load reads user, chat and bot data from persistence. It runs once;
// later calls return the first result. Bot.Run calls it before receiving
// updates.
func (d *Dispatcher) Load(ctx context.Context) error {
	d.loadOnce.Do(func() {
		if d.persistence == nil {
			return
		}
		d.loadErr = d.load(ctx)
	})
	return d.loadErr
}

func (d *Dispatcher) load(ctx context.Context) error {
	users, err := d.persistence.GetUserData(ctx)
	if err != nil {
		return err
	}
	chats, err := d.persistence.GetChatData(ctx)
	if err != nil {
		return err
	}
	shared, err := d.persistence.GetBotData(ctx)
	if err != nil {
		return err
	}

	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	for id, data := range users {
		d.users[id] = data
	}
	for id, data := range chats {
		d.chats[id] = data
	}
	for k, v := range shared {
		d.shared[k] = v
	}
	return nil
}

// dataView is a Context's private copy of one data map. Handlers read and
// write the copy; persist merges the keys they changed into the shared map.
// Nested values are copied by reference, so replace them instead of
// mutating them in place.
type dataView struct {
	id   int64
	base map[string]any
	work map[string]any
}

func newDataView(id int64, data map[string]any) *dataView {
	return &dataView{id: id, base: data, work: maps.Clone(data)}
}

// apply writes the keys changed in v onto dst and removes the deleted ones.
func (v *dataView) apply(dst map[string]any) {
	for k, val := range v.work {
		if old, ok := v.base[k]; !ok || !reflect.DeepEqual(old, val) {
			dst[k] = val
		}
	}
	for k := range v.base {
		if _, ok := v.work[k]; !ok {
			delete(dst, k)
		}
	}
}

func (d *Dispatcher) userData(id int64) *dataView {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return newDataView(id, cloneData(d.users[id]))
}

func (d *Dispatcher) chatData(id int64) *dataView {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return newDataView(id, cloneData(d.chats[id]))
}

func (d *Dispatcher) botData() *dataView {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	return newDataView(0, cloneData(d.shared))
}

func cloneData(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return maps.Clone(m)
}

func mergeData(store map[int64]map[string]any, v *dataView) map[string]any {
	m, ok := store[v.id]
	if !ok {
		m = make(map[string]any)
		store[v.id] = m
	}
	v.apply(m)
	return maps.Clone(m)
}

// persist merges the data maps opened while handling c into the shared
// maps and writes the result to persistence. It runs even when the
// update's context is cancelled.
func (d *Dispatcher) persist(c *Context) {
	if c.userView == nil && c.chatView == nil && c.botView == nil {
		return
	}

	// persistMu keeps snapshots reaching persistence in merge order.
	d.persistMu.Lock()
	defer d.persistMu.Unlock()

	var users, chats, shared map[string]any
	d.dataMu.Lock()
	if c.userView != nil {
		users = mergeData(d.users, c.userView)
	}
	if c.chatView != nil {
		chats = mergeData(d.chats, c.chatView)
	}
	if c.botView != nil {
		c.botView.apply(d.shared)
		shared = maps.Clone(d.shared)
	}
	d.dataMu.Unlock()

	// Later calls for the same Context only merge what changed since.
	for _, v := range []*dataView{c.userView, c.chatView, c.botView} {
		if v != nil {
			v.base = maps.Clone(v.work)
		}
	}

	if d.persistence == nil {
		return
	}
	ctx := context.WithoutCancel(c)

	if users != nil {
		if err := d.persistence.UpdateUserData(ctx, c.userView.id, users); err != nil {
			d.logger.Error("failed to persist user data", "user_id", c.userView.id, "error", err)
		}
	}
	if chats != nil {
		if err := d.persistence.UpdateChatData(ctx, c.chatView.id, chats); err != nil {
			d.logger.Error("failed to persist chat data", "chat_id", c.chatView.id, "error", err)
		}
	}
	if shared != nil {
		if err := d.persistence.UpdateBotData(ctx, shared); err != nil {
			d.logger.Error("failed to persist bot data", "error", err)
		}
	}
}
