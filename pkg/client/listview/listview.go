// Package listview keeps the client-side state of the paginated product
// listing: page, page size, search term and the last result set.
package listview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smallbiznis/catalog/pkg/client"
	"github.com/smallbiznis/catalog/pkg/clock"
	"go.uber.org/zap"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultLimit    = 10
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Fetcher is the part of the API client the view queries.
type Fetcher interface {
	ListProducts(ctx context.Context, p client.ListParams) (*client.ListResult, error)
}

type Config struct {
	Debounce time.Duration
	Limit    int
	Clock    clock.Clock
	Session  *client.Session
	Log      *zap.Logger

	// OnError runs after a failed query, once the result set is cleared.
	OnError func(error)
	// OnLogout runs when a query is rejected as unauthorized.
	OnLogout func()
	// OnState observes every state transition.
	OnState func(State)
}

// Snapshot is a copy of the view state.
type Snapshot struct {
	State    State
	Search   string
	Page     int
	Limit    int
	Products []client.Product
	Total    int64
	LastPage int
	From     *int
	To       *int
}

type View struct {
	fetcher Fetcher
	cfg     Config
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	state    State
	search   string
	page     int
	limit    int
	result   *client.ListResult
	seq      uint64
	debounce clock.Timer
}

func New(fetcher Fetcher, cfg Config) *View {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	cfg.Log = cfg.Log.Named("catalog.listview")

	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		fetcher: fetcher,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		state:   StateIdle,
		page:    1,
		limit:   cfg.Limit,
	}
}

// Close stops any pending debounced query and cancels in-flight requests.
func (v *View) Close() {
	v.mu.Lock()
	v.stopDebounceLocked()
	v.mu.Unlock()
	v.cancel()
}

// Load issues a query for the current page, size and search term.
func (v *View) Load() error {
	v.mu.Lock()
	v.stopDebounceLocked()
	v.mu.Unlock()
	return v.query()
}

// SetSearch records a new search term and schedules a first-page query once
// no further change arrives within the debounce window.
func (v *View) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if term == v.search && v.debounce == nil {
		return
	}
	v.search = term
	v.page = 1
	v.stopDebounceLocked()

	var t clock.Timer
	t = v.cfg.Clock.AfterFunc(v.cfg.Debounce, func() {
		v.mu.Lock()
		if v.debounce != t {
			v.mu.Unlock()
			return
		}
		v.debounce = nil
		v.mu.Unlock()
		_ = v.query()
	})
	v.debounce = t
}

func (v *View) SetPage(page int) error {
	if page < 1 {
		page = 1
	}
	v.mu.Lock()
	v.page = page
	v.stopDebounceLocked()
	v.mu.Unlock()
	return v.query()
}

// SetLimit changes the page size and returns to the first page.
func (v *View) SetLimit(limit int) error {
	if limit <= 0 {
		limit = v.cfg.Limit
	}
	v.mu.Lock()
	v.limit = limit
	v.page = 1
	v.stopDebounceLocked()
	v.mu.Unlock()
	return v.query()
}

// ResetFilter restores the default page size, clears the search term and
// queries the first page.
func (v *View) ResetFilter() error {
	v.mu.Lock()
	v.limit = v.cfg.Limit
	v.search = ""
	v.page = 1
	v.stopDebounceLocked()
	v.mu.Unlock()
	return v.query()
}

func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == StateLoading
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		State:  v.state,
		Search: v.search,
		Page:   v.page,
		Limit:  v.limit,
	}
	if v.result != nil {
		s.Products = append([]client.Product(nil), v.result.Data...)
		s.Total = v.result.Total
		s.LastPage = v.result.LastPage
		s.From = v.result.From
		s.To = v.result.To
	}
	return s
}

func (v *View) stopDebounceLocked() {
	if v.debounce != nil {
		v.debounce.Stop()
		v.debounce = nil
	}
}

func (v *View) query() error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	params := client.ListParams{Search: v.search, Page: v.page, Limit: v.limit}
	v.setStateLocked(StateLoading)
	v.mu.Unlock()

	res, err := v.fetcher.ListProducts(v.ctx, params)

	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		v.cfg.Log.Debug("discarding stale response", zap.Uint64("seq", seq))
		return nil
	}
	if err != nil {
		v.result = nil
		v.setStateLocked(StateError)
		v.setStateLocked(StateIdle)
		v.mu.Unlock()
		v.fail(err)
		return err
	}
	v.result = res
	v.setStateLocked(StateSuccess)
	v.setStateLocked(StateIdle)
	v.mu.Unlock()
	return nil
}

func (v *View) fail(err error) {
	v.cfg.Log.Warn("list query failed", zap.Error(err))
	// a missing token is handled like a rejected one
	if client.IsUnauthorized(err) || errors.Is(err, client.ErrNoSession) {
		if v.cfg.Session != nil {
			v.cfg.Session.Clear()
		}
		if v.cfg.OnLogout != nil {
			v.cfg.OnLogout()
		}
	}
	if v.cfg.OnError != nil {
		v.cfg.OnError(err)
	}
}

// setStateLocked must be called with mu held. OnState must not call back
// into the view.
func (v *View) setStateLocked(s State) {
	v.state = s
	if v.cfg.OnState != nil {
		v.cfg.OnState(s)
	}
}
