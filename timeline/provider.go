// Package timeline turns the stored snapshot into entries for the widget
// host. Every refresh cycle is independent: it reads the store at most once,
// and any read or decode failure resolves to a fixed fallback entry.
package timeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"lockscreen-todo/domain"
	"lockscreen-todo/snapshot"
	"lockscreen-todo/storage"
)

// State is the outcome of one refresh cycle.
type State int

const (
	Placeholder State = iota
	Loaded
	Fallback
)

func (s State) String() string {
	switch s {
	case Placeholder:
		return "placeholder"
	case Loaded:
		return "loaded"
	case Fallback:
		return "fallback"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	placeholderItem = domain.TodoItem{ID: "1", Title: "Check your todos on the lock screen"}
	fallbackItem    = domain.TodoItem{ID: "1", Title: "No widget data"}
)

// Timeline is the answer to one host refresh request: a single entry and
// the time the host should ask again.
type Timeline struct {
	Entries   []domain.Entry `json:"entries"`
	RefreshAt time.Time      `json:"refreshAt"`
	State     State          `json:"state"`
}

// Provider reads snapshots for the widget host.
type Provider struct {
	store     storage.Store
	namespace string
	key       string
	scheduler Scheduler
	now       func() time.Time
	logger    *log.Logger
}

// Option configures a Provider.
type Option func(*Provider)

func WithScheduler(s Scheduler) Option {
	return func(p *Provider) {
		if s != nil {
			p.scheduler = s
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a provider reading namespace/key from store.
func NewProvider(store storage.Store, namespace, key string, opts ...Option) *Provider {
	p := &Provider{
		store:     store,
		namespace: namespace,
		key:       key,
		scheduler: FixedInterval(DefaultInterval),
		now:       time.Now,
		logger:    log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Placeholder returns a hard-coded entry without touching the store.
func (p *Provider) Placeholder() domain.Entry {
	return domain.NewEntry(p.now(), []domain.TodoItem{placeholderItem})
}

// LoadEntry reads and decodes the snapshot. Absent or undecodable data yields
// the fallback entry; errors never escape.
func (p *Provider) LoadEntry(ctx context.Context) (domain.Entry, State) {
	entry, state, _ := p.loadEntry(ctx)
	return entry, state
}

// Snapshot answers an instant host request with a freshly loaded entry.
func (p *Provider) Snapshot(ctx context.Context) domain.Entry {
	entry, _ := p.LoadEntry(ctx)
	return entry
}

// NextRefresh returns when the host should refresh after now.
func (p *Provider) NextRefresh(now time.Time) time.Time {
	return p.scheduler.NextRefresh(now)
}

// Timeline runs one refresh cycle.
func (p *Provider) Timeline(ctx context.Context) Timeline {
	m, ctx := newRefreshMetrics(ctx, p.logger)
	entry, state, cause := p.loadEntry(ctx)
	tl := Timeline{
		Entries:   []domain.Entry{entry},
		RefreshAt: p.scheduler.NextRefresh(entry.Date),
		State:     state,
	}
	m.Finish(tl, cause)
	return tl
}

// PlaceholderTimeline builds a timeline around Placeholder for instant
// previews. It performs no I/O.
func (p *Provider) PlaceholderTimeline() Timeline {
	entry := p.Placeholder()
	return Timeline{
		Entries:   []domain.Entry{entry},
		RefreshAt: p.scheduler.NextRefresh(entry.Date),
		State:     Placeholder,
	}
}

func (p *Provider) loadEntry(ctx context.Context) (domain.Entry, State, error) {
	now := p.now()
	if p.store == nil {
		return domain.NewEntry(now, []domain.TodoItem{fallbackItem}), Fallback, errNoSnapshot
	}
	data, ok := p.store.Get(ctx, p.namespace, p.key)
	if !ok {
		return domain.NewEntry(now, []domain.TodoItem{fallbackItem}), Fallback, errNoSnapshot
	}
	items, err := snapshot.Decode(data)
	if err != nil {
		p.logger.WithError(err).WithField("key", p.key).Debug("snapshot decode failed")
		return domain.NewEntry(now, []domain.TodoItem{fallbackItem}), Fallback, err
	}
	return domain.NewEntry(now, items), Loaded, nil
}
