// Package publisher owns the authoritative todo list of the application
// process and writes every accepted change through to the snapshot store.
package publisher

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lockscreen-todo/domain"
	"lockscreen-todo/snapshot"
	"lockscreen-todo/storage"
)

const tracerName = "lockscreen-todo/publisher"

// Publisher serialises mutations of the list. Each accepted mutation is
// published before the next one is accepted.
type Publisher struct {
	mu        sync.Mutex
	store     storage.Store
	namespace string
	key       string
	list      domain.TodoList
	newID     func() string
	logger    *log.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Publisher) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithLogger sets the logger used for dropped writes.
func WithLogger(logger *log.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a publisher seeded with initial. Nothing is written until the
// first mutation, Restore or Publish.
func New(store storage.Store, namespace, key string, initial domain.TodoList, opts ...Option) *Publisher {
	if store == nil {
		panic("publisher.New: store is nil")
	}
	p := &Publisher{
		store:     store,
		namespace: namespace,
		key:       key,
		list:      initial.Clone(),
		newID:     uuid.NewString,
		logger:    log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// List returns a copy of the current list.
func (p *Publisher) List() domain.TodoList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list.Clone()
}

// AddTodo prepends a new item. Blank titles are ignored and report false.
func (p *Publisher) AddTodo(ctx context.Context, title string) (domain.TodoItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, ok := domain.AddTodo(p.list, title, p.newID)
	if !ok {
		return domain.TodoItem{}, false
	}
	p.commit(ctx, next)
	return next.Items[0], true
}

// ToggleTodo flips the completed flag of the item with id. Unknown ids are
// ignored and report false.
func (p *Publisher) ToggleTodo(ctx context.Context, id string) (domain.TodoItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, ok := domain.ToggleTodo(p.list, id)
	if !ok {
		return domain.TodoItem{}, false
	}
	p.commit(ctx, next)
	for _, it := range next.Items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.TodoItem{}, false
}

// UpdateTodo replaces the title and completed flag of the item with id. It
// returns domain.ErrTodoNotFound or domain.ErrEmptyTitle without publishing.
func (p *Publisher) UpdateTodo(ctx context.Context, id, title string, completed bool) (domain.TodoItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := domain.UpdateTodo(p.list, id, title, completed)
	if err != nil {
		return domain.TodoItem{}, err
	}
	p.commit(ctx, next)
	for _, it := range next.Items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.TodoItem{}, domain.ErrTodoNotFound
}

// RemoveTodo deletes the item with id. Unknown ids are ignored and report false.
func (p *Publisher) RemoveTodo(ctx context.Context, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, ok := domain.RemoveTodo(p.list, id)
	if !ok {
		return false
	}
	p.commit(ctx, next)
	return true
}

// Restore replaces the seed list with the stored snapshot when one is present
// and decodes cleanly. Otherwise the seed list is published so the widget
// host has something to read. It reports whether a snapshot was restored.
func (p *Publisher) Restore(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if data, ok := p.store.Get(ctx, p.namespace, p.key); ok {
		items, err := snapshot.Decode(data)
		if err == nil {
			p.list = domain.NewTodoList(items)
			return true
		}
		p.logger.WithError(err).WithField("key", p.key).Warn("stored snapshot unreadable; keeping seed list")
	}
	_ = p.publish(ctx, p.list)
	return false
}

// Publish adopts list as the current list and writes it to the store.
// Failures are logged and returned; callers inside the package drop them.
func (p *Publisher) Publish(ctx context.Context, list domain.TodoList) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = list.Clone()
	return p.publish(ctx, p.list)
}

func (p *Publisher) commit(ctx context.Context, next domain.TodoList) {
	p.list = next
	// A dropped write is repaired by the next mutation, which republishes
	// the whole list.
	_ = p.publish(ctx, next)
}

func (p *Publisher) publish(ctx context.Context, list domain.TodoList) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "snapshot.publish", trace.WithAttributes(
		attribute.String("snapshot.namespace", p.namespace),
		attribute.String("snapshot.key", p.key),
		attribute.Int("todo.count", len(list.Items)),
		attribute.Int64("todo.version", int64(list.Version)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "snapshot not published")
		}
		span.End()
	}()

	data, err := snapshot.Encode(list.Items)
	if err != nil {
		p.logger.WithError(err).WithField("version", list.Version).Error("failed to encode snapshot")
		return err
	}
	if err := p.store.Set(ctx, p.namespace, p.key, data); err != nil {
		entry := p.logger.WithError(err).WithFields(log.Fields{
			"namespace": p.namespace,
			"key":       p.key,
			"version":   list.Version,
		})
		if errors.Is(err, storage.ErrStoreUnavailable) {
			entry.Warn("snapshot write dropped")
		} else {
			entry.Error("failed to store snapshot")
		}
		return err
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(data)))
	return nil
}
