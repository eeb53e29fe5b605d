package handlers

import (
	"context"

	"lockscreen-todo/domain"
)

const postTodoMaxSize = 16 * 1024 // 16 KiB

// TodoService is the application-side list owner the handlers mutate.
type TodoService interface {
	List() domain.TodoList
	AddTodo(ctx context.Context, title string) (domain.TodoItem, bool)
	ToggleTodo(ctx context.Context, id string) (domain.TodoItem, bool)
	UpdateTodo(ctx context.Context, id, title string, completed bool) (domain.TodoItem, error)
	RemoveTodo(ctx context.Context, id string) bool
}

// Authenticator validates the Authorization header of a request.
type Authenticator interface {
	Verify(header string) error
}

// Deduper prevents processing of duplicate requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, key string) (bool, error)
	// Remove deletes a previously added key so the request may be retried.
	Remove(ctx context.Context, key string) error
}

// POST /v1/todos request body
type postTodoRequest struct {
	Title string `json:"title"`
}

// PUT /v1/todos/:id request body
type putTodoRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type listResponse struct {
	Version uint64            `json:"version"`
	Todos   []domain.TodoItem `json:"todos"`
}
