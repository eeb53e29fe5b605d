package domain

import "errors"

// ErrTodoNotFound indicates that no item with the requested id exists.
var ErrTodoNotFound = errors.New("todo not found")

// ErrEmptyTitle indicates that a title was blank after trimming.
var ErrEmptyTitle = errors.New("empty title")
