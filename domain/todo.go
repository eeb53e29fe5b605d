package domain

import (
	"strings"
	"unicode/utf8"
)

// maxIDAttempts bounds the calls AddTodo makes to its id generator.
const maxIDAttempts = 16

// TodoItem is a single entry of the todo list.
type TodoItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TodoList is the authoritative, ordered list owned by the application
// process. Version is bumped on every accepted transition.
type TodoList struct {
	Version uint64
	Items   []TodoItem
}

// NewTodoList returns a list holding a copy of items at version zero.
func NewTodoList(items []TodoItem) TodoList {
	return TodoList{Items: cloneItems(items)}
}

// Clone returns a deep copy of the list.
func (l TodoList) Clone() TodoList {
	return TodoList{Version: l.Version, Items: cloneItems(l.Items)}
}

// Contains reports whether an item with id is present.
func (l TodoList) Contains(id string) bool {
	return l.indexOf(id) >= 0
}

func (l TodoList) indexOf(id string) int {
	for i := range l.Items {
		if l.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddTodo prepends a new incomplete item titled with the trimmed title.
// Invalid UTF-8 in the title is replaced with U+FFFD. The id is produced by
// newID, which is called again while it is empty, not valid UTF-8 or collides
// with an existing item. An empty title, or a generator that yields no usable
// id within maxIDAttempts calls, leaves the list untouched and reports false.
func AddTodo(l TodoList, title string, newID func() string) (TodoList, bool) {
	title = cleanTitle(title)
	if title == "" {
		return l, false
	}
	id, ok := freshID(l, newID)
	if !ok {
		return l, false
	}
	items := make([]TodoItem, 0, len(l.Items)+1)
	items = append(items, TodoItem{ID: id, Title: title})
	items = append(items, l.Items...)
	return TodoList{Version: l.Version + 1, Items: items}, true
}

// UpdateTodo replaces the title and completed flag of the item with id,
// keeping its position. Unknown ids return ErrTodoNotFound and blank titles
// ErrEmptyTitle; the list is untouched in both cases.
func UpdateTodo(l TodoList, id, title string, completed bool) (TodoList, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return l, ErrTodoNotFound
	}
	title = cleanTitle(title)
	if title == "" {
		return l, ErrEmptyTitle
	}
	items := cloneItems(l.Items)
	items[idx].Title = title
	items[idx].Completed = completed
	return TodoList{Version: l.Version + 1, Items: items}, nil
}

func cleanTitle(title string) string {
	return strings.TrimSpace(strings.ToValidUTF8(title, "\uFFFD"))
}

func freshID(l TodoList, newID func() string) (string, bool) {
	for i := 0; i < maxIDAttempts; i++ {
		id := newID()
		if id != "" && utf8.ValidString(id) && !l.Contains(id) {
			return id, true
		}
	}
	return "", false
}

// ToggleTodo flips Completed on the item with id. Order and all other items
// are kept as they are. Unknown ids report false.
func ToggleTodo(l TodoList, id string) (TodoList, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return l, false
	}
	items := cloneItems(l.Items)
	items[idx].Completed = !items[idx].Completed
	return TodoList{Version: l.Version + 1, Items: items}, true
}

// RemoveTodo drops the item with id. Unknown ids report false.
func RemoveTodo(l TodoList, id string) (TodoList, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return l, false
	}
	items := make([]TodoItem, 0, len(l.Items)-1)
	items = append(items, l.Items[:idx]...)
	items = append(items, l.Items[idx+1:]...)
	return TodoList{Version: l.Version + 1, Items: items}, true
}

// Truncate returns a copy of the first min(limit, len(items)) items in their
// existing order.
func Truncate(items []TodoItem, limit int) []TodoItem {
	if limit < 0 {
		limit = 0
	}
	if len(items) < limit {
		limit = len(items)
	}
	return cloneItems(items[:limit])
}

func cloneItems(items []TodoItem) []TodoItem {
	out := make([]TodoItem, len(items))
	copy(out, items)
	return out
}
