package domain

import (
	"reflect"
	"strconv"
	"testing"
	"time"
)

func seqIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func sampleList() TodoList {
	return NewTodoList([]TodoItem{
		{ID: "1", Title: "A"},
		{ID: "2", Title: "B", Completed: true},
		{ID: "3", Title: "C"},
	})
}

func TestAddTodoIgnoresBlankTitles(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		l := sampleList()
		got, ok := AddTodo(l, title, seqIDs("x"))
		if ok {
			t.Fatalf("AddTodo(%q) reported a change", title)
		}
		if !reflect.DeepEqual(got, l) {
			t.Fatalf("AddTodo(%q) changed list: %+v", title, got)
		}
	}
}

func TestAddTodoPrependsTrimmedItem(t *testing.T) {
	l := sampleList()
	got, ok := AddTodo(l, " Buy milk ", seqIDs("new"))
	if !ok {
		t.Fatalf("expected item to be added")
	}
	if len(got.Items) != len(l.Items)+1 {
		t.Fatalf("unexpected length: %d", len(got.Items))
	}
	first := got.Items[0]
	if first.Title != "Buy milk" || first.Completed || first.ID != "new" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if !reflect.DeepEqual(got.Items[1:], l.Items) {
		t.Fatalf("existing items changed: %+v", got.Items[1:])
	}
	if got.Version != l.Version+1 {
		t.Fatalf("expected version bump, got %d", got.Version)
	}
}

func TestAddTodoRegeneratesCollidingIDs(t *testing.T) {
	l := sampleList()
	got, ok := AddTodo(l, "D", seqIDs("1", "", "2", "fresh"))
	if !ok {
		t.Fatalf("expected item to be added")
	}
	if got.Items[0].ID != "fresh" {
		t.Fatalf("expected fresh id, got %q", got.Items[0].ID)
	}
}

func TestAddTodoRepairsInvalidUTF8(t *testing.T) {
	l := NewTodoList(nil)
	got, ok := AddTodo(l, "x\xffy", seqIDs("a\xff", "a\xfe", "ok"))
	if !ok {
		t.Fatalf("expected item to be added")
	}
	item := got.Items[0]
	if item.Title != "x\uFFFDy" {
		t.Fatalf("unexpected title: %q", item.Title)
	}
	if item.ID != "ok" {
		t.Fatalf("invalid ids should be regenerated, got %q", item.ID)
	}
}

func TestAddTodoGivesUpOnExhaustedGenerator(t *testing.T) {
	l := sampleList()
	calls := 0
	gen := func() string {
		calls++
		return "1"
	}
	got, ok := AddTodo(l, "D", gen)
	if ok {
		t.Fatalf("expected AddTodo to give up")
	}
	if !reflect.DeepEqual(got, l) {
		t.Fatalf("list changed: %+v", got)
	}
	if calls != maxIDAttempts {
		t.Fatalf("generator called %d times, want %d", calls, maxIDAttempts)
	}
}

func TestUpdateTodo(t *testing.T) {
	l := sampleList()
	got, err := UpdateTodo(l, "2", "  Bee ", false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []TodoItem{{ID: "1", Title: "A"}, {ID: "2", Title: "Bee"}, {ID: "3", Title: "C"}}
	if !reflect.DeepEqual(got.Items, want) {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if got.Version != l.Version+1 {
		t.Fatalf("expected version bump, got %d", got.Version)
	}
	if l.Items[1].Title != "B" {
		t.Fatalf("input list was mutated")
	}
}

func TestUpdateTodoRejects(t *testing.T) {
	cases := []struct {
		name  string
		id    string
		title string
		want  error
	}{
		{"unknown id", "missing", "X", ErrTodoNotFound},
		{"blank title", "1", "   ", ErrEmptyTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := sampleList()
			got, err := UpdateTodo(l, tc.id, tc.title, true)
			if err != tc.want {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !reflect.DeepEqual(got, l) {
				t.Fatalf("list changed: %+v", got)
			}
		})
	}
}

func TestAddTodoDoesNotAliasInput(t *testing.T) {
	l := sampleList()
	got, _ := AddTodo(l, "D", seqIDs("4"))
	got.Items[1].Title = "mutated"
	if l.Items[0].Title != "A" {
		t.Fatalf("input list was mutated")
	}
}

func TestToggleTodoFlipsOnlyMatchingItem(t *testing.T) {
	l := sampleList()
	got, ok := ToggleTodo(l, "2")
	if !ok {
		t.Fatalf("expected toggle to apply")
	}
	for i, it := range got.Items {
		want := l.Items[i]
		if it.ID == "2" {
			want.Completed = !want.Completed
		}
		if it != want {
			t.Fatalf("item %d = %+v, want %+v", i, it, want)
		}
	}
	if !l.Items[1].Completed {
		t.Fatalf("input list was mutated")
	}
}

func TestToggleTodoUnknownID(t *testing.T) {
	l := sampleList()
	got, ok := ToggleTodo(l, "missing")
	if ok {
		t.Fatalf("expected no change for unknown id")
	}
	if !reflect.DeepEqual(got, l) {
		t.Fatalf("list changed: %+v", got)
	}
}

func TestRemoveTodo(t *testing.T) {
	l := sampleList()
	got, ok := RemoveTodo(l, "2")
	if !ok {
		t.Fatalf("expected removal")
	}
	want := []TodoItem{{ID: "1", Title: "A"}, {ID: "3", Title: "C"}}
	if !reflect.DeepEqual(got.Items, want) {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if _, ok := RemoveTodo(got, "2"); ok {
		t.Fatalf("expected second removal to be a no-op")
	}
}

func TestTruncate(t *testing.T) {
	items := make([]TodoItem, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, TodoItem{ID: strconv.Itoa(i), Title: "t", Completed: i%2 == 0})
	}
	tests := []struct {
		name  string
		items []TodoItem
		want  int
	}{
		{name: "empty", items: nil, want: 0},
		{name: "shorter than limit", items: items[:2], want: 2},
		{name: "exact", items: items[:3], want: 3},
		{name: "longer than limit", items: items, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.items, DisplayLimit)
			if len(got) != tt.want {
				t.Fatalf("Truncate len = %d, want %d", len(got), tt.want)
			}
			for i := range got {
				if got[i] != tt.items[i] {
					t.Fatalf("item %d = %+v, want %+v", i, got[i], tt.items[i])
				}
			}
		})
	}
}

func TestNewEntryOwnsItems(t *testing.T) {
	items := []TodoItem{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}, {ID: "3", Title: "C"}, {ID: "4", Title: "D"}}
	date := time.Unix(100, 0)
	e := NewEntry(date, items)
	if len(e.Items) != DisplayLimit || !e.Date.Equal(date) {
		t.Fatalf("unexpected entry: %+v", e)
	}
	items[0].Title = "changed"
	if e.Items[0].Title != "A" {
		t.Fatalf("entry shares backing array with input")
	}
}
