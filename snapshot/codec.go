// Package snapshot encodes the todo list into the byte form shared between
// the application and the widget host.
package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"lockscreen-todo/domain"
)

var (
	// ErrDecode is matched by every error returned from Decode.
	ErrDecode = errors.New("snapshot: decode failed")
	// ErrInvalidUTF8 is returned by Encode for ids or titles that would not
	// survive a round trip.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// DecodeError describes why stored bytes could not be turned into a list.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot: %s: %v", e.Reason, e.Err)
	}
	return "snapshot: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

type wireItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// incoming fields are pointers so absent keys can be told apart from zero values.
type incomingItem struct {
	ID        *string `json:"id"`
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// Encode returns the JSON array form of items. The output is deterministic
// for a given list and a nil list encodes as an empty array. Ids and titles
// must be valid UTF-8; Encode fails rather than rewrite them.
func Encode(items []domain.TodoItem) ([]byte, error) {
	wire := make([]wireItem, len(items))
	for i, it := range items {
		if !utf8.ValidString(it.ID) || !utf8.ValidString(it.Title) {
			return nil, fmt.Errorf("snapshot: encode: item %d: %w", i, ErrInvalidUTF8)
		}
		wire[i] = wireItem{ID: it.ID, Title: it.Title, Completed: it.Completed}
	}
	data, err := sonic.ConfigStd.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Decode parses data produced by Encode. Unknown fields are ignored and a
// missing completed flag defaults to false. Missing or blank ids and titles,
// duplicate ids and anything that is not a JSON array yield a *DecodeError.
func Decode(data []byte) (items []domain.TodoItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = &DecodeError{Reason: fmt.Sprintf("decoder panic: %v", r)}
		}
	}()

	var wire *[]incomingItem
	if err := sonic.ConfigStd.Unmarshal(data, &wire); err != nil {
		return nil, &DecodeError{Reason: "malformed payload", Err: err}
	}
	if wire == nil {
		return nil, &DecodeError{Reason: "payload is null"}
	}

	items = make([]domain.TodoItem, 0, len(*wire))
	seen := make(map[string]struct{}, len(*wire))
	for i, w := range *wire {
		if w.ID == nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d: missing id", i)}
		}
		if w.Title == nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d: missing title", i)}
		}
		if *w.ID == "" {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d: empty id", i)}
		}
		if strings.TrimSpace(*w.Title) == "" {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d: blank title", i)}
		}
		if _, dup := seen[*w.ID]; dup {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d: duplicate id %q", i, *w.ID)}
		}
		seen[*w.ID] = struct{}{}
		it := domain.TodoItem{ID: *w.ID, Title: *w.Title}
		if w.Completed != nil {
			it.Completed = *w.Completed
		}
		items = append(items, it)
	}
	return items, nil
}
