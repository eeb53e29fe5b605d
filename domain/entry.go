package domain

import "time"

// DisplayLimit is the number of items rendered on the host surface.
const DisplayLimit = 3

// Entry is one renderable timeline entry for the host surface.
type Entry struct {
	Date  time.Time  `json:"date"`
	Items []TodoItem `json:"items"`
}

// NewEntry builds an entry from the first DisplayLimit items. The entry owns
// its own copy of the items.
func NewEntry(date time.Time, items []TodoItem) Entry {
	return Entry{Date: date, Items: Truncate(items, DisplayLimit)}
}
