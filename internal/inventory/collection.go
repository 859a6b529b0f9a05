package inventory

import "github.com/google/uuid"

// NewID returns a time-ordered id (UUIDv7), unique even for items created
// within the same millisecond.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Upsert returns a new collection where it replaces the item with the same
// id, or is appended when no such item exists. items is not modified.
func Upsert(items []Item, it Item) []Item {
	out := make([]Item, 0, len(items)+1)
	replaced := false
	for _, cur := range items {
		if cur.ID == it.ID {
			out = append(out, it)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, it)
	}
	return out
}

// Remove returns a new collection without the item with id.
func Remove(items []Item, id string) []Item {
	out := make([]Item, 0, len(items))
	for _, cur := range items {
		if cur.ID != id {
			out = append(out, cur)
		}
	}
	return out
}

func Find(items []Item, id string) (Item, bool) {
	for _, cur := range items {
		if cur.ID == id {
			return cur, true
		}
	}
	return Item{}, false
}
