// Package ordering computes fractional sort keys for lists within a board and
// cards within a list. Moving or inserting one item never rewrites its siblings.
package ordering

import (
	"errors"
	"sort"
)

// Gap between consecutive appended items.
const (
	ListInterval = 1000.0
	CardInterval = 1024.0
)

var ErrAnchorNotFound = errors.New("ordering: anchor is not a sibling")

// Item is one sibling's identity and sort key.
type Item struct {
	ID       int64
	Position float64
}

// Engine places items among siblings using a fixed interval.
type Engine struct {
	interval float64
}

func New(interval float64) Engine {
	return Engine{interval: interval}
}

func (e Engine) Interval() float64 {
	return e.interval
}

// Append returns a position after every sibling.
func (e Engine) Append(siblings []Item) float64 {
	last := 0.0
	for _, s := range siblings {
		if s.Position > last {
			last = s.Position
		}
	}
	return last + e.interval
}

// Head returns a position before every sibling.
func (e Engine) Head(siblings []Item) float64 {
	if len(siblings) == 0 {
		return e.interval
	}
	return Sorted(siblings)[0].Position / 2
}

// After returns a position between the anchor and its successor, or one
// interval past the anchor when it is last.
func (e Engine) After(siblings []Item, anchorID int64) (float64, error) {
	sorted := Sorted(siblings)
	for i, s := range sorted {
		if s.ID != anchorID {
			continue
		}
		if i+1 < len(sorted) {
			return (s.Position + sorted[i+1].Position) / 2, nil
		}
		return s.Position + e.interval, nil
	}
	return 0, ErrAnchorNotFound
}

// Sorted returns a copy of items ordered by position, ties broken by id.
func Sorted(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position == out[j].Position {
			return out[i].ID < out[j].ID
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// Without drops the item with the given id, used to exclude the item being moved.
func Without(items []Item, id int64) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
