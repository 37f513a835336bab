// Package tagpage keeps the tag list, the comma-separated entry and the tag
// store of one property page in sync.
//
// A Session owns a ListStore of rows and an Entry. Every row change is
// echoed into the entry as the labels of the checked rows; activating the
// entry applies its labels to every selected file. Programmatic updates
// suppress the echo so the views never feed back into each other.
package tagpage

import (
	"errors"
	"fmt"
)

// ErrRowOutOfRange is returned for row indexes outside the store.
var ErrRowOutOfRange = errors.New("row index out of range")

// Row is one tag's membership across the selection.
type Row struct {
	// Included is true when every selected file carries the tag.
	Included bool
	Label    string

	// Count is the number of selected files carrying the tag when the row
	// was last computed.
	Count int

	// Inconsistent marks a tag carried by some but not all files.
	Inconsistent bool
}

// RowChangedFunc is called after a row was appended or modified.
type RowChangedFunc func(index int, row Row)

// ListStore is an ordered list of rows with change notification.
type ListStore struct {
	rows       []Row
	handlers   []RowChangedFunc
	suppressed int
}

// NewListStore returns an empty store.
func NewListStore() *ListStore {
	return &ListStore{}
}

// OnRowChanged registers fn for row changes.
func (s *ListStore) OnRowChanged(fn RowChangedFunc) {
	s.handlers = append(s.handlers, fn)
}

// Suppress stops change notification until the returned func is called.
// Calls nest.
func (s *ListStore) Suppress() (restore func()) {
	s.suppressed++
	done := false
	return func() {
		if done {
			return
		}
		done = true
		s.suppressed--
	}
}

// Len returns the number of rows.
func (s *ListStore) Len() int {
	return len(s.rows)
}

// Row returns the row at i.
func (s *ListStore) Row(i int) (Row, error) {
	if err := s.check(i); err != nil {
		return Row{}, err
	}
	return s.rows[i], nil
}

// Rows returns a copy of all rows.
func (s *ListStore) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Append adds a row at the end and returns its index.
func (s *ListStore) Append(row Row) int {
	s.rows = append(s.rows, row)
	i := len(s.rows) - 1
	s.changed(i)
	return i
}

// Set replaces the row at i.
func (s *ListStore) Set(i int, row Row) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.rows[i] = row
	s.changed(i)
	return nil
}

// Remove deletes the row at i. Removal does not notify.
func (s *ListStore) Remove(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

// RemoveAll removes every row and keeps the handlers.
func (s *ListStore) RemoveAll() {
	s.rows = nil
}

// Clear removes all rows and handlers.
func (s *ListStore) Clear() {
	s.rows = nil
	s.handlers = nil
}

// Checked returns the labels of the included rows in row order.
func (s *ListStore) Checked() []string {
	var out []string
	for _, row := range s.rows {
		if row.Included {
			out = append(out, row.Label)
		}
	}
	return out
}

func (s *ListStore) check(i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, i, len(s.rows))
	}
	return nil
}

func (s *ListStore) changed(i int) {
	if s.suppressed > 0 {
		return
	}
	row := s.rows[i]
	for _, fn := range s.handlers {
		fn(i, row)
	}
}
