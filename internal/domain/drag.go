package domain

import (
	"cmp"
	"slices"
)

// DirtySet holds ids of issues whose status or position changed locally and
// still have to be pushed upstream.
type DirtySet struct {
	ids map[IssueID]struct{}
}

// NewDirtySet returns an empty set.
func NewDirtySet() *DirtySet {
	return &DirtySet{ids: make(map[IssueID]struct{})}
}

// Add marks an id dirty.
func (d *DirtySet) Add(id IssueID) {
	if d.ids == nil {
		d.ids = make(map[IssueID]struct{})
	}
	d.ids[id] = struct{}{}
}

// Contains reports whether id is dirty.
func (d *DirtySet) Contains(id IssueID) bool {
	_, ok := d.ids[id]
	return ok
}

// Len returns the number of dirty ids.
func (d *DirtySet) Len() int {
	return len(d.ids)
}

// IDs returns the dirty ids in ascending order.
func (d *DirtySet) IDs() []IssueID {
	out := make([]IssueID, 0, len(d.ids))
	for id := range d.ids {
		out = append(out, id)
	}
	slices.SortFunc(out, cmp.Compare[IssueID])
	return out
}

// Clear empties the set.
func (d *DirtySet) Clear() {
	clear(d.ids)
}

// DragState tracks the issue being dragged and the last drop target for one
// board session. It is not safe for concurrent use; a session mutates it only
// from its event loop.
type DragState struct {
	dragged *IssueID
	last    *IssueID
	dirty   *DirtySet
}

// NewDragState returns an idle drag state with an empty dirty set.
func NewDragState() *DragState {
	return &DragState{dirty: NewDirtySet()}
}

// Drag starts dragging id, replacing any current drag target.
func (s *DragState) Drag(id IssueID) {
	s.dragged = &id
}

// Dragged returns the dragged issue id.
func (s *DragState) Dragged() (IssueID, bool) {
	if s.dragged == nil {
		return 0, false
	}
	return *s.dragged, true
}

// IsDragging reports whether an issue is being dragged.
func (s *DragState) IsDragging() bool {
	return s.dragged != nil
}

// Last returns the most recent drop target.
func (s *DragState) Last() (IssueID, bool) {
	if s.last == nil {
		return 0, false
	}
	return *s.last, true
}

// DraggedOrLast reports whether id is the dragged issue or the last drop
// target. Repeated drag-over events on the same element are skipped with it.
func (s *DragState) DraggedOrLast(id IssueID) bool {
	if s.dragged != nil && *s.dragged == id {
		return true
	}
	return s.last != nil && *s.last == id
}

// SetLast records the most recent drop target.
func (s *DragState) SetLast(id IssueID) {
	s.last = &id
}

// Leave forgets the last drop target after the pointer left it.
func (s *DragState) Leave() {
	s.last = nil
}

// Stop ends the drag. The last drop target is kept.
func (s *DragState) Stop() {
	s.dragged = nil
}

// MarkDirty adds id to the dirty set.
func (s *DragState) MarkDirty(id IssueID) {
	s.dirty.Add(id)
}

// Dirty returns the session's dirty set.
func (s *DragState) Dirty() *DirtySet {
	return s.dirty
}

// Clear empties the dirty set.
func (s *DragState) Clear() {
	s.dirty.Clear()
}
