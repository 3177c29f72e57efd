package domain

import "slices"

// Outcome describes what a reordering step did.
type Outcome int

const (
	OutcomeMoved          Outcome = iota // Collection rewritten
	OutcomeUnchanged                     // Dragged issue already in the target column
	OutcomeGuarded                       // Target is the dragged issue or the last drop target
	OutcomeNothingDragged                // No drag in progress
	OutcomeNotFound                      // Dragged or target issue missing from the collection
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeGuarded:
		return "guarded"
	case OutcomeNothingDragged:
		return "nothing dragged"
	case OutcomeNotFound:
		return "not found"
	}
	return "unknown"
}

// Changed reports whether the collection may differ from the input.
func (o Outcome) Changed() bool {
	return o == OutcomeMoved || o == OutcomeUnchanged
}

// ExchangePosition moves the dragged issue onto the target issue.
//
// Within one column the two positions are swapped. Across columns the dragged
// issue is inserted right after the target and every later issue of the
// target column is shifted down by one. Every rewritten issue is marked dirty
// and the target becomes the last drop target.
//
// The input slice is never modified; on any outcome other than OutcomeMoved
// it is returned as is.
func ExchangePosition(drag *DragState, issues []Issue, targetID IssueID) ([]Issue, Outcome) {
	if drag.DraggedOrLast(targetID) {
		return issues, OutcomeGuarded
	}
	draggedID, ok := drag.Dragged()
	if !ok {
		return issues, OutcomeNothingDragged
	}

	var target, dragged *Issue
	rest := make([]Issue, 0, len(issues))
	for i := range issues {
		switch issues[i].ID {
		case targetID:
			target = new(Issue)
			*target = issues[i]
		case draggedID:
			dragged = new(Issue)
			*dragged = issues[i]
		default:
			rest = append(rest, issues[i])
		}
	}
	if target == nil || dragged == nil {
		return issues, OutcomeNotFound
	}

	if dragged.IssueStatusID != target.IssueStatusID {
		for i := range rest {
			c := &rest[i]
			if c.IssueStatusID == target.IssueStatusID && c.ListPosition > target.ListPosition {
				c.ListPosition++
				drag.MarkDirty(c.ID)
			}
		}
		dragged.IssueStatusID = target.IssueStatusID
		dragged.ListPosition = target.ListPosition + 1
	} else {
		dragged.ListPosition, target.ListPosition = target.ListPosition, dragged.ListPosition
	}

	drag.MarkDirty(dragged.ID)
	drag.MarkDirty(target.ID)

	rest = append(rest, *target, *dragged)
	SortIssues(rest)
	drag.SetLast(targetID)
	return rest, OutcomeMoved
}

// ChangeStatus drops the dragged issue onto a column without a target issue.
//
// Issues of the column are renumbered 0..N-1 in display order, marking only
// the ones whose position changed. If the dragged issue comes from another
// column it is appended at position N. A dragged issue already in the column
// only takes part in the renumbering.
func ChangeStatus(drag *DragState, issues []Issue, statusID IssueStatusID) ([]Issue, Outcome) {
	draggedID, ok := drag.Dragged()
	if !ok {
		return issues, OutcomeNothingDragged
	}
	if FindIssue(issues, draggedID) < 0 {
		return issues, OutcomeNotFound
	}

	sorted := slices.Clone(issues)
	SortIssues(sorted)

	var pos int32
	var found Issue
	compacted := false
	out := make([]Issue, 0, len(sorted))
	for _, issue := range sorted {
		if issue.IssueStatusID == statusID {
			if issue.ListPosition != pos {
				issue.ListPosition = pos
				drag.MarkDirty(issue.ID)
				compacted = true
			}
			pos++
		}
		if issue.ID == draggedID {
			found = issue
			continue
		}
		out = append(out, issue)
	}

	if found.IssueStatusID == statusID {
		out = append(out, found)
		SortIssues(out)
		if compacted {
			return out, OutcomeMoved
		}
		return out, OutcomeUnchanged
	}

	found.IssueStatusID = statusID
	found.ListPosition = pos
	drag.MarkDirty(found.ID)
	out = append(out, found)
	SortIssues(out)
	return out, OutcomeMoved
}
