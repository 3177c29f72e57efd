package domain

import (
	"fmt"
	"slices"
)

// FieldID names an issue field that can be updated on its own.
type FieldID string

// Updatable issue fields.
const (
	FieldTitle         FieldID = "title"
	FieldDescription   FieldID = "description"
	FieldIssueStatusID FieldID = "issue_status_id"
	FieldListPosition  FieldID = "list_position"
	FieldReporterID    FieldID = "reporter_id"
	FieldAssigneeIDs   FieldID = "assignee_ids"
)

// PayloadKind tags the variant held by a Payload.
type PayloadKind uint8

// Payload variants.
const (
	PayloadI32 PayloadKind = iota + 1
	PayloadString
	PayloadI32Vec
)

// Payload is the value of a single field update.
type Payload interface {
	Kind() PayloadKind
	sealed()
}

// I32 is a 32-bit integer payload.
type I32 int32

// String is a text payload.
type String string

// I32Vec is a list of 32-bit integers.
type I32Vec []int32

func (I32) Kind() PayloadKind    { return PayloadI32 }
func (String) Kind() PayloadKind { return PayloadString }
func (I32Vec) Kind() PayloadKind { return PayloadI32Vec }

func (I32) sealed()    {}
func (String) sealed() {}
func (I32Vec) sealed() {}

// PayloadKind returns the payload variant the field accepts.
func (f FieldID) PayloadKind() (PayloadKind, bool) {
	switch f {
	case FieldTitle, FieldDescription:
		return PayloadString, true
	case FieldIssueStatusID, FieldListPosition, FieldReporterID:
		return PayloadI32, true
	case FieldAssigneeIDs:
		return PayloadI32Vec, true
	}
	return 0, false
}

// ApplyField sets one field of the issue. The issue is left untouched when
// the field is unknown or the payload does not fit it.
func ApplyField(issue *Issue, field FieldID, value Payload) error {
	want, ok := field.PayloadKind()
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	if value == nil || value.Kind() != want {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, field)
	}

	switch field {
	case FieldTitle:
		if value.(String) == "" {
			return ErrEmptyTitle
		}
		issue.Title = string(value.(String))
	case FieldDescription:
		issue.Description = string(value.(String))
	case FieldIssueStatusID:
		issue.IssueStatusID = IssueStatusID(value.(I32))
	case FieldListPosition:
		issue.ListPosition = int32(value.(I32))
	case FieldReporterID:
		issue.ReporterID = UserID(value.(I32))
	case FieldAssigneeIDs:
		vec := value.(I32Vec)
		ids := make([]UserID, 0, len(vec))
		for _, v := range vec {
			if !slices.Contains(ids, UserID(v)) {
				ids = append(ids, UserID(v))
			}
		}
		issue.AssigneeIDs = ids
	}
	return nil
}

