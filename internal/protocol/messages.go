// Package protocol defines the messages exchanged between board clients and
// the board server and their binary wire format.
package protocol

import "github.com/runoshun/kanban-sync/internal/domain"

// Kind identifies a message variant on the wire.
type Kind string

// Message kinds.
const (
	KindIssuesLoaded         Kind = "issues_loaded"
	KindIssueUpdateRequest   Kind = "issue_update"
	KindIssuesRequest        Kind = "issues_request"
	KindIssueDeleteRequest   Kind = "issue_delete"
	KindIssueDeleted         Kind = "issue_deleted"
	KindIssueStatusesRequest Kind = "statuses_request"
	KindIssueStatusesLoaded  Kind = "statuses_loaded"
	KindIssueStatusCreated   Kind = "status_created"
	KindIssueStatusUpdated   Kind = "status_updated"
	KindIssueStatusDeleted   Kind = "status_deleted"
	KindError                Kind = "error"
)

// Message is the closed set of protocol messages.
type Message interface {
	Kind() Kind
	sealed()
}

// IssuesLoaded replaces the receiver's whole issue collection.
type IssuesLoaded struct {
	Issues []domain.Issue `cbor:"issues"`
}

// IssueUpdateRequest asks the server to set one field of one issue.
type IssueUpdateRequest struct {
	Value domain.Payload
	Field domain.FieldID
	ID    domain.IssueID
}

// IssuesRequest asks for an IssuesLoaded reply.
type IssuesRequest struct{}

// IssueDeleteRequest asks the server to delete an issue.
type IssueDeleteRequest struct {
	ID domain.IssueID `cbor:"id"`
}

// IssueDeleted acknowledges a deletion.
type IssueDeleted struct {
	ID domain.IssueID `cbor:"id"`
}

// IssueStatusesRequest asks for an IssueStatusesLoaded reply.
type IssueStatusesRequest struct{}

// IssueStatusesLoaded replaces the receiver's columns.
type IssueStatusesLoaded struct {
	Statuses []domain.IssueStatus `cbor:"statuses"`
}

// IssueStatusCreated announces a new column.
type IssueStatusCreated struct {
	Status domain.IssueStatus `cbor:"status"`
}

// IssueStatusUpdated announces a renamed or moved column.
type IssueStatusUpdated struct {
	Status domain.IssueStatus `cbor:"status"`
}

// IssueStatusDeleted announces a removed column.
type IssueStatusDeleted struct {
	ID domain.IssueStatusID `cbor:"id"`
}

// ErrorMsg reports a rejected request to its sender.
type ErrorMsg struct {
	Text string `cbor:"text"`
}

func (IssuesLoaded) Kind() Kind         { return KindIssuesLoaded }
func (IssueUpdateRequest) Kind() Kind   { return KindIssueUpdateRequest }
func (IssuesRequest) Kind() Kind        { return KindIssuesRequest }
func (IssueDeleteRequest) Kind() Kind   { return KindIssueDeleteRequest }
func (IssueDeleted) Kind() Kind         { return KindIssueDeleted }
func (IssueStatusesRequest) Kind() Kind { return KindIssueStatusesRequest }
func (IssueStatusesLoaded) Kind() Kind  { return KindIssueStatusesLoaded }
func (IssueStatusCreated) Kind() Kind   { return KindIssueStatusCreated }
func (IssueStatusUpdated) Kind() Kind   { return KindIssueStatusUpdated }
func (IssueStatusDeleted) Kind() Kind   { return KindIssueStatusDeleted }
func (ErrorMsg) Kind() Kind             { return KindError }

func (IssuesLoaded) sealed()         {}
func (IssueUpdateRequest) sealed()   {}
func (IssuesRequest) sealed()        {}
func (IssueDeleteRequest) sealed()   {}
func (IssueDeleted) sealed()         {}
func (IssueStatusesRequest) sealed() {}
func (IssueStatusesLoaded) sealed()  {}
func (IssueStatusCreated) sealed()   {}
func (IssueStatusUpdated) sealed()   {}
func (IssueStatusDeleted) sealed()   {}
func (ErrorMsg) sealed()             {}

// UpdateStatus returns the request moving an issue to another column.
func UpdateStatus(id domain.IssueID, status domain.IssueStatusID) IssueUpdateRequest {
	return IssueUpdateRequest{ID: id, Field: domain.FieldIssueStatusID, Value: domain.I32(status)}
}

// UpdatePosition returns the request setting an issue's list position.
func UpdatePosition(id domain.IssueID, pos int32) IssueUpdateRequest {
	return IssueUpdateRequest{ID: id, Field: domain.FieldListPosition, Value: domain.I32(pos)}
}
