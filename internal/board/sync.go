package board

import (
	"github.com/runoshun/kanban-sync/internal/channel"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/protocol"
)

// SyncReport counts the messages one Sync produced.
type SyncReport struct {
	Issues    int // Dirty issues found in the collection
	Delivered int
	Bounced   int
	Dropped   int
}

func (r *SyncReport) add(res channel.Result) {
	switch res {
	case channel.Delivered:
		r.Delivered++
	case channel.Bounced:
		r.Bounced++
	case channel.Dropped:
		r.Dropped++
	}
}

// Sync sends a status update followed by a position update for every dirty
// issue, in collection order, then clears the dirty set. Ids missing from the
// collection are discarded.
func Sync(issues []domain.Issue, dirty *domain.DirtySet, queue *channel.Queue) SyncReport {
	var report SyncReport
	if dirty.Len() == 0 {
		return report
	}
	for _, issue := range issues {
		if !dirty.Contains(issue.ID) {
			continue
		}
		report.Issues++
		report.add(queue.Send(protocol.UpdateStatus(issue.ID, issue.IssueStatusID)))
		report.add(queue.Send(protocol.UpdatePosition(issue.ID, issue.ListPosition)))
	}
	dirty.Clear()
	return report
}
