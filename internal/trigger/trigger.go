// Package trigger decides whether an inbound merge request event should
// start a review run. The decision is pure: same event and bot identity
// always produce the same answer, and nothing here touches the network.
package trigger

import (
	"github.com/mergewarden/mergewarden/internal/event"
	"github.com/mergewarden/mergewarden/pkg/logger"
	"go.uber.org/zap"
)

// ShouldTrigger reports whether a review run must start for the given event.
//
// A run starts only when the bot was freshly added as a reviewer on a
// non-draft merge request. The rules short-circuit in order:
//
//  1. the event must be a merge request event
//  2. the action must be "update" (reviewer list changes fire as updates;
//     a review never triggers on open)
//  3. drafts and WIP merge requests never trigger
//  4. the bot must be in the current reviewer list
//  5. when the payload carries a reviewer change record, the bot id must be
//     in the current set and absent from the previous set. An event where
//     the bot was already a reviewer (a title edit, say) does not re-trigger.
//     Without a change record, rule 4 alone counts as a fresh addition.
func ShouldTrigger(ev *event.MergeRequestEvent, botUserID int64) bool {
	if ev == nil {
		return false
	}

	if ev.Kind != event.KindMergeRequest {
		logger.Debug("ignoring non merge request event", zap.String("kind", ev.Kind))
		return false
	}

	if ev.Action != event.ActionUpdate {
		logger.Debug("ignoring merge request action",
			zap.String("action", ev.Action),
			zap.Int64("mr_iid", ev.IID))
		return false
	}

	if ev.IsDraft() {
		logger.Debug("ignoring draft merge request", zap.Int64("mr_iid", ev.IID))
		return false
	}

	if !ev.HasReviewer(botUserID) {
		logger.Debug("bot is not a reviewer",
			zap.Int64("bot_user_id", botUserID),
			zap.Int64("mr_iid", ev.IID))
		return false
	}

	if change := ev.ReviewerChange; change != nil {
		if !containsID(change.CurrentIDs, botUserID) {
			// Inconsistent payload: reviewer list says yes, change record
			// says no. Fail closed.
			logger.Warn("reviewer change record missing bot from current set",
				zap.Int64("bot_user_id", botUserID),
				zap.Int64("mr_iid", ev.IID))
			return false
		}
		if containsID(change.PreviousIDs, botUserID) {
			logger.Debug("bot was already a reviewer, not re-triggering",
				zap.Int64("bot_user_id", botUserID),
				zap.Int64("mr_iid", ev.IID))
			return false
		}
	}

	logger.Info("review triggered",
		zap.Int64("project_id", ev.ProjectID),
		zap.Int64("mr_iid", ev.IID),
		zap.String("source_branch", ev.SourceBranch))
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
