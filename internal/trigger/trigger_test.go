package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mergewarden/mergewarden/internal/event"
)

const botID int64 = 42

// freshlyAdded returns an event where the bot was just added as reviewer
func freshlyAdded() *event.MergeRequestEvent {
	return &event.MergeRequestEvent{
		Kind:   event.KindMergeRequest,
		Action: event.ActionUpdate,
		IID:    7,
		Reviewers: []event.Reviewer{
			{ID: 1, Username: "alice"},
			{ID: botID, Username: "warden-bot"},
		},
		ReviewerChange: &event.ReviewerChange{
			PreviousIDs: []int64{1},
			CurrentIDs:  []int64{1, botID},
		},
	}
}

func TestShouldTrigger_FreshAddition(t *testing.T) {
	assert.True(t, ShouldTrigger(freshlyAdded(), botID))
}

func TestShouldTrigger_NilEvent(t *testing.T) {
	assert.False(t, ShouldTrigger(nil, botID))
}

func TestShouldTrigger_WrongKind(t *testing.T) {
	ev := freshlyAdded()
	ev.Kind = "push"
	assert.False(t, ShouldTrigger(ev, botID))
}

func TestShouldTrigger_Actions(t *testing.T) {
	for _, action := range []string{event.ActionOpen, event.ActionReopen, event.ActionClose, event.ActionMerge, "approved"} {
		t.Run(action, func(t *testing.T) {
			ev := freshlyAdded()
			ev.Action = action
			assert.False(t, ShouldTrigger(ev, botID))
		})
	}
}

func TestShouldTrigger_Draft(t *testing.T) {
	ev := freshlyAdded()
	ev.Draft = true
	assert.False(t, ShouldTrigger(ev, botID))

	ev = freshlyAdded()
	ev.WorkInProgress = true
	assert.False(t, ShouldTrigger(ev, botID))
}

func TestShouldTrigger_BotNotReviewer(t *testing.T) {
	ev := freshlyAdded()
	ev.Reviewers = []event.Reviewer{{ID: 1, Username: "alice"}}
	assert.False(t, ShouldTrigger(ev, botID))
}

func TestShouldTrigger_AlreadyReviewer(t *testing.T) {
	ev := freshlyAdded()
	ev.ReviewerChange = &event.ReviewerChange{
		PreviousIDs: []int64{1, botID},
		CurrentIDs:  []int64{1, botID},
	}
	assert.False(t, ShouldTrigger(ev, botID))
}

func TestShouldTrigger_BotRemoved(t *testing.T) {
	ev := freshlyAdded()
	ev.Reviewers = []event.Reviewer{{ID: 1, Username: "alice"}}
	ev.ReviewerChange = &event.ReviewerChange{
		PreviousIDs: []int64{1, botID},
		CurrentIDs:  []int64{1},
	}
	assert.False(t, ShouldTrigger(ev, botID))
}

func TestShouldTrigger_InconsistentChangeRecord(t *testing.T) {
	// Reviewer list has the bot but the change record's current set does not
	ev := freshlyAdded()
	ev.ReviewerChange = &event.ReviewerChange{
		PreviousIDs: []int64{1},
		CurrentIDs:  []int64{1},
	}
	assert.False(t, ShouldTrigger(ev, botID))
}

func TestShouldTrigger_NoChangeRecord(t *testing.T) {
	// Some payload shapes omit changes.reviewers entirely; presence in the
	// current reviewer list is then enough
	ev := freshlyAdded()
	ev.ReviewerChange = nil
	assert.True(t, ShouldTrigger(ev, botID))
}
