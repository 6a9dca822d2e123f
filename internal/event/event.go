// Package event models inbound GitLab webhook deliveries and converts them
// into typed merge request events at the transport boundary. Payloads that do
// not decode into the expected shape fail closed: the caller treats them as
// ineligible rather than crashing.
package event

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mergewarden/mergewarden/pkg/errors"
	"github.com/mergewarden/mergewarden/pkg/logger"
	"go.uber.org/zap"
)

// Event kinds and actions as GitLab delivers them
const (
	KindMergeRequest = "merge_request"

	ActionOpen   = "open"
	ActionUpdate = "update"
	ActionReopen = "reopen"
	ActionClose  = "close"
	ActionMerge  = "merge"
)

// HeaderToken is the webhook secret header GitLab sends
const HeaderToken = "X-Gitlab-Token"

// HeaderEvent identifies the webhook event type
const HeaderEvent = "X-Gitlab-Event"

// Reviewer is one entry in the merge request's reviewer list
type Reviewer struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ReviewerChange records the previous and current reviewer id sets when the
// reviewer list changed. GitLab includes it in the payload's changes block
// only for deliveries where the list actually changed.
type ReviewerChange struct {
	PreviousIDs []int64
	CurrentIDs  []int64
}

// MergeRequestEvent is an immutable snapshot of one webhook notification.
// It is constructed once per inbound delivery and discarded after the
// trigger decision (and, if triggered, metadata extraction).
type MergeRequestEvent struct {
	Kind   string
	Action string

	ProjectID   int64
	ProjectPath string
	ProjectURL  string

	IID          int64
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	HeadSHA      string
	URL          string

	Draft          bool
	WorkInProgress bool

	Reviewers      []Reviewer
	ReviewerChange *ReviewerChange
}

// VerifyToken checks webhook authenticity against the configured secret.
// An empty secret disables verification entirely. Otherwise the header
// must match the secret exactly.
func VerifyToken(headerToken, secret string) bool {
	if secret == "" {
		return true
	}
	if headerToken != secret {
		logger.Warn("invalid webhook token",
			zap.Int("header_length", len(headerToken)),
			zap.Int("secret_length", len(secret)))
		return false
	}
	return true
}

// gitlabUser mirrors GitLab's user object, only the fields we read
type gitlabUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// mergeRequestPayload mirrors the subset of GitLab's merge request webhook
// payload the gate and pipeline consume
type mergeRequestPayload struct {
	ObjectKind string `json:"object_kind"`
	Project    struct {
		ID                int64  `json:"id"`
		PathWithNamespace string `json:"path_with_namespace"`
		WebURL            string `json:"web_url"`
	} `json:"project"`
	ObjectAttributes struct {
		IID            int64  `json:"iid"`
		Title          string `json:"title"`
		Description    string `json:"description"`
		SourceBranch   string `json:"source_branch"`
		TargetBranch   string `json:"target_branch"`
		URL            string `json:"url"`
		Action         string `json:"action"`
		Draft          bool   `json:"draft"`
		WorkInProgress bool   `json:"work_in_progress"`
		LastCommit     struct {
			ID string `json:"id"`
		} `json:"last_commit"`
	} `json:"object_attributes"`
	Reviewers []gitlabUser `json:"reviewers"`
	Changes   struct {
		Reviewers *struct {
			Previous []gitlabUser `json:"previous"`
			Current  []gitlabUser `json:"current"`
		} `json:"reviewers"`
	} `json:"changes"`
}

// ParseRequest reads and decodes a webhook HTTP request into a
// MergeRequestEvent. The event type comes from the X-Gitlab-Event header,
// falling back to the payload's object_kind when the header is absent.
// Non-merge-request deliveries decode with their kind set so the trigger
// gate can reject them uniformly.
func ParseRequest(r *http.Request) (*MergeRequestEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWebhookParse, "failed to read webhook body", err)
	}
	return Parse(body, r.Header.Get(HeaderEvent))
}

// Parse decodes a raw webhook payload. eventType may be empty, in which case
// the payload's object_kind decides the kind.
func Parse(body []byte, eventType string) (*MergeRequestEvent, error) {
	var payload mergeRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(errors.ErrCodeWebhookParse, "failed to parse webhook payload", err)
	}

	kind := payload.ObjectKind
	if kind == "" && eventType == "Merge Request Hook" {
		kind = KindMergeRequest
	}

	ev := &MergeRequestEvent{
		Kind:           kind,
		Action:         payload.ObjectAttributes.Action,
		ProjectID:      payload.Project.ID,
		ProjectPath:    payload.Project.PathWithNamespace,
		ProjectURL:     payload.Project.WebURL,
		IID:            payload.ObjectAttributes.IID,
		Title:          payload.ObjectAttributes.Title,
		Description:    payload.ObjectAttributes.Description,
		SourceBranch:   payload.ObjectAttributes.SourceBranch,
		TargetBranch:   payload.ObjectAttributes.TargetBranch,
		HeadSHA:        payload.ObjectAttributes.LastCommit.ID,
		URL:            payload.ObjectAttributes.URL,
		Draft:          payload.ObjectAttributes.Draft,
		WorkInProgress: payload.ObjectAttributes.WorkInProgress,
	}

	for _, u := range payload.Reviewers {
		ev.Reviewers = append(ev.Reviewers, Reviewer{ID: u.ID, Username: u.Username, Name: u.Name})
	}

	if payload.Changes.Reviewers != nil {
		change := &ReviewerChange{}
		for _, u := range payload.Changes.Reviewers.Previous {
			change.PreviousIDs = append(change.PreviousIDs, u.ID)
		}
		for _, u := range payload.Changes.Reviewers.Current {
			change.CurrentIDs = append(change.CurrentIDs, u.ID)
		}
		ev.ReviewerChange = change
	}

	return ev, nil
}

// IsDraft reports whether the merge request is marked draft or WIP
func (e *MergeRequestEvent) IsDraft() bool {
	return e.Draft || e.WorkInProgress
}

// HasReviewer reports whether the given user id appears in the current
// reviewer list
func (e *MergeRequestEvent) HasReviewer(userID int64) bool {
	for _, r := range e.Reviewers {
		if r.ID == userID {
			return true
		}
	}
	return false
}
