package activity

import (
	"time"

	"github.com/gmja/storefront/internal/domain/activity"
)

// FollowRequest is the optional body of a follow request
type FollowRequest struct {
	ActorOnly bool `json:"actor_only" form:"actor_only"`
}

// ActionResponse represents a stream action
type ActionResponse struct {
	ID        uint          `json:"id"`
	Actor     activity.Ref  `json:"actor"`
	Verb      string        `json:"verb"`
	Object    *activity.Ref `json:"object,omitempty"`
	Target    *activity.Ref `json:"target,omitempty"`
	Public    bool          `json:"public"`
	Timestamp time.Time     `json:"timestamp"`
	Summary   string        `json:"summary"`
}

// ToActionResponse converts an action
func ToActionResponse(a *activity.Action) ActionResponse {
	resp := ActionResponse{
		ID:        a.ID,
		Actor:     a.Actor(),
		Verb:      a.Verb,
		Public:    a.Public,
		Timestamp: a.Timestamp,
		Summary:   a.String(),
	}
	if a.ObjectType != nil && a.ObjectID != nil {
		resp.Object = &activity.Ref{Type: *a.ObjectType, ID: *a.ObjectID}
	}
	if a.TargetType != nil && a.TargetID != nil {
		resp.Target = &activity.Ref{Type: *a.TargetType, ID: *a.TargetID}
	}
	return resp
}

// FollowResponse represents a follow
type FollowResponse struct {
	UserID    uint         `json:"user_id"`
	Object    activity.Ref `json:"object"`
	ActorOnly bool         `json:"actor_only"`
	Started   time.Time    `json:"started"`
}

// ToFollowResponse converts a follow
func ToFollowResponse(f *activity.Follow) FollowResponse {
	return FollowResponse{
		UserID:    f.UserID,
		Object:    f.Object(),
		ActorOnly: f.ActorOnly,
		Started:   f.Started,
	}
}
