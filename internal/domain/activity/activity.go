package activity

import (
	"strings"
	"time"

	"github.com/gmja/storefront/internal/domain/shared"
)

// ContentType names a kind of object that can act, be followed or be acted upon
type ContentType string

const (
	ContentTypeUser     ContentType = "user"
	ContentTypeProduct  ContentType = "product"
	ContentTypeCategory ContentType = "category"
	ContentTypeOrder    ContentType = "order"
)

// Verbs recorded by the storefront
const (
	VerbStartedFollowing = "started following"
	VerbPlacedOrder      = "placed order"
	VerbReviewed         = "reviewed"
	VerbJoined           = "joined"
)

// ErrUnknownContentType is returned for content types outside the registry
var ErrUnknownContentType = shared.NewDomainError("UNKNOWN_CONTENT_TYPE", "Unknown content type")

// ParseContentType validates a content type coming from a URL
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(s))
	switch ct {
	case ContentTypeUser, ContentTypeProduct, ContentTypeCategory, ContentTypeOrder:
		return ct, nil
	}
	return "", ErrUnknownContentType
}

// Ref points at one object of a content type
type Ref struct {
	Type ContentType `json:"type"`
	ID   uint        `json:"id"`
}

// Action is one entry of an activity stream: actor verb [object] [target]
type Action struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ActorType  ContentType  `gorm:"size:32;not null;index:idx_action_actor,priority:1" json:"actor_type"`
	ActorID    uint         `gorm:"not null;index:idx_action_actor,priority:2" json:"actor_id"`
	Verb       string       `gorm:"size:255;not null" json:"verb"`
	TargetType *ContentType `gorm:"size:32;index:idx_action_target,priority:1" json:"target_type,omitempty"`
	TargetID   *uint        `gorm:"index:idx_action_target,priority:2" json:"target_id,omitempty"`
	ObjectType *ContentType `gorm:"size:32;index:idx_action_object,priority:1" json:"object_type,omitempty"`
	ObjectID   *uint        `gorm:"index:idx_action_object,priority:2" json:"object_id,omitempty"`
	Public     bool         `gorm:"not null;index" json:"public"`
	Timestamp  time.Time    `gorm:"not null;index" json:"timestamp"`
}

// NewAction creates a public action
func NewAction(actor Ref, verb string) (*Action, error) {
	verb = strings.TrimSpace(verb)
	if verb == "" {
		return nil, shared.NewDomainError("INVALID_VERB", "Verb is required")
	}
	if actor.ID == 0 || actor.Type == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Actor is required")
	}
	return &Action{
		ActorType: actor.Type,
		ActorID:   actor.ID,
		Verb:      verb,
		Public:    true,
		Timestamp: time.Now(),
	}, nil
}

// WithTarget sets the target of the action
func (a *Action) WithTarget(ref Ref) *Action {
	a.TargetType, a.TargetID = &ref.Type, &ref.ID
	return a
}

// WithObject sets the action object
func (a *Action) WithObject(ref Ref) *Action {
	a.ObjectType, a.ObjectID = &ref.Type, &ref.ID
	return a
}

// Private hides the action from public streams
func (a *Action) Private() *Action {
	a.Public = false
	return a
}

// Actor returns the actor reference
func (a *Action) Actor() Ref {
	return Ref{Type: a.ActorType, ID: a.ActorID}
}

// String renders the action as a sentence
func (a *Action) String() string {
	var b strings.Builder
	b.WriteString(string(a.ActorType))
	b.WriteString(" ")
	b.WriteString(a.Verb)
	if a.ObjectType != nil {
		b.WriteString(" ")
		b.WriteString(string(*a.ObjectType))
	}
	if a.TargetType != nil {
		b.WriteString(" on ")
		b.WriteString(string(*a.TargetType))
	}
	return b.String()
}

// Follow records that a user follows an object
type Follow struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	UserID     uint        `gorm:"not null;uniqueIndex:idx_follow_unique,priority:1" json:"user_id"`
	ObjectType ContentType `gorm:"size:32;not null;uniqueIndex:idx_follow_unique,priority:2;index:idx_follow_object,priority:1" json:"object_type"`
	ObjectID   uint        `gorm:"not null;uniqueIndex:idx_follow_unique,priority:3;index:idx_follow_object,priority:2" json:"object_id"`
	// ActorOnly limits the feed to actions where the object is the actor
	ActorOnly bool      `gorm:"not null" json:"actor_only"`
	Started   time.Time `gorm:"not null" json:"started"`
}

// NewFollow creates a follow
func NewFollow(userID uint, object Ref, actorOnly bool) (*Follow, error) {
	if object.Type == ContentTypeUser && object.ID == userID {
		return nil, shared.NewDomainError("INVALID_FOLLOW", "You cannot follow yourself")
	}
	return &Follow{
		UserID:     userID,
		ObjectType: object.Type,
		ObjectID:   object.ID,
		ActorOnly:  actorOnly,
		Started:    time.Now(),
	}, nil
}

// Object returns the followed reference
func (f *Follow) Object() Ref {
	return Ref{Type: f.ObjectType, ID: f.ObjectID}
}
