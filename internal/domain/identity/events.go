package identity

import "github.com/gmja/storefront/internal/domain/shared"

// Aggregate type constant
const AggregateTypeUser = "user"

// EventTypeUserSignedUp is published when a new account is created
const EventTypeUserSignedUp = "UserSignedUp"

// UserSignedUpEvent is published by the signup flow
type UserSignedUpEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserSignedUpEvent creates a new UserSignedUpEvent
func NewUserSignedUpEvent(user *User) *UserSignedUpEvent {
	return &UserSignedUpEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserSignedUp, AggregateTypeUser, user.ID, user.ID),
		Username:        user.Username,
	}
}
