package activity

import (
	"context"

	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

const maxPageSize = 100

// ActivityService records actions and serves activity streams
type ActivityService struct {
	actions  activity.ActionRepository
	follows  activity.FollowRepository
	resolver ObjectResolver
	logger   *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(actions activity.ActionRepository, follows activity.FollowRepository, resolver ObjectResolver, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{actions: actions, follows: follows, resolver: resolver, logger: logger}
}

// Record stores an action
func (s *ActivityService) Record(ctx context.Context, action *activity.Action) error {
	return s.actions.Create(ctx, action)
}

// Follow makes userID follow object. Following twice is not an error; the
// first follow records a "started following" action.
func (s *ActivityService) Follow(ctx context.Context, userID uint, object activity.Ref, actorOnly bool) (*FollowResponse, error) {
	if err := s.mustExist(ctx, object); err != nil {
		return nil, err
	}
	follow, err := activity.NewFollow(userID, object, actorOnly)
	if err != nil {
		return nil, err
	}
	created, err := s.follows.Create(ctx, follow)
	if err != nil {
		return nil, err
	}
	if created {
		action, err := activity.NewAction(activity.Ref{Type: activity.ContentTypeUser, ID: userID}, activity.VerbStartedFollowing)
		if err != nil {
			return nil, err
		}
		if err := s.actions.Create(ctx, action.WithTarget(object)); err != nil {
			return nil, err
		}
	}
	resp := ToFollowResponse(follow)
	return &resp, nil
}

// Unfollow removes a follow; unknown follows are ignored
func (s *ActivityService) Unfollow(ctx context.Context, userID uint, object activity.Ref) error {
	return s.follows.Delete(ctx, userID, object)
}

// IsFollowing reports whether userID follows object
func (s *ActivityService) IsFollowing(ctx context.Context, userID uint, object activity.Ref) (bool, error) {
	return s.follows.Exists(ctx, userID, object)
}

// Followers lists the users following object
func (s *ActivityService) Followers(ctx context.Context, object activity.Ref, filter shared.Filter) (*shared.Paginated[FollowResponse], error) {
	if err := s.mustExist(ctx, object); err != nil {
		return nil, err
	}
	filter = filter.Normalize(maxPageSize)
	follows, total, err := s.follows.FindByObject(ctx, object, filter)
	if err != nil {
		return nil, err
	}
	items := make([]FollowResponse, 0, len(follows))
	for i := range follows {
		items = append(items, ToFollowResponse(&follows[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Following lists everything userID follows
func (s *ActivityService) Following(ctx context.Context, userID uint) ([]FollowResponse, error) {
	if err := s.mustExist(ctx, activity.Ref{Type: activity.ContentTypeUser, ID: userID}); err != nil {
		return nil, err
	}
	follows, err := s.follows.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]FollowResponse, 0, len(follows))
	for i := range follows {
		items = append(items, ToFollowResponse(&follows[i]))
	}
	return items, nil
}

// ActorStream lists public actions performed by actor, newest first
func (s *ActivityService) ActorStream(ctx context.Context, actor activity.Ref, filter shared.Filter) (*shared.Paginated[ActionResponse], error) {
	if err := s.mustExist(ctx, actor); err != nil {
		return nil, err
	}
	filter = filter.Normalize(maxPageSize)
	actions, total, err := s.actions.FindByActor(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	return paginateActions(actions, total, filter), nil
}

// UserStream is the feed of userID: public actions whose actor, target or
// object the user follows, newest first
func (s *ActivityService) UserStream(ctx context.Context, userID uint, filter shared.Filter) (*shared.Paginated[ActionResponse], error) {
	filter = filter.Normalize(maxPageSize)
	follows, err := s.follows.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(follows) == 0 {
		return paginateActions(nil, 0, filter), nil
	}
	actions, total, err := s.actions.FindForFollows(ctx, follows, filter)
	if err != nil {
		return nil, err
	}
	return paginateActions(actions, total, filter), nil
}

// Get returns a public action
func (s *ActivityService) Get(ctx context.Context, id uint) (*ActionResponse, error) {
	action, err := s.actions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !action.Public {
		return nil, shared.ErrNotFound
	}
	resp := ToActionResponse(action)
	return &resp, nil
}

// GetAny returns an action whether or not it is public
func (s *ActivityService) GetAny(ctx context.Context, id uint) (*ActionResponse, error) {
	action, err := s.actions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToActionResponse(action)
	return &resp, nil
}

// List returns every action including private ones; used by the admin site
func (s *ActivityService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ActionResponse], error) {
	filter = filter.Normalize(maxPageSize)
	actions, total, err := s.actions.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginateActions(actions, total, filter), nil
}

// Delete removes an action
func (s *ActivityService) Delete(ctx context.Context, id uint) error {
	return s.actions.Delete(ctx, id)
}

// Count returns the number of recorded actions
func (s *ActivityService) Count(ctx context.Context) (int64, error) {
	return s.actions.Count(ctx)
}

func (s *ActivityService) mustExist(ctx context.Context, ref activity.Ref) error {
	if s.resolver == nil {
		return nil
	}
	ok, err := s.resolver.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrNotFound
	}
	return nil
}

func paginateActions(actions []activity.Action, total int64, filter shared.Filter) *shared.Paginated[ActionResponse] {
	items := make([]ActionResponse, 0, len(actions))
	for i := range actions {
		items = append(items, ToActionResponse(&actions[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result
}
