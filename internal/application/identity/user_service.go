package identity

import (
	"context"

	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService reads and edits user profiles
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, id uint) (*identity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// GetByUsername returns a user by username
func (s *UserService) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	return s.userRepo.FindByUsername(ctx, username)
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[identity.User], error) {
	filter = filter.Normalize(100)
	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[identity.User]{}, err
	}
	return shared.NewPaginated(users, total, filter.Page, filter.PageSize), nil
}

// Update changes name and email of target; only the user or staff may do so
func (s *UserService) Update(ctx context.Context, actor, target *identity.User, input UpdateProfileInput) (*identity.User, error) {
	if !actor.CanManage(target) {
		return nil, shared.ErrForbidden
	}
	if err := target.SetName(input.Name); err != nil {
		return nil, err
	}
	if err := target.SetEmail(input.Email); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, err
	}
	s.logger.Info("User profile updated",
		zap.Uint("user_id", target.ID),
		zap.Uint("actor_id", actor.ID))
	return target, nil
}

// Count returns the number of users
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

// AdminCreate creates a user from the admin site
func (s *UserService) AdminCreate(ctx context.Context, input AdminUserInput) (*identity.User, error) {
	user, err := identity.NewUser(input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if taken, err := s.userRepo.ExistsByUsername(ctx, user.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with that username already exists")
	}
	if err := user.SetName(input.Name); err != nil {
		return nil, err
	}
	user.IsStaff = input.IsStaff
	user.IsActive = input.IsActive
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminUpdate changes profile, staff and active flags. A password, when
// given, replaces the current one.
func (s *UserService) AdminUpdate(ctx context.Context, id uint, input AdminUserInput) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.SetName(input.Name); err != nil {
		return nil, err
	}
	if err := user.SetEmail(input.Email); err != nil {
		return nil, err
	}
	if input.Password != "" {
		if err := user.SetPassword(input.Password); err != nil {
			return nil, err
		}
	}
	user.IsStaff = input.IsStaff
	user.IsActive = input.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.userRepo.Delete(ctx, id)
}
