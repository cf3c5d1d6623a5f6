package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned when a credential is missing, malformed,
// expired or revoked
var ErrNotAuthenticated = shared.NewDomainError("NOT_AUTHENTICATED", "Authentication credentials were not provided or are invalid")

// AuthService handles login, signup, tokens and request authentication
type AuthService struct {
	userRepo  identity.UserRepository
	tokenRepo identity.AuthTokenRepository
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	tokenRepo identity.AuthTokenRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwt:       jwtService,
		blacklist: blacklist,
		events:    events,
		logger:    logger,
	}
}

// Login checks credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.checkCredentials(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("username", user.Username), zap.Uint("user_id", user.ID))
	return &LoginResult{User: user, Token: token}, nil
}

// checkCredentials returns ErrInvalidCredentials for unknown users, wrong
// passwords and inactive accounts alike
func (s *AuthService) checkCredentials(ctx context.Context, username, password string) (*identity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, identity.ErrInvalidCredentials
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown user", zap.String("username", username))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", username))
		return nil, identity.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Warn("Login attempt for inactive account", zap.String("username", username))
		return nil, identity.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) issue(user *identity.User) (*auth.IssuedToken, error) {
	token, err := s.jwt.Issue(auth.TokenSubject{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff})
	if err != nil {
		s.logger.Error("Failed to issue session token", zap.Error(err))
		return nil, err
	}
	return token, nil
}

// Signup creates an account and logs it in
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*LoginResult, error) {
	if input.Password != input.Password2 {
		return nil, identity.ErrPasswordMismatch
	}
	user, err := identity.NewUser(input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "A user with that username already exists")
	}
	if user.Email != "" {
		exists, err = s.userRepo.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "A user is already registered with this email address")
		}
	}

	user.RecordLogin()
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, identity.NewUserSignedUpEvent(user)); err != nil {
		s.logger.Warn("Failed to publish signup event", zap.Error(err))
	}
	s.logger.Info("User signed up", zap.String("username", user.Username), zap.Uint("user_id", user.ID))
	return &LoginResult{User: user, Token: token}, nil
}

// Logout revokes the session token described by claims
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke session token", zap.Error(err))
		return err
	}
	s.logger.Info("User logged out", zap.Uint("user_id", claims.UserID))
	return nil
}

// ChangePassword replaces the password, revokes every session token and the
// API token issued before, and returns a fresh session token for the caller.
func (s *AuthService) ChangePassword(ctx context.Context, user *identity.User, input ChangePasswordInput) (*auth.IssuedToken, error) {
	if !user.CheckPassword(input.OldPassword) {
		return nil, shared.NewDomainError("INVALID_OLD_PASSWORD", "Your old password was entered incorrectly")
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.blacklist.InvalidateUserTokens(ctx, user.ID, s.jwt.Expiration()); err != nil {
		s.logger.Error("Failed to invalidate user tokens", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	if err := s.tokenRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Password changed", zap.Uint("user_id", user.ID))
	return s.issue(user)
}

// ObtainToken returns the user's API token, creating it on first use
func (s *AuthService) ObtainToken(ctx context.Context, username, password string) (*identity.AuthToken, error) {
	user, err := s.checkCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenRepo.FindByUserID(ctx, user.ID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	token, err = identity.NewAuthToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		// a concurrent request created it first
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.tokenRepo.FindByUserID(ctx, user.ID)
		}
		return nil, err
	}
	return token, nil
}

// Authenticate resolves an Authorization header value:
// "Token <key>" or "Bearer <jwt>".
func (s *AuthService) Authenticate(ctx context.Context, header string) (*Principal, error) {
	scheme, credential, ok := strings.Cut(strings.TrimSpace(header), " ")
	credential = strings.TrimSpace(credential)
	if !ok || credential == "" {
		return nil, ErrNotAuthenticated
	}
	switch strings.ToLower(scheme) {
	case "token":
		return s.authenticateAPIToken(ctx, credential)
	case "bearer":
		principal, err := s.AuthenticateSession(ctx, credential)
		if err != nil {
			return nil, err
		}
		principal.Method = MethodBearer
		return principal, nil
	}
	return nil, ErrNotAuthenticated
}

func (s *AuthService) authenticateAPIToken(ctx context.Context, key string) (*Principal, error) {
	token, err := s.tokenRepo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	user, err := s.activeUser(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	return &Principal{User: user, Method: MethodToken}, nil
}

// AuthenticateSession validates a session JWT from the cookie or a bearer header
func (s *AuthService) AuthenticateSession(ctx context.Context, tokenString string) (*Principal, error) {
	claims, err := s.jwt.Validate(tokenString)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrNotAuthenticated
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		return nil, err
	}
	if invalidated {
		return nil, ErrNotAuthenticated
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &Principal{User: user, Claims: claims, Method: MethodSession}, nil
}

func (s *AuthService) activeUser(ctx context.Context, id uint) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}
