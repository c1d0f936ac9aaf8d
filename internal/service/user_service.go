package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/validation"
)

// UserService manages accounts, profiles and user search.
type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID uint
	Bio    *string
	Avatar *string
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository) *UserService {
	return &UserService{users: users, follows: follows}
}

// Signup registers a new account. Username and email collisions surface as
// conflicts before the insert is attempted.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, models.NewConflictError("Username already taken")
	} else if !models.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.NewConflictError("Email already registered")
	} else if !models.IsNotFound(err) {
		return nil, err
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies credentials against the username or email. Both
// unknown account and wrong password return the same unauthorized error.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, login)
	if models.IsNotFound(err) {
		user, err = s.users.GetByEmail(ctx, login)
	}
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetProfile returns a user with follower and following counts populated.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FollowersCount = int(followers)
	user.FollowingCount = int(following)
	return user, nil
}

// UpdateProfile applies the provided bio and avatar changes.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		if len(*in.Bio) > 500 {
			return nil, models.NewValidationError("Bio must not exceed 500 characters")
		}
		user.Bio = *in.Bio
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SearchUsers matches username or email case-insensitively, excluding the
// requester. An empty query matches nobody.
func (s *UserService) SearchUsers(ctx context.Context, query string, requesterID uint, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.Search(ctx, query, requesterID, limit, offset)
}
