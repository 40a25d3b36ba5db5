package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/repository"
	"rvsync/backend/pkg/jwt"
	"rvsync/backend/pkg/logger"

	"github.com/samber/lo"
)

// NameCache stores display names outside the database. Implementations
// swallow their own failures.
type NameCache interface {
	Get(ctx context.Context, id uint) (string, bool)
	Set(ctx context.Context, id uint, name string)
	Forget(ctx context.Context, id uint)
}

// UserService handles identity: signup, login and user lookup
type UserService struct {
	users repository.UserRepository
	jwt   *jwt.Service
	names NameCache
	log   *logger.Logger
}

// NewUserService creates a new user service. names may be nil.
func NewUserService(users repository.UserRepository, jwtService *jwt.Service, names NameCache, log *logger.Logger) *UserService {
	return &UserService{
		users: users,
		jwt:   jwtService,
		names: names,
		log:   log.WithComponent("users"),
	}
}

// Signup creates a new user and issues a token
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	s.log.Info("user signed up", "user_id", user.ID)
	return s.issue(user)
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.jwt.GenerateToken(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.AuthResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int64(s.jwt.Expiry().Seconds()),
		User:      user.ToResponse(),
	}, nil
}

// GetUser resolves an id to a user or ErrUserNotFound
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if s.names != nil {
		s.names.Set(ctx, user.ID, user.Name)
	}
	return user, nil
}

// UpdateProfile applies the fields present in req and returns the stored user
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *models.UpdateProfileRequest) (*models.UserResponse, error) {
	updates := make(map[string]any, 4)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		updates["name"] = name
	}
	if req.GPA != nil {
		updates["gpa"] = *req.GPA
	}
	if req.GithubURL != nil {
		updates["github_url"] = strings.TrimSpace(*req.GithubURL)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}

	if err := s.users.Update(ctx, userID, updates); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if _, renamed := updates["name"]; renamed && s.names != nil {
		s.names.Forget(ctx, userID)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info("profile updated", "user_id", userID, "fields", len(updates))
	resp := user.ToResponse()
	return &resp, nil
}

// DisplayNames resolves names for ids, consulting the cache first. Unknown ids are absent from the result.
func (s *UserService) DisplayNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	ids = lo.Uniq(ids)
	out := make(map[uint]string, len(ids))

	missing := ids
	if s.names != nil {
		missing = missing[:0:0]
		for _, id := range ids {
			if name, ok := s.names.Get(ctx, id); ok {
				out[id] = name
				continue
			}
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	users, err := s.users.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range users {
		out[id] = u.Name
		if s.names != nil {
			s.names.Set(ctx, id, u.Name)
		}
	}
	return out, nil
}
