package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cafe-inventory/internal/model"
	"cafe-inventory/pkg/jwt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Signup(ctx context.Context, req *CreateUserRequest) (*LoginResponse, error)
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	users  UserService
	tokens *jwt.Manager
}

func NewAuthService(users UserService, tokens *jwt.Manager) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	// 1. Verify credentials
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			slog.Warn("failed login", "username", username)
		}
		return nil, err
	}

	// 2. Issue token
	return s.issue(user)
}

// Signup creates an account for the caller and logs it in.
func (s *authService) Signup(ctx context.Context, req *CreateUserRequest) (*LoginResponse, error) {
	user, err := s.users.CreateUser(ctx, req, "")
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*LoginResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Position)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}
