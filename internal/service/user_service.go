package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cafe-inventory/internal/model"
	"cafe-inventory/internal/repository"

	"gorm.io/gorm"
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUser(ctx context.Context, idNumber string) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, idNumber string, req *UpdateUserRequest, updaterID string) (*model.User, error)
	DeleteUser(ctx context.Context, idNumber string) error
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=6"`
	Position    string `json:"position" validate:"required,max=100"`
	IDNumber    string `json:"id_number" validate:"required,max=50"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
}

func (r *CreateUserRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Position = strings.TrimSpace(r.Position)
	r.IDNumber = strings.TrimSpace(r.IDNumber)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

// UpdateUserRequest replaces the profile fields. The id number is the lookup
// key and never changes.
type UpdateUserRequest struct {
	Username    string  `json:"username" validate:"required,max=100"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	Position    string  `json:"position" validate:"required,max=100"`
	PhoneNumber string  `json:"phone_number" validate:"required,max=20"`
}

func (r *UpdateUserRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Position = strings.TrimSpace(r.Position)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error) {
	// 1. Validate request
	req.normalize()
	if err := validate(req); err != nil {
		return nil, err
	}

	// 2. Check uniqueness of username and id number
	if err := s.ensureUnique(ctx, "username", req.Username, "", s.userRepo.FindByUsername); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "id_number", req.IDNumber, "", s.userRepo.FindByIDNumber); err != nil {
		return nil, err
	}

	// 3. Build user
	user := &model.User{
		Username:    req.Username,
		Position:    req.Position,
		IDNumber:    req.IDNumber,
		PhoneNumber: req.PhoneNumber,
	}
	user.CreatedBy = orSystem(creatorID)
	user.UpdatedBy = orSystem(creatorID)

	// 4. Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 5. Save to database; the unique indexes catch a racing duplicate
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storageErr("create user", err)
	}

	slog.Info("user created", "username", user.Username, "id_number", user.IDNumber, "actor", user.CreatedBy)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr("list users", err)
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUser(ctx context.Context, idNumber string) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) UpdateUser(ctx context.Context, idNumber string, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	// 1. Validate request
	req.normalize()
	if err := validate(req); err != nil {
		return nil, err
	}

	// 2. Find existing user
	user, err := s.userRepo.FindByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, storageErr("find user", err)
	}

	// 3. Check if username is being changed and already taken
	if req.Username != user.Username {
		if err := s.ensureUnique(ctx, "username", req.Username, user.IDNumber, s.userRepo.FindByUsername); err != nil {
			return nil, err
		}
	}

	// 4. Update fields
	user.Username = req.Username
	user.Position = req.Position
	user.PhoneNumber = req.PhoneNumber
	user.UpdatedBy = orSystem(updaterID)

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	// 5. Save
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, storageErr("update user", err)
	}

	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, idNumber string) error {
	found, err := s.userRepo.DeleteByIDNumber(ctx, idNumber)
	if err != nil {
		return storageErr("delete user", err)
	}
	if !found {
		return ErrNotFound
	}

	slog.Info("user deleted", "id_number", idNumber)
	return nil
}

// Authenticate looks a user up by credentials. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("find user", err)
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ensureUnique returns ErrConflict when value is held by a user other than selfIDNumber.
func (s *userService) ensureUnique(ctx context.Context, field, value, selfIDNumber string, find func(context.Context, string) (*model.User, error)) error {
	existing, err := find(ctx, value)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return storageErr("check "+field, err)
	case existing.IDNumber == selfIDNumber:
		return nil
	default:
		return fmt.Errorf("%s %q: %w", field, value, ErrConflict)
	}
}

func orSystem(id string) string {
	if id == "" {
		return "system"
	}
	return id
}
