package service

import (
	"context"
	"errors"
	"fmt"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const EntityUser = "user"

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error)
	ListUsers(ctx context.Context, query UserQuery) (model.Page[model.User], error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, req *ChangePasswordRequest) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	// EnsureAdmin creates an ADMIN account for email unless one already exists.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type CreateUserRequest struct {
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password" validate:"required,min=6"`
	FirstName string     `json:"firstName" validate:"required"`
	LastName  string     `json:"lastName" validate:"required"`
	Role      model.Role `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
	ImageURL  *string    `json:"imageURL" validate:"omitempty,url"`
}

// UpdateUserRequest has no password field; passwords change only through
// ChangePassword.
type UpdateUserRequest struct {
	Email     *string     `json:"email" validate:"omitempty,email"`
	FirstName *string     `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string     `json:"lastName" validate:"omitempty,min=1"`
	Role      *model.Role `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
	ImageURL  *string     `json:"imageURL" validate:"omitempty,url"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type UserQuery struct {
	Search     string
	Role       model.Role
	Pagination model.Pagination
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creatorID string) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	if err := s.checkEmailFree(ctx, req.Email, uuid.Nil); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		ImageURL:  req.ImageURL,
	}
	if user.Role == "" {
		user.Role = model.RoleStaff
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, q UserQuery) (model.Page[model.User], error) {
	page := normalizePagination(q.Pagination)
	filter := repository.UserFilter{Search: q.Search, Role: q.Role}

	users, total, err := s.userRepo.List(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return model.Page[model.User]{}, err
	}
	return model.NewPage(users, total, page.Page, page.Limit), nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityUser, id)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityUser, id)
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkEmailFree(ctx, *req.Email, id); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.ImageURL != nil {
		user.ImageURL = req.ImageURL
	}
	user.UpdatedBy = updaterID

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

// ChangePassword replaces the password after checking the current one.
func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, req *ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return translateNotFound(err, EntityUser, id)
	}
	if !user.CheckPassword(req.OldPassword) {
		return ErrInvalidCredentials
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if _, err := s.userRepo.UpdatePassword(ctx, id, user.Password); err != nil {
		return err
	}
	s.log.Info("password changed", zap.String("user_id", id.String()))
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	rows, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound(EntityUser, id)
	}
	return nil
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	_, err = s.CreateUser(ctx, &CreateUserRequest{
		Email:     email,
		Password:  password,
		FirstName: "Admin",
		LastName:  "User",
		Role:      model.RoleAdmin,
	}, "system")
	if err != nil {
		return false, err
	}
	s.log.Info("admin user created", zap.String("email", email))
	return true, nil
}

// checkEmailFree fails with ErrEmailExists if another user than self owns email.
func (s *userService) checkEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return ErrEmailExists
	}
	return nil
}
