package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/pkg/db"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Service administers operator accounts.
type Service interface {
	List(ctx context.Context) ([]UserDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Create(ctx context.Context, input CreateUserInput) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	repo   userRepository
	stores storeFinder
	hasher passwordHasher
}

func NewService(repo userRepository, stores storeFinder, hasher passwordHasher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	return &service{repo: repo, stores: stores, hasher: hasher}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	status := input.Status
	if status == "" {
		status = enums.StatusActive
	}
	user := &models.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
		Title:    strings.TrimSpace(input.Title),
		Role:     input.Role,
		StoreID:  input.StoreID,
		Status:   status,
	}

	var fields pkgerrors.Fields
	fields.Check(user.Username != "", "username", "required")
	fields.Check(input.Password != "", "password", "required")
	checkProfile(&fields, user)
	if err := fields.Err("invalid user"); err != nil {
		return nil, err
	}
	if err := s.ensureStore(ctx, user.StoreID); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash

	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return s.Get(ctx, user.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.Title != nil {
		user.Title = strings.TrimSpace(*input.Title)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.ClearStore {
		user.StoreID = nil
	} else if input.StoreID != nil {
		user.StoreID = input.StoreID
	}
	if input.Status != nil {
		user.Status = *input.Status
	}

	var fields pkgerrors.Fields
	checkProfile(&fields, user)
	if err := fields.Err("invalid user"); err != nil {
		return nil, err
	}
	if err := s.ensureStore(ctx, user.StoreID); err != nil {
		return nil, err
	}

	if input.Password != nil && *input.Password != "" {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user.PasswordHash = hash
	}

	user.Store = nil
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return s.Get(ctx, id)
}

// Delete removes a user. Admins cannot delete themselves; unknown ids succeed.
func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

var fieldRules = validator.New(validator.WithRequiredStructEnabled())

// checkProfile enforces the fields shared by create and update, including the
// role/store pairing: store users need a store and admins must not have one.
func checkProfile(fields *pkgerrors.Fields, user *models.User) {
	if user.Email == "" {
		fields.Add("email", "required")
	} else if err := fieldRules.Var(user.Email, "email"); err != nil {
		fields.Add("email", "must be a valid address")
	}
	fields.Check(user.Status.IsValid(), "status", "must be active or inactive")
	switch user.Role {
	case enums.RoleAdmin:
		fields.Check(user.StoreID == nil, "store_id", "admins are not bound to a store")
	case enums.RoleStoreUser:
		fields.Check(user.StoreID != nil, "store_id", "required for store users")
	default:
		fields.Add("role", "must be admin or store_user")
	}
}

func (s *service) ensureStore(ctx context.Context, storeID *uuid.UUID) error {
	if storeID == nil {
		return nil
	}
	if _, err := s.stores.FindByID(ctx, *storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "store does not exist").
				WithDetails(map[string]string{"store_id": "unknown store"})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
