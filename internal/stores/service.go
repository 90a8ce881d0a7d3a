package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/pkg/db"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUsers(ctx context.Context) (map[uuid.UUID]int64, error)
	CountDependents(ctx context.Context, id uuid.UUID) (int64, int64, error)
}

// Service exposes store administration. Callers are expected to be admins.
type Service interface {
	List(ctx context.Context) ([]StoreDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]StoreDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	counts, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count store users")
	}
	out := make([]StoreDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row, counts[row.ID]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	users, _, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count store users")
	}
	dto := FromModel(*store, users)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	var fields pkgerrors.Fields
	name := strings.TrimSpace(input.Name)
	fields.Check(name != "", "name", "required")
	status := input.Status
	if status == "" {
		status = enums.StatusActive
	}
	fields.Check(status.IsValid(), "status", "must be active or inactive")
	if err := fields.Err("invalid store"); err != nil {
		return nil, err
	}

	store := &models.Store{
		Name:    name,
		Address: strings.TrimSpace(input.Address),
		Manager: strings.TrimSpace(input.Manager),
		Status:  status,
	}
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, mapWriteError(err, "create store")
	}
	dto := FromModel(*store, 0)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields pkgerrors.Fields
	if input.Name != nil {
		store.Name = strings.TrimSpace(*input.Name)
		fields.Check(store.Name != "", "name", "required")
	}
	if input.Address != nil {
		store.Address = strings.TrimSpace(*input.Address)
	}
	if input.Manager != nil {
		store.Manager = strings.TrimSpace(*input.Manager)
	}
	if input.Status != nil {
		store.Status = *input.Status
		fields.Check(store.Status.IsValid(), "status", "must be active or inactive")
	}
	if err := fields.Err("invalid store"); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, mapWriteError(err, "update store")
	}
	return s.Get(ctx, id)
}

// Delete removes a store. Unknown ids succeed; stores that still own users or
// products are refused.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	users, products, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count store dependents")
	}
	if users > 0 || products > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "store still has users or products").
			WithDetails(map[string]int64{"users": users, "products": products})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store name already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
