// Package categories manages the product category list.
package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/pkg/db"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
)

// Defaults is the category list a fresh install starts with.
var Defaults = []models.Category{
	{Name: "Electronics", Description: "Electronic devices and accessories"},
	{Name: "Accessories", Description: "Computer and device accessories"},
	{Name: "Software", Description: "Software licenses and applications"},
	{Name: "Hardware", Description: "Computer hardware components"},
	{Name: "Office Supplies", Description: "Office and business supplies"},
	{Name: "Mobile Devices", Description: "Smartphones and tablets"},
	{Name: "Gaming", Description: "Gaming devices and accessories"},
	{Name: "Audio & Video", Description: "Audio and video equipment"},
	{Name: "Beverages", Description: "Coffee, tea and drinks"},
	{Name: "Food", Description: "Bakery and snacks"},
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

func FromModel(m models.Category) CategoryDTO {
	return CategoryDTO{ID: m.ID, Name: m.Name, Description: m.Description}
}

type Input struct {
	Name        string
	Description string
}

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	EnsureNamed(ctx context.Context, categories []models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	Create(ctx context.Context, input Input) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Exists reports whether a category with this name is defined.
	Exists(ctx context.Context, name string) (bool, error)
	SeedDefaults(ctx context.Context) error
}

type service struct {
	repo categoryRepository
}

func NewService(repo categoryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input Input) (*CategoryDTO, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	}
	if category.Name == "" {
		return nil, nameRequired()
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapWriteError(err, "create category")
	}
	dto := FromModel(*category)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	category.Name = strings.TrimSpace(input.Name)
	category.Description = strings.TrimSpace(input.Description)
	if category.Name == "" {
		return nil, nameRequired()
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, mapWriteError(err, "update category")
	}
	dto := FromModel(*category)
	return &dto, nil
}

// Delete is idempotent. Products keep their category label.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
}

func (s *service) SeedDefaults(ctx context.Context) error {
	rows := make([]models.Category, len(Defaults))
	copy(rows, Defaults)
	if err := s.repo.EnsureNamed(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed categories")
	}
	return nil
}

func nameRequired() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid category").
		WithDetails(map[string]string{"name": "required"})
}

func mapWriteError(err error, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category name already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
