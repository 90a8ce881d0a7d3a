// Package invoices exposes the stored sales history.
package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
	"github.com/angelmondragon/storepos-backend/pkg/pagination"
)

type invoiceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	List(ctx context.Context, q Query) ([]models.Invoice, error)
}

// ListInput pages through invoices. SelectedStore narrows admin results.
type ListInput struct {
	Pagination    pagination.Params
	SelectedStore string
}

type Service interface {
	List(ctx context.Context, viewer catalog.Viewer, input ListInput) (pagination.Page[InvoiceDTO], error)
	Get(ctx context.Context, viewer catalog.Viewer, id string) (*InvoiceDTO, error)
}

type service struct {
	repo invoiceRepository
}

func NewService(repo invoiceRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, viewer catalog.Viewer, input ListInput) (pagination.Page[InvoiceDTO], error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return pagination.Page[InvoiceDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	storeID, err := ScopeFor(viewer, input.SelectedStore)
	if err != nil {
		return pagination.Page[InvoiceDTO]{}, err
	}

	rows, err := s.repo.List(ctx, Query{
		StoreID: storeID,
		Cursor:  cursor,
		Limit:   pagination.LimitWithBuffer(input.Pagination.Limit),
	})
	if err != nil {
		return pagination.Page[InvoiceDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}

	page := pagination.Trim(catalog.FilterInvoices(rows, viewer), input.Pagination.Limit, func(inv models.Invoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: inv.CreatedAt, ID: inv.ID}
	})
	items := make([]InvoiceDTO, 0, len(page.Items))
	for _, inv := range page.Items {
		items = append(items, FromModel(inv))
	}
	return pagination.Page[InvoiceDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

// Get returns one invoice. Invoices of other stores look missing to store users.
func (s *service) Get(ctx context.Context, viewer catalog.Viewer, id string) (*InvoiceDTO, error) {
	id = strings.TrimSpace(id)
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if !viewer.CanSeeStore(inv.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	dto := FromModel(*inv)
	return &dto, nil
}

// ScopeFor resolves the store restriction for an invoice query: store users
// are pinned to their store, admins may pick one or see all.
func ScopeFor(viewer catalog.Viewer, selected string) (*uuid.UUID, error) {
	if !viewer.IsAdmin() {
		return viewer.ScopeStoreID(), nil
	}
	id, err := catalog.ParseSelectedStore(selected)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store filter").
			WithDetails(map[string]string{"store": "must be a store id or all"})
	}
	return id, nil
}
