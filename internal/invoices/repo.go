package invoices

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/pagination"
)

// Repository is append-only: invoices are inserted and read, never updated.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the invoice together with its lines.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// idOrder sorts invoice ids by their numeric suffix within a day: a longer id
// carries a larger sequence once it outgrows the zero padding.
const idOrder = "LENGTH(id) DESC, id DESC"

// HighestSequence returns the largest sequence number stored under
// <prefix>-<day>-, or 0 when the day has no invoices.
func (r *Repository) HighestSequence(ctx context.Context, prefix, day string) (int64, error) {
	stem := prefix + "-" + day + "-"
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id LIKE ?", stem+"%").
		Order(idOrder).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(ids[0], stem), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing invoice number %q: %w", ids[0], err)
	}
	return seq, nil
}

// Query selects invoices newest first.
type Query struct {
	StoreID *uuid.UUID
	From    *time.Time
	To      *time.Time
	Cursor  *pagination.Cursor
	Limit   int
}

// List runs q. A zero Limit returns every matching row.
func (r *Repository) List(ctx context.Context, q Query) ([]models.Invoice, error) {
	var rows []models.Invoice
	tx := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		Order("created_at DESC, " + idOrder)
	if q.StoreID != nil {
		tx = tx.Where("store_id = ?", *q.StoreID)
	}
	if q.From != nil {
		tx = tx.Where("created_at >= ?", q.From.UTC())
	}
	if q.To != nil {
		tx = tx.Where("created_at < ?", q.To.UTC())
	}
	if q.Cursor != nil {
		at := q.Cursor.CreatedAt.UTC()
		id := q.Cursor.ID
		tx = tx.Where(
			"(created_at < ?) OR (created_at = ? AND (LENGTH(id) < ? OR (LENGTH(id) = ? AND id < ?)))",
			at, at, len(id), len(id), id,
		)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
