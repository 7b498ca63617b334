package repository

import (
	"context"

	"kioskpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository is the read-only view of products and menus used to
// describe line items. Catalog CRUD lives elsewhere.
type CatalogRepository interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindMenu(ctx context.Context, id uuid.UUID) (*model.Menu, error)
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *catalogRepo) FindMenu(ctx context.Context, id uuid.UUID) (*model.Menu, error) {
	var m model.Menu
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	return &m, err
}
