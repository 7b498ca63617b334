package repository

import (
	"context"

	"kioskpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	// Create inserts the order and its items in one transaction. It returns
	// ErrDuplicateOrderNumber when (OrderDay, OrderNumber) is already taken.
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindLatestByNumber returns the most recently created order carrying number.
	FindLatestByNumber(ctx context.Context, number string) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	// MaxNumberForDay returns the highest order number issued for dayKey, 0 if none.
	MaxNumberForDay(ctx context.Context, dayKey string) (int, error)
	// UpdateStatus is a compare-and-set: it only writes when the stored status is
	// still from, and reports whether a row changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error)
	// Delete removes the order; items cascade. Reports false when absent.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func itemsByPosition(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	err := r.db.WithContext(ctx).Create(o).Error
	if isUniqueViolation(err, "idx_orders_day_number") {
		return ErrDuplicateOrderNumber
	}
	return err
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).Where("id = ?", id).First(&o).Error
	return &o, err
}

func (r *orderRepo) FindLatestByNumber(ctx context.Context, number string) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).
		Where("order_number = ?", number).
		Order("created_at DESC").
		First(&o).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) MaxNumberForDay(ctx context.Context, dayKey string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Raw("SELECT COALESCE(MAX(CAST(order_number AS INTEGER)), 0) FROM orders WHERE order_day = ?", dayKey).
		Scan(&max).Error
	return max, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Order{})
	return res.RowsAffected > 0, res.Error
}
