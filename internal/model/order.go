package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus values follow the fulfillment lifecycle: pending → preparing → ready → delivered.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
)

// ItemKind discriminates which catalog an ItemRef resolves against.
type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindMenu    ItemKind = "menu"
)

// Order is a counter order. OrderNumber is unique only within OrderDay,
// which is the store-local calendar day of CreatedAt ("2006-01-02").
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber string          `gorm:"type:varchar(12);not null;uniqueIndex:idx_orders_day_number,priority:2"`
	OrderDay    string          `gorm:"type:char(10);not null;uniqueIndex:idx_orders_day_number,priority:1"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null;index"`
	UpdatedAt   time.Time

	Items []LineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// LineItemPricePlaces is the scale of the line_items.price column.
const LineItemPricePlaces = 4

// LineItem snapshots the catalog price at order time; it is never re-read.
type LineItem struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position int             `gorm:"not null"`
	ItemRef  string          `gorm:"not null"`
	ItemKind ItemKind        `gorm:"type:varchar(10);not null"`
	Quantity int             `gorm:"not null"`
	Price    decimal.Decimal `gorm:"type:decimal(12,4);not null"`
}
