package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product and Menu are read-only views of the catalog. Their CRUD lives in the
// catalog service; orders only resolve them for display.

type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string          `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Available bool            `gorm:"not null;default:true"`
	// Category: "burger" | "salade" | "boisson" | "dessert" | "option"
	Category  string `gorm:"type:varchar(20);not null;default:'burger'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Menu struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null"`
	Description *string
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Available   bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
