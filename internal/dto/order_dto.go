package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LineItemRequest struct {
	ItemRef  string           `json:"itemRef"  validate:"required,max=64"`
	ItemKind string           `json:"itemKind" validate:"required,oneof=product menu"`
	Quantity int              `json:"quantity" validate:"required,min=1"`
	Price    *decimal.Decimal `json:"price"    validate:"required"`
}

type CreateOrderRequest struct {
	Items []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	// Status may only be "pending"; anything else is rejected.
	Status *string `json:"status"`
	// Total overrides the computed total when present.
	Total *decimal.Decimal `json:"total"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ItemSummary is the catalog view of a line item, resolved at read time.
type ItemSummary struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

type LineItemResponse struct {
	ItemRef  string `json:"itemRef"`
	ItemKind string `json:"itemKind"`
	Quantity int    `json:"quantity"`
	// Price is the snapshot taken at order time.
	Price string       `json:"price"`
	Item  *ItemSummary `json:"item"`
}

type OrderResponse struct {
	ID          string             `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	Status      string             `json:"status"`
	Total       string             `json:"total"`
	Items       []LineItemResponse `json:"items"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Money renders an amount with two decimals, or more when the amount
// carries sub-cent precision (line price snapshots).
func Money(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}
