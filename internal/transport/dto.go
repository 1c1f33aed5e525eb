package transport

import "github.com/mkravets/storefront/internal/models"

// Envelope is the response shape every endpoint returns.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type UpdateLineRequest struct {
	Quantity uint `json:"quantity"`
}

// LineView is the one normalized cart line shape. It is produced at the
// cart engine boundary so no consumer needs fallback chains over raw
// product fields.
type LineView struct {
	LineID    uint    `json:"line_id"`
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  uint    `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartView struct {
	Lines []LineView `json:"lines"`
	Total float64    `json:"total"`
}

type CreateOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	CardToken       string                 `json:"card_token"`
	CardLast4       string                 `json:"card_last4"`
	CardType        string                 `json:"card_type"`
	Amount          float64                `json:"amount"`
	Currency        string                 `json:"currency"`
	CustomerNote    string                 `json:"customer_note"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       uint    `json:"stock"`
	Image       string  `json:"image"`
	Featured    bool    `json:"featured"`
	CategoryID  *uint   `json:"category_id"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Featured    bool   `json:"featured"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}
