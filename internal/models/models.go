package models

import (
	"time"
)

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Stock       uint      `gorm:"not null;default:0"        json:"stock"`
	Image       string    `json:"image"`
	Featured    bool      `gorm:"default:false"             json:"featured"`
	CategoryID  *uint     `gorm:"index"                     json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null"     json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Slug        string    `gorm:"uniqueIndex;not null"     json:"slug"`
	Featured    bool      `gorm:"default:false"            json:"featured"`
	Products    []Product `gorm:"foreignKey:CategoryID"    json:"products,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null"     json:"user_id"`
	Lines     []CartLine `gorm:"foreignKey:CartID"        json:"lines"`
	Total     float64    `gorm:"not null;default:0"       json:"total"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartLine keeps the unit price captured at insertion time. Later catalog
// price changes never touch existing lines, only Quantity is mutable.
type CartLine struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"                json:"id"`
	CartID    uint    `gorm:"uniqueIndex:idx_cart_product;not null"   json:"cart_id"`
	ProductID uint    `gorm:"uniqueIndex:idx_cart_product;not null"   json:"product_id"`
	Quantity  uint    `gorm:"not null;check:quantity>0"               json:"quantity"`
	UnitPrice float64 `gorm:"not null"                                json:"unit_price"`
	Position  uint    `gorm:"not null"                                json:"position"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is immutable after creation except for Status and the delivery
// stamps. Items are snapshots, deliberately decoupled from live products.
type Order struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"      json:"-"`
	OrderID      string          `gorm:"uniqueIndex;not null"          json:"order_id"`
	UserID       uint            `gorm:"index;not null"                json:"user_id"`
	Items        []OrderItem     `gorm:"foreignKey:OrderRef"           json:"items"`
	Address      ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	Payment      PaymentRecord   `gorm:"embedded;embeddedPrefix:pay_"  json:"payment"`
	TotalAmount  float64         `gorm:"not null"                      json:"total_amount"`
	Status       string          `gorm:"not null"                      json:"status"`
	CustomerNote string          `json:"customer_note"`
	IsPaid       bool            `gorm:"default:false"                 json:"is_paid"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	IsDelivered  bool            `gorm:"default:false"                 json:"is_delivered"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderRef  uint    `gorm:"index;not null"            json:"-"`
	ProductID uint    `gorm:"not null"                  json:"product_id"`
	Name      string  `gorm:"not null"                  json:"name"`
	Quantity  uint    `gorm:"not null;check:quantity>0" json:"quantity"`
	Price     float64 `gorm:"not null"                  json:"price"`
	Image     string  `json:"image"`
}

type ShippingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type PaymentRecord struct {
	CardLast4     string  `json:"card_last4"`
	CardType      string  `json:"card_type"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
}

// ReconciliationRecord is written when payment capture succeeded but the
// order commit could not be persisted. Rows here need operator attention,
// they are never retried automatically.
type ReconciliationRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       string    `gorm:"index;not null"           json:"order_id"`
	UserID        uint      `gorm:"index;not null"           json:"user_id"`
	TransactionID string    `gorm:"not null"                 json:"transaction_id"`
	Amount        float64   `gorm:"not null"                 json:"amount"`
	Reason        string    `gorm:"not null"                 json:"reason"`
	Resolved      bool      `gorm:"default:false"            json:"resolved"`
	CreatedAt     time.Time `json:"created_at"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}
