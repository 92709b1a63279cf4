package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin
}

// FullName falls back to the username when no name was ever set.
func (u *User) FullName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Title       string          `gorm:"not null"                    json:"title"`
	Description string          `json:"description"`
	Category    string          `gorm:"index"                       json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Inventory   int             `json:"inventory"`
	IsActive    bool            `gorm:"default:true"                json:"is_active"`
}

// CartItem rows are unique per (user, product); repeated adds increment
// Quantity instead of inserting a duplicate.
type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  uint      `gorm:"default:1;check:quantity>0"                 json:"quantity"`
	AddedAt   time.Time `gorm:"autoCreateTime"                             json:"added_at"`
	Product   Product   `gorm:"foreignKey:ProductID"                       json:"product"`
}

type Order struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	UserID    uint            `gorm:"index;not null"              json:"user_id"`
	Status    string          `gorm:"not null"                    json:"status"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
}

// OrderItem.Price is a snapshot taken at order time; later product
// price changes never touch existing orders.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	ProductID uint            `gorm:"not null"                    json:"product_id"`
	Quantity  uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}
