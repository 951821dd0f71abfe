package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/enums"
)

// TopProduct is one entry of the most-rented ranking.
type TopProduct struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	Orders      int64     `json:"orders"`
}

// LowStockProduct is a product whose on-hand quantity is at or under the threshold.
type LowStockProduct struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	QuantityOnHand int       `json:"quantity_on_hand"`
}

// RecentOrder is a compact row for the latest orders panel.
type RecentOrder struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Dashboard aggregates the vendor or admin overview.
type Dashboard struct {
	Scope             string            `json:"scope"`
	TotalProducts     int64             `json:"total_products"`
	TotalOrders       int64             `json:"total_orders"`
	ActiveRentals     int64             `json:"active_rentals"`
	Revenue           decimal.Decimal   `json:"revenue"`
	PendingRevenue    decimal.Decimal   `json:"pending_revenue"`
	MostRented        []TopProduct      `json:"most_rented"`
	LowStock          []LowStockProduct `json:"low_stock"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	RecentOrders      []RecentOrder     `json:"recent_orders"`
}
