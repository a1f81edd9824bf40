package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

// ItemSummary is one order line in API responses.
type ItemSummary struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Metadata    types.JSONMap   `json:"metadata,omitempty"`
}

// Summary is the order shape returned from payment verification and the
// cashier transaction feed.
type Summary struct {
	ID            uuid.UUID           `json:"id"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	OrderNumber   *string             `json:"order_number,omitempty"`
	CustomerName  string              `json:"customer_name"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        enums.OrderStatus   `json:"status"`
	OrderType     enums.OrderType     `json:"order_type"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []ItemSummary       `json:"items"`
}

// NewSummary flattens an order row and its items for API responses.
func NewSummary(order *models.Order) Summary {
	summary := Summary{
		ID:            order.ID,
		VendorID:      order.VendorID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
		OrderType:     order.OrderType,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt,
		Items:         make([]ItemSummary, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		summary.Items = append(summary.Items, ItemSummary{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Metadata:    item.Metadata,
		})
	}
	return summary
}

// NewSummaries maps a slice of order rows.
func NewSummaries(rows []models.Order) []Summary {
	out := make([]Summary, 0, len(rows))
	for i := range rows {
		out = append(out, NewSummary(&rows[i]))
	}
	return out
}
