package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	"github.com/rentease/rentease-backend/pkg/pagination"
)

// ListOrdersInput carries the optional status filter and paging.
type ListOrdersInput struct {
	Status     string
	Pagination pagination.Params
}

// PartyDTO is the customer or vendor as shown on an order.
type PartyDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
}

// OrderSummary is one row of an order listing.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	Customer      *PartyDTO           `json:"customer,omitempty"`
	ItemCount     int                 `json:"item_count"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	InvoiceID     *uuid.UUID          `json:"invoice_id,omitempty"`
	InvoiceStatus enums.InvoiceStatus `json:"invoice_status,omitempty"`
	TotalAmount   *decimal.Decimal    `json:"total_amount,omitempty"`
	ReturnDate    *time.Time          `json:"return_date,omitempty"`
	ReturnStatus  enums.ReturnStatus  `json:"return_status"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps a page of orders plus the next cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderLineDTO is a rented item on an order.
type OrderLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity    int             `json:"quantity"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceSummary is the invoice block embedded in order detail.
type InvoiceSummary struct {
	ID            uuid.UUID           `json:"id"`
	InvoiceNumber string              `json:"invoice_number"`
	Status        enums.InvoiceStatus `json:"status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	AmountPaid    decimal.Decimal     `json:"amount_paid"`
	Balance       decimal.Decimal     `json:"balance"`
	DueDate       *time.Time          `json:"due_date,omitempty"`
}

// PickupDTO mirrors the pickup document.
type PickupDTO struct {
	PickupDate time.Time `json:"pickup_date"`
	PickedBy   string    `json:"picked_by"`
	IDProof    string    `json:"id_proof,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// ReturnDTO mirrors the return document.
type ReturnDTO struct {
	ReturnDate     time.Time       `json:"return_date"`
	ReturnedBy     string          `json:"returned_by"`
	ConditionNotes string          `json:"condition_notes,omitempty"`
	LateFee        decimal.Decimal `json:"late_fee"`
	DamageFee      decimal.Decimal `json:"damage_fee"`
}

// EventDTO is one audit entry.
type EventDTO struct {
	Type        enums.OrderEventType `json:"type"`
	ActorUserID *uuid.UUID           `json:"actor_user_id,omitempty"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// OrderDetail is the full order view.
type OrderDetail struct {
	OrderSummary
	DeliveryMethod  enums.DeliveryMethod `json:"delivery_method"`
	DeliveryAddress string               `json:"delivery_address,omitempty"`
	DeliveryCity    string               `json:"delivery_city,omitempty"`
	DeliveryState   string               `json:"delivery_state,omitempty"`
	DeliveryPincode string               `json:"delivery_pincode,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	Vendor          *PartyDTO            `json:"vendor,omitempty"`
	Lines           []OrderLineDTO       `json:"lines"`
	Invoice         *InvoiceSummary      `json:"invoice,omitempty"`
	Pickup          *PickupDTO           `json:"pickup,omitempty"`
	Return          *ReturnDTO           `json:"return,omitempty"`
	Events          []EventDTO           `json:"events,omitempty"`
}

// ReturnAlert flags an order that is due back soon or overdue.
type ReturnAlert struct {
	OrderID       uuid.UUID          `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	VendorID      uuid.UUID          `json:"vendor_id"`
	CustomerID    uuid.UUID          `json:"customer_id"`
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	ReturnDate    time.Time          `json:"return_date"`
	Status        enums.ReturnStatus `json:"status"`
	HoursLeft     int                `json:"hours_left"`
}

// ReturnStatusOf labels an order against its latest end date. Only orders with the goods
// out can be approaching or overdue.
func ReturnStatusOf(order models.RentalOrder, now time.Time, window time.Duration) enums.ReturnStatus {
	if order.Status == enums.OrderStatusReturned {
		return enums.ReturnStatusReturned
	}
	if !order.Status.IsOut() {
		return enums.ReturnStatusNormal
	}
	latest, ok := order.LatestReturnDate()
	if !ok {
		return enums.ReturnStatusNormal
	}
	if now.After(latest) {
		return enums.ReturnStatusOverdue
	}
	if latest.Sub(now) <= window {
		return enums.ReturnStatusApproaching
	}
	return enums.ReturnStatusNormal
}

func newParty(user *models.User) *PartyDTO {
	if user == nil {
		return nil
	}
	return &PartyDTO{
		ID:          user.ID,
		Name:        user.FullName(),
		Email:       user.Email,
		Phone:       user.Phone,
		CompanyName: user.CompanyName,
	}
}

func newSummary(order models.RentalOrder, now time.Time, window time.Duration) OrderSummary {
	summary := OrderSummary{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		Status:       order.Status,
		CustomerID:   order.CustomerID,
		VendorID:     order.VendorID,
		Customer:     newParty(order.Customer),
		Subtotal:     order.Subtotal(),
		ReturnStatus: ReturnStatusOf(order, now, window),
		ConfirmedAt:  order.ConfirmedAt,
		CreatedAt:    order.CreatedAt,
	}
	for _, line := range order.Lines {
		summary.ItemCount += line.Quantity
	}
	if latest, ok := order.LatestReturnDate(); ok {
		summary.ReturnDate = &latest
	}
	if inv := order.Invoice; inv != nil {
		id := inv.ID
		total := inv.TotalAmount
		summary.InvoiceID = &id
		summary.InvoiceStatus = inv.Status
		summary.TotalAmount = &total
	}
	return summary
}

func newDetail(order models.RentalOrder, events []models.OrderEvent, now time.Time, window time.Duration) *OrderDetail {
	detail := &OrderDetail{
		OrderSummary:    newSummary(order, now, window),
		DeliveryMethod:  order.DeliveryMethod,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryCity:    order.DeliveryCity,
		DeliveryState:   order.DeliveryState,
		DeliveryPincode: order.DeliveryPincode,
		Notes:           order.Notes,
		Vendor:          newParty(order.Vendor),
		Lines:           make([]OrderLineDTO, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		dto := OrderLineDTO{
			ID:        line.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			StartDate: line.StartDate,
			EndDate:   line.EndDate,
			UnitPrice: line.UnitPrice,
			Total:     line.Total(),
		}
		if line.Product != nil {
			dto.ProductName = line.Product.Name
		}
		detail.Lines = append(detail.Lines, dto)
	}
	if inv := order.Invoice; inv != nil {
		detail.Invoice = &InvoiceSummary{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Status:        inv.Status,
			TotalAmount:   inv.TotalAmount,
			AmountPaid:    inv.AmountPaid,
			Balance:       inv.Balance(),
			DueDate:       inv.DueDate,
		}
	}
	if p := order.Pickup; p != nil {
		detail.Pickup = &PickupDTO{PickupDate: p.PickupDate, PickedBy: p.PickedBy, IDProof: p.IDProof, Notes: p.Notes}
	}
	if r := order.Return; r != nil {
		detail.Return = &ReturnDTO{
			ReturnDate:     r.ReturnDate,
			ReturnedBy:     r.ReturnedBy,
			ConditionNotes: r.ConditionNotes,
			LateFee:        r.LateFee,
			DamageFee:      r.DamageFee,
		}
	}
	for _, event := range events {
		detail.Events = append(detail.Events, EventDTO{
			Type:        event.Type,
			ActorUserID: event.ActorUserID,
			Metadata:    event.Metadata,
			CreatedAt:   event.CreatedAt,
		})
	}
	return detail
}
