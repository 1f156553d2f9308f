package model

import "time"

// Order is the normalized, fully-defaulted view of an OrderPayload.
type Order struct {
	ID               string
	Total            float64
	HasTotal         bool
	PaymentMethod    string
	DeliveryType     string
	Status           string
	PaymentStatus    string
	Items            []Item
	HasItems         bool
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	DeliveryDate     string
	DeliveryTime     string
	PromoCode        string
	Discount         float64
	Comment          string
	CardMessage      string
}

type Item struct {
	Name     string
	Price    float64
	Quantity float64
}

// Delivery types and payment methods known to the storefront.
const (
	DeliveryCourier = "delivery"
	DeliveryPickup  = "pickup"

	PaymentCard = "card"
	PaymentCash = "cash"
	PaymentSBP  = "sbp"
)

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,max=120"`
	Slug      string `json:"slug" validate:"required,max=120"`
	SortOrder int    `json:"sortOrder"`
}

type Product struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId" validate:"required"`
	Name        string    `json:"name" validate:"required,max=200"`
	Slug        string    `json:"slug" validate:"required,max=200"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price" validate:"gte=0"`
	OldPrice    int64     `json:"oldPrice,omitempty" validate:"gte=0"`
	ImageURL    string    `json:"imageUrl,omitempty" validate:"omitempty,uri"`
	InStock     bool      `json:"inStock"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductFilter narrows ListProducts. Zero value lists everything.
type ProductFilter struct {
	CategorySlug string
	InStockOnly  bool
}

type Review struct {
	ID        string    `json:"id"`
	Author    string    `json:"author" validate:"required,max=100"`
	Text      string    `json:"text" validate:"required,max=2000"`
	Rating    int       `json:"rating" validate:"gte=1,lte=5"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
}

type HeroSlide struct {
	ID        string `json:"id"`
	Title     string `json:"title" validate:"max=200"`
	Subtitle  string `json:"subtitle,omitempty" validate:"max=400"`
	ImageURL  string `json:"imageUrl" validate:"required,uri"`
	LinkURL   string `json:"linkUrl,omitempty"`
	Active    bool   `json:"active"`
	SortOrder int    `json:"sortOrder"`
}

type PromoCode struct {
	Code    string `json:"code"`
	Percent int    `json:"percent,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Active  bool   `json:"active"`
}

// Discount returns the discount for subtotal, never more than subtotal.
func (p PromoCode) Discount(subtotal int64) int64 {
	d := p.Amount
	if p.Percent > 0 {
		d = subtotal * int64(p.Percent) / 100
	}
	if d > subtotal {
		d = subtotal
	}
	if d < 0 {
		d = 0
	}
	return d
}

// StoredOrder is an order row as persisted by checkout.
type StoredOrder struct {
	ID               string      `json:"id"`
	TotalAmount      int64       `json:"total_amount"`
	DiscountAmount   int64       `json:"discount_amount"`
	PromoCode        string      `json:"promo_code,omitempty"`
	PaymentMethod    string      `json:"payment_method"`
	PaymentID        string      `json:"payment_id,omitempty"`
	PaymentStatus    string      `json:"payment_status,omitempty"`
	DeliveryType     string      `json:"delivery_type"`
	Status           string      `json:"status"`
	Items            []OrderLine `json:"items"`
	CustomerName     string      `json:"customer_name"`
	CustomerPhone    string      `json:"customer_phone"`
	CustomerEmail    string      `json:"customer_email,omitempty"`
	RecipientName    string      `json:"recipient_name,omitempty"`
	RecipientPhone   string      `json:"recipient_phone,omitempty"`
	RecipientAddress string      `json:"recipient_address,omitempty"`
	DeliveryDate     string      `json:"delivery_date,omitempty"`
	DeliveryTime     string      `json:"delivery_time,omitempty"`
	Comment          string      `json:"comment,omitempty"`
	CardMessage      string      `json:"card_message,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// OrderLine uses the storefront cart field names so persisted items format the same way as webhook items.
type OrderLine struct {
	ProductID    string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	CartQuantity int    `json:"cartQuantity"`
}

// FailedNotification is a dead-lettered send that exhausted its retry.
type FailedNotification struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
}
