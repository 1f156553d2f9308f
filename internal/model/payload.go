package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// NotificationEvent is the inbound order webhook body. Order stays raw until Normalize.
type NotificationEvent struct {
	Event string          `json:"event"`
	Order json.RawMessage `json:"order"`
}

// Text accepts a JSON string, number or bool. null and any other shape decode to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(s)
	case 't', 'f':
		*t = Text(string(b))
		if string(b) != "true" && string(b) != "false" {
			*t = ""
		}
	case 'n', '{', '[':
		*t = ""
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			*t = ""
			return nil
		}
		*t = Text(n.String())
	}
	return nil
}

// Trimmed returns the value with surrounding whitespace removed.
func (t Text) Trimmed() string { return strings.TrimSpace(string(t)) }

// OrderID accepts a JSON string or number. Bools, objects, arrays, null and numeric zero decode to "".
type OrderID string

func (id *OrderID) UnmarshalJSON(b []byte) error {
	*id = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch c := b[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*id = OrderID(s)
		}
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return nil
		}
		if f, err := n.Float64(); err == nil && f == 0 {
			return nil
		}
		*id = OrderID(n.String())
	}
	return nil
}

// Trimmed returns the id with surrounding whitespace removed.
func (id OrderID) Trimmed() string { return strings.TrimSpace(string(id)) }

// Number accepts a JSON number or a numeric string. Anything else leaves Valid false.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	var t Text
	_ = t.UnmarshalJSON(b)
	s := strings.ReplaceAll(t.Trimmed(), ",", ".")
	if s == "" || s == "true" || s == "false" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// OrderPayload is the loosely-typed order row sent by the database trigger.
// Every field is optional; Items stays raw because it may not be a list.
type OrderPayload struct {
	ID               OrderID         `json:"id"`
	TotalAmount      Number          `json:"total_amount"`
	PaymentMethod    Text            `json:"payment_method"`
	DeliveryType     Text            `json:"delivery_type"`
	Status           Text            `json:"status"`
	PaymentStatus    Text            `json:"payment_status"`
	Items            json.RawMessage `json:"items"`
	CustomerName     Text            `json:"customer_name"`
	CustomerPhone    Text            `json:"customer_phone"`
	CustomerEmail    Text            `json:"customer_email"`
	RecipientName    Text            `json:"recipient_name"`
	RecipientPhone   Text            `json:"recipient_phone"`
	RecipientAddress Text            `json:"recipient_address"`
	DeliveryDate     Text            `json:"delivery_date"`
	DeliveryTime     Text            `json:"delivery_time"`
	PromoCode        Text            `json:"promo_code"`
	DiscountAmount   Number          `json:"discount_amount"`
	Comment          Text            `json:"comment"`
	CardMessage      Text            `json:"card_message"`
}

// ItemPayload is one cart line inside OrderPayload.Items.
type ItemPayload struct {
	Name         Text   `json:"name"`
	Title        Text   `json:"title"`
	Price        Number `json:"price"`
	CartQuantity Number `json:"cartQuantity"`
	Quantity     Number `json:"quantity"`
}

// DecodeOrder parses a raw order value. ok is false when raw is not a JSON object.
func DecodeOrder(raw json.RawMessage) (OrderPayload, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return OrderPayload{}, false
	}
	var p OrderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return OrderPayload{}, false
	}
	return p, true
}

// Normalize produces a fully-defaulted Order. Nothing past this point reads raw fields.
func (p OrderPayload) Normalize() Order {
	o := Order{
		ID:               p.ID.Trimmed(),
		PaymentMethod:    strings.ToLower(p.PaymentMethod.Trimmed()),
		DeliveryType:     strings.ToLower(p.DeliveryType.Trimmed()),
		Status:           p.Status.Trimmed(),
		PaymentStatus:    p.PaymentStatus.Trimmed(),
		CustomerName:     p.CustomerName.Trimmed(),
		CustomerPhone:    p.CustomerPhone.Trimmed(),
		CustomerEmail:    p.CustomerEmail.Trimmed(),
		RecipientName:    p.RecipientName.Trimmed(),
		RecipientPhone:   p.RecipientPhone.Trimmed(),
		RecipientAddress: p.RecipientAddress.Trimmed(),
		DeliveryDate:     p.DeliveryDate.Trimmed(),
		DeliveryTime:     p.DeliveryTime.Trimmed(),
		PromoCode:        p.PromoCode.Trimmed(),
		Comment:          FreeText(string(p.Comment)),
		CardMessage:      FreeText(string(p.CardMessage)),
	}
	if p.TotalAmount.Valid {
		o.Total = p.TotalAmount.Value
		o.HasTotal = true
	}
	if p.DiscountAmount.Valid {
		o.Discount = p.DiscountAmount.Value
	}
	o.Items, o.HasItems = decodeItems(p.Items)
	return o
}

func decodeItems(raw json.RawMessage) ([]Item, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	items := make([]Item, 0, len(elems))
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			continue
		}
		var ip ItemPayload
		if err := json.Unmarshal(e, &ip); err != nil {
			continue
		}
		items = append(items, ip.normalize())
	}
	return items, true
}

func (ip ItemPayload) normalize() Item {
	it := Item{Name: ip.Name.Trimmed(), Quantity: 1}
	if it.Name == "" {
		it.Name = ip.Title.Trimmed()
	}
	if it.Name == "" {
		it.Name = "Товар"
	}
	if ip.Price.Valid {
		it.Price = ip.Price.Value
	}
	switch {
	case ip.CartQuantity.Valid:
		it.Quantity = ip.CartQuantity.Value
	case ip.Quantity.Valid:
		it.Quantity = ip.Quantity.Value
	}
	return it
}

// FreeText trims v and treats "" and a case-insensitive "empty" as absent.
func FreeText(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "empty") {
		return ""
	}
	return v
}
