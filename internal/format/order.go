// Package format renders order events as chat messages.
package format

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KAYner2/Theame-sub000/internal/model"
)

// SelfTest is sent by the webhook GET connectivity check.
const SelfTest = "✅ Тестовое уведомление: бот заказов подключён"

const (
	separator   = "━━━━━━━━━━━━━━━"
	placeholder = "—"
)

var paymentLabels = map[string]string{
	model.PaymentCard: "Картой онлайн",
	model.PaymentCash: "Наличными при получении",
	model.PaymentSBP:  "СБП",
	"transfer":        "Переводом",
}

var deliveryLabels = map[string]string{
	model.DeliveryCourier: "Доставка",
	model.DeliveryPickup:  "Самовывоз",
}

// Order renders o for event. It has no side effects: equal inputs give byte-identical output.
func Order(o model.Order, event string) string {
	p := message.NewPrinter(language.Russian)
	var b strings.Builder

	b.WriteString(header(o.ID, event))
	b.WriteString("\n")
	b.WriteString(separator)

	line := func(s string) {
		b.WriteString("\n")
		b.WriteString(s)
	}

	if who := joinNonEmpty(", ", o.CustomerName, o.CustomerPhone, o.CustomerEmail); who != "" {
		line("👤 Заказчик: " + who)
	}
	if who := joinNonEmpty(", ", o.RecipientName, o.RecipientPhone); who != "" {
		line("🎁 Получатель: " + who)
	}
	if o.DeliveryType == model.DeliveryCourier && o.RecipientAddress != "" {
		line("📍 Адрес: " + o.RecipientAddress)
	}
	if when := joinNonEmpty(" ", o.DeliveryDate, o.DeliveryTime); when != "" {
		line("🕒 Когда: " + when)
	}
	if o.HasItems && len(o.Items) > 0 {
		line("🧺 Состав заказа:")
		for _, it := range o.Items {
			line("• " + it.Name + " ×" + number(p, it.Quantity) + " — " +
				number(p, it.Price*it.Quantity) + " ₽ (" + number(p, it.Price) + " ₽/шт)")
		}
	}
	switch {
	case o.PromoCode != "" && o.Discount > 0:
		line("🏷 Промокод: " + o.PromoCode + " (скидка " + number(p, o.Discount) + " ₽)")
	case o.PromoCode != "":
		line("🏷 Промокод: " + o.PromoCode)
	case o.Discount > 0:
		line("🏷 Скидка: " + number(p, o.Discount) + " ₽")
	}
	switch {
	case o.Status != "" && o.PaymentStatus != "":
		line("📌 Статус: " + o.Status + " · оплата: " + o.PaymentStatus)
	case o.Status != "":
		line("📌 Статус: " + o.Status)
	case o.PaymentStatus != "":
		line("📌 Статус оплаты: " + o.PaymentStatus)
	}
	if o.CardMessage != "" {
		line("💌 Открытка: " + o.CardMessage)
	}
	if o.Comment != "" {
		line("💬 Комментарий: " + o.Comment)
	}

	total := placeholder
	if o.HasTotal {
		total = number(p, o.Total) + " ₽"
	}
	line("💰 Итого: " + total + " · 💳 " + label(paymentLabels, o.PaymentMethod) + " · 🚚 " + label(deliveryLabels, o.DeliveryType))
	return b.String()
}

func header(id, event string) string {
	if id == "" {
		id = placeholder
	}
	switch strings.TrimSpace(event) {
	case "order.insert":
		return "🆕 Новый заказ №" + id
	case "order.update":
		return "🔄 Заказ №" + id + " обновлён"
	}
	if event = strings.TrimSpace(event); event != "" {
		return "📦 Заказ №" + id + " · " + event
	}
	return "📦 Заказ №" + id
}

func label(table map[string]string, v string) string {
	if v == "" {
		return placeholder
	}
	if l, ok := table[v]; ok {
		return l
	}
	return v
}

// number groups digits the Russian way and prints at most two fraction digits, none when integral.
func number(p *message.Printer, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return placeholder
	}
	r := math.Round(v*100) / 100
	if math.Abs(r) >= 1<<53 {
		return p.Sprintf("%.0f", r)
	}
	if r == math.Trunc(r) {
		return p.Sprintf("%d", int64(r))
	}
	s := p.Sprintf("%.2f", r)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ",.")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}
