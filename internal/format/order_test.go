package format

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KAYner2/Theame-sub000/internal/model"
)

func decode(t *testing.T, raw string) model.Order {
	t.Helper()
	p, ok := model.DecodeOrder(json.RawMessage(raw))
	require.True(t, ok)
	return p.Normalize()
}

const fullOrder = `{
	"id": "42", "total_amount": 4350, "payment_method": "card", "delivery_type": "delivery",
	"customer_name": "Анна", "customer_phone": "+79990000000",
	"recipient_name": "Мария", "recipient_phone": "+79991111111", "recipient_address": "ул. Ленина, 1",
	"delivery_date": "2026-03-08", "delivery_time": "10:00-12:00",
	"promo_code": "SPRING", "discount_amount": 150,
	"status": "new", "comment": "Позвонить заранее", "card_message": "С 8 марта!",
	"items": [{"name": "Розы", "price": 100, "cartQuantity": 3}, {"name": "Букет", "price": 4200, "cartQuantity": 1}]
}`

func TestOrderDeterministic(t *testing.T) {
	o := decode(t, fullOrder)
	first := Order(o, "order.insert")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Order(o, "order.insert"))
	}
}

func TestOrderFullTemplate(t *testing.T) {
	msg := Order(decode(t, fullOrder), "order.insert")
	assert.True(t, strings.HasPrefix(msg, "🆕 Новый заказ №42\n"+separator+"\n"))
	assert.Contains(t, msg, "👤 Заказчик: Анна, +79990000000")
	assert.Contains(t, msg, "🎁 Получатель: Мария, +79991111111")
	assert.Contains(t, msg, "📍 Адрес: ул. Ленина, 1")
	assert.Contains(t, msg, "🕒 Когда: 2026-03-08 10:00-12:00")
	assert.Contains(t, msg, "🧺 Состав заказа:")
	assert.Contains(t, msg, "\n• Розы ×3 — 300 ₽ (100 ₽/шт)")
	assert.Contains(t, msg, "🏷 Промокод: SPRING (скидка 150 ₽)")
	assert.Contains(t, msg, "📌 Статус: new")
	assert.Contains(t, msg, "💌 Открытка: С 8 марта!")
	assert.Contains(t, msg, "💬 Комментарий: Позвонить заранее")
	assert.Contains(t, msg, "💳 Картой онлайн · 🚚 Доставка")
	// grouping uses a locale separator between thousands
	assert.NotContains(t, msg, "4350 ₽")
	assert.Contains(t, msg, "350 ₽ ·")
}

func TestOrderItemLine(t *testing.T) {
	msg := Order(decode(t, `{"id":"1","items":[{"name":"Розы","price":100,"cartQuantity":3}]}`), "order.insert")
	assert.Contains(t, msg, "• Розы ×3 — 300 ₽ (100 ₽/шт)")
}

func TestOrderWithoutItemsKeepsTotals(t *testing.T) {
	for _, raw := range []string{
		`{"id":"1","total_amount":500,"items":[]}`,
		`{"id":"1","total_amount":500}`,
		`{"id":"1","total_amount":500,"items":"oops"}`,
	} {
		msg := Order(decode(t, raw), "order.insert")
		assert.NotContains(t, msg, "Состав заказа", raw)
		assert.Contains(t, msg, "💰 Итого: 500 ₽", raw)
	}
}

func TestOrderAddressOnlyForDelivery(t *testing.T) {
	for _, dt := range []string{"pickup", "", "courier?"} {
		raw := `{"id":"1","recipient_address":"ул. Пушкина, 10","delivery_type":"` + dt + `"}`
		msg := Order(decode(t, raw), "order.insert")
		assert.NotContains(t, msg, "Адрес", dt)
		assert.NotContains(t, msg, "Пушкина", dt)
	}
}

func TestOrderCommentEmptyMarkerOmitted(t *testing.T) {
	for _, c := range []string{"EMPTY", "empty", "Empty", "   ", ""} {
		raw := `{"id":"1","comment":"` + c + `","card_message":"` + c + `"}`
		msg := Order(decode(t, raw), "order.insert")
		assert.NotContains(t, msg, "Комментарий", c)
		assert.NotContains(t, msg, "Открытка", c)
	}
}

func TestOrderMinimalTemplate(t *testing.T) {
	msg := Order(decode(t, `{"id":"9"}`), "order.update")
	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "🔄 Заказ №9 обновлён", lines[0])
	assert.Equal(t, separator, lines[1])
	assert.Equal(t, "💰 Итого: — · 💳 — · 🚚 —", lines[2])
}

func TestOrderUnknownEnumsPassThrough(t *testing.T) {
	msg := Order(decode(t, `{"id":"3","payment_method":"crypto","delivery_type":"drone"}`), "order.custom")
	assert.True(t, strings.HasPrefix(msg, "📦 Заказ №3 · order.custom"))
	assert.Contains(t, msg, "💳 crypto · 🚚 drone")
}

func TestOrderHugeTotalKeepsSign(t *testing.T) {
	msg := Order(decode(t, `{"id":"1","total_amount":1e20}`), "order.insert")
	assert.NotContains(t, msg, "-9")
	assert.Contains(t, msg, "000 ₽ ·")
}

func TestOrderEventMatchedExactly(t *testing.T) {
	msg := Order(decode(t, `{"id":"5"}`), "ORDER.INSERT")
	assert.True(t, strings.HasPrefix(msg, "📦 Заказ №5 · ORDER.INSERT"))
}

func TestNumberFractions(t *testing.T) {
	msg := Order(decode(t, `{"id":"1","items":[{"name":"Лента","price":12.5,"cartQuantity":2}]}`), "order.insert")
	assert.Contains(t, msg, "• Лента ×2 — 25 ₽ (12")
	assert.Contains(t, msg, "5 ₽/шт)")
	assert.NotContains(t, msg, "12,50")
}
