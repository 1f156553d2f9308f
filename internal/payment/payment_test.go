package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSortedConcat(t *testing.T) {
	fields := map[string]any{
		"TerminalKey": "TK",
		"Amount":      int64(19200),
		"OrderId":     "21090",
		"Description": "Подарок",
		"DATA":        map[string]string{"Phone": "+7"},
		"Receipt":     map[string]any{"Items": []any{}},
	}
	got := Token(fields, "pass")
	assert.Len(t, got, 64)
	same := Token(map[string]any{
		"TerminalKey": "TK", "Amount": json.Number("19200"), "OrderId": "21090", "Description": "Подарок",
	}, "pass")
	assert.Equal(t, same, got, "nested values are ignored and number types agree")
	assert.NotEqual(t, got, Token(fields, "other"))
}

func TestVerifyToken(t *testing.T) {
	fields := map[string]any{"TerminalKey": "TK", "OrderId": "1", "Success": true, "Status": "CONFIRMED", "PaymentId": json.Number("13660")}
	fields["Token"] = Token(fields, "pw")
	assert.True(t, VerifyToken(fields, "pw"))
	assert.False(t, VerifyToken(fields, "nope"))
	fields["Status"] = "REJECTED"
	assert.False(t, VerifyToken(fields, "pw"))
	delete(fields, "Token")
	assert.False(t, VerifyToken(fields, "pw"))
}

func TestInitSuccess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Init", r.URL.Path)
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		require.NoError(t, dec.Decode(&got))
		_, _ = w.Write([]byte(`{"Success":true,"ErrorCode":"0","PaymentId":13660,"PaymentURL":"https://pay.example/13660"}`))
	}))
	defer srv.Close()

	c := NewClient("TK", "pw", srv.URL)
	c.NotificationURL = "https://shop.example/api/payments/notify"
	res, err := c.Init(context.Background(), InitRequest{OrderID: "o-1", Amount: 450000, Description: "Заказ o-1", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "13660", res.PaymentID)
	assert.Equal(t, "https://pay.example/13660", res.PaymentURL)

	assert.Equal(t, "TK", got["TerminalKey"])
	assert.Equal(t, "o-1", got["OrderId"])
	assert.Equal(t, json.Number("450000"), got["Amount"])
	assert.Equal(t, "https://shop.example/api/payments/notify", got["NotificationURL"])
	assert.True(t, VerifyToken(got, "pw"), "request token must match the documented algorithm")
}

func TestInitGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Success":false,"ErrorCode":"204","Message":"Неверный токен"}`))
	}))
	defer srv.Close()
	_, err := NewClient("TK", "pw", srv.URL).Init(context.Background(), InitRequest{OrderID: "o-1", Amount: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "204")

	_, err = NewClient("", "", srv.URL).Init(context.Background(), InitRequest{OrderID: "o-1", Amount: 100})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseNotification(t *testing.T) {
	c := NewClient("TK", "pw", "")
	fields := map[string]any{"TerminalKey": "TK", "OrderId": "o-1", "Success": true, "Status": "CONFIRMED", "PaymentId": json.Number("13660"), "Amount": json.Number("450000")}
	fields["Token"] = Token(fields, "pw")
	body, _ := json.Marshal(fields)

	n, err := c.ParseNotification(body)
	require.NoError(t, err)
	assert.Equal(t, Notification{OrderID: "o-1", PaymentID: "13660", Status: "CONFIRMED", Success: true, Amount: 450000}, n)

	fields["Status"] = "REFUNDED"
	body, _ = json.Marshal(fields)
	_, err = c.ParseNotification(body)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestTokenKnownVector(t *testing.T) {
	// Amount, OrderId, Password, TerminalKey
	got := Token(map[string]any{"TerminalKey": "TK", "Amount": int64(100), "OrderId": "o-7"}, "pw")
	assert.Equal(t, "eeb1855bdfae7a153c3539ebc58e8834502f6309110aa5b98d42df59f10fbc76", got)
}
