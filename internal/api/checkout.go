package api

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strings"

    "github.com/sirupsen/logrus"

    "github.com/KAYner2/Theame-sub000/internal/model"
    "github.com/KAYner2/Theame-sub000/internal/payment"
    "github.com/KAYner2/Theame-sub000/internal/store"
)

type checkoutLine struct {
    ProductID    string `json:"id" validate:"required"`
    CartQuantity int    `json:"cartQuantity" validate:"gte=1,lte=99"`
}

type checkoutRequest struct {
    Items            []checkoutLine `json:"items" validate:"required,min=1,max=50,dive"`
    CustomerName     string         `json:"customer_name" validate:"required,max=120"`
    CustomerPhone    string         `json:"customer_phone" validate:"required,max=32"`
    CustomerEmail    string         `json:"customer_email" validate:"omitempty,email"`
    RecipientName    string         `json:"recipient_name" validate:"max=120"`
    RecipientPhone   string         `json:"recipient_phone" validate:"max=32"`
    RecipientAddress string         `json:"recipient_address" validate:"required_if=DeliveryType delivery,max=500"`
    DeliveryType     string         `json:"delivery_type" validate:"required,oneof=delivery pickup"`
    DeliveryDate     string         `json:"delivery_date" validate:"max=32"`
    DeliveryTime     string         `json:"delivery_time" validate:"max=32"`
    PaymentMethod    string         `json:"payment_method" validate:"required,oneof=card cash sbp"`
    PromoCode        string         `json:"promo_code" validate:"max=64"`
    Comment          string         `json:"comment" validate:"max=2000"`
    CardMessage      string         `json:"card_message" validate:"max=1000"`
}

var errCheckout = errors.New("checkout")

// CheckoutHandler handles POST /api/checkout: prices the cart from the catalog, applies a promo code,
// stores the order and, for card payments, registers the payment with the gateway.
func (s *Server) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { methodNotAllowed(w, http.MethodPost); return }
    var req checkoutRequest
    if !s.decodeJSON(w, r, &req) { return }

    order, err := s.priceOrder(r.Context(), req)
    if err != nil {
        if errors.Is(err, errCheckout) {
            writeProblem(w, http.StatusUnprocessableEntity, "Checkout rejected", strings.TrimPrefix(err.Error(), "checkout: "), r.URL.Path)
            return
        }
        s.storeFailure(w, r, "Checkout failed", err)
        return
    }
    if order.PaymentMethod == model.PaymentCard {
        if !s.Payments.Configured() {
            writeProblem(w, http.StatusServiceUnavailable, "Card payments unavailable", "payment gateway not configured", r.URL.Path)
            return
        }
        order.PaymentStatus = "pending"
    }
    order, err = s.Store.CreateOrder(r.Context(), order)
    if err != nil { s.storeFailure(w, r, "Create order failed", err); return }
    log := s.Log.WithFields(logrus.Fields{"order_id": order.ID, "total": order.TotalAmount, "payment_method": order.PaymentMethod})
    s.Broker.Publish(TopicOrders, Event{Type: "order.created", Data: map[string]any{"orderId": order.ID, "total": order.TotalAmount}})

    resp := map[string]any{"orderId": order.ID, "total": order.TotalAmount, "discount": order.DiscountAmount}
    if order.PaymentMethod != model.PaymentCard {
        log.Info("checkout: order created")
        writeJSON(w, http.StatusCreated, resp)
        return
    }
    res, err := s.Payments.Init(r.Context(), payment.InitRequest{
        OrderID:     order.ID,
        Amount:      order.TotalAmount * 100,
        Description: fmt.Sprintf("Заказ %s", order.ID),
        Email:       order.CustomerEmail,
        Phone:       order.CustomerPhone,
    })
    if err != nil {
        log.WithError(err).Error("checkout: payment init failed")
        _ = s.Store.UpdateOrderPayment(r.Context(), order.ID, "", "init_failed")
        writeProblem(w, http.StatusBadGateway, "Payment init failed", "order saved, payment could not be started", r.URL.Path)
        return
    }
    if err := s.Store.UpdateOrderPayment(r.Context(), order.ID, res.PaymentID, "NEW"); err != nil {
        log.WithError(err).Error("checkout: save payment id")
    }
    log.WithField("payment_id", res.PaymentID).Info("checkout: payment started")
    resp["paymentId"] = res.PaymentID
    resp["paymentUrl"] = res.PaymentURL
    writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) priceOrder(ctx context.Context, req checkoutRequest) (model.StoredOrder, error) {
    o := model.StoredOrder{
        PaymentMethod:  req.PaymentMethod,
        DeliveryType:   req.DeliveryType,
        Status:         "new",
        CustomerName:   strings.TrimSpace(req.CustomerName),
        CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
        CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
        RecipientName:  strings.TrimSpace(req.RecipientName),
        RecipientPhone: strings.TrimSpace(req.RecipientPhone),
        DeliveryDate:   req.DeliveryDate,
        DeliveryTime:   req.DeliveryTime,
        Comment:        model.FreeText(req.Comment),
        CardMessage:    model.FreeText(req.CardMessage),
    }
    if req.DeliveryType == model.DeliveryCourier {
        o.RecipientAddress = strings.TrimSpace(req.RecipientAddress)
    }
    var subtotal int64
    for _, line := range req.Items {
        p, err := s.Store.GetProduct(ctx, line.ProductID)
        if errors.Is(err, store.ErrNotFound) {
            return model.StoredOrder{}, fmt.Errorf("%w: product %s not found", errCheckout, line.ProductID)
        }
        if err != nil { return model.StoredOrder{}, err }
        if !p.InStock {
            return model.StoredOrder{}, fmt.Errorf("%w: %s is out of stock", errCheckout, p.Name)
        }
        subtotal += p.Price * int64(line.CartQuantity)
        o.Items = append(o.Items, model.OrderLine{ProductID: p.ID, Name: p.Name, Price: p.Price, CartQuantity: line.CartQuantity})
    }
    if code := strings.TrimSpace(req.PromoCode); code != "" {
        promo, err := s.Store.GetPromoCode(ctx, code)
        if errors.Is(err, store.ErrNotFound) {
            return model.StoredOrder{}, fmt.Errorf("%w: promo code %s is not valid", errCheckout, code)
        }
        if err != nil { return model.StoredOrder{}, err }
        o.PromoCode = promo.Code
        o.DiscountAmount = promo.Discount(subtotal)
    }
    o.TotalAmount = subtotal - o.DiscountAmount
    return o, nil
}

// PaymentNotifyHandler handles POST /api/payments/notify from the gateway. The gateway expects a literal OK.
func (s *Server) PaymentNotifyHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { methodNotAllowed(w, http.MethodPost); return }
    body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
    if err != nil { writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error(), r.URL.Path); return }
    n, err := s.Payments.ParseNotification(body)
    if err != nil {
        s.Log.WithError(err).Warn("payment notify: rejected")
        writeText(w, http.StatusBadRequest, "BAD_TOKEN")
        return
    }
    log := s.Log.WithFields(logrus.Fields{"order_id": n.OrderID, "payment_id": n.PaymentID, "status": n.Status})
    if err := s.Store.UpdateOrderPayment(r.Context(), n.OrderID, n.PaymentID, n.Status); err != nil {
        if !errors.Is(err, store.ErrNotFound) {
            log.WithError(err).Error("payment notify: update order")
            writeText(w, http.StatusInternalServerError, "ERROR")
            return
        }
        log.Warn("payment notify: unknown order")
    }
    s.Broker.Publish(TopicOrders, Event{Type: "payment." + strings.ToLower(n.Status), Data: map[string]any{
        "orderId": n.OrderID, "paymentId": n.PaymentID, "success": n.Success, "amount": n.Amount,
    }})
    log.Info("payment notify: applied")
    writeText(w, http.StatusOK, "OK")
}
