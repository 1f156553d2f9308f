package api

import (
    "net/http"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/sirupsen/logrus"

    "github.com/KAYner2/Theame-sub000/internal/auth"
    "github.com/KAYner2/Theame-sub000/internal/catalog"
    "github.com/KAYner2/Theame-sub000/internal/config"
    "github.com/KAYner2/Theame-sub000/internal/idempotency"
    "github.com/KAYner2/Theame-sub000/internal/media"
    "github.com/KAYner2/Theame-sub000/internal/notify"
    "github.com/KAYner2/Theame-sub000/internal/payment"
    "github.com/KAYner2/Theame-sub000/internal/store"
)

type Server struct {
    Store    store.Store
    Claims   idempotency.Store
    Notifier notify.Notifier
    Broker   EventBroker
    Auth     *auth.Issuer
    Payments *payment.Client
    Media    media.Storage
    Reorder  *catalog.Reorderer
    Log      logrus.FieldLogger
    Validate *validator.Validate

    WebhookSecret  string
    IdempotencyTTL time.Duration
}

// NewServer fills defaults for anything the caller left nil. Store, Claims and Notifier are required.
func NewServer(s Server) *Server {
    srv := s
    if srv.Broker == nil { srv.Broker = NewBroker() }
    if srv.Log == nil { srv.Log = logrus.StandardLogger() }
    if srv.Validate == nil { srv.Validate = validator.New() }
    if srv.Reorder == nil { srv.Reorder = &catalog.Reorderer{Store: srv.Store} }
    if srv.Auth == nil { srv.Auth = auth.NewIssuer("", 0) }
    if srv.Media == nil { srv.Media = media.NewMemory("") }
    if srv.IdempotencyTTL <= 0 { srv.IdempotencyTTL = config.DefaultIdempotencyTTL }
    return &srv
}

// Routes registers every endpoint on a new mux. /metrics is mounted by the caller.
func (s *Server) Routes() *http.ServeMux {
    mux := http.NewServeMux()

    // Order notifications (database trigger)
    mux.HandleFunc("/api/notify-order", s.OrderWebhookHandler)

    // Storefront
    mux.HandleFunc("/api/categories", s.CategoriesHandler)
    mux.HandleFunc("/api/products", s.ProductsHandler)
    mux.HandleFunc("/api/products/", s.ProductByIDHandler)
    mux.HandleFunc("/api/reviews", s.ReviewsHandler)
    mux.HandleFunc("/api/hero-slides", s.HeroSlidesHandler)
    mux.HandleFunc("/api/checkout", s.CheckoutHandler)
    mux.HandleFunc("/api/payments/notify", s.PaymentNotifyHandler)
    mux.HandleFunc("/media/", s.MediaHandler)

    // Admin
    mux.HandleFunc("/api/admin/login", s.AdminLoginHandler)
    mux.Handle("/api/admin/categories", s.requireAdmin(s.AdminCategoriesHandler))
    mux.Handle("/api/admin/categories/", s.requireAdmin(s.AdminCategoriesHandler))
    mux.Handle("/api/admin/products", s.requireAdmin(s.AdminProductsHandler))
    mux.Handle("/api/admin/products/", s.requireAdmin(s.AdminProductsHandler))
    mux.Handle("/api/admin/hero-slides", s.requireAdmin(s.AdminHeroSlidesHandler))
    mux.Handle("/api/admin/hero-slides/", s.requireAdmin(s.AdminHeroSlidesHandler))
    mux.Handle("/api/admin/reviews", s.requireAdmin(s.AdminReviewsHandler))
    mux.Handle("/api/admin/reviews/", s.requireAdmin(s.AdminReviewsHandler))
    mux.Handle("/api/admin/reorder", s.requireAdmin(s.AdminReorderHandler))
    mux.Handle("/api/admin/failed-notifications", s.requireAdmin(s.FailedNotificationsHandler))
    mux.Handle("/api/admin/uploads", s.requireAdmin(s.UploadHandler))
    mux.Handle("/api/admin/orders/feed", s.requireAdmin(s.OrderFeedHandler))

    // Ops
    mux.HandleFunc("/healthz", s.HealthHandler)
    mux.HandleFunc("/readyz", s.ReadyHandler)
    mux.HandleFunc("/debug", s.DebugJSON)
    mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
    mux.HandleFunc("/openapi.json", s.OpenAPIJSONHandler)
    mux.HandleFunc("/docs", s.DocsHandler)
    return mux
}
