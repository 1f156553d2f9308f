package store

import (
    "context"
    "errors"

    "github.com/KAYner2/Theame-sub000/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Categories
    ListCategories(ctx context.Context) ([]model.Category, error)
    SaveCategory(ctx context.Context, c model.Category) (model.Category, error)
    DeleteCategory(ctx context.Context, id string) error

    // Products
    ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
    GetProduct(ctx context.Context, id string) (model.Product, error)
    SaveProduct(ctx context.Context, p model.Product) (model.Product, error)
    DeleteProduct(ctx context.Context, id string) error

    // Reviews
    ListReviews(ctx context.Context, approvedOnly bool) ([]model.Review, error)
    CreateReview(ctx context.Context, r model.Review) (model.Review, error)
    SetReviewApproved(ctx context.Context, id string, approved bool) error
    DeleteReview(ctx context.Context, id string) error

    // Hero slides
    ListHeroSlides(ctx context.Context, activeOnly bool) ([]model.HeroSlide, error)
    SaveHeroSlide(ctx context.Context, s model.HeroSlide) (model.HeroSlide, error)
    DeleteHeroSlide(ctx context.Context, id string) error

    // UpdateSortOrder writes sort_order = position for every id of kind.
    UpdateSortOrder(ctx context.Context, kind string, ids []string) error

    // Orders & promo codes
    CreateOrder(ctx context.Context, o model.StoredOrder) (model.StoredOrder, error)
    GetOrder(ctx context.Context, id string) (model.StoredOrder, error)
    UpdateOrderPayment(ctx context.Context, id, paymentID, paymentStatus string) error
    GetPromoCode(ctx context.Context, code string) (model.PromoCode, error)

    // VerifyAdminPassword checks the back-office password.
    VerifyAdminPassword(ctx context.Context, password string) (bool, error)

    // Dead letters
    RecordFailedNotification(ctx context.Context, f model.FailedNotification) error
    ListFailedNotifications(ctx context.Context, limit int) ([]model.FailedNotification, error)
}

// Sortable kinds accepted by UpdateSortOrder.
const (
    KindProducts   = "products"
    KindCategories = "categories"
    KindHeroSlides = "hero_slides"
)

var (
    ErrNotFound     = errors.New("not found")
    ErrUnknownKind  = errors.New("unknown sortable kind")
)

// ValidKind reports whether kind can be reordered.
func ValidKind(kind string) bool {
    switch kind {
    case KindProducts, KindCategories, KindHeroSlides:
        return true
    }
    return false
}
