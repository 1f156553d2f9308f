package store

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/KAYner2/Theame-sub000/internal/model"
)

func TestMemoryProductsFilterAndOrder(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    roses, err := m.SaveCategory(ctx, model.Category{Name: "Розы", Slug: "roses"})
    require.NoError(t, err)
    tulips, err := m.SaveCategory(ctx, model.Category{Name: "Тюльпаны", Slug: "tulips"})
    require.NoError(t, err)

    a, _ := m.SaveProduct(ctx, model.Product{CategoryID: roses.ID, Name: "A", Slug: "a", Price: 100, InStock: true})
    b, _ := m.SaveProduct(ctx, model.Product{CategoryID: roses.ID, Name: "B", Slug: "b", Price: 200})
    _, _ = m.SaveProduct(ctx, model.Product{CategoryID: tulips.ID, Name: "C", Slug: "c", Price: 300, InStock: true})

    got, err := m.ListProducts(ctx, model.ProductFilter{CategorySlug: "roses"})
    require.NoError(t, err)
    require.Len(t, got, 2)
    assert.Equal(t, a.ID, got[0].ID)
    assert.Equal(t, b.ID, got[1].ID)

    got, _ = m.ListProducts(ctx, model.ProductFilter{CategorySlug: "roses", InStockOnly: true})
    require.Len(t, got, 1)
    assert.Equal(t, "A", got[0].Name)

    got, _ = m.ListProducts(ctx, model.ProductFilter{CategorySlug: "missing"})
    assert.Empty(t, got)

    _, err = m.SaveProduct(ctx, model.Product{ID: "nope", Name: "x"})
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateSortOrderAllOrNothing(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    s1, _ := m.SaveHeroSlide(ctx, model.HeroSlide{ImageURL: "https://x/1.jpg", Active: true})
    s2, _ := m.SaveHeroSlide(ctx, model.HeroSlide{ImageURL: "https://x/2.jpg", Active: true})

    err := m.UpdateSortOrder(ctx, KindHeroSlides, []string{s2.ID, "ghost", s1.ID})
    require.ErrorIs(t, err, ErrNotFound)
    slides, _ := m.ListHeroSlides(ctx, true)
    assert.Equal(t, []string{s1.ID, s2.ID}, []string{slides[0].ID, slides[1].ID})

    require.NoError(t, m.UpdateSortOrder(ctx, KindHeroSlides, []string{s2.ID, s1.ID}))
    slides, _ = m.ListHeroSlides(ctx, true)
    assert.Equal(t, []string{s2.ID, s1.ID}, []string{slides[0].ID, slides[1].ID})

    assert.ErrorIs(t, m.UpdateSortOrder(ctx, "orders", nil), ErrUnknownKind)
}

func TestMemoryReviewsModeration(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    r, err := m.CreateReview(ctx, model.Review{Author: "Ира", Text: "Спасибо!", Rating: 5, Approved: true})
    require.NoError(t, err)
    assert.False(t, r.Approved, "new reviews start unapproved")

    pub, _ := m.ListReviews(ctx, true)
    assert.Empty(t, pub)
    require.NoError(t, m.SetReviewApproved(ctx, r.ID, true))
    pub, _ = m.ListReviews(ctx, true)
    require.Len(t, pub, 1)

    require.NoError(t, m.DeleteReview(ctx, r.ID))
    assert.ErrorIs(t, m.DeleteReview(ctx, r.ID), ErrNotFound)
}

func TestMemoryOrdersAndPromo(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    m.PutPromoCode(model.PromoCode{Code: "Spring", Percent: 10, Active: true})
    m.PutPromoCode(model.PromoCode{Code: "OLD", Amount: 500})

    p, err := m.GetPromoCode(ctx, " spring ")
    require.NoError(t, err)
    assert.Equal(t, int64(100), p.Discount(1000))
    _, err = m.GetPromoCode(ctx, "old")
    assert.ErrorIs(t, err, ErrNotFound)

    o, err := m.CreateOrder(ctx, model.StoredOrder{TotalAmount: 900, PaymentMethod: model.PaymentCard})
    require.NoError(t, err)
    require.NoError(t, m.UpdateOrderPayment(ctx, o.ID, "pay-1", ""))
    require.NoError(t, m.UpdateOrderPayment(ctx, o.ID, "", "CONFIRMED"))
    got, err := m.GetOrder(ctx, o.ID)
    require.NoError(t, err)
    assert.Equal(t, "pay-1", got.PaymentID)
    assert.Equal(t, "CONFIRMED", got.PaymentStatus)
    assert.ErrorIs(t, m.UpdateOrderPayment(ctx, "missing", "x", "y"), ErrNotFound)
}

func TestMemoryVerifyAdminPassword(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    ok, err := m.VerifyAdminPassword(ctx, "secret")
    require.NoError(t, err)
    assert.False(t, ok, "no hash configured")

    hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
    require.NoError(t, err)
    m.SetAdminPasswordHash(string(hash))
    ok, _ = m.VerifyAdminPassword(ctx, "secret")
    assert.True(t, ok)
    ok, _ = m.VerifyAdminPassword(ctx, "wrong")
    assert.False(t, ok)

    m.SetAdminPasswordHash("garbage")
    _, err = m.VerifyAdminPassword(ctx, "secret")
    assert.Error(t, err)
}

func TestMemoryFailedNotificationsNewestFirst(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    base := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
    for i, ch := range []string{"telegram", "whatsapp", "telegram"} {
        require.NoError(t, m.RecordFailedNotification(ctx, model.FailedNotification{
            Channel: ch, Recipient: "r", Text: "t", Error: "boom", Attempts: 2, CreatedAt: base.Add(time.Duration(i) * time.Minute),
        }))
    }
    got, err := m.ListFailedNotifications(ctx, 2)
    require.NoError(t, err)
    require.Len(t, got, 2)
    assert.Equal(t, base.Add(2*time.Minute), got[0].CreatedAt)
    assert.Equal(t, "whatsapp", got[1].Channel)
    assert.NotEmpty(t, got[0].ID)
}
