package store

import (
    "context"
    "fmt"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"

    "github.com/KAYner2/Theame-sub000/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu         sync.Mutex
    categories map[string]model.Category  // id -> category
    products   map[string]model.Product   // id -> product
    reviews    map[string]model.Review    // id -> review
    slides     map[string]model.HeroSlide // id -> slide
    orders     map[string]model.StoredOrder
    promos     map[string]model.PromoCode // upper(code) -> promo
    failed     []model.FailedNotification
    adminHash  []byte // bcrypt hash; empty disables admin login
    now        func() time.Time
}

func NewMemory() *Memory {
    return &Memory{
        categories: map[string]model.Category{},
        products: map[string]model.Product{},
        reviews: map[string]model.Review{},
        slides: map[string]model.HeroSlide{},
        orders: map[string]model.StoredOrder{},
        promos: map[string]model.PromoCode{},
        failed: []model.FailedNotification{},
        now: time.Now,
    }
}

// SetAdminPasswordHash installs the bcrypt hash checked by VerifyAdminPassword.
func (m *Memory) SetAdminPasswordHash(hash string) {
    m.mu.Lock(); defer m.mu.Unlock()
    m.adminHash = []byte(hash)
}

// PutPromoCode seeds a promo code.
func (m *Memory) PutPromoCode(p model.PromoCode) {
    m.mu.Lock(); defer m.mu.Unlock()
    m.promos[strings.ToUpper(p.Code)] = p
}

func (m *Memory) ListCategories(ctx context.Context) ([]model.Category, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := make([]model.Category, 0, len(m.categories))
    for _, c := range m.categories { out = append(out, c) }
    sort.SliceStable(out, func(i, j int) bool { return less(out[i].SortOrder, out[j].SortOrder, out[i].ID, out[j].ID) })
    return out, nil
}

func (m *Memory) SaveCategory(ctx context.Context, c model.Category) (model.Category, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if c.ID == "" {
        c.ID = uuid.New().String()
        c.SortOrder = len(m.categories)
    } else if _, ok := m.categories[c.ID]; !ok {
        return model.Category{}, ErrNotFound
    }
    m.categories[c.ID] = c
    return c, nil
}

func (m *Memory) DeleteCategory(ctx context.Context, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.categories[id]; !ok { return ErrNotFound }
    delete(m.categories, id)
    return nil
}

func (m *Memory) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    catID := ""
    if f.CategorySlug != "" {
        for _, c := range m.categories {
            if c.Slug == f.CategorySlug { catID = c.ID; break }
        }
        if catID == "" { return []model.Product{}, nil }
    }
    out := []model.Product{}
    for _, p := range m.products {
        if catID != "" && p.CategoryID != catID { continue }
        if f.InStockOnly && !p.InStock { continue }
        out = append(out, p)
    }
    sort.SliceStable(out, func(i, j int) bool { return less(out[i].SortOrder, out[j].SortOrder, out[i].ID, out[j].ID) })
    return out, nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (model.Product, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    p, ok := m.products[id]
    if !ok { return model.Product{}, ErrNotFound }
    return p, nil
}

func (m *Memory) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if p.ID == "" {
        p.ID = uuid.New().String()
        p.SortOrder = len(m.products)
        p.CreatedAt = m.now().UTC()
    } else {
        old, ok := m.products[p.ID]
        if !ok { return model.Product{}, ErrNotFound }
        p.CreatedAt = old.CreatedAt
    }
    m.products[p.ID] = p
    return p, nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.products[id]; !ok { return ErrNotFound }
    delete(m.products, id)
    return nil
}

func (m *Memory) ListReviews(ctx context.Context, approvedOnly bool) ([]model.Review, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []model.Review{}
    for _, r := range m.reviews {
        if approvedOnly && !r.Approved { continue }
        out = append(out, r)
    }
    // newest first
    sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
    return out, nil
}

func (m *Memory) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    r.ID = uuid.New().String()
    r.Approved = false
    r.CreatedAt = m.now().UTC()
    m.reviews[r.ID] = r
    return r, nil
}

func (m *Memory) SetReviewApproved(ctx context.Context, id string, approved bool) error {
    m.mu.Lock(); defer m.mu.Unlock()
    r, ok := m.reviews[id]
    if !ok { return ErrNotFound }
    r.Approved = approved
    m.reviews[id] = r
    return nil
}

func (m *Memory) DeleteReview(ctx context.Context, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.reviews[id]; !ok { return ErrNotFound }
    delete(m.reviews, id)
    return nil
}

func (m *Memory) ListHeroSlides(ctx context.Context, activeOnly bool) ([]model.HeroSlide, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []model.HeroSlide{}
    for _, s := range m.slides {
        if activeOnly && !s.Active { continue }
        out = append(out, s)
    }
    sort.SliceStable(out, func(i, j int) bool { return less(out[i].SortOrder, out[j].SortOrder, out[i].ID, out[j].ID) })
    return out, nil
}

func (m *Memory) SaveHeroSlide(ctx context.Context, s model.HeroSlide) (model.HeroSlide, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if s.ID == "" {
        s.ID = uuid.New().String()
        s.SortOrder = len(m.slides)
    } else if _, ok := m.slides[s.ID]; !ok {
        return model.HeroSlide{}, ErrNotFound
    }
    m.slides[s.ID] = s
    return s, nil
}

func (m *Memory) DeleteHeroSlide(ctx context.Context, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.slides[id]; !ok { return ErrNotFound }
    delete(m.slides, id)
    return nil
}

// UpdateSortOrder applies all positions or none.
func (m *Memory) UpdateSortOrder(ctx context.Context, kind string, ids []string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    var exists func(id string) bool
    var set func(id string, pos int)
    switch kind {
    case KindProducts:
        exists = func(id string) bool { _, ok := m.products[id]; return ok }
        set = func(id string, pos int) { p := m.products[id]; p.SortOrder = pos; m.products[id] = p }
    case KindCategories:
        exists = func(id string) bool { _, ok := m.categories[id]; return ok }
        set = func(id string, pos int) { c := m.categories[id]; c.SortOrder = pos; m.categories[id] = c }
    case KindHeroSlides:
        exists = func(id string) bool { _, ok := m.slides[id]; return ok }
        set = func(id string, pos int) { s := m.slides[id]; s.SortOrder = pos; m.slides[id] = s }
    default:
        return ErrUnknownKind
    }
    for _, id := range ids {
        if !exists(id) { return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound) }
    }
    for i, id := range ids { set(id, i) }
    return nil
}

func (m *Memory) CreateOrder(ctx context.Context, o model.StoredOrder) (model.StoredOrder, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if o.ID == "" { o.ID = uuid.New().String() }
    o.CreatedAt = m.now().UTC()
    m.orders[o.ID] = o
    return o, nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (model.StoredOrder, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    o, ok := m.orders[id]
    if !ok { return model.StoredOrder{}, ErrNotFound }
    return o, nil
}

func (m *Memory) UpdateOrderPayment(ctx context.Context, id, paymentID, paymentStatus string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    o, ok := m.orders[id]
    if !ok { return ErrNotFound }
    if paymentID != "" { o.PaymentID = paymentID }
    if paymentStatus != "" { o.PaymentStatus = paymentStatus }
    m.orders[id] = o
    return nil
}

func (m *Memory) GetPromoCode(ctx context.Context, code string) (model.PromoCode, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    p, ok := m.promos[strings.ToUpper(strings.TrimSpace(code))]
    if !ok || !p.Active { return model.PromoCode{}, ErrNotFound }
    return p, nil
}

func (m *Memory) VerifyAdminPassword(ctx context.Context, password string) (bool, error) {
    m.mu.Lock()
    hash := m.adminHash
    m.mu.Unlock()
    if len(hash) == 0 || password == "" { return false, nil }
    err := bcrypt.CompareHashAndPassword(hash, []byte(password))
    if err == bcrypt.ErrMismatchedHashAndPassword { return false, nil }
    if err != nil { return false, fmt.Errorf("compare admin password: %w", err) }
    return true, nil
}

func (m *Memory) RecordFailedNotification(ctx context.Context, f model.FailedNotification) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if f.ID == "" { f.ID = uuid.New().String() }
    if f.CreatedAt.IsZero() { f.CreatedAt = m.now().UTC() }
    m.failed = append(m.failed, f)
    return nil
}

// ListFailedNotifications returns the newest dead letters first.
func (m *Memory) ListFailedNotifications(ctx context.Context, limit int) ([]model.FailedNotification, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if limit <= 0 || limit > 500 { limit = 100 }
    out := []model.FailedNotification{}
    for i := len(m.failed) - 1; i >= 0 && len(out) < limit; i-- {
        out = append(out, m.failed[i])
    }
    return out, nil
}

func less(a, b int, idA, idB string) bool {
    if a != b { return a < b }
    return idA < idB
}
