package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "github.com/KAYner2/Theame-sub000/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// sortTables maps sortable kinds to their tables; only these names are ever interpolated into SQL.
var sortTables = map[string]string{
    KindProducts:   "products",
    KindCategories: "categories",
    KindHeroSlides: "hero_slides",
}

func (p *Postgres) ListCategories(ctx context.Context) ([]model.Category, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, name, slug, sort_order FROM categories ORDER BY sort_order, id`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Category{}
    for rows.Next() {
        var c model.Category
        if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder); err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

func (p *Postgres) SaveCategory(ctx context.Context, c model.Category) (model.Category, error) {
    if c.ID == "" {
        c.ID = uuid.New().String()
        err := p.db.QueryRowContext(ctx, `INSERT INTO categories (id, name, slug, sort_order)
            VALUES ($1,$2,$3,(SELECT COALESCE(MAX(sort_order)+1,0) FROM categories)) RETURNING sort_order`,
            c.ID, c.Name, c.Slug).Scan(&c.SortOrder)
        return c, err
    }
    err := p.db.QueryRowContext(ctx, `UPDATE categories SET name=$2, slug=$3 WHERE id=$1 RETURNING sort_order`,
        c.ID, c.Name, c.Slug).Scan(&c.SortOrder)
    if errors.Is(err, sql.ErrNoRows) { return model.Category{}, ErrNotFound }
    return c, err
}

func (p *Postgres) DeleteCategory(ctx context.Context, id string) error {
    return p.execOne(ctx, `DELETE FROM categories WHERE id=$1`, id)
}

const productCols = `p.id::text, p.category_id::text, p.name, p.slug, COALESCE(p.description,''), p.price, COALESCE(p.old_price,0), COALESCE(p.image_url,''), p.in_stock, p.sort_order, p.created_at`

func scanProduct(sc interface{ Scan(dest ...any) error }) (model.Product, error) {
    var pr model.Product
    err := sc.Scan(&pr.ID, &pr.CategoryID, &pr.Name, &pr.Slug, &pr.Description, &pr.Price, &pr.OldPrice, &pr.ImageURL, &pr.InStock, &pr.SortOrder, &pr.CreatedAt)
    return pr, err
}

func (p *Postgres) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
    q := `SELECT ` + productCols + ` FROM products p`
    args := []any{}
    where := []string{}
    if f.CategorySlug != "" {
        q += ` JOIN categories c ON c.id = p.category_id`
        args = append(args, f.CategorySlug)
        where = append(where, fmt.Sprintf("c.slug = $%d", len(args)))
    }
    if f.InStockOnly {
        where = append(where, "p.in_stock")
    }
    if len(where) > 0 { q += ` WHERE ` + strings.Join(where, " AND ") }
    q += ` ORDER BY p.sort_order, p.id`
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Product{}
    for rows.Next() {
        pr, err := scanProduct(rows)
        if err != nil { return nil, err }
        out = append(out, pr)
    }
    return out, rows.Err()
}

func (p *Postgres) GetProduct(ctx context.Context, id string) (model.Product, error) {
    if _, err := uuid.Parse(id); err != nil { return model.Product{}, ErrNotFound }
    pr, err := scanProduct(p.db.QueryRowContext(ctx, `SELECT `+productCols+` FROM products p WHERE p.id=$1`, id))
    if errors.Is(err, sql.ErrNoRows) { return model.Product{}, ErrNotFound }
    return pr, err
}

func (p *Postgres) SaveProduct(ctx context.Context, pr model.Product) (model.Product, error) {
    if pr.ID == "" {
        pr.ID = uuid.New().String()
        err := p.db.QueryRowContext(ctx, `INSERT INTO products (id, category_id, name, slug, description, price, old_price, image_url, in_stock, sort_order)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,(SELECT COALESCE(MAX(sort_order)+1,0) FROM products))
            RETURNING sort_order, created_at`,
            pr.ID, pr.CategoryID, pr.Name, pr.Slug, nullIfEmpty(pr.Description), pr.Price, nullIfZero(pr.OldPrice), nullIfEmpty(pr.ImageURL), pr.InStock).
            Scan(&pr.SortOrder, &pr.CreatedAt)
        return pr, err
    }
    err := p.db.QueryRowContext(ctx, `UPDATE products SET category_id=$2, name=$3, slug=$4, description=$5, price=$6, old_price=$7, image_url=$8, in_stock=$9
        WHERE id=$1 RETURNING sort_order, created_at`,
        pr.ID, pr.CategoryID, pr.Name, pr.Slug, nullIfEmpty(pr.Description), pr.Price, nullIfZero(pr.OldPrice), nullIfEmpty(pr.ImageURL), pr.InStock).
        Scan(&pr.SortOrder, &pr.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) { return model.Product{}, ErrNotFound }
    return pr, err
}

func (p *Postgres) DeleteProduct(ctx context.Context, id string) error {
    return p.execOne(ctx, `DELETE FROM products WHERE id=$1`, id)
}

func (p *Postgres) ListReviews(ctx context.Context, approvedOnly bool) ([]model.Review, error) {
    q := `SELECT id::text, author, text, rating, approved, created_at FROM reviews`
    if approvedOnly { q += ` WHERE approved` }
    q += ` ORDER BY created_at DESC`
    rows, err := p.db.QueryContext(ctx, q)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Review{}
    for rows.Next() {
        var r model.Review
        if err := rows.Scan(&r.ID, &r.Author, &r.Text, &r.Rating, &r.Approved, &r.CreatedAt); err != nil { return nil, err }
        out = append(out, r)
    }
    return out, rows.Err()
}

func (p *Postgres) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
    r.ID = uuid.New().String()
    r.Approved = false
    err := p.db.QueryRowContext(ctx, `INSERT INTO reviews (id, author, text, rating, approved) VALUES ($1,$2,$3,$4,false) RETURNING created_at`,
        r.ID, r.Author, r.Text, r.Rating).Scan(&r.CreatedAt)
    return r, err
}

func (p *Postgres) SetReviewApproved(ctx context.Context, id string, approved bool) error {
    return p.execOne(ctx, `UPDATE reviews SET approved=$2 WHERE id=$1`, id, approved)
}

func (p *Postgres) DeleteReview(ctx context.Context, id string) error {
    return p.execOne(ctx, `DELETE FROM reviews WHERE id=$1`, id)
}

func (p *Postgres) ListHeroSlides(ctx context.Context, activeOnly bool) ([]model.HeroSlide, error) {
    q := `SELECT id::text, COALESCE(title,''), COALESCE(subtitle,''), image_url, COALESCE(link_url,''), active, sort_order FROM hero_slides`
    if activeOnly { q += ` WHERE active` }
    q += ` ORDER BY sort_order, id`
    rows, err := p.db.QueryContext(ctx, q)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.HeroSlide{}
    for rows.Next() {
        var s model.HeroSlide
        if err := rows.Scan(&s.ID, &s.Title, &s.Subtitle, &s.ImageURL, &s.LinkURL, &s.Active, &s.SortOrder); err != nil { return nil, err }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) SaveHeroSlide(ctx context.Context, s model.HeroSlide) (model.HeroSlide, error) {
    if s.ID == "" {
        s.ID = uuid.New().String()
        err := p.db.QueryRowContext(ctx, `INSERT INTO hero_slides (id, title, subtitle, image_url, link_url, active, sort_order)
            VALUES ($1,$2,$3,$4,$5,$6,(SELECT COALESCE(MAX(sort_order)+1,0) FROM hero_slides)) RETURNING sort_order`,
            s.ID, nullIfEmpty(s.Title), nullIfEmpty(s.Subtitle), s.ImageURL, nullIfEmpty(s.LinkURL), s.Active).Scan(&s.SortOrder)
        return s, err
    }
    err := p.db.QueryRowContext(ctx, `UPDATE hero_slides SET title=$2, subtitle=$3, image_url=$4, link_url=$5, active=$6 WHERE id=$1 RETURNING sort_order`,
        s.ID, nullIfEmpty(s.Title), nullIfEmpty(s.Subtitle), s.ImageURL, nullIfEmpty(s.LinkURL), s.Active).Scan(&s.SortOrder)
    if errors.Is(err, sql.ErrNoRows) { return model.HeroSlide{}, ErrNotFound }
    return s, err
}

func (p *Postgres) DeleteHeroSlide(ctx context.Context, id string) error {
    return p.execOne(ctx, `DELETE FROM hero_slides WHERE id=$1`, id)
}

// UpdateSortOrder writes every position in one transaction; any missing id rolls back all of them.
func (p *Postgres) UpdateSortOrder(ctx context.Context, kind string, ids []string) error {
    table, ok := sortTables[kind]
    if !ok { return ErrUnknownKind }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return err }
    defer func(){ _ = tx.Rollback() }()
    stmt, err := tx.PrepareContext(ctx, `UPDATE `+table+` SET sort_order=$1 WHERE id=$2`)
    if err != nil { return err }
    defer stmt.Close()
    for i, id := range ids {
        res, err := stmt.ExecContext(ctx, i, id)
        if err != nil { return fmt.Errorf("update %s %s: %w", table, id, err) }
        if n, _ := res.RowsAffected(); n == 0 { return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound) }
    }
    return tx.Commit()
}

func (p *Postgres) CreateOrder(ctx context.Context, o model.StoredOrder) (model.StoredOrder, error) {
    if o.ID == "" { o.ID = uuid.New().String() }
    items, err := json.Marshal(o.Items)
    if err != nil { return model.StoredOrder{}, err }
    err = p.db.QueryRowContext(ctx, `INSERT INTO orders (id, total_amount, discount_amount, promo_code, payment_method, payment_status, delivery_type, status, items,
            customer_name, customer_phone, customer_email, recipient_name, recipient_phone, recipient_address, delivery_date, delivery_time, comment, card_message)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19) RETURNING created_at`,
        o.ID, o.TotalAmount, o.DiscountAmount, nullIfEmpty(o.PromoCode), o.PaymentMethod, nullIfEmpty(o.PaymentStatus), o.DeliveryType, o.Status, items,
        o.CustomerName, o.CustomerPhone, nullIfEmpty(o.CustomerEmail), nullIfEmpty(o.RecipientName), nullIfEmpty(o.RecipientPhone), nullIfEmpty(o.RecipientAddress),
        nullIfEmpty(o.DeliveryDate), nullIfEmpty(o.DeliveryTime), nullIfEmpty(o.Comment), nullIfEmpty(o.CardMessage)).Scan(&o.CreatedAt)
    return o, err
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (model.StoredOrder, error) {
    if _, err := uuid.Parse(id); err != nil { return model.StoredOrder{}, ErrNotFound }
    var o model.StoredOrder
    var items []byte
    var promo, payID, payStatus, email, rName, rPhone, rAddr, dDate, dTime, comment, card sql.NullString
    err := p.db.QueryRowContext(ctx, `SELECT id::text, total_amount, discount_amount, promo_code, payment_method, payment_id, payment_status, delivery_type, status, items,
            customer_name, customer_phone, customer_email, recipient_name, recipient_phone, recipient_address, delivery_date, delivery_time, comment, card_message, created_at
        FROM orders WHERE id=$1`, id).Scan(&o.ID, &o.TotalAmount, &o.DiscountAmount, &promo, &o.PaymentMethod, &payID, &payStatus, &o.DeliveryType, &o.Status, &items,
        &o.CustomerName, &o.CustomerPhone, &email, &rName, &rPhone, &rAddr, &dDate, &dTime, &comment, &card, &o.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) { return model.StoredOrder{}, ErrNotFound }
    if err != nil { return model.StoredOrder{}, err }
    if len(items) > 0 {
        if err := json.Unmarshal(items, &o.Items); err != nil { return model.StoredOrder{}, fmt.Errorf("decode order items: %w", err) }
    }
    o.PromoCode, o.PaymentID, o.PaymentStatus = promo.String, payID.String, payStatus.String
    o.CustomerEmail, o.RecipientName, o.RecipientPhone, o.RecipientAddress = email.String, rName.String, rPhone.String, rAddr.String
    o.DeliveryDate, o.DeliveryTime, o.Comment, o.CardMessage = dDate.String, dTime.String, comment.String, card.String
    return o, nil
}

func (p *Postgres) UpdateOrderPayment(ctx context.Context, id, paymentID, paymentStatus string) error {
    return p.execOne(ctx, `UPDATE orders SET payment_id=COALESCE($2, payment_id), payment_status=COALESCE($3, payment_status) WHERE id=$1`,
        id, nullIfEmpty(paymentID), nullIfEmpty(paymentStatus))
}

func (p *Postgres) GetPromoCode(ctx context.Context, code string) (model.PromoCode, error) {
    var pc model.PromoCode
    err := p.db.QueryRowContext(ctx, `SELECT code, COALESCE(percent,0), COALESCE(amount,0), active FROM promo_codes WHERE upper(code)=upper($1) AND active`,
        strings.TrimSpace(code)).Scan(&pc.Code, &pc.Percent, &pc.Amount, &pc.Active)
    if errors.Is(err, sql.ErrNoRows) { return model.PromoCode{}, ErrNotFound }
    return pc, err
}

// VerifyAdminPassword calls the verify_admin_password stored procedure; hashing lives in the database.
func (p *Postgres) VerifyAdminPassword(ctx context.Context, password string) (bool, error) {
    if password == "" { return false, nil }
    var ok sql.NullBool
    if err := p.db.QueryRowContext(ctx, `SELECT verify_admin_password($1)`, password).Scan(&ok); err != nil {
        return false, fmt.Errorf("verify_admin_password: %w", err)
    }
    return ok.Valid && ok.Bool, nil
}

func (p *Postgres) RecordFailedNotification(ctx context.Context, f model.FailedNotification) error {
    if f.ID == "" { f.ID = uuid.New().String() }
    if f.CreatedAt.IsZero() { f.CreatedAt = time.Now().UTC() }
    _, err := p.db.ExecContext(ctx, `INSERT INTO failed_notifications (id, channel, recipient, text, error, attempts, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
        f.ID, f.Channel, f.Recipient, f.Text, f.Error, f.Attempts, f.CreatedAt)
    return err
}

func (p *Postgres) ListFailedNotifications(ctx context.Context, limit int) ([]model.FailedNotification, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, channel, recipient, text, error, attempts, created_at FROM failed_notifications ORDER BY created_at DESC LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.FailedNotification{}
    for rows.Next() {
        var f model.FailedNotification
        if err := rows.Scan(&f.ID, &f.Channel, &f.Recipient, &f.Text, &f.Error, &f.Attempts, &f.CreatedAt); err != nil { return nil, err }
        out = append(out, f)
    }
    return out, rows.Err()
}

// execOne runs a statement that must touch exactly one row identified by args[0].
func (p *Postgres) execOne(ctx context.Context, q string, args ...any) error {
    if id, ok := args[0].(string); ok {
        if _, err := uuid.Parse(id); err != nil { return ErrNotFound }
    }
    res, err := p.db.ExecContext(ctx, q, args...)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func nullIfEmpty(s string) any { if s == "" { return nil }; return s }
func nullIfZero(n int64) any { if n == 0 { return nil }; return n }
