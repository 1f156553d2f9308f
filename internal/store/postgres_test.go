package store

import (
    "context"
    "errors"
    "testing"
)

func TestNullIfEmpty(t *testing.T) {
    if v := nullIfEmpty(""); v != nil { t.Fatalf("empty -> nil expected") }
    if v := nullIfEmpty("a"); v != "a" { t.Fatalf("non-empty passthrough expected, got %v", v) }
    if v := nullIfZero(0); v != nil { t.Fatalf("zero -> nil expected") }
    if v := nullIfZero(5); v != int64(5) { t.Fatalf("non-zero passthrough expected, got %v", v) }
}

func TestSortTablesMatchKinds(t *testing.T) {
    for _, k := range []string{KindProducts, KindCategories, KindHeroSlides} {
        if _, ok := sortTables[k]; !ok { t.Fatalf("kind %s has no table", k) }
        if !ValidKind(k) { t.Fatalf("kind %s not valid", k) }
    }
    if ValidKind("orders") { t.Fatalf("orders must not be sortable") }
}

func TestPostgresRejectsNonUUIDWithoutQuery(t *testing.T) {
    // db is nil: any query would panic, so these must short-circuit.
    p := &Postgres{}
    ctx := context.Background()
    if _, err := p.GetProduct(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) { t.Fatalf("GetProduct: %v", err) }
    if _, err := p.GetOrder(ctx, "42"); !errors.Is(err, ErrNotFound) { t.Fatalf("GetOrder: %v", err) }
    if err := p.DeleteReview(ctx, "x"); !errors.Is(err, ErrNotFound) { t.Fatalf("DeleteReview: %v", err) }
    if err := p.UpdateSortOrder(ctx, "users", []string{"a"}); !errors.Is(err, ErrUnknownKind) { t.Fatalf("UpdateSortOrder: %v", err) }
    if ok, err := p.VerifyAdminPassword(ctx, ""); ok || err != nil { t.Fatalf("empty password: %v %v", ok, err) }
}
