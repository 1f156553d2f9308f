package api

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/sirupsen/logrus"

    "github.com/KAYner2/Theame-sub000/internal/catalog"
    "github.com/KAYner2/Theame-sub000/internal/model"
)

// AdminCategoriesHandler handles /api/admin/categories[/{id}]
func (s *Server) AdminCategoriesHandler(w http.ResponseWriter, r *http.Request) {
    id, _ := pathID(r.URL.Path, "/api/admin/categories")
    switch {
    case id == "" && r.Method == http.MethodGet:
        items, err := s.Store.ListCategories(r.Context())
        if err != nil { s.storeFailure(w, r, "List categories failed", err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case id == "" && r.Method == http.MethodPost, id != "" && r.Method == http.MethodPut:
        var c model.Category
        if !s.decodeJSON(w, r, &c) { return }
        c.ID = id
        saved, err := s.Store.SaveCategory(r.Context(), c)
        if err != nil { s.storeFailure(w, r, "Save category failed", err); return }
        writeJSON(w, savedStatus(id), saved)
    case id != "" && r.Method == http.MethodDelete:
        if err := s.Store.DeleteCategory(r.Context(), id); err != nil { s.storeFailure(w, r, "Delete category failed", err); return }
        w.WriteHeader(http.StatusNoContent)
    default:
        methodNotAllowed(w, allowed(id)...)
    }
}

// AdminProductsHandler handles /api/admin/products[/{id}]
func (s *Server) AdminProductsHandler(w http.ResponseWriter, r *http.Request) {
    id, _ := pathID(r.URL.Path, "/api/admin/products")
    switch {
    case id == "" && r.Method == http.MethodGet:
        items, err := s.Store.ListProducts(r.Context(), model.ProductFilter{CategorySlug: r.URL.Query().Get("category")})
        if err != nil { s.storeFailure(w, r, "List products failed", err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case id != "" && r.Method == http.MethodGet:
        p, err := s.Store.GetProduct(r.Context(), id)
        if err != nil { s.storeFailure(w, r, "Get product failed", err); return }
        writeJSON(w, http.StatusOK, p)
    case id == "" && r.Method == http.MethodPost, id != "" && r.Method == http.MethodPut:
        var p model.Product
        if !s.decodeJSON(w, r, &p) { return }
        p.ID = id
        saved, err := s.Store.SaveProduct(r.Context(), p)
        if err != nil { s.storeFailure(w, r, "Save product failed", err); return }
        writeJSON(w, savedStatus(id), saved)
    case id != "" && r.Method == http.MethodDelete:
        if err := s.Store.DeleteProduct(r.Context(), id); err != nil { s.storeFailure(w, r, "Delete product failed", err); return }
        w.WriteHeader(http.StatusNoContent)
    default:
        methodNotAllowed(w, allowed(id)...)
    }
}

// AdminHeroSlidesHandler handles /api/admin/hero-slides[/{id}]
func (s *Server) AdminHeroSlidesHandler(w http.ResponseWriter, r *http.Request) {
    id, _ := pathID(r.URL.Path, "/api/admin/hero-slides")
    switch {
    case id == "" && r.Method == http.MethodGet:
        items, err := s.Store.ListHeroSlides(r.Context(), false)
        if err != nil { s.storeFailure(w, r, "List hero slides failed", err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case id == "" && r.Method == http.MethodPost, id != "" && r.Method == http.MethodPut:
        var hs model.HeroSlide
        if !s.decodeJSON(w, r, &hs) { return }
        hs.ID = id
        saved, err := s.Store.SaveHeroSlide(r.Context(), hs)
        if err != nil { s.storeFailure(w, r, "Save hero slide failed", err); return }
        writeJSON(w, savedStatus(id), saved)
    case id != "" && r.Method == http.MethodDelete:
        if err := s.Store.DeleteHeroSlide(r.Context(), id); err != nil { s.storeFailure(w, r, "Delete hero slide failed", err); return }
        w.WriteHeader(http.StatusNoContent)
    default:
        methodNotAllowed(w, allowed(id)...)
    }
}

// AdminReviewsHandler handles GET /api/admin/reviews, PATCH and DELETE /api/admin/reviews/{id}
func (s *Server) AdminReviewsHandler(w http.ResponseWriter, r *http.Request) {
    id, _ := pathID(r.URL.Path, "/api/admin/reviews")
    switch {
    case id == "" && r.Method == http.MethodGet:
        items, err := s.Store.ListReviews(r.Context(), false)
        if err != nil { s.storeFailure(w, r, "List reviews failed", err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case id != "" && r.Method == http.MethodPatch:
        var body struct {
            Approved *bool `json:"approved" validate:"required"`
        }
        if !s.decodeJSON(w, r, &body) { return }
        if err := s.Store.SetReviewApproved(r.Context(), id, *body.Approved); err != nil { s.storeFailure(w, r, "Moderate review failed", err); return }
        writeJSON(w, http.StatusOK, map[string]any{"id": id, "approved": *body.Approved})
    case id != "" && r.Method == http.MethodDelete:
        if err := s.Store.DeleteReview(r.Context(), id); err != nil { s.storeFailure(w, r, "Delete review failed", err); return }
        w.WriteHeader(http.StatusNoContent)
    case id == "":
        methodNotAllowed(w, http.MethodGet)
    default:
        methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
    }
}

// AdminReorderHandler handles POST /api/admin/reorder.
// Body is either the full new order {kind, ids} or a single drop {kind, ids, from, to} applied to ids.
func (s *Server) AdminReorderHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { methodNotAllowed(w, http.MethodPost); return }
    var req struct {
        Kind string   `json:"kind" validate:"required,oneof=products categories hero_slides"`
        IDs  []string `json:"ids" validate:"required,min=1,dive,required"`
        From *int     `json:"from,omitempty"`
        To   *int     `json:"to,omitempty"`
    }
    if !s.decodeJSON(w, r, &req) { return }
    ids := req.IDs
    if req.From != nil || req.To != nil {
        if req.From == nil || req.To == nil {
            writeProblem(w, http.StatusBadRequest, "Invalid reorder", "from and to go together", r.URL.Path)
            return
        }
        moved, err := catalog.Move(ids, *req.From, *req.To)
        if err != nil { writeProblem(w, http.StatusBadRequest, "Invalid reorder", err.Error(), r.URL.Path); return }
        ids = moved
    }
    if err := s.Reorder.Apply(r.Context(), req.Kind, ids); err != nil {
        if isClientReorderErr(err) {
            writeProblem(w, http.StatusBadRequest, "Invalid reorder", err.Error(), r.URL.Path)
            return
        }
        s.storeFailure(w, r, "Reorder failed", err)
        return
    }
    if p, ok := principalFrom(r.Context()); ok {
        s.Log.WithFields(logrus.Fields{"admin": p.Subject, "kind": req.Kind, "count": len(ids)}).Info("catalog reordered")
    }
    writeJSON(w, http.StatusOK, map[string]any{"kind": req.Kind, "ids": ids})
}

// FailedNotificationsHandler handles GET /api/admin/failed-notifications?limit=N
func (s *Server) FailedNotificationsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { methodNotAllowed(w, http.MethodGet); return }
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil { limit = n }
    }
    items, err := s.Store.ListFailedNotifications(r.Context(), limit)
    if err != nil { s.storeFailure(w, r, "List failed notifications failed", err); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func savedStatus(id string) int {
    if id == "" { return http.StatusCreated }
    return http.StatusOK
}

func allowed(id string) []string {
    if id == "" { return []string{http.MethodGet, http.MethodPost} }
    return []string{http.MethodPut, http.MethodDelete}
}

func isClientReorderErr(err error) bool {
    return errors.Is(err, catalog.ErrDuplicate) || errors.Is(err, catalog.ErrEmpty) || errors.Is(err, catalog.ErrOutOfRange)
}
