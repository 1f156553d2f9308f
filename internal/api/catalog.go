package api

import (
    "errors"
    "net/http"

    "github.com/KAYner2/Theame-sub000/internal/model"
    "github.com/KAYner2/Theame-sub000/internal/store"
)

// CategoriesHandler handles GET /api/categories
func (s *Server) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { methodNotAllowed(w, http.MethodGet); return }
    items, err := s.Store.ListCategories(r.Context())
    if err != nil { s.storeFailure(w, r, "List categories failed", err); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ProductsHandler handles GET /api/products?category=slug&inStock=1
func (s *Server) ProductsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { methodNotAllowed(w, http.MethodGet); return }
    q := r.URL.Query()
    f := model.ProductFilter{CategorySlug: q.Get("category")}
    switch q.Get("inStock") {
    case "1", "true":
        f.InStockOnly = true
    }
    items, err := s.Store.ListProducts(r.Context(), f)
    if err != nil { s.storeFailure(w, r, "List products failed", err); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ProductByIDHandler handles GET /api/products/{id}
func (s *Server) ProductByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { methodNotAllowed(w, http.MethodGet); return }
    id, rest := pathID(r.URL.Path, "/api/products/")
    if id == "" || rest != "" { writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path); return }
    p, err := s.Store.GetProduct(r.Context(), id)
    if err != nil { s.storeFailure(w, r, "Get product failed", err); return }
    writeJSON(w, http.StatusOK, p)
}

// ReviewsHandler handles GET /api/reviews (approved only) and POST /api/reviews (queued for moderation)
func (s *Server) ReviewsHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        items, err := s.Store.ListReviews(r.Context(), true)
        if err != nil { s.storeFailure(w, r, "List reviews failed", err); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": items})
    case http.MethodPost:
        var rv model.Review
        if !s.decodeJSON(w, r, &rv) { return }
        created, err := s.Store.CreateReview(r.Context(), rv)
        if err != nil { s.storeFailure(w, r, "Create review failed", err); return }
        s.Broker.Publish(TopicOrders, Event{Type: "review.created", Data: map[string]any{"reviewId": created.ID, "rating": created.Rating}})
        writeJSON(w, http.StatusCreated, created)
    default:
        methodNotAllowed(w, http.MethodGet, http.MethodPost)
    }
}

// HeroSlidesHandler handles GET /api/hero-slides (active only)
func (s *Server) HeroSlidesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { methodNotAllowed(w, http.MethodGet); return }
    items, err := s.Store.ListHeroSlides(r.Context(), true)
    if err != nil { s.storeFailure(w, r, "List hero slides failed", err); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// storeFailure maps store errors to problems; unexpected errors are logged and hidden.
func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, title string, err error) {
    switch {
    case errors.Is(err, store.ErrNotFound):
        writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), r.URL.Path)
    case errors.Is(err, store.ErrUnknownKind):
        writeProblem(w, http.StatusBadRequest, title, err.Error(), r.URL.Path)
    default:
        s.Log.WithError(err).WithField("path", r.URL.Path).Error(title)
        writeProblem(w, http.StatusInternalServerError, title, "", r.URL.Path)
    }
}
