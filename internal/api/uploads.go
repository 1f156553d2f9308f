package api

import (
    "net/http"
    "strings"

    "github.com/KAYner2/Theame-sub000/internal/media"
)

// UploadHandler handles POST /api/admin/uploads (multipart field "file", images only).
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { methodNotAllowed(w, http.MethodPost); return }
    r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+(1<<20))
    if err := r.ParseMultipartForm(1 << 20); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid upload", err.Error(), r.URL.Path)
        return
    }
    defer func() { _ = r.MultipartForm.RemoveAll() }()
    file, hdr, err := r.FormFile("file")
    if err != nil { writeProblem(w, http.StatusBadRequest, "Invalid upload", "file field required", r.URL.Path); return }
    defer file.Close()
    if hdr.Size > media.MaxUploadSize {
        writeProblem(w, http.StatusRequestEntityTooLarge, "File too large", "limit is 10MB", r.URL.Path)
        return
    }
    ct := hdr.Header.Get("Content-Type")
    if ct == "" || ct == "application/octet-stream" {
        buf := make([]byte, 512)
        n, _ := file.Read(buf)
        ct = http.DetectContentType(buf[:n])
        if _, err := file.Seek(0, 0); err != nil {
            writeProblem(w, http.StatusInternalServerError, "Upload failed", err.Error(), r.URL.Path)
            return
        }
    }
    key, err := media.NewKey(ct, hdr.Filename)
    if err != nil {
        writeProblem(w, http.StatusUnsupportedMediaType, "Unsupported file type", err.Error(), r.URL.Path)
        return
    }
    if err := s.Media.Put(r.Context(), key, file, hdr.Size, ct); err != nil {
        s.Log.WithError(err).WithField("key", key).Error("upload failed")
        writeProblem(w, http.StatusBadGateway, "Upload failed", "", r.URL.Path)
        return
    }
    s.Log.WithField("key", key).Info("image uploaded")
    writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": s.Media.URL(key)})
}

// MediaHandler serves GET /media/{key} when uploads are kept in memory; bucket-backed storage serves itself.
func (s *Server) MediaHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet && r.Method != http.MethodHead { methodNotAllowed(w, http.MethodGet); return }
    mem, ok := s.Media.(*media.Memory)
    if !ok { http.NotFound(w, r); return }
    body, ct, found := mem.Get(strings.TrimPrefix(r.URL.Path, "/media/"))
    if !found { http.NotFound(w, r); return }
    w.Header().Set("Content-Type", ct)
    w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
    w.WriteHeader(http.StatusOK)
    if r.Method == http.MethodGet { _, _ = w.Write(body) }
}
