package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/intake"
)

type HostelHandler struct {
	catalog *catalog.Service
	intake  *intake.Service
	log     *slog.Logger
}

func NewHostelHandler(catalog *catalog.Service, intake *intake.Service, log *slog.Logger) *HostelHandler {
	return &HostelHandler{catalog: catalog, intake: intake, log: log}
}

// Search serves the listing page: q, category, location, min_price and
// max_price filter every bucket; <bucket>_page and per_page page them.
func (h *HostelHandler) Search(w http.ResponseWriter, r *http.Request) {
	in, err := searchInput(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	result, err := h.catalog.Search(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func searchInput(r *http.Request) (catalog.SearchInput, error) {
	q := r.URL.Query()
	in := catalog.SearchInput{
		Query: q.Get("q"),
		Filters: catalog.Filters{
			Category: models.HostelCategory(q.Get("category")),
			Location: q.Get("location"),
		},
		Pages: make(map[catalog.Bucket]catalog.PageRequest),
	}

	var err error
	if in.Filters.MinPrice, err = optionalInt64(r, "min_price"); err != nil {
		return in, err
	}
	if in.Filters.MaxPrice, err = optionalInt64(r, "max_price"); err != nil {
		return in, err
	}

	perPage, _ := strconv.Atoi(q.Get("per_page"))
	for _, b := range catalog.Buckets() {
		page, _ := strconv.Atoi(q.Get(string(b) + "_page"))
		in.Pages[b] = catalog.PageRequest{Page: page, PerPage: perPage}
	}
	return in, nil
}

func (h *HostelHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *HostelHandler) Compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmp, err := h.catalog.Compare(r.Context(), q.Get("a"), q.Get("b"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (h *HostelHandler) Inquire(w http.ResponseWriter, r *http.Request) {
	var req intake.HostelInquiryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	inq, err := h.intake.SubmitHostelInquiry(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, inq)
}
